package ateccx08

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomResponse(fill byte) []byte {
	b := make([]byte, randomSize)
	for i := range b {
		b[i] = fill
	}
	return deviceResponse(b)
}

func TestRandomReader(t *testing.T) {
	h := &halScript{responses: [][]byte{randomResponse(0xa5), randomResponse(0x5a)}}
	d := newTestDev(h)

	// 64 bytes need two Random commands behind the reader.
	buf := make([]byte, 2*randomSize)
	_, err := io.ReadFull(d.Random(context.Background()), buf)
	require.NoError(t, err)

	assert.Equal(t, byte(0xa5), buf[0])
	assert.Equal(t, byte(0x5a), buf[randomSize])
	require.Len(t, h.frames, 2)
	assert.Equal(t, byte(opRandom), h.frames[0][2])
	assert.Equal(t, byte(randomModeUpdateSeed), h.frames[0][3])
}

func TestRandomReaderEmpty(t *testing.T) {
	h := &halScript{}
	d := newTestDev(h)

	n, err := d.Random(context.Background()).Read(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, h.events)
}

func TestRandomInRange(t *testing.T) {
	// The first 16 response bytes sum to 37; 37 % 10 = 7.
	raw := make([]byte, randomSize)
	raw[0] = 37
	h := &halScript{responses: [][]byte{deviceResponse(raw)}}
	d := newTestDev(h)

	n, err := d.RandomInRange(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestRandomInRangeOffset(t *testing.T) {
	raw := make([]byte, randomSize)
	raw[3] = 12
	h := &halScript{responses: [][]byte{deviceResponse(raw)}}
	d := newTestDev(h)

	// 12 % (30 - 20) = 2, shifted into [20, 30).
	n, err := d.RandomInRange(context.Background(), 20, 30)
	require.NoError(t, err)
	assert.Equal(t, 22, n)
}

func TestRandomInRangeEmptyInterval(t *testing.T) {
	h := &halScript{}
	d := newTestDev(h)

	for _, tt := range []struct{ min, max int }{{5, 5}, {10, 3}, {-1, -1}} {
		n, err := d.RandomInRange(context.Background(), tt.min, tt.max)
		require.NoError(t, err)
		assert.Equal(t, tt.min, n)
	}

	// An empty interval has exactly one answer; the device is not asked.
	assert.Empty(t, h.events)
}

func TestRandomShortResponse(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse(make([]byte, 16))}}
	d := newTestDev(h)

	var buf [randomSize]byte
	_, err := d.random(context.Background(), buf[:])
	assert.ErrorIs(t, err, ErrNoResponse)
}
