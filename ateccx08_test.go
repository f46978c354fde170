package ateccx08

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errBusNAK stands in for a transient bus-level failure in tests.
var errBusNAK = errors.New("bus: device NAK")

// halScript is an in-memory HAL that records the command sequence it is
// driven through and answers reads from a queue of canned device frames.
type halScript struct {
	events    []string
	frames    [][]byte
	responses [][]byte

	// readErrs makes the next n reads fail with errBusNAK before the
	// response queue is consulted.
	readErrs  int
	readCalls int
	wakeErr   error
}

func (h *halScript) Wake() error {
	h.events = append(h.events, "wake")
	return h.wakeErr
}

func (h *halScript) Idle() error {
	h.events = append(h.events, "idle")
	return nil
}

func (h *halScript) Sleep() error {
	h.events = append(h.events, "sleep")
	return nil
}

func (h *halScript) Write(p []byte) (int, error) {
	h.events = append(h.events, "write")
	h.frames = append(h.frames, append([]byte(nil), p...))
	return len(p), nil
}

func (h *halScript) Read(p []byte) (int, error) {
	h.readCalls++
	h.events = append(h.events, "read")
	if h.readErrs > 0 {
		h.readErrs--
		return 0, errBusNAK
	}
	if len(h.responses) == 0 {
		return 0, errBusNAK
	}
	r := h.responses[0]
	h.responses = h.responses[1:]
	copy(p, r)
	return len(p), nil
}

func (h *halScript) count(event string) int {
	n := 0
	for _, e := range h.events {
		if e == event {
			n++
		}
	}
	return n
}

// deviceResponse frames payload the way the device does: a count byte
// covering the whole frame followed by the payload and a little-endian crc.
func deviceResponse(payload []byte) []byte {
	b := make([]byte, 0, len(payload)+3)
	b = append(b, byte(len(payload)+3))
	b = append(b, payload...)
	return binary.LittleEndian.AppendUint16(b, CRC16(b))
}

func statusResponse(code uint8) []byte {
	return deviceResponse([]byte{code})
}

var (
	revisionATECC608Resp = []byte{0x00, 0x00, 0x60, 0x02}
	revisionATECC508Resp = []byte{0x00, 0x00, 0x50, 0x00}
)

func newTestDev(h HAL) *Dev {
	return &Dev{hal: h, log: nullLogger}
}

func TestNew(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse(revisionATECC608Resp)}}
	d, err := New(context.Background(), h, IfaceConfig{})
	require.NoError(t, err)

	dt, err := DeviceTypeFromInfo(revisionATECC608Resp)
	require.NoError(t, err)
	assert.Equal(t, DeviceATECC608, dt)
	assert.NotNil(t, d)
}

func TestNewBadRevision(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse([]byte{0x00, 0x00, 0x40, 0x00})}}
	_, err := New(context.Background(), h, IfaceConfig{})
	assert.ErrorIs(t, err, ErrBadRevision)
}

func TestNewNoDevice(t *testing.T) {
	h := &halScript{}
	_, err := New(context.Background(), h, IfaceConfig{})
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestExecuteSequence(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse(revisionATECC508Resp)}}
	d := newTestDev(h)

	rev, err := d.Revision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, revisionATECC508Resp, rev)

	// One wake before the transmission, one idle after the response, no
	// matter how many read attempts happened in between.
	assert.Equal(t, 1, h.count("wake"))
	assert.Equal(t, 1, h.count("idle"))
	assert.Equal(t, []string{"wake", "write", "read", "idle"}, h.events)
}

func TestExecuteWaitsForCompletion(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse(make([]byte, randomSize))}}
	d := newTestDev(h)

	var buf [randomSize]byte
	start := time.Now()
	_, err := d.random(context.Background(), buf[:])
	require.NoError(t, err)

	// Random's worst-case execution time is 23ms; the first read must not
	// happen before that window has elapsed.
	assert.GreaterOrEqual(t, time.Since(start), 23*time.Millisecond)
}

func TestExecuteUnknownOpcode(t *testing.T) {
	h := &halScript{}
	d := newTestDev(h)

	_, err := d.Execute(context.Background(), 0x99, 0, 0, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidParam)

	// An unrecognized opcode has no known completion window, so it must be
	// rejected before any bus traffic.
	assert.Empty(t, h.events)
}

func TestExecuteContextCanceled(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse(revisionATECC508Resp)}}
	d := newTestDev(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf [randomSize]byte
	_, err := d.random(ctx, buf[:])
	assert.ErrorIs(t, err, context.Canceled)

	// The command was already transmitted; the device is still idled.
	assert.Equal(t, []string{"wake", "write", "idle"}, h.events)
}

func TestReadRetryExhausted(t *testing.T) {
	h := &halScript{}
	d := newTestDev(h)

	_, err := d.Revision(context.Background())
	assert.ErrorIs(t, err, ErrNoResponse)

	// The attempt budget is fixed, not configurable.
	assert.Equal(t, 20, h.readCalls)
	assert.Equal(t, 1, h.count("idle"))
}

func TestReadRetryTransient(t *testing.T) {
	h := &halScript{
		readErrs:  3,
		responses: [][]byte{deviceResponse(revisionATECC508Resp)},
	}
	d := newTestDev(h)

	rev, err := d.Revision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, revisionATECC508Resp, rev)
	assert.Equal(t, 4, h.readCalls)
}

func TestReadCRCMismatch(t *testing.T) {
	resp := deviceResponse(revisionATECC508Resp)
	resp[1] ^= 0x01
	h := &halScript{responses: [][]byte{resp}}
	d := newTestDev(h)

	_, err := d.Revision(context.Background())
	assert.ErrorIs(t, err, ErrCRCMismatch)

	// The frame was read in full; the corruption is real and a re-read
	// would only hide it.
	assert.Equal(t, 1, h.readCalls)
}

func TestReadCountOutOfRange(t *testing.T) {
	for _, count := range []byte{0, 1, 2, 3, 0xff} {
		resp := deviceResponse(revisionATECC508Resp)
		resp[0] = count
		h := &halScript{responses: [][]byte{resp}}
		d := newTestDev(h)

		_, err := d.Revision(context.Background())
		assert.ErrorIs(t, err, ErrCRCMismatch, "count %#x", count)
		assert.Equal(t, 1, h.readCalls)
	}
}

func TestReadStatusFrame(t *testing.T) {
	h := &halScript{responses: [][]byte{statusResponse(statusExecutionError)}}
	d := newTestDev(h)

	_, err := d.Revision(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint8(statusExecutionError), se.Code)
}

func TestReadStatusFrameSelfTest(t *testing.T) {
	h := &halScript{responses: [][]byte{statusResponse(statusSelfTestFailed)}}
	d := newTestDev(h)

	_, err := d.Revision(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "self test")
}

func TestExecuteWakeError(t *testing.T) {
	h := &halScript{wakeErr: errBusNAK}
	d := newTestDev(h)

	_, err := d.Revision(context.Background())
	assert.ErrorIs(t, err, errBusNAK)
	assert.Equal(t, 0, h.count("write"))
}

func TestVersion(t *testing.T) {
	h := &halScript{responses: [][]byte{deviceResponse(revisionATECC608Resp)}}
	d := newTestDev(h)

	v, err := d.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x6002), v)
}
