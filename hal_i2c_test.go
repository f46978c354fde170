package ateccx08

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

type busTx struct {
	addr uint16
	w    []byte
	r    int
}

// fakeBus records transactions and NAKs any address not in acks.
type fakeBus struct {
	txs  []busTx
	acks map[uint16]bool
}

func (b *fakeBus) String() string { return "fake" }

func (b *fakeBus) SetSpeed(f physic.Frequency) error { return nil }

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.txs = append(b.txs, busTx{addr, append([]byte(nil), w...), len(r)})
	if !b.acks[addr] {
		return errors.New("i2c: device NAK")
	}
	return nil
}

func newFakeBusHAL() (*fakeBus, *halI2C) {
	bus := &fakeBus{acks: map[uint16]bool{defaultI2CAddress: true}}
	h := newHALI2C(ConfigATECCX08AI2CDefault(bus))
	return bus, h
}

func TestHALI2CWake(t *testing.T) {
	bus, h := newFakeBusHAL()

	// Nothing acknowledges bus address zero; the NAK is the point.
	require.NoError(t, h.Wake())

	require.Len(t, bus.txs, 1)
	assert.Equal(t, uint16(wakePulseAddress), bus.txs[0].addr)
	assert.Equal(t, []byte{wordAddressReset}, bus.txs[0].w)
}

func TestHALI2CIdle(t *testing.T) {
	bus, h := newFakeBusHAL()

	// The transition is reissued on every call, device state is never
	// presumed.
	require.NoError(t, h.Idle())
	require.NoError(t, h.Idle())

	require.Len(t, bus.txs, 2)
	for _, tx := range bus.txs {
		assert.Equal(t, uint16(defaultI2CAddress), tx.addr)
		assert.Equal(t, []byte{wordAddressIdle}, tx.w)
	}
}

func TestHALI2CSleep(t *testing.T) {
	bus, h := newFakeBusHAL()

	require.NoError(t, h.Sleep())

	require.Len(t, bus.txs, 1)
	assert.Equal(t, []byte{wordAddressSleep}, bus.txs[0].w)
}

func TestHALI2CTransitionError(t *testing.T) {
	bus := &fakeBus{}
	h := newHALI2C(ConfigATECCX08AI2CDefault(bus))

	assert.Error(t, h.Idle())
	assert.Error(t, h.Sleep())
}

func TestHALI2CWrite(t *testing.T) {
	bus, h := newFakeBusHAL()

	frame := []byte{0x03, 0x07, 0x30, 0x00, 0x00, 0x00, 0x03, 0x5d}
	n, err := h.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)

	require.Len(t, bus.txs, 1)
	assert.Equal(t, frame, bus.txs[0].w)
}

func TestHALI2CRead(t *testing.T) {
	bus, h := newFakeBusHAL()

	buf := make([]byte, 7)
	n, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	require.Len(t, bus.txs, 1)
	assert.Empty(t, bus.txs[0].w)
	assert.Equal(t, len(buf), bus.txs[0].r)
}
