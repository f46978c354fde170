package ateccx08

import (
	"time"

	"periph.io/x/conn/v3/i2c"
)

// wakePulseAddress is guaranteed to be unaddressable by the device.
//
// Addressing it holds SDA low for more than tWLO (60µs) at the 100kHz wake
// clock, which is the pulse that rouses the device from sleep.
const wakePulseAddress = 0x00

// settleDelay is the fixed delay after every power-state transition.
const settleDelay = time.Millisecond

// halI2C drives the device directly over an I²C bus.
//
// It owns the power-state side of the protocol: the wake pulse and the
// idle and sleep word addresses. State is deliberately not tracked; the
// transition writes are cheap and reissuing them is always safe.
type halI2C struct {
	bus  i2c.Bus
	addr uint16
}

func newHALI2C(cfg IfaceConfig) *halI2C {
	return &halI2C{
		bus:  cfg.I2C.Bus,
		addr: cfg.I2C.Address,
	}
}

// Wake generates the wake pulse and waits for the device to come up.
//
// The write fails on most bus hosts because nothing acknowledges address
// zero. That is the expected outcome, not an error: the pulse has done its
// job by then, so the failure is discarded.
func (h *halI2C) Wake() error {
	_ = h.bus.Tx(wakePulseAddress, []byte{wordAddressReset}, nil)
	time.Sleep(settleDelay)
	return nil
}

func (h *halI2C) Idle() error {
	if err := h.bus.Tx(h.addr, []byte{wordAddressIdle}, nil); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	return nil
}

func (h *halI2C) Sleep() error {
	if err := h.bus.Tx(h.addr, []byte{wordAddressSleep}, nil); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	return nil
}

func (h *halI2C) Write(p []byte) (int, error) {
	if err := h.bus.Tx(h.addr, p, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (h *halI2C) Read(p []byte) (int, error) {
	if err := h.bus.Tx(h.addr, nil, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
