package ateccx08

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/karalabe/usb"
)

// ErrUSBNotSupported is returned when the USB support is missing.
//
// When building, CGO is required for USB support. If CGO is not enabled,
// the HID interface will not be available.
var ErrUSBNotSupported = errors.New("ateccx08: usb support is missing")

// NewHIDDev returns a device reached through a USB dev kit.
//
// The returned closer releases the HID handle.
func NewHIDDev(ctx context.Context, cfg IfaceConfig) (*Dev, io.Closer, error) {
	if !usb.Supported() {
		return nil, nil, ErrUSBNotSupported
	}

	deviceInfos, err := usb.EnumerateHid(cfg.HID.VendorID, cfg.HID.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("ateccx08: failed to get hid devices: %w", err)
	}
	for _, di := range deviceInfos {
		hid, e := di.Open()
		if e != nil {
			err = e
			continue
		}

		phy := &halHID{hid}
		hal, err := newHALKit(ctx, phy, cfg)
		if err != nil {
			return nil, nil, err
		}
		d, err := New(ctx, hal, cfg)
		if err != nil {
			return nil, nil, err
		}
		return d, hid, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ateccx08: %w", err)
	}
	return nil, nil, errors.New("ateccx08: no hid devices found")
}

// halHID is the raw USB HID phy underneath the kit protocol.
//
// Power-state transitions happen on the kit side of the bridge; the phy
// itself has none.
type halHID struct {
	usb usb.Device
}

func (h *halHID) Write(p []byte) (int, error) {
	return h.usb.Write(p)
}

func (h *halHID) Read(p []byte) (int, error) {
	return h.usb.Read(p)
}

func (h *halHID) Wake() error {
	return errors.New("ateccx08: wake is handled by the kit protocol")
}

func (h *halHID) Idle() error {
	return errors.New("ateccx08: idle is handled by the kit protocol")
}

func (h *halHID) Sleep() error {
	return errors.New("ateccx08: sleep is handled by the kit protocol")
}
