package ateccx08

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// rxRetries is the fixed response read attempt budget.
//
// The device NACKs reads while a command is still executing; a handful of
// immediate re-attempts absorbs that. A larger budget would only mask a
// wiring problem.
const rxRetries = 20

// Dev is a handle to a single ATECC508A or ATECC608A device.
//
// A Dev holds no internal lock. The device accepts one in-flight command at
// a time, so concurrent calls against the same Dev are undefined and must
// be serialized by the caller.
type Dev struct {
	hal HAL
	cfg IfaceConfig
	enc packetEncoder
	log Logger
}

// New returns a new device using the supplied HAL for communication.
//
// It verifies that a device with a recognized hardware revision answers on
// the bus and fails with ErrBadRevision otherwise.
func New(ctx context.Context, hal HAL, cfg IfaceConfig) (*Dev, error) {
	d := &Dev{
		hal: &halDebug{"ecc", getLogger(cfg), hal},
		cfg: cfg,
		log: getLogger(cfg),
	}
	return d, d.init(ctx)
}

// NewI2CDev returns a new device wired directly to an I²C bus.
//
// The bus is owned by the caller and must stay open for the lifetime of
// the returned device.
func NewI2CDev(ctx context.Context, cfg IfaceConfig) (*Dev, error) {
	return New(ctx, newHALI2C(cfg), cfg)
}

func (d *Dev) init(ctx context.Context) error {
	rev, err := d.Revision(ctx)
	if err != nil {
		return fmt.Errorf("ateccx08: failed to probe device: %w", err)
	}
	_, err = DeviceTypeFromInfo(rev)
	return err
}

// Revision gets the 4-byte device revision.
//
// This information is hard coded into the device. Use it to determine the
// version of the device.
func (d *Dev) Revision(ctx context.Context) ([]byte, error) {
	var recv [4]byte
	p, err := newInfoCommand(infoModeRevision)
	if err != nil {
		return nil, err
	}
	n, err := d.executeResponse(ctx, p, recv[:])
	return recv[:n], err
}

// Version returns the device version word from the revision.
func (d *Dev) Version(ctx context.Context) (uint16, error) {
	rev, err := d.Revision(ctx)
	if err != nil {
		return 0, err
	}
	if len(rev) < 4 {
		return 0, ErrNoResponse
	}
	return uint16(rev[2])<<8 | uint16(rev[3]), nil
}

// Wake forces the device into the awake state.
//
// Every command wakes the device itself; Wake only needs to be called when
// driving the HAL manually.
func (d *Dev) Wake() error {
	return d.hal.Wake()
}

// Idle puts the device into idle mode.
//
// Idle mode stops the watchdog from expiring mid-command. The transition is
// reissued on every call regardless of presumed device state.
func (d *Dev) Idle() error {
	return d.hal.Idle()
}

// Sleep puts the device into low-power sleep mode.
func (d *Dev) Sleep() error {
	return d.hal.Sleep()
}

// Execute frames and runs a raw command against the device.
//
// It returns up to respLen bytes of response payload. Most callers want the
// typed operations instead; Execute is the escape hatch for commands this
// package has no wrapper for.
func (d *Dev) Execute(ctx context.Context, opcode, param1 uint8, param2 uint16, data []byte, respLen int) ([]byte, error) {
	p, err := newPacket(opcode, param1, param2, data)
	if err != nil {
		return nil, err
	}
	recv := make([]byte, respLen)
	n, err := d.executeResponse(ctx, p, recv)
	return recv[:n], err
}

// execute executes the command and returns any error encountered.
//
// It is used for commands whose whole response is a single status byte;
// a non-zero status surfaces as a *StatusError.
func (d *Dev) execute(ctx context.Context, p *packet) error {
	var buf [1]byte
	_, err := d.executeResponse(ctx, p, buf[:])
	return err
}

// executeResponse runs the full command sequence against the device.
//
// The sequence is fixed: wake, transmit the encoded packet, wait out the
// opcode's worst-case execution time, read and validate the response, idle.
// None of the steps may be skipped or reordered. The device is put back
// into idle mode even when the command fails.
//
// It returns the number of payload bytes copied into recv.
func (d *Dev) executeResponse(ctx context.Context, p *packet, recv []byte) (int, error) {
	// Resolve the completion window first; an unknown opcode must not
	// generate bus traffic.
	t, err := getExecutionTime(p.opcode)
	if err != nil {
		return 0, err
	}

	b, err := d.enc.Encode(p)
	if err != nil {
		return 0, err
	}

	// The device reverts to sleep between commands, so it is woken up
	// before every transmission.
	if err := d.hal.Wake(); err != nil {
		return 0, err
	}
	defer func() {
		_ = d.hal.Idle()
	}()

	if _, err := d.hal.Write(b); err != nil {
		return 0, err
	}

	// Wait for the device-side completion window to elapse. Reading
	// earlier makes the device NACK or worse, answer with a stale frame.
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(t):
	}

	payload, err := d.readResponse(len(recv))
	if err != nil {
		return 0, err
	}

	return copy(recv, payload), nil
}

// readResponse reads and validates a response with size payload bytes.
//
// The full frame (count byte, payload and crc) is read in one bus
// transaction. A transient bus error fails only that attempt; the read is
// re-attempted up to the fixed budget and exhausting it is a communication
// failure. A frame that reads fully but fails its crc is never re-read:
// the bus transaction completed, so the corruption is real.
func (d *Dev) readResponse(size int) ([]byte, error) {
	buf := make([]byte, size+3)

	ok := false
	for i := 0; i < rxRetries; i++ {
		if _, err := d.hal.Read(buf); err == nil {
			ok = true
			break
		}
	}
	if !ok {
		return nil, ErrNoResponse
	}

	count := int(buf[0])
	if count < respSizeMin || count > len(buf) {
		return nil, fmt.Errorf("ateccx08: response count %d out of range: %w",
			count, ErrCRCMismatch)
	}

	body, crc := buf[:count-2], buf[count-2:count]
	if CRC16(body) != binary.LittleEndian.Uint16(crc) {
		return nil, ErrCRCMismatch
	}

	// A device that has a status to report instead of data answers with a
	// 4-byte frame.
	if count == respSizeMin {
		if err := validateStatus(body[1]); err != nil {
			return nil, err
		}
	}

	return body[1:], nil
}
