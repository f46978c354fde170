package ateccx08

import (
	"context"
	"fmt"

	"github.com/quarklabs/go-ateccx08/pkg/ateccx08conf"
)

// Zone is a device memory zone.
type Zone uint8

// Memory zones.
const (
	ZoneConfig Zone = 0x00
	ZoneOTP    Zone = 0x01
	ZoneData   Zone = 0x02
)

// zoneReadWrite32 is zone parameter bit 7 set: access 32 bytes instead of 4.
const zoneReadWrite32 = 0x80

// SlotAddr computes the word address of a block and offset inside a data
// zone slot, for use with ReadZone and WriteZone.
func SlotAddr(slot uint16, block uint8, offset uint8) uint16 {
	return slot<<3 | uint16(offset&0x07) | uint16(block)<<8
}

// ReadZone reads a 4-byte word or a 32-byte block from the zone.
//
// addr is the word address inside the zone. The buffer length selects the
// access size; anything other than 4 or 32 bytes is rejected before any
// bus transaction.
func (d *Dev) ReadZone(ctx context.Context, zone Zone, addr uint16, buf []byte) error {
	if len(buf) != wordSize && len(buf) != blockSize {
		return fmt.Errorf("ateccx08: zone reads must be %d or %d bytes, got %d: %w",
			wordSize, blockSize, len(buf), ErrInvalidParam)
	}

	cmd, err := newReadCommand(zone, addr, len(buf) == blockSize)
	if err != nil {
		return err
	}

	n, err := d.executeResponse(ctx, cmd, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("ateccx08: short zone read of %d bytes: %w", n, ErrNoResponse)
	}
	return nil
}

// WriteZone writes a 4-byte word or a 32-byte block to the zone.
//
// The device acknowledges the write with a status byte; a non-zero status
// surfaces as a *StatusError.
func (d *Dev) WriteZone(ctx context.Context, zone Zone, addr uint16, data []byte) error {
	cmd, err := newWriteCommand(zone, addr, data)
	if err != nil {
		return err
	}
	return d.execute(ctx, cmd)
}

// ReadConfigZone reads the complete 128-byte device configuration zone.
func (d *Dev) ReadConfigZone(ctx context.Context) ([]byte, error) {
	buf := make([]byte, ateccx08conf.Size)
	for block := 0; block < ateccx08conf.Size/blockSize; block++ {
		// For 32-byte accesses the word offset bits stay zero and the
		// block index sits above them.
		addr := uint16(block) << 3
		chunk := buf[block*blockSize : (block+1)*blockSize]
		if err := d.ReadZone(ctx, ZoneConfig, addr, chunk); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// WriteConfig writes a 128-byte configuration template to the config zone.
//
// The first 16 bytes are fixed by the factory and skipped, as is byte 84,
// which can only be changed through the UpdateExtra command. Everything
// else goes out in 4-byte words; the device rejects the whole write once
// the config zone is locked.
func (d *Dev) WriteConfig(ctx context.Context, data []byte) error {
	if len(data) != ateccx08conf.Size {
		return fmt.Errorf("ateccx08: config template must be %d bytes, got %d: %w",
			ateccx08conf.Size, len(data), ErrInvalidParam)
	}

	for i := ateccx08conf.WritableOffset; i < ateccx08conf.Size; i += wordSize {
		if i == ateccx08conf.UserExtraOffset {
			continue
		}
		addr := uint16(i / wordSize)
		if err := d.WriteZone(ctx, ZoneConfig, addr, data[i:i+wordSize]); err != nil {
			return fmt.Errorf("ateccx08: config write at byte %d: %w", i, err)
		}
	}
	return nil
}

// Lock locks the zone permanently. This is irreversible.
//
// The zone summary crc check is skipped; the device is told to lock
// whatever contents are present.
func (d *Dev) Lock(ctx context.Context, zone LockZone) error {
	cmd, err := newLockCommand(zone)
	if err != nil {
		return err
	}
	return d.execute(ctx, cmd)
}

// LockAllZones locks the config and data zones. This is irreversible.
func (d *Dev) LockAllZones(ctx context.Context) error {
	if err := d.Lock(ctx, LockZoneConfig); err != nil {
		return err
	}
	return d.Lock(ctx, LockZoneData)
}

// IsLocked returns true if the zone is locked.
//
// ZoneOTP shares the data zone lock byte.
func (d *Dev) IsLocked(ctx context.Context, zone Zone) (bool, error) {
	// Read the config word holding UserExtra, Selector, LockValue and
	// LockConfig.
	var word [wordSize]byte
	addr := uint16(ateccx08conf.UserExtraOffset / wordSize)
	if err := d.ReadZone(ctx, ZoneConfig, addr, word[:]); err != nil {
		return false, err
	}

	switch zone {
	case ZoneConfig:
		return ateccx08conf.IsLockByteLocked(word[3]), nil
	case ZoneData, ZoneOTP:
		return ateccx08conf.IsLockByteLocked(word[2]), nil
	default:
		return false, fmt.Errorf("ateccx08: unknown lock zone %d: %w", zone, ErrInvalidParam)
	}
}

// IsConfigZoneLocked returns true if the configuration zone is locked.
//
// This is the same as calling IsLocked(ctx, ZoneConfig).
func (d *Dev) IsConfigZoneLocked(ctx context.Context) (bool, error) {
	return d.IsLocked(ctx, ZoneConfig)
}

// IsDataZoneLocked returns true if the data zone is locked.
//
// This is the same as calling IsLocked(ctx, ZoneData).
func (d *Dev) IsDataZoneLocked(ctx context.Context) (bool, error) {
	return d.IsLocked(ctx, ZoneData)
}

// SerialNumber returns the 9-byte serial number of the device.
func (d *Dev) SerialNumber(ctx context.Context) ([]byte, error) {
	var (
		serial [9]byte
		word   [wordSize]byte
	)

	// SN<0:3>
	if err := d.ReadZone(ctx, ZoneConfig, 0x00, word[:]); err != nil {
		return nil, err
	}
	copy(serial[0:4], word[:])

	// SN<4:7>
	if err := d.ReadZone(ctx, ZoneConfig, 0x02, word[:]); err != nil {
		return nil, err
	}
	copy(serial[4:8], word[:])

	// SN<8>
	if err := d.ReadZone(ctx, ZoneConfig, 0x03, word[:]); err != nil {
		return nil, err
	}
	serial[8] = word[0]

	return serial[:], nil
}

// Counter reads one of the two monotonic counters, incrementing it first
// when increment is set. The maximum value a counter may reach is
// 2,097,151.
func (d *Dev) Counter(ctx context.Context, id uint16, increment bool) (uint32, error) {
	mode := counterModeRead
	if increment {
		mode = counterModeIncrement
	}

	cmd, err := newCounterCommand(mode, id)
	if err != nil {
		return 0, err
	}

	var count [4]byte
	n, err := d.executeResponse(ctx, cmd, count[:])
	if err != nil {
		return 0, err
	}
	if n != len(count) {
		return 0, fmt.Errorf("ateccx08: short counter response of %d bytes: %w", n, ErrNoResponse)
	}
	return uint32(count[0]) | uint32(count[1])<<8 | uint32(count[2])<<16 | uint32(count[3])<<24, nil
}
