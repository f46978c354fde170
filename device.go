package ateccx08

import (
	"fmt"
	"time"
)

// DeviceType represents a physical device type.
type DeviceType int

const (
	DeviceATECC508 DeviceType = iota
	DeviceATECC608
)

func (dt DeviceType) String() string {
	switch dt {
	case DeviceATECC508:
		return "ATECC508A"
	case DeviceATECC608:
		return "ATECC608A"
	default:
		return "unknown"
	}
}

// Hardware revision identifiers reported by the Info command.
const (
	revisionATECC508 = 0x50
	revisionATECC608 = 0x60
)

// DeviceTypeFromInfo returns the device type based on the 4-byte revision
// reported by the Info command.
//
// Anything other than the two recognized revisions means the wrong chip, or
// nothing at all, is wired to the bus.
func DeviceTypeFromInfo(revision []byte) (DeviceType, error) {
	if len(revision) < 3 {
		return 0, fmt.Errorf("ateccx08: device revision too small: %w", ErrBadRevision)
	}
	switch revision[2] {
	case revisionATECC508:
		return DeviceATECC508, nil
	case revisionATECC608:
		return DeviceATECC608, nil
	default:
		return 0, fmt.Errorf("ateccx08: device revision %#x: %w", revision[2], ErrBadRevision)
	}
}

// execTimes holds the worst-case execution time for every supported command.
//
// The dispatcher waits at least this long between transmitting a command and
// reading its response. Reading earlier risks a stale or partial response;
// the values come from the datasheet and must not be shortened.
var execTimes = map[uint8]time.Duration{
	opCounter: 20 * time.Millisecond,
	opInfo:    1 * time.Millisecond,
	opNonce:   7 * time.Millisecond,
	opRandom:  23 * time.Millisecond,
	opSHA:     47 * time.Millisecond,
	opLock:    32 * time.Millisecond,
	opGenKey:  115 * time.Millisecond,
	opSign:    70 * time.Millisecond,
	opWrite:   26 * time.Millisecond,
	opRead:    5 * time.Millisecond,
	opECDH:    80 * time.Millisecond,
}

// getExecutionTime returns the worst-case execution time for the opcode.
//
// An opcode without an entry is a programming error in the calling code, not
// a runtime condition, and is rejected before any bus traffic.
func getExecutionTime(opcode uint8) (time.Duration, error) {
	t, ok := execTimes[opcode]
	if !ok {
		return 0, fmt.Errorf("ateccx08: no execution time for opcode %#x: %w",
			opcode, ErrInvalidParam)
	}
	return t, nil
}
