package ateccx08

import "fmt"

// Command opcodes supported by both the ATECC508A and the ATECC608A.
const (
	opRead    = 0x02 // Read command op-code
	opWrite   = 0x12 // Write command op-code
	opNonce   = 0x16 // Nonce command op-code
	opLock    = 0x17 // Lock command op-code
	opRandom  = 0x1b // Random command op-code
	opCounter = 0x24 // Counter command op-code
	opInfo    = 0x30 // Info command op-code
	opGenKey  = 0x40 // GenKey command op-code
	opSign    = 0x41 // Sign command op-code
	opECDH    = 0x43 // ECDH command op-code
	opSHA     = 0x47 // SHA command op-code
)

// MaxKeySlot is the highest data slot that can hold an ECC private key.
const MaxKeySlot = 4

func validateKeySlot(slot uint8) error {
	if slot > MaxKeySlot {
		return fmt.Errorf("ateccx08: key slot %d out of range 0-%d: %w",
			slot, MaxKeySlot, ErrInvalidParam)
	}
	return nil
}

type infoMode uint8

const (
	infoModeRevision infoMode = 0x00
)

func newInfoCommand(mode infoMode) (*packet, error) {
	return newPacket(opInfo, uint8(mode), 0, nil)
}

// LockZone selects what the Lock command makes permanent.
type LockZone uint8

const (
	LockZoneConfig LockZone = 0x00
	LockZoneData   LockZone = 0x01
)

// lockModeNoCRC skips the zone summary crc check on lock.
const lockModeNoCRC = 0x80

func newLockCommand(zone LockZone) (*packet, error) {
	if zone != LockZoneConfig && zone != LockZoneData {
		return nil, fmt.Errorf("ateccx08: unknown lock zone %d: %w", zone, ErrInvalidParam)
	}
	return newPacket(opLock, lockModeNoCRC|uint8(zone), 0, nil)
}

func newReadCommand(zone Zone, addr uint16, block bool) (*packet, error) {
	param1 := uint8(zone)
	if block {
		param1 |= zoneReadWrite32
	}
	return newPacket(opRead, param1, addr, nil)
}

func newWriteCommand(zone Zone, addr uint16, data []byte) (*packet, error) {
	if len(data) != wordSize && len(data) != blockSize {
		return nil, fmt.Errorf("ateccx08: zone writes must be %d or %d bytes: %w",
			wordSize, blockSize, ErrInvalidParam)
	}
	param1 := uint8(zone)
	if len(data) == blockSize {
		param1 |= zoneReadWrite32
	}
	return newPacket(opWrite, param1, addr, data)
}

// GenKey modes.
const (
	genKeyModePublic  = 0x00 // calculate public key of a stored private key
	genKeyModePrivate = 0x04 // generate a new private key
)

func newGenKeyCommand(mode uint8, slot uint8) (*packet, error) {
	if err := validateKeySlot(slot); err != nil {
		return nil, err
	}
	return newPacket(opGenKey, mode, uint16(slot), nil)
}

type randomMode uint8

const (
	randomModeUpdateSeed   randomMode = 0x00
	randomModeNoUpdateSeed randomMode = 0x01
)

func newRandomCommand(mode randomMode) (*packet, error) {
	return newPacket(opRandom, uint8(mode), 0, nil)
}

type nonceMode uint8

// Nonce modes.
const (
	nonceModeSeedUpdate   nonceMode = 0x00 // combine with RNG, update seed
	nonceModeNoSeedUpdate nonceMode = 0x01 // combine with RNG, no seed update
	nonceModePassthrough  nonceMode = 0x03 // load input value directly
)

// Nonce input sizes per mode. The random modes take a 20-byte host value
// when param2 is zero, passthrough takes the full 32-byte value.
const (
	nonceInputSize            = 20
	noncePassthroughInputSize = 32
)

func newNonceCommand(mode nonceMode, zero uint16, numIn []byte) (*packet, error) {
	switch mode {
	case nonceModeSeedUpdate, nonceModeNoSeedUpdate:
		if zero == 0 && len(numIn) != nonceInputSize {
			return nil, fmt.Errorf("ateccx08: nonce input must be %d bytes, got %d: %w",
				nonceInputSize, len(numIn), ErrInvalidParam)
		}
	case nonceModePassthrough:
		if len(numIn) != noncePassthroughInputSize {
			return nil, fmt.Errorf("ateccx08: nonce pass-through input must be %d bytes, got %d: %w",
				noncePassthroughInputSize, len(numIn), ErrInvalidParam)
		}
	default:
		return nil, fmt.Errorf("ateccx08: unknown nonce mode %#x: %w", mode, ErrInvalidParam)
	}
	return newPacket(opNonce, uint8(mode), zero, numIn)
}

// signModeExternal signs a message supplied through the nonce pass-through
// buffer rather than an internally generated digest.
const signModeExternal = 0x80

func newSignCommand(mode uint8, slot uint8) (*packet, error) {
	if err := validateKeySlot(slot); err != nil {
		return nil, err
	}
	return newPacket(opSign, mode, uint16(slot), nil)
}

// ecdhModeClearOutput returns the shared secret in the clear in the
// response buffer.
const ecdhModeClearOutput = 0x0c

func newECDHCommand(mode uint8, slot uint8, pubKey []byte) (*packet, error) {
	if err := validateKeySlot(slot); err != nil {
		return nil, err
	}
	if len(pubKey) != publicKeySize {
		return nil, fmt.Errorf("ateccx08: ecdh public key must be %d bytes (X||Y), got %d: %w",
			publicKeySize, len(pubKey), ErrInvalidParam)
	}
	return newPacket(opECDH, mode, uint16(slot), pubKey)
}

type counterMode uint8

const (
	counterModeRead      counterMode = 0x00
	counterModeIncrement counterMode = 0x01
)

func newCounterCommand(mode counterMode, id uint16) (*packet, error) {
	if id > 1 {
		return nil, fmt.Errorf("ateccx08: counter id %d out of range 0-1: %w",
			id, ErrInvalidParam)
	}
	return newPacket(opCounter, uint8(mode), id, nil)
}

type shaMode uint8

// SHA modes.
const (
	shaModeStart  shaMode = 0x00
	shaModeUpdate shaMode = 0x01
	shaModeEnd    shaMode = 0x02
)

// shaBlockSize is the message block the SHA engine consumes per update.
const shaBlockSize = 64

func newSHACommand(mode shaMode, length uint16, data []byte) (*packet, error) {
	switch mode {
	case shaModeStart:
		if len(data) != 0 {
			return nil, fmt.Errorf("ateccx08: sha start takes no data: %w", ErrInvalidParam)
		}
	case shaModeUpdate:
		if len(data) != shaBlockSize {
			return nil, fmt.Errorf("ateccx08: sha update requires a full %d-byte block, got %d: %w",
				shaBlockSize, len(data), ErrInvalidParam)
		}
	case shaModeEnd:
		if len(data) >= shaBlockSize {
			return nil, fmt.Errorf("ateccx08: sha end remainder must be under %d bytes, got %d: %w",
				shaBlockSize, len(data), ErrInvalidParam)
		}
	default:
		return nil, fmt.Errorf("ateccx08: unknown sha mode %#x: %w", mode, ErrInvalidParam)
	}
	return newPacket(opSHA, uint8(mode), length, data)
}
