// Package ateccx08conf describes the layout of the ATECCx08A configuration
// zone and carries a known-good provisioning template.
package ateccx08conf

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Size is the size of the configuration zone in bytes.
const Size = 128

// Byte offsets into the configuration zone.
//
// The zone is written in 4-byte aligned words. The first 16 bytes are fixed
// by the factory; UserExtra (byte 84) can only be changed through the
// UpdateExtra command.
const (
	SerialPart1Offset = 0  // SN<0:3>
	RevisionOffset    = 4  // RevNum
	SerialPart2Offset = 8  // SN<4:8>
	I2CEnableOffset   = 14 // bit 0: 0 single wire, 1 I²C
	WritableOffset    = 16 // first writable byte
	I2CAddressOffset  = 16 // 8-bit form, 7-bit address << 1
	SlotConfigOffset  = 20 // 16 two-byte slot configurations
	CounterOffset     = 52 // two 8-byte monotonic counter states
	UserExtraOffset   = 84 // UpdateExtra only
	SelectorOffset    = 85
	LockValueOffset   = 86 // data/OTP zone lock byte
	LockConfigOffset  = 87 // config zone lock byte
	SlotLockedOffset  = 88 // per-slot lock bits, 2 bytes
	KeyConfigOffset   = 96 // 16 two-byte key configurations
)

// lockByteUnlocked is the value of a lock byte while its zone is open.
// Anything else, conventionally 0x00, means locked.
const lockByteUnlocked = 0x55

// IsLockByteLocked reports whether a LockValue or LockConfig byte marks its
// zone as locked.
func IsLockByteLocked(b byte) bool {
	return b != lockByteUnlocked
}

// DefaultTLS is a 128-byte configuration template for TLS use.
//
// It configures slots 0 through 4 as ECC private keys usable for signing
// and ECDH, with the remaining slots as general storage. Byte 16 carries
// the default device address 0x60 in its 8-bit form.
var DefaultTLS = mustHex(`
	01 23 00 00 00 00 50 00 00 00 00 00 00 c0 71 00
	c0 00 55 00 83 20 87 20 87 20 87 2f 87 2f 8f 8f
	9f 8f af 8f 00 00 00 00 00 00 00 00 00 00 00 00
	00 00 af 8f ff ff ff ff 00 00 00 00 ff ff ff ff
	00 00 00 00 ff ff ff ff ff ff ff ff ff ff ff ff
	ff ff ff ff 00 00 55 55 ff ff 00 00 00 00 00 00
	33 00 33 00 33 00 33 00 33 00 1c 00 1c 00 1c 00
	3c 00 3c 00 3c 00 3c 00 3c 00 3c 00 3c 00 1c 00
`)

func mustHex(s string) []byte {
	r := strings.NewReplacer(" ", "", "\t", "", "\n", "")
	b, err := hex.DecodeString(r.Replace(s))
	if err != nil {
		panic(err)
	}
	return b
}

// Config is a parsed view of the configuration zone.
type Config struct {
	SerialNumber [9]byte  `json:"serial_number"`
	Revision     [4]byte  `json:"revision"`
	I2CAddress   uint8    `json:"i2c_address"`
	SlotConfig   [16]Slot `json:"slot_config"`
	UserExtra    byte     `json:"user_extra"`
	LockValue    byte     `json:"lock_value"`
	LockConfig   byte     `json:"lock_config"`
	KeyConfig    [16]Key  `json:"key_config"`
}

// Slot is the two-byte access configuration of a data slot.
type Slot struct {
	Bits1 uint8 `json:"bits1"`
	Bits2 uint8 `json:"bits2"`
}

// IsSecret reports whether slot contents may never be read in the clear.
func (s Slot) IsSecret() bool {
	return s.Bits2&0x80 != 0
}

// Key is the two-byte key configuration of a data slot.
type Key struct {
	Bits1 uint8 `json:"bits1"`
	Bits2 uint8 `json:"bits2"`
}

// Private reports whether the slot holds an ECC private key.
func (k Key) Private() bool {
	return k.Bits1&0x01 != 0
}

// IsConfigZoneLocked reports whether the config zone is locked.
func (c *Config) IsConfigZoneLocked() bool {
	return IsLockByteLocked(c.LockConfig)
}

// IsDataZoneLocked reports whether the data and OTP zones are locked.
func (c *Config) IsDataZoneLocked() bool {
	return IsLockByteLocked(c.LockValue)
}

// Unmarshal parses a complete 128-byte configuration zone dump.
func Unmarshal(data []byte, c *Config) error {
	if len(data) != Size {
		return errors.New("ateccx08conf: config zone must be 128 bytes")
	}

	copy(c.SerialNumber[0:4], data[SerialPart1Offset:])
	copy(c.SerialNumber[4:9], data[SerialPart2Offset:])
	copy(c.Revision[:], data[RevisionOffset:])
	c.I2CAddress = data[I2CAddressOffset] >> 1
	for i := range c.SlotConfig {
		c.SlotConfig[i] = Slot{
			Bits1: data[SlotConfigOffset+2*i],
			Bits2: data[SlotConfigOffset+2*i+1],
		}
	}
	c.UserExtra = data[UserExtraOffset]
	c.LockValue = data[LockValueOffset]
	c.LockConfig = data[LockConfigOffset]
	for i := range c.KeyConfig {
		c.KeyConfig[i] = Key{
			Bits1: data[KeyConfigOffset+2*i],
			Bits2: data[KeyConfigOffset+2*i+1],
		}
	}
	return nil
}
