package ateccx08

import (
	"periph.io/x/conn/v3/i2c"
)

type IfaceType int

const (
	IfaceI2C IfaceType = iota
	IfaceHID
)

// IfaceConfig is the configuration object for a device.
//
// Logical device configurations describe the device type and logical
// interface. The response retry budget and the per-opcode execution delays
// are fixed package policy, not configuration; both are sized to the
// device's tested timing behavior.
type IfaceConfig struct {
	// IfaceType affects how communication with the device is done.
	IfaceType IfaceType
	// DeviceType affects how communication with the device is done.
	DeviceType DeviceType
	// I2C contains I²C specific configuration.
	I2C I2CConfig
	// HID contains HID specific configuration.
	HID HIDConfig
	// Debug is used for debug output.
	Debug Logger
}

type I2CConfig struct {
	// Address is the 7-bit device address on the bus.
	Address uint16
	// Bus is the bus the device is wired to. It is owned by the caller and
	// held for the lifetime of the driver instance.
	Bus i2c.Bus
}

type KitType int

const (
	KitTypeAuto KitType = iota
	KitTypeI2C
	KitTypeSWI
	KitTypeSPI
)

type HIDConfig struct {
	// DevIndex is the HID enumeration index to use unless DevIdentity is set.
	DevIndex int

	// KitType indicates the underlying interface of the kit.
	KitType KitType

	// DevIdentity is the identity of the device.
	//
	// For I²C, this is the I²C target address. For the SWI interface, this
	// is the bus number.
	DevIdentity uint8

	// VendorID of the kit.
	VendorID uint16

	// ProductID of the kit.
	ProductID uint16

	// PacketSize is the size of the USB packet.
	PacketSize int
}

// defaultI2CAddress is the factory default 7-bit device address.
const defaultI2CAddress = 0x60

// ConfigATECCX08AI2CDefault returns a default config for an ECCx08A device
// wired directly to an I²C bus.
func ConfigATECCX08AI2CDefault(bus i2c.Bus) IfaceConfig {
	return IfaceConfig{
		IfaceType:  IfaceI2C,
		DeviceType: DeviceATECC608,
		I2C: I2CConfig{
			Address: defaultI2CAddress,
			Bus:     bus,
		},
	}
}

const (
	vendorAtmel = 0x03eb

	productTrustPlatform = 0x2312
)

// ConfigATECCX08AKitHIDDefault returns a configuration for the Kit protocol.
func ConfigATECCX08AKitHIDDefault() IfaceConfig {
	return IfaceConfig{
		IfaceType:  IfaceHID,
		DeviceType: DeviceATECC608,
		HID: HIDConfig{
			DevIndex:    0,
			KitType:     KitTypeAuto,
			DevIdentity: 0,
			VendorID:    vendorAtmel,
			ProductID:   productTrustPlatform,
			PacketSize:  64,
		},
	}
}
