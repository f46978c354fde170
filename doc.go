// Package ateccx08 is a driver for the Microchip ATECC508A and ATECC608A
// cryptographic co-processors.
//
// The devices are reached over a two-wire I²C bus, either directly or
// through a USB dev kit speaking the Kit protocol. The driver owns the
// transport layer of the protocol: command framing with the device's
// CRC-16 checksum, the wake/idle/sleep power-state transitions and the
// bounded-retry response read. The cryptographic operations (random
// numbers, SHA-256, key generation, ECDSA signing, ECDH, zone access and
// locking) execute inside the chip; this package only transports opcodes
// and results.
//
// A Dev is synchronous and blocking. Every operation is a sequence of bus
// transactions interleaved with real-time delays sized to the chip's
// worst-case execution times. The device accepts one command at a time, so
// access to one Dev must be serialized by the caller.
//
// # Datasheets
//
// Find all datasheets in the Trust Platform Design Suite git repository.
// https://github.com/MicrochipTech/cryptoauth_trustplatform_designsuite/
package ateccx08
