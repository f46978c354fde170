package ateccx08

import (
	"errors"
	"fmt"
)

// Package errors.
//
// Every failure surfaced by this package matches one of these with
// errors.Is, or is a *StatusError reported by the device itself.
var (
	// ErrBadRevision is returned when the device does not report one of the
	// recognized hardware revisions on startup. Wrong or unresponsive
	// hardware; not retried.
	ErrBadRevision = errors.New("ateccx08: unrecognized device revision")

	// ErrNoResponse is returned when the response retry budget is exhausted
	// without a single successful read.
	//
	// A higher retry count would only mask a wiring problem.
	ErrNoResponse = errors.New("ateccx08: no response from device")

	// ErrCRCMismatch is returned when a response fails its checksum.
	//
	// The bus transaction already completed, so the corruption is real and
	// the response is never silently re-read.
	ErrCRCMismatch = errors.New("ateccx08: response crc mismatch")

	// ErrInvalidParam is returned when caller-supplied parameters violate a
	// command contract. These are precondition failures and are rejected
	// before any bus transaction is attempted.
	ErrInvalidParam = errors.New("ateccx08: invalid parameter")
)

// StatusError is a non-zero status byte reported by the device.
//
// See the datasheet for the full status code table.
type StatusError struct {
	// Code is the raw status byte.
	Code uint8
}

func (e *StatusError) Error() string {
	var msg string
	switch e.Code {
	case statusCheckMacFailed:
		msg = "checkmac or verify miscompare"
	case statusParseError:
		msg = "command not understood"
	case statusEccFault:
		msg = "ecc processing failed"
	case statusSelfTestFailed:
		msg = "self test failed"
	case statusHealthTestFailed:
		msg = "health test failed"
	case statusExecutionError:
		msg = "execution error"
	case statusAfterWake:
		msg = "device woke up"
	case statusCRCError:
		msg = "crc or communication error"
	default:
		msg = "unknown status"
	}
	return fmt.Sprintf("ateccx08: device status %#02x: %s", e.Code, msg)
}

// Device status codes.
const (
	statusSuccess          = 0x00
	statusCheckMacFailed   = 0x01
	statusParseError       = 0x03
	statusEccFault         = 0x05
	statusSelfTestFailed   = 0x07
	statusHealthTestFailed = 0x08
	statusExecutionError   = 0x0f
	statusAfterWake        = 0x11
	statusCRCError         = 0xff
)

// validateStatus converts a device status byte into an error.
func validateStatus(code uint8) error {
	if code == statusSuccess {
		return nil
	}
	return &StatusError{Code: code}
}
