package ateccx08

// HAL is the bus-level interface to a single physical device.
//
// Implementations are not required to be safe for concurrent use. The
// device holds internal sequential state and accepts one command at a
// time; callers must serialize access externally.
type HAL interface {
	// Read reads a full response of len(p) bytes into p.
	Read(p []byte) (int, error)
	// Write writes len(p) bytes from p to the device.
	Write(p []byte) (int, error)
	// Wake rouses the device from idle or sleep mode.
	Wake() error
	// Idle puts the device into idle mode until the next wake.
	Idle() error
	// Sleep puts the device into low-power sleep mode until the next wake.
	Sleep() error
}
