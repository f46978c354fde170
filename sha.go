package ateccx08

import (
	"context"
	"fmt"
)

// SHA256 starts a SHA-256 computation on the device and returns a digest
// writer for it.
//
// The device holds a single SHA context; interleaving other commands with
// an open digest resets it. Write the message, then call Sum once.
func (d *Dev) SHA256(ctx context.Context) (*Digest, error) {
	s := &Digest{ctx: ctx, d: d}

	cmd, err := newSHACommand(shaModeStart, 0, nil)
	if err != nil {
		return nil, err
	}
	if err := d.execute(ctx, cmd); err != nil {
		return nil, err
	}
	return s, nil
}

// Digest is an in-progress SHA-256 computation on the device.
//
// Digest implements io.Writer. The message is streamed to the device in
// 64-byte blocks; the remainder is held back and flushed by Sum.
type Digest struct {
	ctx context.Context
	d   *Dev
	rem []byte
	sum []byte
}

func (s *Digest) Write(p []byte) (int, error) {
	if s.sum != nil {
		return 0, fmt.Errorf("ateccx08: write after sha digest was finalized: %w", ErrInvalidParam)
	}

	written := len(p)
	if len(s.rem) > 0 {
		p = append(s.rem, p...)
	}

	for len(p) >= shaBlockSize {
		cmd, err := newSHACommand(shaModeUpdate, shaBlockSize, p[:shaBlockSize])
		if err != nil {
			return 0, err
		}
		// A non-zero status here aborts the whole digest.
		if err := s.d.execute(s.ctx, cmd); err != nil {
			return 0, err
		}
		p = p[shaBlockSize:]
	}

	s.rem = append([]byte(nil), p...)
	return written, nil
}

// Sum finalizes the computation and returns the 32-byte digest.
//
// The remainder of the message, if any, rides along with the End command.
// Sum may be called repeatedly once finalized; later calls return the same
// digest without touching the device.
func (s *Digest) Sum() ([]byte, error) {
	if s.sum != nil {
		return s.sum, nil
	}

	cmd, err := newSHACommand(shaModeEnd, uint16(len(s.rem)), s.rem)
	if err != nil {
		return nil, err
	}

	var digest [digestSize]byte
	n, err := s.d.executeResponse(s.ctx, cmd, digest[:])
	if err != nil {
		return nil, err
	}
	if n != digestSize {
		return nil, fmt.Errorf("ateccx08: unexpected sha digest size %d: %w", n, ErrNoResponse)
	}

	s.rem = nil
	s.sum = digest[:]
	return s.sum, nil
}
