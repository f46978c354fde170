package ateccx08

import (
	"context"
	"fmt"
	"io"
)

// randomSize is the number of bytes the Random command yields per call.
const randomSize = 32

// Random returns a reader over the device's random number generator.
//
// The underlying reader fetches 32 bytes of random data from the device per
// command. Use io.ReadFull to fill a buffer.
func (d *Dev) Random(ctx context.Context) io.Reader {
	return &randReader{ctx, d}
}

// RandomInRange returns a random integer in the interval [min, max).
//
// When min >= max there is nothing to pick and min is returned as is.
//
// The value is derived by summing 16 raw device random bytes modulo the
// interval width, which is close to but not exactly uniform over the
// target range. Callers that need rejection-sampling-grade uniformity
// should draw from Random directly instead.
func (d *Dev) RandomInRange(ctx context.Context, min, max int) (int, error) {
	if min >= max {
		return min, nil
	}

	var raw [16]byte
	if _, err := io.ReadFull(d.Random(ctx), raw[:]); err != nil {
		return 0, err
	}

	sum := 0
	for _, b := range raw {
		sum += int(b)
	}
	return sum%(max-min) + min, nil
}

// random executes the Random command, yielding 32 fresh random bytes.
func (d *Dev) random(ctx context.Context, dst []byte) (int, error) {
	cmd, err := newRandomCommand(randomModeUpdateSeed)
	if err != nil {
		return 0, err
	}

	var recv [randomSize]byte
	n, err := d.executeResponse(ctx, cmd, recv[:])
	if err != nil {
		return 0, err
	}
	if n != randomSize {
		return 0, fmt.Errorf("ateccx08: unexpected random response size %d: %w", n, ErrNoResponse)
	}

	return copy(dst, recv[:]), nil
}

type randReader struct {
	ctx context.Context
	d   *Dev
}

func (r *randReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return r.d.random(r.ctx, b)
}
