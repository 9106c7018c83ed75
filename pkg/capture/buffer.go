package capture

import (
	"errors"
	"fmt"
)

// ErrAllocation indicates the capture buffer could not be reserved. It is
// reported to the caller before any measurement begins; the system must not
// continue with an absent buffer.
var ErrAllocation = errors.New("capture buffer allocation failed")

// MaxCapacity caps the buffer at a size the MCU-side capture RAM can mirror.
const MaxCapacity = 1 << 22

// Buffer owns the raw sample storage for one burst: a fixed-capacity block
// of 12-bit readings round-robin multiplexed between the reference and
// input channels, [ref0, in0, ref1, in1, ...]. It is allocated once and
// overwritten in place by every burst.
type Buffer struct {
	data   []uint16
	usable int
}

// Configure allocates a buffer sized to hold at least two excitation
// periods of interleaved two-channel samples at the given raw conversion
// rate. sampleRate counts raw conversions per second across both channels.
func Configure(sampleRate, excitationHz int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrAllocation, sampleRate)
	}
	if excitationHz <= 0 {
		return nil, fmt.Errorf("%w: excitation frequency %d", ErrAllocation, excitationHz)
	}

	// ceil(2 * sampleRate / excitationHz) raw samples spans two periods.
	capacity := (2*sampleRate + excitationHz - 1) / excitationHz
	if capacity < 2 {
		return nil, fmt.Errorf("%w: capacity %d holds no sample pair", ErrAllocation, capacity)
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d exceeds limit %d", ErrAllocation, capacity, MaxCapacity)
	}

	return &Buffer{
		data:   make([]uint16, capacity),
		usable: capacity &^ 1,
	}, nil
}

// Capacity returns the total number of raw samples the buffer holds.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// UsableLength returns the capacity rounded down to an even number, the
// length over which paired reference/input processing is valid.
func (b *Buffer) UsableLength() int {
	return b.usable
}

// raw exposes the full storage for the device to fill.
func (b *Buffer) raw() []uint16 {
	return b.data
}

// WrapIndex maps i onto [0, n) circularly. n must be positive; i may be
// any integer, including negative.
func WrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
