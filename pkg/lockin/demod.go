package lockin

import (
	"errors"
	"math"

	"github.com/jtarim/golockin/pkg/capture"
)

// ErrNoBursts indicates a session ended with no successful bursts, so there
// is nothing to normalize by.
var ErrNoBursts = errors.New("no successful bursts in session")

// Vector holds one burst's four phase-spaced input deviations: the input
// sample at 0, 90, 180 and 270 degrees past the phase origin, minus the
// input-channel mean.
type Vector [4]int32

// Extract picks the four quadrature samples of one burst. origin is the
// phase-origin buffer index from FindOrigin; step is a quarter excitation
// period in raw-sample units and is generally fractional, because the
// capture rate and the excitation rate are not integer multiples.
//
// The walk advances a fractional position by step modulo the usable length
// and, at each of the four stops, resolves to the nearest odd-parity
// (input-channel) index. The nearest-neighbor snap introduces a bounded
// phase error; averaging over many bursts suppresses it statistically.
func Extract(frame capture.Frame, origin int, step float64) Vector {
	n := frame.UsableLength()
	if n == 0 {
		return Vector{}
	}
	inAvg := int32(frame.InAvg)

	// First input-channel position at or after origin+1. Origins are even,
	// so origin+1 is already odd.
	pos := float64(origin + 1)

	var v Vector
	for k := range v {
		// Nearest odd index to the fractional position; n is even, so
		// wrapping preserves parity. Ties between two odd neighbors
		// resolve upward.
		idx := capture.WrapIndex(2*int(math.Round((pos-1)/2))+1, n)
		v[k] = int32(frame.Data[idx]) - inAvg

		pos = math.Mod(pos+step, float64(n))
	}

	return v
}

// Session accumulates quadrature vectors across the bursts of one
// measurement pass (open-circuit or DUT). Bursts whose phase origin was not
// found contribute nothing and are excluded from the divisor.
type Session struct {
	sum    [4]int64
	bursts int
}

// Accumulate adds one successful burst's vector into the running sum.
func (s *Session) Accumulate(v Vector) {
	for k, c := range v {
		s.sum[k] += int64(c)
	}
	s.bursts++
}

// Bursts returns the number of successful bursts accumulated so far.
func (s *Session) Bursts() int {
	return s.bursts
}

// Finalize divides each accumulated component by the successful burst
// count, rounding to the nearest integer to stay in the accumulation's
// integer domain.
func (s *Session) Finalize() (Vector, error) {
	if s.bursts == 0 {
		return Vector{}, ErrNoBursts
	}

	var v Vector
	for k, sum := range s.sum {
		v[k] = int32(math.Round(float64(sum) / float64(s.bursts)))
	}

	return v, nil
}
