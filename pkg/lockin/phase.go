package lockin

import "github.com/jtarim/golockin/pkg/capture"

// FindOrigin locates the phase origin of a burst: the first reference
// sample at or above the reference mean that follows a sample below it (a
// rising crossing). The reference channel is treated as a circular
// sequence starting from its last sample, so a crossing that straddles the
// buffer wraparound is still detected.
//
// The returned index is the crossing sample's position in the interleaved
// buffer (always even). ok is false when no rising crossing exists across
// the full usable length, e.g. for a flat or hopelessly noisy reference;
// that burst simply carries no phase information.
func FindOrigin(frame capture.Frame) (origin int, ok bool) {
	pairs := frame.Pairs()
	if pairs == 0 {
		return 0, false
	}

	avg := frame.RefAvg
	prev := frame.Ref(pairs - 1)
	for k := 0; k < pairs; k++ {
		cur := frame.Ref(k)
		if prev < avg && cur >= avg {
			return 2 * k, true
		}
		prev = cur
	}

	return 0, false
}
