package lockin

import (
	"context"
	"fmt"

	"github.com/jtarim/golockin/pkg/capture"
	"github.com/jtarim/golockin/pkg/config"
)

// Meter runs the full lock-in loop: acquire a burst, locate the phase
// origin, extract a quadrature vector, accumulate; after the requested
// number of bursts it yields the normalized measurement vector. Bursts are
// strictly sequential: burst N is fully processed before burst N+1 starts.
type Meter struct {
	sampler *capture.Sampler
	step    float64 // quarter excitation period in raw-sample units

	progress func(done, total int)
}

// New creates a Meter around an already-configured sampler.
func New(cfg *config.Config, sampler *capture.Sampler) *Meter {
	return &Meter{
		sampler: sampler,
		step:    float64(cfg.Acquisition.SampleRate) / float64(cfg.Excitation.Frequency) / 4,
	}
}

// Step returns the quarter-period phase step in raw-sample units.
func (m *Meter) Step() float64 {
	return m.step
}

// OnProgress registers a callback invoked after every burst with the number
// of completed bursts (successful or skipped) and the total.
func (m *Meter) OnProgress(fn func(done, total int)) {
	m.progress = fn
}

// Measure runs iterations bursts and returns the noise-averaged quadrature
// vector. Bursts without a detectable phase origin are skipped and excluded
// from normalization; if every burst is skipped, ErrNoBursts is returned.
func (m *Meter) Measure(ctx context.Context, iterations int) (Vector, error) {
	if iterations <= 0 {
		return Vector{}, fmt.Errorf("invalid iteration count %d", iterations)
	}

	var session Session
	for i := 0; i < iterations; i++ {
		frame, err := m.sampler.Acquire(ctx)
		if err != nil {
			return Vector{}, fmt.Errorf("burst %d: %w", i, err)
		}

		if origin, ok := FindOrigin(frame); ok {
			session.Accumulate(Extract(frame, origin, m.step))
		}

		if m.progress != nil {
			m.progress(i+1, iterations)
		}
	}

	return session.Finalize()
}
