package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jtarim/golockin/pkg/adc"
)

// ErrCaptureStalled indicates the acquisition device never signalled burst
// completion within the configured timeout. Treat as fatal: the device is
// in an unknown state.
var ErrCaptureStalled = errors.New("capture stalled")

// Frame is the result of one burst: the buffer's usable contents plus
// rounded per-channel means. Data aliases the sampler's buffer and is only
// valid until the next Acquire.
type Frame struct {
	Data   []uint16 // interleaved [ref, in, ...], even length
	RefAvg uint16   // reference channel mean over Data
	InAvg  uint16   // input channel mean over Data
}

// UsableLength returns the number of raw samples in the frame.
func (f Frame) UsableLength() int {
	return len(f.Data)
}

// Ref returns the k-th reference-channel sample.
func (f Frame) Ref(k int) uint16 {
	return f.Data[2*k]
}

// In returns the k-th input-channel sample.
func (f Frame) In(k int) uint16 {
	return f.Data[2*k+1]
}

// Pairs returns the number of reference/input sample pairs.
func (f Frame) Pairs() int {
	return len(f.Data) / 2
}

// Sampler triggers capture bursts into its owned buffer. Acquire is fully
// blocking, which is what keeps the buffer single-writer: no second burst
// can start while one is outstanding.
type Sampler struct {
	dev     adc.Device
	buf     *Buffer
	timeout time.Duration
}

// NewSampler creates a sampler around dev and buf. timeout bounds how long
// one burst may take before it is declared stalled; zero disables the bound.
func NewSampler(dev adc.Device, buf *Buffer, timeout time.Duration) *Sampler {
	return &Sampler{
		dev:     dev,
		buf:     buf,
		timeout: timeout,
	}
}

// Acquire runs one burst: fills the buffer end-to-end from the device,
// blocking until the capture completes, then computes the per-channel
// rounded means over the usable length.
func (s *Sampler) Acquire(ctx context.Context) (Frame, error) {
	captureCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		captureCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.dev.Capture(captureCtx, s.buf.raw()); err != nil {
		// Only the sampler's own timer marks a stall; a deadline the
		// caller brought in (their ctx already expired) passes through.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Frame{}, fmt.Errorf("%w: no completion within %v", ErrCaptureStalled, s.timeout)
		}
		return Frame{}, fmt.Errorf("capture failed: %w", err)
	}

	data := s.buf.raw()[:s.buf.UsableLength()]

	var refSum, inSum uint64
	for i := 0; i < len(data); i += 2 {
		refSum += uint64(data[i])
		inSum += uint64(data[i+1])
	}

	frame := Frame{Data: data}
	if pairs := uint64(len(data) / 2); pairs > 0 {
		frame.RefAvg = uint16((refSum + pairs/2) / pairs) // round to nearest
		frame.InAvg = uint16((inSum + pairs/2) / pairs)
	}

	return frame, nil
}
