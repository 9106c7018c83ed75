package capture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternDevice fills capture blocks from a fixed generator function.
type patternDevice struct {
	gen      func(i int) uint16
	captures int
}

func (d *patternDevice) Connect() error    { return nil }
func (d *patternDevice) Close() error      { return nil }
func (d *patternDevice) IsConnected() bool { return true }

func (d *patternDevice) Capture(ctx context.Context, dst []uint16) error {
	for i := range dst {
		dst[i] = d.gen(i)
	}
	d.captures++
	return nil
}

// stalledDevice never completes a capture.
type stalledDevice struct{}

func (stalledDevice) Connect() error    { return nil }
func (stalledDevice) Close() error      { return nil }
func (stalledDevice) IsConnected() bool { return true }

func (stalledDevice) Capture(ctx context.Context, dst []uint16) error {
	<-ctx.Done()
	return ctx.Err()
}

// failingDevice reports a transport error.
type failingDevice struct{}

func (failingDevice) Connect() error    { return nil }
func (failingDevice) Close() error      { return nil }
func (failingDevice) IsConnected() bool { return true }

func (failingDevice) Capture(ctx context.Context, dst []uint16) error {
	return fmt.Errorf("wire noise")
}

func TestSamplerAcquire_Averages(t *testing.T) {
	buf, err := Configure(40, 10) // capacity 8
	require.NoError(t, err)

	dev := &patternDevice{gen: func(i int) uint16 {
		if i%2 == 0 {
			return 100 // reference channel
		}
		return 200 // input channel
	}}

	frame, err := NewSampler(dev, buf, time.Second).Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, buf.UsableLength(), frame.UsableLength())
	assert.Equal(t, uint16(100), frame.RefAvg)
	assert.Equal(t, uint16(200), frame.InAvg)
	assert.Equal(t, uint16(100), frame.Ref(0))
	assert.Equal(t, uint16(200), frame.In(0))
	assert.Equal(t, buf.UsableLength()/2, frame.Pairs())
}

func TestSamplerAcquire_RoundedMean(t *testing.T) {
	buf, err := Configure(20, 10) // capacity 4, two pairs
	require.NoError(t, err)

	// Reference samples 1 and 2: mean 1.5 rounds up to 2.
	// Input samples 10 and 13: mean 11.5 rounds up to 12.
	values := []uint16{1, 10, 2, 13}
	dev := &patternDevice{gen: func(i int) uint16 { return values[i] }}

	frame, err := NewSampler(dev, buf, time.Second).Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint16(2), frame.RefAvg)
	assert.Equal(t, uint16(12), frame.InAvg)
}

func TestSamplerAcquire_OddCapacityDropsTrailingSample(t *testing.T) {
	buf, err := Configure(5, 2) // capacity 5, usable 4
	require.NoError(t, err)

	dev := &patternDevice{gen: func(i int) uint16 { return uint16(i) }}

	frame, err := NewSampler(dev, buf, time.Second).Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, frame.UsableLength())
	assert.Equal(t, 2, frame.Pairs())
}

func TestSamplerAcquire_Stalled(t *testing.T) {
	buf, err := Configure(40, 10)
	require.NoError(t, err)

	sampler := NewSampler(stalledDevice{}, buf, 10*time.Millisecond)

	start := time.Now()
	_, err = sampler.Acquire(context.Background())
	require.ErrorIs(t, err, ErrCaptureStalled)
	assert.Less(t, time.Since(start), time.Second, "stalled capture must not hang")
}

func TestSamplerAcquire_CallerDeadlineIsNotStalled(t *testing.T) {
	buf, err := Configure(40, 10)
	require.NoError(t, err)

	// No sampler timeout; the only deadline in play is the caller's.
	sampler := NewSampler(stalledDevice{}, buf, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = sampler.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrCaptureStalled)
}

func TestSamplerAcquire_CallerDeadlineBeatsSamplerTimeout(t *testing.T) {
	buf, err := Configure(40, 10)
	require.NoError(t, err)

	sampler := NewSampler(stalledDevice{}, buf, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = sampler.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrCaptureStalled)
}

func TestSamplerAcquire_DeviceError(t *testing.T) {
	buf, err := Configure(40, 10)
	require.NoError(t, err)

	_, err = NewSampler(failingDevice{}, buf, time.Second).Acquire(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCaptureStalled)
}

func TestSamplerAcquire_BufferReuse(t *testing.T) {
	buf, err := Configure(40, 10)
	require.NoError(t, err)

	dev := &patternDevice{gen: func(i int) uint16 { return 1 }}
	sampler := NewSampler(dev, buf, time.Second)

	first, err := sampler.Acquire(context.Background())
	require.NoError(t, err)

	dev.gen = func(i int) uint16 { return 7 }
	second, err := sampler.Acquire(context.Background())
	require.NoError(t, err)

	// Frames alias the single owned buffer: the second burst overwrites in
	// place, so both frames see the latest data.
	assert.Equal(t, 2, dev.captures)
	assert.Equal(t, uint16(7), first.Data[0])
	assert.Equal(t, uint16(7), second.Data[0])
}
