package adc

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/chewxy/math32"
	"github.com/jtarim/golockin/pkg/config"
)

// Mock simulates the acquisition MCU for testing and development. It
// synthesizes a square-wave reference channel at the excitation frequency
// and a sinusoidal input channel with configurable amplitude and phase.
// The sample clock free-runs across bursts, so successive bursts start at
// different excitation phases, like the real free-running digitizer. All
// synthesis (including the pseudo-noise) is deterministic: two mocks built
// from equal configs produce identical streams.
type Mock struct {
	sampleRate int
	frequency  int
	duty       float64
	amplitude  float32
	phase      float32 // radians
	bias       float32
	noise      float32

	mu        sync.RWMutex
	connected bool
	clock     uint64 // raw conversions since Connect
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Mock{
		sampleRate: cfg.Acquisition.SampleRate,
		frequency:  cfg.Excitation.Frequency,
		duty:       float64(cfg.Excitation.DutyPercent) / 100,
		amplitude:  float32(cfg.Mock.Amplitude),
		phase:      float32(cfg.Mock.PhaseDegrees * math.Pi / 180),
		bias:       float32(cfg.Mock.Bias),
		noise:      float32(cfg.Mock.NoiseLevel),
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.clock = 0

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false

	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Capture fills dst with synthesized interleaved reference/input samples.
func (m *Mock) Capture(ctx context.Context, dst []uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range dst {
		// Fraction of the excitation cycle at this conversion instant.
		frac := math.Mod(float64(m.clock)*float64(m.frequency)/float64(m.sampleRate), 1)

		var v float32
		if i%2 == 0 {
			v = m.bias + m.referenceLevel(frac)
		} else {
			v = m.bias + m.amplitude*math32.Sin(float32(2*math.Pi*frac)+m.phase)
		}
		v += m.noiseSample()

		dst[i] = clampSample(v)
		m.clock++
	}

	return nil
}

// referenceLevel models the PWM excitation as seen by the reference channel.
func (m *Mock) referenceLevel(frac float64) float32 {
	if frac < m.duty {
		return m.amplitude
	}
	return -m.amplitude
}

// noiseSample produces small deterministic pseudo-noise from two
// incommensurate tones, so equal configs yield equal streams.
func (m *Mock) noiseSample() float32 {
	t := float32(m.clock % (1 << 20))
	return (math32.Sin(t*0.731) + math32.Cos(t*0.573)) * m.noise * 0.5
}

// clampSample rounds v to the nearest 12-bit ADC count.
func clampSample(v float32) uint16 {
	if v < 0 {
		return 0
	}
	if v > maxSampleValue {
		return maxSampleValue
	}
	return uint16(v + 0.5)
}
