package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Excitation  ExcitationConfig  `yaml:"excitation"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Divider     DividerConfig     `yaml:"divider"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration for the acquisition MCU.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// AcquisitionConfig contains digitizer parameters.
type AcquisitionConfig struct {
	SampleRate     int           `yaml:"sample_rate"`     // Raw interleaved conversion rate (samples/s)
	CaptureTimeout time.Duration `yaml:"capture_timeout"` // Abort a burst that never completes
}

// ExcitationConfig contains excitation signal parameters. The signal itself
// is generated on the MCU; the host only needs frequency and duty to size
// buffers and to simulate the reference channel.
type ExcitationConfig struct {
	Frequency   int `yaml:"frequency"`    // Excitation frequency (Hz)
	DutyPercent int `yaml:"duty_percent"` // PWM duty cycle (percent)
}

// MeasurementConfig contains measurement parameters.
type MeasurementConfig struct {
	Iterations int `yaml:"iterations"` // Bursts to average per measurement
}

// DividerConfig contains the resistive divider constants used to convert a
// quadrature response into an impedance.
type DividerConfig struct {
	SeriesResistance    float64 `yaml:"series_resistance"`    // Ohm
	ReferenceResistance float64 `yaml:"reference_resistance"` // Ohm
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Amplitude    float64 `yaml:"amplitude"`     // Input sinusoid amplitude (ADC counts)
	PhaseDegrees float64 `yaml:"phase_degrees"` // Input phase relative to excitation (degrees)
	Bias         float64 `yaml:"bias"`          // DC level of both channels (ADC counts)
	NoiseLevel   float64 `yaml:"noise_level"`   // Deterministic pseudo-noise amplitude (ADC counts)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // Pico CDC serial; "COM3" on Windows
			BaudRate: 115200,
		},
		Acquisition: AcquisitionConfig{
			SampleRate:     500000, // Pico ADC free-running round-robin rate
			CaptureTimeout: 5 * time.Second,
		},
		Excitation: ExcitationConfig{
			Frequency:   500,
			DutyPercent: 50,
		},
		Measurement: MeasurementConfig{
			Iterations: 100,
		},
		Divider: DividerConfig{
			SeriesResistance:    100000,
			ReferenceResistance: 9500,
		},
		Mock: MockConfig{
			Amplitude:    400,
			PhaseDegrees: 30,
			Bias:         2048,
			NoiseLevel:   2,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Acquisition.SampleRate == 0 {
		c.Acquisition.SampleRate = def.Acquisition.SampleRate
	}
	if c.Acquisition.CaptureTimeout == 0 {
		c.Acquisition.CaptureTimeout = def.Acquisition.CaptureTimeout
	}

	if c.Excitation.Frequency == 0 {
		c.Excitation.Frequency = def.Excitation.Frequency
	}
	if c.Excitation.DutyPercent == 0 {
		c.Excitation.DutyPercent = def.Excitation.DutyPercent
	}

	if c.Measurement.Iterations == 0 {
		c.Measurement.Iterations = def.Measurement.Iterations
	}

	if c.Divider.SeriesResistance == 0 {
		c.Divider.SeriesResistance = def.Divider.SeriesResistance
	}
	if c.Divider.ReferenceResistance == 0 {
		c.Divider.ReferenceResistance = def.Divider.ReferenceResistance
	}

	if c.Mock.Amplitude == 0 {
		c.Mock.Amplitude = def.Mock.Amplitude
	}
	if c.Mock.Bias == 0 {
		c.Mock.Bias = def.Mock.Bias
	}
}
