//go:build tinygo

package main

import "machine"

const (
	// Excitation PWM
	PWM_FREQ_HZ        = 500 // Excitation frequency
	DUTY_CYCLE_PERCENT = 50

	// Burst capture
	MAX_BURST_SAMPLES = 4096 // RAM reserved for one burst (two channels interleaved)
	VALUES_PER_LINE   = 16   // Samples per output line

	// ADC configuration
	ADC_RESOLUTION = 12 // 12-bit = 0-4095

	// Excitation output pin
	PIN_PWM = machine.GP1

	// ADC pins: reference channel taps the excitation, input channel taps
	// the divider midpoint.
	PIN_ADC_REF = machine.GP26
	PIN_ADC_IN  = machine.GP27

	// Serial configuration
	// Burst replies are 16 comma-separated 4-digit values per line,
	// ~85 bytes/line. At 115200 baud (8N1) a 2000-sample burst streams in
	// roughly a second, well within the host capture timeout.
	UART_BAUD_RATE = 115200
)
