package adc

import "context"

// Device defines the interface for acquisition devices (real or mocked).
// Capture fills dst end-to-end with raw 12-bit samples, round-robin
// multiplexed between the reference and input channels:
// [ref0, in0, ref1, in1, ...]. It blocks until the whole block has been
// captured or ctx is cancelled. Only one Capture may be in flight at a time.
type Device interface {
	Connect() error
	Close() error
	Capture(ctx context.Context, dst []uint16) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
