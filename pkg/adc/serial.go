package adc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for the Pico CDC bridge.
	DefaultBaudRate = 115200
	// maxSampleValue is the full-scale 12-bit ADC reading.
	maxSampleValue = 4095
	// blockTerminator ends a burst transfer.
	blockTerminator = "E"
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial talks to the acquisition MCU over a serial line. A burst is
// requested with "B <count>" and the MCU answers with count comma-separated
// decimal samples (16 per line) followed by a lone "E".
type Serial struct {
	port     string
	baudRate int

	conn      serial.Port
	mu        sync.RWMutex
	connected bool
}

// New creates a new Serial device for the given port and baud rate.
func New(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	return nil
}

// Close closes the connection.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Capture requests one burst of len(dst) raw samples and blocks until the
// whole block has arrived or ctx is cancelled. The caller owns dst; it is
// only written on success. A cancelled capture leaves the wire in an
// undefined state, so the caller should treat it as fatal and reconnect.
func (d *Serial) Capture(ctx context.Context, dst []uint16) error {
	d.mu.RLock()
	conn := d.conn
	connected := d.connected
	d.mu.RUnlock()

	if !connected {
		return fmt.Errorf("not connected")
	}
	if len(dst) == 0 {
		return fmt.Errorf("empty capture block")
	}

	return captureBlock(ctx, conn, dst)
}

// captureBlock runs one burst transaction: the command goes out first, so
// a failed write never strands a reader on the wire, then the streamed
// block is collected into dst.
func captureBlock(ctx context.Context, rw io.ReadWriter, dst []uint16) error {
	if _, err := rw.Write([]byte(fmt.Sprintf("B %d\n", len(dst)))); err != nil {
		return fmt.Errorf("failed to send burst command: %w", err)
	}

	type result struct {
		values []uint16
		err    error
	}
	done := make(chan result, 1)

	go func() {
		values, err := readBlock(rw, len(dst))
		done <- result{values: values, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		copy(dst, res.values)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readBlock reads count samples from the wire, then the block terminator.
func readBlock(r io.Reader, count int) ([]uint16, error) {
	values := make([]uint16, 0, count)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == blockTerminator {
			if len(values) != count {
				return nil, fmt.Errorf("short burst: got %d samples, want %d", len(values), count)
			}
			return values, nil
		}

		parsed, err := parseSampleLine(line, count-len(values))
		if err != nil {
			return nil, fmt.Errorf("failed to parse burst line %q: %w", line, err)
		}
		values = append(values, parsed...)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from serial port: %w", err)
	}
	return nil, fmt.Errorf("serial stream closed mid-burst after %d samples", len(values))
}

// parseSampleLine parses one line of comma-separated decimal samples.
// remaining caps how many samples the burst may still contain.
func parseSampleLine(line string, remaining int) ([]uint16, error) {
	parts := strings.Split(line, ",")
	if len(parts) > remaining {
		return nil, fmt.Errorf("burst overrun: %d values but only %d expected", len(parts), remaining)
	}

	values := make([]uint16, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid sample %q: %w", part, err)
		}
		if v > maxSampleValue {
			return nil, fmt.Errorf("sample out of range: %d (max %d)", v, maxSampleValue)
		}
		values = append(values, uint16(v))
	}

	return values, nil
}
