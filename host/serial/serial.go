// Package serial opens MCU serial ports on the host and scopes their
// lifetime to a block of work.
package serial

import (
	"errors"
	"fmt"
	"io"

	"scopeblock/scope"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards bytes not yet transmitted and bytes received but
	// not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns a default configuration for a USB CDC target
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}

// openPort is swapped out by tests
var openPort = Open

// WithPort opens the configured port, runs fn with it and closes it again
// on every path out of fn. If the port cannot be opened fn does not run.
// A close failure is joined with fn's error.
func WithPort(cfg *Config, fn func(Port) error) error {
	var (
		port     Port
		closeErr error
	)

	err := scope.Run(func() (Port, error) {
		p, err := openPort(cfg)
		port = p
		return p, err
	}, func(p Port) {
		if err := p.Close(); err != nil {
			closeErr = fmt.Errorf("close %s: %w", cfg.Device, err)
		}
	}, func(*scope.Cancelable[Port]) error {
		return fn(port)
	})

	return errors.Join(err, closeErr)
}

// Exchange drops stale input, writes req and reads the reply into resp.
// Flush also discards pending output, so it must run before the write.
func Exchange(p Port, req, resp []byte) (int, error) {
	if err := p.Flush(); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}
	if _, err := p.Write(req); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	n, err := p.Read(resp)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, nil
}
