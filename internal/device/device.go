// Package device defines a unified interface for line-oriented serial devices
// and implements it on top of go.bug.st/serial.
package device

import (
	"errors"
	"time"
)

// Errors returned by ReadLine.
var (
	// ErrReadTimeout signals that no complete line arrived within the timeout.
	ErrReadTimeout = errors.New("read timeout")
	// ErrClosed signals that the device is closed or its reader has stopped.
	ErrClosed = errors.New("device closed")
)

// Device defines an abstract interface for a line-oriented serial device.
// Implementations must deliver each incoming line intact to exactly one caller.
type Device interface {
	// IsOpen reports whether the device is usable. It does not mutate state.
	IsOpen() bool

	// Available returns the number of complete lines buffered and ready to read
	// without blocking. Zero means nothing to read now, not an error.
	Available() int

	// ReadLine returns one raw line including its terminator.
	// If timeout > 0, it returns ErrReadTimeout once the timeout elapses with no line.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// WriteRaw writes s to the device byte-for-byte with no framing added.
	WriteRaw(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}
