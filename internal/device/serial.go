// Package device implements Device using go.bug.st/serial,
// which provides real serial communication support for UART-attached hardware.
package device

import (
	"bufio"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	serial "go.bug.st/serial"
)

// lineBuffer bounds how many unread lines the reader goroutine may hold.
const lineBuffer = 64

// SerialDevice implements Device using go.bug.st/serial.
// A single long-lived reader goroutine owns the port's read side and feeds
// complete lines into a channel, so a timed-out caller can never leave a
// partially consumed line behind for the next one.
type SerialDevice struct {
	port serial.Port
	dev  string
	baud int

	lines     chan string
	done      chan struct{}
	open      atomic.Bool
	closeOnce sync.Once
}

// NewSerialDevice opens the serial device at the given path and baudrate and
// starts its reader. Any open failure is returned as a single error naming the path.
func NewSerialDevice(dev string, baud int) (*SerialDevice, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("serial port %s unavailable: %w", dev, err)
	}
	s := &SerialDevice{
		port:  p,
		dev:   dev,
		baud:  baud,
		lines: make(chan string, lineBuffer),
		done:  make(chan struct{}),
	}
	s.open.Store(true)
	go s.readLoop()
	return s, nil
}

// readLoop accumulates bytes into lines and delivers them until the port fails
// or the device is closed.
func (s *SerialDevice) readLoop() {
	r := bufio.NewReader(s.port)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			select {
			case s.lines <- line:
			case <-s.done:
				return
			}
		}
		if err != nil {
			// device gone or closed; already-delivered lines stay readable
			s.open.Store(false)
			return
		}
	}
}

// IsOpen reports whether the port is usable.
func (s *SerialDevice) IsOpen() bool {
	return s.open.Load()
}

// Available returns the number of complete lines ready to read without blocking.
func (s *SerialDevice) Available() int {
	return len(s.lines)
}

// ReadLine returns one raw line including its terminator, blocking until a line
// arrives, the timeout elapses, or the device is closed.
func (s *SerialDevice) ReadLine(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		select {
		case line := <-s.lines:
			return line, nil
		case <-s.done:
			return "", ErrClosed
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line := <-s.lines:
		return line, nil
	case <-s.done:
		return "", ErrClosed
	case <-timer.C:
		return "", ErrReadTimeout
	}
}

// WriteLine writes s followed by '\n' to the port.
func (s *SerialDevice) WriteLine(line string) error {
	return s.WriteRaw(line + "\n")
}

// WriteRaw writes s to the port byte-for-byte with no framing added.
func (s *SerialDevice) WriteRaw(raw string) error {
	if !s.open.Load() {
		return ErrClosed
	}
	if _, err := s.port.Write([]byte(raw)); err != nil {
		return fmt.Errorf("write to %s: %w", s.dev, err)
	}
	return nil
}

// Close closes the underlying port and unblocks any pending ReadLine.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *SerialDevice) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.open.Store(false)
		close(s.done)
		err = s.port.Close()
	})
	return err
}
