// Package bridge contains the runtime logic of the UART bridge: the shared
// serial channel, the periodic poller and the request/reply coordinator.
package bridge

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"UartBridge/internal/device"
)

// ErrPortClosed is returned by PollOnce when the serial port is no longer open.
var ErrPortClosed = errors.New("serial port closed")

// readTimeout bounds a single poll read. A poll only reads when a full line is
// already buffered, so this is a safety net rather than an expected wait.
const readTimeout = time.Second

var crlf = strings.NewReplacer("\r", "", "\n", "")

// cleanup removes every carriage-return and line-feed byte, preserving the
// relative order of all other bytes. This is the single cleanup point for both
// read paths.
func cleanup(s string) string {
	return crlf.Replace(s)
}

// Channel serializes all access to one serial device. Only one logical
// operation, a poll read or a write-then-wait request, runs at a time; the
// lock is held for the full operation and released on every exit path.
type Channel struct {
	mu  sync.Mutex
	dev device.Device
}

// NewChannel wraps dev in a serialized-access channel.
func NewChannel(dev device.Device) *Channel {
	return &Channel{dev: dev}
}

// IsOpen reports whether the underlying device is open.
func (c *Channel) IsOpen() bool {
	return c.dev.IsOpen()
}

// PollOnce reads at most one pending line. It returns the cleaned line and
// true when data was available, false with a nil error on an idle port, and
// ErrPortClosed when the device reports closed.
func (c *Channel) PollOnce() (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dev.IsOpen() {
		return "", false, ErrPortClosed
	}
	if c.dev.Available() == 0 {
		return "", false, nil
	}
	line, err := c.dev.ReadLine(readTimeout)
	if err != nil {
		return "", false, err
	}
	return cleanup(line), true, nil
}

// Request writes payload to the device byte-for-byte and waits up to timeout
// for the next line, which is treated as the reply. The first line wins
// regardless of how much of the timeout remains. A write failure is returned
// as an error and the wait is never entered; an elapsed timeout is not an
// error and reports ok=false.
func (c *Channel) Request(payload string, timeout time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dev.WriteRaw(payload); err != nil {
		return "", false, fmt.Errorf("request write failed: %w", err)
	}
	line, err := c.dev.ReadLine(timeout)
	if err != nil {
		// timeout or device loss while waiting: no reply observed
		return "", false, nil
	}
	return cleanup(line), true, nil
}
