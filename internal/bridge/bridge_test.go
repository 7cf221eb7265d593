package bridge

import (
	"bufio"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"UartBridge/internal/model"
)

// fakeBus implements Bus, recording publishes and the registered request handler.
type fakeBus struct {
	fakePublisher
	mu      sync.Mutex
	topic   string
	handler func(string) (string, error)
}

func (b *fakeBus) HandleRequests(topic string, fn func(string) (string, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topic = topic
	b.handler = fn
	return nil
}

func (b *fakeBus) request(payload string) (string, error) {
	b.mu.Lock()
	fn := b.handler
	b.mu.Unlock()
	return fn(payload)
}

func testConfig(devPath string) *model.Config {
	rate := 200 // 5ms ticks keep the test fast
	cfg := &model.Config{Serial: model.SerialConfig{
		Device:          devPath,
		Baudrate:        115200,
		AnswerTimeoutMs: 2000,
		PollRate:        &rate,
	}}
	cfg.ApplyDefaults()
	return cfg
}

// A missing device must abort construction: no poller, no coordinator, no bridge.
func TestNewBridge_PortUnavailable(t *testing.T) {
	cfg := testConfig("/dev/does-not-exist-uartbridge")

	br, err := New(cfg, &fakeBus{})
	require.Error(t, err)
	require.ErrorContains(t, err, "/dev/does-not-exist-uartbridge")
	require.Nil(t, br)
}

func TestBridge_EndToEnd(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := testConfig(slave.Name())
	bus := &fakeBus{}

	br, err := New(cfg, bus)
	require.NoError(t, err)
	require.NoError(t, br.Start())
	t.Cleanup(br.Stop)

	require.Equal(t, slave.Name()+"_service", bus.topic)

	// unsolicited line: poller picks it up and publishes it cleaned
	_, err = master.WriteString("hello\r\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		for _, e := range bus.published() {
			if e.topic == slave.Name()+"_in" && e.payload == "hello" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// request/reply: the device echoes PONG once it sees PING
	go func() {
		r := bufio.NewReader(master)
		buf := make([]byte, 4)
		if _, err := r.Read(buf); err != nil {
			return
		}
		if string(buf) == "PING" {
			master.WriteString("PONG\r\n")
		}
	}()
	resp, err := bus.request("PING")
	require.NoError(t, err)
	require.Equal(t, "PONG", resp)

	// the reply was also republished as a line event
	require.Eventually(t, func() bool {
		for _, e := range bus.published() {
			if e.payload == "PONG" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	// start and stop are idempotent
	require.NoError(t, br.Start())
	br.Stop()
	br.Stop()
}

func TestBridge_SilentDeviceReturnsSentinel(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := testConfig(slave.Name())
	cfg.Serial.AnswerTimeoutMs = 200
	bus := &fakeBus{}

	br, err := New(cfg, bus)
	require.NoError(t, err)
	require.NoError(t, br.Start())
	t.Cleanup(br.Stop)

	start := time.Now()
	resp, err := bus.request("SET x=1")
	require.NoError(t, err)
	require.Equal(t, SentinelResponse, resp)
	require.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}
