package bridge

import (
	"fmt"
	"sync"
	"time"

	"UartBridge/internal/device"
	"UartBridge/internal/model"
	"UartBridge/internal/util"
)

// Bus is the messaging-runtime surface the bridge needs: a publish primitive
// and a request-handler registration.
type Bus interface {
	Publisher
	HandleRequests(topic string, fn func(string) (string, error)) error
}

// Bridge owns the serial device for the process lifetime and runs the poller
// ticker plus the request handler over it.
type Bridge struct {
	cfg    *model.Config
	bus    Bus
	dev    device.Device
	poller *Poller
	coord  *Coordinator
	period time.Duration

	stop      chan struct{}
	wg        sync.WaitGroup
	started   bool
	startLock sync.Mutex
}

// New opens the serial device and constructs the bridge components around it.
// If the port cannot be opened the bridge is not created: startup must not
// continue in a degraded state.
func New(cfg *model.Config, bus Bus) (*Bridge, error) {
	dev, err := device.NewSerialDevice(cfg.Serial.Device, cfg.Serial.Baudrate)
	if err != nil {
		return nil, err
	}
	util.Info("[Bridge] serial port %s opened with baudrate %d", cfg.Serial.Device, cfg.Serial.Baudrate)

	ch := NewChannel(dev)
	return &Bridge{
		cfg:    cfg,
		bus:    bus,
		dev:    dev,
		poller: NewPoller(ch, bus, cfg.Serial.PublishTopic),
		coord:  NewCoordinator(ch, bus, cfg.Serial.PublishTopic, cfg.Serial.AnswerTimeout()),
		period: cfg.Serial.PollPeriod(),
		stop:   make(chan struct{}),
	}, nil
}

// Start registers the request handler on the service topic and launches the
// poller ticker goroutine.
func (b *Bridge) Start() error {
	b.startLock.Lock()
	defer b.startLock.Unlock()
	if b.started {
		return nil
	}

	if err := b.bus.HandleRequests(b.cfg.Serial.ServiceTopic, b.coord.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.cfg.Serial.ServiceTopic, err)
	}
	util.Info("[Bridge] serving requests on %s, publishing to %s",
		b.cfg.Serial.ServiceTopic, b.cfg.Serial.PublishTopic)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.period)
		defer ticker.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				b.poller.Tick()
			}
		}
	}()
	b.started = true
	return nil
}

// Stop halts the poller and closes the serial device.
func (b *Bridge) Stop() {
	b.startLock.Lock()
	defer b.startLock.Unlock()
	if !b.started {
		return
	}
	// close stop channel (idempotent)
	select {
	case <-b.stop:
		// already closed
	default:
		close(b.stop)
	}
	b.wg.Wait()
	if err := b.dev.Close(); err != nil {
		util.Error("[Bridge] close device err: %v", err)
	}
	b.started = false
}
