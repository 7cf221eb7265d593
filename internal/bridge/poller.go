package bridge

import (
	"errors"

	"UartBridge/internal/util"
)

// Publisher delivers cleaned line events to the messaging fabric.
type Publisher interface {
	Publish(topic, payload string) error
}

// Poller drains the serial port on a fixed period, publishing each pending
// line to the configured topic. It never attempts to reopen a closed port.
type Poller struct {
	ch    *Channel
	pub   Publisher
	topic string
}

// NewPoller constructs a Poller publishing to topic.
func NewPoller(ch *Channel, pub Publisher, topic string) *Poller {
	return &Poller{ch: ch, pub: pub, topic: topic}
}

// Tick performs one poll cycle: a closed port is logged as a warning, an idle
// port is a no-op, and an available line is read and published.
func (p *Poller) Tick() {
	line, ok, err := p.ch.PollOnce()
	switch {
	case errors.Is(err, ErrPortClosed):
		util.Warn("[Poller] serial port closed")
	case err != nil:
		util.Error("[Poller] read err: %v", err)
	case ok:
		if err := p.pub.Publish(p.topic, line); err != nil {
			util.Error("[Poller] publish err: %v", err)
		}
	}
}
