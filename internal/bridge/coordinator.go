package bridge

import (
	"time"

	"UartBridge/internal/util"
)

// SentinelResponse is returned for a request whose device accepted the write
// but produced no reply line within the answer timeout. Silent acceptance is a
// normal outcome for fire-and-forget devices, so it resolves to a fixed
// success value rather than an error.
const SentinelResponse = "OK"

// Coordinator serves write requests against the shared serial channel. Each
// request is written to the port and the next line received within the answer
// timeout is correlated as its reply.
type Coordinator struct {
	ch      *Channel
	pub     Publisher
	topic   string
	timeout time.Duration
}

// NewCoordinator constructs a Coordinator. Reply lines are republished to
// topic exactly as the poller publishes unsolicited lines.
func NewCoordinator(ch *Channel, pub Publisher, topic string, timeout time.Duration) *Coordinator {
	return &Coordinator{ch: ch, pub: pub, topic: topic, timeout: timeout}
}

// Handle processes one request payload and produces exactly one response:
// the cleaned reply line if the device answered in time, SentinelResponse if
// it stayed silent, or an error if the write itself failed.
func (c *Coordinator) Handle(payload string) (string, error) {
	util.Info("[Coordinator] request: %s", payload)

	reply, ok, err := c.ch.Request(payload, c.timeout)
	if err != nil {
		return "", err
	}
	if !ok {
		return SentinelResponse, nil
	}

	// the reply is also a line read from the port, so it goes out on the
	// publish topic like any other
	if err := c.pub.Publish(c.topic, reply); err != nil {
		util.Error("[Coordinator] publish err: %v", err)
	}
	if reply == "" {
		return SentinelResponse, nil
	}
	return reply, nil
}
