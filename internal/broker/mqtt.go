// Package broker wraps the Paho MQTT client behind the two primitives the
// bridge needs: publishing line events and serving write requests.
package broker

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"UartBridge/internal/util"
)

// ResponseSuffix is appended to the service topic to form the topic on which
// request responses are published.
const ResponseSuffix = "/response"

// Options configures the MQTT connection.
type Options struct {
	URL            string
	ClientID       string
	Username       string
	Password       string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	QoS            byte
}

// Client is a connected MQTT client.
type Client struct {
	inner paho.Client
	opts  Options
}

// Connect creates an MQTT client and connects it to the broker.
func Connect(opts Options) (*Client, error) {
	p := paho.NewClientOptions().
		AddBroker(opts.URL).
		SetClientID(opts.ClientID).
		SetKeepAlive(opts.KeepAlive).
		SetCleanSession(true)
	if opts.Username != "" {
		p.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		p.SetPassword(opts.Password)
	}
	c := &Client{opts: opts}
	c.inner = paho.NewClient(p)
	tok := c.inner.Connect()
	if !tok.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %s", opts.ConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	return c, nil
}

// Publish sends payload to topic.
func (c *Client) Publish(topic, payload string) error {
	tok := c.inner.Publish(topic, c.opts.QoS, false, []byte(payload))
	tok.Wait()
	return tok.Error()
}

// HandleRequests subscribes to topic and runs fn for each inbound payload.
// The response produced by fn is published to topic + ResponseSuffix; a
// request that fn fails is logged and no response is published.
func (c *Client) HandleRequests(topic string, fn func(string) (string, error)) error {
	tok := c.inner.Subscribe(topic, c.opts.QoS, func(_ paho.Client, m paho.Message) {
		resp, err := fn(string(m.Payload()))
		if err != nil {
			util.Error("[Broker] request on %s failed: %v", topic, err)
			return
		}
		if err := c.Publish(topic+ResponseSuffix, resp); err != nil {
			util.Error("[Broker] respond on %s failed: %v", topic+ResponseSuffix, err)
		}
	})
	tok.Wait()
	return tok.Error()
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.inner.Disconnect(250)
}
