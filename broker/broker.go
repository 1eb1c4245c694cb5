package broker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
}

// Handler receives every inbound message matching a subscription.
type Handler func(topic string, payload []byte)

// Client wraps the paho MQTT client with connection lifecycle logging.
// Subscriptions are restored when the connection comes back.
type Client struct {
	logger log.Logger
	cfg    Config
	mqtt   mqtt.Client

	mu   sync.Mutex
	subs map[string]Handler
}

// NewClient connects to the broker, it fails when the broker is not
// reachable.
func NewClient(logger log.Logger, cfg Config) (*Client, error) {
	logger = log.With(logger, "component", "broker")
	c := &Client{
		logger: logger,
		cfg:    cfg,
		subs:   make(map[string]Handler),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c.mqtt = mqtt.NewClient(opts)
	if token := c.mqtt.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return c, nil
}

func (c *Client) onConnect(mqtt.Client) {
	level.Debug(c.logger).Log("msg", "connected to MQTT broker", "host", c.cfg.Host, "port", c.cfg.Port)
	c.resubscribe()
}

// paho reconnects on its own, a lost connection is part of the normal
// lifecycle and logged like the other callbacks.
func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	level.Debug(c.logger).Log("msg", "disconnected from MQTT broker", "error", err)
}

// Subscribe registers h for every message published on topic, at QoS 0.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()

	token := c.mqtt.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	level.Debug(c.logger).Log("msg", "subscribed", "topic", topic)
	return nil
}

// resubscribe runs on every connection, the broker forgets QoS 0
// subscriptions between sessions.
func (c *Client) resubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for topic, h := range c.subs {
		h := h
		token := c.mqtt.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			h(msg.Topic(), msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			level.Error(c.logger).Log("msg", "can't restore subscription", "topic", topic, "error", token.Error())
			continue
		}
		level.Debug(c.logger).Log("msg", "restored subscription", "topic", topic)
	}
}

// Publish sends payload on topic at QoS 0, waiting at most 5s for the
// broker to take it.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.mqtt.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timed out")
	}
	return token.Error()
}

// Disconnect waits for in flight messages and closes the connection.
func (c *Client) Disconnect() {
	c.mqtt.Disconnect(250)
}
