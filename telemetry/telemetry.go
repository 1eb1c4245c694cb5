package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Measurement is one named scalar forwarded to the telemetry side channel.
type Measurement struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Timestamp int64             `json:"timestamp"` // ns since epoch
	Meta      map[string]string `json:"meta,omitempty"`
}

// Sink forwards measurements to a telemetry backend. Implementations must
// be safe for concurrent use.
type Sink interface {
	Publish(m Measurement) error
}

// Publisher is the transport needed by MQTTSink, broker.Client satisfies
// it.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTSink publishes measurements as JSON records on one topic per
// measurement name, prefix/name.
type MQTTSink struct {
	pub    Publisher
	prefix string
}

func NewMQTTSink(pub Publisher, prefix string) *MQTTSink {
	return &MQTTSink{pub: pub, prefix: prefix}
}

func (s *MQTTSink) Publish(m Measurement) error {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixNano()
	}
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.pub.Publish(s.prefix+"/"+m.Name, body); err != nil {
		return fmt.Errorf("can't publish measurement %s: %w", m.Name, err)
	}
	return nil
}

// NopSink drops every measurement, used when publishing is disabled.
type NopSink struct{}

func (NopSink) Publish(Measurement) error { return nil }
