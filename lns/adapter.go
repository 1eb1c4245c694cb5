// Package lns adapts the MQTT JSON envelopes of the supported LoRaWAN
// network servers to and from a common uplink view.
package lns

import (
	"errors"
	"fmt"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
)

// Adapter names accepted in the configuration.
const (
	TTS3Name       = "TheThingsStack_v3"
	ChirpStackName = "ChirpStack_v3+"
)

var (
	// ErrMalformedEnvelope is returned when an uplink misses a required
	// field or is not valid JSON.
	ErrMalformedEnvelope = errors.New("malformed uplink envelope")

	// ErrUnsupportedPort marks uplinks on ports the field tester does not
	// use. Those are skipped, not failures.
	ErrUnsupportedPort = errors.New("unsupported uplink port")
)

// Uplink is the network server independent view of one received uplink.
type Uplink struct {
	Port       int
	FCnt       uint32
	Gateways   []fieldtest.Gateway
	Payload    []byte
	ReplyTopic string
	// DevEUI is set when the envelope carries the device identity, only
	// ChirpStack v4 does.
	DevEUI string
}

// Downlink is a ready to publish downlink envelope.
type Downlink struct {
	Topic string
	Body  []byte
}

// Adapter extracts uplinks from one network server JSON shape and builds
// the matching downlink envelopes.
type Adapter interface {
	Name() string

	// SubscribeTopic returns the uplink topic filter for one device.
	SubscribeTopic(devEUI string) string

	// ExtractUplink parses an uplink envelope received on topic. It
	// returns ErrUnsupportedPort for uplinks the field tester does not
	// send and ErrMalformedEnvelope when required fields are missing.
	ExtractUplink(topic string, body []byte) (*Uplink, error)

	// BuildDownlink wraps an encoded reply payload into the downlink
	// envelope answering up.
	BuildDownlink(up *Uplink, payload []byte) (*Downlink, error)
}

// ForName returns the adapter matching a configured name.
func ForName(name string) (Adapter, error) {
	switch name {
	case TTS3Name:
		return TTS3{}, nil
	case ChirpStackName:
		return ChirpStack{}, nil
	}
	return nil, fmt.Errorf("unknown parser type %q", name)
}
