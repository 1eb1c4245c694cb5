package lns

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
)

// ChirpStack adapts ChirpStack v3 and v4 envelopes. The two versions share
// one flat uplink shape, v4 is recognized by the deviceInfo object and
// wants the device EUI echoed in the downlink.
type ChirpStack struct{}

type csEnvelope struct {
	FPort      int                 `json:"fPort"`
	FCnt       *uint32             `json:"fCnt"`
	RxInfo     []fieldtest.Gateway `json:"rxInfo"`
	Data       []byte              `json:"data"`
	DeviceInfo *csDeviceInfo       `json:"deviceInfo"`
}

type csDeviceInfo struct {
	DevEUI string `json:"devEui"`
}

type csDownlink struct {
	Confirmed bool   `json:"confirmed"`
	FPort     int    `json:"fPort"`
	Data      []byte `json:"data"`
	DevEUI    string `json:"devEui,omitempty"`
}

func (ChirpStack) Name() string { return ChirpStackName }

func (ChirpStack) SubscribeTopic(devEUI string) string {
	return fmt.Sprintf("application/+/device/%s/event/up", devEUI)
}

func (ChirpStack) ExtractUplink(topic string, body []byte) (*Uplink, error) {
	var env csEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	// a missing fPort decodes as 0 which is not a field tester port
	if !fieldtest.PortSupported(env.FPort) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPort, env.FPort)
	}
	if env.FCnt == nil {
		return nil, fmt.Errorf("%w: no fCnt", ErrMalformedEnvelope)
	}
	if env.RxInfo == nil {
		return nil, fmt.Errorf("%w: no rxInfo", ErrMalformedEnvelope)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: no data", ErrMalformedEnvelope)
	}

	up := &Uplink{
		Port:       env.FPort,
		FCnt:       *env.FCnt,
		Gateways:   env.RxInfo,
		Payload:    env.Data,
		ReplyTopic: strings.ReplaceAll(topic, "/event/up", "/command/down"),
	}
	if env.DeviceInfo != nil {
		up.DevEUI = env.DeviceInfo.DevEUI
	}
	return up, nil
}

func (ChirpStack) BuildDownlink(up *Uplink, payload []byte) (*Downlink, error) {
	body, err := json.Marshal(csDownlink{
		Confirmed: false,
		FPort:     up.Port + 1,
		Data:      payload,
		DevEUI:    up.DevEUI,
	})
	if err != nil {
		return nil, err
	}
	return &Downlink{Topic: up.ReplyTopic, Body: body}, nil
}
