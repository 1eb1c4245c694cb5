package lns

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
)

// TTS3 adapts The Things Stack v3 envelopes.
type TTS3 struct{}

type ttsEnvelope struct {
	UplinkMessage *ttsUplinkMessage `json:"uplink_message"`
}

type ttsUplinkMessage struct {
	FPort      int                 `json:"f_port"`
	FCnt       *uint32             `json:"f_cnt"`
	RxMetadata []fieldtest.Gateway `json:"rx_metadata"`
	FrmPayload []byte              `json:"frm_payload"`
}

type ttsDownlink struct {
	Downlinks []ttsDownlinkItem `json:"downlinks"`
}

type ttsDownlinkItem struct {
	FPort      int    `json:"f_port"`
	FrmPayload []byte `json:"frm_payload"`
	Priority   string `json:"priority"`
}

func (TTS3) Name() string { return TTS3Name }

func (TTS3) SubscribeTopic(devEUI string) string {
	return fmt.Sprintf("v3/+/devices/%s/up", devEUI)
}

func (TTS3) ExtractUplink(topic string, body []byte) (*Uplink, error) {
	var env ttsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.UplinkMessage == nil {
		return nil, fmt.Errorf("%w: no uplink_message", ErrMalformedEnvelope)
	}

	msg := env.UplinkMessage
	if !fieldtest.PortSupported(msg.FPort) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPort, msg.FPort)
	}
	if msg.FCnt == nil {
		return nil, fmt.Errorf("%w: no f_cnt", ErrMalformedEnvelope)
	}
	if msg.RxMetadata == nil {
		return nil, fmt.Errorf("%w: no rx_metadata", ErrMalformedEnvelope)
	}
	if msg.FrmPayload == nil {
		return nil, fmt.Errorf("%w: no frm_payload", ErrMalformedEnvelope)
	}

	return &Uplink{
		Port:       msg.FPort,
		FCnt:       *msg.FCnt,
		Gateways:   msg.RxMetadata,
		Payload:    msg.FrmPayload,
		ReplyTopic: strings.ReplaceAll(topic, "/up", "/down/replace"),
	}, nil
}

func (TTS3) BuildDownlink(up *Uplink, payload []byte) (*Downlink, error) {
	body, err := json.Marshal(ttsDownlink{
		Downlinks: []ttsDownlinkItem{{
			FPort:      up.Port + 1,
			FrmPayload: payload,
			Priority:   "HIGH",
		}},
	})
	if err != nil {
		return nil, err
	}
	return &Downlink{Topic: up.ReplyTopic, Body: body}, nil
}
