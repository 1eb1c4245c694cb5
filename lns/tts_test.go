package lns

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// frm_payload decodes to a fix at 41.8779989,-87.6290012, 203 m, hdop 1.2,
// 7 satellites
var ttsUplink = `{
	"end_device_ids": {
		"device_id": "eui-a84041ffff1fb360",
		"application_ids": {"application_id": "field-tests"},
		"dev_eui": "A84041FFFF1FB360"
	},
	"received_at": "2024-05-14T09:28:31.123456789Z",
	"uplink_message": {
		"session_key_id": "AY5iA==",
		"f_port": 1,
		"f_cnt": 300,
		"frm_payload": "nZVsPjD3BLMMBw==",
		"rx_metadata": [
			{
				"gateway_ids": {"gateway_id": "gw-city-north", "eui": "58A0CBFFFE803B1D"},
				"rssi": -80,
				"channel_rssi": -80,
				"snr": 8.5,
				"location": {"latitude": 41.881, "longitude": -87.623, "altitude": 205, "source": "SOURCE_REGISTRY"}
			},
			{
				"gateway_ids": {"gateway_id": "gw-city-south"},
				"rssi": -60,
				"snr": 10.2
			}
		],
		"settings": {
			"data_rate": {"lora": {"bandwidth": 125000, "spreading_factor": 7}},
			"frequency": "867500000"
		},
		"consumed_airtime": "0.061696s"
	}
}`

func TestTTS3ExtractUplink(t *testing.T) {
	a, err := ForName(TTS3Name)
	require.NoError(t, err)

	up, err := a.ExtractUplink("v3/field-tests@ttn/devices/eui-a84041ffff1fb360/up", []byte(ttsUplink))
	require.NoError(t, err)

	require.Equal(t, 1, up.Port)
	require.Equal(t, uint32(300), up.FCnt)
	require.Equal(t, []byte{0x9d, 0x95, 0x6c, 0x3e, 0x30, 0xf7, 0x04, 0xb3, 0x0c, 0x07}, up.Payload)
	require.Equal(t, "v3/field-tests@ttn/devices/eui-a84041ffff1fb360/down/replace", up.ReplyTopic)
	require.Empty(t, up.DevEUI)

	require.Len(t, up.Gateways, 2)
	require.Equal(t, -80, *up.Gateways[0].RSSI)
	require.InDelta(t, 41.881, *up.Gateways[0].Location.Latitude, 1e-6)
	require.InDelta(t, -87.623, *up.Gateways[0].Location.Longitude, 1e-6)
	require.Equal(t, -60, *up.Gateways[1].RSSI)
	require.Nil(t, up.Gateways[1].Location)
}

func TestTTS3ExtractUplinkUnsupportedPort(t *testing.T) {
	body := `{"uplink_message": {"f_port": 5, "f_cnt": 1, "rx_metadata": [], "frm_payload": "AAECAwQFBgcICQ=="}}`
	_, err := TTS3{}.ExtractUplink("v3/app@ttn/devices/dev/up", []byte(body))
	require.ErrorIs(t, err, ErrUnsupportedPort)
}

func TestTTS3ExtractUplinkMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `not a json body`},
		{"empty object", `{}`},
		{"join accept", `{"join_accept": {"session_key_id": "AY5iA=="}}`},
		{"no f_cnt", `{"uplink_message": {"f_port": 1, "rx_metadata": [{"rssi": -80}], "frm_payload": "nZVsPjD3BLMMBw=="}}`},
		{"no rx_metadata", `{"uplink_message": {"f_port": 1, "f_cnt": 1, "frm_payload": "nZVsPjD3BLMMBw=="}}`},
		{"no frm_payload", `{"uplink_message": {"f_port": 1, "f_cnt": 1, "rx_metadata": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TTS3{}.ExtractUplink("v3/app@ttn/devices/dev/up", []byte(tt.body))
			require.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func TestTTS3BuildDownlink(t *testing.T) {
	up := &Uplink{
		Port:       1,
		ReplyTopic: "v3/field-tests@ttn/devices/eui-a84041ffff1fb360/down/replace",
	}

	down, err := TTS3{}.BuildDownlink(up, []byte{44, 120, 140, 2, 4, 3})
	require.NoError(t, err)
	require.Equal(t, up.ReplyTopic, down.Topic)

	var body ttsDownlink
	require.NoError(t, json.Unmarshal(down.Body, &body))
	require.Len(t, body.Downlinks, 1)
	require.Equal(t, 2, body.Downlinks[0].FPort)
	require.Equal(t, "HIGH", body.Downlinks[0].Priority)
	require.Equal(t, []byte{44, 120, 140, 2, 4, 3}, body.Downlinks[0].FrmPayload)
}

func TestTTS3SubscribeTopic(t *testing.T) {
	require.Equal(t, "v3/+/devices/eui-a84041ffff1fb360/up", TTS3{}.SubscribeTopic("eui-a84041ffff1fb360"))
}
