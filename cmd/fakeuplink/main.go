package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log"

	"github.com/brocaar/lorawan"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/lns"
)

var rawCS = `{
	"deviceInfo": {
		"applicationName": "fake",
		"deviceName": "fake-field-tester",
		"devEui": %q
	},
	"fPort": %d,
	"fCnt": %d,
	"data": %q,
	"rxInfo": [
		{"gatewayId": "58a0cbfffe803b1d", "rssi": %d, "snr": 9.5, "location": {"latitude": %v, "longitude": %v}}
	]
}`

var rawTTS = `{
	"end_device_ids": {"device_id": %q, "application_ids": {"application_id": %q}},
	"uplink_message": {
		"f_port": %d,
		"f_cnt": %d,
		"frm_payload": %q,
		"rx_metadata": [
			{"gateway_ids": {"gateway_id": "fake-gateway"}, "rssi": %d, "snr": 9.5, "location": {"latitude": %v, "longitude": %v}}
		]
	}
}`

var (
	addr       = flag.String("addr", "localhost:1883", "Addr of the MQTT broker")
	parserType = flag.String("parserType", lns.ChirpStackName, "envelope flavor, TheThingsStack_v3 or ChirpStack_v3+")
	appID      = flag.String("appID", "1", "application id used in the topic")
	devEUI     = flag.String("devEUI", "a84041ffff1fb360", "device EUI")
	port       = flag.Int("port", 1, "uplink port, 1 or 11")
	fcnt       = flag.Uint("fcnt", 1, "uplink frame counter")
	rssi       = flag.Int("rssi", -80, "gateway RSSI")
	lat        = flag.Float64("lat", 41.8779989, "device latitude")
	lng        = flag.Float64("lng", -87.6290012, "device longitude")
	alt        = flag.Int("alt", 203, "device altitude in meters")
	hdop       = flag.Float64("hdop", 1.2, "horizontal dilution of precision")
	sats       = flag.Int("sats", 7, "satellites in view")
	gwLat      = flag.Float64("gwLat", 41.881, "gateway latitude")
	gwLng      = flag.Float64("gwLng", -87.623, "gateway longitude")
)

func main() {
	flag.Parse()

	var eui lorawan.EUI64
	if err := eui.UnmarshalText([]byte(*devEUI)); err != nil {
		log.Fatal("invalid devEUI: ", err)
	}

	payload := base64.StdEncoding.EncodeToString(
		fieldtest.EncodePayload(*lat, *lng, *alt, *hdop, *sats))

	var topic, body string
	switch *parserType {
	case lns.TTS3Name:
		deviceID := "eui-" + eui.String()
		topic = fmt.Sprintf("v3/%s/devices/%s/up", *appID, deviceID)
		body = fmt.Sprintf(rawTTS, deviceID, *appID, *port, *fcnt, payload, *rssi, *gwLat, *gwLng)
	case lns.ChirpStackName:
		topic = fmt.Sprintf("application/%s/device/%s/event/up", *appID, eui.String())
		body = fmt.Sprintf(rawCS, eui.String(), *port, *fcnt, payload, *rssi, *gwLat, *gwLng)
	default:
		log.Fatal("unknown parser type ", *parserType)
	}

	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + *addr).
		SetClientID("fakeuplink")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal(token.Error())
	}

	token := client.Publish(topic, 0, false, []byte(body))
	token.Wait()
	if token.Error() != nil {
		log.Fatal(token.Error())
	}

	log.Println("sent uplink on", topic)
	client.Disconnect(250)
}
