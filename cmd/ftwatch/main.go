package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/lns"
)

var (
	addr       = flag.String("addr", "localhost:1883", "Addr of the MQTT broker")
	parserType = flag.String("parserType", lns.ChirpStackName, "the network server flavor, TheThingsStack_v3 or ChirpStack_v3+")
	devEUI     = flag.String("devEUI", "+", "device EUI to watch, + for all")
)

func main() {
	flag.Parse()

	adapter, err := lns.ForName(*parserType)
	if err != nil {
		log.Fatal(err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + *addr).
		SetClientID("ftwatch")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal(token.Error())
	}

	topic := adapter.SubscribeTopic(*devEUI)
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		up, err := adapter.ExtractUplink(msg.Topic(), msg.Payload())
		if errors.Is(err, lns.ErrUnsupportedPort) {
			return
		}
		if err != nil {
			log.Println("can't extract uplink:", err)
			return
		}

		fix, err := fieldtest.DecodePayload(up.Payload)
		if err != nil {
			log.Println("can't decode payload:", err)
			return
		}

		sum := fieldtest.Aggregate(fix, up.Gateways)
		if fix.HasFix {
			fmt.Printf(
				"[UPLINK] port=%d fcnt=%d lat=%.7f lng=%.7f alt=%dm hdop=%.1f sats=%d\n",
				up.Port, up.FCnt, fix.Latitude, fix.Longitude, fix.Altitude, fix.HDOP, fix.Satellites,
			)
		} else {
			fmt.Printf(
				"[UPLINK] port=%d fcnt=%d no fix hdop=%.1f sats=%d\n",
				up.Port, up.FCnt, fix.HDOP, fix.Satellites,
			)
		}
		fmt.Printf(
			"[STATS ] gateways=%d rssi=[%d,%d] distance=[%dm,%dm]\n",
			sum.NumGateways, sum.MinRSSI, sum.MaxRSSI, sum.MinDistance, sum.MaxDistance,
		)
	})
	token.Wait()
	if token.Error() != nil {
		log.Fatal(token.Error())
	}
	log.Println("subscribed to", topic)

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Println("shutting down")
	client.Disconnect(250)
}
