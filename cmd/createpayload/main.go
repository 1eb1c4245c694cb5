package main

import (
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
)

var (
	lat  = flag.Float64("lat", 48.8, "The Latitude")
	lng  = flag.Float64("lng", 2.2, "The Longitude")
	alt  = flag.Int("alt", 100, "The altitude in meters")
	hdop = flag.Float64("hdop", 1.0, "The horizontal dilution of precision")
	sats = flag.Int("sats", 8, "The number of satellites in view")
)

func main() {
	flag.Parse()

	b := fieldtest.EncodePayload(*lat, *lng, *alt, *hdop, *sats)
	fmt.Println("Data", hex.EncodeToString(b))
	fmt.Println("Base64", base64.StdEncoding.EncodeToString(b))
}
