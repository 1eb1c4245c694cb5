package fieldtest

import (
	"errors"
	"math"
)

// ErrMalformedPayload is returned for uplink payloads shorter than PayloadLen.
var ErrMalformedPayload = errors.New("malformed field tester payload")

// PayloadLen is the fixed size of the uplink payload sent by the device.
const PayloadLen = 10

// Fix is the GPS state decoded from one uplink payload. The position
// fields are only set when HasFix is true.
type Fix struct {
	HasFix     bool
	HDOP       float64
	Satellites int
	Latitude   float64 // decimal degrees, positive north
	Longitude  float64 // decimal degrees, positive east
	Altitude   int     // meters above sea level
	Accuracy   float64 // estimated horizontal accuracy in meters
}

// DecodePayload decodes the packed uplink payload produced by the field
// tester firmware. Extra trailing bytes are ignored. The position fields
// stay zero without a fix, the firmware sends whatever its GPS module
// last held.
//
//	Byte | Content
//	0    | bit 7 longitude sign, bit 6 latitude sign, bits 5-0 high bits of latitude
//	1-2  | middle bits of latitude
//	3    | bit 7 low bit of latitude, bits 6-0 high bits of longitude
//	4-5  | low bits of longitude
//	6-7  | altitude in meters offset by 1000, big endian
//	8    | HDOP scaled by 10
//	9    | satellites in view
func DecodePayload(p []byte) (Fix, error) {
	if len(p) < PayloadLen {
		return Fix{}, ErrMalformedPayload
	}

	fix := Fix{
		HDOP:       float64(p[8]) / 10,
		Satellites: int(p[9]),
	}
	fix.HasFix = fix.HDOP <= 2 && fix.Satellites >= 5
	if !fix.HasFix {
		return fix, nil
	}

	latSign, lngSign := 1.0, 1.0
	if p[0]&0x80 != 0 {
		lngSign = -1
	}
	if p[0]&0x40 != 0 {
		latSign = -1
	}

	encLat := uint32(p[0]&0x3f)<<17 | uint32(p[1])<<9 | uint32(p[2])<<1 | uint32(p[3])>>7
	encLng := uint32(p[3]&0x7f)<<16 | uint32(p[4])<<8 | uint32(p[5])

	fix.Latitude = latSign * float64(encLat*108+53) / 1e7
	fix.Longitude = lngSign * float64(encLng*215+107) / 1e7
	fix.Altitude = int(p[6])<<8 + int(p[7]) - 1000
	fix.Accuracy = (fix.HDOP*5 + 5) / 10

	return fix, nil
}

// EncodePayload packs a GPS state into the uplink format understood by
// DecodePayload. Coordinates are quantized, the round trip is accurate to
// about 2e-5 degrees.
func EncodePayload(lat, lng float64, altitude int, hdop float64, sats int) []byte {
	p := make([]byte, PayloadLen)

	if lng < 0 {
		p[0] |= 0x80
		lng = -lng
	}
	if lat < 0 {
		p[0] |= 0x40
		lat = -lat
	}

	encLat := uint32(math.Max(math.Round((lat*1e7-53)/108), 0))
	encLng := uint32(math.Max(math.Round((lng*1e7-107)/215), 0))

	p[0] |= byte(encLat>>17) & 0x3f
	p[1] = byte(encLat >> 9)
	p[2] = byte(encLat >> 1)
	p[3] = byte(encLat&1)<<7 | byte(encLng>>16)&0x7f
	p[4] = byte(encLng >> 8)
	p[5] = byte(encLng)

	alt := altitude + 1000
	p[6] = byte(alt >> 8)
	p[7] = byte(alt)
	p[8] = byte(math.Round(hdop * 10))
	p[9] = byte(sats)

	return p
}
