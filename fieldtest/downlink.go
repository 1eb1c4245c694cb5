package fieldtest

import "math"

// Uplink ports understood by the field tester firmware. The reply is
// published on port+1.
const (
	PortCompact  = 1  // 250 m distance resolution, single byte
	PortExtended = 11 // 10 m distance resolution, two bytes
)

// PortSupported reports whether uplinks on this port carry a field tester
// payload.
func PortSupported(port int) bool {
	return port == PortCompact || port == PortExtended
}

// EncodeDownlink encodes a summary into the downlink format matching the
// uplink port. It returns false when the port is not a field tester port.
//
// Port 1, 6 bytes:
//
//	0   | uplink counter modulo 256
//	1-2 | min and max RSSI, offset by 200
//	3-4 | min and max distance in 250 m steps, clamped to [1, 128]
//	5   | number of gateways
//
// Port 11, 8 bytes:
//
//	0   | uplink counter modulo 256
//	1-2 | min and max RSSI, offset by 200
//	3-4 | min distance in 10 m steps, big endian, clamped to [1, 65535]
//	5-6 | max distance, same encoding
//	7   | number of gateways
func EncodeDownlink(sum Summary, port int, seq uint32) ([]byte, bool) {
	switch port {
	case PortCompact:
		var minDist, maxDist int
		if sum.Fix.HasFix {
			minDist = clamp(int(math.Round(float64(sum.MinDistance)/250)), 1, 128)
			maxDist = clamp(int(math.Round(float64(sum.MaxDistance)/250)), 1, 128)
		}
		return []byte{
			byte(seq),
			byte(sum.MinRSSI + 200),
			byte(sum.MaxRSSI + 200),
			byte(minDist),
			byte(maxDist),
			byte(sum.NumGateways),
		}, true

	case PortExtended:
		var minDist, maxDist int
		if sum.Fix.HasFix {
			minDist = clamp(int(math.Round(float64(sum.MinDistance)/10)), 1, 65535)
			maxDist = clamp(int(math.Round(float64(sum.MaxDistance)/10)), 1, 65535)
		}
		return []byte{
			byte(seq),
			byte(sum.MinRSSI + 200),
			byte(sum.MaxRSSI + 200),
			byte(minDist >> 8),
			byte(minDist),
			byte(maxDist >> 8),
			byte(maxDist),
			byte(sum.NumGateways),
		}, true
	}
	return nil, false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
