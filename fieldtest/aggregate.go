package fieldtest

import (
	"math"

	"github.com/golang/geo/s2"
)

// Fold identities, also the values reported when no gateway contributes.
const (
	maxDistance = 1000000
	minDistance = 0
	maxRSSI     = 200
	minRSSI     = -200
)

// Gateway is a single gateway reception report attached to an uplink.
// RSSI and Location are optional in every network server envelope.
type Gateway struct {
	RSSI     *int      `json:"rssi"`
	Location *Location `json:"location"`
}

type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Summary aggregates one uplink over every gateway which received it.
// Distances are in meters, truncated.
type Summary struct {
	Fix         Fix
	NumGateways int
	MinRSSI     int
	MaxRSSI     int
	MinDistance int
	MaxDistance int
}

// Aggregate folds the gateway reception reports of one uplink into a
// Summary. Distances are only computed when the device had a GPS fix and
// the gateway reported a complete location. When no gateway contributes
// a value the corresponding bound keeps its fold identity.
func Aggregate(fix Fix, gws []Gateway) Summary {
	sum := Summary{
		Fix:         fix,
		NumGateways: len(gws),
		MinRSSI:     maxRSSI,
		MaxRSSI:     minRSSI,
		MinDistance: minDistance,
		MaxDistance: minDistance,
	}
	if fix.HasFix {
		sum.MinDistance = maxDistance
	}
	for _, gw := range gws {
		sum = fold(sum, gw)
	}
	return sum
}

func fold(sum Summary, gw Gateway) Summary {
	if gw.RSSI != nil {
		sum.MinRSSI = min(sum.MinRSSI, *gw.RSSI)
		sum.MaxRSSI = max(sum.MaxRSSI, *gw.RSSI)
	}

	if !sum.Fix.HasFix || gw.Location == nil || gw.Location.Latitude == nil || gw.Location.Longitude == nil {
		return sum
	}

	d := Distance(
		s2.LatLngFromDegrees(sum.Fix.Latitude, sum.Fix.Longitude),
		s2.LatLngFromDegrees(*gw.Location.Latitude, *gw.Location.Longitude),
	)
	if math.IsNaN(d) {
		return sum
	}

	sum.MinDistance = min(sum.MinDistance, int(d))
	sum.MaxDistance = max(sum.MaxDistance, int(d))
	return sum
}
