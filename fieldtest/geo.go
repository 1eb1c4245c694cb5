package fieldtest

import (
	"math"

	"github.com/golang/geo/s2"
)

const earthRadiusMeter = 6371000

// Distance returns the great circle distance between p1 and p2 in meters,
// using the spherical law of cosines. It can return NaN for near identical
// points, callers are expected to skip those.
func Distance(p1, p2 s2.LatLng) float64 {
	d := math.Sin(p1.Lat.Radians())*math.Sin(p2.Lat.Radians()) +
		math.Cos(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*
			math.Cos(math.Abs(p1.Lng.Radians()-p2.Lng.Radians()))
	return math.Acos(d) * earthRadiusMeter
}
