package geoloc

import (
	"math"

	geo "github.com/paulmach/go.geo"
)

// Distance returns the great circle distance in meters between two lon/lat
// points, using the haversine formula.
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	return geo.NewPoint(lon1, lat1).GeoDistanceFrom(geo.NewPoint(lon2, lat2), true)
}

// Bearing returns the initial bearing from the first to the second point,
// in degrees clockwise from north, in [0, 360).
func Bearing(lon1, lat1, lon2, lat2 float64) float64 {
	b := geo.NewPoint(lon1, lat1).BearingTo(geo.NewPoint(lon2, lat2))
	return math.Mod(b+360, 360)
}

// ToLon180 wraps a longitude to [-180, 180).
func ToLon180(lon float64) float64 {
	return lon - 360*math.Floor((lon+180)/360)
}

// ToLon360 wraps a longitude to [0, 360).
func ToLon360(lon float64) float64 {
	return lon - 360*math.Floor(lon/360)
}
