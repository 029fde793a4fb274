package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Point builds an orb point from latitude and longitude in degrees.
func Point(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// Distance returns the great-circle distance in meters between two
// coordinate pairs.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	return geo.DistanceHaversine(Point(lat1, lng1), Point(lat2, lng2))
}

// WithinRadius reports whether the second coordinate pair lies within
// radiusMeters of the first.
func WithinRadius(lat1, lng1, lat2, lng2, radiusMeters float64) bool {
	return Distance(lat1, lng1, lat2, lng2) <= radiusMeters
}
