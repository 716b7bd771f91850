// Package geo decides whether a provider's declared coverage policy reaches
// a geographic target, and computes the distances the ranking engine sorts
// by.
//
// Distance model: great-circle (haversine) over a spherical Earth with mean
// radius 6371.0088 km. Provider coordinates and zone reference points are
// both WGS84 lon/lat, matching the geography columns of the backing store,
// so the model stays consistent between the two sides of every comparison.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// earthRadiusKM is the IUGG mean Earth radius.
const earthRadiusKM = 6371.0088

// HaversineKM returns the great-circle distance in kilometers between two
// WGS84 points.
func HaversineKM(a, b *geom.Point) float64 {
	lat1 := a.Y() * math.Pi / 180
	lat2 := b.Y() * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Point builds a WGS84 point from a longitude and latitude pair.
func Point(lng, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat})
}
