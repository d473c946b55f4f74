package geo

import (
	"math"

	"github.com/suraksha/alertwatch/internal/models"
)

const earthRadiusKm = 6371.0

func hsin(theta float64) float64 {
	s := math.Sin(theta / 2)
	return s * s
}

// DistanceKm returns the haversine great-circle distance between a and b
// in kilometers. The result is always >= 0; identical points yield 0 and
// antipodal points approach pi * R.
func DistanceKm(a, b models.Coordinate) float64 {
	la1 := a.Latitude * math.Pi / 180
	lo1 := a.Longitude * math.Pi / 180
	la2 := b.Latitude * math.Pi / 180
	lo2 := b.Longitude * math.Pi / 180

	h := hsin(la2-la1) + math.Cos(la1)*math.Cos(la2)*hsin(lo2-lo1)

	// Floating point can push h a hair past 1 for antipodal inputs,
	// which would make Sqrt(1-h) NaN.
	if h > 1 {
		h = 1
	}

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
