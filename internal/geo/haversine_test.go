package geo

import (
	"math"
	"testing"

	"github.com/suraksha/alertwatch/internal/models"
)

func TestDistanceKm_IdenticalPoints(t *testing.T) {
	points := []models.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 35.6762, Longitude: 139.6503},
		{Latitude: -90, Longitude: 0},
		{Latitude: 45, Longitude: -180},
	}

	for _, p := range points {
		if d := DistanceKm(p, p); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := models.Coordinate{Latitude: 19.0760, Longitude: 72.8777}  // Mumbai
	b := models.Coordinate{Latitude: 28.6139, Longitude: 77.2090}  // Delhi

	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); d1 != d2 {
		t.Errorf("asymmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceKm_Antipodal(t *testing.T) {
	a := models.Coordinate{Latitude: 0, Longitude: 0}
	b := models.Coordinate{Latitude: 0, Longitude: 180}

	d := DistanceKm(a, b)
	want := math.Pi * earthRadiusKm
	if math.Abs(d-want) > 1 {
		t.Errorf("antipodal distance = %v, want %v +/- 1km", d, want)
	}
	if math.IsNaN(d) {
		t.Error("antipodal distance is NaN")
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Mumbai to Delhi is roughly 1150km great-circle.
	a := models.Coordinate{Latitude: 19.0760, Longitude: 72.8777}
	b := models.Coordinate{Latitude: 28.6139, Longitude: 77.2090}

	d := DistanceKm(a, b)
	if d < 1100 || d > 1200 {
		t.Errorf("Mumbai-Delhi distance = %v, want ~1150km", d)
	}
}

func TestDistanceKm_NonNegative(t *testing.T) {
	pairs := [][2]models.Coordinate{
		{{Latitude: 90, Longitude: 0}, {Latitude: -90, Longitude: 0}},
		{{Latitude: 0.00001, Longitude: 0}, {Latitude: 0, Longitude: 0.00001}},
		{{Latitude: -45.5, Longitude: 170}, {Latitude: 45.5, Longitude: -170}},
	}

	for _, p := range pairs {
		if d := DistanceKm(p[0], p[1]); d < 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want >= 0", p[0], p[1], d)
		}
	}
}
