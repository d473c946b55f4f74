package models

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryEarthquake Category = "earthquake"
	CategoryFlood      Category = "flood"
	CategoryWildfire   Category = "wildfire"
	CategoryHurricane  Category = "hurricane"
	CategoryFire       Category = "fire"
	CategoryLandslide  Category = "landslide"
	CategoryOther      Category = "other"
)

// ParseCategory maps free-form input onto a known category, defaulting
// to CategoryOther for anything unrecognized.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryEarthquake:
		return CategoryEarthquake
	case CategoryFlood:
		return CategoryFlood
	case CategoryWildfire:
		return CategoryWildfire
	case CategoryHurricane:
		return CategoryHurricane
	case CategoryFire:
		return CategoryFire
	case CategoryLandslide:
		return CategoryLandslide
	default:
		return CategoryOther
	}
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank gives the total order low < medium < high < critical.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// AlertRecord is a reported or ingested disaster event. Records are
// read-only once created; filter changes re-fetch the whole set rather
// than mutating in place.
type AlertRecord struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	LocationText string      `json:"location"`
	Category     Category    `json:"category"`
	Severity     Severity    `json:"severity"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      *time.Time  `json:"end_time,omitempty"` // nil means ongoing
	Coordinates  *Coordinate `json:"coordinates,omitempty"`
	Description  string      `json:"description"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Ongoing reports whether the alert has not ended as of now.
func (a *AlertRecord) Ongoing(now time.Time) bool {
	return a.EndTime == nil || a.EndTime.After(now)
}

// RankedAlert is an AlertRecord annotated with the distance from the
// user's current location. DistanceKm is nil when either side has no
// known coordinates. Computed per request, never persisted.
type RankedAlert struct {
	AlertRecord
	DistanceKm *float64 `json:"distance_km,omitempty"`
}
