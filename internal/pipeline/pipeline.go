package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/suraksha/alertwatch/internal/geo"
	"github.com/suraksha/alertwatch/internal/models"
)

// CategoryAll bypasses the category predicate.
const CategoryAll = "all"

// pastThreshold is the fixed staleness cutoff for the "past" tab. It is
// deliberately independent of the MonthsBack window, matching the
// dashboard's historical behavior even where the two conflict.
const pastThreshold = 10 * 24 * time.Hour

type Tab string

const (
	TabOngoing Tab = "ongoing"
	TabPast    Tab = "past"
	TabAll     Tab = "all"
)

func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(s)) {
	case TabOngoing:
		return TabOngoing
	case TabPast:
		return TabPast
	default:
		return TabAll
	}
}

type SortMode string

const (
	SortRecent   SortMode = "recent"
	SortDistance SortMode = "distance"
)

func ParseSortMode(s string) SortMode {
	if SortMode(strings.ToLower(s)) == SortDistance {
		return SortDistance
	}
	return SortRecent
}

// Criteria is the full filter state of the alert dashboard.
type Criteria struct {
	MonthsBack        int
	Category          string // models.Category value or CategoryAll
	LocationSubstring string
	Tab               Tab
}

// Normalize clamps MonthsBack to a positive value and fills zero-value
// fields with their defaults.
func (c Criteria) Normalize() Criteria {
	if c.MonthsBack <= 0 {
		c.MonthsBack = 3
	}
	if c.Category == "" {
		c.Category = CategoryAll
	}
	if c.Tab == "" {
		c.Tab = TabAll
	}
	return c
}

// Pipeline filters and ranks alert sets. It holds no state between
// calls: every invocation recomputes the result from the full input set,
// trading recomputation for guaranteed freshness.
type Pipeline struct {
	now func() time.Time
}

func New() *Pipeline {
	return &Pipeline{now: time.Now}
}

// NewWithClock is for tests that need a fixed notion of "now".
func NewWithClock(now func() time.Time) *Pipeline {
	return &Pipeline{now: now}
}

// Rank applies the filter predicates in order (time window, category,
// location substring, tab), annotates survivors with the distance from
// userLocation when both coordinates are known, and sorts by the
// requested mode. Both sorts are stable; distance sort places alerts
// with no computable distance last in their original relative order.
// Distance sort with a nil userLocation leaves the filtered order
// unchanged.
func (p *Pipeline) Rank(alerts []models.AlertRecord, c Criteria, userLocation *models.Coordinate, mode SortMode) []models.RankedAlert {
	c = c.Normalize()
	now := p.now()
	windowStart := now.AddDate(0, -c.MonthsBack, 0)
	staleCutoff := now.Add(-pastThreshold)
	locNeedle := strings.ToLower(c.LocationSubstring)

	ranked := make([]models.RankedAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.StartTime.Before(windowStart) {
			continue
		}
		if c.Category != CategoryAll && string(a.Category) != c.Category {
			continue
		}
		if locNeedle != "" && !strings.Contains(strings.ToLower(a.LocationText), locNeedle) {
			continue
		}
		switch c.Tab {
		case TabOngoing:
			if !a.Ongoing(now) {
				continue
			}
		case TabPast:
			if !a.StartTime.Before(staleCutoff) {
				continue
			}
		}

		r := models.RankedAlert{AlertRecord: a}
		if userLocation != nil && a.Coordinates != nil {
			d := geo.DistanceKm(*userLocation, *a.Coordinates)
			r.DistanceKm = &d
		}
		ranked = append(ranked, r)
	}

	switch mode {
	case SortDistance:
		if userLocation == nil {
			break // not a valid selection without a location; keep order
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			di, dj := ranked[i].DistanceKm, ranked[j].DistanceKm
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			return *di < *dj
		})
	default:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].StartTime.After(ranked[j].StartTime)
		})
	}

	return ranked
}
