package pipeline

import (
	"testing"
	"time"

	"github.com/suraksha/alertwatch/internal/models"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testPipeline() *Pipeline {
	return NewWithClock(func() time.Time { return testNow })
}

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func coord(lat, lon float64) *models.Coordinate {
	return &models.Coordinate{Latitude: lat, Longitude: lon}
}

func ids(ranked []models.RankedAlert) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.ID
	}
	return out
}

func TestRank_TimeWindow(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "old", StartTime: daysAgo(45)},
		{ID: "fresh", StartTime: daysAgo(10)},
	}

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 1}, nil, SortRecent)

	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("monthsBack=1 returned %v, want [fresh]", ids(got))
	}
}

func TestRank_CategoryFilter(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "f1", Category: models.CategoryFlood, StartTime: daysAgo(1)},
		{ID: "e1", Category: models.CategoryEarthquake, StartTime: daysAgo(2)},
		{ID: "f2", Category: models.CategoryFlood, StartTime: daysAgo(3)},
	}

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 3, Category: "flood"}, nil, SortRecent)
	if len(got) != 2 {
		t.Fatalf("category=flood returned %v, want 2 floods", ids(got))
	}

	all := testPipeline().Rank(alerts, Criteria{MonthsBack: 3, Category: CategoryAll}, nil, SortRecent)
	if len(all) != 3 {
		t.Errorf("category=all returned %v, want all 3", ids(all))
	}
}

func TestRank_LocationSubstring(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "mum", LocationText: "Mumbai, Maharashtra", StartTime: daysAgo(1)},
		{ID: "del", LocationText: "Delhi NCR", StartTime: daysAgo(1)},
	}

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 1, LocationSubstring: "mumbai"}, nil, SortRecent)
	if len(got) != 1 || got[0].ID != "mum" {
		t.Errorf("location=mumbai returned %v, want [mum]", ids(got))
	}

	// Empty substring matches everything.
	got = testPipeline().Rank(alerts, Criteria{MonthsBack: 1}, nil, SortRecent)
	if len(got) != 2 {
		t.Errorf("empty location filter returned %v, want both", ids(got))
	}
}

func TestRank_Tabs(t *testing.T) {
	ended := daysAgo(14)
	future := testNow.Add(24 * time.Hour)
	alerts := []models.AlertRecord{
		{ID: "ongoing-nil-end", StartTime: daysAgo(3)},
		{ID: "ongoing-future-end", StartTime: daysAgo(20), EndTime: &future},
		{ID: "ended", StartTime: daysAgo(15), EndTime: &ended},
	}
	crit := Criteria{MonthsBack: 12}

	ongoing := testPipeline().Rank(alerts, withTab(crit, TabOngoing), nil, SortRecent)
	if len(ongoing) != 2 {
		t.Errorf("ongoing tab returned %v, want 2", ids(ongoing))
	}
	for _, r := range ongoing {
		if r.ID == "ended" {
			t.Error("ongoing tab included ended alert")
		}
	}

	// "past" uses the fixed 10-day staleness cutoff, not endTime.
	past := testPipeline().Rank(alerts, withTab(crit, TabPast), nil, SortRecent)
	if len(past) != 2 {
		t.Errorf("past tab returned %v, want 2 (started >10d ago)", ids(past))
	}
	for _, r := range past {
		if r.ID == "ongoing-nil-end" {
			t.Error("past tab included 3-day-old alert")
		}
	}

	all := testPipeline().Rank(alerts, withTab(crit, TabAll), nil, SortRecent)
	if len(all) != 3 {
		t.Errorf("all tab returned %v, want 3", ids(all))
	}
}

func withTab(c Criteria, tab Tab) Criteria {
	c.Tab = tab
	return c
}

// The past threshold and the months window are independent: monthsBack=1
// with tab=past keeps only alerts between 10 and ~30 days old.
func TestRank_PastTabInsideMonthsWindow(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "too-fresh", StartTime: daysAgo(5)},
		{ID: "in-band", StartTime: daysAgo(20)},
		{ID: "too-old", StartTime: daysAgo(45)},
	}

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 1, Tab: TabPast}, nil, SortRecent)
	if len(got) != 1 || got[0].ID != "in-band" {
		t.Errorf("monthsBack=1 tab=past returned %v, want [in-band]", ids(got))
	}
}

func TestRank_SortRecent(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "a", StartTime: daysAgo(5), Coordinates: coord(19.1, 72.9)},
		{ID: "b", StartTime: daysAgo(1), Coordinates: coord(20.0, 73.5)},
	}
	user := coord(19.0760, 72.8777)

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 3}, user, SortRecent)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("recent sort returned %v, want [b a]", ids(got))
	}
}

func TestRank_SortDistance(t *testing.T) {
	// a is ~5km from the user but older; b is ~70km away but fresher.
	alerts := []models.AlertRecord{
		{ID: "b", StartTime: daysAgo(1), Coordinates: coord(19.5, 73.3)},
		{ID: "a", StartTime: daysAgo(5), Coordinates: coord(19.1, 72.9)},
	}
	user := coord(19.0760, 72.8777)

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 3}, user, SortDistance)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("distance sort returned %v, want [a b]", ids(got))
	}
	for _, r := range got {
		if r.DistanceKm == nil {
			t.Errorf("alert %s missing distance annotation", r.ID)
		}
	}
}

func TestRank_DistanceSortUnknownLast(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "no-coords-1", StartTime: daysAgo(1)},
		{ID: "far", StartTime: daysAgo(2), Coordinates: coord(28.6, 77.2)},
		{ID: "no-coords-2", StartTime: daysAgo(3)},
		{ID: "near", StartTime: daysAgo(4), Coordinates: coord(19.1, 72.9)},
	}
	user := coord(19.0760, 72.8777)

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 3}, user, SortDistance)
	want := []string{"near", "far", "no-coords-1", "no-coords-2"}
	gotIDs := ids(got)
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("distance sort = %v, want %v", gotIDs, want)
		}
	}
}

func TestRank_DistanceSortWithoutLocation(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "x", StartTime: daysAgo(1), Coordinates: coord(19.1, 72.9)},
		{ID: "y", StartTime: daysAgo(2)},
		{ID: "z", StartTime: daysAgo(3), Coordinates: coord(28.6, 77.2)},
	}

	// Must not panic, and must leave the filtered order unchanged.
	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 3}, nil, SortDistance)
	want := []string{"x", "y", "z"}
	gotIDs := ids(got)
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("distance sort without location = %v, want %v", gotIDs, want)
		}
	}
	for _, r := range got {
		if r.DistanceKm != nil {
			t.Errorf("alert %s has distance without a user location", r.ID)
		}
	}
}

func TestRank_NoDistanceWithoutAlertCoords(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "bare", StartTime: daysAgo(1)},
	}
	user := coord(19.0760, 72.8777)

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 1}, user, SortRecent)
	if len(got) != 1 || got[0].DistanceKm != nil {
		t.Error("distance annotated for alert with no coordinates")
	}
}

func TestRank_NormalizeMonthsBack(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "recent", StartTime: daysAgo(30)},
	}

	// Zero and negative monthsBack fall back to the default window
	// instead of excluding everything.
	for _, months := range []int{0, -2} {
		got := testPipeline().Rank(alerts, Criteria{MonthsBack: months}, nil, SortRecent)
		if len(got) != 1 {
			t.Errorf("monthsBack=%d returned %v, want [recent]", months, ids(got))
		}
	}
}

func TestRank_EndToEnd(t *testing.T) {
	alerts := []models.AlertRecord{
		{ID: "crit", Severity: models.SeverityCritical, StartTime: daysAgo(2)},
		{ID: "low", Severity: models.SeverityLow, StartTime: daysAgo(40)},
	}

	got := testPipeline().Rank(alerts, Criteria{MonthsBack: 1, Category: CategoryAll, Tab: TabAll}, nil, SortRecent)
	if len(got) != 1 || got[0].ID != "crit" {
		t.Errorf("end-to-end returned %v, want [crit]", ids(got))
	}
}
