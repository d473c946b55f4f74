package models

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"earthquake", CategoryEarthquake},
		{"  Flood  ", CategoryFlood},
		{"WILDFIRE", CategoryWildfire},
		{"storm", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeverityRankOrder(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("expected %s < %s", order[i-1], order[i])
		}
	}
	if Severity("bogus").Rank() >= SeverityLow.Rank() {
		t.Error("unknown severity should rank below low")
	}
}

func TestOngoing(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := AlertRecord{StartTime: past}
	if !open.Ongoing(now) {
		t.Error("alert with no end time should be ongoing")
	}

	ended := AlertRecord{StartTime: past.Add(-time.Hour), EndTime: &past}
	if ended.Ongoing(now) {
		t.Error("alert that ended an hour ago should not be ongoing")
	}

	scheduled := AlertRecord{StartTime: past, EndTime: &future}
	if !scheduled.Ongoing(now) {
		t.Error("alert ending in the future should be ongoing")
	}
}
