package models

import (
	"testing"
	"time"
)

func TestNoteListOrderedDedup(t *testing.T) {
	var n NoteList
	n.Add("min_stay=2")
	n.Add("no_checkin")
	n.Add("min_stay=2")
	n.Add("")
	n.AddAll([]string{"base_fmt=$120.00", "no_checkin"})

	if got := n.Join(";"); got != "min_stay=2;no_checkin;base_fmt=$120.00" {
		t.Errorf("Join: got %q", got)
	}
	if !n.Has("no_checkin") || n.Has("absent") {
		t.Error("Has misreports membership")
	}
}

func TestDateRangeInclusive(t *testing.T) {
	start := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	days := DateRange(start, end)
	if len(days) != 4 {
		t.Fatalf("days: got %d, want 4", len(days))
	}
	if days[0].Format(ISODate) != "2025-12-30" || days[3].Format(ISODate) != "2026-01-02" {
		t.Errorf("bounds: got %s..%s", days[0].Format(ISODate), days[3].Format(ISODate))
	}

	if got := DateRange(end, start); got != nil {
		t.Errorf("inverted range: got %v, want nil", got)
	}

	single := DateRange(start, start)
	if len(single) != 1 {
		t.Errorf("single-day range: got %d days", len(single))
	}
}

func TestDateOnlyNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	d := DateOnly(time.Date(2025, 12, 1, 22, 30, 0, 0, loc))
	if d.Format(ISODate) != "2025-12-02" {
		t.Errorf("DateOnly: got %s, want the UTC date 2025-12-02", d.Format(ISODate))
	}
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Error("DateOnly must return a UTC midnight")
	}
}
