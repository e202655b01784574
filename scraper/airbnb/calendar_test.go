package airbnb

import "testing"

func TestFlattenCalendar(t *testing.T) {
	body := `{"data":{"merlin":{"pdpAvailabilityCalendar":{"calendarMonths":[
		{"days":[
			{"calendarDate":"2025-12-01","available":true,"availableForCheckin":true,
			 "availableForCheckout":false,"bookable":true,"minNights":2,"maxNights":28},
			{"calendarDate":"2025-12-02","available":false},
			{"available":true}
		]},
		{"days":[
			{"calendarDate":"2026-01-01","bookable":false}
		]}
	]}}}}`

	daymap, err := FlattenCalendar([]byte(body))
	if err != nil {
		t.Fatalf("FlattenCalendar: %v", err)
	}

	if len(daymap) != 3 {
		t.Fatalf("days: got %d, want 3 (day without calendarDate dropped)", len(daymap))
	}

	d1 := daymap["2025-12-01"]
	if d1 == nil {
		t.Fatal("2025-12-01 missing")
	}
	if d1.Available == nil || !*d1.Available {
		t.Error("2025-12-01 available should be true")
	}
	if d1.AvailableForCheckout == nil || *d1.AvailableForCheckout {
		t.Error("2025-12-01 availableForCheckout should be false")
	}
	if d1.MinNights == nil || *d1.MinNights != 2 {
		t.Error("2025-12-01 minNights should be 2")
	}
	if d1.MaxNights == nil || *d1.MaxNights != 28 {
		t.Error("2025-12-01 maxNights should be 28")
	}

	d2 := daymap["2025-12-02"]
	if d2 == nil {
		t.Fatal("2025-12-02 missing")
	}
	if d2.Available == nil || *d2.Available {
		t.Error("2025-12-02 available should be false")
	}
	// Fields the provider omitted stay absent, not false.
	if d2.Bookable != nil || d2.MinNights != nil {
		t.Error("2025-12-02 omitted fields should stay nil")
	}

	if daymap["2026-01-01"] == nil {
		t.Error("second month day missing")
	}
}

func TestFlattenCalendarBadJSON(t *testing.T) {
	if _, err := FlattenCalendar([]byte("<html>not json</html>")); err == nil {
		t.Error("expected error for non-JSON body")
	}
}
