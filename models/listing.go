package models

import "time"

// Listing identifies one short-term rental unit on the provider.
// Immutable within a run; sourced from the catalog spreadsheet.
type Listing struct {
	ID   string
	Name string
	URL  string
}

// CalendarDay is one day of the provider's availability calendar.
// Pointer fields distinguish "absent from the response" from false/zero.
type CalendarDay struct {
	Available            *bool
	AvailableForCheckin  *bool
	AvailableForCheckout *bool
	Bookable             *bool
	MinNights            *int
	MaxNights            *int
}

// DayMap maps ISO dates (YYYY-MM-DD) to calendar days. Dates the provider
// did not return are simply absent.
type DayMap map[string]*CalendarDay

// PricedBlock is a contiguous run of nights starting at a check-in date,
// quoted in a single request. Blocks emitted by the scheduler never overlap.
type PricedBlock struct {
	Start  time.Time
	Nights int
}

// QuoteResult is the outcome of one booking-quote request. Err is a
// classified error kind ("" on success) and is mutually exclusive with the
// price fields.
type QuoteResult struct {
	PerNight float64
	Total    float64
	Notes    []string
	Err      string
}

// ISODate is the date layout used everywhere: calendar keys, CSV cells,
// catalog output and note payloads.
const ISODate = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD string into a UTC midnight.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse(ISODate, s)
}

// DateOnly truncates t to a UTC midnight so range iteration and map keys
// stay timezone-independent.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange returns every day of the inclusive range [start, end].
func DateRange(start, end time.Time) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
