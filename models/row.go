package models

import "time"

// Columns is the canonical output column order. Every data row, freshly
// rendered or adopted from a prior file, has exactly these cells.
var Columns = []string{
	"date",
	"available",
	"availableForCheckin",
	"availableForCheckout",
	"bookable",
	"minNights",
	"maxNights",
	"pricePerNight",
	"priceBasisNights",
	"stayTotal",
	"currency",
	"insertedAt",
	"notes",
}

// Indexes into Columns for the cells the engine reads back from prior files.
const (
	ColDate             = 0
	ColPricePerNight    = 7
	ColPriceBasisNights = 8
	ColStayTotal        = 9
	ColInsertedAt       = 11
	ColNotes            = 12
)

// Note kinds folded into the notes column. Quote and calendar HTTP errors
// additionally carry a status code suffix (booking_http_503 etc.).
const (
	NoteNoCalendarData    = "no_calendar_data"
	NoteUnavailable       = "unavailable"
	NoteNotBookable       = "not_bookable"
	NoteNoCheckin         = "no_checkin"
	NoteNoCheckout        = "no_checkout"
	NoteInsufficientRange = "insufficient_range"

	NoteMinstayMissingCalendar    = "minstay_missing_calendar"
	NoteMinstayUnavailableSegment = "minstay_unavailable_segment"
	NoteMinstayNotBookable        = "minstay_not_bookable"
	NoteMinstayCheckoutBlocked    = "minstay_checkout_blocked"

	ErrBookingPriceNotFound = "booking_price_not_found"
	ErrBookingTotalMissing  = "booking_total_missing"
	ErrBookingFailed        = "booking_failed"
)

// ExistingRow is one data row loaded from a prior output file, already
// normalized to the canonical column order. Never mutated.
type ExistingRow struct {
	Row        []string
	InsertedAt *time.Time
}

// RowInfo is the evolving per-date decision record. Created at seeding,
// mutated only by the scheduler/executor path, then read-only to the
// materializer.
type RowInfo struct {
	Date time.Time
	Day  *CalendarDay

	Available   bool
	Bookable    bool
	CanCheckin  bool
	CanCheckout bool
	MinStay     int

	PricePerNight    *float64
	PriceBasisNights *int
	TotalPrice       *float64

	Notes NoteList

	// CachedRow, when set, is emitted verbatim by the materializer and its
	// price fields are never rewritten by the executor.
	CachedRow  []string
	InsertedAt string
}

// NoteList is an ordered set of note strings: append order is preserved,
// re-appending an existing note is a no-op, empty strings are dropped.
type NoteList struct {
	notes []string
	seen  map[string]struct{}
}

// Add appends a note unless it is empty or already present.
func (n *NoteList) Add(note string) {
	if note == "" {
		return
	}
	if n.seen == nil {
		n.seen = make(map[string]struct{})
	}
	if _, dup := n.seen[note]; dup {
		return
	}
	n.seen[note] = struct{}{}
	n.notes = append(n.notes, note)
}

// AddAll appends each note in order, with the same dedup rule.
func (n *NoteList) AddAll(notes []string) {
	for _, note := range notes {
		n.Add(note)
	}
}

// Has reports whether the note was already added.
func (n *NoteList) Has(note string) bool {
	_, ok := n.seen[note]
	return ok
}

// Join renders the notes cell.
func (n *NoteList) Join(sep string) string {
	out := ""
	for i, note := range n.notes {
		if i > 0 {
			out += sep
		}
		out += note
	}
	return out
}
