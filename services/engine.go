package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Aoneken/price-monitor-sub000/config"
	"github.com/Aoneken/price-monitor-sub000/models"
	"github.com/Aoneken/price-monitor-sub000/storage"
	"github.com/Aoneken/price-monitor-sub000/utils"
)

// CalendarFetcher retrieves the availability calendar covering a date range.
type CalendarFetcher interface {
	FetchCalendar(ctx context.Context, listingID string, start, end time.Time) (models.DayMap, error)
}

// QuoteFetcher prices one contiguous block of nights.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, listingID string, checkin time.Time, nights int) models.QuoteResult
}

// Provider is the full remote surface the engine needs.
type Provider interface {
	CalendarFetcher
	QuoteFetcher
}

// Engine builds the per-night row dataset for one listing: it seeds row
// state from the calendar and any prior output, schedules minimum-stay
// blocks, prices them concurrently and materializes the final rows.
type Engine struct {
	cfg      *config.Config
	logger   *utils.Logger
	provider Provider

	// Now is the clock; replaced in tests to pin timestamps.
	Now func() time.Time
}

// Result carries everything the writer needs for one processed listing.
type Result struct {
	Listing  models.Listing
	Start    time.Time
	End      time.Time
	Rows     [][]string
	Existing map[string]models.ExistingRow
	RunStart string
	Today    time.Time
}

// NewEngine creates an Engine using the wall clock.
func NewEngine(cfg *config.Config, logger *utils.Logger, provider Provider) *Engine {
	return &Engine{cfg: cfg, logger: logger, provider: provider, Now: time.Now}
}

// OutputPath returns the per-listing CSV path under the configured
// output directory.
func (e *Engine) OutputPath(listing models.Listing) string {
	return filepath.Join(e.cfg.OutputDir, listing.ID+".csv")
}

// ProcessListing runs the full pipeline for one listing. A calendar fetch
// failure aborts the listing with no partial output; everything else is
// folded into row notes.
func (e *Engine) ProcessListing(ctx context.Context, listing models.Listing, start, end time.Time) (*Result, error) {
	daymap, err := e.provider.FetchCalendar(ctx, listing.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", listing.ID, err)
	}
	e.logger.Info("[engine] %s: calendar covers %d days", listing.ID, len(daymap))

	existing, err := storage.LoadExistingRows(e.OutputPath(listing))
	if err != nil {
		e.logger.Warn("[engine] %s: could not load prior output, starting fresh: %v", listing.ID, err)
		existing = map[string]models.ExistingRow{}
	}

	return e.BuildRows(ctx, listing, start, end, daymap, existing), nil
}

// BuildRows is the network-light core: given a calendar map and the prior
// rows it seeds, schedules, prices and materializes. Only quote requests
// touch the network.
func (e *Engine) BuildRows(ctx context.Context, listing models.Listing, start, end time.Time,
	daymap models.DayMap, existing map[string]models.ExistingRow) *Result {

	now := e.Now().UTC()
	runStart := now.Format(time.RFC3339)
	today := models.DateOnly(now)
	dates := models.DateRange(start, end)

	rows := e.seedRows(dates, daymap, existing, now, today)
	blocks := e.scheduleBlocks(dates, rows, daymap)
	e.logger.Info("[engine] %s: %d dates, %d blocks to quote", listing.ID, len(dates), len(blocks))

	e.executeBlocks(ctx, listing.ID, rows, blocks)

	return &Result{
		Listing:  listing,
		Start:    models.DateOnly(start),
		End:      models.DateOnly(end),
		Rows:     e.materialize(rows, runStart),
		Existing: existing,
		RunStart: runStart,
		Today:    today,
	}
}

// seedRows creates one RowInfo per date of the range, adopting prior rows
// that are still fresh (or in the past) as immutable cached rows.
func (e *Engine) seedRows(dates []time.Time, daymap models.DayMap,
	existing map[string]models.ExistingRow, now, today time.Time) []*models.RowInfo {

	rows := make([]*models.RowInfo, 0, len(dates))
	for _, d := range dates {
		iso := d.Format(models.ISODate)
		ri := &models.RowInfo{Date: d, Day: daymap[iso]}
		rows = append(rows, ri)

		ex, hasExisting := existing[iso]
		if hasExisting {
			ri.InsertedAt = ex.Row[models.ColInsertedAt]
		}

		cached := hasExisting && (d.Before(today) ||
			(e.cfg.CacheHours > 0 && ex.InsertedAt != nil &&
				!ex.InsertedAt.Before(now.Add(-time.Duration(e.cfg.CacheHours*float64(time.Hour))))))

		if ri.Day == nil {
			if cached {
				ri.CachedRow = ex.Row
			} else {
				ri.Notes.Add(models.NoteNoCalendarData)
			}
			continue
		}

		ri.MinStay = 1
		if ri.Day.MinNights != nil && *ri.Day.MinNights > 1 {
			ri.MinStay = *ri.Day.MinNights
		}
		ri.Available = boolVal(ri.Day.Available)
		ri.Bookable = boolVal(ri.Day.Bookable)
		ri.CanCheckin = boolVal(ri.Day.AvailableForCheckin)
		ri.CanCheckout = boolVal(ri.Day.AvailableForCheckout)

		if cached {
			// Adopt the prior row and surface its prices so the scheduler
			// can treat the nights as already known.
			ri.CachedRow = ex.Row
			ri.PricePerNight = parseFloatCell(ex.Row[models.ColPricePerNight])
			ri.PriceBasisNights = parseIntCell(ex.Row[models.ColPriceBasisNights])
			ri.TotalPrice = parseFloatCell(ex.Row[models.ColStayTotal])
			continue
		}

		ri.Notes.Add(fmt.Sprintf("min_stay=%d", ri.MinStay))
		if !ri.Available {
			ri.Notes.Add(models.NoteUnavailable)
		}
		if ri.Available && !ri.Bookable {
			ri.Notes.Add(models.NoteNotBookable)
		}
		if ri.Available && ri.Bookable && !ri.CanCheckin {
			ri.Notes.Add(models.NoteNoCheckin)
		}
		if ri.Available && !ri.CanCheckout {
			ri.Notes.Add(models.NoteNoCheckout)
		}
	}
	return rows
}

// materialize renders the final row list. Cached rows pass through
// untouched; everything else is rendered in the canonical column order.
func (e *Engine) materialize(rows []*models.RowInfo, runStart string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, ri := range rows {
		if ri.CachedRow != nil {
			out = append(out, ri.CachedRow)
			continue
		}

		row := make([]string, len(models.Columns))
		row[models.ColDate] = ri.Date.Format(models.ISODate)
		if ri.Day != nil {
			row[1] = renderBool(ri.Day.Available)
			row[2] = renderBool(ri.Day.AvailableForCheckin)
			row[3] = renderBool(ri.Day.AvailableForCheckout)
			row[4] = renderBool(ri.Day.Bookable)
			row[5] = renderInt(ri.Day.MinNights)
			row[6] = renderInt(ri.Day.MaxNights)
		}
		row[models.ColPricePerNight] = renderFloat(ri.PricePerNight)
		row[models.ColPriceBasisNights] = renderInt(ri.PriceBasisNights)
		row[models.ColStayTotal] = renderFloat(ri.TotalPrice)
		row[10] = e.cfg.Currency
		if ri.InsertedAt != "" {
			row[models.ColInsertedAt] = ri.InsertedAt
		} else {
			row[models.ColInsertedAt] = runStart
		}
		row[models.ColNotes] = ri.Notes.Join(";")

		out = append(out, row)
	}
	return out
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

func renderBool(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "True"
	}
	return "False"
}

func renderInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func renderFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *f)
}

func parseFloatCell(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntCell(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
