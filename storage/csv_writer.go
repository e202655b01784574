package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aoneken/price-monitor-sub000/models"
)

// Meta is the metadata header block written before the data rows.
type Meta struct {
	Listing      models.Listing
	Start        time.Time
	End          time.Time
	Guests       int
	Generated    string
	CacheHours   float64
	FreezeBefore *time.Time
	Today        time.Time
}

// WriteListingCSV writes one listing's output file: the metadata header,
// the column header and the data rows. Rows dated strictly before
// min(today, freeze-before) that exist in the prior file are substituted
// verbatim from it, so the past stays immutable even if the current run
// produced different values. The file is truncated and rewritten; there
// is no protection against concurrent writers to the same path.
func WriteListingCSV(path string, meta Meta, rows [][]string, existing map[string]models.ExistingRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Listing: %s\n", meta.Listing.Name)
	fmt.Fprintf(f, "# Listing ID: %s\n", meta.Listing.ID)
	fmt.Fprintf(f, "# Listing URL: %s\n", meta.Listing.URL)
	fmt.Fprintf(f, "# Period: %s to %s\n",
		meta.Start.Format(models.ISODate), meta.End.Format(models.ISODate))
	fmt.Fprintf(f, "# Guests: %d\n", meta.Guests)
	fmt.Fprintf(f, "# Generated: %s\n", meta.Generated)
	fmt.Fprintf(f, "# Cache Hours: %g\n", meta.CacheHours)
	if meta.FreezeBefore != nil {
		fmt.Fprintf(f, "# Freeze Before: %s\n", meta.FreezeBefore.Format(models.ISODate))
	}
	fmt.Fprintln(f, "#")

	w := csv.NewWriter(f)
	if err := w.Write(models.Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, row := range ApplyFreeze(rows, existing, meta.Today, meta.FreezeBefore) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}

// ApplyFreeze substitutes the prior row for every output row dated
// strictly before min(today, freezeBefore). freezeBefore defaults to
// today when nil.
func ApplyFreeze(rows [][]string, existing map[string]models.ExistingRow, today time.Time, freezeBefore *time.Time) [][]string {
	cutoff := models.DateOnly(today)
	if freezeBefore != nil && models.DateOnly(*freezeBefore).Before(cutoff) {
		cutoff = models.DateOnly(*freezeBefore)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		final := row
		if date, err := models.ParseISODate(row[models.ColDate]); err == nil && date.Before(cutoff) {
			if ex, ok := existing[row[models.ColDate]]; ok {
				final = ex.Row
			}
		}
		out = append(out, final)
	}
	return out
}
