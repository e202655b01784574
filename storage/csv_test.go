package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Aoneken/price-monitor-sub000/models"
)

func testRow(date, price, notes string) []string {
	row := make([]string, len(models.Columns))
	row[models.ColDate] = date
	row[1], row[2], row[3], row[4] = "True", "True", "True", "True"
	row[5] = "1"
	row[models.ColPricePerNight] = price
	row[10] = "USD"
	row[models.ColInsertedAt] = "2025-11-01T12:00:00Z"
	row[models.ColNotes] = notes
	return row
}

func testMeta(today time.Time, freezeBefore *time.Time) Meta {
	return Meta{
		Listing: models.Listing{
			ID:   "999",
			Name: "Casa Test",
			URL:  "https://www.airbnb.com/rooms/999",
		},
		Start:        mustDate("2025-11-02"),
		End:          mustDate("2025-11-03"),
		Guests:       2,
		Generated:    "2025-11-01T12:00:00Z",
		CacheHours:   24,
		FreezeBefore: freezeBefore,
		Today:        today,
	}
}

func mustDate(iso string) time.Time {
	d, err := models.ParseISODate(iso)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWriteListingCSVLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "999.csv")
	rows := [][]string{
		testRow("2025-11-02", "80.00", "min_stay=1"),
		testRow("2025-11-03", "85.00", "min_stay=1"),
	}

	if err := WriteListingCSV(path, testMeta(mustDate("2025-11-01"), nil), rows, nil); err != nil {
		t.Fatalf("WriteListingCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")

	wantPrefix := []string{
		"# Listing: Casa Test",
		"# Listing ID: 999",
		"# Listing URL: https://www.airbnb.com/rooms/999",
		"# Period: 2025-11-02 to 2025-11-03",
		"# Guests: 2",
		"# Generated: 2025-11-01T12:00:00Z",
		"# Cache Hours: 24",
		"#",
		strings.Join(models.Columns, ","),
	}
	for i, want := range wantPrefix {
		if lines[i] != want {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want)
		}
	}
	if len(lines) != len(wantPrefix)+3 { // 2 data rows + trailing newline
		t.Errorf("total lines: got %d, want %d", len(lines), len(wantPrefix)+3)
	}
	// Freeze Before is omitted when unset.
	if strings.Contains(string(data), "Freeze Before") {
		t.Error("Freeze Before header should be absent")
	}
}

func TestWriteListingCSVFreezeBeforeHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "999.csv")
	fb := mustDate("2025-10-15")

	if err := WriteListingCSV(path, testMeta(mustDate("2025-11-01"), &fb), nil, nil); err != nil {
		t.Fatalf("WriteListingCSV: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# Freeze Before: 2025-10-15\n") {
		t.Error("Freeze Before header missing")
	}
}

func TestApplyFreezeSubstitutesPast(t *testing.T) {
	prior := testRow("2025-10-30", "42.00", "sentinel")
	existing := map[string]models.ExistingRow{"2025-10-30": {Row: prior}}

	rows := [][]string{
		testRow("2025-10-30", "99.00", "fresh"),
		testRow("2025-11-02", "99.00", "fresh"),
	}

	out := ApplyFreeze(rows, existing, mustDate("2025-11-01"), nil)
	if out[0][models.ColPricePerNight] != "42.00" || out[0][models.ColNotes] != "sentinel" {
		t.Errorf("past row not substituted: %v", out[0])
	}
	if out[1][models.ColPricePerNight] != "99.00" {
		t.Errorf("future row must keep current values: %v", out[1])
	}
}

func TestApplyFreezeUsesEarlierFreezeBefore(t *testing.T) {
	prior := testRow("2025-10-20", "42.00", "sentinel")
	existing := map[string]models.ExistingRow{
		"2025-10-20": {Row: prior},
		"2025-10-25": {Row: testRow("2025-10-25", "41.00", "sentinel2")},
	}

	rows := [][]string{
		testRow("2025-10-20", "99.00", "fresh"),
		testRow("2025-10-25", "99.00", "fresh"),
	}

	fb := mustDate("2025-10-22")
	out := ApplyFreeze(rows, existing, mustDate("2025-11-01"), &fb)
	if out[0][models.ColPricePerNight] != "42.00" {
		t.Errorf("date before freeze-before must be substituted: %v", out[0])
	}
	// 2025-10-25 is before today but not before the earlier cutoff.
	if out[1][models.ColPricePerNight] != "99.00" {
		t.Errorf("date past the cutoff must keep current values: %v", out[1])
	}
}

func TestLoadExistingRowsToleratesDrift(t *testing.T) {
	// Prior file with reordered columns, a column this version does not
	// know, and no stayTotal column at all.
	content := strings.Join([]string{
		"# Listing: Casa Test",
		"# Cache Hours: 24",
		"#",
		"",
		"pricePerNight,date,insertedAt,legacyColumn,notes",
		"80.00,2025-11-02,2025-11-01T12:00:00Z,x,min_stay=1",
		"not-a-price,not-a-date,,y,dropped",
		"85.00,2025-11-03,2025-11-01T11:00:00,z,min_stay=1",
		"",
	}, "\n")

	path := filepath.Join(t.TempDir(), "prior.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	existing, err := LoadExistingRows(path)
	if err != nil {
		t.Fatalf("LoadExistingRows: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("rows: got %d, want 2 (bogus date dropped)", len(existing))
	}

	ex := existing["2025-11-02"]
	if len(ex.Row) != len(models.Columns) {
		t.Fatalf("row width: got %d, want %d", len(ex.Row), len(models.Columns))
	}
	if ex.Row[models.ColPricePerNight] != "80.00" {
		t.Errorf("pricePerNight: got %q", ex.Row[models.ColPricePerNight])
	}
	if ex.Row[models.ColStayTotal] != "" {
		t.Errorf("missing column should become empty, got %q", ex.Row[models.ColStayTotal])
	}
	if ex.InsertedAt == nil || !ex.InsertedAt.Equal(time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("insertedAt: got %v", ex.InsertedAt)
	}

	// Zone-less timestamps from older files still parse.
	if existing["2025-11-03"].InsertedAt == nil {
		t.Error("zone-less insertedAt should parse")
	}
}

func TestLoadExistingRowsMissingFile(t *testing.T) {
	existing, err := LoadExistingRows(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(existing) != 0 {
		t.Errorf("expected empty map, got %d rows", len(existing))
	}
}
