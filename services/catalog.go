package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/Aoneken/price-monitor-sub000/models"
)

// Catalog column names as they appear in the source spreadsheet.
const (
	catalogNameColumn = "Establecimiento"
	catalogURLColumn  = "Airbnb"
)

// LoadCatalog reads the listing catalog CSV. Rows without an Airbnb URL
// or a parseable listing id are skipped.
func LoadCatalog(path string) ([]models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: %q is empty", path)
	}

	nameIdx, urlIdx := -1, -1
	for i, col := range records[0] {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case catalogNameColumn:
			nameIdx = i
		case catalogURLColumn:
			urlIdx = i
		}
	}
	if nameIdx < 0 || urlIdx < 0 {
		return nil, fmt.Errorf("catalog: %q lacks %s/%s columns",
			path, catalogNameColumn, catalogURLColumn)
	}

	var listings []models.Listing
	for _, record := range records[1:] {
		if nameIdx >= len(record) || urlIdx >= len(record) {
			continue
		}
		url := strings.TrimSpace(record[urlIdx])
		if url == "" {
			continue
		}
		id := ExtractListingID(url)
		if id == "" {
			continue
		}
		listings = append(listings, models.Listing{
			ID:   id,
			Name: strings.TrimSpace(record[nameIdx]),
			URL:  url,
		})
	}
	return listings, nil
}

// ExtractListingID takes the path segment after /rooms/ up to the first
// '?' or '/'. Returns "" when the URL has no such segment.
func ExtractListingID(url string) string {
	const marker = "/rooms/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(marker):]
	if cut := strings.IndexAny(rest, "?/"); cut >= 0 {
		rest = rest[:cut]
	}
	return rest
}
