package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Aoneken/price-monitor-sub000/models"
)

// insertedAtLayouts are the timestamp forms accepted in the insertedAt
// column; older files carried zone-less timestamps.
var insertedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// LoadExistingRows parses a prior output file into a date-keyed map of
// rows. Metadata lines and blanks are skipped, columns are matched by
// header name so the loader tolerates drift, and rows whose first cell is
// not an ISO date are dropped. A missing file yields an empty map.
func LoadExistingRows(path string) (map[string]models.ExistingRow, error) {
	existing := make(map[string]models.ExistingRow)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load existing: %w", err)
	}

	var dataLines []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		dataLines = append(dataLines, line)
	}
	if len(dataLines) == 0 {
		return existing, nil
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n")))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load existing: parse csv: %w", err)
	}
	if len(records) == 0 {
		return existing, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}

	for _, record := range records[1:] {
		row := make([]string, len(models.Columns))
		for ci, col := range models.Columns {
			if si, ok := header[col]; ok && si < len(record) {
				row[ci] = record[si]
			}
		}

		if _, err := models.ParseISODate(row[models.ColDate]); err != nil {
			continue
		}

		ex := models.ExistingRow{Row: row}
		if cell := row[models.ColInsertedAt]; cell != "" {
			for _, layout := range insertedAtLayouts {
				if ts, err := time.Parse(layout, cell); err == nil {
					ts := ts
					ex.InsertedAt = &ts
					break
				}
			}
		}
		existing[row[models.ColDate]] = ex
	}

	return existing, nil
}
