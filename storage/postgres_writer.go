package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Aoneken/price-monitor-sub000/models"
)

// PostgresWriter mirrors produced rows into PostgreSQL. Rows are keyed on
// (listing_id, date) and upserted, so reruns converge on the latest state
// while every write is stamped with the run that produced it.
type PostgresWriter struct {
	db    *sql.DB
	runID string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: uuid.NewString()}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_rows (
			listing_id             TEXT NOT NULL,
			date                   DATE NOT NULL,
			available              TEXT NOT NULL DEFAULT '',
			available_for_checkin  TEXT NOT NULL DEFAULT '',
			available_for_checkout TEXT NOT NULL DEFAULT '',
			bookable               TEXT NOT NULL DEFAULT '',
			min_nights             TEXT NOT NULL DEFAULT '',
			max_nights             TEXT NOT NULL DEFAULT '',
			price_per_night        TEXT NOT NULL DEFAULT '',
			price_basis_nights     TEXT NOT NULL DEFAULT '',
			stay_total             TEXT NOT NULL DEFAULT '',
			currency               TEXT NOT NULL DEFAULT '',
			inserted_at            TEXT NOT NULL DEFAULT '',
			notes                  TEXT NOT NULL DEFAULT '',
			run_id                 UUID NOT NULL,
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (listing_id, date)
		);

		CREATE INDEX IF NOT EXISTS idx_price_rows_date   ON price_rows(date);
		CREATE INDEX IF NOT EXISTS idx_price_rows_run_id ON price_rows(run_id);
	`)
	return err
}

// RunID returns the UUID stamped on every row this writer mirrors.
func (pw *PostgresWriter) RunID() string {
	return pw.runID
}

// WriteRows upserts all rows of one listing in batches.
func (pw *PostgresWriter) WriteRows(listingID string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.upsertBatch(listingID, rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(listingID string, batch [][]string) error {
	const cols = 15
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, row := range batch {
		if len(row) != len(models.Columns) {
			return fmt.Errorf("postgres: row for %s has %d cells, want %d",
				listingID, len(row), len(models.Columns))
		}
		base := idx * cols
		placeholders := make([]string, cols)
		for p := 0; p < cols; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs, listingID)
		for _, cell := range row {
			valueArgs = append(valueArgs, cell)
		}
		valueArgs = append(valueArgs, pw.runID)
	}

	query := fmt.Sprintf(`
		INSERT INTO price_rows (
			listing_id, date, available, available_for_checkin, available_for_checkout,
			bookable, min_nights, max_nights, price_per_night, price_basis_nights,
			stay_total, currency, inserted_at, notes, run_id
		)
		VALUES %s
		ON CONFLICT (listing_id, date) DO UPDATE SET
			available              = EXCLUDED.available,
			available_for_checkin  = EXCLUDED.available_for_checkin,
			available_for_checkout = EXCLUDED.available_for_checkout,
			bookable               = EXCLUDED.bookable,
			min_nights             = EXCLUDED.min_nights,
			max_nights             = EXCLUDED.max_nights,
			price_per_night        = EXCLUDED.price_per_night,
			price_basis_nights     = EXCLUDED.price_basis_nights,
			stay_total             = EXCLUDED.stay_total,
			currency               = EXCLUDED.currency,
			inserted_at            = EXCLUDED.inserted_at,
			notes                  = EXCLUDED.notes,
			run_id                 = EXCLUDED.run_id,
			updated_at             = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
