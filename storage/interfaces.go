package storage

// RowSink is the interface any mirror backend must satisfy. The CSV file
// stays the system of record; sinks receive the final, freeze-adjusted
// rows per listing.
type RowSink interface {
	WriteRows(listingID string, rows [][]string) error
	Close() error
}
