// Package parsers reads the raw input and master CSV tables into typed
// records. Rows are positional per the input contract; any malformed row
// aborts the parse so a run never computes over partially-read data.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
)

// readRows consumes a CSV stream, discards the header row and returns the
// data rows. table names the source for error messages.
func readRows(r io.Reader, table string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // column counts are checked per table

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: missing header row", table)
		}
		return nil, fmt.Errorf("%s: failed to read CSV header: %w", table, err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CSV records: %w", table, err)
	}
	return rows, nil
}

// rowError annotates a row-level parse failure with its position. Data rows
// start at line 2, after the header.
func rowError(table string, idx int, err error) error {
	return fmt.Errorf("%s: line %d: %w", table, idx+2, err)
}

func columnCountError(table string, idx, got, want int) error {
	return rowError(table, idx, fmt.Errorf("expected %d columns, got %d", want, got))
}
