package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadOptions configures CSV loading
type LoadOptions struct {
	// HeaderRow is the zero-based line holding the column names. Lines above
	// it are discarded.
	HeaderRow int
}

// LoadCSV reads a CSV document into a Table.
func LoadCSV(r io.Reader, opts LoadOptions) (*Table, error) {
	if opts.HeaderRow < 0 {
		return nil, fmt.Errorf("%w: %d", ErrHeaderRowOutOfRange, opts.HeaderRow)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var lines [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		lines = append(lines, rec)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	if opts.HeaderRow >= len(lines) {
		return nil, fmt.Errorf("%w: header row %d, file has %d rows", ErrHeaderRowOutOfRange, opts.HeaderRow, len(lines))
	}

	return NewTable(lines[opts.HeaderRow], lines[opts.HeaderRow+1:])
}
