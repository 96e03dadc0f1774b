package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader indicates a CSV source without a header record.
var ErrNoHeader = errors.New("csv has no header row")

// ReadCSV parses a CSV document with a header row into a table of string
// cells. Empty cells are stored as nil so they behave as missing values.
// A leading UTF-8 byte order mark, common in spreadsheet exports, is dropped,
// and blank or repeated header names are replaced by generated ones.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = uniqueHeader(header)

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", len(rows)+2, err)
		}
		row := make(Row, len(header))
		for i := range header {
			if i < len(record) && strings.TrimSpace(record[i]) != "" {
				row[i] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return New(header, rows)
}

// uniqueHeader trims header names and renames the ones a spreadsheet export
// leaves unusable. A blank name becomes "Unnamed: <index>" and a repeated
// name gets a ".<n>" suffix, so "Model,Model" reads as "Model,Model.1".
func uniqueHeader(raw []string) []string {
	header := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		header[i] = strings.TrimSpace(name)
		seen[header[i]]++
	}

	used := make(map[string]bool, len(header))
	next := make(map[string]int)
	for i, name := range header {
		switch {
		case name == "":
			name = fmt.Sprintf("Unnamed: %d", i)
		case used[name]:
			base := name
			for used[name] || (seen[name] > 0 && name != base) {
				next[base]++
				name = fmt.Sprintf("%s.%d", base, next[base])
			}
		}
		for used[name] {
			name += "_"
		}
		used[name] = true
		header[i] = name
	}
	return header
}

// WriteCSV writes the table as CSV. When header is non-nil it replaces the
// column names in the first record and must have one entry per column.
func (t *Table) WriteCSV(w io.Writer, header []string) error {
	if header == nil {
		header = t.columns
	}
	if len(header) != len(t.columns) {
		return fmt.Errorf("%w: header has %d names, want %d", ErrRowWidth, len(header), len(t.columns))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, cell := range row {
			record[i] = CellString(cell)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
