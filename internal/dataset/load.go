// Package dataset loads RMA warranty tables from CSV exports and keeps the
// current table available for concurrent readers.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/table"
)

// Supported file extensions.
const (
	ExtCSV     = ".csv"
	ExtCSVZstd = ".csv.zst"
)

var (
	// ErrUnsupportedFormat indicates a file that is neither CSV nor zstd-compressed CSV.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")

	// ErrNoFiles indicates a dataset directory without any CSV file.
	ErrNoFiles = errors.New("no dataset files found")
)

// Load reads a dataset from path. A directory loads every CSV file in it,
// tagging each row with its file name in the Nguồn file column. Time
// columns are derived from the receipt date in both cases.
func Load(path string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: stat %s: %w", path, err)
	}

	var t *table.Table
	if info.IsDir() {
		t, err = LoadDir(path)
	} else {
		t, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	t, err = DeriveTimeColumns(t)
	if err != nil {
		return nil, fmt.Errorf("dataset: derive time columns: %w", err)
	}
	return t, nil
}

// LoadFile reads a single CSV or zstd-compressed CSV file.
func LoadFile(path string) (*table.Table, error) {
	if !isDatasetFile(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ExtCSVZstd) {
		decoder, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataset: create decoder: %w", err)
		}
		defer decoder.Close()
		r = decoder
	}

	t, err := table.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// LoadDir reads every dataset file in dir (not recursive), in name order.
func LoadDir(dir string) (*table.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: read dir %s: %w", dir, err)
	}

	var parts []*table.Table
	for _, e := range entries {
		if e.IsDir() || !isDatasetFile(e.Name()) {
			continue
		}
		t, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		t, err = tagSource(t, e.Name())
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	return table.Concat(parts...), nil
}

// WriteCompressed writes t as zstd-compressed CSV.
func WriteCompressed(w io.Writer, t *table.Table) error {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("dataset: create encoder: %w", err)
	}
	if err := t.WriteCSV(encoder, nil); err != nil {
		_ = encoder.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("dataset: close encoder: %w", err)
	}
	return nil
}

func tagSource(t *table.Table, name string) (*table.Table, error) {
	if slices.Contains(t.Columns(), columns.SourceFile) {
		return t, nil
	}
	return t.AppendColumns([]string{columns.SourceFile}, func(table.Row) []any {
		return []any{name}
	})
}

func isDatasetFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ExtCSV) || strings.HasSuffix(lower, ExtCSVZstd)
}
