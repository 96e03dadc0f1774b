package dataset

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/stringutil"
	"github.com/rmadesk/rma-qa/internal/table"
)

// dateLayouts are tried in order. Day-first forms precede the month-first
// fallback since RMA exports are Vietnamese.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006",
	"2.1.2006",
	"2006/1/2",
	"1/2/2006",
	"1/2/2006 15:04:05",
}

// excelEpoch is day zero of spreadsheet serial dates (1900 date system).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial dates outside this range are treated as plain numbers.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// DateColumn returns the receipt-date column: the first column whose
// canonical name contains "ngay" and either "nhan" or "tiep".
func DateColumn(t *table.Table) (string, bool) {
	for _, c := range t.Columns() {
		k := stringutil.Canonicalize(c)
		if strings.Contains(k, "ngay") && (strings.Contains(k, "nhan") || strings.Contains(k, "tiep")) {
			return c, true
		}
	}
	return "", false
}

// DeriveTimeColumns adds Năm, Tháng and Quý columns computed from the
// receipt-date column, replacing any existing columns of those names.
// Unparsable dates yield nil cells. A table without a receipt-date column
// is returned unchanged.
func DeriveTimeColumns(t *table.Table) (*table.Table, error) {
	dateCol, ok := DateColumn(t)
	if !ok {
		return t, nil
	}

	base := t.DropColumns(columns.Year, columns.Month, columns.Quarter)
	pos := slices.Index(base.Columns(), dateCol)

	return base.AppendColumns(
		[]string{columns.Year, columns.Month, columns.Quarter},
		func(row table.Row) []any {
			d, ok := ParseDate(row[pos])
			if !ok {
				return []any{nil, nil, nil}
			}
			return []any{d.Year(), int(d.Month()), (int(d.Month())-1)/3 + 1}
		},
	)
}

// ParseDate interprets a cell as a calendar date. Strings are tried against
// the known layouts, then as spreadsheet serial numbers.
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case int:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	case float64:
		return fromSerial(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f)
		}
	}
	return time.Time{}, false
}

func fromSerial(days float64) (time.Time, bool) {
	if math.IsNaN(days) || days < minExcelSerial || days > maxExcelSerial {
		return time.Time{}, false
	}
	whole := math.Floor(days)
	d := excelEpoch.AddDate(0, 0, int(whole))
	return d.Add(time.Duration((days - whole) * float64(24*time.Hour))), true
}
