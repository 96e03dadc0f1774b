// Package timefilter extracts year, month and quarter references from a
// question and narrows a table to the matching rows.
//
// Two extraction strategies coexist. Extract is strict and used by the
// question engine: it only reads "năm NNNN", "tháng N" and "quý N". ExtractSets
// is loose and used when preparing LLM context: it collects every 20NN token
// and every month and quarter mentioned.
package timefilter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/stringutil"
	"github.com/rmadesk/rma-qa/internal/table"
)

var (
	strictYearPattern = regexp.MustCompile(`năm\s*(\d{4})\b`)
	looseYearPattern  = regexp.MustCompile(`\b(20\d{2})\b`)
	monthPattern      = regexp.MustCompile(`tháng\s*(\d{1,2})\b`)
	quarterPattern    = regexp.MustCompile(`quý\s*(\d+|[ivx]+)\b`)
)

var romanQuarters = map[string]int{"i": 1, "ii": 2, "iii": 3, "iv": 4}

// Reference is an optional (year, month, quarter) triple. A zero field means
// no constraint on that axis.
type Reference struct {
	Year    int
	Month   int
	Quarter int
}

// IsZero reports whether no axis is constrained.
func (r Reference) IsZero() bool {
	return r.Year == 0 && r.Month == 0 && r.Quarter == 0
}

// HasYear reports whether a year was extracted.
func (r Reference) HasYear() bool { return r.Year != 0 }

// HasMonth reports whether a month was extracted.
func (r Reference) HasMonth() bool { return r.Month != 0 }

// HasQuarter reports whether a quarter was extracted.
func (r Reference) HasQuarter() bool { return r.Quarter != 0 }

// Describe renders the reference as a Vietnamese time phrase such as
// "tháng 3 năm 2023" or "quý 2". It returns "" for a zero reference.
func (r Reference) Describe() string {
	var parts []string
	if r.HasMonth() {
		parts = append(parts, fmt.Sprintf("tháng %d", r.Month))
	}
	if r.HasQuarter() {
		parts = append(parts, fmt.Sprintf("quý %d", r.Quarter))
	}
	if r.HasYear() {
		parts = append(parts, fmt.Sprintf("năm %d", r.Year))
	}
	return strings.Join(parts, " ")
}

// Extract reads the first "năm YYYY" and the first valid "tháng N" and
// "quý N" of question. Months outside 1..12 and quarters outside 1..4 are
// skipped.
//
// Example:
//
//	Extract("năm 2024 tháng 5 quý II") returns Reference{Year: 2024, Month: 5, Quarter: 2}
func Extract(question string) Reference {
	text := stringutil.FoldCase(question)

	var ref Reference
	if m := strictYearPattern.FindStringSubmatch(text); m != nil {
		ref.Year, _ = strconv.Atoi(m[1])
	}
	ref.Month = firstValid(monthPattern, text, parseMonth)
	ref.Quarter = firstValid(quarterPattern, text, parseQuarter)
	return ref
}

// firstValid parses each match of pattern in order and returns the first
// non-zero value, so "quý vừa rồi ... quý 2" still reads quarter 2.
func firstValid(pattern *regexp.Regexp, text string, parse func(string) int) int {
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if v := parse(m[1]); v != 0 {
			return v
		}
	}
	return 0
}

// Sets holds every time value a question mentions.
type Sets struct {
	Years    []int
	Months   []int
	Quarters []int
}

// IsZero reports whether no value was found on any axis.
func (s Sets) IsZero() bool {
	return len(s.Years) == 0 && len(s.Months) == 0 && len(s.Quarters) == 0
}

// ExtractSets collects every 20NN year token anywhere in question plus every
// valid "tháng N" and "quý N", in order of appearance.
func ExtractSets(question string) Sets {
	text := stringutil.FoldCase(question)

	var s Sets
	for _, m := range looseYearPattern.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		s.Years = append(s.Years, year)
	}
	for _, m := range monthPattern.FindAllStringSubmatch(text, -1) {
		if month := parseMonth(m[1]); month != 0 {
			s.Months = append(s.Months, month)
		}
	}
	for _, m := range quarterPattern.FindAllStringSubmatch(text, -1) {
		if quarter := parseQuarter(m[1]); quarter != 0 {
			s.Quarters = append(s.Quarters, quarter)
		}
	}
	return s
}

func parseMonth(token string) int {
	month, err := strconv.Atoi(token)
	if err != nil || month < 1 || month > 12 {
		return 0
	}
	return month
}

func parseQuarter(token string) int {
	if q, ok := romanQuarters[token]; ok {
		return q
	}
	q, err := strconv.Atoi(token)
	if err != nil || q < 1 || q > 4 {
		return 0
	}
	return q
}

// Filter keeps the rows matching every axis present in ref. The year, month
// and quarter columns are resolved through aliases; an axis whose column the
// table lacks is skipped.
func Filter(t *table.Table, ref Reference, aliases columns.AliasMap) *table.Table {
	return FilterSets(t, Sets{
		Years:    optional(ref.Year),
		Months:   optional(ref.Month),
		Quarters: optional(ref.Quarter),
	}, aliases)
}

// FilterSets keeps the rows whose year, month and quarter are members of the
// corresponding non-empty set. Axes combine with AND.
func FilterSets(t *table.Table, s Sets, aliases columns.AliasMap) *table.Table {
	available := t.Columns()
	axes := []struct {
		logical string
		values  []int
	}{
		{columns.Year, s.Years},
		{columns.Month, s.Months},
		{columns.Quarter, s.Quarters},
	}

	out := t
	for _, axis := range axes {
		if len(axis.values) == 0 {
			continue
		}
		col, ok := columns.Find(available, axis.logical, aliases)
		if !ok {
			continue
		}
		out = out.WhereInt(col, axis.values...)
	}
	return out
}

func optional(v int) []int {
	if v == 0 {
		return nil
	}
	return []int{v}
}
