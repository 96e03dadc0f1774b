// Package columns resolves logical column names ("Tên khách hàng") to the
// actual headers present in a table, tolerating diacritics, casing,
// punctuation and the aliases spreadsheet exports commonly use.
package columns

import (
	"strings"

	"github.com/rmadesk/rma-qa/internal/stringutil"
)

// Logical column names understood by the engine.
const (
	Customer   = "Tên khách hàng"
	Product    = "Sản phẩm"
	Category   = "Nhóm hàng"
	Technician = "Kỹ thuật viên"
	Repaired   = "Đã sửa xong"
	Unrepaired = "Không sửa được"
	Rejected   = "Từ chối bảo hành"
	Fault      = "Tên lỗi"
	Received   = "Ngày tiếp nhận"
	Year       = "Năm"
	Month      = "Tháng"
	Quarter    = "Quý"
	SourceFile = "Nguồn file"
)

// AliasMap maps a logical column name to alternate spellings. It is built
// once at startup and only read afterwards.
type AliasMap map[string][]string

// DefaultAliases returns the built-in alias map.
func DefaultAliases() AliasMap {
	return AliasMap{
		Customer:   {"khach hang", "ten khach", "ten kh", "cty", "cong ty", "ten cong ty"},
		Product:    {"san pham", "ma san pham", "ma hang", "product", "ten sp"},
		Category:   {"nhom hang", "loai hang", "danh muc", "category"},
		Technician: {"ky thuat vien", "ktv", "nhan vien sua", "nguoi sua", "sua chua"},
		Repaired:   {"da sua", "da sua xong", "hoan tat", "xong", "done", "fix ok"},
		Unrepaired: {"khong sua", "khong sua duoc", "that bai", "fail", "khong thanh cong"},
		Rejected:   {"tu choi", "khong bh", "tu choi bh", "bao hanh tu choi"},
		Fault:      {"ten loi", "loi", "mo ta loi", "loi ky thuat", "error"},
		Received:   {"ngay nhan", "ngay tiep nhan", "thoi gian nhan", "ngay bao hanh", "ngay gui"},
		Year:       {"nam", "year"},
		Month:      {"thang", "month"},
		Quarter:    {"quy", "quarter"},
		SourceFile: {"nguon file", "file name", "ten file", "nguon"},
	}
}

// Lookup returns the aliases registered for logical. Keys compare in
// canonical form, so "ten khach hang" finds the entry for "Tên khách hàng".
func (m AliasMap) Lookup(logical string) []string {
	if aliases, ok := m[logical]; ok {
		return aliases
	}
	want := key(logical)
	for name, aliases := range m {
		if key(name) == want {
			return aliases
		}
	}
	return nil
}

// Merge returns a new map holding m's entries with extra's aliases appended.
// Neither input is modified.
func (m AliasMap) Merge(extra AliasMap) AliasMap {
	out := make(AliasMap, len(m)+len(extra))
	for name, aliases := range m {
		out[name] = append([]string(nil), aliases...)
	}
	for name, aliases := range extra {
		target := name
		for existing := range out {
			if key(existing) == key(name) {
				target = existing
				break
			}
		}
		out[target] = append(out[target], aliases...)
	}
	return out
}

// key is the comparison form of a header: canonicalized, with underscores
// read as spaces so snake_case headers ("ten_khach_hang") compare equal.
func key(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(stringutil.Canonicalize(s), "_", " ")), " ")
}

// Find resolves logical against available in three tiers, first match wins:
//  1. an alias of logical equals a column after canonicalization
//  2. logical itself equals a column after canonicalization
//  3. logical is a substring of a canonicalized column
//
// It returns the column as written in available, or "" and false.
func Find(available []string, logical string, aliases AliasMap) (string, bool) {
	want := key(logical)
	if want == "" {
		return "", false
	}
	keys := make([]string, len(available))
	for i, col := range available {
		keys[i] = key(col)
	}

	for _, alias := range aliases.Lookup(logical) {
		a := key(alias)
		for i, k := range keys {
			if a != "" && k == a {
				return available[i], true
			}
		}
	}
	for i, k := range keys {
		if k == want {
			return available[i], true
		}
	}
	for i, k := range keys {
		if strings.Contains(k, want) {
			return available[i], true
		}
	}
	return "", false
}

// FindFirst tries each candidate logical name in order and returns the first
// column found.
func FindFirst(available []string, candidates []string, aliases AliasMap) (string, bool) {
	for _, candidate := range candidates {
		if col, ok := Find(available, candidate, aliases); ok {
			return col, true
		}
	}
	return "", false
}
