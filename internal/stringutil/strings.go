// Package stringutil provides the text canonicalization shared by every
// matching operation: diacritic folding for column lookup and synonym folding
// for question classification.
package stringutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Canonicalize folds s into the comparison key used for column names and
// aliases: Unicode decomposition, combining marks removed, đ/Đ mapped to d,
// runs of non-word characters replaced by one space, lower-cased and trimmed.
//
// Example:
//
//	Canonicalize("Tên Khách-Hàng ") returns "ten khach hang"
//	Canonicalize("Đã sửa xong")     returns "da sua xong"
func Canonicalize(s string) string {
	if s == "" {
		return ""
	}

	// transform.Chain keeps internal state, so it is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	stripped = strings.NewReplacer("đ", "d", "Đ", "d").Replace(stripped)
	stripped = nonWordPattern.ReplaceAllString(stripped, " ")
	stripped = whitespacePattern.ReplaceAllString(stripped, " ")
	return strings.ToLower(strings.TrimSpace(stripped))
}

// SnakeASCII canonicalizes s and joins its words with underscores,
// e.g. "Ngày tiếp nhận" becomes "ngay_tiep_nhan".
func SnakeASCII(s string) string {
	return strings.ReplaceAll(Canonicalize(s), " ", "_")
}

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsAny reports whether s contains at least one of subs.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
