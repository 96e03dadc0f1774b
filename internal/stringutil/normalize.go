package stringutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SubmitVerb is the canonical verb every "customer sent a product in for
// warranty" phrasing is folded to by Normalize.
const SubmitVerb = "gửi"

type synonym struct {
	from []string
	to   string
}

// submitSynonyms lists word sequences folded to SubmitVerb.
// Longer sequences come first so "gửi bảo hành" folds as one unit.
var submitSynonyms = []synonym{
	{from: []string{"tiếp", "nhận", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"đem", "đi", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"mang", "đi", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"gửi", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"gởi", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"đem", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"mang", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"nhận", "bảo", "hành"}, to: SubmitVerb},
	{from: []string{"tiếp", "nhận"}, to: SubmitVerb},
	{from: []string{"bảo", "hành"}, to: SubmitVerb},
	{from: []string{"gởi"}, to: SubmitVerb},
	{from: []string{"nộp"}, to: SubmitVerb},
	{from: []string{"nhận"}, to: SubmitVerb},
}

// Normalize prepares a question for rule matching. The text is composed to
// NFC, lower-cased, whitespace-collapsed, and every submission verb variant
// is folded to SubmitVerb. Diacritics are kept since the rules match
// accented Vietnamese.
//
// Example:
//
//	Normalize("Khách hàng nào GỞI bảo hành nhiều nhất?") returns "khách hàng nào gửi nhiều nhất?"
func Normalize(text string) string {
	fields := strings.Fields(FoldCase(text))
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); {
		if folded, n, ok := foldAt(fields, i); ok {
			out = append(out, folded)
			i += n
			continue
		}
		out = append(out, fields[i])
		i++
	}
	return strings.Join(out, " ")
}

// FoldCase composes s to NFC and lower-cases it, so accented Vietnamese
// compares equal whether it was typed precomposed or with combining marks.
func FoldCase(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// foldAt tries every synonym at fields[i]. Trailing punctuation on the last
// word ("gởi?") is carried over to the folded token.
func foldAt(fields []string, i int) (string, int, bool) {
	for _, syn := range submitSynonyms {
		if i+len(syn.from) > len(fields) {
			continue
		}
		last := len(syn.from) - 1
		suffix := ""
		matched := true
		for j, word := range syn.from {
			tok := fields[i+j]
			if j < last {
				if tok != word {
					matched = false
					break
				}
				continue
			}
			rest, ok := strings.CutPrefix(tok, word)
			if !ok || strings.TrimFunc(rest, unicode.IsPunct) != "" {
				matched = false
				break
			}
			suffix = rest
		}
		if matched {
			return syn.to + suffix, len(syn.from), true
		}
	}
	return "", 0, false
}
