package intent

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/rmadesk/rma-qa/internal/stringutil"
)

var (
	strictCustomerPattern = regexp.MustCompile(`khách hàng\s+(.+?)\s+(?:đã\s+)?gửi`)
	looseCustomerPattern  = regexp.MustCompile(`^(.+?)\s+(?:đã\s+)?gửi`)
	productPattern        = regexp.MustCompile(`gửi\s+(?:sản phẩm\s+)?(.+?)\s*(?:nhiều|trong|ở|vào|\?|$)`)
)

// questionWords are never customer names ("khách hàng nào gửi ...").
var questionWords = []string{"nào", "gì", "ai", "này"}

// productStopWords are words that can follow "gửi" without naming a product.
var productStopWords = []string{"nhiều", "nhất", "gì", "nào", "bao", "tổng", "trong", "ở", "vào", "top"}

// ExtractCustomer returns the customer named in question, trying
// "khách hàng <NAME> gửi" before "<NAME> gửi". Questions about technicians
// never yield a customer.
func ExtractCustomer(question string) (string, bool) {
	return extractCustomer(stringutil.Normalize(question))
}

// ExtractProduct returns the product named after "gửi [sản phẩm]" and
// before "nhiều", "trong", "ở", "vào", "?" or the end of the question.
func ExtractProduct(question string) (string, bool) {
	return extractProduct(stringutil.Normalize(question))
}

func extractCustomer(text string) (string, bool) {
	if stringutil.ContainsAny(text, "ktv", "kỹ thuật viên") {
		return "", false
	}
	if strictCustomerPattern.MatchString(text) {
		return strictCustomer(text)
	}
	if m := looseCustomerPattern.FindStringSubmatch(text); m != nil {
		return customerName(m[1])
	}
	return "", false
}

func strictCustomer(text string) (string, bool) {
	m := strictCustomerPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return customerName(m[1])
}

// customerName rejects captures that end in a question word, such as
// "nào" or "khách nào".
func customerName(raw string) (string, bool) {
	name, ok := cleanName(raw)
	if !ok {
		return "", false
	}
	words := strings.Fields(name)
	if slices.Contains(questionWords, words[len(words)-1]) {
		return "", false
	}
	return name, true
}

func extractProduct(text string) (string, bool) {
	m := productPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name, ok := cleanName(m[1])
	if !ok {
		return "", false
	}
	first, _, _ := strings.Cut(name, " ")
	if slices.Contains(productStopWords, first) {
		return "", false
	}
	return name, true
}

func cleanName(raw string) (string, bool) {
	name := strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return name, name != ""
}
