package intent

import (
	"regexp"
	"strings"

	"github.com/rmadesk/rma-qa/internal/stringutil"
)

// Rule priorities (lower runs first). The order is significant: specific
// phrasings must run before general ones that would shadow them.
const (
	PriorityTopProductsSuperlative = 10
	PriorityTopProductsWhich       = 20
	PriorityNamedCustomerProducts  = 25
	PriorityTopCustomers           = 30
	PriorityTopProductsWhat        = 40
	PriorityDefectiveItem          = 50
	PriorityProductKeywords        = 60
	PriorityCustomerProducts       = 70
	PriorityProductCustomers       = 80
	PriorityTechnicians            = 90
	PriorityCountProducts          = 100
)

// Query is the text a rule inspects: the normalized form used for matching
// and the original question carried into the intent.
type Query struct {
	Text     string
	Question string
}

// Rule maps matching questions to an intent.
// Match takes precedence over Pattern when both are set. Build may decline
// by returning false, in which case classification continues with the next
// rule.
type Rule struct {
	Name     string
	Priority int
	Pattern  *regexp.Regexp
	Match    func(text string) bool
	Build    func(q Query) (Intent, bool)
}

func (r Rule) matches(text string) bool {
	if r.Match != nil {
		return r.Match(text)
	}
	return r.Pattern != nil && r.Pattern.MatchString(text)
}

var (
	superlativeProductPattern = regexp.MustCompile(`sản phẩm\s*(?:gì|nào)?\s*nhiều nhất`)
	whichProductPattern       = regexp.MustCompile(`sản phẩm\s*(?:gì|nào).*nhiều`)
	namedProductsPattern      = regexp.MustCompile(`gửi nhiều\s+(?:sản phẩm|mặt hàng|loại)\s*(?:gì|nào)`)
	whatProductPattern        = regexp.MustCompile(`sản phẩm gì nhiều`)
	personPattern             = regexp.MustCompile(`(?:^|\s)(?:ai|khách hàng|khách)(?:\s|$|\?)`)
	leadingSubmitterPattern   = regexp.MustCompile(`^\S+\s+(?:đã\s+)?gửi`)
)

// of builds an intent of a fixed kind without entities.
func of(kind Kind) func(Query) (Intent, bool) {
	return func(q Query) (Intent, bool) {
		return Intent{Kind: kind, Question: q.Question}, true
	}
}

// DefaultRules returns the built-in rule list in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "TopProductsSuperlative",
			Priority: PriorityTopProductsSuperlative,
			Pattern:  superlativeProductPattern,
			Build:    of(TopProducts),
		},
		{
			Name:     "TopProductsWhich",
			Priority: PriorityTopProductsWhich,
			Pattern:  whichProductPattern,
			Build:    of(TopProducts),
		},
		{
			// "khách hàng <NAME> gửi nhiều sản phẩm nào" names the customer
			// and asks for products, so it must not reach TopCustomers.
			Name:     "NamedCustomerProducts",
			Priority: PriorityNamedCustomerProducts,
			Pattern:  namedProductsPattern,
			Build: func(q Query) (Intent, bool) {
				customer, ok := strictCustomer(q.Text)
				if !ok || stringutil.ContainsAny(q.Text, "ktv", "kỹ thuật viên") {
					return Intent{}, false
				}
				return Intent{Kind: TopProductsByCustomer, Question: q.Question, Customer: customer}, true
			},
		},
		{
			Name:     "TopCustomers",
			Priority: PriorityTopCustomers,
			Match: func(text string) bool {
				return strings.Contains(text, "khách") && strings.Contains(text, "gửi nhiều")
			},
			Build: of(TopCustomers),
		},
		{
			Name:     "TopProductsWhat",
			Priority: PriorityTopProductsWhat,
			Pattern:  whatProductPattern,
			Build:    of(TopProducts),
		},
		{
			Name:     "DefectiveItem",
			Priority: PriorityDefectiveItem,
			Match: func(text string) bool {
				return stringutil.ContainsAny(text, "cái gì", "loại gì", "mặt hàng gì", "loại nào") &&
					stringutil.ContainsAny(text, "hư", "lỗi", "gửi")
			},
			Build: of(TopProducts),
		},
		{
			Name:     "ProductKeywords",
			Priority: PriorityProductKeywords,
			Match: func(text string) bool {
				return strings.Contains(text, "sản phẩm") &&
					stringutil.ContainsAny(text, "lỗi nhiều", "gửi nhiều", "nhiều nhất")
			},
			Build: of(TopProducts),
		},
		{
			Name:     "CustomerProducts",
			Priority: PriorityCustomerProducts,
			Match: func(text string) bool {
				return strings.Contains(text, "gửi gì nhiều")
			},
			Build: func(q Query) (Intent, bool) {
				customer, _ := extractCustomer(q.Text)
				return Intent{Kind: TopProductsByCustomer, Question: q.Question, Customer: customer}, true
			},
		},
		{
			Name:     "ProductCustomers",
			Priority: PriorityProductCustomers,
			Match: func(text string) bool {
				return personPattern.MatchString(text) &&
					strings.Contains(text, stringutil.SubmitVerb) &&
					stringutil.ContainsAny(text, "nhiều", "top")
			},
			Build: func(q Query) (Intent, bool) {
				product, ok := extractProduct(q.Text)
				if !ok {
					return Intent{}, false
				}
				return Intent{Kind: TopCustomersByProduct, Question: q.Question, Product: product}, true
			},
		},
		{
			Name:     "Technicians",
			Priority: PriorityTechnicians,
			Match: func(text string) bool {
				return stringutil.ContainsAny(text, "ktv", "kỹ thuật viên")
			},
			Build: of(TopTechnicians),
		},
		{
			Name:     "CountProducts",
			Priority: PriorityCountProducts,
			Match: func(text string) bool {
				return stringutil.ContainsAny(text, "gửi", "đã gửi") &&
					strings.Contains(text, "sản phẩm") &&
					stringutil.ContainsAny(text, "tháng", "quý", "năm")
			},
			Build: func(q Query) (Intent, bool) {
				if strings.Contains(q.Text, "khách hàng") || leadingSubmitterPattern.MatchString(q.Text) {
					customer, _ := extractCustomer(q.Text)
					return Intent{Kind: CountProductsByCustomer, Question: q.Question, Customer: customer}, true
				}
				return Intent{Kind: CountProducts, Question: q.Question}, true
			},
		},
	}
}
