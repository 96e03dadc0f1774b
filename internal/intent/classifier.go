package intent

import (
	"slices"

	"github.com/rmadesk/rma-qa/internal/stringutil"
)

// Classifier evaluates rules in priority order and returns the first match.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier copies rules and sorts them by priority. Rules with equal
// priority keep their relative order.
func NewClassifier(rules []Rule) *Classifier {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return a.Priority - b.Priority
	})
	return &Classifier{rules: sorted}
}

// Classify returns the intent of question, or an Unknown intent when no
// rule matches.
func (c *Classifier) Classify(question string) Intent {
	in, _ := c.ClassifyRule(question)
	return in
}

// ClassifyRule is Classify that also reports the name of the rule that
// fired, or "" for Unknown.
func (c *Classifier) ClassifyRule(question string) (Intent, string) {
	q := Query{Text: stringutil.Normalize(question), Question: question}
	for _, rule := range c.rules {
		if !rule.matches(q.Text) || rule.Build == nil {
			continue
		}
		if in, ok := rule.Build(q); ok {
			return in, rule.Name
		}
	}
	return Intent{Kind: Unknown, Question: question}, ""
}

// RuleNames lists rule names in evaluation order.
func (c *Classifier) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}
