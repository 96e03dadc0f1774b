// Package engine answers classified RMA questions deterministically. Each
// resolver time-filters the table, optionally narrows it to a customer or
// product, aggregates, and formats a Vietnamese answer. Resolvers never fail:
// missing columns and empty results are reported in the answer text.
package engine

import (
	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/intent"
	"github.com/rmadesk/rma-qa/internal/table"
	"github.com/rmadesk/rma-qa/internal/timefilter"
)

// DefaultTopN is the number of entries in a ranked answer.
const DefaultTopN = 5

// Result is the outcome of answering a question: the rows the answer was
// computed from and the answer text, which is never empty.
type Result struct {
	Intent intent.Intent
	Time   timefilter.Reference
	View   *table.Table
	Text   string
}

// Engine classifies and resolves questions. It holds only read-only
// configuration and is safe for concurrent use.
type Engine struct {
	classifier *intent.Classifier
	aliases    columns.AliasMap
	topN       int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopN sets how many entries ranked answers list. 1 selects the single
// superlative sentence form. Values below 1 are ignored.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.topN = n
		}
	}
}

// WithAliases replaces the column alias map.
func WithAliases(aliases columns.AliasMap) Option {
	return func(e *Engine) {
		if aliases != nil {
			e.aliases = aliases
		}
	}
}

// WithClassifier replaces the question classifier.
func WithClassifier(c *intent.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// New creates an engine with the default rules and aliases.
func New(opts ...Option) *Engine {
	e := &Engine{
		classifier: intent.NewClassifier(intent.DefaultRules()),
		aliases:    columns.DefaultAliases(),
		topN:       DefaultTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aliases returns the alias map the engine resolves columns with.
func (e *Engine) Aliases() columns.AliasMap {
	return e.aliases
}

// Classify returns the intent of question.
func (e *Engine) Classify(question string) intent.Intent {
	return e.classifier.Classify(question)
}

// Answer classifies question and resolves it against t.
func (e *Engine) Answer(t *table.Table, question string) Result {
	return e.Resolve(t, e.Classify(question))
}

// Resolve computes the answer for an already classified intent. An Unknown
// intent returns t untouched with the unrecognized-intent text so the caller
// can fall back to the LLM.
func (e *Engine) Resolve(t *table.Table, in intent.Intent) Result {
	if t == nil {
		t, _ = table.New(nil, nil)
	}
	ref := timefilter.Extract(in.Question)

	switch in.Kind {
	case intent.TopCustomers:
		return e.top(t, in, ref, customerDim, nil)
	case intent.TopProducts:
		return e.top(t, in, ref, productDim, nil)
	case intent.TopTechnicians:
		return e.top(t, in, ref, technicianDim, nil)
	case intent.TopProductsByCustomer:
		return e.top(t, in, ref, productDim, &entityFilter{dim: customerDim, name: in.Customer})
	case intent.TopCustomersByProduct:
		return e.top(t, in, ref, customerDim, &entityFilter{dim: productDim, name: in.Product})
	case intent.CountProducts:
		return e.count(t, in, ref, nil)
	case intent.CountProductsByCustomer:
		return e.count(t, in, ref, &entityFilter{dim: customerDim, name: in.Customer})
	case intent.Unknown:
		return Result{Intent: in, View: t, Text: UnknownIntentText}
	default:
		return Result{Intent: in, View: t, Text: UnknownIntentText}
	}
}

// entityFilter narrows rows to those whose dim column contains name.
type entityFilter struct {
	dim  dimension
	name string
	// shown is the dataset's spelling of name, set by apply.
	shown string
}

// display returns the name as answers show it: the most frequent matching
// cell value when one exists, else the name taken from the question.
func (f *entityFilter) display() string {
	if f.shown != "" {
		return f.shown
	}
	return f.name
}

// apply filters view. A blank name skips the filter; a missing column
// reports the not-found text.
func (f *entityFilter) apply(view *table.Table, aliases columns.AliasMap) (*table.Table, string, bool) {
	if f == nil || f.name == "" {
		return view, "", true
	}
	col, ok := columns.FindFirst(view.Columns(), f.dim.candidates, aliases)
	if !ok {
		return view, f.dim.notFound(), false
	}
	view = view.WhereContains(col, f.name)
	if counts := view.ValueCounts(col); len(counts) > 0 {
		f.shown = counts[0].Value
	}
	return view, "", true
}

func (e *Engine) top(t *table.Table, in intent.Intent, ref timefilter.Reference, dim dimension, filter *entityFilter) Result {
	res := Result{Intent: in, Time: ref}
	view := timefilter.Filter(t, ref, e.aliases)

	view, text, ok := filter.apply(view, e.aliases)
	if !ok {
		res.View, res.Text = view, text
		return res
	}

	col, ok := columns.FindFirst(view.Columns(), dim.candidates, e.aliases)
	if !ok {
		res.View, res.Text = view, dim.notFound()
		return res
	}

	counts := view.ValueCounts(col)
	if len(counts) == 0 {
		res.View, res.Text = view, noDataText(dim, ref, filter)
		return res
	}

	top := counts[:min(e.topN, len(counts))]
	values := make([]string, len(top))
	for i, c := range top {
		values[i] = c.Value
	}
	res.View = view.WhereIn(col, values...)
	if e.topN == 1 {
		res.Text = dim.superlative(top[0])
	} else {
		res.Text = rankedText(dim, top, ref, filter)
	}
	return res
}

func (e *Engine) count(t *table.Table, in intent.Intent, ref timefilter.Reference, filter *entityFilter) Result {
	res := Result{Intent: in, Time: ref}
	view := timefilter.Filter(t, ref, e.aliases)

	view, text, ok := filter.apply(view, e.aliases)
	res.View = view
	if !ok {
		res.Text = text
		return res
	}

	if filter != nil && filter.name != "" {
		res.Text = customerCountText(ref, filter.display(), view.Len())
	} else {
		res.Text = countText(ref, view.Len())
	}
	return res
}
