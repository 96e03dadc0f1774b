// Package assistant answers questions end to end: the rule engine first,
// then the LLM fallback for questions no rule recognizes, with rate
// limiting, metrics and question history around both paths.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/config"
	"github.com/rmadesk/rma-qa/internal/ctxutil"
	"github.com/rmadesk/rma-qa/internal/engine"
	domerrors "github.com/rmadesk/rma-qa/internal/errors"
	"github.com/rmadesk/rma-qa/internal/genai"
	"github.com/rmadesk/rma-qa/internal/intent"
	"github.com/rmadesk/rma-qa/internal/logger"
	"github.com/rmadesk/rma-qa/internal/metrics"
	"github.com/rmadesk/rma-qa/internal/ratelimit"
	"github.com/rmadesk/rma-qa/internal/sentry"
	"github.com/rmadesk/rma-qa/internal/storage"
	"github.com/rmadesk/rma-qa/internal/stringutil"
	"github.com/rmadesk/rma-qa/internal/table"
	"github.com/rmadesk/rma-qa/internal/timefilter"
)

const (
	// MaxQuestionLength bounds a question in characters.
	MaxQuestionLength = 1000

	// DefaultPreviewRows is how many rows of the answer's view are returned.
	DefaultPreviewRows = 20

	// maxMatchedNames caps the customer names passed to the prompt.
	maxMatchedNames = 5
)

// TableSource supplies the current RMA table. dataset.Store implements it.
type TableSource interface {
	Table() (*table.Table, error)
}

// HistoryWriter persists answered questions. storage.DB implements it.
type HistoryWriter interface {
	SaveQuestion(ctx context.Context, rec *storage.QuestionRecord) error
}

// Scope is the time window the engine applied.
type Scope struct {
	Year    int `json:"year,omitempty"`
	Month   int `json:"month,omitempty"`
	Quarter int `json:"quarter,omitempty"`
}

// Reply is the answer to one question.
type Reply struct {
	RequestID  string            `json:"request_id"`
	Question   string            `json:"question"`
	Intent     intent.Kind       `json:"intent"`
	Params     map[string]string `json:"params"`
	Scope      *Scope            `json:"scope,omitempty"`
	Source     string            `json:"source"`
	Answer     string            `json:"answer"`
	RowCount   int               `json:"row_count"`
	Columns    []string          `json:"columns,omitempty"`
	Rows       [][]string        `json:"rows,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// Processor answers questions. It is safe for concurrent use.
type Processor struct {
	engine   *engine.Engine
	source   TableSource
	answerer genai.Answerer
	limiter  *ratelimit.KeyedLimiter
	history  HistoryWriter
	logger   *logger.Logger
	metrics  *metrics.Metrics

	promptMaxRows int
	previewRows   int
	llmTimeout    time.Duration
}

// ProcessorConfig holds configuration for creating a new Processor.
// Engine and Source are required; the rest may be nil.
type ProcessorConfig struct {
	Engine   *engine.Engine
	Source   TableSource
	Answerer genai.Answerer
	Limiter  *ratelimit.KeyedLimiter
	History  HistoryWriter
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	PromptMaxRows int
	PreviewRows   int
	LLMTimeout    time.Duration
}

// NewProcessor creates a new question processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		engine:        cfg.Engine,
		source:        cfg.Source,
		answerer:      cfg.Answerer,
		limiter:       cfg.Limiter,
		history:       cfg.History,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		promptMaxRows: cfg.PromptMaxRows,
		previewRows:   cfg.PreviewRows,
		llmTimeout:    cfg.LLMTimeout,
	}
	if p.engine == nil {
		p.engine = engine.New()
	}
	if p.logger == nil {
		p.logger = logger.New("info")
	}
	if p.promptMaxRows <= 0 {
		p.promptMaxRows = genai.DefaultPromptMaxRows
	}
	if p.previewRows <= 0 {
		p.previewRows = DefaultPreviewRows
	}
	if p.llmTimeout <= 0 {
		p.llmTimeout = config.LLMRequest
	}
	// A typed nil *FallbackAnswerer must not count as configured.
	if fa, ok := p.answerer.(*genai.FallbackAnswerer); ok && fa == nil {
		p.answerer = nil
	}
	return p
}

// FallbackEnabled reports whether unknown questions reach an LLM.
func (p *Processor) FallbackEnabled() bool {
	return p.answerer != nil
}

// Ask answers question for the caller identified by clientKey, which keys
// the LLM rate limit. Errors are returned only for invalid input or a
// missing dataset; every other outcome, LLM failures included, is a Reply.
func (p *Processor) Ask(ctx context.Context, question, clientKey string) (*Reply, error) {
	start := time.Now()

	question = stringutil.CollapseSpace(question)
	if question == "" {
		return nil, domerrors.ErrEmptyQuestion
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return nil, domerrors.NewValidationError("question",
			fmt.Sprintf("must be at most %d characters", MaxQuestionLength))
	}

	requestID, ok := ctxutil.GetRequestID(ctx)
	if !ok || requestID == "" {
		requestID = ctxutil.NewRequestID()
		ctx = ctxutil.WithRequestID(ctx, requestID)
	}
	if clientKey != "" {
		ctx = ctxutil.WithClientKey(ctx, clientKey)
	}

	t, err := p.source.Table()
	if err != nil {
		return nil, domerrors.NewWrapper("assistant", "ask").Wrap(err, DatasetUnavailableText)
	}

	reply := &Reply{
		RequestID: requestID,
		Question:  question,
		Intent:    intent.Unknown,
		Params:    intent.Intent{Question: question}.Params(),
		Source:    storage.SourceNone,
	}

	var view *table.Table
	if t.Len() == 0 {
		reply.Answer = NoDataText
	} else {
		view = p.answer(ctx, t, question, clientKey, reply)
	}

	if view != nil {
		reply.RowCount = view.Len()
		reply.Columns, reply.Rows = preview(view, p.previewRows)
	}
	elapsed := time.Since(start)
	reply.DurationMS = elapsed.Milliseconds()

	p.metrics.RecordQuestion(reply.Intent.String(), reply.Source, elapsed.Seconds())
	p.logger.InfoContext(ctx, "question answered",
		"intent", reply.Intent.String(),
		"source", reply.Source,
		"rows", reply.RowCount,
		"duration_ms", reply.DurationMS)

	p.record(ctx, reply, start)
	return reply, nil
}

// answer fills reply from the engine, or from the LLM when the engine does
// not recognize the question, and returns the view the answer describes.
func (p *Processor) answer(ctx context.Context, t *table.Table, question, clientKey string, reply *Reply) *table.Table {
	res := p.engine.Answer(t, question)
	reply.Intent = res.Intent.Kind
	reply.Params = res.Intent.Params()

	if res.Intent.Kind != intent.Unknown {
		reply.Source = storage.SourceEngine
		reply.Answer = res.Text
		if !res.Time.IsZero() {
			reply.Scope = &Scope{Year: res.Time.Year, Month: res.Time.Month, Quarter: res.Time.Quarter}
		}
		if res.View.Len() == 0 {
			p.metrics.RecordResolverEmpty(res.Intent.Kind.String())
			p.logger.DebugContext(ctx, "resolver found no rows", "intent", res.Intent.Kind.String())
		}
		return res.View
	}

	if p.answerer == nil {
		reply.Answer = res.Text
		return nil
	}
	return p.fallback(ctx, t, question, clientKey, reply)
}

// fallback asks the LLM about a table excerpt narrowed by every time value
// the question mentions.
func (p *Processor) fallback(ctx context.Context, t *table.Table, question, clientKey string, reply *Reply) *table.Table {
	if decision := p.limiter.Allow(clientKey); !decision.Allowed {
		if decision.DailyExhausted {
			reply.Answer = DailyLimitText
		} else {
			wait := int(math.Ceil(decision.RetryAfter.Seconds()))
			reply.Answer = fmt.Sprintf(RateLimitedText, max(wait, 1))
		}
		p.logger.InfoContext(ctx, "LLM fallback rate limited", "daily", decision.DailyExhausted)
		return nil
	}

	aliases := p.engine.Aliases()
	summary := timefilter.FilterSets(t, timefilter.ExtractSets(question), aliases)
	if summary.Len() == 0 {
		reply.Answer = NoDataText
		return summary
	}

	prompt, err := genai.BuildPrompt(summary, question, genai.PromptOptions{
		MaxRows:      p.promptMaxRows,
		MatchedNames: matchCustomerNames(summary, question, aliases),
	})
	if err != nil {
		reply.Answer = LLMErrorPrefix + err.Error()
		reply.Source = storage.SourceLLM
		return summary
	}

	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	reply.Source = storage.SourceLLM
	answer, err := p.answerer.Answer(llmCtx, prompt)
	if err != nil {
		reply.Answer = LLMErrorPrefix + err.Error()
		p.logger.WarnContext(ctx, "LLM fallback failed", "error", err)
		if !errors.Is(err, context.Canceled) {
			sentry.CaptureQuestionError(ctx, err, map[string]string{"component": "llm_fallback"})
		}
		return summary
	}

	reply.Answer = strings.TrimSpace(answer.Text)
	reply.Params["provider"] = string(answer.Provider)
	reply.Params["model"] = answer.Model
	return summary
}

// record stores the reply in the history. The write is detached from the
// request so a client hang-up does not lose it.
func (p *Processor) record(ctx context.Context, reply *Reply, askedAt time.Time) {
	if p.history == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), config.HistoryWrite)
	defer cancel()

	rec := &storage.QuestionRecord{
		AskedAt:    askedAt,
		RequestID:  reply.RequestID,
		Question:   reply.Question,
		Intent:     reply.Intent.String(),
		Params:     reply.Params,
		Source:     reply.Source,
		Answer:     reply.Answer,
		RowCount:   reply.RowCount,
		DurationMS: reply.DurationMS,
	}
	if err := p.history.SaveQuestion(writeCtx, rec); err != nil {
		p.metrics.RecordHistoryWrite("error")
		p.logger.WarnContext(ctx, "failed to save question history", "error", err)
		return
	}
	p.metrics.RecordHistoryWrite("success")
}

// matchCustomerNames returns the distinct customer names of t whose
// canonical form occurs in the question, most frequent first.
func matchCustomerNames(t *table.Table, question string, aliases columns.AliasMap) []string {
	col, ok := columns.Find(t.Columns(), columns.Customer, aliases)
	if !ok {
		return nil
	}
	q := stringutil.Canonicalize(question)
	if q == "" {
		return nil
	}

	var names []string
	for _, c := range t.ValueCounts(col) {
		name := stringutil.Canonicalize(c.Value)
		if name == "" || !strings.Contains(q, name) {
			continue
		}
		names = append(names, c.Value)
		if len(names) == maxMatchedNames {
			break
		}
	}
	return names
}

// preview renders at most n rows of t as text.
func preview(t *table.Table, n int) ([]string, [][]string) {
	cols := t.Columns()
	head := t.Head(n)
	rows := make([][]string, head.Len())
	for i := range rows {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = head.String(i, c)
		}
		rows[i] = row
	}
	return cols, rows
}
