package assistant

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmadesk/rma-qa/internal/ctxutil"
	"github.com/rmadesk/rma-qa/internal/engine"
	domerrors "github.com/rmadesk/rma-qa/internal/errors"
	"github.com/rmadesk/rma-qa/internal/genai"
	"github.com/rmadesk/rma-qa/internal/intent"
	"github.com/rmadesk/rma-qa/internal/logger"
	"github.com/rmadesk/rma-qa/internal/metrics"
	"github.com/rmadesk/rma-qa/internal/ratelimit"
	"github.com/rmadesk/rma-qa/internal/storage"
	"github.com/rmadesk/rma-qa/internal/table"
)

type staticSource struct {
	t   *table.Table
	err error
}

func (s staticSource) Table() (*table.Table, error) { return s.t, s.err }

type fakeAnswerer struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []genai.Prompt
}

func (f *fakeAnswerer) Answer(_ context.Context, p genai.Prompt) (*genai.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return nil, f.err
	}
	return &genai.Answer{Text: f.text, Provider: genai.ProviderOpenAI, Model: "gpt-test"}, nil
}

func (f *fakeAnswerer) Provider() genai.Provider { return genai.ProviderOpenAI }
func (f *fakeAnswerer) Close() error             { return nil }

func (f *fakeAnswerer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type memoryHistory struct {
	mu      sync.Mutex
	records []storage.QuestionRecord
	err     error
}

func (h *memoryHistory) SaveQuestion(ctx context.Context, rec *storage.QuestionRecord) error {
	if h.err != nil {
		return h.err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *rec)
	return nil
}

func rmaTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		[]string{"Tên khách hàng", "Sản phẩm", "Kỹ thuật viên", "Năm", "Tháng", "Quý"},
		[]table.Row{
			{"Công ty A", "X", "Tuấn", 2024, 1, 1},
			{"Công ty A", "X", "Tuấn", 2024, 2, 1},
			{"Công ty A", "Y", "Minh", 2024, 5, 2},
			{"Công ty A", "Z", "Minh", 2023, 3, 1},
			{"Công ty B", "X", "Minh", 2024, 3, 1},
			{"Công ty B", "Y", "Lan", 2023, 3, 1},
			{"Công ty C", "Y", "Lan", 2023, 3, 1},
		},
	)
	require.NoError(t, err)
	return tbl
}

type fixture struct {
	proc     *Processor
	answerer *fakeAnswerer
	history  *memoryHistory
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, tbl *table.Table, answerer *fakeAnswerer, limiter *ratelimit.KeyedLimiter) fixture {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	h := &memoryHistory{}
	cfg := ProcessorConfig{
		Engine:  engine.New(),
		Source:  staticSource{t: tbl},
		Limiter: limiter,
		History: h,
		Logger:  logger.NewWithWriter("debug", &bytes.Buffer{}),
		Metrics: m,
	}
	if answerer != nil {
		cfg.Answerer = answerer
	}
	return fixture{proc: NewProcessor(cfg), answerer: answerer, history: h, metrics: m}
}

func TestProcessor_EngineAnswer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), &fakeAnswerer{text: "unused"}, nil)

	ctx := ctxutil.WithRequestID(context.Background(), "req-1")
	reply, err := f.proc.Ask(ctx, "  tổng số sản phẩm gửi trong tháng 3 năm 2023 ", "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "req-1", reply.RequestID)
	assert.Equal(t, intent.CountProducts, reply.Intent)
	assert.Equal(t, storage.SourceEngine, reply.Source)
	assert.Equal(t, "Trong tháng 3 năm 2023, đã có tổng cộng 3 sản phẩm được nhận bảo hành.", reply.Answer)
	assert.Equal(t, &Scope{Year: 2023, Month: 3}, reply.Scope)
	assert.Equal(t, 3, reply.RowCount)
	assert.Len(t, reply.Rows, 3)
	assert.Equal(t, "tổng số sản phẩm gửi trong tháng 3 năm 2023", reply.Params[intent.ParamQuestion])
	assert.Zero(t, f.answerer.calls())

	require.Len(t, f.history.records, 1)
	rec := f.history.records[0]
	assert.Equal(t, "count_product", rec.Intent)
	assert.Equal(t, storage.SourceEngine, rec.Source)
	assert.Equal(t, "req-1", rec.RequestID)
	assert.Equal(t, reply.Answer, rec.Answer)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.QuestionsTotal.WithLabelValues("count_product", "engine")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HistoryWritesTotal.WithLabelValues("success")), 0)
}

func TestProcessor_GeneratesRequestID(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), nil, nil)

	reply, err := f.proc.Ask(context.Background(), "khách hàng nào gửi nhiều nhất", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.RequestID)
	assert.Equal(t, intent.TopCustomers, reply.Intent)
}

func TestProcessor_EmptyResultMetric(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), nil, nil)

	reply, err := f.proc.Ask(context.Background(), "khách hàng nào gửi nhiều nhất năm 2019", "")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceEngine, reply.Source)
	assert.Zero(t, reply.RowCount)
	assert.Contains(t, reply.Answer, "Không có dữ liệu")
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ResolverEmptyTotal.WithLabelValues("top_customers")), 0)
}

func TestProcessor_InvalidInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), nil, nil)

	_, err := f.proc.Ask(context.Background(), "   ", "")
	assert.ErrorIs(t, err, domerrors.ErrEmptyQuestion)

	_, err = f.proc.Ask(context.Background(), strings.Repeat("á", MaxQuestionLength+1), "")
	assert.True(t, domerrors.IsInvalidInput(err))

	assert.Empty(t, f.history.records)
}

func TestProcessor_DatasetNotLoaded(t *testing.T) {
	t.Parallel()
	proc := NewProcessor(ProcessorConfig{
		Source: staticSource{err: domerrors.ErrDatasetNotLoaded},
		Logger: logger.NewWithWriter("error", &bytes.Buffer{}),
	})

	_, err := proc.Ask(context.Background(), "khách hàng nào gửi nhiều nhất", "")
	require.Error(t, err)
	assert.True(t, domerrors.IsDatasetNotLoaded(err))
	assert.Equal(t, DatasetUnavailableText, domerrors.GetUserMessage(err))
}

func TestProcessor_EmptyTable(t *testing.T) {
	t.Parallel()
	empty, err := table.New([]string{"Tên khách hàng"}, nil)
	require.NoError(t, err)
	f := newFixture(t, empty, &fakeAnswerer{text: "unused"}, nil)

	reply, err := f.proc.Ask(context.Background(), "khách hàng nào gửi nhiều nhất", "")
	require.NoError(t, err)
	assert.Equal(t, NoDataText, reply.Answer)
	assert.Equal(t, storage.SourceNone, reply.Source)
	assert.Equal(t, intent.Unknown, reply.Intent)
	assert.Zero(t, f.answerer.calls())
}

func TestProcessor_UnknownWithoutFallback(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), nil, nil)
	assert.False(t, f.proc.FallbackEnabled())

	reply, err := f.proc.Ask(context.Background(), "hôm nay thời tiết thế nào?", "")
	require.NoError(t, err)
	assert.Equal(t, intent.Unknown, reply.Intent)
	assert.Equal(t, engine.UnknownIntentText, reply.Answer)
	assert.Equal(t, storage.SourceNone, reply.Source)
	assert.Zero(t, reply.RowCount)
}

func TestProcessor_TypedNilAnswererDisablesFallback(t *testing.T) {
	t.Parallel()
	var fa *genai.FallbackAnswerer
	proc := NewProcessor(ProcessorConfig{Source: staticSource{t: rmaTable(t)}, Answerer: fa})
	assert.False(t, proc.FallbackEnabled())
}

func TestProcessor_LLMFallback(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{text: "  Năm 2024 Công ty B gửi 1 sản phẩm.  "}
	f := newFixture(t, rmaTable(t), a, nil)

	question := "Công ty B có hài lòng với dịch vụ năm 2024 không?"
	reply, err := f.proc.Ask(context.Background(), question, "10.0.0.9")
	require.NoError(t, err)

	assert.Equal(t, intent.Unknown, reply.Intent)
	assert.Equal(t, storage.SourceLLM, reply.Source)
	assert.Equal(t, "Năm 2024 Công ty B gửi 1 sản phẩm.", reply.Answer)
	assert.Equal(t, 4, reply.RowCount, "excerpt narrowed to 2024")
	assert.Equal(t, "openai", reply.Params["provider"])
	assert.Equal(t, "gpt-test", reply.Params["model"])

	require.Equal(t, 1, a.calls())
	prompt := a.prompts[0]
	assert.Equal(t, genai.SystemPrompt, prompt.System)
	assert.True(t, strings.HasPrefix(prompt.User, "(Đã dò gần đúng tên khách hàng: Công ty B)\n"))
	assert.Contains(t, prompt.User, "Câu hỏi: "+question)
	assert.NotContains(t, prompt.User, "2023")

	require.Len(t, f.history.records, 1)
	assert.Equal(t, storage.SourceLLM, f.history.records[0].Source)
	assert.Equal(t, "unknown", f.history.records[0].Intent)
}

func TestProcessor_LLMFailureRendersMessage(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{err: errors.New("openai: quota exceeded (status: 429)")}
	f := newFixture(t, rmaTable(t), a, nil)

	reply, err := f.proc.Ask(context.Background(), "hôm nay thời tiết thế nào?", "")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceLLM, reply.Source)
	assert.Equal(t, LLMErrorPrefix+"openai: quota exceeded (status: 429)", reply.Answer)
}

func TestProcessor_FallbackNarrowedToNothing(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{text: "unused"}
	f := newFixture(t, rmaTable(t), a, nil)

	reply, err := f.proc.Ask(context.Background(), "thời tiết năm 2030 ra sao?", "")
	require.NoError(t, err)
	assert.Equal(t, NoDataText, reply.Answer)
	assert.Zero(t, a.calls())
}

func TestProcessor_RateLimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    ratelimit.KeyedConfig
		expect string
	}{
		{
			name:   "burst exhausted",
			cfg:    ratelimit.KeyedConfig{Name: "llm", Burst: 1, RefillRate: 0.001},
			expect: "Bạn đã hỏi quá nhiều câu",
		},
		{
			name:   "daily cap",
			cfg:    ratelimit.KeyedConfig{Name: "llm", Burst: 10, RefillRate: 1, DailyLimit: 1},
			expect: DailyLimitText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			limiter := ratelimit.NewKeyedLimiter(tt.cfg)
			t.Cleanup(limiter.Stop)
			a := &fakeAnswerer{text: "ok"}
			f := newFixture(t, rmaTable(t), a, limiter)

			first, err := f.proc.Ask(context.Background(), "hôm nay thời tiết thế nào?", "client-1")
			require.NoError(t, err)
			assert.Equal(t, "ok", first.Answer)

			second, err := f.proc.Ask(context.Background(), "hôm nay thời tiết thế nào?", "client-1")
			require.NoError(t, err)
			assert.Contains(t, second.Answer, tt.expect)
			assert.Equal(t, storage.SourceNone, second.Source)
			assert.Equal(t, 1, a.calls())

			other, err := f.proc.Ask(context.Background(), "hôm nay thời tiết thế nào?", "client-2")
			require.NoError(t, err)
			assert.Equal(t, "ok", other.Answer)
		})
	}
}

func TestProcessor_HistoryFailureDoesNotFailAsk(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), nil, nil)
	f.history.err = errors.New("disk full")

	reply, err := f.proc.Ask(context.Background(), "khách hàng nào gửi nhiều nhất", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Answer)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HistoryWritesTotal.WithLabelValues("error")), 0)
}

func TestProcessor_HistorySurvivesCanceledRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t, rmaTable(t), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := f.proc.Ask(ctx, "khách hàng nào gửi nhiều nhất", "")
	require.NoError(t, err)
	assert.Len(t, f.history.records, 1)
}

func TestMatchCustomerNames(t *testing.T) {
	t.Parallel()
	tbl := rmaTable(t)
	aliases := engine.New().Aliases()

	tests := []struct {
		question string
		want     []string
	}{
		{"cong ty b có hài lòng không", []string{"Công ty B"}},
		{"Công ty A và Công ty C thì sao", []string{"Công ty A", "Công ty C"}},
		{"thời tiết thế nào", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, matchCustomerNames(tbl, tt.question, aliases))
		})
	}

	noCustomer, err := table.New([]string{"Sản phẩm"}, []table.Row{{"X"}})
	require.NoError(t, err)
	assert.Nil(t, matchCustomerNames(noCustomer, "Công ty A", aliases))
}

func TestPreview(t *testing.T) {
	t.Parallel()
	cols, rows := preview(rmaTable(t), 2)
	assert.Equal(t, []string{"Tên khách hàng", "Sản phẩm", "Kỹ thuật viên", "Năm", "Tháng", "Quý"}, cols)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Công ty A", "X", "Tuấn", "2024", "1", "1"}, rows[0])
}
