package genai

import (
	"fmt"
	"strings"

	"github.com/rmadesk/rma-qa/internal/stringutil"
	"github.com/rmadesk/rma-qa/internal/table"
)

// DefaultPromptMaxRows caps the table excerpt sent to the model.
const DefaultPromptMaxRows = 100

// SystemPrompt frames the model as an RMA data assistant answering in Vietnamese.
const SystemPrompt = "Bạn là một trợ lý dữ liệu chuyên về phân tích bảo hành RMA. " +
	"Trả lời ngắn gọn, dễ hiểu, bằng tiếng Việt, có số liệu cụ thể."

const userPromptTemplate = `
Dưới đây là bảng dữ liệu bảo hành (dưới dạng csv). Hãy phân tích và trả lời câu hỏi bên dưới, có số liệu cụ thể, ngắn gọn và dễ hiểu.
Dữ liệu:
%s

Câu hỏi: %s
`

// PromptOptions tunes BuildPrompt.
type PromptOptions struct {
	// MaxRows caps the excerpt; DefaultPromptMaxRows when not positive.
	MaxRows int
	// MatchedNames are customer names approximately matched in the question.
	MatchedNames []string
}

// BuildPrompt renders the first rows of t as CSV with ASCII snake_case
// headers and wraps it with the question.
func BuildPrompt(t *table.Table, question string, opts PromptOptions) (Prompt, error) {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultPromptMaxRows
	}

	excerpt := t.Head(maxRows)
	columns := excerpt.Columns()
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = stringutil.SnakeASCII(c)
	}

	var csv strings.Builder
	if err := excerpt.WriteCSV(&csv, header); err != nil {
		return Prompt{}, fmt.Errorf("render table excerpt: %w", err)
	}

	var user strings.Builder
	if len(opts.MatchedNames) > 0 {
		fmt.Fprintf(&user, "(Đã dò gần đúng tên khách hàng: %s)\n", strings.Join(opts.MatchedNames, ", "))
	}
	fmt.Fprintf(&user, userPromptTemplate, strings.TrimRight(csv.String(), "\n"), question)

	return Prompt{
		System:      SystemPrompt,
		User:        user.String(),
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}, nil
}
