package storage

import "time"

// Answer sources recorded with each question.
const (
	SourceEngine = "engine"
	SourceLLM    = "llm"
	SourceNone   = "none"
)

// QuestionRecord is one answered question.
type QuestionRecord struct {
	ID         string            `json:"id"`
	AskedAt    time.Time         `json:"asked_at"`
	RequestID  string            `json:"request_id,omitempty"`
	Question   string            `json:"question"`
	Intent     string            `json:"intent"`
	Params     map[string]string `json:"params"`
	Source     string            `json:"source"`
	Answer     string            `json:"answer"`
	RowCount   int               `json:"row_count"`
	DurationMS int64             `json:"duration_ms"`
}

// IntentStat aggregates questions per intent.
type IntentStat struct {
	Intent    string    `json:"intent"`
	Count     int       `json:"count"`
	LastAsked time.Time `json:"last_asked"`
}
