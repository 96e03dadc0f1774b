package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domerrors "github.com/rmadesk/rma-qa/internal/errors"
)

// MaxHistoryLimit caps list queries.
const MaxHistoryLimit = 500

// QuestionRepository defines the question history operations.
type QuestionRepository interface {
	SaveQuestion(ctx context.Context, rec *QuestionRecord) error
	RecentQuestions(ctx context.Context, filter HistoryFilter) ([]QuestionRecord, error)
	IntentStats(ctx context.Context, since time.Time) ([]IntentStat, error)
	PruneQuestions(ctx context.Context, before time.Time) (int64, error)
}

var _ QuestionRepository = (*DB)(nil)

// HistoryFilter narrows RecentQuestions.
type HistoryFilter struct {
	Limit  int
	Intent string
	// Search matches question text as a plain substring.
	Search string
}

// SaveQuestion stores rec. A missing ID or timestamp is filled in.
func (db *DB) SaveQuestion(ctx context.Context, rec *QuestionRecord) error {
	if rec == nil || strings.TrimSpace(rec.Question) == "" {
		return domerrors.NewValidationError("question", "must not be empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AskedAt.IsZero() {
		rec.AskedAt = time.Now()
	}

	params := "{}"
	if len(rec.Params) > 0 {
		data, err := json.Marshal(rec.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		params = string(data)
	}

	query := `
		INSERT INTO question_log
			(id, asked_at, request_id, question, intent, params, source, answer, row_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	_, err := db.writer.ExecContext(ctx, query,
		rec.ID, rec.AskedAt.UnixMilli(), rec.RequestID, rec.Question, rec.Intent,
		params, rec.Source, rec.Answer, rec.RowCount, rec.DurationMS)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save question",
			"id", rec.ID,
			"error", err)
		return fmt.Errorf("failed to save question: %w", err)
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveQuestion",
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

// RecentQuestions lists questions newest first.
func (db *DB) RecentQuestions(ctx context.Context, filter HistoryFilter) ([]QuestionRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var (
		where []string
		args  []any
	)
	if filter.Intent != "" {
		where = append(where, "intent = ?")
		args = append(args, filter.Intent)
	}
	if filter.Search != "" {
		where = append(where, `question LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query := `SELECT id, asked_at, request_id, question, intent, params, source, answer, row_count, duration_ms
		FROM question_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY asked_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []QuestionRecord
	for rows.Next() {
		rec, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return out, nil
}

func scanQuestion(rows *sql.Rows) (QuestionRecord, error) {
	var (
		rec     QuestionRecord
		askedAt int64
		params  string
	)
	if err := rows.Scan(&rec.ID, &askedAt, &rec.RequestID, &rec.Question, &rec.Intent,
		&params, &rec.Source, &rec.Answer, &rec.RowCount, &rec.DurationMS); err != nil {
		return rec, fmt.Errorf("failed to scan question: %w", err)
	}
	rec.AskedAt = time.UnixMilli(askedAt)
	if params != "" && params != "{}" {
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return rec, fmt.Errorf("failed to decode params of %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// IntentStats counts questions per intent asked at or after since, most
// frequent first. A zero since counts everything.
func (db *DB) IntentStats(ctx context.Context, since time.Time) ([]IntentStat, error) {
	var sinceMS int64
	if !since.IsZero() {
		sinceMS = since.UnixMilli()
	}

	query := `
		SELECT intent, COUNT(*), MAX(asked_at)
		FROM question_log
		WHERE asked_at >= ?
		GROUP BY intent
		ORDER BY COUNT(*) DESC, intent ASC
	`
	rows, err := db.reader.QueryContext(ctx, query, sinceMS)
	if err != nil {
		return nil, fmt.Errorf("failed to query intent stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []IntentStat
	for rows.Next() {
		var (
			stat IntentStat
			last int64
		)
		if err := rows.Scan(&stat.Intent, &stat.Count, &last); err != nil {
			return nil, fmt.Errorf("failed to scan intent stat: %w", err)
		}
		stat.LastAsked = time.UnixMilli(last)
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intent stats: %w", err)
	}
	return out, nil
}

// PruneQuestions deletes questions asked before the cutoff and returns how
// many were removed.
func (db *DB) PruneQuestions(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.writer.ExecContext(ctx, `DELETE FROM question_log WHERE asked_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned questions: %w", err)
	}
	return n, nil
}

// escapeLike escapes SQLite LIKE wildcards so user text matches literally.
// The query must declare ESCAPE '\'.
func escapeLike(term string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		"%", `\%`,
		"_", `\_`,
	).Replace(term)
}
