package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createQuestionLogTable(ctx, db)
}

func createQuestionLogTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS question_log (
		id TEXT PRIMARY KEY,
		asked_at INTEGER NOT NULL,
		request_id TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL,
		intent TEXT NOT NULL,
		params TEXT NOT NULL DEFAULT '{}',
		source TEXT NOT NULL,
		answer TEXT NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_question_log_asked_at ON question_log(asked_at);
	CREATE INDEX IF NOT EXISTS idx_question_log_intent ON question_log(intent);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create question_log table: %w", err)
	}
	return nil
}
