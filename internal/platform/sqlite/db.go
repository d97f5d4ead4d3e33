package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS cards (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    content_id   TEXT NOT NULL,
    content_type TEXT NOT NULL CHECK (content_type IN ('FLASHCARD', 'QUESTION', 'ERROR_NOTEBOOK')),
    state        TEXT NOT NULL CHECK (state IN ('NEW', 'LEARNING', 'REVIEW', 'RELEARNING')),
    step         INTEGER NOT NULL DEFAULT 0,
    due          INTEGER NOT NULL,
    stability    REAL NOT NULL CHECK (stability > 0),
    difficulty   REAL NOT NULL CHECK (difficulty >= 1 AND difficulty <= 10),
    reps         INTEGER NOT NULL DEFAULT 0,
    lapses       INTEGER NOT NULL DEFAULT 0,
    last_review  INTEGER,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,
    UNIQUE (user_id, content_type, content_id)
);

CREATE INDEX IF NOT EXISTS idx_cards_user_due ON cards (user_id, due);

CREATE TABLE IF NOT EXISTS study_preferences (
    user_id     TEXT PRIMARY KEY,
    daily_limit INTEGER CHECK (daily_limit IS NULL OR daily_limit > 0),
    timezone    TEXT NOT NULL DEFAULT 'UTC',
    updated_at  INTEGER NOT NULL
);
`

// Open opens the SQLite database at dsn and applies the schema.
// Use ":memory:" for a private in-memory database.
//
// The pool is limited to one connection: SQLite serialises writers and an
// in-memory database only exists on the connection that created it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}
