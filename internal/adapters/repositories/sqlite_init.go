package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the SQLite tables for resume state and position traces.
func InitSchema(db *sql.DB) error {
	return initSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS resume_state (
		resume_key TEXT PRIMARY KEY,
		leg INTEGER NOT NULL,
		point_index INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS position_trace (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		heading REAL,
		speed REAL,
		accuracy REAL NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_position_trace_session
	ON position_trace(session_id, id);
	`,
	})
}

// InitPostgresSchema creates the same tables on Postgres.
func InitPostgresSchema(db *sql.DB) error {
	return initSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS resume_state (
		resume_key TEXT PRIMARY KEY,
		leg INTEGER NOT NULL,
		point_index INTEGER NOT NULL,
		updated_at BIGINT NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS position_trace (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		heading DOUBLE PRECISION,
		speed DOUBLE PRECISION,
		accuracy DOUBLE PRECISION NOT NULL,
		recorded_at BIGINT NOT NULL
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_position_trace_session
	ON position_trace(session_id, id);
	`,
	})
}

func initSchema(db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
