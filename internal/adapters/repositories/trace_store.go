package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/platform/obs"
)

// ErrTraceNotFound is returned when a session has no recorded samples.
var ErrTraceNotFound = errors.New("trace not found")

// SQLTraceStore records accepted position samples on Postgres.
type SQLTraceStore struct {
	DB *sql.DB
}

func NewSQLTraceStore(db *sql.DB) *SQLTraceStore {
	return &SQLTraceStore{DB: db}
}

func (s *SQLTraceStore) AppendSamples(ctx context.Context, sessionID string, samples []domain.PositionSample) (err error) {
	defer obs.Time(ctx, "trace.append")(&err)
	return appendSamples(ctx, s.DB, `
	INSERT INTO position_trace (session_id, lat, lng, heading, speed, accuracy, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, sessionID, samples)
}

func (s *SQLTraceStore) LoadTrace(ctx context.Context, sessionID string) (_ []domain.PositionSample, err error) {
	defer obs.Time(ctx, "trace.load")(&err)
	return loadTrace(ctx, s.DB, `
	SELECT lat, lng, heading, speed, accuracy, recorded_at
	FROM position_trace
	WHERE session_id = $1
	ORDER BY id;
	`, sessionID)
}

// SqliteTraceStore is the SQLite flavour of SQLTraceStore.
type SqliteTraceStore struct {
	DB *sql.DB
}

func NewSqliteTraceStore(db *sql.DB) *SqliteTraceStore {
	return &SqliteTraceStore{DB: db}
}

func (s *SqliteTraceStore) AppendSamples(ctx context.Context, sessionID string, samples []domain.PositionSample) (err error) {
	defer obs.Time(ctx, "trace.append")(&err)
	return appendSamples(ctx, s.DB, `
	INSERT INTO position_trace (
		session_id,
		lat,
		lng,
		heading,
		speed,
		accuracy,
		recorded_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`, sessionID, samples)
}

func (s *SqliteTraceStore) LoadTrace(ctx context.Context, sessionID string) (_ []domain.PositionSample, err error) {
	defer obs.Time(ctx, "trace.load")(&err)
	return loadTrace(ctx, s.DB, `
	SELECT lat, lng, heading, speed, accuracy, recorded_at
	FROM position_trace
	WHERE session_id = ?
	ORDER BY id;
	`, sessionID)
}

func appendSamples(ctx context.Context, db *sql.DB, q, sessionID string, samples []domain.PositionSample) error {
	if err := checkKey(db, sessionID); err != nil {
		return fmt.Errorf("append trace: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append trace: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("append trace: db prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range samples {
		if _, err := stmt.ExecContext(ctx, sessionID, p.Lat, p.Lng, nullable(p.Heading), nullable(p.Speed), p.Accuracy, p.Timestamp.UnixMilli()); err != nil {
			return fmt.Errorf("append trace session=%q sample #%d: %w", sessionID, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append trace commit: %w", err)
	}
	return nil
}

func loadTrace(ctx context.Context, db *sql.DB, q, sessionID string) ([]domain.PositionSample, error) {
	if err := checkKey(db, sessionID); err != nil {
		return nil, fmt.Errorf("load trace: %w", err)
	}

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load trace: query position_trace table: %w", err)
	}
	defer rows.Close()

	var out []domain.PositionSample
	for rows.Next() {
		var (
			p              domain.PositionSample
			heading, speed sql.NullFloat64
			at             int64
		)
		if err := rows.Scan(&p.Lat, &p.Lng, &heading, &speed, &p.Accuracy, &at); err != nil {
			return nil, fmt.Errorf("load trace: scan row: %w", err)
		}
		if heading.Valid {
			p.Heading = &heading.Float64
		}
		if speed.Valid {
			p.Speed = &speed.Float64
		}
		p.Timestamp = time.UnixMilli(at)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load trace: row iteration: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("load trace session=%q: %w", sessionID, ErrTraceNotFound)
	}
	return out, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

