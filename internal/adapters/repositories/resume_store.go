package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/platform/obs"
)

// SQLResumeStore persists resume checkpoints on Postgres.
type SQLResumeStore struct {
	DB *sql.DB
}

func NewSQLResumeStore(db *sql.DB) *SQLResumeStore {
	return &SQLResumeStore{DB: db}
}

func (s *SQLResumeStore) SaveProgress(ctx context.Context, key string, state domain.ResumeState) (err error) {
	defer obs.Time(ctx, "resume.save")(&err)

	if err := checkKey(s.DB, key); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	q := `
	INSERT INTO resume_state (resume_key, leg, point_index, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (resume_key) DO UPDATE
	SET leg = EXCLUDED.leg,
		point_index = EXCLUDED.point_index,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, state.Leg, state.PointIndex, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("save progress key=%q: %w", key, err)
	}
	return nil
}

func (s *SQLResumeStore) LoadProgress(ctx context.Context, key string) (_ domain.ResumeState, _ bool, err error) {
	defer obs.Time(ctx, "resume.load")(&err)

	if err := checkKey(s.DB, key); err != nil {
		return domain.ResumeState{}, false, fmt.Errorf("load progress: %w", err)
	}
	return scanResume(s.DB.QueryRowContext(ctx, `SELECT leg, point_index FROM resume_state WHERE resume_key = $1;`, key), key)
}

func (s *SQLResumeStore) ClearProgress(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "resume.clear")(&err)

	if err := checkKey(s.DB, key); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM resume_state WHERE resume_key = $1;`, key); err != nil {
		return fmt.Errorf("clear progress key=%q: %w", key, err)
	}
	return nil
}

// SqliteResumeStore is the SQLite flavour of SQLResumeStore.
type SqliteResumeStore struct {
	DB *sql.DB
}

func NewSqliteResumeStore(db *sql.DB) *SqliteResumeStore {
	return &SqliteResumeStore{DB: db}
}

func (s *SqliteResumeStore) SaveProgress(ctx context.Context, key string, state domain.ResumeState) (err error) {
	defer obs.Time(ctx, "resume.save")(&err)

	if err := checkKey(s.DB, key); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	q := `
	INSERT OR REPLACE INTO resume_state (
		resume_key,
		leg,
		point_index,
		updated_at
	)
	VALUES (?, ?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, q, key, state.Leg, state.PointIndex, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("save progress key=%q: %w", key, err)
	}
	return nil
}

func (s *SqliteResumeStore) LoadProgress(ctx context.Context, key string) (_ domain.ResumeState, _ bool, err error) {
	defer obs.Time(ctx, "resume.load")(&err)

	if err := checkKey(s.DB, key); err != nil {
		return domain.ResumeState{}, false, fmt.Errorf("load progress: %w", err)
	}
	return scanResume(s.DB.QueryRowContext(ctx, `SELECT leg, point_index FROM resume_state WHERE resume_key = ?;`, key), key)
}

func (s *SqliteResumeStore) ClearProgress(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "resume.clear")(&err)

	if err := checkKey(s.DB, key); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM resume_state WHERE resume_key = ?;`, key); err != nil {
		return fmt.Errorf("clear progress key=%q: %w", key, err)
	}
	return nil
}

func scanResume(row *sql.Row, key string) (domain.ResumeState, bool, error) {
	var st domain.ResumeState
	err := row.Scan(&st.Leg, &st.PointIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResumeState{}, false, nil
	}
	if err != nil {
		return domain.ResumeState{}, false, fmt.Errorf("load progress key=%q: %w", key, err)
	}
	return st, true, nil
}

func checkKey(db *sql.DB, key string) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key must not be empty")
	}
	return nil
}
