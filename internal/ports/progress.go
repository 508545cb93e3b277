package ports

import (
	"context"

	"turn-guidance-service/internal/domain"
)

// Receives resume checkpoints while a session runs.
type ProgressRecorder interface {
	SaveProgress(ctx context.Context, key string, state domain.ResumeState) error
}

// Port: a boundary for persisted resume state.
type ResumeStore interface {
	ProgressRecorder
	// Return the saved state for key. ok is false when nothing was saved.
	LoadProgress(ctx context.Context, key string) (state domain.ResumeState, ok bool, err error)
	ClearProgress(ctx context.Context, key string) error
}
