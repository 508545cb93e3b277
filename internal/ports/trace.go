package ports

import (
	"context"

	"turn-guidance-service/internal/domain"
)

// Receives batches of accepted real position samples.
type TraceRecorder interface {
	AppendSamples(ctx context.Context, sessionID string, samples []domain.PositionSample) error
}

// Port: a boundary for recorded position traces.
type TraceStore interface {
	TraceRecorder
	// Return the samples of a session in timestamp order.
	LoadTrace(ctx context.Context, sessionID string) ([]domain.PositionSample, error)
}
