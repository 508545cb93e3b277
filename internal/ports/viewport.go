package ports

import (
	"context"
	"time"

	"turn-guidance-service/internal/domain"
)

// Contract for the moving-map viewport.
type ViewportSink interface {
	// Move the camera. Forced updates jump with a short fly, the rest ease over duration.
	SetCamera(ctx context.Context, target domain.CameraTarget, forced bool, duration time.Duration) error
}

// Contract for clients that display instruction text, ETA and badges.
type StateSink interface {
	PublishState(ctx context.Context, state domain.NavigationState) error
}
