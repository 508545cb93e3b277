package ports

import (
	"context"

	"turn-guidance-service/internal/domain"
)

// Input for a route recomputation from the vehicle's current position.
type RerouteRequest struct {
	From    domain.Coordinate
	Heading float64
	// Remaining leg ends, in order. The last one is the destination.
	Waypoints []domain.Coordinate
}

// Contract for the external route computation service.
type Rerouter interface {
	// Compute a whole new route triple (path, legs, steps).
	Reroute(ctx context.Context, req RerouteRequest) (*domain.Route, error)
}
