package ports

import (
	"context"

	"turn-guidance-service/internal/domain"
)

// Contract for a live location source. Run pushes samples until ctx is done
// or the source fails.
type LocationSource interface {
	Run(ctx context.Context, push func(domain.PositionSample)) error
}
