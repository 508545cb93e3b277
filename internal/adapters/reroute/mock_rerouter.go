package reroute

import (
	"context"
	"errors"
	"sync"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/ports"
)

// MockRerouter returns a fixed route. When Gate is set each call waits for a
// value (or ctx) before answering.
type MockRerouter struct {
	Route *domain.Route
	Err   error
	Gate  chan struct{}

	mu       sync.Mutex
	requests []ports.RerouteRequest
}

func NewMockRerouter(route *domain.Route) *MockRerouter {
	return &MockRerouter{Route: route}
}

func (m *MockRerouter) Reroute(ctx context.Context, req ports.RerouteRequest) (*domain.Route, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Route == nil {
		return nil, errors.New("mock reroute: no route configured")
	}
	return m.Route, nil
}

// Requests returns a copy of the requests received so far.
func (m *MockRerouter) Requests() []ports.RerouteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.RerouteRequest(nil), m.requests...)
}
