package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"turn-guidance-service/internal/adapters/reroute"
	"turn-guidance-service/internal/domain"
)

type memoryProgress struct {
	mu      sync.Mutex
	saved   map[string]domain.ResumeState
	cleared int
}

func (m *memoryProgress) SaveProgress(_ context.Context, key string, s domain.ResumeState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string]domain.ResumeState{}
	}
	m.saved[key] = s
	return nil
}

func (m *memoryProgress) LoadProgress(_ context.Context, key string) (domain.ResumeState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[key]
	return s, ok, nil
}

func (m *memoryProgress) ClearProgress(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, key)
	m.cleared++
	return nil
}

type memoryTrace struct {
	mu      sync.Mutex
	samples map[string][]domain.PositionSample
}

func (m *memoryTrace) AppendSamples(_ context.Context, id string, s []domain.PositionSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples == nil {
		m.samples = map[string][]domain.PositionSample{}
	}
	m.samples[id] = append(m.samples[id], s...)
	return nil
}

func runSession(t *testing.T, cfg Config, deps Deps) (*Session, context.CancelFunc, chan error) {
	t.Helper()
	s := NewSession(cfg, Sinks{}, deps)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return s, cancel, errc
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSessionLifecycle(t *testing.T) {
	progress := &memoryProgress{}
	trace := &memoryTrace{}
	s, cancel, errc := runSession(t, DefaultConfig(), Deps{Progress: progress, Trace: trace, ResumeKey: "driver-1"})
	ctx := context.Background()

	if _, err := s.PushPosition(ctx, fix(0, 0, 90, 1)); !errors.Is(err, ErrNotNavigating) {
		t.Fatalf("expected ErrNotNavigating, got %v", err)
	}

	id, err := s.Start(ctx, eastRoute(t, 3, nil, nil), nil)
	if err != nil || id == "" {
		t.Fatalf("Start: id=%q err=%v", id, err)
	}
	ok, err := s.PushPosition(ctx, fix(0, 0.0003, 90, 5))
	if err != nil || !ok {
		t.Fatalf("PushPosition: ok=%v err=%v", ok, err)
	}

	st, err := s.State(ctx)
	if err != nil || !st.IsNavigating || st.SessionID != id {
		t.Fatalf("unexpected state %+v err=%v", st, err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := s.Route(ctx); !errors.Is(err, ErrNotNavigating) {
		t.Fatalf("expected ErrNotNavigating, got %v", err)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	if _, err := s.State(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}

	if _, ok, _ := progress.LoadProgress(ctx, "driver-1"); !ok {
		t.Fatalf("expected a saved checkpoint")
	}
	trace.mu.Lock()
	defer trace.mu.Unlock()
	if len(trace.samples[id]) != 1 {
		t.Fatalf("expected 1 traced sample, got %d", len(trace.samples[id]))
	}
}

func TestSessionAppliesRerouteResult(t *testing.T) {
	next := eastRoute(t, 4, nil, nil)
	rr := reroute.NewMockRerouter(next)
	s, _, _ := runSession(t, DefaultConfig(), Deps{Rerouter: rr})
	ctx := context.Background()

	if _, err := s.Start(ctx, eastRoute(t, 3, nil, nil), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	away := fix(1, 1, 270, 60/3.6)
	away.Accuracy = 10
	if _, err := s.PushPosition(ctx, away); err != nil {
		t.Fatalf("PushPosition: %v", err)
	}

	waitFor(t, "rerouted route", func() bool {
		r, err := s.Route(ctx)
		return err == nil && r == next
	})
	if n := len(rr.Requests()); n != 1 {
		t.Fatalf("expected 1 reroute request, got %d", n)
	}
}

func TestSessionDropsStaleRerouteResult(t *testing.T) {
	rr := reroute.NewMockRerouter(eastRoute(t, 4, nil, nil))
	rr.Gate = make(chan struct{})
	s, _, _ := runSession(t, DefaultConfig(), Deps{Rerouter: rr})
	ctx := context.Background()

	if _, err := s.Start(ctx, eastRoute(t, 3, nil, nil), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	away := fix(1, 1, 270, 60/3.6)
	away.Accuracy = 10
	_, _ = s.PushPosition(ctx, away)
	waitFor(t, "reroute request", func() bool { return len(rr.Requests()) == 1 })

	// a new session invalidates the in-flight request
	second := eastRoute(t, 3, nil, nil)
	if _, err := s.Start(ctx, second, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rr.Gate <- struct{}{}

	time.Sleep(100 * time.Millisecond)
	r, err := s.Route(ctx)
	if err != nil || r != second {
		t.Fatalf("stale reroute replaced the new session's route")
	}
}

func TestSessionSimulationStaysNavigating(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimulationSpeed = 2000
	cfg.FrameInterval = 5 * time.Millisecond
	progress := &memoryProgress{}
	s, _, _ := runSession(t, cfg, Deps{Progress: progress})
	ctx := context.Background()

	route := eastRoute(t, 3, nil, nil)
	if _, err := s.Start(ctx, route, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Simulate(ctx); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if err := s.Simulate(ctx); !errors.Is(err, ErrSimulating) {
		t.Fatalf("expected ErrSimulating, got %v", err)
	}

	waitFor(t, "arrival", func() bool {
		st, err := s.State(ctx)
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		if !st.IsNavigating {
			t.Fatalf("isNavigating went false during the simulation")
		}
		return st.WaitingForContinue
	})

	st, _ := s.State(ctx)
	if st.Position == nil || *st.Position != route.Destination() {
		t.Fatalf("expected to end on the last point, got %+v", st.Position)
	}
	if err := s.Continue(ctx, true); err != nil {
		t.Fatalf("Continue: %v", err)
	}
	st, _ = s.State(ctx)
	if st.IsNavigating {
		t.Fatalf("finishing the final leg should end navigation")
	}
	waitFor(t, "cleared checkpoint", func() bool {
		progress.mu.Lock()
		defer progress.mu.Unlock()
		return progress.cleared == 1
	})
}
