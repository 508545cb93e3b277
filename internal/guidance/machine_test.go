package guidance

import (
	"strings"
	"testing"

	"turn-guidance-service/internal/domain"
)

// straightRoute returns an eastbound path along the equator with n vertices
// spaced 0.001 degrees (~111m) apart.
func straightRoute(t *testing.T, n int, legs []domain.RouteLeg, steps []domain.NavigationStep) *domain.Route {
	t.Helper()
	path := make(domain.RoutePath, n)
	for i := range path {
		path[i] = domain.Coordinate{Lat: 0, Lng: float64(i) * 0.001}
	}
	r, err := domain.NewRoute(path, legs, steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestScenarioArrivalAtSlowSpeed(t *testing.T) {
	route := straightRoute(t, 3, nil, nil)
	m := New(DefaultConfig())
	m.Start(route, 0)

	const speed = 10 / 3.6
	end := route.Destination()
	completions := 0

	for lng := 0.0; lng <= 0.0025; lng += 0.000025 {
		pos := domain.Coordinate{Lat: 0, Lng: lng}
		events := m.EvaluateLegProgress(pos, speed)
		if n := countKind(events, EventLegComplete); n > 0 {
			completions += n
			if d := (end.Lng - lng) * 111320; d >= 45 {
				t.Fatalf("leg completed %.1fm before the end, want < 45m", d)
			}
		}
	}

	if completions != 1 {
		t.Fatalf("leg completions = %d, want 1", completions)
	}
	if !m.WaitingForContinue() {
		t.Fatal("expected machine to wait for continue")
	}
	if m.LastFinishedLeg() != 0 {
		t.Fatalf("lastFinishedLeg = %d, want 0", m.LastFinishedLeg())
	}
}

func TestArrivalSpeedLimits(t *testing.T) {
	tests := []struct {
		name      string
		legs      []domain.RouteLeg
		speedKmh  float64
		wantFired bool
	}{
		{name: "final leg too fast", legs: nil, speedKmh: 40, wantFired: false},
		{name: "final leg near stop", legs: nil, speedKmh: 20, wantFired: true},
		{name: "intermediate leg at highway speed", legs: []domain.RouteLeg{{StartIndex: 0, EndIndex: 2}, {StartIndex: 2, EndIndex: 4}}, speedKmh: 80, wantFired: true},
		{name: "intermediate leg too fast", legs: []domain.RouteLeg{{StartIndex: 0, EndIndex: 2}, {StartIndex: 2, EndIndex: 4}}, speedKmh: 90, wantFired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := straightRoute(t, 5, tt.legs, nil)
			m := New(DefaultConfig())
			m.Start(route, 0)

			end := route.LegEnd(0)
			pos := domain.Coordinate{Lat: 0, Lng: end.Lng - 0.0001} // ~11m short
			events := m.EvaluateLegProgress(pos, tt.speedKmh/3.6)
			if got := countKind(events, EventLegComplete) == 1; got != tt.wantFired {
				t.Fatalf("fired = %v, want %v (events %+v)", got, tt.wantFired, events)
			}
		})
	}
}

func TestOvershootDetection(t *testing.T) {
	route := straightRoute(t, 3, nil, nil)
	m := New(DefaultConfig())
	m.Start(route, 0)

	const speed = 50 / 3.6
	var overshoot *Event
	var spoken []string
	for lng := 0.0015; lng <= 0.003; lng += 0.0001 {
		for _, e := range m.EvaluateLegProgress(domain.Coordinate{Lat: 0, Lng: lng}, speed) {
			e := e
			if e.Kind == EventLegComplete {
				overshoot = &e
			}
			if e.Kind == EventSpeak {
				spoken = append(spoken, e.Text)
			}
		}
	}

	if overshoot == nil || !overshoot.Overshoot {
		t.Fatalf("expected an overshoot completion, got %+v", overshoot)
	}
	if len(spoken) != 1 || !strings.Contains(spoken[0], "passed your destination by") {
		t.Fatalf("spoken = %q, want one overshoot message", spoken)
	}
	if m.MinDistanceToLegEnd() >= 40 {
		t.Fatalf("minDistanceToLegEnd = %v, want < 40", m.MinDistanceToLegEnd())
	}
}

func TestSideHint(t *testing.T) {
	route := straightRoute(t, 3, nil, nil)
	m := New(DefaultConfig())
	m.Start(route, 0)

	events := m.EvaluateLegProgress(domain.Coordinate{Lat: 0.0002, Lng: 0.0018}, 0)
	var got Event
	for _, e := range events {
		if e.Kind == EventLegComplete {
			got = e
		}
	}
	if got.Side != SideRight {
		t.Fatalf("side = %v, want right", got.Side)
	}
}

func TestWaitingForContinueBlocksEverything(t *testing.T) {
	steps := []domain.NavigationStep{
		{Instruction: "Head east", Distance: 222, StartIndex: 0, EndIndex: 2},
		{Instruction: "Turn left", Distance: 222, StartIndex: 2, EndIndex: 4, Maneuver: domain.Maneuver{Type: "turn", Modifier: "left", Location: domain.Coordinate{Lat: 0, Lng: 0.002}}},
		{Instruction: "Turn right", Distance: 111, StartIndex: 4, EndIndex: 5, Maneuver: domain.Maneuver{Type: "turn", Modifier: "right", Location: domain.Coordinate{Lat: 0, Lng: 0.004}}},
	}
	route := straightRoute(t, 6, []domain.RouteLeg{{StartIndex: 0, EndIndex: 1}, {StartIndex: 1, EndIndex: 5}}, steps)
	m := New(DefaultConfig())
	m.Start(route, 0)

	events := m.EvaluateVoiceGuidance(domain.Coordinate{Lat: 0, Lng: 0.001}, 1, 0)
	if countKind(events, EventLegComplete) != 1 {
		t.Fatalf("expected leg 0 to complete, got %+v", events)
	}

	for lng := 0.0; lng <= 0.005; lng += 0.00005 {
		idx := int(lng / 0.001)
		if evs := m.EvaluateVoiceGuidance(domain.Coordinate{Lat: 0, Lng: lng}, idx, 5); len(evs) != 0 {
			t.Fatalf("events while awaiting continue at lng=%v: %+v", lng, evs)
		}
	}
	if m.ActiveLeg() != 0 {
		t.Fatalf("activeLeg advanced to %d while waiting", m.ActiveLeg())
	}

	if res := m.Continue(); res != ContinueAdvanced {
		t.Fatalf("Continue = %v, want ContinueAdvanced", res)
	}
	if m.ActiveLeg() != 1 || m.WaitingForContinue() {
		t.Fatalf("after continue: leg=%d waiting=%v", m.ActiveLeg(), m.WaitingForContinue())
	}
	if m.MinDistanceToLegEnd() < 1e300 {
		t.Fatalf("minDistanceToLegEnd not reset on leg change: %v", m.MinDistanceToLegEnd())
	}
	if res := m.Continue(); res != ContinueIgnored {
		t.Fatalf("second Continue = %v, want ContinueIgnored", res)
	}
}

func TestContinueAfterFinalLegFinishes(t *testing.T) {
	route := straightRoute(t, 3, nil, nil)
	m := New(DefaultConfig())
	m.Start(route, 0)
	m.EvaluateLegProgress(route.Destination(), 0)

	if res := m.Continue(); res != ContinueFinished {
		t.Fatalf("Continue = %v, want ContinueFinished", res)
	}
	if m.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want idle", m.Phase())
	}
}

func TestResetOutOfRangeLegFallsBackToZero(t *testing.T) {
	route := straightRoute(t, 3, nil, nil)
	m := New(DefaultConfig())
	m.Start(route, 7)
	if m.ActiveLeg() != 0 || m.Phase() != PhaseGuiding {
		t.Fatalf("leg=%d phase=%v, want leg 0 guiding", m.ActiveLeg(), m.Phase())
	}
}

func TestEvaluateWithoutRouteIsNoop(t *testing.T) {
	m := New(DefaultConfig())
	if evs := m.EvaluateVoiceGuidance(domain.Coordinate{}, 0, 10); len(evs) != 0 {
		t.Fatalf("events without route: %+v", evs)
	}
	if eta, rem := m.EstimateETA(0, 10); eta != 0 || rem != 0 {
		t.Fatalf("ETA without route = %v, %v", eta, rem)
	}
}
