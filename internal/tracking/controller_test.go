package tracking

import (
	"math"
	"testing"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

func ptr(v float64) *float64 { return &v }

func eastRoute(t *testing.T) *domain.Route {
	t.Helper()
	r, err := domain.NewRoute(domain.RoutePath{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.001},
		{Lat: 0, Lng: 0.002},
		{Lat: 0, Lng: 0.003},
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewRoute: %v", err)
	}
	return r
}

func sample(lat, lng, heading, speed float64) domain.PositionSample {
	return domain.PositionSample{Lat: lat, Lng: lng, Heading: ptr(heading), Speed: ptr(speed), Accuracy: 10}
}

func TestSmoothHeadingStaysInRange(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name       string
		prev, next float64
		kmh        float64
	}{
		{"wrap up", 350, 10, 30},
		{"wrap down", 5, 355, 30},
		{"fast", 359.9, 0.1, 100},
		{"negative input", 10, -20, 30},
		{"large input", 10, 725, 30},
	}
	for _, tt := range tests {
		got, ok := cfg.SmoothHeading(tt.prev, true, ptr(tt.next), tt.kmh)
		if !ok || got < 0 || got >= 360 {
			t.Fatalf("%s: got %v ok=%v", tt.name, got, ok)
		}
	}

	// shortest arc: 350 -> 10 must move forward through 0, not back through 180
	got, _ := cfg.SmoothHeading(350, true, ptr(10), 30)
	if math.Abs(geo.AngleDiff(350, got)-6) > 1e-9 {
		t.Fatalf("expected 356, got %v", got)
	}
}

func TestSmoothHeadingStationaryKeepsPrevious(t *testing.T) {
	cfg := DefaultConfig()
	got, _ := cfg.SmoothHeading(90, true, ptr(270), 0.5)
	if got != 90 {
		t.Fatalf("expected 90, got %v", got)
	}
	got, ok := cfg.SmoothHeading(0, false, nil, 30)
	if ok {
		t.Fatalf("expected no heading, got %v", got)
	}
}

func TestSnapRadius(t *testing.T) {
	cfg := DefaultConfig()
	for _, tt := range []struct{ kmh, want float64 }{{0, 35}, {19.9, 35}, {20, 60}, {59, 60}, {60, 90}, {130, 90}} {
		if got := cfg.SnapRadius(tt.kmh); got != tt.want {
			t.Fatalf("SnapRadius(%v) = %v, want %v", tt.kmh, got, tt.want)
		}
	}
}

func TestUpdateSnapsOntoRoute(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	res := c.Update(sample(0.0001, 0.0015, 90, 10), time.Unix(0, 0))
	if !res.Accepted || !res.Snapped {
		t.Fatalf("expected snapped sample, got %+v", res)
	}
	if math.Abs(res.Position.Lat) > 1e-9 || math.Abs(res.Position.Lng-0.0015) > 1e-7 {
		t.Fatalf("unexpected snapped position %+v", res.Position)
	}
	if res.RouteIndex != 1 {
		t.Fatalf("expected route index 1, got %d", res.RouteIndex)
	}
	if res.Heading < 0 || res.Heading >= 360 {
		t.Fatalf("heading out of range: %v", res.Heading)
	}
}

func TestUpdateIgnoresInaccurateFix(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	s := sample(0, 0.0005, 90, 10)
	s.Accuracy = 120
	if res := c.Update(s, time.Unix(0, 0)); res.Accepted {
		t.Fatalf("expected rejection, got %+v", res)
	}
	if _, ok := c.Position(); ok {
		t.Fatalf("position should not be set by a rejected fix")
	}
}

// A driver far from the route heading the wrong way for six seconds must
// trigger exactly one reroute request.
func TestSingleRerouteWhileFarOffRoute(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	start := time.Unix(1000, 0)
	reroutes := 0
	for i := 0; i <= 6; i++ {
		res := c.Update(sample(1, 1, 270, 60/3.6), start.Add(time.Duration(i)*time.Second))
		if !res.Accepted || res.Snapped {
			t.Fatalf("sample %d: unexpected result %+v", i, res)
		}
		if res.Reroute {
			reroutes++
		}
	}
	if reroutes != 1 {
		t.Fatalf("expected exactly one reroute, got %d", reroutes)
	}
	if !c.ReroutePending() {
		t.Fatalf("reroute should be pending")
	}
}

func TestRerouteAfterFailureWaitsForCooldown(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	start := time.Unix(1000, 0)
	if res := c.Update(sample(1, 1, 270, 60/3.6), start); !res.Reroute {
		t.Fatalf("expected first reroute")
	}
	c.RerouteFailed()
	if res := c.Update(sample(1, 1, 270, 60/3.6), start.Add(2*time.Second)); res.Reroute {
		t.Fatalf("reroute inside cooldown")
	}
	if res := c.Update(sample(1, 1, 270, 60/3.6), start.Add(6*time.Second)); !res.Reroute {
		t.Fatalf("expected reroute after cooldown")
	}
}

func TestOffRouteScoreResetsOnSnap(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	now := time.Unix(0, 0)
	// about 150 m north of the route
	res := c.Update(sample(0.00135, 0.0005, 90, 10), now)
	if res.Snapped || res.OffRouteScore != 3 {
		t.Fatalf("expected off-route score 3, got %+v", res)
	}
	res = c.Update(sample(0, 0.0006, 90, 10), now.Add(time.Second))
	if !res.Snapped || res.OffRouteScore != 0 {
		t.Fatalf("expected score reset after snap, got %+v", res)
	}
}

func TestInterpolationSteps(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	now := time.Unix(0, 0)
	c.Update(sample(0, 0.0001, 90, 10), now)
	res := c.Update(sample(0, 0.0002, 90, 10), now.Add(time.Second))
	if res.InterpolationSteps != 4 {
		t.Fatalf("expected 4 steps at 36 km/h, got %d", res.InterpolationSteps)
	}

	for _, tt := range []struct {
		kmh  float64
		want int
	}{{10, 5}, {29.9, 5}, {30, 4}, {69, 4}, {70, 3}, {120, 3}} {
		if got := InterpolationSteps(tt.kmh); got != tt.want {
			t.Fatalf("InterpolationSteps(%v) = %d, want %d", tt.kmh, got, tt.want)
		}
	}
}

func TestDeadReckonAdvancesAlongRoute(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	now := time.Unix(0, 0)
	c.Update(sample(0, 0.0005, 90, 20), now)

	if _, ok := c.DeadReckon(now.Add(time.Second)); ok {
		t.Fatalf("fix is not stale yet")
	}
	s, ok := c.DeadReckon(now.Add(2 * time.Second))
	if !ok || !s.Synthetic {
		t.Fatalf("expected synthetic sample, got %+v ok=%v", s, ok)
	}
	moved := geo.Distance(domain.Coordinate{Lat: 0, Lng: 0.0005}, s.Coordinate())
	if math.Abs(moved-40) > 1 {
		t.Fatalf("expected ~40 m of travel, got %v", moved)
	}
	if math.Abs(s.Lat) > 1e-9 {
		t.Fatalf("synthetic sample should stay on the route, got %+v", s)
	}

	// synthetic samples do not refresh the staleness clock
	c.Update(s, now.Add(2*time.Second))
	if !c.LastRealSample().Equal(now) {
		t.Fatalf("last real sample moved to %v", c.LastRealSample())
	}
	if _, ok := c.DeadReckon(now.Add(13 * time.Second)); ok {
		t.Fatalf("fix too old to extrapolate")
	}
}

func TestDeadReckonNeedsSpeed(t *testing.T) {
	c := New(DefaultConfig())
	c.Start(eastRoute(t), 0)

	now := time.Unix(0, 0)
	c.Update(sample(0, 0.0005, 90, 1), now)
	if _, ok := c.DeadReckon(now.Add(2 * time.Second)); ok {
		t.Fatalf("no dead reckoning below 5 km/h")
	}
}
