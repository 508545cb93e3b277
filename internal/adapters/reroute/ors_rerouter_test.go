package reroute

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/ports"
)

const directionsBody = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "LineString", "coordinates": [[0,0],[0.001,0],[0.002,0],[0.002,0.001]]},
    "properties": {
      "segments": [
        {"steps": [
          {"distance": 222.6, "instruction": "Head east", "type": 11, "way_points": [0,2]},
          {"distance": 0, "instruction": "Arrive at waypoint", "type": 10, "way_points": [2,2]}
        ]},
        {"steps": [
          {"distance": 110.6, "instruction": "Turn left", "type": 0, "way_points": [2,3]},
          {"distance": 0, "instruction": "Arrive", "type": 10, "way_points": [3,3]}
        ]}
      ],
      "way_points": [0,2,3]
    }
  }]
}`

func testRerouter(t *testing.T, url string) *ORSRerouter {
	t.Helper()
	r, err := NewORSRerouter(url, "key")
	if err != nil {
		t.Fatalf("NewORSRerouter: %v", err)
	}
	r.backoff = time.Millisecond
	return r
}

func TestORSRerouterRetriesAndParses(t *testing.T) {
	var calls atomic.Int32
	var got directionsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/directions/driving-car/geojson" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("missing api key")
		}
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(directionsBody))
	}))
	defer srv.Close()

	route, err := testRerouter(t, srv.URL).Reroute(context.Background(), ports.RerouteRequest{
		From:      domain.Coordinate{Lat: 0, Lng: 0},
		Heading:   90,
		Waypoints: []domain.Coordinate{{Lat: 0, Lng: 0.002}, {Lat: 0.001, Lng: 0.002}},
	})
	if err != nil {
		t.Fatalf("Reroute: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected a retry, got %d calls", calls.Load())
	}
	if len(got.Coordinates) != 3 || got.Coordinates[2] != [2]float64{0.002, 0.001} {
		t.Fatalf("unexpected request coordinates %v", got.Coordinates)
	}

	if len(route.Path) != 4 || route.Path[3] != (domain.Coordinate{Lat: 0.001, Lng: 0.002}) {
		t.Fatalf("unexpected path %v", route.Path)
	}
	if len(route.Legs) != 2 || route.Legs[1] != (domain.RouteLeg{StartIndex: 2, EndIndex: 3}) {
		t.Fatalf("unexpected legs %v", route.Legs)
	}
	if len(route.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(route.Steps))
	}
	turn := route.Steps[2]
	if turn.Maneuver.Type != "turn" || turn.Maneuver.Modifier != "left" || turn.Maneuver.Location != route.Path[2] {
		t.Fatalf("unexpected maneuver %+v", turn.Maneuver)
	}
}

func TestORSRerouterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testRerouter(t, srv.URL).Reroute(context.Background(), ports.RerouteRequest{
		Waypoints: []domain.Coordinate{{Lat: 1, Lng: 1}},
	})
	var he *httpStatusError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected a 400 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestORSRerouterNeedsWaypoints(t *testing.T) {
	if _, err := testRerouter(t, "http://unused").Reroute(context.Background(), ports.RerouteRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMockRerouterGate(t *testing.T) {
	m := NewMockRerouter(nil)
	m.Gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Reroute(ctx, ports.RerouteRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(m.Requests()) != 1 {
		t.Fatalf("request not recorded")
	}
}
