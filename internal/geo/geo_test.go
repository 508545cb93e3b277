package geo

import (
	"math"
	"testing"

	"turn-guidance-service/internal/domain"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	coords := []domain.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 52.5200, Lng: 13.4050},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 10, Lng: 179.9},
		{Lat: 10, Lng: -179.9},
		{Lat: 89.9, Lng: 45},
	}

	for _, a := range coords {
		if d := Distance(a, a); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range coords {
			ab, ba := Distance(a, b), Distance(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Distance not symmetric: %v -> %v = %v, reverse = %v", a, b, ab, ba)
			}
		}
	}
}

func TestDistanceAcrossAntimeridian(t *testing.T) {
	d := Distance(domain.Coordinate{Lat: 0, Lng: 179.999}, domain.Coordinate{Lat: 0, Lng: -179.999})
	if d < 200 || d > 250 {
		t.Fatalf("distance across antimeridian = %v, want ~222m", d)
	}
}

func TestDistanceNaN(t *testing.T) {
	d := Distance(domain.Coordinate{Lat: math.NaN()}, domain.Coordinate{})
	if !math.IsInf(d, 1) {
		t.Fatalf("Distance with NaN = %v, want +Inf", d)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		to   domain.Coordinate
		want float64
	}{
		{name: "north", to: domain.Coordinate{Lat: 1, Lng: 0}, want: 0},
		{name: "east", to: domain.Coordinate{Lat: 0, Lng: 1}, want: 90},
		{name: "south", to: domain.Coordinate{Lat: -1, Lng: 0}, want: 180},
		{name: "west", to: domain.Coordinate{Lat: 0, Lng: -1}, want: 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(domain.Coordinate{}, tt.to)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Fatalf("Bearing = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 360 {
				t.Fatalf("Bearing %v outside [0,360)", got)
			}
		})
	}
}

func TestAngleDiff(t *testing.T) {
	tests := []struct{ a, b, want float64 }{
		{350, 10, 20},
		{10, 350, -20},
		{90, 270, 180},
		{0, 0, 0},
		{720, 90, 90},
	}
	for _, tt := range tests {
		if got := AngleDiff(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngleDiff(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeBearing(t *testing.T) {
	for _, in := range []float64{-720, -1, 0, 359.999, 360, 1e9, math.NaN(), math.Inf(-1)} {
		got := NormalizeBearing(in)
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeBearing(%v) = %v, outside [0,360)", in, got)
		}
	}
}

func TestRemainingDistance(t *testing.T) {
	path := domain.RoutePath{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.001}, {Lat: 0, Lng: 0.002}}
	seg := Distance(path[0], path[1])

	if got := RemainingDistance(path, 0); math.Abs(got-2*seg) > 1e-6 {
		t.Fatalf("RemainingDistance(0) = %v, want %v", got, 2*seg)
	}
	if got := RemainingDistance(path, 1); math.Abs(got-seg) > 1e-6 {
		t.Fatalf("RemainingDistance(1) = %v, want %v", got, seg)
	}
	for _, from := range []int{2, 3, 100} {
		if got := RemainingDistance(path, from); got != 0 {
			t.Fatalf("RemainingDistance(%d) = %v, want 0", from, got)
		}
	}
}

func TestPointAlong(t *testing.T) {
	path := domain.RoutePath{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.001}, {Lat: 0, Lng: 0.002}}
	cum := CumulativeDistances(path)

	p, idx := PointAlong(path, cum, cum[1]/2)
	if idx != 0 || math.Abs(p.Lng-0.0005) > 1e-9 {
		t.Fatalf("PointAlong half of first segment = %v idx %d", p, idx)
	}

	p, idx = PointAlong(path, cum, cum[2]+10)
	if idx != 2 || p != path[2] {
		t.Fatalf("PointAlong past end = %v idx %d, want last point", p, idx)
	}

	p, idx = PointAlong(path, cum, -5)
	if idx != 0 || p != path[0] {
		t.Fatalf("PointAlong negative = %v idx %d, want first point", p, idx)
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	start := domain.Coordinate{Lat: 48.85, Lng: 2.35}
	end := Destination(start, 90, 1000)
	if d := Distance(start, end); math.Abs(d-1000) > 5 {
		t.Fatalf("Destination travelled %v m, want ~1000", d)
	}
	if b := Bearing(start, end); math.Abs(AngleDiff(b, 90)) > 0.5 {
		t.Fatalf("Destination bearing = %v, want ~90", b)
	}
}
