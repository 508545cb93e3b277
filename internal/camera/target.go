package camera

import (
	"math"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

// Mode selects the map perspective.
type Mode int

const (
	Mode3D Mode = iota
	Mode2D
)

func (m Mode) String() string {
	if m == Mode2D {
		return "2d"
	}
	return "3d"
}

// ParseMode accepts "2d" and "3d".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "2d", "2D":
		return Mode2D, true
	case "3d", "3D":
		return Mode3D, true
	}
	return Mode3D, false
}

// Input is what the camera follows. ManeuverDistance is +Inf when no
// maneuver is ahead.
type Input struct {
	Position         domain.Coordinate
	Heading          float64
	Speed            float64 // m/s
	ManeuverDistance float64
}

// BaseZoom returns the zoom level for a speed in km/h.
func BaseZoom(speedKmh float64) float64 {
	switch {
	case speedKmh < 10:
		return 19
	case speedKmh < 30:
		return 18.5
	case speedKmh < 50:
		return 18
	case speedKmh < 70:
		return 17
	case speedKmh < 90:
		return 16.5
	case speedKmh <= 110:
		return 16
	default:
		return 15
	}
}

// BasePitch returns the 3D pitch for a speed in km/h.
func BasePitch(speedKmh float64) float64 {
	switch {
	case speedKmh < 20:
		return 35
	case speedKmh < 50:
		return 45
	case speedKmh < 80:
		return 55
	default:
		return 65
	}
}

// Target computes the viewport for in under mode.
func (c Config) Target(in Input, mode Mode) domain.CameraTarget {
	kmh := math.Max(in.Speed, 0) * 3.6
	near := in.ManeuverDistance

	zoom := BaseZoom(kmh)
	switch {
	case near < c.NearBoostRange:
		zoom += c.NearBoost
	case near < c.FarBoostRange:
		zoom += c.FarBoost
	}
	zoom = math.Min(zoom, c.MaxZoom)

	t := domain.CameraTarget{
		Center:  in.Position,
		Zoom:    zoom,
		Bearing: geo.NormalizeBearing(in.Heading),
	}
	if mode == Mode2D {
		t.Padding = domain.Padding{Top: c.TopPadding2D}
		return t
	}
	t.Pitch = BasePitch(kmh)
	if near < c.ManeuverPitchRange {
		t.Pitch = c.ManeuverPitch
	}
	t.Padding = domain.Padding{Top: c.TopPadding3D}
	return t
}
