package domain

import "time"

// A single location fix. Heading and Speed are nil when the source did not report them.
// Synthetic marks samples produced by dead reckoning rather than a real sensor.
type PositionSample struct {
	Lat       float64
	Lng       float64
	Heading   *float64
	Speed     *float64
	Accuracy  float64
	Timestamp time.Time
	Synthetic bool
}

func (s PositionSample) Coordinate() Coordinate { return Coordinate{Lat: s.Lat, Lng: s.Lng} }

// SpeedOrZero returns the reported speed in m/s, or 0 if unknown.
func (s PositionSample) SpeedOrZero() float64 {
	if s.Speed == nil || *s.Speed < 0 {
		return 0
	}
	return *s.Speed
}

// Read-only preview of an upcoming maneuver.
type ManeuverPreview struct {
	Type              string
	Modifier          string
	DistanceMeters    float64
	Instruction       string
	FollowingDistance float64
}

// Viewport padding in screen pixels.
type Padding struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Target viewport for the moving map. Recomputed on every update.
type CameraTarget struct {
	Center  Coordinate
	Zoom    float64
	Bearing float64
	Pitch   float64
	Padding Padding
}
