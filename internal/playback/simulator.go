// Package playback drives a virtual vehicle along a route at a fixed speed.
package playback

import (
	"errors"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

// DefaultSpeed is the virtual vehicle speed in km/h.
const DefaultSpeed = 80.0

var ErrEmptyPath = errors.New("playback: path needs at least two points")

// Frame is the simulated vehicle state at one animation tick.
type Frame struct {
	Position   domain.Coordinate
	Heading    float64
	Speed      float64 // m/s
	RouteIndex int
	Done       bool
}

// Simulator integrates motion from elapsed animation time. Elapsed time is
// only accumulated for unfrozen ticks, so resuming after a pause continues
// where it stopped.
type Simulator struct {
	speed float64 // m/s

	path  domain.RoutePath
	cum   []float64
	total float64

	elapsed   time.Duration
	lastFrame time.Time
	running   bool
}

// New returns a simulator running at speedKmh (DefaultSpeed when <= 0).
func New(speedKmh float64) *Simulator {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeed
	}
	return &Simulator{speed: speedKmh / 3.6}
}

// Start begins playback at path[fromIndex].
func (s *Simulator) Start(path domain.RoutePath, fromIndex int, now time.Time) error {
	if len(path) < 2 {
		return ErrEmptyPath
	}
	s.path = path
	s.cum = geo.CumulativeDistances(path)
	s.total = s.cum[len(s.cum)-1]
	s.elapsed = 0
	if fromIndex > 0 && fromIndex < len(path) {
		s.elapsed = time.Duration(s.cum[fromIndex] / s.speed * float64(time.Second))
	}
	s.lastFrame = now
	s.running = true
	return nil
}

// Stop abandons playback; further Steps report nothing.
func (s *Simulator) Stop() { s.running = false }

func (s *Simulator) Running() bool { return s.running }

// Elapsed returns the accumulated animation time.
func (s *Simulator) Elapsed() time.Duration { return s.elapsed }

// Step advances to now. With frozen set the clock is consumed without
// accumulating elapsed time and the current position is reported again.
// The final frame has Done set and sits exactly on the last path point.
func (s *Simulator) Step(now time.Time, frozen bool) (Frame, bool) {
	if !s.running {
		return Frame{}, false
	}
	if dt := now.Sub(s.lastFrame); dt > 0 && !frozen {
		s.elapsed += dt
	}
	s.lastFrame = now

	d := s.speed * s.elapsed.Seconds()
	if d >= s.total {
		s.running = false
		last := len(s.path) - 1
		return Frame{
			Position:   s.path[last],
			Heading:    geo.SegmentBearing(s.path, last),
			RouteIndex: last,
			Done:       true,
		}, true
	}

	p, idx := geo.PointAlong(s.path, s.cum, d)
	speed := s.speed
	if frozen {
		speed = 0
	}
	return Frame{
		Position:   p,
		Heading:    geo.SegmentBearing(s.path, idx),
		Speed:      speed,
		RouteIndex: idx,
	}, true
}
