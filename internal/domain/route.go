package domain

import (
	"errors"
	"fmt"
)

// Represents a contiguous sub-range of the RoutePath between two waypoints.
// StartIndex and EndIndex are inclusive indexes into the path.
type RouteLeg struct {
	StartIndex int
	EndIndex   int
}

// Maneuver describes the turn event that begins a NavigationStep.
type Maneuver struct {
	Type     string
	Modifier string
	Location Coordinate
}

// Represents one instruction unit of the route.
// Distance is the length of the step in meters; [StartIndex, EndIndex] is the
// range of RoutePath vertices it covers.
type NavigationStep struct {
	Instruction string
	Maneuver    Maneuver
	Distance    float64
	StartIndex  int
	EndIndex    int
}

// Route is the triple produced by route computation. It is only valid as a unit:
// a reroute replaces all three slices at once.
type Route struct {
	Path  RoutePath
	Legs  []RouteLeg
	Steps []NavigationStep
}

// NewRoute validates the triple and fills in a single leg spanning the whole path
// when none is supplied.
func NewRoute(path RoutePath, legs []RouteLeg, steps []NavigationStep) (*Route, error) {
	if len(path) < 2 {
		return nil, errors.New("new route: path must contain at least 2 points")
	}

	last := len(path) - 1
	if len(legs) == 0 {
		legs = []RouteLeg{{StartIndex: 0, EndIndex: last}}
	}

	for i, l := range legs {
		if l.StartIndex < 0 || l.EndIndex > last || l.StartIndex >= l.EndIndex {
			return nil, fmt.Errorf("new route: leg %d has invalid range [%d,%d] for %d points", i, l.StartIndex, l.EndIndex, len(path))
		}
		if i > 0 && l.StartIndex < legs[i-1].EndIndex {
			return nil, fmt.Errorf("new route: leg %d overlaps leg %d", i, i-1)
		}
	}

	for i, s := range steps {
		if s.StartIndex < 0 || s.EndIndex > last || s.StartIndex > s.EndIndex {
			return nil, fmt.Errorf("new route: step %d has invalid range [%d,%d] for %d points", i, s.StartIndex, s.EndIndex, len(path))
		}
	}

	return &Route{
		Path:  append(RoutePath(nil), path...),
		Legs:  append([]RouteLeg(nil), legs...),
		Steps: append([]NavigationStep(nil), steps...),
	}, nil
}

// LegEnd returns the terminal coordinate of leg i.
func (r *Route) LegEnd(i int) Coordinate {
	return r.Path[r.Legs[i].EndIndex]
}

// Destination returns the final coordinate of the path.
func (r *Route) Destination() Coordinate {
	return r.Path[len(r.Path)-1]
}

// Persisted progress used to resume a session mid-route.
type ResumeState struct {
	Leg        int
	PointIndex int
}
