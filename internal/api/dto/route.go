package dto

import (
	"fmt"

	"turn-guidance-service/internal/domain"
)

type CoordinateDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type LegDTO struct {
	StartIndex int `json:"start_index" validate:"gte=0"`
	EndIndex   int `json:"end_index" validate:"gtfield=StartIndex"`
}

type ManeuverDTO struct {
	Type     string        `json:"type"`
	Modifier string        `json:"modifier"`
	Location CoordinateDTO `json:"location"`
}

type StepDTO struct {
	Instruction string      `json:"instruction" validate:"required"`
	Maneuver    ManeuverDTO `json:"maneuver"`
	Distance    float64     `json:"distance" validate:"gte=0"`
	StartIndex  int         `json:"start_index" validate:"gte=0"`
	EndIndex    int         `json:"end_index" validate:"gtefield=StartIndex"`
}

// RouteDTO is the route triple supplied by the route computation service.
type RouteDTO struct {
	Path  []CoordinateDTO `json:"path" validate:"min=2,dive"`
	Legs  []LegDTO        `json:"legs" validate:"dive"`
	Steps []StepDTO       `json:"steps" validate:"dive"`
}

type ResumeDTO struct {
	Leg        int `json:"leg" validate:"gte=0"`
	PointIndex int `json:"point_index" validate:"gte=0"`
}

type StartSessionRequest struct {
	Route  RouteDTO   `json:"route"`
	Resume *ResumeDTO `json:"resume"`

	// UseSaved resumes from the persisted checkpoint when no resume is given.
	UseSaved bool `json:"use_saved"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
}

// ToDomain builds and validates the route triple.
func (r RouteDTO) ToDomain() (*domain.Route, error) {
	path := make(domain.RoutePath, len(r.Path))
	for i, c := range r.Path {
		path[i] = domain.Coordinate{Lat: c.Lat, Lng: c.Lng}
	}
	legs := make([]domain.RouteLeg, len(r.Legs))
	for i, l := range r.Legs {
		legs[i] = domain.RouteLeg{StartIndex: l.StartIndex, EndIndex: l.EndIndex}
	}
	steps := make([]domain.NavigationStep, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = domain.NavigationStep{
			Instruction: s.Instruction,
			Maneuver: domain.Maneuver{
				Type:     s.Maneuver.Type,
				Modifier: s.Maneuver.Modifier,
				Location: domain.Coordinate{Lat: s.Maneuver.Location.Lat, Lng: s.Maneuver.Location.Lng},
			},
			Distance:   s.Distance,
			StartIndex: s.StartIndex,
			EndIndex:   s.EndIndex,
		}
	}

	route, err := domain.NewRoute(path, legs, steps)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	return route, nil
}

// RouteFromDomain is the inverse of ToDomain.
func RouteFromDomain(r *domain.Route) RouteDTO {
	out := RouteDTO{
		Path:  make([]CoordinateDTO, len(r.Path)),
		Legs:  make([]LegDTO, len(r.Legs)),
		Steps: make([]StepDTO, len(r.Steps)),
	}
	for i, c := range r.Path {
		out.Path[i] = CoordinateDTO{Lat: c.Lat, Lng: c.Lng}
	}
	for i, l := range r.Legs {
		out.Legs[i] = LegDTO{StartIndex: l.StartIndex, EndIndex: l.EndIndex}
	}
	for i, s := range r.Steps {
		out.Steps[i] = StepDTO{
			Instruction: s.Instruction,
			Maneuver: ManeuverDTO{
				Type:     s.Maneuver.Type,
				Modifier: s.Maneuver.Modifier,
				Location: CoordinateDTO{Lat: s.Maneuver.Location.Lat, Lng: s.Maneuver.Location.Lng},
			},
			Distance:   s.Distance,
			StartIndex: s.StartIndex,
			EndIndex:   s.EndIndex,
		}
	}
	return out
}
