package reroute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/platform/obs"
	"turn-guidance-service/internal/ports"
)

// ORSRerouter implements ports.Rerouter with the OpenRouteService directions
// API (GeoJSON flavour). Legs come from the response way points, steps from
// the per-segment instructions.
//
// The rerouter is safe for concurrent use.
type ORSRerouter struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	profile     string
	maxAttempts int
	backoff     time.Duration
}

func NewORSRerouter(baseURL, apiKey string) (*ORSRerouter, error) {
	if baseURL == "" {
		return nil, errors.New("ORS base url is empty")
	}
	return &ORSRerouter{
		client:      &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		profile:     "driving-car",
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
	}, nil
}

type directionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Bearings     [][]float64  `json:"bearings,omitempty"`
	Instructions bool         `json:"instructions"`
}

type directionsResponse struct {
	Features []struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties struct {
			Segments []struct {
				Steps []orsStep `json:"steps"`
			} `json:"segments"`
			WayPoints []int `json:"way_points"`
		} `json:"properties"`
	} `json:"features"`
}

type orsStep struct {
	Distance    float64 `json:"distance"`
	Instruction string  `json:"instruction"`
	Type        int     `json:"type"`
	WayPoints   []int   `json:"way_points"`
}

func (o *ORSRerouter) Reroute(ctx context.Context, req ports.RerouteRequest) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "ors.reroute")(&err)

	if len(req.Waypoints) == 0 {
		return nil, errors.New("ors reroute: no waypoints")
	}

	body := directionsRequest{Instructions: true}
	body.Coordinates = append(body.Coordinates, [2]float64{req.From.Lng, req.From.Lat})
	for _, w := range req.Waypoints {
		body.Coordinates = append(body.Coordinates, [2]float64{w.Lng, w.Lat})
	}
	// constrain only the departure to the current heading
	body.Bearings = [][]float64{{req.Heading, 45}}
	for range req.Waypoints {
		body.Bearings = append(body.Bearings, []float64{})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ors reroute: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, url, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("ors reroute: request directions: %w", err)
	}
	defer resp.Body.Close()

	var out directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ors reroute: decode response: %w", err)
	}

	route, err := out.toRoute()
	if err != nil {
		return nil, fmt.Errorf("ors reroute: %w", err)
	}
	return route, nil
}

func (r directionsResponse) toRoute() (*domain.Route, error) {
	if len(r.Features) == 0 {
		return nil, errors.New("no route in response")
	}
	f := r.Features[0]

	g, err := geojson.UnmarshalGeometry(f.Geometry)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	ls, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected geometry %s", g.Geometry().GeoJSONType())
	}
	path := make(domain.RoutePath, len(ls))
	for i, p := range ls {
		path[i] = domain.CoordinateFromPoint(p)
	}

	var legs []domain.RouteLeg
	wp := f.Properties.WayPoints
	for i := 1; i < len(wp); i++ {
		legs = append(legs, domain.RouteLeg{StartIndex: wp[i-1], EndIndex: wp[i]})
	}

	var steps []domain.NavigationStep
	for _, seg := range f.Properties.Segments {
		for _, s := range seg.Steps {
			if len(s.WayPoints) != 2 || s.WayPoints[0] < 0 || s.WayPoints[0] >= len(path) {
				continue
			}
			typ, mod := maneuverOf(s.Type)
			steps = append(steps, domain.NavigationStep{
				Instruction: s.Instruction,
				Maneuver:    domain.Maneuver{Type: typ, Modifier: mod, Location: path[s.WayPoints[0]]},
				Distance:    s.Distance,
				StartIndex:  s.WayPoints[0],
				EndIndex:    s.WayPoints[1],
			})
		}
	}

	return domain.NewRoute(path, legs, steps)
}

// maneuverOf maps ORS instruction type codes onto maneuver type and modifier.
func maneuverOf(code int) (string, string) {
	switch code {
	case 0:
		return "turn", "left"
	case 1:
		return "turn", "right"
	case 2:
		return "turn", "sharp left"
	case 3:
		return "turn", "sharp right"
	case 4:
		return "turn", "slight left"
	case 5:
		return "turn", "slight right"
	case 6:
		return "continue", "straight"
	case 7:
		return "roundabout", ""
	case 8:
		return "exit roundabout", ""
	case 9:
		return "turn", "uturn"
	case 10:
		return "arrive", ""
	case 11:
		return "depart", ""
	case 12:
		return "fork", "left"
	case 13:
		return "fork", "right"
	}
	return "continue", ""
}
