package handlers

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"turn-guidance-service/internal/domain"
)

// RouteGeoJSON serves the active route as a FeatureCollection: the full path,
// one LineString per leg and one Point per maneuver.
func (h *SessionHandler) RouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	route, err := h.Nav.Route(r.Context())
	if err != nil {
		h.fail(w, r, "route geojson", err)
		return
	}

	body, err := RouteFeatures(route).MarshalJSON()
	if err != nil {
		h.fail(w, r, "route geojson", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// RouteFeatures converts a route into GeoJSON features.
func RouteFeatures(route *domain.Route) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	full := geojson.NewFeature(lineString(route.Path))
	full.Properties["kind"] = "path"
	fc.Append(full)

	for i, leg := range route.Legs {
		f := geojson.NewFeature(lineString(route.Path[leg.StartIndex : leg.EndIndex+1]))
		f.Properties["kind"] = "leg"
		f.Properties["leg"] = i
		fc.Append(f)
	}

	for i, s := range route.Steps {
		loc := s.Maneuver.Location
		f := geojson.NewFeature(orb.Point{loc.Lng, loc.Lat})
		f.Properties["kind"] = "maneuver"
		f.Properties["step"] = i
		f.Properties["type"] = s.Maneuver.Type
		f.Properties["modifier"] = s.Maneuver.Modifier
		f.Properties["instruction"] = s.Instruction
		fc.Append(f)
	}
	return fc
}

func lineString(path domain.RoutePath) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, c := range path {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}
	return ls
}
