package domain

import "github.com/paulmach/orb"

// Immutable WGS84 coordinate in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Point returns the coordinate as an orb point ([lon, lat] order).
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lng, c.Lat} }

// CoordinateFromPoint converts an orb point back into a Coordinate.
func CoordinateFromPoint(p orb.Point) Coordinate { return Coordinate{Lat: p.Lat(), Lng: p.Lon()} }

// Ordered polyline the vehicle should follow. Read-only for the lifetime of a session.
type RoutePath []Coordinate

// LineString returns the path as an orb line string for GeoJSON export.
func (p RoutePath) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(p))
	for _, c := range p {
		ls = append(ls, c.Point())
	}
	return ls
}
