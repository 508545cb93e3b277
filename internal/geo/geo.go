// Package geo holds the pure geospatial primitives used by the guidance engine.
//
// Every function is total: NaN or otherwise unusable input never panics, it
// propagates as +Inf distance or index -1 so the real-time loop keeps running.
package geo

import (
	"math"
	"sort"

	"turn-guidance-service/internal/domain"

	"github.com/paulmach/orb/geo"
)

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b domain.Coordinate) float64 {
	if !valid(a) || !valid(b) {
		return math.Inf(1)
	}
	return geo.DistanceHaversine(a.Point(), b.Point())
}

// Bearing returns the initial bearing from a to b in degrees, normalized to [0,360).
func Bearing(a, b domain.Coordinate) float64 {
	if !valid(a) || !valid(b) {
		return 0
	}
	return NormalizeBearing(geo.Bearing(a.Point(), b.Point()))
}

// Destination returns the point reached by travelling meters along bearing from c.
func Destination(c domain.Coordinate, bearing, meters float64) domain.Coordinate {
	if !valid(c) || math.IsNaN(bearing) || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return c
	}
	return domain.CoordinateFromPoint(geo.PointAtBearingAndDistance(c.Point(), bearing, meters))
}

// NormalizeBearing maps any finite angle into [0,360). NaN and Inf map to 0.
func NormalizeBearing(b float64) float64 {
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return 0
	}
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// AngleDiff returns the signed shortest rotation from a to b, in (-180,180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// Interpolate returns the point a fraction t of the way from a to b.
func Interpolate(a, b domain.Coordinate, t float64) domain.Coordinate {
	return domain.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// SegmentBearing returns the bearing of the road at vertex i (vertex i to i+1).
// The last vertex reuses the bearing of the final segment.
func SegmentBearing(path domain.RoutePath, i int) float64 {
	if len(path) < 2 {
		return 0
	}
	if i < 0 {
		i = 0
	}
	if i >= len(path)-1 {
		i = len(path) - 2
	}
	return Bearing(path[i], path[i+1])
}

// RemainingDistance sums the segment lengths from fromIndex to the end of path.
func RemainingDistance(path domain.RoutePath, fromIndex int) float64 {
	if fromIndex < 0 {
		fromIndex = 0
	}
	total := 0.0
	for i := fromIndex; i < len(path)-1; i++ {
		total += Distance(path[i], path[i+1])
	}
	return total
}

// CumulativeDistances returns, for every vertex, the distance travelled from path[0].
func CumulativeDistances(path domain.RoutePath) []float64 {
	cum := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cum[i] = cum[i-1] + Distance(path[i-1], path[i])
	}
	return cum
}

// PointAlong returns the coordinate at distance d along path, together with the
// index of the segment it falls on. cum must come from CumulativeDistances(path).
func PointAlong(path domain.RoutePath, cum []float64, d float64) (domain.Coordinate, int) {
	n := len(path)
	if n == 0 || len(cum) != n {
		return domain.Coordinate{}, -1
	}
	if n == 1 || math.IsNaN(d) || d <= 0 {
		return path[0], 0
	}
	if d >= cum[n-1] {
		return path[n-1], n - 1
	}

	// first vertex strictly beyond d
	j := sort.Search(n, func(k int) bool { return cum[k] > d })
	i := j - 1
	seg := cum[j] - cum[i]
	t := 0.0
	if seg > 0 {
		t = (d - cum[i]) / seg
	}
	return Interpolate(path[i], path[j], t), i
}

func valid(c domain.Coordinate) bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lat, 0) && !math.IsInf(c.Lng, 0)
}
