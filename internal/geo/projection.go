package geo

import (
	"math"

	"turn-guidance-service/internal/domain"
)

// DefaultHeadingTolerance is the maximum angle between the reported heading and
// the road bearing for a segment to be a snapping candidate.
const DefaultHeadingTolerance = 100.0

// Projection is the result of snapping a position onto a path.
// Index is -1 and Distance is +Inf when nothing was within the threshold.
type Projection struct {
	Point    domain.Coordinate
	Distance float64
	Index    int
}

// Found reports whether the projection matched a path segment.
func (p Projection) Found() bool { return p.Index >= 0 }

// Projector snaps positions onto a path.
//
// The search starts LookBehind vertices before the hint so that small backward
// GPS jitter can still match. Headings are ignored below MinHeadingSpeed (m/s)
// because a stationary receiver reports noise.
type Projector struct {
	HeadingTolerance float64
	LookBehind       int
	MinHeadingSpeed  float64
}

// DefaultProjector is used by ProjectOntoPath.
var DefaultProjector = Projector{
	HeadingTolerance: DefaultHeadingTolerance,
	LookBehind:       5,
	MinHeadingSpeed:  1.5 / 3.6,
}

// ProjectOntoPath snaps position onto path with DefaultProjector.
func ProjectOntoPath(
	position domain.Coordinate,
	heading *float64,
	path domain.RoutePath,
	searchHintIndex int,
	threshold float64,
	speed float64,
) Projection {
	return DefaultProjector.Project(position, heading, path, searchHintIndex, threshold, speed)
}

// Project returns the nearest point of path to position within threshold meters.
// A segment whose bearing differs from heading by more than HeadingTolerance is
// skipped so that a parallel road in the opposite direction does not capture the fix.
func (p Projector) Project(
	position domain.Coordinate,
	heading *float64,
	path domain.RoutePath,
	searchHintIndex int,
	threshold float64,
	speed float64,
) Projection {
	none := Projection{Distance: math.Inf(1), Index: -1}
	if len(path) == 0 || !valid(position) || math.IsNaN(threshold) {
		return none
	}

	if len(path) == 1 {
		d := Distance(position, path[0])
		if d <= threshold {
			return Projection{Point: path[0], Distance: d, Index: 0}
		}
		return none
	}

	useHeading := heading != nil && !math.IsNaN(*heading) && !math.IsNaN(speed) && speed >= p.MinHeadingSpeed

	start := 0
	if searchHintIndex > 0 {
		start = searchHintIndex - p.LookBehind
		if start < 0 {
			start = 0
		}
		if start > len(path)-2 {
			start = len(path) - 2
		}
	}

	best := none
	for i := start; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		if useHeading && Distance(a, b) >= 0.5 {
			if math.Abs(AngleDiff(*heading, Bearing(a, b))) > p.HeadingTolerance {
				continue
			}
		}

		q, d := nearestOnSegment(position, a, b)
		if d <= threshold && d < best.Distance {
			best = Projection{Point: q, Distance: d, Index: i}
		}
	}

	return best
}

// NearestDistance returns the unconstrained distance from position to path.
func NearestDistance(position domain.Coordinate, path domain.RoutePath) float64 {
	if len(path) == 0 || !valid(position) {
		return math.Inf(1)
	}
	if len(path) == 1 {
		return Distance(position, path[0])
	}

	best := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		if _, d := nearestOnSegment(position, path[i], path[i+1]); d < best {
			best = d
		}
	}
	return best
}

// nearestOnSegment projects p onto segment ab in a local equirectangular frame
// centred on p. Accurate for segments of a few kilometers, including ones that
// cross the antimeridian.
func nearestOnSegment(p, a, b domain.Coordinate) (domain.Coordinate, float64) {
	k := math.Cos(p.Lat * math.Pi / 180)
	ax, ay := lngDelta(a.Lng, p.Lng)*k, a.Lat-p.Lat
	bx, by := lngDelta(b.Lng, p.Lng)*k, b.Lat-p.Lat
	dx, dy := bx-ax, by-ay

	t := 0.0
	if den := dx*dx + dy*dy; den > 0 {
		t = -(ax*dx + ay*dy) / den
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	if k < 1e-9 {
		q := Interpolate(a, b, t)
		return q, Distance(p, q)
	}
	q := domain.Coordinate{
		Lat: p.Lat + ay + t*dy,
		Lng: p.Lng + (ax+t*dx)/k,
	}
	if q.Lng > 180 {
		q.Lng -= 360
	} else if q.Lng <= -180 {
		q.Lng += 360
	}
	return q, Distance(p, q)
}

// lngDelta returns x-y in degrees, normalized into (-180, 180].
func lngDelta(x, y float64) float64 {
	d := math.Mod(x-y, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
