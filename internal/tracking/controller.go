package tracking

import (
	"math"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

// Result describes what the controller did with one position sample.
type Result struct {
	Accepted bool

	Previous    domain.Coordinate
	HasPrevious bool
	Position    domain.Coordinate
	Heading     float64
	Speed       float64 // m/s
	RouteIndex  int
	Snapped     bool

	// Reroute is set on the sample that crossed the off-route threshold.
	Reroute       bool
	OffRouteScore int

	// InterpolationSteps is non-zero when the marker should glide from
	// Previous to Position instead of jumping.
	InterpolationSteps int
}

// Controller turns raw fixes into a displayed position on the active route.
// It is not safe for concurrent use; the navigation session owns it.
type Controller struct {
	cfg       Config
	projector geo.Projector

	route *domain.Route
	cum   []float64

	heading     float64
	hasHeading  bool
	position    domain.Coordinate
	hasPosition bool
	lastRaw     domain.Coordinate
	hasRaw      bool
	routeIndex  int
	snapped     bool
	speed       float64

	offRouteScore  int
	lastReroute    time.Time
	pendingSince   time.Time
	reroutePending bool

	lastReal       time.Time
	realSpeed      float64
	realPosition   domain.Coordinate
	realRouteIndex int
	realSnapped    bool
}

func New(cfg Config) *Controller {
	return &Controller{
		cfg: cfg,
		projector: geo.Projector{
			HeadingTolerance: cfg.HeadingTolerance,
			LookBehind:       geo.DefaultProjector.LookBehind,
			MinHeadingSpeed:  cfg.StationarySpeed / 3.6,
		},
	}
}

// Start attaches a route and clears all per-route state.
func (c *Controller) Start(route *domain.Route, startIndex int) {
	*c = Controller{cfg: c.cfg, projector: c.projector}
	c.attach(route, startIndex)
}

// SetRoute swaps in a new route (after a reroute) keeping the heading and the
// displayed position. The off-route score and pending flag are cleared.
func (c *Controller) SetRoute(route *domain.Route) {
	c.attach(route, 0)
	c.offRouteScore = 0
	c.reroutePending = false
	c.realSnapped = false
}

// RerouteFailed releases the pending flag so a later sample can try again
// once the cooldown has passed.
func (c *Controller) RerouteFailed() {
	c.reroutePending = false
}

func (c *Controller) attach(route *domain.Route, startIndex int) {
	c.route = route
	c.cum = nil
	c.routeIndex = 0
	if route == nil {
		return
	}
	c.cum = geo.CumulativeDistances(route.Path)
	if startIndex > 0 && startIndex < len(route.Path) {
		c.routeIndex = startIndex
	}
}

func (c *Controller) RouteIndex() int { return c.routeIndex }
func (c *Controller) Heading() (float64, bool) { return c.heading, c.hasHeading }
func (c *Controller) Position() (domain.Coordinate, bool) { return c.position, c.hasPosition }
func (c *Controller) Speed() float64 { return c.speed }
func (c *Controller) Snapped() bool { return c.snapped }
func (c *Controller) OffRouteScore() int { return c.offRouteScore }
func (c *Controller) ReroutePending() bool { return c.reroutePending }
func (c *Controller) LastRealSample() time.Time { return c.lastReal }

// SnapRadius returns the snapping threshold for a speed in km/h.
func (c Config) SnapRadius(speedKmh float64) float64 {
	switch {
	case speedKmh < c.SnapSlowSpeed:
		return c.SnapSlowRadius
	case speedKmh < c.SnapMidSpeed:
		return c.SnapMidRadius
	default:
		return c.SnapFastRadius
	}
}

// InterpolationSteps returns how many intermediate frames a marker move at
// speedKmh is split into.
func InterpolationSteps(speedKmh float64) int {
	switch {
	case speedKmh < 30:
		return 5
	case speedKmh < 70:
		return 4
	default:
		return 3
	}
}

// Update processes one sample. now is the session clock, used for staleness
// and reroute timing.
func (c *Controller) Update(s domain.PositionSample, now time.Time) Result {
	if c.route == nil || len(c.route.Path) == 0 {
		return Result{}
	}
	raw := s.Coordinate()
	if math.IsNaN(raw.Lat) || math.IsNaN(raw.Lng) || math.IsInf(raw.Lat, 0) || math.IsInf(raw.Lng, 0) {
		return Result{}
	}
	if !s.Synthetic && (s.Accuracy > c.cfg.MaxAccuracy || math.IsNaN(s.Accuracy)) {
		return Result{}
	}

	speed := s.SpeedOrZero()
	kmh := speed * 3.6

	reported := s.Heading
	if reported == nil && c.hasRaw && kmh >= c.cfg.StationarySpeed && geo.Distance(c.lastRaw, raw) >= c.cfg.CourseMinMove {
		course := geo.Bearing(c.lastRaw, raw)
		reported = &course
	}
	c.heading, c.hasHeading = c.cfg.SmoothHeading(c.heading, c.hasHeading, reported, kmh)
	if !s.Synthetic {
		c.lastRaw, c.hasRaw = raw, true
	}

	var headingPtr *float64
	if c.hasHeading {
		h := c.heading
		headingPtr = &h
	}

	path := c.route.Path
	res := Result{Accepted: true, Previous: c.position, HasPrevious: c.hasPosition, Speed: speed}

	proj := c.projector.Project(raw, headingPtr, path, c.routeIndex, c.cfg.SnapRadius(kmh), speed)
	if proj.Found() {
		road := geo.SegmentBearing(path, proj.Index)
		if c.hasHeading {
			c.heading = blendToward(c.heading, road, c.cfg.RoadBlend)
		} else {
			c.heading, c.hasHeading = road, true
		}
		res.Position = proj.Point
		c.routeIndex = proj.Index
		c.snapped = true
		c.offRouteScore = 0
	} else {
		res.Position = raw
		c.snapped = false
		res.Reroute = c.scoreOffRoute(raw, kmh, now)
	}

	if c.hasPosition && kmh > c.cfg.InterpolateMinSpeed {
		jump := geo.Distance(c.position, res.Position)
		if jump > c.cfg.InterpolateMinJump && jump < c.cfg.InterpolateMaxJump {
			res.InterpolationSteps = InterpolationSteps(kmh)
		}
	}

	c.position, c.hasPosition = res.Position, true
	c.speed = speed
	if !s.Synthetic {
		c.lastReal = now
		c.realSpeed = speed
		c.realPosition = res.Position
		c.realRouteIndex = c.routeIndex
		c.realSnapped = c.snapped
	}

	res.Heading = c.heading
	res.RouteIndex = c.routeIndex
	res.Snapped = c.snapped
	res.OffRouteScore = c.offRouteScore
	return res
}

// scoreOffRoute accumulates evidence that the driver left the route and
// reports whether a reroute should be requested now.
func (c *Controller) scoreOffRoute(raw domain.Coordinate, kmh float64, now time.Time) bool {
	path := c.route.Path
	switch d := geo.NearestDistance(raw, path); {
	case d > c.cfg.OffRouteFarDistance:
		c.offRouteScore += 5
	case d > c.cfg.OffRouteMidDistance:
		c.offRouteScore += 3
	default:
		c.offRouteScore++
	}
	if c.hasHeading && kmh > c.cfg.WrongWaySpeed {
		road := geo.SegmentBearing(path, c.routeIndex)
		if math.Abs(geo.AngleDiff(c.heading, road)) > c.cfg.WrongWayAngle {
			c.offRouteScore += 3
		}
	}

	if c.reroutePending && now.Sub(c.pendingSince) >= c.cfg.ReroutePending {
		c.reroutePending = false
	}
	if c.offRouteScore < c.cfg.RerouteScore || c.reroutePending {
		return false
	}
	if !c.lastReroute.IsZero() && now.Sub(c.lastReroute) < c.cfg.RerouteCooldown {
		return false
	}
	c.lastReroute = now
	c.pendingSince = now
	c.reroutePending = true
	c.offRouteScore = 0
	return true
}

// DeadReckon synthesizes a sample when the last real fix is stale but recent
// enough to extrapolate from. Snapped fixes are advanced along the route,
// others along the current heading.
func (c *Controller) DeadReckon(now time.Time) (domain.PositionSample, bool) {
	if c.route == nil || c.lastReal.IsZero() {
		return domain.PositionSample{}, false
	}
	age := now.Sub(c.lastReal)
	if age < c.cfg.DeadReckonMinAge || age > c.cfg.DeadReckonMaxAge {
		return domain.PositionSample{}, false
	}
	if c.realSpeed*3.6 <= c.cfg.DeadReckonMinSpeed {
		return domain.PositionSample{}, false
	}

	travelled := c.realSpeed * age.Seconds()
	var p domain.Coordinate
	if c.realSnapped && c.realRouteIndex < len(c.cum) {
		along := c.cum[c.realRouteIndex] + geo.Distance(c.route.Path[c.realRouteIndex], c.realPosition)
		p, _ = geo.PointAlong(c.route.Path, c.cum, along+travelled)
	} else {
		p = geo.Destination(c.realPosition, c.heading, travelled)
	}

	heading, speed := c.heading, c.realSpeed
	return domain.PositionSample{
		Lat:       p.Lat,
		Lng:       p.Lng,
		Heading:   &heading,
		Speed:     &speed,
		Timestamp: now,
		Synthetic: true,
	}, true
}
