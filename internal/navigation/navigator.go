// Package navigation ties the engine components into one navigation session.
//
// Navigator is the synchronous core: it owns every piece of mutable session
// state and must be driven from a single goroutine with an explicit clock.
// Session wraps it in an event loop that serializes location pushes, the
// dead-reckoning timer, animation frames and asynchronous reroute results.
package navigation

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"turn-guidance-service/internal/camera"
	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
	"turn-guidance-service/internal/guidance"
	"turn-guidance-service/internal/playback"
	"turn-guidance-service/internal/ports"
	"turn-guidance-service/internal/tracking"
)

var (
	ErrNoRoute       = errors.New("navigation: route required")
	ErrNotNavigating = errors.New("navigation: not navigating")
	ErrNotWaiting    = errors.New("navigation: not waiting for continue")
	ErrSimulating    = errors.New("navigation: simulation in progress")
	ErrSessionClosed = errors.New("navigation: session closed")
)

// Sinks are the outbound collaborators. Any of them may be nil.
type Sinks struct {
	Speaker  ports.Speaker
	Viewport ports.ViewportSink
	State    ports.StateSink
}

// Hooks let the owner react to engine decisions. Any of them may be nil.
type Hooks struct {
	Reroute    func(req ports.RerouteRequest)
	Checkpoint func(state domain.ResumeState)
	Trace      func(sample domain.PositionSample)
	Finished   func()
}

type Navigator struct {
	cfg   Config
	sinks Sinks
	hooks Hooks

	machine *guidance.Machine
	tracker *tracking.Controller
	cam     *camera.Sync
	sim     *playback.Simulator

	id         string
	route      *domain.Route
	navigating bool
	simulating bool

	routeIndex     int
	position       domain.Coordinate
	hasPosition    bool
	heading        float64
	speed          float64
	lastCheckpoint time.Time
}

func NewNavigator(cfg Config, sinks Sinks, hooks Hooks) *Navigator {
	return &Navigator{
		cfg:     cfg,
		sinks:   sinks,
		hooks:   hooks,
		machine: guidance.New(cfg.Guidance),
		tracker: tracking.New(cfg.Tracking),
		cam:     camera.NewSync(cfg.Camera),
		sim:     playback.New(cfg.SimulationSpeed),
	}
}

func (n *Navigator) ID() string { return n.id }
func (n *Navigator) Navigating() bool { return n.navigating }
func (n *Navigator) Simulating() bool { return n.simulating }
func (n *Navigator) Route() *domain.Route { return n.route }
func (n *Navigator) WaitingForContinue() bool { return n.machine.WaitingForContinue() }

// Start begins a session on route. A non-nil resume picks the leg and path
// point to start from; see resumeAt.
func (n *Navigator) Start(ctx context.Context, id string, route *domain.Route, resume *domain.ResumeState, now time.Time) error {
	if route == nil || len(route.Path) < 2 {
		return ErrNoRoute
	}
	if n.navigating {
		n.halt()
	}

	leg, point := resumeAt(route, resume)

	n.id = id
	n.route = route
	n.navigating = true
	n.simulating = false
	n.machine.Start(route, leg)
	n.tracker.Start(route, point)
	n.cam.Reset()
	n.routeIndex = point
	n.position = route.Path[point]
	n.hasPosition = true
	n.heading = geo.SegmentBearing(route.Path, point)
	n.speed = 0

	log.Printf("session=%s event=start legs=%d points=%d leg=%d point=%d", id, len(route.Legs), len(route.Path), leg, point)

	n.machine.EstimateETA(point, 0)
	n.forceCamera(ctx, now)
	n.checkpoint(now)
	n.publish(ctx)
	return nil
}

// resumeAt validates a resume request against route. An unknown leg falls
// back to the route start; the point is clamped into the resumed leg.
func resumeAt(route *domain.Route, resume *domain.ResumeState) (leg, point int) {
	if resume == nil || resume.Leg < 0 || resume.Leg >= len(route.Legs) {
		return 0, 0
	}
	l := route.Legs[resume.Leg]
	return resume.Leg, min(max(resume.PointIndex, l.StartIndex), l.EndIndex)
}

// Stop ends the session. Late callbacks become no-ops.
func (n *Navigator) Stop(ctx context.Context) error {
	if !n.navigating {
		return ErrNotNavigating
	}
	n.halt()
	log.Printf("session=%s event=stop", n.id)
	n.publish(ctx)
	return nil
}

func (n *Navigator) halt() {
	n.navigating = false
	n.simulating = false
	n.sim.Stop()
	n.machine.Stop()
	n.cam.Reset()
}

// Simulate replaces the location source with the playback simulator from the
// current route index.
func (n *Navigator) Simulate(ctx context.Context, now time.Time) error {
	if !n.navigating {
		return ErrNotNavigating
	}
	if n.simulating {
		return ErrSimulating
	}
	if err := n.sim.Start(n.route.Path, n.routeIndex, now); err != nil {
		return err
	}
	n.simulating = true
	log.Printf("session=%s event=simulate from=%d", n.id, n.routeIndex)
	n.publish(ctx)
	return nil
}

// Continue acknowledges a completed leg. With ack false the session ends.
func (n *Navigator) Continue(ctx context.Context, ack bool, now time.Time) error {
	if !n.navigating {
		return ErrNotNavigating
	}
	if !n.machine.WaitingForContinue() {
		return ErrNotWaiting
	}
	if !ack {
		return n.finish(ctx)
	}

	switch n.machine.Continue() {
	case guidance.ContinueFinished:
		return n.finish(ctx)
	case guidance.ContinueAdvanced:
		log.Printf("session=%s event=continue leg=%d", n.id, n.machine.ActiveLeg())
		n.checkpoint(now)
	}
	n.publish(ctx)
	return nil
}

func (n *Navigator) finish(ctx context.Context) error {
	n.halt()
	log.Printf("session=%s event=finished", n.id)
	if n.hooks.Finished != nil {
		n.hooks.Finished()
	}
	n.publish(ctx)
	return nil
}

// OnPosition feeds one live or dead-reckoned sample. It reports whether the
// sample was used.
func (n *Navigator) OnPosition(ctx context.Context, s domain.PositionSample, now time.Time) bool {
	if !n.navigating || n.simulating || n.machine.WaitingForContinue() {
		return false
	}

	res := n.tracker.Update(s, now)
	if !res.Accepted {
		return false
	}
	if !s.Synthetic && n.hooks.Trace != nil {
		n.hooks.Trace(s)
	}
	if res.Reroute {
		n.requestReroute(res)
	}

	n.routeIndex = res.RouteIndex
	n.position, n.hasPosition = res.Position, true
	n.heading = res.Heading
	n.speed = res.Speed

	n.handle(ctx, n.machine.EvaluateVoiceGuidance(res.Position, res.RouteIndex, res.Speed), now)
	n.machine.EstimateETA(res.RouteIndex, res.Speed)

	in := n.cameraInput()
	if res.InterpolationSteps > 0 {
		if cmd, ok := n.cam.Interpolate(in, res.InterpolationSteps, now); ok {
			n.emit(ctx, cmd)
		}
	} else if cmd, ok := n.cam.Update(in, now, false); ok {
		n.emit(ctx, cmd)
	}

	if now.Sub(n.lastCheckpoint) >= n.cfg.CheckpointInterval {
		n.checkpoint(now)
	}
	n.publish(ctx)
	return true
}

// DeadReckon extrapolates from a stale fix and feeds the result through
// OnPosition.
func (n *Navigator) DeadReckon(ctx context.Context, now time.Time) bool {
	if !n.navigating || n.simulating || n.machine.WaitingForContinue() {
		return false
	}
	s, ok := n.tracker.DeadReckon(now)
	if !ok {
		return false
	}
	return n.OnPosition(ctx, s, now)
}

// Frame runs one animation tick: camera coalescing, interpolation micro-tasks
// and playback motion.
func (n *Navigator) Frame(ctx context.Context, now time.Time) {
	if !n.navigating {
		return
	}
	for _, cmd := range n.cam.Frame(now) {
		n.emit(ctx, cmd)
	}
	if n.simulating {
		n.stepSimulation(ctx, now)
	}
}

func (n *Navigator) stepSimulation(ctx context.Context, now time.Time) {
	frozen := n.machine.WaitingForContinue()
	f, ok := n.sim.Step(now, frozen)
	if !ok || frozen {
		return
	}

	n.routeIndex = f.RouteIndex
	n.position, n.hasPosition = f.Position, true
	n.heading = f.Heading
	n.speed = f.Speed

	if f.Done {
		n.simulating = false
		n.speed = 0
		n.handle(ctx, n.machine.EvaluateLegProgress(f.Position, 0), now)
		n.machine.EstimateETA(f.RouteIndex, 0)
		log.Printf("session=%s event=simulation_done", n.id)
		if cmd, ok := n.cam.Update(n.cameraInput(), now, true); ok {
			n.emit(ctx, cmd)
		}
		n.publish(ctx)
		return
	}

	n.handle(ctx, n.machine.EvaluateVoiceGuidance(f.Position, f.RouteIndex, f.Speed), now)
	n.machine.EstimateETA(f.RouteIndex, f.Speed)
	if cmd, ok := n.cam.Update(n.cameraInput(), now, false); ok {
		n.emit(ctx, cmd)
	}
	n.publish(ctx)
}

// ApplyRoute installs a recomputed route. Guidance state starts over on the
// new route; the vehicle position and heading carry over.
func (n *Navigator) ApplyRoute(ctx context.Context, route *domain.Route, now time.Time) error {
	if !n.navigating {
		return ErrNotNavigating
	}
	if route == nil || len(route.Path) < 2 {
		n.tracker.RerouteFailed()
		return ErrNoRoute
	}

	n.route = route
	n.machine.Start(route, 0)
	n.tracker.SetRoute(route)
	n.routeIndex = 0
	log.Printf("session=%s event=rerouted points=%d legs=%d", n.id, len(route.Path), len(route.Legs))

	n.say(ctx, "Route recalculated")
	n.machine.EstimateETA(0, n.speed)
	n.forceCamera(ctx, now)
	n.checkpoint(now)
	n.publish(ctx)
	return nil
}

// RerouteFailed lets the tracker request again after its cooldown.
func (n *Navigator) RerouteFailed() {
	n.tracker.RerouteFailed()
}

// SetCamera changes the perspective and/or the auto-snap pause flag.
func (n *Navigator) SetCamera(ctx context.Context, mode *camera.Mode, paused *bool, now time.Time) {
	if paused != nil {
		n.cam.SetPaused(*paused)
	}
	if mode != nil {
		if cmd, ok := n.cam.SetMode(*mode, now); ok {
			n.emit(ctx, cmd)
		}
	}
	n.publish(ctx)
}

// State returns the read-only session snapshot.
func (n *Navigator) State() domain.NavigationState {
	eta, remaining := n.machine.ETA()
	st := domain.NavigationState{
		SessionID:          n.id,
		IsNavigating:       n.navigating,
		IsSimulating:       n.simulating,
		WaitingForContinue: n.navigating && n.machine.WaitingForContinue(),
		ActiveLeg:          n.machine.ActiveLeg(),
		RouteIndex:         n.routeIndex,
		ETAMinutes:         eta,
		RemainingMeters:    remaining,
		Instruction:        n.machine.Instruction(),
		NextManeuver:       n.machine.NextManeuver(),
		SecondNextManeuver: n.machine.SecondNextManeuver(),
		Heading:            n.heading,
		Speed:              n.speed,
		Snapped:            n.tracker.Snapped(),
		ReroutePending:     n.tracker.ReroutePending(),
		CameraMode:         n.cam.Mode().String(),
		CameraPaused:       n.cam.Paused(),
	}
	if n.hasPosition {
		p := n.position
		st.Position = &p
	}
	return st
}

func (n *Navigator) handle(ctx context.Context, events []guidance.Event, now time.Time) {
	for _, ev := range events {
		switch ev.Kind {
		case guidance.EventSpeak:
			n.say(ctx, ev.Text)
		case guidance.EventLegComplete:
			log.Printf("session=%s event=leg_complete leg=%d overshoot=%v side=%s final=%v", n.id, ev.Leg, ev.Overshoot, ev.Side, ev.FinalLeg)
			n.checkpoint(now)
		case guidance.EventArrived:
			log.Printf("session=%s event=arrived", n.id)
		}
	}
}

func (n *Navigator) say(ctx context.Context, text string) {
	log.Printf("session=%s event=speak text=%q", n.id, text)
	if n.sinks.Speaker == nil {
		return
	}
	if err := n.sinks.Speaker.Speak(ctx, text); err != nil {
		log.Printf("session=%s event=speak_failed err=%v", n.id, err)
	}
}

func (n *Navigator) emit(ctx context.Context, cmd camera.Command) {
	if n.sinks.Viewport == nil {
		return
	}
	if err := n.sinks.Viewport.SetCamera(ctx, cmd.Target, cmd.Forced, cmd.Duration); err != nil {
		log.Printf("session=%s event=camera_failed err=%v", n.id, err)
	}
}

func (n *Navigator) publish(ctx context.Context) {
	if n.sinks.State == nil {
		return
	}
	if err := n.sinks.State.PublishState(ctx, n.State()); err != nil {
		log.Printf("session=%s event=publish_failed err=%v", n.id, err)
	}
}

func (n *Navigator) forceCamera(ctx context.Context, now time.Time) {
	if cmd, ok := n.cam.Update(n.cameraInput(), now, true); ok {
		n.emit(ctx, cmd)
	}
}

func (n *Navigator) cameraInput() camera.Input {
	in := camera.Input{
		Position:         n.position,
		Heading:          n.heading,
		Speed:            n.speed,
		ManeuverDistance: math.Inf(1),
	}
	if next := n.machine.NextManeuver(); next != nil {
		in.ManeuverDistance = next.DistanceMeters
	} else if n.route != nil {
		in.ManeuverDistance = geo.Distance(n.position, n.route.Destination())
	}
	return in
}

func (n *Navigator) checkpoint(now time.Time) {
	n.lastCheckpoint = now
	if n.hooks.Checkpoint == nil {
		return
	}
	n.hooks.Checkpoint(domain.ResumeState{Leg: n.machine.ActiveLeg(), PointIndex: n.routeIndex})
}

func (n *Navigator) requestReroute(res tracking.Result) {
	log.Printf("session=%s event=reroute_requested lat=%.6f lng=%.6f score=%d", n.id, res.Position.Lat, res.Position.Lng, res.OffRouteScore)
	if n.hooks.Reroute == nil {
		return
	}
	req := ports.RerouteRequest{From: res.Position, Heading: res.Heading}
	for i := n.machine.ActiveLeg(); i < len(n.route.Legs); i++ {
		req.Waypoints = append(req.Waypoints, n.route.LegEnd(i))
	}
	if len(req.Waypoints) == 0 {
		req.Waypoints = []domain.Coordinate{n.route.Destination()}
	}
	n.hooks.Reroute(req)
}
