// Package guidance implements the leg/step/maneuver state machine that decides
// when a leg is complete, what should be spoken next, and the smoothed ETA.
//
// The machine is not safe for concurrent use; the navigation session owns it
// and calls it from a single goroutine.
package guidance

import (
	"math"

	"turn-guidance-service/internal/domain"
)

// ContinueResult reports what an acknowledgment did.
type ContinueResult int

const (
	ContinueIgnored ContinueResult = iota
	ContinueAdvanced
	ContinueFinished
)

// Machine holds all mutable guidance state for one route.
type Machine struct {
	cfg   Config
	route *domain.Route

	phase           Phase
	activeLeg       int
	lastFinishedLeg int
	minDistToLegEnd float64

	lastTrigger   TriggerKind
	lastStepIndex int
	arrivalSpoken bool

	etaMinutes float64
	etaValid   bool
	remaining  float64

	instruction string
	next        *domain.ManeuverPreview
	secondNext  *domain.ManeuverPreview
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, minDistToLegEnd: math.Inf(1), lastStepIndex: -1}
}

// Start installs a new route and begins guiding from legIndex.
func (m *Machine) Start(route *domain.Route, legIndex int) {
	m.route = route
	m.Reset(legIndex)
}

// Reset reinitializes every piece of guidance state so that guidance starts
// cleanly at legIndex. Out-of-range indexes fall back to leg 0.
func (m *Machine) Reset(legIndex int) {
	if m.route == nil || legIndex < 0 || legIndex >= len(m.route.Legs) {
		legIndex = 0
	}

	m.phase = PhaseGuiding
	if m.route == nil {
		m.phase = PhaseIdle
	}
	m.activeLeg = legIndex
	m.lastFinishedLeg = legIndex - 1
	m.minDistToLegEnd = math.Inf(1)
	m.lastTrigger = TriggerNone
	m.lastStepIndex = -1
	m.arrivalSpoken = false
	m.etaMinutes = 0
	m.etaValid = false
	m.remaining = 0
	m.instruction = ""
	m.next = nil
	m.secondNext = nil
}

// Stop returns the machine to Idle. Route data is kept for read-only queries.
func (m *Machine) Stop() {
	m.phase = PhaseIdle
	m.next = nil
	m.secondNext = nil
}

// Continue acknowledges a completed leg. It advances to the next leg, or
// finishes guidance if the completed leg was the last one.
func (m *Machine) Continue() ContinueResult {
	if m.phase != PhaseAwaitingContinue {
		return ContinueIgnored
	}

	if m.route == nil || m.lastFinishedLeg >= len(m.route.Legs)-1 {
		m.phase = PhaseIdle
		return ContinueFinished
	}

	m.activeLeg = m.lastFinishedLeg + 1
	m.minDistToLegEnd = math.Inf(1)
	m.lastTrigger = TriggerNone
	m.phase = PhaseGuiding
	return ContinueAdvanced
}

func (m *Machine) Phase() Phase                 { return m.phase }
func (m *Machine) WaitingForContinue() bool     { return m.phase == PhaseAwaitingContinue }
func (m *Machine) ActiveLeg() int               { return m.activeLeg }
func (m *Machine) LastFinishedLeg() int         { return m.lastFinishedLeg }
func (m *Machine) MinDistanceToLegEnd() float64 { return m.minDistToLegEnd }
func (m *Machine) LastTrigger() TriggerKind     { return m.lastTrigger }
func (m *Machine) StepIndex() int               { return m.lastStepIndex }
func (m *Machine) Instruction() string          { return m.instruction }
func (m *Machine) Route() *domain.Route         { return m.route }

// ETA returns the smoothed ETA in minutes and the remaining distance in meters
// from the most recent EstimateETA call.
func (m *Machine) ETA() (minutes float64, remaining float64) { return m.etaMinutes, m.remaining }

func (m *Machine) NextManeuver() *domain.ManeuverPreview       { return copyPreview(m.next) }
func (m *Machine) SecondNextManeuver() *domain.ManeuverPreview { return copyPreview(m.secondNext) }

func copyPreview(p *domain.ManeuverPreview) *domain.ManeuverPreview {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func kmh(speed float64) float64 {
	if math.IsNaN(speed) || speed < 0 {
		return 0
	}
	return speed * 3.6
}
