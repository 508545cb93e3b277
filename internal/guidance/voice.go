package guidance

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

// band is one distance band of spoken maneuver guidance. The threshold is
// max(base, speed*seconds); minSpeed is km/h.
type band struct {
	kind     TriggerKind
	base     float64
	seconds  float64
	minSpeed float64
}

// Ordered farthest to nearest. TriggerNow is handled by Config.NowRadius.
var bands = []band{
	{kind: TriggerVeryFar, base: 1000, seconds: 15, minSpeed: 60},
	{kind: TriggerFar, base: 500, seconds: 8, minSpeed: 40},
	{kind: TriggerMedium, base: 250, seconds: 4.5},
	{kind: TriggerNear, base: 100, seconds: 2},
	{kind: TriggerNow},
}

// EvaluateVoiceGuidance runs leg progress, then tracks the current step and
// decides which spoken trigger, if any, fires for the upcoming maneuver.
// routeIndex is the snapped path vertex index, speed is m/s.
func (m *Machine) EvaluateVoiceGuidance(pos domain.Coordinate, routeIndex int, speed float64) []Event {
	events := m.EvaluateLegProgress(pos, speed)
	if m.phase != PhaseGuiding || m.route == nil || len(m.route.Steps) == 0 {
		return events
	}

	steps := m.route.Steps
	idx := m.stepAt(routeIndex)
	m.instruction = steps[idx].Instruction

	if idx != m.lastStepIndex {
		if m.lastStepIndex >= 0 && m.lastStepIndex < idx {
			if left := steps[m.lastStepIndex].Distance; left > m.cfg.LongStepConfirmation {
				events = append(events, speak(fmt.Sprintf("Turn completed, continue straight for %.1f km", left/1000), TriggerNone))
			}
		}
		m.lastStepIndex = idx
		m.lastTrigger = TriggerNone
	}

	if idx+1 >= len(steps) {
		m.next = nil
		m.secondNext = nil
		return append(events, m.watchFinalArrival(pos, speed)...)
	}

	next := steps[idx+1]
	dm := geo.Distance(pos, next.Maneuver.Location)
	m.next = preview(next, dm)

	combined := ""
	if idx+2 < len(steps) {
		second := steps[idx+2]
		m.secondNext = preview(second, dm+next.Distance)
		if next.Distance < m.cfg.ShortStepDistance {
			combined = fmt.Sprintf(", then in %d meters, %s", int(math.Round(next.Distance)), lowerFirst(second.Instruction))
		}
	} else {
		m.secondNext = nil
	}

	if ev, ok := m.trigger(dm, speed, next.Instruction, combined); ok {
		events = append(events, ev)
	}
	return events
}

// stepAt returns the last step starting at or before routeIndex. routeIndex
// is a segment start, so a step ending on that vertex is already behind.
// The step never moves backwards on the same route.
func (m *Machine) stepAt(routeIndex int) int {
	found := 0
	for i, s := range m.route.Steps {
		if s.StartIndex <= routeIndex {
			found = i
		}
	}
	if found < m.lastStepIndex {
		return m.lastStepIndex
	}
	return found
}

func (m *Machine) trigger(dm, speed float64, instruction, combined string) (Event, bool) {
	if math.IsNaN(dm) || math.IsInf(dm, 0) {
		return Event{}, false
	}

	v := kmh(speed)
	width := math.Max(m.cfg.MinBandWidth, math.Max(speed, 0)*m.cfg.BandSecondsAtSpeed)

	for _, b := range bands {
		if v < b.minSpeed {
			continue
		}

		var in bool
		if b.kind == TriggerNow {
			in = dm < m.cfg.NowRadius
		} else {
			threshold := math.Max(b.base, math.Max(speed, 0)*b.seconds)
			in = dm <= threshold && dm > threshold-width
		}
		if !in {
			continue
		}

		if b.kind == m.lastTrigger {
			return Event{}, false
		}
		m.lastTrigger = b.kind
		return speak(phrase(b.kind, dm, instruction, combined), b.kind), true
	}

	return Event{}, false
}

func phrase(kind TriggerKind, dm float64, instruction, combined string) string {
	switch kind {
	case TriggerVeryFar:
		return fmt.Sprintf("In %.1f km, %s", dm/1000, lowerFirst(instruction))
	case TriggerFar, TriggerMedium:
		return fmt.Sprintf("In %d meters, %s", int(math.Round(dm/10)*10), lowerFirst(instruction))
	case TriggerNear:
		return "Prepare to " + lowerFirst(instruction) + combined
	default:
		return instruction + combined
	}
}

func (m *Machine) watchFinalArrival(pos domain.Coordinate, speed float64) []Event {
	if m.arrivalSpoken {
		return nil
	}

	radius := m.cfg.FinalArrivalFastRadius
	if kmh(speed) < m.cfg.FinalArrivalSlowSpeed {
		radius = m.cfg.FinalArrivalSlowRadius
	}
	if geo.Distance(pos, m.route.Destination()) >= radius {
		return nil
	}

	m.arrivalSpoken = true
	return []Event{
		speak("You have arrived at your destination", TriggerNone),
		{Kind: EventArrived},
	}
}

func preview(s domain.NavigationStep, distance float64) *domain.ManeuverPreview {
	return &domain.ManeuverPreview{
		Type:              s.Maneuver.Type,
		Modifier:          s.Maneuver.Modifier,
		DistanceMeters:    distance,
		Instruction:       s.Instruction,
		FollowingDistance: s.Distance,
	}
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return strings.ToLower(string(r)) + s[n:]
}

