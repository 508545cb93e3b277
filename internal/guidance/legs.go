package guidance

import (
	"fmt"
	"math"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

// EvaluateLegProgress checks whether the active leg has been reached or
// overshot. speed is in m/s.
//
// The overshoot rule (was once within OvershootNearRadius, is now beyond
// OvershootFarRadius while still moving) is an approximation: a single bad fix
// far from the leg end satisfies it just like a genuine drive-by.
func (m *Machine) EvaluateLegProgress(pos domain.Coordinate, speed float64) []Event {
	if m.phase != PhaseGuiding || m.route == nil {
		return nil
	}
	if m.activeLeg < 0 || m.activeLeg >= len(m.route.Legs) {
		return nil
	}

	legEnd := m.route.LegEnd(m.activeLeg)
	dist := geo.Distance(pos, legEnd)
	if math.IsInf(dist, 1) {
		return nil
	}
	m.minDistToLegEnd = math.Min(m.minDistToLegEnd, dist)

	v := kmh(speed)
	finalLeg := m.activeLeg == len(m.route.Legs)-1

	radius := m.cfg.ArrivalFastRadius
	if v < m.cfg.ArrivalSlowSpeed {
		radius = m.cfg.ArrivalSlowRadius
	}
	limit := m.cfg.IntermediateLegMaxSpeed
	if finalLeg {
		limit = m.cfg.FinalLegMaxSpeed
	}

	arrived := dist < radius && v < limit
	overshoot := !arrived &&
		m.minDistToLegEnd < m.cfg.OvershootNearRadius &&
		dist > m.cfg.OvershootFarRadius &&
		v > m.cfg.OvershootMinSpeed

	if !arrived && !overshoot {
		return nil
	}
	if m.lastFinishedLeg >= m.activeLeg {
		return nil
	}

	side := m.sideHint(pos, dist)
	target := "your destination"
	if !finalLeg {
		target = fmt.Sprintf("waypoint %d", m.activeLeg+1)
	}

	var text string
	if overshoot {
		text = fmt.Sprintf("You have passed %s by %d meters. Please stop when it is safe", target, int(math.Round(dist)))
	} else {
		text = "You have arrived at " + target
		if side != SideUnknown {
			text += fmt.Sprintf(", it is on your %s", side)
		}
	}

	m.lastFinishedLeg = m.activeLeg
	m.phase = PhaseAwaitingContinue
	m.next = nil
	m.secondNext = nil

	events := []Event{{
		Kind:      EventLegComplete,
		Leg:       m.activeLeg,
		Overshoot: overshoot,
		Side:      side,
		FinalLeg:  finalLeg,
	}}

	// The final-step watch in EvaluateVoiceGuidance may already have announced arrival.
	if !(finalLeg && m.arrivalSpoken) {
		events = append(events, speak(text, TriggerNone))
	}
	if finalLeg {
		m.arrivalSpoken = true
	}

	return events
}

// sideHint compares the bearing of the leg's final road segment with the direct
// bearing from the vehicle to the leg end.
func (m *Machine) sideHint(pos domain.Coordinate, dist float64) Side {
	end := m.route.Legs[m.activeLeg].EndIndex
	if end < 1 || dist < 1 {
		return SideUnknown
	}

	road := geo.Bearing(m.route.Path[end-1], m.route.Path[end])
	direct := geo.Bearing(pos, m.route.Path[end])
	diff := geo.AngleDiff(road, direct)
	if math.Abs(diff) >= m.cfg.SideHintMaxAngle {
		return SideUnknown
	}
	if diff >= 0 {
		return SideRight
	}
	return SideLeft
}
