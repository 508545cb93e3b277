package guidance

import (
	"math"

	"turn-guidance-service/internal/geo"
)

// EstimateETA sums the remaining path from routeIndex and returns the
// smoothed ETA in minutes together with the remaining distance in meters.
//
// Speed is floored at ETAMinSpeed so a stopped vehicle does not inflate the
// estimate. A raw estimate more than ETASnapDelta minutes away from the
// smoothed value replaces it outright.
func (m *Machine) EstimateETA(routeIndex int, speed float64) (float64, float64) {
	if m.route == nil {
		return 0, 0
	}

	remaining := geo.RemainingDistance(m.route.Path, routeIndex)
	effective := m.cfg.ETAMinSpeed / 3.6
	if !math.IsNaN(speed) && speed > effective {
		effective = speed
	}
	raw := remaining / effective / 60

	if !m.etaValid || math.Abs(raw-m.etaMinutes) > m.cfg.ETASnapDelta {
		m.etaMinutes = raw
		m.etaValid = true
	} else {
		m.etaMinutes += m.cfg.ETAAlpha * (raw - m.etaMinutes)
	}
	m.remaining = remaining

	return m.etaMinutes, m.remaining
}
