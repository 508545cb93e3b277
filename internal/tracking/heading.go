package tracking

import (
	"math"

	"turn-guidance-service/internal/geo"
)

// SmoothHeading blends next into prev with an exponential filter, always along
// the shortest arc. Below the stationary speed the previous heading is kept.
// The result is always in [0,360).
func (c Config) SmoothHeading(prev float64, hasPrev bool, next *float64, speedKmh float64) (float64, bool) {
	if next == nil || math.IsNaN(*next) || math.IsInf(*next, 0) {
		return geo.NormalizeBearing(prev), hasPrev
	}
	if !hasPrev {
		return geo.NormalizeBearing(*next), true
	}
	if speedKmh < c.StationarySpeed {
		return geo.NormalizeBearing(prev), true
	}

	alpha := c.LowSpeedAlpha
	if speedKmh > c.HighSpeed {
		alpha = c.HighSpeedAlpha
	}
	return geo.NormalizeBearing(prev + alpha*geo.AngleDiff(prev, *next)), true
}

// blendToward rotates h by weight of the shortest arc toward target.
func blendToward(h, target, weight float64) float64 {
	return geo.NormalizeBearing(h + weight*geo.AngleDiff(h, target))
}
