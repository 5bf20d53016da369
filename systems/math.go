package systems

import (
	"math"

	"github.com/pthm-cable/serpent/components"
)

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a value to the [0, 1] range.
func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	angle = math.Mod(angle, 2*math.Pi)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// angleDelta returns the signed shortest rotation from a to b.
func angleDelta(a, b float64) float64 {
	return normalizeAngle(b - a)
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// sanitizeDir returns a unit direction, or fallback if d is zero or non-finite.
func sanitizeDir(d, fallback components.Vec2) components.Vec2 {
	if !d.Finite() || d.LenSq() < 1e-12 {
		return fallback
	}
	return d.Normalize()
}

// rotate returns v rotated by a radians.
func rotate(v components.Vec2, a float64) components.Vec2 {
	s, c := math.Sincos(a)
	return components.Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}
