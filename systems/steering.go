package systems

import (
	"math"

	"github.com/pthm-cable/serpent/components"
)

// BoundaryBlend bends dir away from walls closer than margin. The push grows
// linearly from zero at the margin to weight at the wall.
func BoundaryBlend(pos, dir components.Vec2, width, height, margin, weight float64) components.Vec2 {
	if !(margin > 0) {
		return dir
	}
	var push components.Vec2
	if pos.X < margin {
		push.X += (margin - pos.X) / margin
	} else if pos.X > width-margin {
		push.X -= (pos.X - (width - margin)) / margin
	}
	if pos.Y < margin {
		push.Y += (margin - pos.Y) / margin
	} else if pos.Y > height-margin {
		push.Y -= (pos.Y - (height - margin)) / margin
	}
	if push.X == 0 && push.Y == 0 {
		return dir
	}
	blended := dir.Add(push.Scale(weight))
	if blended.LenSq() < 1e-12 {
		return push.Normalize()
	}
	return blended.Normalize()
}

// LeadTarget predicts where a target will be when a pursuer at from, moving
// at speed, could reach it. The lead time is capped at maxLead seconds.
func LeadTarget(from components.Vec2, speed float64, target, targetVel components.Vec2, maxLead float64) components.Vec2 {
	dist := components.Dist(from, target)
	lead := maxLead
	if speed > 1e-6 {
		lead = math.Min(dist/speed, maxLead)
	}
	return target.Add(targetVel.Scale(lead))
}

// CutOff shifts an aim point sideways off the target's line of travel,
// toward the pursuer's side, so the pursuer crosses in front of it.
func CutOff(aim, from, targetVel components.Vec2, offset float64) components.Vec2 {
	perp := targetVel.Perp().Normalize()
	if perp.LenSq() == 0 {
		return aim
	}
	if perp.Dot(from.Sub(aim)) < 0 {
		perp = perp.Scale(-1)
	}
	return aim.Add(perp.Scale(offset))
}
