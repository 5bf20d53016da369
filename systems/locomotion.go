package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
)

// MoveResult reports the side effects of one locomotion step.
type MoveResult struct {
	Shed    bool            // a tail segment was lost to boosting
	ShedAt  components.Vec2 // where the lost segment was
	HitWall bool            // the head was clamped against the world edge
}

// Locomotion advances serpents by one fixed step.
type Locomotion struct {
	cfg    *config.SnakeConfig
	width  float64
	height float64
	rng    *rand.Rand
}

// NewLocomotion creates a locomotion system for the given world.
func NewLocomotion(cfg *config.Config, rng *rand.Rand) *Locomotion {
	return &Locomotion{
		cfg:    &cfg.Snake,
		width:  cfg.World.Width,
		height: cfg.World.Height,
		rng:    rng,
	}
}

// Advance steers s toward desired (turn-rate limited), applies the speed and
// boost model, moves it, clamps it to the world and updates the body.
// A zero or non-finite desired direction keeps the current heading.
func (l *Locomotion) Advance(s *components.Snake, desired components.Vec2, boost bool, dtMs float64) MoveResult {
	var res MoveResult
	if !s.Alive || !(dtMs > 0) || !finite(dtMs) {
		return res
	}
	dt := dtMs / 1000

	desired = sanitizeDir(desired, s.Dir)
	s.TargetDir = desired

	// Heading control
	maxTurn := s.Model.TurnRate * dt
	delta := clampFloat(angleDelta(s.Heading, desired.Angle()), -maxTurn, maxTurn)
	s.Heading = normalizeAngle(s.Heading + delta)
	s.Dir = components.FromAngle(s.Heading)

	s.TickTimers(dtMs)

	// Speed and boost energy
	speed := s.Speed
	infinite := s.InfiniteBoost()
	s.Boosting = boost && (infinite || s.BoostEnergy > 0)
	if s.Boosting {
		speed = l.cfg.BoostSpeed * s.SpeedMultiplier
		if !infinite {
			s.BoostEnergy -= l.cfg.BoostDrainPerSec * dt
			if s.BoostEnergy < 0 {
				s.BoostEnergy = 0
			}
			if s.Len() > l.cfg.BoostShedFloor && l.rng.Float64() < l.cfg.BoostShedChance {
				tail := s.Tail()
				if s.Shrink(1) == 1 {
					res.Shed = true
					res.ShedAt = components.Vec2{X: tail.X, Y: tail.Y}
					if s.Score > 0 {
						s.Score--
					}
				}
			}
		}
	} else {
		s.BoostEnergy = math.Min(s.BoostMax, s.BoostEnergy+l.cfg.BoostRegenPerSec*dt)
	}
	if infinite {
		s.BoostEnergy = s.BoostMax
	}

	// Integrate and clamp
	s.Vel = s.Dir.Scale(speed)
	s.Pos = s.Pos.Add(s.Vel.Scale(dt))
	res.HitWall = l.clamp(s)

	s.Trail.Push(s.Pos)
	s.FollowTrail()
	return res
}

// clamp keeps the head inside [r, dim-r] and reports whether it touched an edge.
func (l *Locomotion) clamp(s *components.Snake) bool {
	r := s.HeadRadius
	hit := false
	if s.Pos.X <= r {
		s.Pos.X, hit = r, true
	} else if s.Pos.X >= l.width-r {
		s.Pos.X, hit = l.width-r, true
	}
	if s.Pos.Y <= r {
		s.Pos.Y, hit = r, true
	} else if s.Pos.Y >= l.height-r {
		s.Pos.Y, hit = l.height-r, true
	}
	return hit
}

// Confine pulls a serpent back inside the world after its head radius
// changed outside Advance, e.g. by eating against a wall.
func (l *Locomotion) Confine(s *components.Snake) {
	before := s.Pos
	l.clamp(s)
	if s.Pos != before {
		s.FollowTrail()
	}
}

// Displace moves a serpent and its trail by d, clamped to the world.
func (l *Locomotion) Displace(s *components.Snake, d components.Vec2) {
	if !d.Finite() {
		return
	}
	s.Pos = s.Pos.Add(d)
	s.Trail.Translate(d)
	l.clamp(s)
	s.FollowTrail()
}

// SampleSpacing returns the trail sample spacing for a cruise speed at the given tick.
func SampleSpacing(speed, tickMs float64) float64 {
	return speed * tickMs / 1000
}
