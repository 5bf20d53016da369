package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
)

// ContactKind is the outcome of an agent touching a boss.
type ContactKind uint8

const (
	ContactKill ContactKind = iota // lethal boss touched the agent
	ContactPush                    // push-back boss shoved the agent
	ContactHit                     // boosting agent struck the boss tail
)

// BossContact is one agent-vs-boss interaction found this tick.
type BossContact struct {
	Agent   *components.Snake
	Kind    ContactKind
	Push    components.Vec2 // displacement for ContactPush
	Damaged bool            // ContactHit passed the damage cooldown
}

// BossSystem steers bosses and detects their contacts with agents.
type BossSystem struct {
	cfg    *config.BossConfig
	ai     *config.AIConfig
	perf   *config.PerformanceConfig
	width  float64
	height float64
	rng    *rand.Rand
	loco   *Locomotion

	foodBuf []FoodView
}

// NewBossSystem creates a boss system sharing the given locomotion.
func NewBossSystem(cfg *config.Config, loco *Locomotion, rng *rand.Rand) *BossSystem {
	return &BossSystem{
		cfg:    &cfg.Boss,
		ai:     &cfg.AI,
		perf:   &cfg.Performance,
		width:  cfg.World.Width,
		height: cfg.World.Height,
		rng:    rng,
		loco:   loco,
	}
}

// KindConfig returns the settings for a kind, falling back to the first entry.
func (s *BossSystem) KindConfig(kind components.BossKind) config.BossKindConfig {
	if int(kind) < len(s.cfg.Kinds) {
		return s.cfg.Kinds[kind]
	}
	return s.cfg.Kinds[0]
}

// Spawn builds a boss of the given kind at pos.
func (s *BossSystem) Spawn(id uint32, kind components.BossKind, pos components.Vec2, heading, spacing float64, slack int) *components.Boss {
	spec := s.KindConfig(kind)
	body := components.NewSnake(id, components.KindBoss, pos, heading, spec.Segments, components.BossBodyModel(&spec, slack), 0, spacing)
	b := components.NewBoss(body, kind, spec)
	b.Waypoint = s.randomWaypoint()
	return b
}

// Update refreshes target memory, aims and advances the boss one tick.
func (s *BossSystem) Update(b *components.Boss, roster []*components.Snake, food FoodSource, dtMs float64) MoveResult {
	s.retarget(b, roster, food, dtMs)
	aim := s.Aim(b, roster, food)
	dir := BoundaryBlend(b.Body.Pos, sanitizeDir(aim.Sub(b.Body.Pos), b.Body.Dir), s.width, s.height, s.ai.BoundaryMargin, s.ai.BoundaryWeight)
	return s.loco.Advance(b.Body, dir, false, dtMs)
}

// retarget counts the cooldown down and, once it expires, picks prey or
// food. A held target is only replaced by one that is better by the
// configured margin, so near-equal candidates do not cause thrashing.
func (s *BossSystem) retarget(b *components.Boss, roster []*components.Snake, food FoodSource, dtMs float64) {
	if b.RetargetCooldownMs > 0 {
		b.RetargetCooldownMs -= dtMs
	}

	current := findAgent(roster, nil, b.PreyID)
	if current != nil && components.Dist(b.Body.Pos, current.Pos) > s.cfg.PreyRadius {
		current = nil
		b.PreyID = 0
	}
	if b.HasFood {
		if _, ok := food.LookupFood(b.Food); !ok {
			b.HasFood = false
		}
	}
	if b.RetargetCooldownMs > 0 {
		return
	}
	b.RetargetCooldownMs = s.cfg.RetargetCooldownMs

	var cand *components.Snake
	candDist := s.cfg.PreyRadius
	for _, o := range roster {
		if !o.Alive {
			continue
		}
		if d := components.Dist(b.Body.Pos, o.Pos); d <= candDist {
			cand, candDist = o, d
		}
	}
	if cand != nil {
		if current == nil || (cand != current && candDist < components.Dist(b.Body.Pos, current.Pos)*(1-s.cfg.RetargetMargin)) {
			b.PreyID = cand.ID
		}
		b.HasFood = false
		return
	}
	if current != nil {
		return
	}

	if food == nil {
		return
	}
	s.foodBuf = food.NearbyFood(s.foodBuf[:0], b.Body.Pos.X, b.Body.Pos.Y, s.cfg.FoodRadius)
	best, bestScore := -1, 0.0
	for i, f := range s.foodBuf {
		if score := float64(f.Value) / (components.Dist(b.Body.Pos, f.Pos) + 1); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return
	}
	pick := s.foodBuf[best]
	if b.HasFood {
		if held, ok := food.LookupFood(b.Food); ok {
			heldScore := float64(held.Value) / (components.Dist(b.Body.Pos, held.Pos) + 1)
			if bestScore < heldScore*(1+s.cfg.RetargetMargin) {
				return
			}
		}
	}
	b.Food = pick.Ref
	b.HasFood = true
}

// Aim returns the point the boss steers toward: a lead-predicted cut-off
// point on its prey, its chosen food, or a wander waypoint.
func (s *BossSystem) Aim(b *components.Boss, roster []*components.Snake, food FoodSource) components.Vec2 {
	body := b.Body
	if prey := findAgent(roster, nil, b.PreyID); prey != nil {
		aim := LeadTarget(body.Pos, body.Speed, prey.Pos, prey.Vel, s.cfg.LeadTimeMax)
		return CutOff(aim, body.Pos, prey.Vel, s.cfg.CutoffOffset)
	}
	if b.HasFood && food != nil {
		if f, ok := food.LookupFood(b.Food); ok {
			return f.Pos
		}
		b.HasFood = false
	}
	if components.Dist(body.Pos, b.Waypoint) < body.HeadRadius*4 {
		b.Waypoint = s.randomWaypoint()
	}
	return b.Waypoint
}

// Collide appends the contacts between the boss and every live agent.
// A boosting agent whose head strikes one of the last TailSegments
// segments damages the boss (subject to the cooldown) and is unharmed.
// Any other contact kills the agent if the boss is lethal, or pushes it
// away otherwise.
func (s *BossSystem) Collide(b *components.Boss, roster []*components.Snake, clock Clock, dst []BossContact) []BossContact {
	if !b.Alive() {
		return dst
	}
	body := b.Body
	segs := body.Segments
	tailStart := max(len(segs)-s.cfg.TailSegments, 1)
	step := max(s.perf.BossSegmentStep, 1)

	for _, a := range roster {
		if !a.Alive {
			continue
		}
		if a.Boosting {
			if i := touchingSegment(a.Pos, a.HeadRadius, segs, tailStart, 1); i >= 0 {
				damaged := b.TryDamage(1, clock.NowMs(), s.cfg.HitCooldownMs)
				if damaged {
					b.LastAttackerID = a.ID
				}
				dst = append(dst, BossContact{Agent: a, Kind: ContactHit, Damaged: damaged})
				continue
			}
		}

		hit := touchingSegment(a.Pos, a.HeadRadius, segs, 0, step)
		from := components.Vec2{}
		if hit >= 0 {
			from = components.Vec2{X: segs[hit].X, Y: segs[hit].Y}
		} else if j := touchingSegment(body.Pos, body.HeadRadius, a.Segments, 0, 1); j >= 0 {
			hit = 0
			from = body.Pos
		}
		if hit < 0 {
			continue
		}
		if b.Lethal() {
			dst = append(dst, BossContact{Agent: a, Kind: ContactKill})
			continue
		}
		away := sanitizeDir(a.Pos.Sub(from), a.Dir.Scale(-1))
		dst = append(dst, BossContact{Agent: a, Kind: ContactPush, Push: away.Scale(b.Spec.PushImpulse)})
	}
	return dst
}

// touchingSegment returns the index of the first segment from start
// (every step-th) overlapping the circle at p, or -1.
func touchingSegment(p components.Vec2, r float64, segs []components.Segment, start, step int) int {
	for i := start; i < len(segs); i += step {
		seg := segs[i]
		dx := p.X - seg.X
		dy := p.Y - seg.Y
		rr := r + seg.Radius
		if dx*dx+dy*dy < rr*rr {
			return i
		}
	}
	return -1
}

func (s *BossSystem) randomWaypoint() components.Vec2 {
	m := math.Min(s.ai.WanderMargin*2, math.Min(s.width, s.height)/4)
	return components.Vec2{
		X: m + s.rng.Float64()*(s.width-2*m),
		Y: m + s.rng.Float64()*(s.height-2*m),
	}
}
