package systems

import (
	"math"

	"github.com/pthm-cable/serpent/components"
)

// DeathCause identifies why an agent died.
type DeathCause uint8

const (
	CauseHeadOn DeathCause = iota // lost a head-to-head against a heavier agent
	CauseBody                     // ran into another agent's body
	CauseWall                     // touched the world edge
	CauseBoss                     // touched a lethal boss
)

func (c DeathCause) String() string {
	switch c {
	case CauseHeadOn:
		return "head_on"
	case CauseBody:
		return "body"
	case CauseWall:
		return "wall"
	case CauseBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Death records a pending kill. Killer is nil for walls and bosses.
type Death struct {
	Victim *components.Snake
	Killer *components.Snake
	Cause  DeathCause
}

// massEpsilon is the relative tolerance under which two masses count as equal.
const massEpsilon = 1e-6

// CompareMass returns -1, 0 or 1 as a is lighter than, equal to or heavier than b.
func CompareMass(a, b float64) int {
	tol := massEpsilon * math.Max(math.Abs(a), math.Abs(b))
	switch d := a - b; {
	case d < -tol:
		return -1
	case d > tol:
		return 1
	default:
		return 0
	}
}

// FoodPickup reports whether a head touches a food item.
func FoodPickup(s *components.Snake, fx, fy, fr float64) bool {
	dx := s.Pos.X - fx
	dy := s.Pos.Y - fy
	rr := s.HeadRadius + fr
	return dx*dx+dy*dy < rr*rr
}

// ConsumeFood credits s with the food's value and marks it consumed.
// Consuming an already consumed item is a no-op and returns false.
func ConsumeFood(s *components.Snake, f *components.Food) bool {
	if f == nil || f.Consumed || !s.Alive {
		return false
	}
	f.Consumed = true
	s.Grow(f.Value)
	s.FoodEaten++
	return true
}

// HeadsTouch reports whether two heads overlap.
func HeadsTouch(a, b *components.Snake) bool {
	rr := a.HeadRadius + b.HeadRadius
	return components.DistSq(a.Pos, b.Pos) < rr*rr
}

// HeadHitsBody reports whether a's head overlaps any of b's body segments,
// testing every step-th segment after the head.
func HeadHitsBody(a, b *components.Snake, step int) bool {
	if step < 1 {
		step = 1
	}
	for i := 1; i < len(b.Segments); i += step {
		seg := b.Segments[i]
		dx := a.Pos.X - seg.X
		dy := a.Pos.Y - seg.Y
		rr := a.HeadRadius + seg.Radius
		if dx*dx+dy*dy < rr*rr {
			return true
		}
	}
	return false
}

// OutOfBounds reports whether the head touches the clamp limit of the world.
func OutOfBounds(s *components.Snake, width, height float64) bool {
	r := s.HeadRadius
	return s.Pos.X <= r || s.Pos.X >= width-r || s.Pos.Y <= r || s.Pos.Y >= height-r
}

// CollisionResolver finds agent-vs-agent and boundary deaths using the grid.
// Detection reads the pre-tick state only, so results never depend on roster order.
type CollisionResolver struct {
	grid        *SpatialGrid
	width       float64
	height      float64
	lethalWalls bool
	bodyStep    int
	maxRadius   float64

	nearby []*components.Snake
	dying  map[uint32]struct{}
}

// NewCollisionResolver creates a resolver bound to a grid.
func NewCollisionResolver(grid *SpatialGrid, width, height float64, lethalWalls bool, bodyStep int, maxRadius float64) *CollisionResolver {
	return &CollisionResolver{
		grid:        grid,
		width:       width,
		height:      height,
		lethalWalls: lethalWalls,
		bodyStep:    max(bodyStep, 1),
		maxRadius:   maxRadius,
		nearby:      make([]*components.Snake, 0, 32),
		dying:       make(map[uint32]struct{}),
	}
}

// Resolve appends one Death per agent that dies this tick. Heads that touch
// are settled by mass alone: the lighter dies, equal masses both survive,
// and the pair is exempt from head-vs-body tests this tick. Any other head
// contact with a body kills the head owner.
func (r *CollisionResolver) Resolve(roster []*components.Snake, dst []Death) []Death {
	clear(r.dying)
	mark := func(d Death) {
		if _, ok := r.dying[d.Victim.ID]; ok {
			return
		}
		r.dying[d.Victim.ID] = struct{}{}
		dst = append(dst, d)
	}

	for _, a := range roster {
		if !a.Alive {
			continue
		}
		if r.lethalWalls && OutOfBounds(a, r.width, r.height) {
			mark(Death{Victim: a, Cause: CauseWall})
		}

		reach := r.grid.RadiusCells(a.HeadRadius + r.maxRadius)
		r.nearby = r.grid.QueryNearbyAgents(r.nearby[:0], a.Pos.X, a.Pos.Y, reach)
		for _, b := range r.nearby {
			if b == a || !b.Alive || b.Kind == components.KindBoss {
				continue
			}
			if HeadsTouch(a, b) {
				switch CompareMass(a.Mass, b.Mass) {
				case -1:
					mark(Death{Victim: a, Killer: b, Cause: CauseHeadOn})
				case 1:
					mark(Death{Victim: b, Killer: a, Cause: CauseHeadOn})
				}
				continue
			}
			if HeadHitsBody(a, b, r.bodyStep) {
				mark(Death{Victim: a, Killer: b, Cause: CauseBody})
			}
		}
	}
	return dst
}
