package components

import (
	"math"

	"github.com/pthm-cable/serpent/config"
)

// Kind identifies who controls a serpent.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindBot
	KindBoss
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBot:
		return "bot"
	case KindBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Segment is one circular body element. Segment 0 is the head.
type Segment struct {
	X, Y   float64
	Radius float64
}

// BodyModel holds the growth and speed curve for a serpent.
// Players and bots share one model; each boss kind gets a fixed one.
type BodyModel struct {
	BaseRadius        float64
	MaxRadius         float64
	RadiusPerSqrtMass float64
	TailTaper         float64
	MinSpeed          float64
	MaxSpeed          float64
	SpeedMassFactor   float64
	TurnRate          float64
	MinSegments       int
	MaxSegments       int // largest spawn body; growth is not capped
	TrailSlack        int
}

// BodyModelFromConfig returns the shared player/bot body model.
func BodyModelFromConfig(c *config.SnakeConfig) BodyModel {
	return BodyModel{
		BaseRadius:        c.BaseRadius,
		MaxRadius:         c.MaxRadius,
		RadiusPerSqrtMass: c.RadiusPerSqrtMass,
		TailTaper:         c.TailTaper,
		MinSpeed:          c.MinSpeed,
		MaxSpeed:          c.MaxSpeed,
		SpeedMassFactor:   c.SpeedMassFactor,
		TurnRate:          c.MaxTurnRate,
		MinSegments:       max(c.MinSegments, 3),
		MaxSegments:       c.MaxSegments,
		TrailSlack:        c.TrailSlack,
	}
}

// BossBodyModel returns a fixed-size, fixed-speed model for a boss kind.
func BossBodyModel(k *config.BossKindConfig, slack int) BodyModel {
	return BodyModel{
		BaseRadius:  k.Radius,
		MaxRadius:   k.Radius,
		TailTaper:   0.45,
		MinSpeed:    k.Speed,
		MaxSpeed:    k.Speed,
		TurnRate:    k.TurnRate,
		MinSegments: 3,
		MaxSegments: max(k.Segments, 3),
		TrailSlack:  slack,
	}
}

// Snake is a serpentine agent: the player, a bot, or the body of a boss.
type Snake struct {
	ID    uint32
	Kind  Kind
	Alive bool

	Pos       Vec2
	Vel       Vec2
	Dir       Vec2 // unit heading vector
	TargetDir Vec2 // last requested direction
	Heading   float64
	Boosting  bool

	Segments   []Segment
	Score      int
	Mass       float64 // sum of r^2 / 100
	Speed      float64 // cruise speed derived from mass
	HeadRadius float64

	BoostEnergy     float64
	BoostMax        float64
	InfiniteBoostMs float64 // remaining infinite-boost window
	SpeedMultiplier float64 // active while SpeedSurgeMs > 0
	SpeedSurgeMs    float64

	Trail Trail
	Model BodyModel

	// QueryStamp deduplicates grid query results without allocating a set.
	QueryStamp uint64

	Kills     int
	BornTick  int32
	FoodEaten int
}

// NewSnake builds a serpent with n segments laid out straight behind pos.
// spacing is the distance between consecutive trail samples.
func NewSnake(id uint32, kind Kind, pos Vec2, heading float64, n int, model BodyModel, boostMax, spacing float64) *Snake {
	n = clampInt(n, model.MinSegments, model.MaxSegments)
	dir := FromAngle(heading)
	s := &Snake{
		ID:              id,
		Kind:            kind,
		Alive:           true,
		Pos:             pos,
		Dir:             dir,
		TargetDir:       dir,
		Heading:         heading,
		Segments:        make([]Segment, n),
		BoostEnergy:     boostMax,
		BoostMax:        boostMax,
		SpeedMultiplier: 1,
		Model:           model,
		Trail:           NewTrail(TrailCapacity(n, model.TrailSlack), pos, dir, spacing),
	}
	s.recompute()
	s.FollowTrail()
	return s
}

// Len returns the segment count.
func (s *Snake) Len() int { return len(s.Segments) }

// Head returns the head segment.
func (s *Snake) Head() Segment { return s.Segments[0] }

// Tail returns the last segment.
func (s *Snake) Tail() Segment { return s.Segments[len(s.Segments)-1] }

// Grow appends n segments cloned at the tail and adds n to the score.
func (s *Snake) Grow(n int) {
	if n <= 0 {
		return
	}
	s.Score += n
	tail := s.Tail()
	for range n {
		s.Segments = append(s.Segments, tail)
	}
	s.Trail.Reserve(TrailCapacity(len(s.Segments), s.Model.TrailSlack))
	s.recompute()
}

// Shrink pops up to n tail segments, never going below the model floor.
// It returns the number of segments actually removed.
func (s *Snake) Shrink(n int) int {
	if n <= 0 {
		return 0
	}
	removed := 0
	for removed < n && len(s.Segments) > s.Model.MinSegments {
		s.Segments = s.Segments[:len(s.Segments)-1]
		removed++
	}
	if removed > 0 {
		s.recompute()
	}
	return removed
}

// recompute derives head radius, taper, mass and cruise speed from the body.
func (s *Snake) recompute() {
	m := s.Model
	raw := 0.0
	for _, seg := range s.Segments {
		raw += seg.Radius * seg.Radius
	}
	raw /= 100

	head := clampF(m.BaseRadius+m.RadiusPerSqrtMass*math.Sqrt(raw), m.BaseRadius, m.MaxRadius)
	last := float64(len(s.Segments) - 1)
	mass := 0.0
	for i := range s.Segments {
		r := head * (1 - m.TailTaper*float64(i)/last)
		s.Segments[i].Radius = r
		mass += r * r
	}
	s.HeadRadius = head
	s.Mass = mass / 100
	s.Speed = clampF(m.MaxSpeed-s.Mass*m.SpeedMassFactor, m.MinSpeed, m.MaxSpeed)
}

// FollowTrail places the head at the live position and every other
// segment at its trail offset.
func (s *Snake) FollowTrail() {
	s.Segments[0].X, s.Segments[0].Y = s.Pos.X, s.Pos.Y
	for i := 1; i < len(s.Segments); i++ {
		p := s.Trail.At(TrailOffset(i))
		s.Segments[i].X, s.Segments[i].Y = p.X, p.Y
	}
}

// InfiniteBoost reports whether an infinite-boost window is active.
func (s *Snake) InfiniteBoost() bool { return s.InfiniteBoostMs > 0 }

// GrantInfiniteBoost opens (or extends to) an infinite-boost window.
func (s *Snake) GrantInfiniteBoost(ms float64) {
	if !(ms > 0) {
		return
	}
	s.InfiniteBoostMs = max(s.InfiniteBoostMs, ms)
	s.BoostEnergy = s.BoostMax
}

// GrantSpeedSurge opens a timed speed-multiplier window.
func (s *Snake) GrantSpeedSurge(multiplier, ms float64) {
	if !(ms > 0) || !(multiplier > 0) || math.IsInf(multiplier, 0) {
		return
	}
	s.SpeedMultiplier = multiplier
	s.SpeedSurgeMs = max(s.SpeedSurgeMs, ms)
}

// TickTimers counts down the power-up windows.
func (s *Snake) TickTimers(dtMs float64) {
	if s.InfiniteBoostMs > 0 {
		s.InfiniteBoostMs -= dtMs
		s.BoostEnergy = s.BoostMax
		if s.InfiniteBoostMs < 0 {
			s.InfiniteBoostMs = 0
		}
	}
	if s.SpeedSurgeMs > 0 {
		s.SpeedSurgeMs -= dtMs
		if s.SpeedSurgeMs <= 0 {
			s.SpeedSurgeMs = 0
			s.SpeedMultiplier = 1
		}
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
