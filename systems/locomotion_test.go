package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/serpent/components"
)

func TestAdvance_StaysInBounds(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	rng := rand.New(rand.NewSource(99))
	W, H := cfg.World.Width, cfg.World.Height

	snakes := []*components.Snake{
		newTestSnake(cfg, 1, 30, 30, math.Pi, 10),
		newTestSnake(cfg, 2, W-30, H-30, 0, 40),
		newTestSnake(cfg, 3, W/2, H/2, 1, 150),
	}
	for tick := 0; tick < 3000; tick++ {
		for _, s := range snakes {
			dir := components.Vec2{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1}
			loco.Advance(s, dir, rng.Intn(3) == 0, cfg.Physics.TickMs)
			r := s.HeadRadius
			if s.Pos.X < r || s.Pos.X > W-r || s.Pos.Y < r || s.Pos.Y > H-r {
				t.Fatalf("tick %d: snake %d at %+v outside [%f, %f-r]", tick, s.ID, s.Pos, r, W)
			}
			if s.BoostEnergy < 0 || s.BoostEnergy > s.BoostMax {
				t.Fatalf("tick %d: boost energy %f outside [0, %f]", tick, s.BoostEnergy, s.BoostMax)
			}
			if s.Len() < 3 {
				t.Fatalf("tick %d: %d segments", tick, s.Len())
			}
		}
	}
}

func TestAdvance_InfiniteBoostHoldsEnergyAtMax(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	s := newTestSnake(cfg, 1, 2000, 2000, 0, 30)
	s.BoostEnergy = 1
	s.GrantInfiniteBoost(10000)

	segs := s.Len()
	for i := 0; i < 300; i++ {
		loco.Advance(s, components.Vec2{X: math.Cos(float64(i) * 0.05), Y: math.Sin(float64(i) * 0.05)}, true, cfg.Physics.TickMs)
		if s.BoostEnergy != s.BoostMax {
			t.Fatalf("tick %d: energy %f, want exactly %f", i, s.BoostEnergy, s.BoostMax)
		}
	}
	if s.Len() != segs {
		t.Errorf("infinite boost shed segments: %d -> %d", segs, s.Len())
	}
}

func TestAdvance_BoostDrainsAndRegenerates(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	s := newTestSnake(cfg, 1, 2000, 2000, 0, 10)

	loco.Advance(s, s.Dir, true, 100)
	want := cfg.Snake.BoostMax - cfg.Snake.BoostDrainPerSec*0.1
	if !approxEqual(s.BoostEnergy, want, 1e-9) {
		t.Errorf("after boost: energy %f, want %f", s.BoostEnergy, want)
	}
	if !s.Boosting {
		t.Error("Boosting flag not set")
	}
	speed := s.Vel.Len()
	if !approxEqual(speed, cfg.Snake.BoostSpeed, 1e-9) {
		t.Errorf("boost speed %f, want %f", speed, cfg.Snake.BoostSpeed)
	}

	loco.Advance(s, s.Dir, false, 100)
	if !approxEqual(s.BoostEnergy, want+cfg.Snake.BoostRegenPerSec*0.1, 1e-9) {
		t.Errorf("after regen: energy %f", s.BoostEnergy)
	}

	s.BoostEnergy = 0
	loco.Advance(s, s.Dir, true, 16)
	if s.Boosting {
		t.Error("boosting with no energy")
	}
}

func TestAdvance_SpeedSurgeMultipliesBoost(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	s := newTestSnake(cfg, 1, 2000, 2000, 0, 10)
	s.GrantSpeedSurge(1.5, 5000)
	loco.Advance(s, s.Dir, true, 16)
	if got, want := s.Vel.Len(), cfg.Snake.BoostSpeed*1.5; !approxEqual(got, want, 1e-9) {
		t.Errorf("surged boost speed %f, want %f", got, want)
	}
}

func TestAdvance_TurnRateClamped(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	s := newTestSnake(cfg, 1, 2000, 2000, 0, 10)

	// Ask for a full reversal.
	loco.Advance(s, components.Vec2{X: -1, Y: 0.0001}, false, 100)
	maxTurn := cfg.Snake.MaxTurnRate * 0.1
	if math.Abs(s.Heading) > maxTurn+1e-9 {
		t.Errorf("heading changed by %f, max %f", math.Abs(s.Heading), maxTurn)
	}
}

func TestAdvance_BadInputKeepsHeading(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	tests := []struct {
		name string
		dir  components.Vec2
		dt   float64
	}{
		{"zero direction", components.Vec2{}, 16},
		{"NaN direction", components.Vec2{X: math.NaN(), Y: 1}, 16},
		{"infinite direction", components.Vec2{X: math.Inf(1), Y: 0}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSnake(cfg, 1, 2000, 2000, 0.5, 10)
			loco.Advance(s, tt.dir, false, tt.dt)
			if !approxEqual(s.Heading, 0.5, 1e-12) {
				t.Errorf("heading = %f, want 0.5", s.Heading)
			}
		})
	}

	for _, dt := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		s := newTestSnake(cfg, 1, 2000, 2000, 0.5, 10)
		before := s.Pos
		loco.Advance(s, components.Vec2{X: 1}, true, dt)
		if s.Pos != before {
			t.Errorf("dt=%v moved snake from %+v to %+v", dt, before, s.Pos)
		}
	}
}

func TestAdvance_BodyFollowsTrail(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	s := newTestSnake(cfg, 1, 2000, 2000, 0, 12)
	for i := 0; i < 50; i++ {
		loco.Advance(s, components.Vec2{X: 0, Y: 1}, false, cfg.Physics.TickMs)
	}
	if s.Segments[0].X != s.Pos.X || s.Segments[0].Y != s.Pos.Y {
		t.Errorf("head segment %+v not at position %+v", s.Segments[0], s.Pos)
	}
	for i := 1; i < s.Len(); i++ {
		p := s.Trail.At(components.TrailOffset(i))
		if s.Segments[i].X != p.X || s.Segments[i].Y != p.Y {
			t.Fatalf("segment %d at (%f,%f), trail offset has %+v", i, s.Segments[i].X, s.Segments[i].Y, p)
		}
	}
}

func TestConfine_AfterGrowthAtWall(t *testing.T) {
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	s := newTestSnake(cfg, 1, 30, 2000, math.Pi, 10)
	for range 20 {
		loco.Advance(s, components.Vec2{X: -1}, false, cfg.Physics.TickMs)
	}
	before := s.HeadRadius
	if s.Pos.X != before {
		t.Fatalf("x = %v, want clamped to %v", s.Pos.X, before)
	}

	s.Grow(300)
	if s.HeadRadius <= before {
		t.Fatalf("head radius %v did not grow from %v", s.HeadRadius, before)
	}
	loco.Confine(s)
	if s.Pos.X != s.HeadRadius {
		t.Errorf("x = %v, want %v", s.Pos.X, s.HeadRadius)
	}
	if h := s.Segments[0]; h.X != s.Pos.X || h.Y != s.Pos.Y {
		t.Errorf("head segment (%v, %v), want %+v", h.X, h.Y, s.Pos)
	}

	mid := newTestSnake(cfg, 2, 2000, 2000, 0, 10)
	pos := mid.Pos
	loco.Confine(mid)
	if mid.Pos != pos {
		t.Errorf("confine moved an inner body: %+v -> %+v", pos, mid.Pos)
	}
}
