package game

import (
	"github.com/pthm-cable/serpent/camera"
	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/systems"
)

// AgentView is a read-only copy of one agent for presentation.
type AgentView struct {
	ID       uint32
	Kind     components.Kind
	Alive    bool
	Pos      components.Vec2
	Heading  float64
	Segments []components.Segment
	Score    int
	Mass     float64

	BoostEnergy   float64
	BoostMax      float64
	Boosting      bool
	InfiniteBoost bool
	SpeedSurge    bool

	// AI state; zero values for agents without a brain
	Level int
	State components.BotState
}

// BossView is a read-only copy of the active boss.
type BossView struct {
	ID         uint32
	Kind       components.BossKind
	Health     int
	MaxHealth  int
	LifetimeMs float64
	Segments   []components.Segment
}

// Snapshot is the arena state exposed after a step.
type Snapshot struct {
	Tick      int32
	ElapsedMs float64
	PlayerID  uint32
	Agents    []AgentView // player first, then bots
	HasBoss   bool
	Boss      BossView
	Food      []systems.FoodView
}

// Snapshot returns a freshly allocated copy of the arena state.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{}
	g.SnapshotInto(s)
	return s
}

// SnapshotInto fills dst, reusing its slices so a caller that keeps one
// Snapshot across frames does not allocate once it has grown.
func (g *Game) SnapshotInto(dst *Snapshot) {
	dst.Tick = g.tick
	dst.ElapsedMs = g.elapsedMs
	dst.PlayerID = 0
	if g.player != nil {
		dst.PlayerID = g.player.ID
	}

	n := len(g.roster)
	if cap(dst.Agents) < n {
		grown := make([]AgentView, n)
		copy(grown, dst.Agents[:cap(dst.Agents)])
		dst.Agents = grown
	}
	dst.Agents = dst.Agents[:n]
	for i, s := range g.roster {
		v := &dst.Agents[i]
		segs := append(v.Segments[:0], s.Segments...)
		*v = AgentView{
			ID:            s.ID,
			Kind:          s.Kind,
			Alive:         s.Alive,
			Pos:           s.Pos,
			Heading:       s.Heading,
			Segments:      segs,
			Score:         s.Score,
			Mass:          s.Mass,
			BoostEnergy:   s.BoostEnergy,
			BoostMax:      s.BoostMax,
			Boosting:      s.Boosting,
			InfiniteBoost: s.InfiniteBoost(),
			SpeedSurge:    s.SpeedSurgeMs > 0,
		}
		if brain, ok := g.ai.Brain(s.ID); ok {
			v.Level = brain.Level
			v.State = brain.State
		}
	}

	dst.HasBoss = g.boss != nil
	if b := g.boss; b != nil {
		segs := append(dst.Boss.Segments[:0], b.Body.Segments...)
		dst.Boss = BossView{
			ID:         b.Body.ID,
			Kind:       b.Kind,
			Health:     b.Health,
			MaxHealth:  b.MaxHealth,
			LifetimeMs: b.LifetimeMs,
			Segments:   segs,
		}
	}

	dst.Food = g.food.All(dst.Food[:0])
}

// FoodInView appends the unconsumed food inside the camera's visible world
// rectangle, using the grid built during the last step. A nil camera uses
// the one following the player.
func (g *Game) FoodInView(cam *camera.Camera, dst []systems.FoodView) []systems.FoodView {
	if cam == nil {
		cam = g.cam
	}
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	g.entries = g.grid.QueryAABB(g.entries[:0], minX, minY, maxX, maxY, g.food)
	return g.food.Views(dst, g.entries)
}
