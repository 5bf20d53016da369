package game

import (
	"math"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/systems"
	"github.com/pthm-cable/serpent/telemetry"
)

// RespawnPlayer places a fresh player if the current one is dead and
// returns it. A live player is returned unchanged.
func (g *Game) RespawnPlayer() *components.Snake {
	if g.player != nil && g.player.Alive {
		return g.player
	}
	g.player = g.newAgent(components.KindPlayer)
	g.cam.SnapTo(g.player.Pos.X, g.player.Pos.Y)
	g.rebuildRoster()
	return g.player
}

// SpawnBoss brings in a boss of the given kind. At most one boss is active;
// if one already is, it is returned and nothing spawns.
func (g *Game) SpawnBoss(kind components.BossKind) *components.Boss {
	if g.boss != nil {
		return g.boss
	}
	if len(g.cfg.Boss.Kinds) == 0 {
		return nil
	}
	g.nextID++
	pos := g.spawnPoint()
	spec := g.bosses.KindConfig(kind)
	spacing := systems.SampleSpacing(spec.Speed, g.cfg.Physics.TickMs)

	g.boss = g.bosses.Spawn(g.nextID, kind, pos, g.spawnHeading(pos), spacing, g.cfg.Snake.TrailSlack)
	g.boss.Body.BornTick = g.tick
	g.record(telemetry.NewBossEvent(telemetry.EventBossSpawn, g.tick, g.boss.Body.ID, 0))
	g.logger.Info("boss spawned",
		"kind", kind.String(),
		"id", g.boss.Body.ID,
		"tick", g.tick,
		"lifetime_ms", g.boss.LifetimeMs,
	)
	return g.boss
}

// newAgent builds and registers a player or bot at a clear spawn point.
func (g *Game) newAgent(kind components.Kind) *components.Snake {
	g.nextID++
	pos := g.spawnPoint()
	s := components.NewSnake(g.nextID, kind, pos, g.spawnHeading(pos), g.cfg.Snake.InitialSegments, g.model, g.cfg.Snake.BoostMax, g.spacing)
	s.BornTick = g.tick
	g.lifetimes.Register(s.ID, kind, g.tick)
	g.record(telemetry.NewSpawnEvent(g.tick, s.ID, kind))
	return s
}

// spawnBot adds a bot with a little bonus length. Some bots inherit the
// aggressiveness of a life from the hall of fame.
func (g *Game) spawnBot() *components.Snake {
	s := g.newAgent(components.KindBot)
	s.Grow(g.rng.Intn(max(g.cfg.Population.BotScoreJitter, 0) + 1))

	brain := g.ai.Register(s.ID)
	if g.hallOfFame != nil && g.rng.Float64() < g.cfg.HallOfFame.ReseedChance {
		if e, ok := g.hallOfFame.Sample(g.rng); ok {
			brain.Aggressiveness = e.Aggressiveness
		}
	}
	if ls := g.lifetimes.Get(s.ID); ls != nil {
		ls.Aggressiveness = brain.Aggressiveness
	}

	g.bots = append(g.bots, s)
	g.roster = append(g.roster, s)
	return s
}

// retire drops an agent's brain and files its finished life.
func (g *Game) retire(s *components.Snake, cause string, killerID uint32) {
	level := 1
	if b, ok := g.ai.Brain(s.ID); ok {
		level = b.Level
	}
	g.lifetimes.Observe(s.ID, s.Score, s.Len(), level)
	g.ai.Unregister(s.ID)

	stats := g.lifetimes.Remove(s.ID, g.tick, g.cfg.Derived.TickSec, cause, killerID)
	if err := g.output.WriteLife(s.ID, stats); err != nil {
		g.logger.Error("failed to write life", "error", err)
	}
	if s.Kind == components.KindBot && g.hallOfFame != nil {
		g.hallOfFame.Consider(s.ID, stats)
	}
	if s.Kind == components.KindPlayer {
		g.logger.Info("player died",
			"tick", g.tick,
			"cause", cause,
			"score", s.Score,
			"killer", killerID,
		)
	}
}

// botTarget is the roster size replenishment aims for.
func (g *Game) botTarget() int {
	if g.bossAlive() {
		return g.cfg.Population.BossTargetBots
	}
	return g.cfg.Population.TargetBots
}

// replenishBots spawns up to respawn_per_tick bots toward the target.
func (g *Game) replenishBots() {
	target := g.botTarget()
	for i := 0; i < g.cfg.Population.RespawnPerTick && len(g.bots) < target; i++ {
		g.spawnBot()
	}
	g.checkPopulation(target)
}

// updateBossLifecycle ages the active boss, or counts down to the next one.
// Kinds alternate in configuration order.
func (g *Game) updateBossLifecycle(dtMs float64) {
	if !g.cfg.Boss.Enabled || len(g.cfg.Boss.Kinds) == 0 {
		return
	}
	if g.boss != nil {
		if g.boss.Age(dtMs) {
			g.record(telemetry.NewBossEvent(telemetry.EventBossExpire, g.tick, g.boss.Body.ID, 0))
			g.logger.Info("boss expired",
				"kind", g.boss.Kind.String(),
				"id", g.boss.Body.ID,
				"tick", g.tick,
				"health", g.boss.Health,
			)
			g.endBoss()
		}
		return
	}

	g.bossTimerMs -= dtMs
	if g.bossTimerMs > 0 {
		return
	}
	g.SpawnBoss(g.nextBossKind)
	g.nextBossKind = (g.nextBossKind + 1) % components.BossKind(len(g.cfg.Boss.Kinds))
}

// defeatBoss scatters large food along the boss body and credits the agent
// that landed the last accepted hit.
func (g *Game) defeatBoss() {
	b := g.boss
	segs := b.Body.Segments
	if n := g.cfg.Boss.DefeatFood; n > 0 && len(segs) > 0 {
		fc := &g.cfg.Food
		for i := 0; i < n; i++ {
			seg := segs[i*len(segs)/n]
			jx := (g.rng.Float64() - 0.5) * seg.Radius
			jy := (g.rng.Float64() - 0.5) * seg.Radius
			g.food.Spawn(seg.X+jx, seg.Y+jy, components.FoodLarge, fc.LargeValue, fc.LargeRadius)
		}
	}
	if a := g.agentByID(b.LastAttackerID); a != nil {
		a.Grow(g.cfg.Boss.DefeatAward)
	}

	g.record(telemetry.NewBossEvent(telemetry.EventBossDefeat, g.tick, b.Body.ID, b.LastAttackerID))
	g.logger.Info("boss defeated",
		"kind", b.Kind.String(),
		"id", b.Body.ID,
		"tick", g.tick,
		"attacker", b.LastAttackerID,
	)
	g.endBoss()
}

// endBoss removes the boss and restarts the spawn interval.
func (g *Game) endBoss() {
	g.boss.Body.Alive = false
	g.boss = nil
	g.bossTimerMs = g.cfg.Boss.SpawnIntervalMs
}

// spawnPoint picks a point inside the spawn margin that is at least
// spawn_clearance from every live head and the boss body. When no attempt
// is clear, the point with the most room wins.
func (g *Game) spawnPoint() components.Vec2 {
	pop := &g.cfg.Population
	w, h := g.cfg.World.Width, g.cfg.World.Height
	m := math.Min(pop.SpawnMargin, math.Min(w, h)/4)

	best := components.Vec2{X: w / 2, Y: h / 2}
	bestRoom := -1.0
	for i := 0; i < max(pop.SpawnAttempts, 1); i++ {
		p := components.Vec2{
			X: m + g.rng.Float64()*(w-2*m),
			Y: m + g.rng.Float64()*(h-2*m),
		}
		room := g.roomAt(p)
		if room >= pop.SpawnClearance {
			return p
		}
		if room > bestRoom {
			best, bestRoom = p, room
		}
	}
	return best
}

// roomAt returns the distance from p to the nearest live head or boss segment.
func (g *Game) roomAt(p components.Vec2) float64 {
	room := math.Inf(1)
	for _, s := range g.roster {
		if s.Alive {
			room = math.Min(room, components.Dist(p, s.Pos))
		}
	}
	if g.bossAlive() {
		step := max(g.cfg.Performance.BossSegmentStep, 1)
		segs := g.boss.Body.Segments
		for i := 0; i < len(segs); i += step {
			room = math.Min(room, components.Dist(p, components.Vec2{X: segs[i].X, Y: segs[i].Y}))
		}
	}
	return room
}
