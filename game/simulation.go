package game

import (
	"math"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/systems"
	"github.com/pthm-cable/serpent/telemetry"
)

// Step advances the arena by dtMs. Non-positive or non-finite steps are
// ignored and steps longer than physics.max_dt_ms are clamped.
func (g *Game) Step(dtMs float64, intent PlayerIntent) {
	if !(dtMs > 0) || math.IsInf(dtMs, 0) {
		return
	}
	dtMs = math.Min(dtMs, g.cfg.Physics.MaxDtMs)

	g.tick++
	g.elapsedMs += dtMs
	g.simClock.Advance(dtMs)
	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseAgents)
	g.updatePlayer(intent, dtMs)
	g.updateBots(dtMs)

	g.perf.StartPhase(telemetry.PhaseBoss)
	g.updateBoss(dtMs)

	g.perf.StartPhase(telemetry.PhaseSpatialGrid)
	g.food.Animate(dtMs / 1000)
	g.rebuildGrid()

	g.perf.StartPhase(telemetry.PhaseFeeding)
	g.updateFeeding()
	g.confineAgents()

	g.perf.StartPhase(telemetry.PhaseCollision)
	g.resolveCollisions()
	g.resolveBossContacts()

	g.perf.StartPhase(telemetry.PhaseCleanup)
	g.food.Sweep()
	g.food.TopUp()
	g.compactBots()

	g.perf.StartPhase(telemetry.PhaseSpawning)
	g.replenishBots()
	g.updateBossLifecycle(dtMs)
	if g.opts.AutoRespawn && !g.player.Alive {
		g.RespawnPlayer()
	}
	// Kill and defeat awards grow agents after their last move.
	g.confineAgents()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.observeLifetimes()
	g.flushTelemetry()

	g.perf.EndTick()
}

// Run feeds frameMs of elapsed time into a fixed-step accumulator and takes
// as many physics.tick_ms steps as it covers. The backlog is capped at
// physics.max_dt_ms so a stall never triggers a burst of catch-up steps.
// It returns the number of steps taken.
func (g *Game) Run(frameMs float64, intent PlayerIntent) int {
	if !(frameMs > 0) || math.IsInf(frameMs, 0) {
		return 0
	}
	g.accumMs = math.Min(g.accumMs+frameMs, g.cfg.Physics.MaxDtMs)

	tickMs := g.cfg.Physics.TickMs
	steps := 0
	for g.accumMs >= tickMs {
		g.Step(tickMs, intent)
		g.accumMs -= tickMs
		steps++
	}
	return steps
}

// updatePlayer applies the player's intent, or the AI decision on autopilot.
func (g *Game) updatePlayer(intent PlayerIntent, dtMs float64) {
	p := g.player
	if p == nil || !p.Alive {
		return
	}
	dir := components.Vec2{X: intent.DirX, Y: intent.DirY}
	boost := intent.Boost
	if g.opts.Autopilot {
		d := g.ai.Update(p, g.roster, g.bossBody(), g.food, dtMs)
		dir, boost = d.Dir, d.Boost
	}
	g.move(p, dir, boost, dtMs)
	g.cam.Follow(p.Pos.X, p.Pos.Y, dtMs/1000)
}

// updateBots runs each bot's AI and moves it, in roster order.
func (g *Game) updateBots(dtMs float64) {
	boss := g.bossBody()
	for _, b := range g.bots {
		if !b.Alive {
			continue
		}
		d := g.ai.Update(b, g.roster, boss, g.food, dtMs)
		g.move(b, d.Dir, d.Boost, dtMs)
	}
}

// move advances one agent and drops a pellet where boosting shed its tail.
func (g *Game) move(s *components.Snake, dir components.Vec2, boost bool, dtMs float64) {
	res := g.loco.Advance(s, dir, boost, dtMs)
	if res.Shed {
		g.food.Spawn(res.ShedAt.X, res.ShedAt.Y, components.FoodPellet, g.cfg.Food.PelletValue, g.cfg.Food.PelletRadius)
	}
}

// updateBoss retargets and moves the boss.
func (g *Game) updateBoss(dtMs float64) {
	if !g.bossAlive() {
		return
	}
	g.bosses.Update(g.boss, g.roster, g.food, dtMs)
}

// rebuildGrid re-registers every live body and unconsumed food item. Bots
// use the coarser loaded step once the live roster exceeds the threshold.
func (g *Game) rebuildGrid() {
	perf := &g.cfg.Performance
	g.grid.Clear()

	botStep := perf.BotSegmentStep
	if g.liveAgents() > perf.LoadThreshold {
		botStep = perf.LoadedSegmentStep
	}
	for _, s := range g.roster {
		if !s.Alive {
			continue
		}
		step := botStep
		if s.Kind == components.KindPlayer {
			step = perf.PlayerSegmentStep
		}
		g.grid.RegisterSnake(s, step)
	}
	if g.bossAlive() {
		g.grid.RegisterSnake(g.boss.Body, perf.BossSegmentStep)
	}
	g.food.RegisterAll(g.grid)
}

// updateFeeding lets every live head eat what it touches and applies
// power-ups. The boss eats too, but it is already at full length.
func (g *Game) updateFeeding() {
	fc := &g.cfg.Food
	for _, s := range g.roster {
		if !s.Alive {
			continue
		}
		g.eaten = g.food.PickUp(s, g.eaten[:0])
		for _, f := range g.eaten {
			g.record(telemetry.NewEatEvent(g.tick, s.ID, s.Kind, f.Value))
			switch f.Type {
			case components.FoodBoostCharge:
				s.GrantInfiniteBoost(fc.InfiniteBoostMs)
			case components.FoodSpeedSurge:
				s.GrantSpeedSurge(fc.SpeedSurgeMultiplier, fc.SpeedSurgeMs)
			}
			if f.Type.PowerUp() {
				g.record(telemetry.NewPowerUpEvent(g.tick, s.ID, s.Kind))
			}
		}
	}
	if g.bossAlive() {
		g.eaten = g.food.PickUp(g.boss.Body, g.eaten[:0])
	}
}

// resolveCollisions applies agent and wall deaths. Every victim is marked
// dead before any award is paid, so an agent that dies this tick never
// collects for a kill made in the same tick.
func (g *Game) resolveCollisions() {
	g.deaths = g.collisions.Resolve(g.roster, g.deaths[:0])
	for _, d := range g.deaths {
		d.Victim.Alive = false
	}
	for _, d := range g.deaths {
		g.killAgent(d.Victim, d.Killer, d.Cause)
	}
}

// resolveBossContacts applies boss kills, push-backs and tail hits, then
// settles a defeat.
func (g *Game) resolveBossContacts() {
	b := g.boss
	if b == nil || !b.Alive() {
		return
	}
	g.contacts = g.bosses.Collide(b, g.roster, g.clock, g.contacts[:0])
	for _, c := range g.contacts {
		switch c.Kind {
		case systems.ContactKill:
			c.Agent.Alive = false
			g.killAgent(c.Agent, nil, systems.CauseBoss)
		case systems.ContactPush:
			g.loco.Displace(c.Agent, c.Push)
		case systems.ContactHit:
			if c.Damaged {
				g.record(telemetry.NewBossEvent(telemetry.EventBossHit, g.tick, b.Body.ID, c.Agent.ID))
			}
		}
	}
	if b.Health <= 0 {
		g.defeatBoss()
	}
}

// killAgent drops remains along the victim's body, pays the killer if it
// survived the tick, and retires the victim.
func (g *Game) killAgent(victim, killer *components.Snake, cause systems.DeathCause) {
	victim.Alive = false
	g.food.SpawnRemains(victim.Segments, victim.Mass)

	var killerID uint32
	if killer != nil {
		killerID = killer.ID
		if killer.Alive {
			award := int(math.Round(g.cfg.Population.KillAwardFraction * float64(victim.Score)))
			killer.Grow(award)
			killer.Kills++
			g.record(telemetry.NewKillEvent(g.tick, killer.ID, killer.Kind, victim.ID, award))
		}
	}
	g.record(telemetry.NewDeathEvent(g.tick, victim.ID, victim.Kind, killerID, cause.String()))
	g.retire(victim, cause.String(), killerID)
}

// confineAgents re-applies the world bounds to every live body whose
// head radius may have grown since locomotion ran.
func (g *Game) confineAgents() {
	if g.player != nil && g.player.Alive {
		g.loco.Confine(g.player)
	}
	for _, b := range g.bots {
		if b.Alive {
			g.loco.Confine(b)
		}
	}
	if g.bossAlive() {
		g.loco.Confine(g.boss.Body)
	}
}

// compactBots drops dead bots from the roster, keeping spawn order.
func (g *Game) compactBots() {
	live := g.bots[:0]
	for _, b := range g.bots {
		if b.Alive {
			live = append(live, b)
		}
	}
	clear(g.bots[len(live):])
	g.bots = live
	g.rebuildRoster()
}

// observeLifetimes updates peak score, length and level of live agents.
func (g *Game) observeLifetimes() {
	for _, s := range g.roster {
		if !s.Alive {
			continue
		}
		level := 1
		if b, ok := g.ai.Brain(s.ID); ok {
			level = b.Level
		}
		g.lifetimes.Observe(s.ID, s.Score, s.Len(), level)
	}
}
