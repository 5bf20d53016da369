package game

import (
	"github.com/pthm-cable/serpent/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation())
	perfStats := g.perf.Stats()

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if err := g.output.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
		if g.opts.SnapshotOnBookmark {
			g.saveSnapshot(&bm)
		}
	}
}

// samplePopulation collects the end-of-window arena state.
func (g *Game) samplePopulation() telemetry.Population {
	pop := telemetry.Population{
		PlayerAlive: g.player != nil && g.player.Alive,
		BossAlive:   g.bossAlive(),
		Food:        g.food.Count(),
	}

	g.scores = g.scores[:0]
	for _, b := range g.bots {
		if !b.Alive {
			continue
		}
		pop.Bots++
		g.scores = append(g.scores, float64(b.Score))
		if brain, ok := g.ai.Brain(b.ID); ok {
			pop.Levels[min(max(brain.Level, 1), 3)-1]++
		}
	}
	pop.Scores = g.scores
	return pop
}

// saveSnapshot writes the arena state next to the telemetry output.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := g.output.WriteSnapshot(g.createSnapshot(bookmark))
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	if path != "" {
		g.logger.Info("snapshot saved", "path", path, "tick", g.tick)
	}
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       g.runID,
		Seed:        g.cfg.World.Seed,
		WorldWidth:  g.cfg.World.Width,
		WorldHeight: g.cfg.World.Height,
		Tick:        g.tick,
		Food:        g.food.Count(),
		Bookmark:    bookmark,
	}

	for _, s := range g.roster {
		if !s.Alive {
			continue
		}
		state := telemetry.AgentState{
			ID:       s.ID,
			Kind:     s.Kind.String(),
			X:        s.Pos.X,
			Y:        s.Pos.Y,
			Heading:  s.Heading,
			Segments: s.Len(),
			Score:    s.Score,
			Mass:     s.Mass,
			Boosting: s.Boosting,
			Lifetime: g.lifetimes.Get(s.ID),
		}
		if brain, ok := g.ai.Brain(s.ID); ok {
			state.State = brain.State.String()
			state.Level = brain.Level
		}
		snapshot.Agents = append(snapshot.Agents, state)
	}

	if b := g.boss; b != nil {
		snapshot.Boss = &telemetry.BossState{
			ID:          b.Body.ID,
			Kind:        b.Kind.String(),
			X:           b.Body.Pos.X,
			Y:           b.Body.Pos.Y,
			Health:      b.Health,
			LifetimeSec: b.LifetimeMs / 1000,
			PreyID:      b.PreyID,
		}
	}

	return snapshot
}
