package game

import "log/slog"

// checkPopulation warns once when the bot roster falls below half its
// target and re-arms when it recovers.
func (g *Game) checkPopulation(target int) {
	n := len(g.bots)
	switch {
	case !g.lowPopWarned && n < target/2:
		g.lowPopWarned = true
		g.logger.Warn("bot population low",
			"tick", g.tick,
			"bots", n,
			"target", target,
		)
	case g.lowPopWarned && n >= target:
		g.lowPopWarned = false
	}
}

// LogWorldState logs a one-line summary of the arena.
func (g *Game) LogWorldState() {
	var levels [3]int
	best := 0
	for _, b := range g.bots {
		if brain, ok := g.ai.Brain(b.ID); ok {
			levels[min(max(brain.Level, 1), 3)-1]++
		}
		best = max(best, b.Score)
	}

	attrs := []any{
		"tick", g.tick,
		"sim_sec", g.elapsedMs / 1000,
		"bots", len(g.bots),
		"best_bot_score", best,
		"levels", levels,
		"food", g.food.Count(),
	}
	if p := g.player; p != nil {
		attrs = append(attrs, slog.Group("player",
			"alive", p.Alive,
			"score", p.Score,
			"segments", p.Len(),
		))
	}
	if g.boss != nil {
		attrs = append(attrs, slog.Group("boss",
			"kind", g.boss.Kind.String(),
			"health", g.boss.Health,
			"lifetime_sec", g.boss.LifetimeMs/1000,
		))
	}
	g.logger.Info("world", attrs...)
}
