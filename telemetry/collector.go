package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	runID               string
	windowDurationTicks int32
	tickSec             float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawns     int
	deaths     int
	headOn     int
	bodyHits   int
	wallHits   int
	bossKills  int
	kills      int
	foodEaten  int
	scoreEaten int
	powerUps   int
	bossHits   int
	bossFalls  int

	killsBy map[uint32]int
}

// NewCollector creates a new stats collector.
// windowMs: how long each stats window lasts in simulation milliseconds
// tickMs: milliseconds per tick (used for tick-to-time conversion)
func NewCollector(runID string, windowMs, tickMs float64) *Collector {
	ticksPerWindow := int32(1)
	if tickMs > 0 {
		ticksPerWindow = max(int32(windowMs/tickMs), 1)
	}

	return &Collector{
		runID:               runID,
		windowDurationTicks: ticksPerWindow,
		tickSec:             tickMs / 1000,
		killsBy:             make(map[uint32]int),
	}
}

// Record folds one event into the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventSpawn:
		c.spawns++
	case EventDeath:
		c.deaths++
		switch ev.Cause {
		case "head_on":
			c.headOn++
		case "body":
			c.bodyHits++
		case "wall":
			c.wallHits++
		case "boss":
			c.bossKills++
		}
	case EventKill:
		c.kills++
		c.killsBy[ev.EntityID]++
	case EventEat:
		c.foodEaten++
		c.scoreEaten += ev.Amount
	case EventPowerUp:
		c.powerUps++
	case EventBossHit:
		c.bossHits++
	case EventBossDefeat:
		c.bossFalls++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population is the arena state sampled at the end of a window.
type Population struct {
	Bots        int
	PlayerAlive bool
	BossAlive   bool
	Food        int
	Scores      []float64 // live bot scores
	Levels      [3]int    // live bots per AI level
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	mean, std, p10, p50, p90 := ComputeScoreStats(pop.Scores)

	maxKills := 0
	for _, k := range c.killsBy {
		maxKills = max(maxKills, k)
	}

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.tickSec,

		BotCount:    pop.Bots,
		PlayerAlive: pop.PlayerAlive,
		BossAlive:   pop.BossAlive,
		FoodCount:   pop.Food,

		Spawns:     c.spawns,
		Deaths:     c.deaths,
		HeadOn:     c.headOn,
		BodyHits:   c.bodyHits,
		WallHits:   c.wallHits,
		BossKills:  c.bossKills,
		Kills:      c.kills,
		FoodEaten:  c.foodEaten,
		ScoreEaten: c.scoreEaten,
		PowerUps:   c.powerUps,
		BossHits:   c.bossHits,
		BossFalls:  c.bossFalls,

		MaxKillsByOne: maxKills,

		ScoreMean: mean,
		ScoreStd:  std,
		ScoreP10:  p10,
		ScoreP50:  p50,
		ScoreP90:  p90,

		Level1: pop.Levels[0],
		Level2: pop.Levels[1],
		Level3: pop.Levels[2],
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawns = 0
	c.deaths = 0
	c.headOn = 0
	c.bodyHits = 0
	c.wallHits = 0
	c.bossKills = 0
	c.kills = 0
	c.foodEaten = 0
	c.scoreEaten = 0
	c.powerUps = 0
	c.bossHits = 0
	c.bossFalls = 0
	clear(c.killsBy)

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
