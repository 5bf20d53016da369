package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	BotCount    int  `csv:"bots"`
	PlayerAlive bool `csv:"player_alive"`
	BossAlive   bool `csv:"boss_alive"`
	FoodCount   int  `csv:"food"`

	// Events during window
	Spawns     int `csv:"spawns"`
	Deaths     int `csv:"deaths"`
	HeadOn     int `csv:"deaths_head_on"`
	BodyHits   int `csv:"deaths_body"`
	WallHits   int `csv:"deaths_wall"`
	BossKills  int `csv:"deaths_boss"`
	Kills      int `csv:"kills"`
	FoodEaten  int `csv:"food_eaten"`
	ScoreEaten int `csv:"score_eaten"`
	PowerUps   int `csv:"power_ups"`
	BossHits   int `csv:"boss_hits"`
	BossFalls  int `csv:"boss_defeats"`

	// Top single-agent kill count in the window
	MaxKillsByOne int `csv:"max_kills_by_one"`

	// Score distribution over live bots (sampled at window end)
	ScoreMean float64 `csv:"score_mean"`
	ScoreStd  float64 `csv:"score_std"`
	ScoreP10  float64 `csv:"score_p10"`
	ScoreP50  float64 `csv:"score_p50"`
	ScoreP90  float64 `csv:"score_p90"`

	// AI level mix at window end
	Level1 int `csv:"level1"`
	Level2 int `csv:"level2"`
	Level3 int `csv:"level3"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeScoreStats calculates mean, population std, and percentiles.
func ComputeScoreStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	std = stat.PopStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("bots", s.BotCount),
		slog.Bool("player_alive", s.PlayerAlive),
		slog.Bool("boss_alive", s.BossAlive),
		slog.Int("food", s.FoodCount),
		slog.Int("spawns", s.Spawns),
		slog.Int("deaths", s.Deaths),
		slog.Int("kills", s.Kills),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("boss_hits", s.BossHits),
		slog.Float64("score_mean", s.ScoreMean),
		slog.Float64("score_p90", s.ScoreP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"bots", s.BotCount,
		"player_alive", s.PlayerAlive,
		"boss_alive", s.BossAlive,
		"food", s.FoodCount,
		"spawns", s.Spawns,
		"deaths", s.Deaths,
		"deaths_head_on", s.HeadOn,
		"deaths_body", s.BodyHits,
		"deaths_wall", s.WallHits,
		"deaths_boss", s.BossKills,
		"kills", s.Kills,
		"food_eaten", s.FoodEaten,
		"power_ups", s.PowerUps,
		"boss_hits", s.BossHits,
		"boss_defeats", s.BossFalls,
		"score_mean", s.ScoreMean,
		"score_std", s.ScoreStd,
		"score_p50", s.ScoreP50,
		"score_p90", s.ScoreP90,
		"levels", []int{s.Level1, s.Level2, s.Level3},
	)
}
