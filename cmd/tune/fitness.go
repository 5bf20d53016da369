package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/serpent/config"
	"github.com/pthm-cable/serpent/game"
	"github.com/pthm-cable/serpent/telemetry"
)

// FitnessEvaluator runs headless arenas and scores how often bots kill
// themselves. Lower is better.
type FitnessEvaluator struct {
	params     *ParamVector
	configPath string
	maxTicks   int32
	seeds      []int64

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastSelfRate   float64
}

// NewFitnessEvaluator creates a new evaluator. Every run reloads the base
// config from configPath so runs never share slices.
func NewFitnessEvaluator(params *ParamVector, configPath string, maxTicks int32, seeds []int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		configPath:  configPath,
		maxTicks:    maxTicks,
		seeds:       seeds,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastSelfRate returns the self-inflicted death rate of the most recent evaluation.
func (fe *FitnessEvaluator) LastSelfRate() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSelfRate
}

// Fitness weights.
const (
	warmupWindows    = 1    // skip the first window while the roster settles
	growthWeight     = 0.2  // reward for bots that still grow
	growthReference  = 80.0 // median score at which the growth term saturates
	invalidPenalty   = 1e6
	minBotMinutes    = 1e-6
	selfDeathOnlyCap = 100.0
)

// runResult holds the results from a single arena run.
type runResult struct {
	windowStats []telemetry.WindowStats
	hallOfFame  *telemetry.HallOfFame
	err         error
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total, selfTotal float64
	best := math.Inf(1)
	var bestHall *telemetry.HallOfFame
	for _, r := range results {
		if r.err != nil {
			slog.Warn("evaluation failed", "error", r.err)
			return invalidPenalty
		}
		selfRate, growth := summarize(r.windowStats)
		f := computeFitness(selfRate, growth)
		total += f
		selfTotal += selfRate
		if f < best {
			best, bestHall = f, r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avg := total / n

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestHallOfFame = bestHall
	}
	fe.lastSelfRate = selfTotal / n
	fe.mu.Unlock()

	return avg
}

// runSimulation executes one headless arena with an AI-driven player.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return &runResult{err: err}
	}
	cfg.World.Seed = seed
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return &runResult{err: err}
	}

	result := &runResult{}
	g, err := game.New(cfg, game.Options{
		Autopilot:   true,
		AutoRespawn: true,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return &runResult{err: err}
	}
	defer g.Close()

	for g.Tick() < fe.maxTicks {
		g.Step(cfg.Physics.TickMs, game.PlayerIntent{})
	}
	result.hallOfFame = g.HallOfFame()
	return result
}

// summarize returns wall and body deaths per bot-minute, and the mean
// median score, over the windows after warmup.
func summarize(windows []telemetry.WindowStats) (selfRate, growth float64) {
	if len(windows) <= warmupWindows {
		return selfDeathOnlyCap, 0
	}
	var selfDeaths, botMinutes, p50 float64
	valid := windows[warmupWindows:]
	for _, w := range valid {
		selfDeaths += float64(w.WallHits + w.BodyHits)
		botMinutes += float64(w.BotCount) * w.SimTimeSec / 60
		p50 += w.ScoreP50
	}
	if botMinutes < minBotMinutes {
		return selfDeathOnlyCap, 0
	}
	return selfDeaths / botMinutes, p50 / float64(len(valid))
}

// computeFitness favors few self-inflicted deaths, with a bounded bonus for
// bots that keep growing so a passive config cannot win outright.
func computeFitness(selfRate, growth float64) float64 {
	return selfRate - growthWeight*clamp01(growth/growthReference)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
