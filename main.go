package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/serpent/config"
	"github.com/pthm-cable/serpent/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshots := flag.Bool("snapshots", false, "Save an arena snapshot on every bookmark (needs -output-dir)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, -1 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	autopilot := flag.Bool("autopilot", true, "Let the AI engine steer the player")
	worldEvery := flag.Int("world-every", 0, "Log a world summary every N ticks (0 = never)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	switch {
	case *seed == -1:
		cfg.World.Seed = time.Now().UnixNano()
	case *seed != 0:
		cfg.World.Seed = *seed
	}

	opts := game.Options{
		Autopilot:          *autopilot,
		AutoRespawn:        true,
		OutputDir:          *outputDir,
		SnapshotOnBookmark: *snapshots,
		LogStats:           *logStats,
		Logger:             logger,
	}

	g, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start arena", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	slog.Info("starting headless simulation",
		"run_id", g.RunID(),
		"seed", cfg.World.Seed,
		"max_ticks", *maxTicks,
		"autopilot", *autopilot,
	)

	start := time.Now()
	for {
		g.Step(cfg.Physics.TickMs, game.PlayerIntent{})

		if *worldEvery > 0 && int(g.Tick())%*worldEvery == 0 {
			g.LogWorldState()
		}
		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached",
				"tick", g.Tick(),
				"sim_sec", g.ElapsedMs()/1000,
				"wall_sec", time.Since(start).Seconds(),
			)
			return
		}
	}
}
