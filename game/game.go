// Package game runs the arena: one player, a roster of bots, food and an
// occasional boss, advanced in fixed steps.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/serpent/camera"
	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
	"github.com/pthm-cable/serpent/systems"
	"github.com/pthm-cable/serpent/telemetry"
)

// Options configures a game beyond its simulation parameters.
type Options struct {
	Autopilot   bool // the AI engine steers the player
	AutoRespawn bool // a dead player comes back on the next step

	// Clock drives the boss damage cooldown. Nil uses simulation time.
	Clock systems.Clock

	OutputDir          string // telemetry CSV directory; empty disables output
	RunID              string // empty generates one
	SnapshotOnBookmark bool
	LogStats           bool
	StatsCallback      func(telemetry.WindowStats)
	Logger             *slog.Logger
}

// PlayerIntent is the player's input for one step. A zero direction keeps
// the current heading.
type PlayerIntent struct {
	DirX, DirY float64
	Boost      bool
}

// Game holds the complete arena state.
type Game struct {
	cfg    *config.Config
	opts   Options
	rng    *rand.Rand
	logger *slog.Logger

	simClock *systems.SimClock
	clock    systems.Clock

	world      *ecs.World
	grid       *systems.SpatialGrid
	food       *systems.FoodSystem
	loco       *systems.Locomotion
	ai         *systems.AIEngine
	bosses     *systems.BossSystem
	collisions *systems.CollisionResolver
	cam        *camera.Camera

	model   components.BodyModel
	spacing float64

	player *components.Snake
	bots   []*components.Snake
	roster []*components.Snake // player first, then bots in spawn order
	boss   *components.Boss

	nextBossKind components.BossKind
	bossTimerMs  float64

	nextID    uint32
	tick      int32
	elapsedMs float64
	accumMs   float64

	lowPopWarned bool

	// Per-step scratch, reused to avoid allocation
	deaths   []systems.Death
	contacts []systems.BossContact
	eaten    []systems.FoodView
	entries  []systems.FoodEntry
	scores   []float64

	// Telemetry
	runID      string
	collector  *telemetry.Collector
	perf       *telemetry.PerfCollector
	lifetimes  *telemetry.LifetimeTracker
	bookmarks  *telemetry.BookmarkDetector
	hallOfFame *telemetry.HallOfFame
	output     *telemetry.OutputManager
}

// New creates an arena with a player, the target bot roster and the
// target food population. All randomness comes from cfg.World.Seed.
func New(cfg *config.Config, opts Options) (*Game, error) {
	if cfg == nil {
		return nil, fmt.Errorf("game: nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = telemetry.NewRunID()
	}

	rng := rand.New(rand.NewSource(cfg.World.Seed))
	world := ecs.NewWorld()
	grid := systems.NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize)
	loco := systems.NewLocomotion(cfg, rng)

	g := &Game{
		cfg:         cfg,
		opts:        opts,
		rng:         rng,
		logger:      logger.With("run_id", runID),
		simClock:    &systems.SimClock{},
		world:       world,
		grid:        grid,
		food:        systems.NewFoodSystem(world, cfg, grid, rng),
		loco:        loco,
		ai:          systems.NewAIEngine(cfg, rng),
		bosses:      systems.NewBossSystem(cfg, loco, rng),
		collisions:  systems.NewCollisionResolver(grid, cfg.World.Width, cfg.World.Height, cfg.World.LethalWalls, cfg.Performance.CollisionStep, cfg.Snake.MaxRadius),
		cam:         camera.New(cfg.Camera.ViewWidth, cfg.Camera.ViewHeight, cfg.World.Width, cfg.World.Height, cfg.Camera.Smoothing),
		model:       components.BodyModelFromConfig(&cfg.Snake),
		spacing:     systems.SampleSpacing(cfg.Snake.MaxSpeed, cfg.Physics.TickMs),
		bossTimerMs: cfg.Boss.FirstSpawnMs,
		runID:       runID,
		collector:   telemetry.NewCollector(runID, cfg.Telemetry.StatsWindowMs, cfg.Physics.TickMs),
		perf:        telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		lifetimes:   telemetry.NewLifetimeTracker(),
		bookmarks:   telemetry.NewBookmarkDetector(cfg.Bookmarks, cfg.Telemetry.BookmarkHistorySize),
	}
	g.clock = g.simClock
	if opts.Clock != nil {
		g.clock = opts.Clock
	}
	if cfg.HallOfFame.Enabled {
		g.hallOfFame = telemetry.NewHallOfFame(runID, cfg.HallOfFame.Size)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		g.output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	g.spawnInitialPopulation()
	return g, nil
}

// spawnInitialPopulation creates the player, the bot roster and the food.
func (g *Game) spawnInitialPopulation() {
	g.RespawnPlayer()
	for len(g.bots) < g.cfg.Population.TargetBots {
		g.spawnBot()
	}
	for g.food.Count() < g.cfg.Food.TargetCount {
		g.food.SpawnAmbient()
	}
	g.rebuildGrid()
	g.logger.Info("arena ready",
		"seed", g.cfg.World.Seed,
		"bots", len(g.bots),
		"food", g.food.Count(),
	)
}

// Close writes the hall of fame and closes telemetry output.
func (g *Game) Close() error {
	if g.hallOfFame != nil {
		if err := g.output.WriteHallOfFame(g.hallOfFame); err != nil {
			g.logger.Error("failed to write hall of fame", "error", err)
		}
	}
	return g.output.Close()
}

// Tick returns the number of steps taken.
func (g *Game) Tick() int32 { return g.tick }

// ElapsedMs returns the simulated time so far.
func (g *Game) ElapsedMs() float64 { return g.elapsedMs }

// RunID returns the identifier stamped on telemetry output.
func (g *Game) RunID() string { return g.runID }

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config { return g.cfg }

// Player returns the player agent, which may be dead.
func (g *Game) Player() *components.Snake { return g.player }

// Bots returns the live bot roster. The slice is reused between steps.
func (g *Game) Bots() []*components.Snake { return g.bots }

// Boss returns the active boss, or nil.
func (g *Game) Boss() *components.Boss { return g.boss }

// Camera returns the viewport following the player.
func (g *Game) Camera() *camera.Camera { return g.cam }

// HallOfFame returns the best finished bot lives, or nil when disabled.
func (g *Game) HallOfFame() *telemetry.HallOfFame { return g.hallOfFame }

// FoodCount returns the number of live food items.
func (g *Game) FoodCount() int { return g.food.Count() }

// Brain returns the decision record of an AI-driven agent.
func (g *Game) Brain(id uint32) (*components.Brain, bool) { return g.ai.Brain(id) }

// bossAlive reports whether a boss is active.
func (g *Game) bossAlive() bool {
	return g.boss != nil && g.boss.Alive()
}

// bossBody returns the boss body for steering, or nil.
func (g *Game) bossBody() *components.Snake {
	if !g.bossAlive() {
		return nil
	}
	return g.boss.Body
}

// agentByID finds a live agent in the roster.
func (g *Game) agentByID(id uint32) *components.Snake {
	if id == 0 {
		return nil
	}
	for _, s := range g.roster {
		if s.ID == id && s.Alive {
			return s
		}
	}
	return nil
}

// rebuildRoster lists the player followed by the bots.
func (g *Game) rebuildRoster() {
	g.roster = g.roster[:0]
	if g.player != nil {
		g.roster = append(g.roster, g.player)
	}
	g.roster = append(g.roster, g.bots...)
}

// liveAgents counts live agents in the roster.
func (g *Game) liveAgents() int {
	n := 0
	for _, s := range g.roster {
		if s.Alive {
			n++
		}
	}
	return n
}

// record folds an event into the window counters and lifetime stats.
func (g *Game) record(ev telemetry.Event) {
	g.collector.Record(ev)
	g.lifetimes.Record(ev)
}

// spawnHeading points roughly at the arena center so new bodies trail
// away from the nearest wall.
func (g *Game) spawnHeading(pos components.Vec2) float64 {
	center := components.Vec2{X: g.cfg.World.Width / 2, Y: g.cfg.World.Height / 2}
	heading := 0.0
	if d := center.Sub(pos); d.LenSq() > 1e-9 {
		heading = d.Angle()
	}
	return heading + (g.rng.Float64()-0.5)*math.Pi/2
}
