// Package config provides configuration loading and access for the arena simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Performance PerformanceConfig `yaml:"performance"`
	Snake       SnakeConfig       `yaml:"snake"`
	Food        FoodConfig        `yaml:"food"`
	Population  PopulationConfig  `yaml:"population"`
	AI          AIConfig          `yaml:"ai"`
	Safety      SafetyConfig      `yaml:"safety"`
	Boss        BossConfig        `yaml:"boss"`
	Camera      CameraConfig      `yaml:"camera"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bookmarks   BookmarksConfig   `yaml:"bookmarks"`
	HallOfFame  HallOfFameConfig  `yaml:"hall_of_fame"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds arena dimensions.
type WorldConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	LethalWalls bool    `yaml:"lethal_walls"` // touching the clamp limit kills
	Seed        int64   `yaml:"seed"`
}

// PhysicsConfig holds timestep and grid parameters.
type PhysicsConfig struct {
	TickMs       float64 `yaml:"tick_ms"`        // fixed step used by the headless driver
	MaxDtMs      float64 `yaml:"max_dt_ms"`      // larger steps are clamped
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial hash cell edge
}

// PerformanceConfig controls collision fidelity versus throughput.
type PerformanceConfig struct {
	PlayerSegmentStep int `yaml:"player_segment_step"`
	BotSegmentStep    int `yaml:"bot_segment_step"`
	LoadedSegmentStep int `yaml:"loaded_segment_step"` // bot step once the roster exceeds LoadThreshold
	LoadThreshold     int `yaml:"load_threshold"`      // live agent count that counts as load
	CollisionStep     int `yaml:"collision_step"`      // body segment stride for head-vs-body tests
	BossSegmentStep   int `yaml:"boss_segment_step"`
}

// SnakeConfig holds locomotion and growth parameters shared by all serpents.
type SnakeConfig struct {
	InitialSegments   int     `yaml:"initial_segments"`
	MinSegments       int     `yaml:"min_segments"`
	MaxSegments       int     `yaml:"max_segments"` // spawn size bound only
	BaseRadius        float64 `yaml:"base_radius"`
	MaxRadius         float64 `yaml:"max_radius"`
	RadiusPerSqrtMass float64 `yaml:"radius_per_sqrt_mass"`
	TailTaper         float64 `yaml:"tail_taper"` // fraction of head radius lost by the tail
	MinSpeed          float64 `yaml:"min_speed"`
	MaxSpeed          float64 `yaml:"max_speed"`
	SpeedMassFactor   float64 `yaml:"speed_mass_factor"`
	BoostSpeed        float64 `yaml:"boost_speed"`
	MaxTurnRate       float64 `yaml:"max_turn_rate"` // rad/s
	BoostMax          float64 `yaml:"boost_max"`
	BoostDrainPerSec  float64 `yaml:"boost_drain_per_sec"`
	BoostRegenPerSec  float64 `yaml:"boost_regen_per_sec"`
	BoostShedChance   float64 `yaml:"boost_shed_chance"` // per tick while boosting
	BoostShedFloor    int     `yaml:"boost_shed_floor"`
	TrailSlack        int     `yaml:"trail_slack"`
}

// FoodConfig holds food population, tiers and power-up parameters.
type FoodConfig struct {
	TargetCount          int     `yaml:"target_count"`
	MaxCount             int     `yaml:"max_count"`
	TopUpPerTick         int     `yaml:"top_up_per_tick"`
	PelletValue          int     `yaml:"pellet_value"`
	PelletRadius         float64 `yaml:"pellet_radius"`
	LargeValue           int     `yaml:"large_value"`
	LargeRadius          float64 `yaml:"large_radius"`
	LargeChance          float64 `yaml:"large_chance"`
	RemainsRadius        float64 `yaml:"remains_radius"`
	RemainsStep          int     `yaml:"remains_step"`       // every Nth segment of a corpse drops food
	RemainsMassShare     float64 `yaml:"remains_mass_share"` // fraction of victim mass returned as food value
	PowerUpRadius        float64 `yaml:"power_up_radius"`
	PowerUpChance        float64 `yaml:"power_up_chance"`
	InfiniteBoostMs      float64 `yaml:"infinite_boost_ms"`
	SpeedSurgeMs         float64 `yaml:"speed_surge_ms"`
	SpeedSurgeMultiplier float64 `yaml:"speed_surge_multiplier"`
	PulseSpeed           float64 `yaml:"pulse_speed"` // rad/s
	ClusterScale         float64 `yaml:"cluster_scale"`
	ClusterThreshold     float64 `yaml:"cluster_threshold"`
	PlacementAttempts    int     `yaml:"placement_attempts"`
}

// PopulationConfig holds roster targets and spawn parameters.
type PopulationConfig struct {
	TargetBots        int     `yaml:"target_bots"`
	BossTargetBots    int     `yaml:"boss_target_bots"` // bot target while a boss is alive
	RespawnPerTick    int     `yaml:"respawn_per_tick"`
	SpawnMargin       float64 `yaml:"spawn_margin"`
	SpawnClearance    float64 `yaml:"spawn_clearance"`
	SpawnAttempts     int     `yaml:"spawn_attempts"`
	KillAwardFraction float64 `yaml:"kill_award_fraction"`
	BotScoreJitter    int     `yaml:"bot_score_jitter"` // bots spawn with up to this many bonus segments
}

// AILevelConfig holds per-level AI parameters. Index 0 is level 1.
type AILevelConfig struct {
	DecisionIntervalMs float64 `yaml:"decision_interval_ms"`
	VisionRadius       float64 `yaml:"vision_radius"`
	ThreatRadius       float64 `yaml:"threat_radius"`
	FleeRelease        float64 `yaml:"flee_release"`
	HuntBoostDistance  float64 `yaml:"hunt_boost_distance"`
	WanderTimeoutMs    float64 `yaml:"wander_timeout_ms"`
}

// AIConfig holds bot decision parameters.
type AIConfig struct {
	LevelThresholds     []int           `yaml:"level_thresholds"` // score needed for level 2, 3
	Levels              []AILevelConfig `yaml:"levels"`
	FleeTriggerDistance float64         `yaml:"flee_trigger_distance"`
	FleeJitterRad       float64         `yaml:"flee_jitter_rad"`
	FleeBoostDistance   float64         `yaml:"flee_boost_distance"`
	ThreatMassRatio     float64         `yaml:"threat_mass_ratio"`
	PreyMassRatio       float64         `yaml:"prey_mass_ratio"`
	AggressionThreshold float64         `yaml:"aggression_threshold"`
	TraitWeight         float64         `yaml:"trait_weight"`
	MassWeight          float64         `yaml:"mass_weight"`
	LevelWeight         float64         `yaml:"level_weight"`
	MassReference       float64         `yaml:"mass_reference"` // mass at which the mass factor saturates
	LeadTimeMax         float64         `yaml:"lead_time_max"`  // seconds
	CutoffOffset        float64         `yaml:"cutoff_offset"`
	FoodValueWeight     float64         `yaml:"food_value_weight"`
	ThreatPenalty       float64         `yaml:"threat_penalty"`
	EatBoostDistance    float64         `yaml:"eat_boost_distance"`
	WanderArrive        float64         `yaml:"wander_arrive"`
	WanderMargin        float64         `yaml:"wander_margin"`
	BoundaryMargin      float64         `yaml:"boundary_margin"`
	BoundaryWeight      float64         `yaml:"boundary_weight"`
}

// SafetyLevelConfig holds the candidate fan for one AI level.
type SafetyLevelConfig struct {
	FanStepDeg      float64 `yaml:"fan_step_deg"`
	FanMaxDeg       float64 `yaml:"fan_max_deg"`
	IntrusionWeight float64 `yaml:"intrusion_weight"`
}

// SafetyConfig holds lookahead collision-avoidance parameters.
type SafetyConfig struct {
	Lookahead         []float64         `yaml:"lookahead"`
	Buffer            float64           `yaml:"buffer"`
	HeadExtrapolation float64           `yaml:"head_extrapolation"` // seconds
	BodySampleStep    int               `yaml:"body_sample_step"`
	ScanRadius        float64           `yaml:"scan_radius"`
	DeviationWeight   float64           `yaml:"deviation_weight"`
	Level2            SafetyLevelConfig `yaml:"level2"`
	Level3            SafetyLevelConfig `yaml:"level3"`
}

// BossKindConfig holds per-variant boss parameters.
type BossKindConfig struct {
	Name        string  `yaml:"name"`
	Segments    int     `yaml:"segments"`
	Radius      float64 `yaml:"radius"`
	Speed       float64 `yaml:"speed"`
	TurnRate    float64 `yaml:"turn_rate"`
	LifetimeMs  float64 `yaml:"lifetime_ms"`
	Health      int     `yaml:"health"`
	Lethal      bool    `yaml:"lethal"`
	PushImpulse float64 `yaml:"push_impulse"`
}

// BossConfig holds boss spawning and behavior parameters.
type BossConfig struct {
	Enabled            bool             `yaml:"enabled"`
	FirstSpawnMs       float64          `yaml:"first_spawn_ms"`
	SpawnIntervalMs    float64          `yaml:"spawn_interval_ms"`
	HitCooldownMs      float64          `yaml:"hit_cooldown_ms"`
	TailSegments       int              `yaml:"tail_segments"` // vulnerable segments at the tail
	RetargetCooldownMs float64          `yaml:"retarget_cooldown_ms"`
	RetargetMargin     float64          `yaml:"retarget_margin"` // new candidate must beat current by this fraction
	PreyRadius         float64          `yaml:"prey_radius"`
	FoodRadius         float64          `yaml:"food_radius"`
	LeadTimeMax        float64          `yaml:"lead_time_max"`
	CutoffOffset       float64          `yaml:"cutoff_offset"`
	DefeatFood         int              `yaml:"defeat_food"`
	DefeatAward        int              `yaml:"defeat_award"`
	Kinds              []BossKindConfig `yaml:"kinds"`
}

// CameraConfig holds viewport parameters.
type CameraConfig struct {
	ViewWidth  float64 `yaml:"view_width"`
	ViewHeight float64 `yaml:"view_height"`
	Smoothing  float64 `yaml:"smoothing"` // fraction of the gap closed per second
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindowMs       float64 `yaml:"stats_window_ms"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	KillSpree       KillSpreeConfig       `yaml:"kill_spree"`
	PopulationCrash PopulationCrashConfig `yaml:"population_crash"`
	FeedingFrenzy   FeedingFrenzyConfig   `yaml:"feeding_frenzy"`
}

// KillSpreeConfig flags a window with many kills by one agent.
type KillSpreeConfig struct {
	MinKills int `yaml:"min_kills"`
}

// PopulationCrashConfig flags a sharp drop in live bots.
type PopulationCrashConfig struct {
	DropFraction float64 `yaml:"drop_fraction"`
}

// FeedingFrenzyConfig flags windows where food intake spikes above its rolling average.
type FeedingFrenzyConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinEaten   int     `yaml:"min_eaten"`
}

// HallOfFameConfig holds settings for the best-lives leaderboard.
type HallOfFameConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Size         int     `yaml:"size"`
	ReseedChance float64 `yaml:"reseed_chance"` // chance a new bot inherits a hall trait
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	TickSec       float64 // Physics.TickMs in seconds
	Level2FanRad  float64
	Level3FanRad  float64
	Level2StepRad float64
	Level3StepRad float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Finalize recomputes derived values after fields were changed in code
// and validates the result.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TickSec = c.Physics.TickMs / 1000
	c.Derived.Level2FanRad = c.Safety.Level2.FanMaxDeg * math.Pi / 180
	c.Derived.Level3FanRad = c.Safety.Level3.FanMaxDeg * math.Pi / 180
	c.Derived.Level2StepRad = c.Safety.Level2.FanStepDeg * math.Pi / 180
	c.Derived.Level3StepRad = c.Safety.Level3.FanStepDeg * math.Pi / 180

	if c.Snake.MinSegments < 3 {
		c.Snake.MinSegments = 3
	}
	if c.Snake.InitialSegments < c.Snake.MinSegments {
		c.Snake.InitialSegments = c.Snake.MinSegments
	}
	if c.Performance.CollisionStep < 1 {
		c.Performance.CollisionStep = 1
	}
	if c.Safety.BodySampleStep < 1 {
		c.Safety.BodySampleStep = 1
	}
}

// Validate reports every configuration value the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.World.Width > 0 && c.World.Height > 0, "world: dimensions must be positive, got %gx%g", c.World.Width, c.World.Height)
	check(c.Physics.TickMs > 0, "physics.tick_ms must be positive")
	check(c.Physics.MaxDtMs >= c.Physics.TickMs, "physics.max_dt_ms must be >= tick_ms")
	check(c.Physics.GridCellSize > 0, "physics.grid_cell_size must be positive")
	check(c.Snake.BaseRadius > 0 && c.Snake.MaxRadius >= c.Snake.BaseRadius, "snake: radius range invalid")
	check(c.Snake.MinSpeed > 0 && c.Snake.MaxSpeed >= c.Snake.MinSpeed, "snake: speed range invalid")
	check(c.Snake.BoostMax > 0, "snake.boost_max must be positive")
	check(c.Snake.TailTaper >= 0 && c.Snake.TailTaper < 1, "snake.tail_taper must be in [0,1)")
	check(c.Snake.MaxSegments >= c.Snake.InitialSegments, "snake.max_segments must be >= initial_segments")
	check(c.Performance.PlayerSegmentStep >= 1 && c.Performance.BotSegmentStep >= 1 && c.Performance.LoadedSegmentStep >= 1, "performance: segment steps must be >= 1")
	check(len(c.AI.Levels) == 3, "ai.levels must have 3 entries, got %d", len(c.AI.Levels))
	check(len(c.AI.LevelThresholds) == 2, "ai.level_thresholds must have 2 entries, got %d", len(c.AI.LevelThresholds))
	check(len(c.Safety.Lookahead) > 0, "safety.lookahead must not be empty")
	check(c.Safety.Level2.FanStepDeg > 0 && c.Safety.Level3.FanStepDeg > 0, "safety: fan steps must be positive")
	check(c.Food.MaxCount >= c.Food.TargetCount, "food.max_count must be >= target_count")
	if c.Boss.Enabled {
		check(len(c.Boss.Kinds) > 0, "boss.kinds must not be empty when bosses are enabled")
		for i, k := range c.Boss.Kinds {
			check(k.Segments >= 3 && k.Radius > 0 && k.Speed > 0, "boss.kinds[%d] (%s): invalid body", i, k.Name)
		}
	}

	return errors.Join(errs...)
}

// Level returns the per-level AI settings for level 1-3, clamping out-of-range levels.
func (c *Config) Level(level int) AILevelConfig {
	if level < 1 {
		level = 1
	}
	if level > len(c.AI.Levels) {
		level = len(c.AI.Levels)
	}
	return c.AI.Levels[level-1]
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
