package telemetry

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Phase identifies one timed section of a simulation step.
type Phase uint8

// Step phases, in execution order.
const (
	PhaseAgents Phase = iota
	PhaseBoss
	PhaseSpatialGrid
	PhaseFeeding
	PhaseCollision
	PhaseCleanup
	PhaseSpawning
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{
	"agents", "boss", "spatial_grid", "feeding",
	"collision", "cleanup", "spawning", "telemetry",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// noPhase marks that no phase is open.
const noPhase = NumPhases

// PhaseDurations holds one duration per phase.
type PhaseDurations [NumPhases]time.Duration

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       PhaseDurations
}

// PerfCollector keeps per-phase tick timings over a rolling window of
// ticks. Samples are fixed-size so recording a tick never allocates.
type PerfCollector struct {
	samples []PerfSample
	next    int
	filled  int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	open       Phase
	now        func() time.Time
}

// NewPerfCollector creates a collector over the last windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	return NewPerfCollectorWithClock(windowSize, time.Now)
}

// NewPerfCollectorWithClock creates a collector that reads time from now.
func NewPerfCollectorWithClock(windowSize int, now func() time.Time) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		open:    noPhase,
		now:     now,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.current = PerfSample{}
	p.open = noPhase
}

// StartPhase closes the open phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	if phase < NumPhases {
		p.phaseStart = now
		p.open = phase
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.open != noPhase {
		p.current.Phases[p.open] += now.Sub(p.phaseStart)
		p.open = noPhase
	}
}

// EndTick closes the open phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.current.TickDuration = now.Sub(p.tickStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	p.filled = min(p.filled+1, len(p.samples))
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	PhaseAvg PhaseDurations
	PhasePct [NumPhases]float64 // share of the average tick, 0-100

	TicksPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.filled == 0 {
		return s
	}

	ticks := make([]time.Duration, p.filled)
	var total time.Duration
	var phaseSum PhaseDurations
	for i, sample := range p.samples[:p.filled] {
		ticks[i] = sample.TickDuration
		total += sample.TickDuration
		for ph, d := range sample.Phases {
			phaseSum[ph] += d
		}
	}
	slices.Sort(ticks)

	n := time.Duration(p.filled)
	s.AvgTickDuration = total / n
	s.MinTickDuration = ticks[0]
	s.MaxTickDuration = ticks[len(ticks)-1]
	s.P95TickDuration = ticks[(len(ticks)-1)*95/100]
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

func (s PerfStats) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	for ph := Phase(0); ph < NumPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return attrs
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.LogAttrs(context.Background(), slog.LevelInfo, "perf", s.attrs()...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(s.attrs()...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	RunID          string  `csv:"run_id"`
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	P95TickUS      int64   `csv:"p95_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	AgentsPct      float64 `csv:"agents_pct"`
	BossPct        float64 `csv:"boss_pct"`
	SpatialGridPct float64 `csv:"spatial_grid_pct"`
	FeedingPct     float64 `csv:"feeding_pct"`
	CollisionPct   float64 `csv:"collision_pct"`
	CleanupPct     float64 `csv:"cleanup_pct"`
	SpawningPct    float64 `csv:"spawning_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(runID string, windowEnd int32) PerfStatsCSV {
	pct := s.PhasePct
	return PerfStatsCSV{
		RunID:          runID,
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		P95TickUS:      s.P95TickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		AgentsPct:      pct[PhaseAgents],
		BossPct:        pct[PhaseBoss],
		SpatialGridPct: pct[PhaseSpatialGrid],
		FeedingPct:     pct[PhaseFeeding],
		CollisionPct:   pct[PhaseCollision],
		CleanupPct:     pct[PhaseCleanup],
		SpawningPct:    pct[PhaseSpawning],
		TelemetryPct:   pct[PhaseTelemetry],
	}
}
