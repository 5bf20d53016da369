package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPerfCollector_PhaseTiming(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollectorWithClock(10, clk.now)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAgents)
		clk.advance(300 * time.Microsecond)
		pc.StartPhase(PhaseCollision)
		clk.advance(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration != 400*time.Microsecond {
		t.Errorf("AvgTickDuration = %v, want 400µs", stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhaseAgents] != 300*time.Microsecond {
		t.Errorf("agents avg = %v, want 300µs", stats.PhaseAvg[PhaseAgents])
	}
	if pct := stats.PhasePct[PhaseCollision]; pct < 24.9 || pct > 25.1 {
		t.Errorf("collision pct = %v, want 25", pct)
	}
	if stats.TicksPerSecond != 2500 {
		t.Errorf("TicksPerSecond = %v, want 2500", stats.TicksPerSecond)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollectorWithClock(5, clk.now)

	// Old slow ticks fall out of the window.
	for i := 0; i < 5; i++ {
		pc.StartTick()
		clk.advance(time.Millisecond)
		pc.EndTick()
	}
	for i := 0; i < 5; i++ {
		pc.StartTick()
		clk.advance(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.MaxTickDuration != 100*time.Microsecond {
		t.Errorf("MaxTickDuration = %v, want 100µs", stats.MaxTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg != (PhaseDurations{}) {
		t.Errorf("expected zero phase averages, got %v", stats.PhaseAvg)
	}
}

func TestPerfCollector_P95AndUnknownPhase(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollectorWithClock(20, clk.now)

	for i := 1; i <= 20; i++ {
		pc.StartTick()
		pc.StartPhase(Phase(200)) // ignored, closes nothing
		clk.advance(time.Duration(i) * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.MinTickDuration != time.Microsecond || stats.MaxTickDuration != 20*time.Microsecond {
		t.Errorf("min/max = %v/%v, want 1µs/20µs", stats.MinTickDuration, stats.MaxTickDuration)
	}
	if stats.P95TickDuration != 19*time.Microsecond {
		t.Errorf("P95TickDuration = %v, want 19µs", stats.P95TickDuration)
	}
	if stats.PhaseAvg != (PhaseDurations{}) {
		t.Errorf("unknown phase recorded time: %v", stats.PhaseAvg)
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseSpatialGrid.String() != "spatial_grid" {
		t.Errorf("PhaseSpatialGrid = %q", PhaseSpatialGrid)
	}
	if NumPhases.String() != "unknown" {
		t.Errorf("NumPhases = %q", NumPhases)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
	}
	s.PhasePct[PhaseSpatialGrid] = 40
	s.PhasePct[PhaseFeeding] = 10
	row := s.ToCSV("abc", 600)
	if row.RunID != "abc" || row.WindowEnd != 600 || row.AvgTickUS != 250 {
		t.Errorf("row = %+v", row)
	}
	if row.SpatialGridPct != 40 || row.FeedingPct != 10 || row.CollisionPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
