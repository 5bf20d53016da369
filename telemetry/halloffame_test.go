package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/serpent/components"
)

func TestHallOfFame_KeepsBestSorted(t *testing.T) {
	hof := NewHallOfFame("run", 3)
	scores := []int{5, 40, 12, 0, 25, 3}
	for i, s := range scores {
		hof.Consider(uint32(i+1), &LifetimeStats{Kind: components.KindBot, PeakScore: s})
	}

	entries := hof.Entries()
	if len(entries) != 3 {
		t.Fatalf("size = %d, want 3", len(entries))
	}
	want := []int{40, 25, 12}
	for i, e := range entries {
		if e.PeakScore != want[i] {
			t.Errorf("entry %d peak = %d, want %d", i, e.PeakScore, want[i])
		}
	}
	if hof.TopFitness() != entries[0].Fitness {
		t.Error("TopFitness does not match the first entry")
	}
}

func TestHallOfFame_RejectsZeroScore(t *testing.T) {
	hof := NewHallOfFame("run", 3)
	if hof.Consider(1, &LifetimeStats{}) || hof.Consider(2, nil) {
		t.Error("accepted a life with nothing to show")
	}
}

func TestHallOfFame_SampleFavorsBest(t *testing.T) {
	hof := NewHallOfFame("run", 4)
	if _, ok := hof.Sample(rand.New(rand.NewSource(1))); ok {
		t.Fatal("sampled from an empty hall")
	}
	for i, s := range []int{10, 20, 30, 40} {
		hof.Consider(uint32(i+1), &LifetimeStats{PeakScore: s, Aggressiveness: float64(s) / 100})
	}

	rng := rand.New(rand.NewSource(7))
	counts := make(map[int]int)
	for i := 0; i < 2000; i++ {
		e, ok := hof.Sample(rng)
		if !ok {
			t.Fatal("sample failed on a full hall")
		}
		if e.Aggressiveness != float64(e.PeakScore)/100 {
			t.Fatalf("entry %d lost its trait: %v", e.PeakScore, e.Aggressiveness)
		}
		counts[e.PeakScore]++
	}
	if counts[40] <= counts[10] {
		t.Errorf("best entry sampled %d times, worst %d", counts[40], counts[10])
	}
}

func TestHallOfFame_FileRoundTrip(t *testing.T) {
	hof := NewHallOfFame("run-7", 5)
	hof.Consider(1, &LifetimeStats{Kind: components.KindPlayer, PeakScore: 30, Kills: 2})
	hof.Consider(2, &LifetimeStats{Kind: components.KindBot, PeakScore: 60})

	data, err := hof.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	path := filepath.Join(t.TempDir(), "hall_of_fame.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadHallOfFameFromFile(path)
	if err != nil {
		t.Fatalf("LoadHallOfFameFromFile: %v", err)
	}
	if loaded.Size() != 2 || loaded.Entries()[0].EntityID != 2 || loaded.Entries()[0].RunID != "run-7" {
		t.Errorf("loaded = %+v", loaded.Entries())
	}
}

func TestLifetimeTracker_RecordAndRemove(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(3, components.KindBot, 100)
	lt.Record(NewKillEvent(110, 3, components.KindBot, 9, 4))
	lt.Record(NewEatEvent(111, 3, components.KindBot, 1))
	lt.Record(NewBossEvent(EventBossHit, 112, 500, 3))
	lt.Observe(3, 25, 30, 2)
	lt.Observe(3, 10, 20, 1)

	s := lt.Remove(3, 160, 0.5, "wall", 0)
	if s == nil {
		t.Fatal("Remove returned nil")
	}
	if s.Kills != 1 || s.FoodEaten != 1 || s.BossHits != 1 {
		t.Errorf("counters = %+v", s)
	}
	if s.PeakScore != 25 || s.PeakLength != 30 || s.PeakLevel != 2 {
		t.Errorf("peaks = %d/%d/%d, want 25/30/2", s.PeakScore, s.PeakLength, s.PeakLevel)
	}
	if s.SurvivalTimeSec != 30 || s.DeathCause != "wall" {
		t.Errorf("survival = %v cause = %q", s.SurvivalTimeSec, s.DeathCause)
	}
	if lt.Count() != 0 || lt.Remove(3, 0, 0, "", 0) != nil {
		t.Error("stats not removed")
	}
}
