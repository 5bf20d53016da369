package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
)

// HallEntry is one finished life worth remembering.
type HallEntry struct {
	RunID      string  `json:"run_id"`
	EntityID   uint32  `json:"entity_id"`
	Kind       string  `json:"kind"`
	Fitness    float64 `json:"fitness"`
	PeakScore  int     `json:"peak_score"`
	PeakLength int     `json:"peak_length"`
	PeakLevel  int     `json:"peak_level"`
	Kills      int     `json:"kills"`
	FoodEaten  int     `json:"food_eaten"`
	BossHits   int     `json:"boss_hits"`
	Survival   float64 `json:"survival_sec"`
	DeathCause string  `json:"death_cause"`

	Aggressiveness float64 `json:"aggressiveness"`
}

// HallOfFame keeps the best lives of a run, sorted by fitness.
type HallOfFame struct {
	runID   string
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates an empty hall with the given capacity.
func NewHallOfFame(runID string, maxSize int) *HallOfFame {
	maxSize = max(maxSize, 1)
	return &HallOfFame{
		runID:   runID,
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Fitness scores a life: peak score, plus kills and boss hits, plus a
// small survival term to break ties.
func Fitness(stats *LifetimeStats) float64 {
	return float64(stats.PeakScore) + 10*float64(stats.Kills) + 5*float64(stats.BossHits) + stats.SurvivalTimeSec/60
}

// Consider evaluates a finished life for entry.
// Returns true if the life was added to the hall.
func (hof *HallOfFame) Consider(id uint32, stats *LifetimeStats) bool {
	if stats == nil || stats.PeakScore <= 0 {
		return false
	}
	entry := HallEntry{
		RunID:      hof.runID,
		EntityID:   id,
		Kind:       stats.Kind.String(),
		Fitness:    Fitness(stats),
		PeakScore:  stats.PeakScore,
		PeakLength: stats.PeakLength,
		PeakLevel:  stats.PeakLevel,
		Kills:      stats.Kills,
		FoodEaten:  stats.FoodEaten,
		BossHits:   stats.BossHits,
		Survival:   stats.SurvivalTimeSec,
		DeathCause: stats.DeathCause,

		Aggressiveness: stats.Aggressiveness,
	}

	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	if idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Entries returns the hall in descending fitness order.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopFitness returns the highest fitness, or 0 if the hall is empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// Sample picks the better of two random entries, so stronger lives are
// reseeded more often without starving the rest of the hall.
func (hof *HallOfFame) Sample(rng *rand.Rand) (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	i := rng.Intn(len(hof.entries))
	j := rng.Intn(len(hof.entries))
	// Entries are sorted best first.
	return hof.entries[min(i, j)], true
}

// MarshalJSON serializes the hall as an array, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall written by OutputManager.
func LoadHallOfFameFromFile(path string) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	runID := ""
	if len(entries) > 0 {
		runID = entries[0].RunID
	}
	hof := NewHallOfFame(runID, len(entries))
	hof.entries = append(hof.entries, entries...)
	sort.SliceStable(hof.entries, func(i, j int) bool {
		return hof.entries[i].Fitness > hof.entries[j].Fitness
	})
	return hof, nil
}
