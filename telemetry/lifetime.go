package telemetry

import "github.com/pthm-cable/serpent/components"

// LifetimeStats tracks per-agent statistics over one life.
type LifetimeStats struct {
	Kind            components.Kind `json:"kind"`
	BirthTick       int32           `json:"birth_tick"`
	SurvivalTimeSec float64         `json:"survival_time_sec"`

	Kills      int `json:"kills"`
	FoodEaten  int `json:"food_eaten"`
	PowerUps   int `json:"power_ups"`
	BossHits   int `json:"boss_hits"`
	PeakScore  int `json:"peak_score"`
	PeakLength int `json:"peak_length"`
	PeakLevel  int `json:"peak_level"`

	Aggressiveness float64 `json:"aggressiveness"`

	DeathCause string `json:"death_cause,omitempty"`
	KillerID   uint32 `json:"killer_id,omitempty"`
}

// LifeRecord is one finished life as a lives.csv row.
type LifeRecord struct {
	RunID      string  `csv:"run_id"`
	ID         uint32  `csv:"id"`
	Kind       string  `csv:"kind"`
	BirthTick  int32   `csv:"birth_tick"`
	Survival   float64 `csv:"survival_sec"`
	Kills      int     `csv:"kills"`
	FoodEaten  int     `csv:"food_eaten"`
	PowerUps   int     `csv:"power_ups"`
	BossHits   int     `csv:"boss_hits"`
	PeakScore  int     `csv:"peak_score"`
	PeakLength int     `csv:"peak_length"`
	PeakLevel  int     `csv:"peak_level"`
	Aggression float64 `csv:"aggressiveness"`
	DeathCause string  `csv:"death_cause"`
	KillerID   uint32  `csv:"killer_id"`
}

// Record flattens the stats of agent id into a CSV row.
func (s *LifetimeStats) Record(runID string, id uint32) LifeRecord {
	return LifeRecord{
		RunID:      runID,
		ID:         id,
		Kind:       s.Kind.String(),
		BirthTick:  s.BirthTick,
		Survival:   s.SurvivalTimeSec,
		Kills:      s.Kills,
		FoodEaten:  s.FoodEaten,
		PowerUps:   s.PowerUps,
		BossHits:   s.BossHits,
		PeakScore:  s.PeakScore,
		PeakLength: s.PeakLength,
		PeakLevel:  s.PeakLevel,
		Aggression: s.Aggressiveness,
		DeathCause: s.DeathCause,
		KillerID:   s.KillerID,
	}
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a newly spawned agent.
func (lt *LifetimeTracker) Register(id uint32, kind components.Kind, birthTick int32) {
	lt.stats[id] = &LifetimeStats{Kind: kind, BirthTick: birthTick, PeakLevel: 1}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an agent's stats and returns them, stamped with the
// survival time and cause of death.
func (lt *LifetimeTracker) Remove(id uint32, currentTick int32, tickSec float64, cause string, killerID uint32) *LifetimeStats {
	s := lt.stats[id]
	if s == nil {
		return nil
	}
	delete(lt.stats, id)
	s.SurvivalTimeSec = float64(currentTick-s.BirthTick) * tickSec
	s.DeathCause = cause
	s.KillerID = killerID
	return s
}

// Record folds an event into the stats of the agent it names.
func (lt *LifetimeTracker) Record(ev Event) {
	switch ev.Type {
	case EventKill:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.Kills++
		}
	case EventEat:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.FoodEaten++
		}
	case EventPowerUp:
		if s := lt.stats[ev.EntityID]; s != nil {
			s.PowerUps++
		}
	case EventBossHit:
		if s := lt.stats[ev.TargetID]; s != nil {
			s.BossHits++
		}
	}
}

// Observe updates the peak score, length and AI level of an agent.
func (lt *LifetimeTracker) Observe(id uint32, score, length, level int) {
	s := lt.stats[id]
	if s == nil {
		return
	}
	s.PeakScore = max(s.PeakScore, score)
	s.PeakLength = max(s.PeakLength, length)
	s.PeakLevel = max(s.PeakLevel, level)
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
