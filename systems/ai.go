package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
)

// Decision is the steering output for one agent for one tick.
type Decision struct {
	Dir   components.Vec2
	Boost bool
}

// AIEngine drives bots with a per-bot state machine and a lookahead safety
// layer. Brains are keyed by agent id and owned here.
type AIEngine struct {
	cfg    *config.Config
	rng    *rand.Rand
	safety *SafetyLayer
	brains map[uint32]*components.Brain

	foodBuf   []FoodView
	threatBuf []*components.Snake
}

// NewAIEngine creates an engine with no registered brains.
func NewAIEngine(cfg *config.Config, rng *rand.Rand) *AIEngine {
	return &AIEngine{
		cfg:    cfg,
		rng:    rng,
		safety: NewSafetyLayer(cfg),
		brains: make(map[uint32]*components.Brain),
	}
}

// Register creates a brain for id with a random aggressiveness trait.
// The first Update after registration makes a decision immediately.
func (e *AIEngine) Register(id uint32) *components.Brain {
	b := &components.Brain{
		State:           components.StateWander,
		Aggressiveness:  e.rng.Float64(),
		Level:           1,
		SinceDecisionMs: math.MaxFloat64 / 2,
	}
	e.brains[id] = b
	return b
}

// Unregister drops the brain for id.
func (e *AIEngine) Unregister(id uint32) {
	delete(e.brains, id)
}

// Brain returns the brain for id, if registered.
func (e *AIEngine) Brain(id uint32) (*components.Brain, bool) {
	b, ok := e.brains[id]
	return b, ok
}

// Count returns the number of registered brains.
func (e *AIEngine) Count() int { return len(e.brains) }

// Safety exposes the safety layer.
func (e *AIEngine) Safety() *SafetyLayer { return e.safety }

// LevelForScore maps a score to an AI level 1-3.
func LevelForScore(thresholds []int, score int) int {
	level := 1
	for _, t := range thresholds {
		if score >= t {
			level++
		}
	}
	return min(level, 3)
}

// Update runs one tick for s: a rate-limited decision, per-state motion,
// boundary blending, then the safety layer at levels 2 and 3.
func (e *AIEngine) Update(s *components.Snake, roster []*components.Snake, boss *components.Snake, food FoodSource, dtMs float64) Decision {
	if !s.Alive {
		return Decision{Dir: s.Dir}
	}
	if !(dtMs > 0) || !finite(dtMs) {
		dtMs = 0
	}
	b, ok := e.brains[s.ID]
	if !ok {
		b = e.Register(s.ID)
	}
	b.Level = LevelForScore(e.cfg.AI.LevelThresholds, s.Score)
	lvl := e.cfg.Level(b.Level)

	b.TimeInStateMs += dtMs
	b.SinceDecisionMs += dtMs
	if b.SinceDecisionMs >= lvl.DecisionIntervalMs {
		e.decide(b, s, roster, boss, food, lvl)
		b.SinceDecisionMs = 0
	}

	dir, boost := e.steer(b, s, roster, boss, food, lvl)
	ai := &e.cfg.AI
	dir = BoundaryBlend(s.Pos, sanitizeDir(dir, s.Dir), e.cfg.World.Width, e.cfg.World.Height, ai.BoundaryMargin, ai.BoundaryWeight)

	if b.Level >= 2 {
		e.safety.Gather(s, roster, boss)
		resolved, safe := e.safety.Resolve(s, dir, b.Level)
		if b.Level >= 3 && b.State == components.StateHunt && !safe {
			boost = false
		}
		dir = resolved
	}
	return Decision{Dir: dir, Boost: boost}
}

// decide picks a state by priority: flee, hunt, eat, wander.
func (e *AIEngine) decide(b *components.Brain, s *components.Snake, roster []*components.Snake, boss *components.Snake, food FoodSource, lvl config.AILevelConfig) {
	ai := &e.cfg.AI

	if b.State == components.StateFlee {
		threat := findAgent(roster, boss, b.TargetID)
		if threat != nil && components.Dist(s.Pos, threat.Pos) <= lvl.FleeRelease {
			b.FleeJitter = e.jitter()
			return
		}
		e.startWander(b)
		return
	}

	if threat, dist := e.nearestThreat(s, roster, boss, lvl.ThreatRadius); threat != nil && dist < ai.FleeTriggerDistance {
		b.Enter(components.StateFlee)
		b.TargetID = threat.ID
		b.Target = threat.Pos
		b.FleeJitter = e.jitter()
		return
	}

	if prey := e.nearestPrey(s, roster, lvl.VisionRadius); prey != nil && e.Aggression(b, s) >= ai.AggressionThreshold {
		b.Enter(components.StateHunt)
		b.TargetID = prey.ID
		b.Target = prey.Pos
		return
	}

	if best, ok := e.bestFood(b, s, roster, boss, food, lvl); ok {
		b.Enter(components.StateEat)
		b.Food = best.Ref
		b.Target = best.Pos
		return
	}

	if b.State != components.StateWander {
		e.startWander(b)
	}
}

// steer produces the direction and boost for the current state.
func (e *AIEngine) steer(b *components.Brain, s *components.Snake, roster []*components.Snake, boss *components.Snake, food FoodSource, lvl config.AILevelConfig) (components.Vec2, bool) {
	ai := &e.cfg.AI

	switch b.State {
	case components.StateFlee:
		threat := findAgent(roster, boss, b.TargetID)
		if threat == nil {
			e.startWander(b)
			break
		}
		away := sanitizeDir(s.Pos.Sub(threat.Pos), s.Dir)
		dist := components.Dist(s.Pos, threat.Pos)
		return rotate(away, b.FleeJitter), dist < ai.FleeBoostDistance

	case components.StateHunt:
		prey := findAgent(roster, nil, b.TargetID)
		if prey == nil || components.Dist(s.Pos, prey.Pos) > lvl.VisionRadius*1.5 {
			e.startWander(b)
			break
		}
		aim := LeadTarget(s.Pos, s.Speed, prey.Pos, prey.Vel, ai.LeadTimeMax)
		if b.Level >= 3 {
			aim = CutOff(aim, s.Pos, prey.Vel, ai.CutoffOffset)
		}
		b.Target = aim
		dist := components.Dist(s.Pos, prey.Pos)
		return aim.Sub(s.Pos), lvl.HuntBoostDistance > 0 && dist < lvl.HuntBoostDistance

	case components.StateEat:
		if f, ok := food.LookupFood(b.Food); ok {
			b.Target = f.Pos
		} else {
			// Eaten or removed: decide again next tick.
			b.SinceDecisionMs = lvl.DecisionIntervalMs
		}
		dist := components.Dist(s.Pos, b.Target)
		boost := b.Level >= 3 && dist < ai.EatBoostDistance && s.BoostEnergy > s.BoostMax/2
		return b.Target.Sub(s.Pos), boost
	}

	// Wander
	if components.Dist(s.Pos, b.Target) < ai.WanderArrive || b.TimeInStateMs > lvl.WanderTimeoutMs {
		e.startWander(b)
	}
	return b.Target.Sub(s.Pos), false
}

// Aggression combines the persistent trait, relative mass and level.
func (e *AIEngine) Aggression(b *components.Brain, s *components.Snake) float64 {
	ai := &e.cfg.AI
	massFactor := 0.0
	if ai.MassReference > 0 {
		massFactor = clamp01(s.Mass / ai.MassReference)
	}
	levelFactor := float64(b.Level-1) / 2
	return ai.TraitWeight*b.Aggressiveness + ai.MassWeight*massFactor + ai.LevelWeight*levelFactor
}

// nearestThreat returns the closest sufficiently heavier agent within radius.
// A live boss always counts as a threat. The whole roster is scanned.
func (e *AIEngine) nearestThreat(s *components.Snake, roster []*components.Snake, boss *components.Snake, radius float64) (*components.Snake, float64) {
	var best *components.Snake
	bestDist := radius
	for _, o := range roster {
		if o == s || !o.Alive || o.Mass < s.Mass*e.cfg.AI.ThreatMassRatio {
			continue
		}
		if d := components.Dist(s.Pos, o.Pos); d <= bestDist {
			best, bestDist = o, d
		}
	}
	if boss != nil && boss.Alive {
		if d := components.Dist(s.Pos, boss.Pos); d <= bestDist {
			best, bestDist = boss, d
		}
	}
	return best, bestDist
}

// nearestPrey returns the closest sufficiently lighter agent within radius.
func (e *AIEngine) nearestPrey(s *components.Snake, roster []*components.Snake, radius float64) *components.Snake {
	var best *components.Snake
	bestDist := radius
	for _, o := range roster {
		if o == s || !o.Alive || o.Mass > s.Mass*e.cfg.AI.PreyMassRatio {
			continue
		}
		if d := components.Dist(s.Pos, o.Pos); d <= bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// bestFood scores visible food by value minus distance, minus a penalty
// for food near threats from level 2 on.
func (e *AIEngine) bestFood(b *components.Brain, s *components.Snake, roster []*components.Snake, boss *components.Snake, food FoodSource, lvl config.AILevelConfig) (FoodView, bool) {
	if food == nil {
		return FoodView{}, false
	}
	ai := &e.cfg.AI
	e.foodBuf = food.NearbyFood(e.foodBuf[:0], s.Pos.X, s.Pos.Y, lvl.VisionRadius)
	if len(e.foodBuf) == 0 {
		return FoodView{}, false
	}

	e.threatBuf = e.threatBuf[:0]
	if b.Level >= 2 {
		reach := lvl.VisionRadius + lvl.ThreatRadius
		for _, o := range roster {
			if o != s && o.Alive && o.Mass >= s.Mass*ai.ThreatMassRatio && components.Dist(s.Pos, o.Pos) <= reach {
				e.threatBuf = append(e.threatBuf, o)
			}
		}
		if boss != nil && boss.Alive {
			e.threatBuf = append(e.threatBuf, boss)
		}
	}

	best, bestScore := -1, math.Inf(-1)
	for i, f := range e.foodBuf {
		score := float64(f.Value)*ai.FoodValueWeight - components.Dist(s.Pos, f.Pos)
		for _, t := range e.threatBuf {
			proximity := 1 - components.Dist(t.Pos, f.Pos)/lvl.ThreatRadius
			if proximity > 0 {
				score -= ai.ThreatPenalty * proximity
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return e.foodBuf[best], true
}

func (e *AIEngine) startWander(b *components.Brain) {
	b.State = components.StateWander
	b.TimeInStateMs = 0
	b.TargetID = 0
	b.Food = components.FoodRef{}
	m := e.cfg.AI.WanderMargin
	w, h := e.cfg.World.Width, e.cfg.World.Height
	b.Target = components.Vec2{
		X: m + e.rng.Float64()*math.Max(w-2*m, 0),
		Y: m + e.rng.Float64()*math.Max(h-2*m, 0),
	}
}

func (e *AIEngine) jitter() float64 {
	return (e.rng.Float64()*2 - 1) * e.cfg.AI.FleeJitterRad
}

// findAgent returns the live agent with id from the roster or the boss.
func findAgent(roster []*components.Snake, boss *components.Snake, id uint32) *components.Snake {
	if id == 0 {
		return nil
	}
	for _, o := range roster {
		if o.ID == id {
			if o.Alive {
				return o
			}
			return nil
		}
	}
	if boss != nil && boss.ID == id && boss.Alive {
		return boss
	}
	return nil
}
