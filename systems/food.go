package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
)

// FoodView is a read-only copy of a live food item.
type FoodView struct {
	Ref      components.FoodRef
	Pos      components.Vec2
	Type     components.FoodType
	Value    int
	Radius   float64
	Consumed bool
	Pulse    float64
}

// FoodSource is what steering needs to know about food.
type FoodSource interface {
	NearbyFood(dst []FoodView, x, y, radius float64) []FoodView
	LookupFood(ref components.FoodRef) (FoodView, bool)
}

// FoodSystem owns food entities in an ECS world. Placement follows a noise
// field so food gathers in drifting clusters instead of uniform static.
type FoodSystem struct {
	world   *ecs.World
	mapper  *ecs.Map2[components.Position, components.Food]
	filter  *ecs.Filter2[components.Position, components.Food]
	posMap  *ecs.Map[components.Position]
	foodMap *ecs.Map[components.Food]

	cfg    *config.FoodConfig
	width  float64
	height float64
	margin float64
	rng    *rand.Rand
	noise  opensimplex.Noise
	grid   *SpatialGrid

	nextID   uint32
	count    int
	toRemove []ecs.Entity
	entries  []FoodEntry
}

// NewFoodSystem creates an empty food system. grid is used for proximity
// queries and must be rebuilt by the caller each tick.
func NewFoodSystem(w *ecs.World, cfg *config.Config, grid *SpatialGrid, rng *rand.Rand) *FoodSystem {
	return &FoodSystem{
		world:   w,
		mapper:  ecs.NewMap2[components.Position, components.Food](w),
		filter:  ecs.NewFilter2[components.Position, components.Food](w),
		posMap:  ecs.NewMap[components.Position](w),
		foodMap: ecs.NewMap[components.Food](w),
		cfg:     &cfg.Food,
		width:   cfg.World.Width,
		height:  cfg.World.Height,
		margin:  math.Max(cfg.Food.PowerUpRadius, cfg.Snake.MaxRadius),
		rng:     rng,
		noise:   opensimplex.NewNormalized(cfg.World.Seed),
		grid:    grid,
	}
}

// Count returns the number of live food entities, consumed or not.
func (s *FoodSystem) Count() int { return s.count }

// Spawn creates a food entity. Positions are clamped into the world.
func (s *FoodSystem) Spawn(x, y float64, t components.FoodType, value int, radius float64) components.FoodRef {
	if !finite(x) || !finite(y) {
		x, y = s.width/2, s.height/2
	}
	if value < 1 {
		value = 1
	}
	s.nextID++
	pos := components.Position{
		X: clampFloat(x, radius, s.width-radius),
		Y: clampFloat(y, radius, s.height-radius),
	}
	food := components.Food{
		ID:     s.nextID,
		Type:   t,
		Value:  value,
		Radius: radius,
		Pulse:  s.rng.Float64() * 2 * math.Pi,
	}
	e := s.mapper.NewEntity(&pos, &food)
	s.count++
	return components.FoodRef{Entity: e, ID: food.ID}
}

// SpawnAmbient places one ambient item, favoring high-noise regions.
func (s *FoodSystem) SpawnAmbient() components.FoodRef {
	x, y := s.randomPoint()
	for i := 1; i < s.cfg.PlacementAttempts; i++ {
		if s.noise.Eval2(x*s.cfg.ClusterScale, y*s.cfg.ClusterScale) >= s.cfg.ClusterThreshold {
			break
		}
		x, y = s.randomPoint()
	}

	roll := s.rng.Float64()
	switch {
	case roll < s.cfg.PowerUpChance/2:
		return s.Spawn(x, y, components.FoodBoostCharge, s.cfg.PelletValue, s.cfg.PowerUpRadius)
	case roll < s.cfg.PowerUpChance:
		return s.Spawn(x, y, components.FoodSpeedSurge, s.cfg.PelletValue, s.cfg.PowerUpRadius)
	case roll < s.cfg.PowerUpChance+s.cfg.LargeChance:
		return s.Spawn(x, y, components.FoodLarge, s.cfg.LargeValue, s.cfg.LargeRadius)
	default:
		return s.Spawn(x, y, components.FoodPellet, s.cfg.PelletValue, s.cfg.PelletRadius)
	}
}

// SpawnRemains drops corpse food along a body: every RemainsStep-th segment
// becomes an item, splitting massShare of the victim's mass between them.
func (s *FoodSystem) SpawnRemains(segments []components.Segment, mass float64) int {
	step := max(s.cfg.RemainsStep, 1)
	n := (len(segments) + step - 1) / step
	if n == 0 {
		return 0
	}
	value := int(math.Round(mass * s.cfg.RemainsMassShare / float64(n)))
	spawned := 0
	for i := 0; i < len(segments); i += step {
		seg := segments[i]
		jx := (s.rng.Float64() - 0.5) * seg.Radius
		jy := (s.rng.Float64() - 0.5) * seg.Radius
		s.Spawn(seg.X+jx, seg.Y+jy, components.FoodRemains, value, s.cfg.RemainsRadius)
		spawned++
	}
	return spawned
}

// Animate advances the cosmetic pulse of every item.
func (s *FoodSystem) Animate(dtSec float64) {
	step := s.cfg.PulseSpeed * dtSec
	query := s.filter.Query()
	for query.Next() {
		_, food := query.Get()
		food.Pulse = math.Mod(food.Pulse+step, 2*math.Pi)
	}
}

// RegisterAll inserts every unconsumed item into the grid.
func (s *FoodSystem) RegisterAll(grid *SpatialGrid) {
	query := s.filter.Query()
	for query.Next() {
		pos, food := query.Get()
		if food.Consumed {
			continue
		}
		grid.RegisterFood(query.Entity(), pos.X, pos.Y)
	}
}

// Food returns the live component for e, or false if e was removed.
func (s *FoodSystem) Food(e ecs.Entity) (*components.Food, bool) {
	if !s.world.Alive(e) || !s.foodMap.Has(e) {
		return nil, false
	}
	return s.foodMap.Get(e), true
}

// Position returns the position of a live food entity.
func (s *FoodSystem) Position(e ecs.Entity) (components.Vec2, bool) {
	if !s.world.Alive(e) || !s.posMap.Has(e) {
		return components.Vec2{}, false
	}
	p := s.posMap.Get(e)
	return components.Vec2{X: p.X, Y: p.Y}, true
}

// LookupFood resolves a reference, rejecting recycled entities and eaten food.
func (s *FoodSystem) LookupFood(ref components.FoodRef) (FoodView, bool) {
	food, ok := s.Food(ref.Entity)
	if !ok || food.ID != ref.ID || food.Consumed {
		return FoodView{}, false
	}
	pos := s.posMap.Get(ref.Entity)
	return s.view(ref.Entity, pos, food), true
}

// NearbyFood appends unconsumed food within radius of (x, y), using the grid.
func (s *FoodSystem) NearbyFood(dst []FoodView, x, y, radius float64) []FoodView {
	s.entries = s.grid.QueryNearbyFood(s.entries[:0], x, y, s.grid.RadiusCells(radius))
	rr := radius * radius
	for _, entry := range s.entries {
		dx, dy := entry.X-x, entry.Y-y
		if dx*dx+dy*dy > rr {
			continue
		}
		food, ok := s.Food(entry.E)
		if !ok || food.Consumed {
			continue
		}
		dst = append(dst, s.view(entry.E, s.posMap.Get(entry.E), food))
	}
	return dst
}

// PickUp consumes every item under the head of s and returns the eaten views.
func (s *FoodSystem) PickUp(snake *components.Snake, dst []FoodView) []FoodView {
	reach := snake.HeadRadius + math.Max(s.cfg.PowerUpRadius, s.cfg.LargeRadius)
	s.entries = s.grid.QueryNearbyFood(s.entries[:0], snake.Pos.X, snake.Pos.Y, s.grid.RadiusCells(reach))
	for _, entry := range s.entries {
		food, ok := s.Food(entry.E)
		if !ok || food.Consumed || !FoodPickup(snake, entry.X, entry.Y, food.Radius) {
			continue
		}
		if ConsumeFood(snake, food) {
			dst = append(dst, s.view(entry.E, s.posMap.Get(entry.E), food))
		}
	}
	return dst
}

// Sweep removes consumed items and returns how many were removed.
func (s *FoodSystem) Sweep() int {
	s.toRemove = s.toRemove[:0]
	query := s.filter.Query()
	for query.Next() {
		_, food := query.Get()
		if food.Consumed {
			s.toRemove = append(s.toRemove, query.Entity())
		}
	}
	s.remove()
	return len(s.toRemove)
}

// TopUp spawns up to TopUpPerTick ambient items toward the target count and
// trims ambient items above the hard cap. It returns spawned and trimmed counts.
func (s *FoodSystem) TopUp() (spawned, trimmed int) {
	for s.count < s.cfg.TargetCount && spawned < s.cfg.TopUpPerTick {
		s.SpawnAmbient()
		spawned++
	}
	if excess := s.count - s.cfg.MaxCount; excess > 0 {
		s.toRemove = s.toRemove[:0]
		query := s.filter.Query()
		for query.Next() {
			_, food := query.Get()
			if len(s.toRemove) < excess && food.Type == components.FoodPellet {
				s.toRemove = append(s.toRemove, query.Entity())
			}
		}
		s.remove()
		trimmed = len(s.toRemove)
	}
	return spawned, trimmed
}

// Views appends views of the grid entries that are still live and unconsumed.
func (s *FoodSystem) Views(dst []FoodView, entries []FoodEntry) []FoodView {
	for _, entry := range entries {
		food, ok := s.Food(entry.E)
		if !ok || food.Consumed {
			continue
		}
		dst = append(dst, s.view(entry.E, s.posMap.Get(entry.E), food))
	}
	return dst
}

// All appends a view of every live item.
func (s *FoodSystem) All(dst []FoodView) []FoodView {
	query := s.filter.Query()
	for query.Next() {
		pos, food := query.Get()
		dst = append(dst, s.view(query.Entity(), pos, food))
	}
	return dst
}

func (s *FoodSystem) remove() {
	for _, e := range s.toRemove {
		s.world.RemoveEntity(e)
		s.count--
	}
}

func (s *FoodSystem) view(e ecs.Entity, pos *components.Position, food *components.Food) FoodView {
	return FoodView{
		Ref:      components.FoodRef{Entity: e, ID: food.ID},
		Pos:      components.Vec2{X: pos.X, Y: pos.Y},
		Type:     food.Type,
		Value:    food.Value,
		Radius:   food.Radius,
		Consumed: food.Consumed,
		Pulse:    food.Pulse,
	}
}

func (s *FoodSystem) randomPoint() (float64, float64) {
	x := s.margin + s.rng.Float64()*(s.width-2*s.margin)
	y := s.margin + s.rng.Float64()*(s.height-2*s.margin)
	return x, y
}
