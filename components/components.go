// Package components defines the entity records of the arena simulation:
// serpents, bosses, food and bot brains.
package components

import "github.com/mlange-42/ark/ecs"

// FoodType is the tier of a food item.
type FoodType uint8

const (
	FoodPellet      FoodType = iota // ambient food
	FoodLarge                       // rarer, worth more
	FoodRemains                     // dropped by dead or boosting bodies
	FoodBoostCharge                 // grants infinite boost
	FoodSpeedSurge                  // grants a timed speed multiplier
)

func (t FoodType) String() string {
	switch t {
	case FoodPellet:
		return "pellet"
	case FoodLarge:
		return "large"
	case FoodRemains:
		return "remains"
	case FoodBoostCharge:
		return "boost_charge"
	case FoodSpeedSurge:
		return "speed_surge"
	default:
		return "unknown"
	}
}

// PowerUp reports whether the tier grants a timed effect.
func (t FoodType) PowerUp() bool {
	return t == FoodBoostCharge || t == FoodSpeedSurge
}

// Food is the ECS component for an edible item. Its position lives in a
// Position component on the same entity.
type Food struct {
	ID       uint32
	Type     FoodType
	Value    int
	Radius   float64
	Consumed bool
	Pulse    float64 // cosmetic phase, radians
}

// FoodRef identifies a food entity together with its stable id, so a stale
// reference to a recycled entity can be detected.
type FoodRef struct {
	Entity ecs.Entity
	ID     uint32
}
