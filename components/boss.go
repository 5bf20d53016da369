package components

import "github.com/pthm-cable/serpent/config"

// BossKind selects a boss variant.
type BossKind uint8

const (
	BossLeviathan BossKind = iota // contact is lethal
	BossWarden                    // contact pushes agents away
)

func (k BossKind) String() string {
	if k == BossWarden {
		return "warden"
	}
	return "leviathan"
}

// Boss is a large adversarial serpent with a lifetime and a health pool.
type Boss struct {
	Body *Snake
	Kind BossKind
	Spec config.BossKindConfig

	LifetimeMs float64
	Health     int
	MaxHealth  int

	lastHitMs float64
	hit       bool

	// Target memory. At most one of prey or food is active.
	PreyID             uint32
	Food               FoodRef
	HasFood            bool
	Waypoint           Vec2
	RetargetCooldownMs float64

	LastAttackerID uint32
}

// NewBoss wraps a body with the lifetime and health of its kind.
func NewBoss(body *Snake, kind BossKind, spec config.BossKindConfig) *Boss {
	return &Boss{
		Body:       body,
		Kind:       kind,
		Spec:       spec,
		LifetimeMs: spec.LifetimeMs,
		Health:     spec.Health,
		MaxHealth:  spec.Health,
	}
}

// Lethal reports whether contact with this boss kills.
func (b *Boss) Lethal() bool { return b.Spec.Lethal }

// Alive reports whether the boss still has health and lifetime left.
func (b *Boss) Alive() bool {
	return b.Body.Alive && b.Health > 0 && b.LifetimeMs > 0
}

// TryDamage applies damage if at least cooldownMs has passed since the last
// accepted hit. nowMs comes from an injectable clock.
func (b *Boss) TryDamage(amount int, nowMs, cooldownMs float64) bool {
	if amount <= 0 || b.Health <= 0 {
		return false
	}
	if b.hit && nowMs-b.lastHitMs < cooldownMs {
		return false
	}
	b.hit = true
	b.lastHitMs = nowMs
	b.Health -= amount
	if b.Health < 0 {
		b.Health = 0
	}
	return true
}

// Age counts the lifetime down and reports whether it just expired.
func (b *Boss) Age(dtMs float64) bool {
	if b.LifetimeMs <= 0 {
		return false
	}
	b.LifetimeMs -= dtMs
	if b.LifetimeMs <= 0 {
		b.LifetimeMs = 0
		return true
	}
	return false
}

// ForgetTarget clears prey and food memory.
func (b *Boss) ForgetTarget() {
	b.PreyID = 0
	b.HasFood = false
	b.Food = FoodRef{}
}
