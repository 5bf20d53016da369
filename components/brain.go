package components

// BotState is the current behavior of a bot.
type BotState uint8

const (
	StateWander BotState = iota
	StateHunt
	StateFlee
	StateEat
)

func (s BotState) String() string {
	switch s {
	case StateWander:
		return "wander"
	case StateHunt:
		return "hunt"
	case StateFlee:
		return "flee"
	case StateEat:
		return "eat"
	default:
		return "unknown"
	}
}

// Brain is the decision record for one bot, keyed by agent id.
type Brain struct {
	State           BotState
	Target          Vec2    // waypoint, food position or last prey fix
	TargetID        uint32  // prey or threat agent id
	Food            FoodRef // chosen food while eating
	TimeInStateMs   float64
	SinceDecisionMs float64
	Aggressiveness  float64 // persistent trait in [0,1]
	Level           int
	FleeJitter      float64 // angular offset applied while fleeing
}

// Enter switches state and resets the state timer.
func (b *Brain) Enter(s BotState) {
	if b.State != s {
		b.State = s
		b.TimeInStateMs = 0
	}
}
