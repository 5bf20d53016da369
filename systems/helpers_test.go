package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
)

func loadConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

// newTestSnake builds a bot with n segments heading along angle.
func newTestSnake(cfg *config.Config, id uint32, x, y, heading float64, n int) *components.Snake {
	model := components.BodyModelFromConfig(&cfg.Snake)
	spacing := SampleSpacing(cfg.Snake.MinSpeed, cfg.Physics.TickMs)
	return components.NewSnake(id, components.KindBot, components.Vec2{X: x, Y: y}, heading, n, model, cfg.Snake.BoostMax, spacing)
}

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
