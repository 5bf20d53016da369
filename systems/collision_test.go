package systems

import (
	"testing"

	"github.com/pthm-cable/serpent/components"
)

// resolveOnce rebuilds a grid for the roster and resolves collisions.
func resolveOnce(t *testing.T, roster []*components.Snake) []Death {
	t.Helper()
	cfg := loadConfig(t)
	g := NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize)
	for _, s := range roster {
		g.RegisterSnake(s, 1)
	}
	r := NewCollisionResolver(g, cfg.World.Width, cfg.World.Height, cfg.World.LethalWalls, 1, cfg.Snake.MaxRadius)
	return r.Resolve(roster, nil)
}

func TestCompareMass(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want int
	}{
		{"equal", 12.5, 12.5, 0},
		{"within epsilon", 1000, 1000 * (1 + 1e-8), 0},
		{"lighter", 10, 11, -1},
		{"heavier", 11, 10, 1},
		{"zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareMass(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareMass(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestResolve_EqualMassHeadOnBothSurvive(t *testing.T) {
	cfg := loadConfig(t)
	// Facing each other with overlapping heads.
	a := newTestSnake(cfg, 1, 1000, 1000, 0, 12)
	b := newTestSnake(cfg, 2, 1000+a.HeadRadius, 1000, 3.14159, 12)
	if CompareMass(a.Mass, b.Mass) != 0 {
		t.Fatalf("setup: masses differ %f vs %f", a.Mass, b.Mass)
	}

	for _, roster := range [][]*components.Snake{{a, b}, {b, a}} {
		if deaths := resolveOnce(t, roster); len(deaths) != 0 {
			t.Errorf("equal-mass head-on produced %d deaths: %+v", len(deaths), deaths)
		}
	}
}

func TestResolve_HeavierWinsHeadOnRegardlessOfOrder(t *testing.T) {
	cfg := loadConfig(t)
	light := newTestSnake(cfg, 1, 1000, 1000, 0, 10)
	heavy := newTestSnake(cfg, 2, 1000+light.HeadRadius, 1000, 3.14159, 40)
	if heavy.Mass < light.Mass*1.1 {
		t.Fatalf("setup: need >= 10%% mass advantage, got %f vs %f", heavy.Mass, light.Mass)
	}

	for _, roster := range [][]*components.Snake{{light, heavy}, {heavy, light}} {
		deaths := resolveOnce(t, roster)
		if len(deaths) != 1 {
			t.Fatalf("got %d deaths, want 1: %+v", len(deaths), deaths)
		}
		if deaths[0].Victim != light || deaths[0].Killer != heavy || deaths[0].Cause != CauseHeadOn {
			t.Errorf("death = victim %d killer %v cause %v, want light killed by heavy head-on",
				deaths[0].Victim.ID, deaths[0].Killer, deaths[0].Cause)
		}
	}
}

func TestResolve_HeadIntoBodyKillsHeadOwner(t *testing.T) {
	cfg := loadConfig(t)
	// Wall snake lies along +x with its body trailing toward -x.
	wall := newTestSnake(cfg, 1, 1500, 1000, 0, 60)
	mid := wall.Segments[30]
	// A heavier agent rams the body from below.
	rammer := newTestSnake(cfg, 2, mid.X, mid.Y+mid.Radius, -1.5708, 120)
	if rammer.Mass <= wall.Mass {
		t.Fatalf("setup: rammer should be heavier")
	}

	deaths := resolveOnce(t, []*components.Snake{wall, rammer})
	if len(deaths) != 1 || deaths[0].Victim != rammer || deaths[0].Cause != CauseBody {
		t.Errorf("deaths = %+v, want rammer dead by body contact", deaths)
	}
}

func TestResolve_WallContactIsLethal(t *testing.T) {
	cfg := loadConfig(t)
	s := newTestSnake(cfg, 1, 0, 1000, 3.14159, 10)
	s.Pos.X = s.HeadRadius
	deaths := resolveOnce(t, []*components.Snake{s})
	if len(deaths) != 1 || deaths[0].Cause != CauseWall {
		t.Errorf("deaths = %+v, want one wall death", deaths)
	}
}

func TestResolve_DeadAgentsIgnored(t *testing.T) {
	cfg := loadConfig(t)
	a := newTestSnake(cfg, 1, 1000, 1000, 0, 10)
	b := newTestSnake(cfg, 2, 1000+a.HeadRadius, 1000, 3.14159, 40)
	b.Alive = false
	if deaths := resolveOnce(t, []*components.Snake{a, b}); len(deaths) != 0 {
		t.Errorf("dead agent caused deaths: %+v", deaths)
	}
}

func TestConsumeFood_Idempotent(t *testing.T) {
	cfg := loadConfig(t)
	s := newTestSnake(cfg, 1, 1000, 1000, 0, 10)
	f := &components.Food{Value: 5, Radius: 6}
	score := s.Score

	if !ConsumeFood(s, f) {
		t.Fatal("first consume returned false")
	}
	if s.Score != score+5 || !f.Consumed {
		t.Errorf("after consume: score %d consumed %v, want %d true", s.Score, f.Consumed, score+5)
	}
	segs := s.Len()
	if ConsumeFood(s, f) {
		t.Error("second consume returned true")
	}
	if s.Score != score+5 || s.Len() != segs {
		t.Errorf("second consume changed state: score %d len %d", s.Score, s.Len())
	}
}

func TestFoodPickup_Radius(t *testing.T) {
	cfg := loadConfig(t)
	s := newTestSnake(cfg, 1, 1000, 1000, 0, 10)
	r := s.HeadRadius
	if !FoodPickup(s, 1000+r+4.9, 1000, 5) {
		t.Error("food just inside reach not picked up")
	}
	if FoodPickup(s, 1000+r+5, 1000, 5) {
		t.Error("food exactly at reach picked up")
	}
}
