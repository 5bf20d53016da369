package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/serpent/components"
)

func newTestFoodSystem(t *testing.T) (*FoodSystem, *SpatialGrid) {
	t.Helper()
	cfg := loadConfig(t)
	grid := NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize)
	return NewFoodSystem(ecs.NewWorld(), cfg, grid, newTestRNG()), grid
}

func TestFoodSystem_PickUpConsumesOnce(t *testing.T) {
	fs, grid := newTestFoodSystem(t)
	cfg := loadConfig(t)
	s := newTestSnake(cfg, 1, 1000, 1000, 0, 10)

	ref := fs.Spawn(1003, 1000, components.FoodLarge, 5, 9)
	fs.Spawn(1500, 1500, components.FoodPellet, 1, 5)
	grid.Clear()
	fs.RegisterAll(grid)

	eaten := fs.PickUp(s, nil)
	if len(eaten) != 1 || eaten[0].Ref != ref {
		t.Fatalf("eaten = %+v, want only the large item", eaten)
	}
	if s.Score != 5 {
		t.Errorf("score = %d, want 5", s.Score)
	}
	if again := fs.PickUp(s, nil); len(again) != 0 {
		t.Errorf("second pickup ate %d items", len(again))
	}
	if s.Score != 5 {
		t.Errorf("score after second pickup = %d, want 5", s.Score)
	}
	if _, ok := fs.LookupFood(ref); ok {
		t.Error("consumed food still resolvable")
	}
}

func TestFoodSystem_SweepRemovesConsumed(t *testing.T) {
	fs, grid := newTestFoodSystem(t)
	cfg := loadConfig(t)
	s := newTestSnake(cfg, 1, 1000, 1000, 0, 10)
	ref := fs.Spawn(1000, 1000, components.FoodPellet, 1, 5)
	fs.Spawn(2000, 2000, components.FoodPellet, 1, 5)
	grid.Clear()
	fs.RegisterAll(grid)
	fs.PickUp(s, nil)

	if n := fs.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if fs.Count() != 1 {
		t.Errorf("Count() = %d, want 1", fs.Count())
	}
	if _, ok := fs.Food(ref.Entity); ok {
		t.Error("removed entity still resolves")
	}
	// The grid still holds the stale entry until rebuilt; views must skip it.
	if got := grid.QueryAABB(nil, 0, 0, cfg.World.Width, cfg.World.Height, fs); len(got) != 1 {
		t.Errorf("QueryAABB after sweep = %d items, want 1", len(got))
	}
}

func TestFoodSystem_TopUpTowardTarget(t *testing.T) {
	fs, _ := newTestFoodSystem(t)
	cfg := loadConfig(t)
	for i := 0; i < 1000 && fs.Count() < cfg.Food.TargetCount; i++ {
		spawned, _ := fs.TopUp()
		if spawned > cfg.Food.TopUpPerTick {
			t.Fatalf("spawned %d in one call, cap %d", spawned, cfg.Food.TopUpPerTick)
		}
	}
	if fs.Count() != cfg.Food.TargetCount {
		t.Errorf("Count() = %d, want %d", fs.Count(), cfg.Food.TargetCount)
	}
	for _, f := range fs.All(nil) {
		if f.Pos.X < 0 || f.Pos.X > cfg.World.Width || f.Pos.Y < 0 || f.Pos.Y > cfg.World.Height {
			t.Fatalf("food spawned outside world at %+v", f.Pos)
		}
	}
}

func TestFoodSystem_TrimAboveCap(t *testing.T) {
	fs, _ := newTestFoodSystem(t)
	cfg := loadConfig(t)
	for i := 0; i < cfg.Food.MaxCount+25; i++ {
		fs.Spawn(100+float64(i%30)*100, 100+float64(i/30)*100, components.FoodPellet, 1, 5)
	}
	_, trimmed := fs.TopUp()
	if trimmed != 25 || fs.Count() != cfg.Food.MaxCount {
		t.Errorf("trimmed %d, count %d; want 25 and %d", trimmed, fs.Count(), cfg.Food.MaxCount)
	}
}

func TestFoodSystem_SpawnRemainsAlongBody(t *testing.T) {
	fs, _ := newTestFoodSystem(t)
	cfg := loadConfig(t)
	s := newTestSnake(cfg, 1, 1000, 1000, 0, 20)
	n := fs.SpawnRemains(s.Segments, s.Mass)
	want := (s.Len() + cfg.Food.RemainsStep - 1) / cfg.Food.RemainsStep
	if n != want || fs.Count() != want {
		t.Errorf("spawned %d (count %d), want %d", n, fs.Count(), want)
	}
	for _, f := range fs.All(nil) {
		if f.Type != components.FoodRemains || f.Value < 1 {
			t.Errorf("remains item %+v has wrong type or value", f)
		}
	}
}

func TestFoodSystem_NearbyFoodFiltersByRadius(t *testing.T) {
	fs, grid := newTestFoodSystem(t)
	fs.Spawn(1000, 1000, components.FoodPellet, 1, 5)
	fs.Spawn(1090, 1000, components.FoodPellet, 1, 5)
	fs.Spawn(1400, 1000, components.FoodPellet, 1, 5)
	grid.Clear()
	fs.RegisterAll(grid)
	if got := fs.NearbyFood(nil, 1000, 1000, 100); len(got) != 2 {
		t.Errorf("NearbyFood = %d items, want 2", len(got))
	}
}
