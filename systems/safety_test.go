package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/serpent/components"
)

func TestSafety_WallAheadPicksSafeSideDirection(t *testing.T) {
	cfg := loadConfig(t)
	W, H := cfg.World.Width, cfg.World.Height
	// Heading straight at the east wall with open space north and south.
	self := newTestSnake(cfg, 1, W-60, H/2, 0, 10)
	desired := components.Vec2{X: 1, Y: 0}

	layer2 := NewSafetyLayer(cfg)
	layer2.Gather(self, nil, nil)
	if layer2.Safe(self, 0) {
		t.Fatal("setup: desired direction should be unsafe")
	}
	dir2, safe2 := layer2.Resolve(self, desired, 2)

	layer3 := NewSafetyLayer(cfg)
	layer3.Gather(self, nil, nil)
	dir3, safe3 := layer3.Resolve(self, desired, 3)

	if safe2 || safe3 {
		t.Error("Resolve reported the desired direction as safe")
	}
	for name, d := range map[string]components.Vec2{"level2": dir2, "level3": dir3} {
		if d.Dot(desired) > math.Cos(1e-3) {
			t.Errorf("%s kept the unsafe direction %+v", name, d)
		}
		if !layer3.Safe(self, d.Angle()) {
			t.Errorf("%s chose unsafe direction %+v", name, d)
		}
	}

	cost2 := layer3.Cost(self, dir2.Angle(), 0, 3)
	cost3 := layer3.Cost(self, dir3.Angle(), 0, 3)
	if cost3 > cost2+1e-4 {
		t.Errorf("level 3 choice cost %f exceeds level 2 choice cost %f under the level 3 cost", cost3, cost2)
	}
}

func TestSafety_Level3FanContainsLevel2Fan(t *testing.T) {
	cfg := loadConfig(t)
	l := NewSafetyLayer(cfg)
	fan2 := append([]float64(nil), l.CandidateAngles(0.3, 2)...)
	fan3 := append([]float64(nil), l.CandidateAngles(0.3, 3)...)
	if len(fan3) <= len(fan2) {
		t.Fatalf("level 3 fan (%d) not larger than level 2 fan (%d)", len(fan3), len(fan2))
	}
	for _, a := range fan2 {
		found := false
		for _, b := range fan3 {
			if math.Abs(angleDelta(a, b)) < 1e-6 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("level 2 candidate %f missing from level 3 fan", a)
		}
	}
}

func TestSafety_AvoidsAgentAhead(t *testing.T) {
	cfg := loadConfig(t)
	self := newTestSnake(cfg, 1, 2000, 2000, 0, 10)
	// A long body lying across the path 90 units ahead, head well to the north.
	blocker := newTestSnake(cfg, 2, 2090, 1800, -math.Pi/2, 200)
	l := NewSafetyLayer(cfg)
	l.Gather(self, []*components.Snake{self, blocker}, nil)

	if l.Safe(self, 0) {
		t.Fatal("setup: path through body should be unsafe")
	}
	dir, safe := l.Resolve(self, components.Vec2{X: 1}, 3)
	if safe {
		t.Error("Resolve reported unsafe direction as safe")
	}
	if math.Abs(dir.Angle()) < 1e-6 {
		t.Errorf("Resolve kept heading into the body")
	}
}

func TestSafety_CornerFallbackSteersAway(t *testing.T) {
	cfg := loadConfig(t)
	// Jammed into a corner: every lookahead sample leaves the world.
	self := newTestSnake(cfg, 1, 12, 12, math.Pi*1.25, 10)
	l := NewSafetyLayer(cfg)
	l.Gather(self, nil, nil)
	dir, _ := l.Resolve(self, components.Vec2{X: -1, Y: -1}, 2)
	center := components.Vec2{X: cfg.World.Width / 2, Y: cfg.World.Height / 2}
	if dir.Dot(center.Sub(self.Pos).Normalize()) < 0.99 {
		t.Errorf("fallback direction %+v does not point at the center", dir)
	}
}
