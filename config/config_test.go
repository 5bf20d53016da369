package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Derived.TickSec != cfg.Physics.TickMs/1000 {
		t.Errorf("TickSec = %v, want %v", cfg.Derived.TickSec, cfg.Physics.TickMs/1000)
	}
	if cfg.Derived.Level3FanRad < cfg.Derived.Level2FanRad {
		t.Errorf("level 3 fan %v narrower than level 2 fan %v", cfg.Derived.Level3FanRad, cfg.Derived.Level2FanRad)
	}
}

func TestLoad_OverlayKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("world:\n  width: 1200\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load overlay: %v", err)
	}
	defaults, _ := Load("")
	if cfg.World.Width != 1200 {
		t.Errorf("width = %v, want 1200", cfg.World.Width)
	}
	if cfg.World.Height != defaults.World.Height {
		t.Errorf("height = %v, want default %v", cfg.World.Height, defaults.World.Height)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("physics:\n  tick_ms: 0\nai:\n  levels: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), []string{"reading config file"}},
		{"invalid values", bad, []string{"physics.tick_ms", "ai.levels"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q missing %q", err, w)
				}
			}
		})
	}
}

func TestFinalize_RecomputesDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Safety.Level3.FanMaxDeg = 180
	cfg.Snake.MinSegments = 1
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if math.Abs(cfg.Derived.Level3FanRad-math.Pi) > 1e-12 {
		t.Errorf("Level3FanRad = %v, want pi", cfg.Derived.Level3FanRad)
	}
	if cfg.Snake.MinSegments != 3 {
		t.Errorf("MinSegments = %d, want floor of 3", cfg.Snake.MinSegments)
	}

	cfg.World.Width = 0
	if err := cfg.Finalize(); err == nil {
		t.Error("expected validation error for zero width")
	}
}

func TestLevel_Clamps(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Level(0) != cfg.AI.Levels[0] {
		t.Error("level 0 should clamp to level 1")
	}
	if cfg.Level(9) != cfg.AI.Levels[2] {
		t.Error("level 9 should clamp to level 3")
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Safety.Buffer = 17.5
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Safety.Buffer != 17.5 {
		t.Errorf("buffer = %v, want 17.5", back.Safety.Buffer)
	}
}
