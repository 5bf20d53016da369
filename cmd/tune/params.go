package main

import (
	"github.com/pthm-cable/serpent/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of safety and steering parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Safety layer
			{Name: "safety_buffer", Path: "safety.buffer", Min: 2, Max: 40, Default: 12},
			{Name: "head_extrapolation", Path: "safety.head_extrapolation", Min: 0, Max: 0.8, Default: 0.25},
			{Name: "deviation_weight", Path: "safety.deviation_weight", Min: 0.1, Max: 5, Default: 1},
			{Name: "l2_intrusion_weight", Path: "safety.level2.intrusion_weight", Min: 0.005, Max: 0.5, Default: 0.05},
			{Name: "l3_intrusion_weight", Path: "safety.level3.intrusion_weight", Min: 0.005, Max: 0.5, Default: 0.1},
			{Name: "l3_fan_max_deg", Path: "safety.level3.fan_max_deg", Min: 90, Max: 180, Default: 150},
			// Steering
			{Name: "boundary_margin", Path: "ai.boundary_margin", Min: 50, Max: 400, Default: 180},
			{Name: "boundary_weight", Path: "ai.boundary_weight", Min: 0.2, Max: 4, Default: 1.5},
			{Name: "flee_trigger_distance", Path: "ai.flee_trigger_distance", Min: 80, Max: 400, Default: 200},
			{Name: "threat_penalty", Path: "ai.threat_penalty", Min: 0, Max: 800, Default: 250},
			{Name: "aggression_threshold", Path: "ai.aggression_threshold", Min: 0.2, Max: 0.9, Default: 0.5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes parameter values into cfg and refreshes derived values.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	c := pv.Clamp(values)

	cfg.Safety.Buffer = c[0]
	cfg.Safety.HeadExtrapolation = c[1]
	cfg.Safety.DeviationWeight = c[2]
	cfg.Safety.Level2.IntrusionWeight = c[3]
	cfg.Safety.Level3.IntrusionWeight = c[4]
	// The level 3 fan must cover the level 2 fan.
	cfg.Safety.Level3.FanMaxDeg = max(c[5], cfg.Safety.Level2.FanMaxDeg)

	cfg.AI.BoundaryMargin = c[6]
	cfg.AI.BoundaryWeight = c[7]
	cfg.AI.FleeTriggerDistance = c[8]
	cfg.AI.ThreatPenalty = c[9]
	cfg.AI.AggressionThreshold = c[10]

	return cfg.Finalize()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Safety.Buffer,
		cfg.Safety.HeadExtrapolation,
		cfg.Safety.DeviationWeight,
		cfg.Safety.Level2.IntrusionWeight,
		cfg.Safety.Level3.IntrusionWeight,
		cfg.Safety.Level3.FanMaxDeg,
		cfg.AI.BoundaryMargin,
		cfg.AI.BoundaryWeight,
		cfg.AI.FleeTriggerDistance,
		cfg.AI.ThreatPenalty,
		cfg.AI.AggressionThreshold,
	}
}
