// Package main provides CMA-ES optimization for squim action parameters.
package main

import (
	"strings"

	"github.com/pthm-cable/squim/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	action string // Menu entry the parameter belongs to, "" for scalar fields
	goal   string // Effect goal; "" means the action duration
	sign   float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Relief parameters are stored as positive magnitudes and applied with sign.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Eating
			{Name: "eat_hunger_relief", Path: "actions.eat_fish.effects.hunger", Min: 5, Max: 50, Default: 20, action: "eat_fish", goal: "hunger", sign: -1},
			{Name: "eat_thirst_cost", Path: "actions.eat_fish.effects.thirst", Min: 0, Max: 10, Default: 5, action: "eat_fish", goal: "thirst", sign: 1},
			// Drinking
			{Name: "drink_duration", Path: "actions.drink_water.duration", Min: 1, Max: 15, Default: 5, action: "drink_water"},
			{Name: "drink_thirst_relief", Path: "actions.drink_water.effects.thirst", Min: 5, Max: 50, Default: 20, action: "drink_water", goal: "thirst", sign: -1},
			// Sleeping
			{Name: "sleep_duration", Path: "actions.sleep_in_bed.duration", Min: 2, Max: 20, Default: 10, action: "sleep_in_bed"},
			{Name: "sleep_fatigue_relief", Path: "actions.sleep_in_bed.effects.fatigue", Min: 10, Max: 60, Default: 30, action: "sleep_in_bed", goal: "fatigue", sign: -1},
			// Changing color
			{Name: "color_duration", Path: "actions.change_color.duration", Min: 1, Max: 15, Default: 5, action: "change_color"},
			{Name: "color_boredom_relief", Path: "actions.change_color.effects.boredom", Min: 5, Max: 40, Default: 15, action: "change_color", goal: "boredom", sign: -1},
			// Hunting and prey supply
			{Name: "retarget_interval", Path: "squim.retarget_interval", Min: 0.1, Max: 2.0, Default: 0.5},
			{Name: "fish_spawn_interval", Path: "fish.spawn_interval", Min: 2, Max: 30, Default: 10},
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

// ApplyToConfig applies parameter values to a Config struct. Parameters of
// actions missing from the menu are skipped.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	for i, spec := range pv.Specs {
		v := clamped[i]
		switch spec.Name {
		case "retarget_interval":
			cfg.Squim.RetargetInterval = v
			continue
		case "fish_spawn_interval":
			cfg.Fish.SpawnInterval = v
			continue
		}

		a := findAction(cfg, spec.action)
		if a == nil {
			continue
		}
		if spec.goal == "" {
			a.Duration = v
			continue
		}
		if a.Effects == nil {
			a.Effects = make(map[string]float64)
		}
		a.Effects[spec.goal] = spec.sign * v
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct,
// falling back to defaults for missing actions.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := pv.DefaultVector()
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "retarget_interval":
			out[i] = cfg.Squim.RetargetInterval
			continue
		case "fish_spawn_interval":
			out[i] = cfg.Fish.SpawnInterval
			continue
		}

		a := findAction(cfg, spec.action)
		if a == nil {
			continue
		}
		if spec.goal == "" {
			out[i] = a.Duration
		} else if v, ok := a.Effects[spec.goal]; ok {
			out[i] = spec.sign * v
		}
	}
	return out
}

func findAction(cfg *config.Config, name string) *config.ActionConfig {
	for i := range cfg.Actions {
		if strings.EqualFold(strings.TrimSpace(cfg.Actions[i].Name), name) {
			return &cfg.Actions[i]
		}
	}
	return nil
}
