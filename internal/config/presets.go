package config

import "sort"

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": {
			System: "pendulum", Tolerance: DefaultTolerance, Mode: ModeUntil, Target: 20.0,
			InitState: []float64{0.05, 0.025},
		},
		"large": {
			System: "pendulum", Tolerance: DefaultTolerance, Mode: ModeUntil, Target: 20.0,
			InitState: []float64{2.5, 0.0},
		},
		"spinning": {
			System: "pendulum", Tolerance: DefaultTolerance, Mode: ModeFor, Duration: 30.0,
			InitState: []float64{0.1, 8.0},
		},
		"zero-crossings": {
			System: "pendulum", Tolerance: DefaultTolerance, Mode: ModeUntil, Target: 20.0,
			InitState: []float64{0.05, 0.025},
			Events:    []EventConfig{{Name: "theta=0", Component: 0}},
		},
	},
	"kepler": {
		"circular": {
			System: "kepler", Tolerance: DefaultTolerance, Mode: ModeGrid,
			Grid:      GridConfig{Start: 0, Stop: 20, Points: 201},
			InitState: []float64{1, 0, 0, 1},
		},
		"eccentric": {
			System: "kepler", Tolerance: 1e-12, Mode: ModeUntil, Target: 50.0,
			InitState: []float64{1, 0, 0, 1.3},
			Events:    []EventConfig{{Name: "ascending", Component: 1, Direction: "positive"}},
		},
		"impact": {
			System: "kepler", Tolerance: DefaultTolerance, Mode: ModeUntil, Target: 20.0,
			InitState: []float64{1, 0, 0, 0.4},
			Events:    []EventConfig{{Name: "x=0.2", Terminal: true, Component: 0, Value: 0.2, Direction: "negative"}},
		},
	},
	"lorenz": {
		"classic": {
			System: "lorenz", Tolerance: 1e-14, Mode: ModeGrid,
			Grid:      GridConfig{Start: 0, Stop: 30, Points: 3001},
			InitState: []float64{1, 1, 1},
		},
		"section": {
			System: "lorenz", Tolerance: 1e-14, Mode: ModeFor, Duration: 100.0,
			InitState: []float64{1, 1, 1},
			Events:    []EventConfig{{Name: "z=27", Component: 2, Value: 27, Direction: "negative"}},
		},
	},
	"vanderpol": {
		"relaxation": {
			System: "vanderpol", Tolerance: 1e-12, Mode: ModeUntil, Target: 40.0,
			Params:    map[string]float64{"mu": 5},
			InitState: []float64{2, 0},
		},
	},
	"duffing": {
		"chaotic": {
			System: "duffing", Tolerance: 1e-13, Mode: ModeGrid,
			Grid:      GridConfig{Start: 0, Stop: 100, Points: 2001},
			InitState: []float64{1, 0},
		},
	},
	"threebody": {
		"figure8": {
			System: "threebody", Tolerance: DefaultTolerance, Mode: ModeGrid,
			Grid: GridConfig{Start: 0, Stop: 6.3259, Points: 401},
		},
	},
	"rossler": {
		"attractor": {
			System: "rossler", Tolerance: 1e-14, Mode: ModeGrid,
			Grid:      GridConfig{Start: 0, Stop: 200, Points: 4001},
			InitState: []float64{1, 1, 1},
		},
	},
	"doublewell": {
		"escape": {
			System: "doublewell", Tolerance: DefaultTolerance, Mode: ModeUntil, Target: 30.0,
			InitState: []float64{1, 1.5},
			Events:    []EventConfig{{Name: "barrier", Component: 0, Direction: "negative"}},
		},
	},
	"oscillator": {
		"unit": {
			System: "oscillator", Tolerance: DefaultTolerance, Mode: ModeFor, Duration: 6.283185307179586,
			InitState: []float64{1, 0},
		},
	},
}

// GetPreset returns the named preset or nil. Callers must not modify it.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

// ListPresets returns the preset names for system in alphabetical order.
func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
