package config

import (
	"sort"

	"github.com/san-kum/heatsim/internal/dynamo"
)

var Presets = map[string]func() *Config{
	"slab":      slab,
	"adiabatic": adiabatic,
	"ignition":  ignition,
	"porous":    porous,
}

// slab heats an inert bar from a fixed-temperature left face.
func slab() *Config {
	cfg := DefaultConfig()
	cfg.Name = "slab"
	cfg.Boundaries[dynamo.LeftEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedValue, Values: []float64{600}}
	return cfg
}

// adiabatic is a closed bar with a uniform volumetric source.
func adiabatic() *Config {
	cfg := DefaultConfig()
	cfg.Name = "adiabatic"
	steps, q := 500, 1e9
	cfg.Time.TotalTime = nil
	cfg.Time.TotalSteps = &steps
	cfg.Sources.Uniform = &q
	return cfg
}

func ignition() *Config {
	cfg := DefaultConfig()
	cfg.Name = "ignition"
	total := 0.5
	cfg.Time.Scheme = dynamo.StrangSplit
	cfg.Time.TotalTime = &total
	cfg.Time.Outputs = 20
	cfg.Sources.Kinetics = true
	cfg.Boundaries[dynamo.LeftEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedFlux, Values: []float64{5e7}}
	cfg.Boundaries[dynamo.RightEnergy] = dynamo.BoundarySpec{Kind: dynamo.Convective, Values: []float64{10, 300}}
	return cfg
}

// porous adds Darcy gas transport to the ignition setup.
func porous() *Config {
	cfg := ignition()
	cfg.Name = "porous"
	cfg.Species.Enabled = true
	cfg.Boundaries[dynamo.RightPressure] = dynamo.BoundarySpec{Kind: dynamo.FixedValue, Values: []float64{101325}}
	return cfg
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
