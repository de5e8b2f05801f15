package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/heatsim/internal/dynamo"
)

const (
	DefaultLength      = 0.01
	DefaultCells       = 100
	DefaultProcesses   = 1
	DefaultFourier     = 0.4
	DefaultTotalTime   = 1.0
	DefaultOutputs     = 10
	DefaultTemperature = 300.0
)

// Collective modes for the per-step synchronization.
const (
	CollectivesBatched  = "batched"
	CollectivesSeparate = "separate"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name          string                                    `yaml:"name"`
	Domain        DomainConfig                              `yaml:"domain"`
	Time          TimeConfig                                `yaml:"time"`
	Interpolation InterpConfig                              `yaml:"interpolation"`
	Material      MaterialConfig                            `yaml:"material"`
	Initial       InitialConfig                             `yaml:"initial"`
	Sources       SourceConfig                              `yaml:"sources"`
	Ignition      IgnitionConfig                            `yaml:"ignition"`
	Species       SpeciesConfig                             `yaml:"species"`
	Boundaries    map[dynamo.BoundaryID]dynamo.BoundarySpec `yaml:"boundaries"`
	Convergence   ConvergenceConfig                         `yaml:"convergence"`
}

type DomainConfig struct {
	Length    float64 `yaml:"length"`
	Cells     int     `yaml:"cells"`
	Processes int     `yaml:"processes"`
}

// TimeConfig leaves Fourier and Dt nil when unset.
type TimeConfig struct {
	Scheme      dynamo.Scheme `yaml:"scheme"`
	Fourier     *float64      `yaml:"fourier,omitempty"`
	Dt          *float64      `yaml:"dt,omitempty"`
	TotalTime   *float64      `yaml:"total_time,omitempty"`
	TotalSteps  *int          `yaml:"total_steps,omitempty"`
	Outputs     int           `yaml:"outputs"`
	Collectives string        `yaml:"collectives"`
}

type InterpConfig struct {
	Diffusive  dynamo.Interp `yaml:"diffusive"`
	Convective dynamo.Interp `yaml:"convective"`
}

type MaterialConfig struct {
	K          float64 `yaml:"k"`
	Rho        float64 `yaml:"rho"`
	Cp         float64 `yaml:"cp"`
	KTempCoeff float64 `yaml:"k_temp_coeff"`
	TRef       float64 `yaml:"t_ref"`
	GasK       float64 `yaml:"gas_k"`
	GasCp      float64 `yaml:"gas_cp"`
}

type InitialConfig struct {
	Temperature float64        `yaml:"temperature"`
	Restart     *RestartConfig `yaml:"restart,omitempty"`
}

// RestartConfig selects the snapshot set of a previous run. Tag matches
// the first snapshot tag containing it.
type RestartConfig struct {
	Run string `yaml:"run"`
	Tag string `yaml:"tag"`
}

type SourceConfig struct {
	Uniform    *float64 `yaml:"uniform,omitempty"`
	Kinetics   bool     `yaml:"kinetics"`
	Ea         float64  `yaml:"ea"`
	A0         float64  `yaml:"a0"`
	DH         float64  `yaml:"dh"`
	GasGen     float64  `yaml:"gas_gen"`
	RefDensity float64  `yaml:"ref_density"`
}

type IgnitionConfig struct {
	Criterion dynamo.Criterion `yaml:"criterion"`
	Threshold float64          `yaml:"threshold"`
	// Override is applied on ignition. When nil the left energy boundary
	// takes the right energy boundary's specification.
	Override *OverrideConfig `yaml:"override,omitempty"`
}

type OverrideConfig struct {
	Boundary dynamo.BoundaryID   `yaml:"boundary"`
	Spec     dynamo.BoundarySpec `yaml:"spec"`
}

type SpeciesConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Porosity     float64 `yaml:"porosity"`
	Permeability float64 `yaml:"permeability"`
	Viscosity    float64 `yaml:"viscosity"`
	GasConstant  float64 `yaml:"gas_constant"`
	GasDensity   float64 `yaml:"gas_density"`
	SolidDensity float64 `yaml:"solid_density"`
}

type ConvergenceConfig struct {
	EtaEpsilon   float64 `yaml:"eta_epsilon"`
	SpeciesGuard float64 `yaml:"species_guard"`
}

func DefaultConfig() *Config {
	fo, total := DefaultFourier, DefaultTotalTime
	return &Config{
		Name: "slab",
		Domain: DomainConfig{
			Length:    DefaultLength,
			Cells:     DefaultCells,
			Processes: DefaultProcesses,
		},
		Time: TimeConfig{
			Scheme:      dynamo.Explicit,
			Fourier:     &fo,
			TotalTime:   &total,
			Outputs:     DefaultOutputs,
			Collectives: CollectivesBatched,
		},
		Interpolation: InterpConfig{
			Diffusive:  dynamo.Harmonic,
			Convective: dynamo.Linear,
		},
		Material: MaterialConfig{
			K:     65,
			Rho:   5109,
			Cp:    600,
			TRef:  DefaultTemperature,
			GasK:  0.03,
			GasCp: 1000,
		},
		Initial: InitialConfig{Temperature: DefaultTemperature},
		Sources: SourceConfig{
			Ea:         48000,
			A0:         4.89e6,
			DH:         1.5e6,
			GasGen:     0.1,
			RefDensity: 5109,
		},
		Ignition: IgnitionConfig{
			Criterion: dynamo.ReactionProgress,
			Threshold: 0.8,
		},
		Species: SpeciesConfig{
			Porosity:     0.4,
			Permeability: 1e-12,
			Viscosity:    1e-5,
			GasConstant:  287,
			GasDensity:   0.5,
			SolidDensity: 3065,
		},
		Boundaries: map[dynamo.BoundaryID]dynamo.BoundarySpec{
			dynamo.LeftEnergy:  {Kind: dynamo.FixedFlux, Values: []float64{0}},
			dynamo.RightEnergy: {Kind: dynamo.FixedFlux, Values: []float64{0}},
		},
		Convergence: ConvergenceConfig{
			EtaEpsilon:   1e-9,
			SpeciesGuard: -10,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Domain.Length > 0, "domain.length must be positive")
	check(c.Domain.Cells >= 2, "domain.cells must be at least 2")
	check(c.Domain.Processes >= 1, "domain.processes must be at least 1")
	check(c.Domain.Processes <= c.Domain.Cells, "domain.processes exceeds domain.cells")

	check(c.Time.TotalTime != nil || c.Time.TotalSteps != nil, "time.total_time or time.total_steps is required")
	check(c.Time.TotalTime == nil || *c.Time.TotalTime > 0, "time.total_time must be positive")
	check(c.Time.TotalSteps == nil || *c.Time.TotalSteps > 0, "time.total_steps must be positive")
	check(c.Time.Outputs >= 1, "time.outputs must be at least 1")
	check(c.Time.Fourier == nil || *c.Time.Fourier > 0, "time.fourier must be positive when set")
	check(c.Time.Dt == nil || *c.Time.Dt > 0, "time.dt must be positive when set")
	check(c.Time.Collectives == CollectivesBatched || c.Time.Collectives == CollectivesSeparate,
		"time.collectives must be %q or %q", CollectivesBatched, CollectivesSeparate)

	check(c.Material.K > 0, "material.k must be positive")
	check(c.Material.Rho > 0 && c.Material.Cp > 0, "material.rho and material.cp must be positive")
	check(c.Initial.Temperature > 0, "initial.temperature must be positive")

	if c.Species.Enabled {
		s := c.Species
		check(s.Porosity > 0 && s.Porosity <= 1, "species.porosity must be in (0, 1]")
		check(s.Permeability >= 0, "species.permeability must not be negative")
		check(s.Viscosity > 0, "species.viscosity must be positive")
		check(s.GasConstant > 0, "species.gas_constant must be positive")
		check(c.Material.GasCp > 0, "material.gas_cp must be positive in species mode")
	}
	if c.Sources.Kinetics {
		check(c.Sources.A0 >= 0 && c.Sources.Ea >= 0, "sources.a0 and sources.ea must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// IgnitionOverride resolves the boundary replacement applied on ignition.
func (c *Config) IgnitionOverride() OverrideConfig {
	if c.Ignition.Override != nil {
		return *c.Ignition.Override
	}
	return OverrideConfig{Boundary: dynamo.LeftEnergy, Spec: c.Boundaries[dynamo.RightEnergy]}
}

// Clone returns a deep copy so presets can be modified safely.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config: clone: %v", err))
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: clone: %v", err))
	}
	return out
}
