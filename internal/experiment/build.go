package experiment

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/san-kum/heatsim/internal/comm"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/integrators"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/physics"
	"github.com/san-kum/heatsim/internal/storage"
)

// initialState holds the global fields a run starts from.
type initialState struct {
	t0    float64
	T     []float64
	Eta   []float64
	Gas   []float64
	Solid []float64
}

func (e *Experiment) initialState(mesh *physics.Mesh) (*initialState, error) {
	cfg := e.cfg
	n := mesh.Cells()
	s := &initialState{
		T:   fill(n, cfg.Initial.Temperature),
		Eta: make([]float64, n),
	}
	if cfg.Species.Enabled {
		s.Gas = fill(n, cfg.Species.GasDensity)
		s.Solid = fill(n, cfg.Species.SolidDensity)
	}

	r := cfg.Initial.Restart
	if r == nil {
		return s, nil
	}
	st := e.opts.Store
	tag, err := st.ResolveTag(r.Run, r.Tag)
	if err != nil {
		return nil, err
	}
	ms, err := strconv.ParseFloat(tag, 64)
	if err != nil {
		return nil, fmt.Errorf("experiment: restart tag %q: %w", tag, err)
	}
	s.t0 = ms / 1000

	load := func(quantity string, dst []float64, required bool) error {
		_, v, err := st.LoadSnapshot(r.Run, quantity, tag)
		if err != nil {
			if !required && errors.Is(err, storage.ErrNoSnapshot) {
				return nil
			}
			return err
		}
		if len(v) != len(dst) {
			return fmt.Errorf("experiment: restart %s has %d cells, want %d", quantity, len(v), len(dst))
		}
		copy(dst, v)
		return nil
	}
	if err := load(storage.QuantityT, s.T, true); err != nil {
		return nil, err
	}
	if err := load(storage.QuantityEta, s.Eta, false); err != nil {
		return nil, err
	}
	if cfg.Species.Enabled {
		if err := load(storage.QuantityGas, s.Gas, true); err != nil {
			return nil, err
		}
		if err := load(storage.QuantitySolid, s.Solid, true); err != nil {
			return nil, err
		}
	}

	e.log.Info("restarting", "run", r.Run, "tag", tag, "time", s.t0)
	return s, nil
}

// newWorker builds one rank's subdomain and solver components.
func (e *Experiment) newWorker(p comm.Partition, mesh *physics.Mesh, init *initialState, c *comm.Comm, rep *reporter) *worker {
	cfg := e.cfg
	lo, hi := p.Window()
	f := dynamo.NewField(hi-lo, cfg.Species.Enabled)
	f.Lo, f.Hi = p.Local()
	copy(f.Hx, p.Split(mesh.Hx))
	copy(f.Dx, p.SplitFaces(mesh.Dx))
	copy(f.Eta, p.Split(init.Eta))
	for j := range f.RefDensity {
		f.RefDensity[j] = cfg.Sources.RefDensity
	}

	bcs := physics.NewBoundaries(cfg.Boundaries, p.Physical(true), p.Physical(false))
	material := &physics.Material{
		K:          cfg.Material.K,
		Rho:        cfg.Material.Rho,
		Cp:         cfg.Material.Cp,
		KTempCoeff: cfg.Material.KTempCoeff,
		TRef:       cfg.Material.TRef,
		GasK:       cfg.Material.GasK,
		GasCp:      cfg.Material.GasCp,
	}

	if sp := f.Species; sp != nil {
		copy(sp.Gas, p.Split(init.Gas))
		copy(sp.Solid, p.Split(init.Solid))
		for j := range sp.Porosity {
			sp.Porosity[j] = cfg.Species.Porosity
			sp.Perm[j] = cfg.Species.Permeability
		}
		sp.Mu = cfg.Species.Viscosity
		sp.R = cfg.Species.GasConstant
	}
	material.Init(f, p.Split(init.T))
	if sp := f.Species; sp != nil {
		for j := range sp.P {
			sp.P[j] = sp.Gas[j] / sp.Porosity[j] * sp.R * f.T[j]
		}
		bcs.ApplyPressure(sp.P)
	}

	var src integrators.SourceCoupling
	if cfg.Sources.Kinetics {
		src = &physics.Kinetics{
			Ea:     cfg.Sources.Ea,
			A0:     cfg.Sources.A0,
			DH:     cfg.Sources.DH,
			GasGen: cfg.Sources.GasGen,
		}
	}
	scfg := integrators.StepperConfig{
		Scheme:     cfg.Time.Scheme,
		Diffusive:  cfg.Interpolation.Diffusive,
		Convective: cfg.Interpolation.Convective,
		Kinetics:   cfg.Sources.Kinetics,
	}
	if cfg.Sources.Uniform != nil {
		scfg.UniformOn = true
		scfg.Uniform = *cfg.Sources.Uniform
	}

	dtc := integrators.TimeStepController{Scheme: cfg.Time.Scheme}
	if cfg.Time.Fourier != nil {
		dtc.Fourier = *cfg.Time.Fourier
	}
	if cfg.Time.Dt != nil {
		dtc.FixedDt = *cfg.Time.Dt
	}

	var limit stopCondition
	if cfg.Time.TotalTime != nil {
		limit.time = *cfg.Time.TotalTime
	}
	if cfg.Time.TotalSteps != nil {
		limit.steps = *cfg.Time.TotalSteps
	}

	override := cfg.IgnitionOverride()
	return &worker{
		rank:     p.Rank,
		part:     p,
		comm:     c,
		field:    f,
		material: material,
		stepper:  integrators.NewStepper(scfg, material, src, bcs),
		dtc:      dtc,
		detector: metrics.IgnitionDetector{
			Active:    cfg.Sources.Kinetics,
			Criterion: cfg.Ignition.Criterion,
			Threshold: cfg.Ignition.Threshold,
		},
		monitor: metrics.ConvergenceMonitor{
			EtaEpsilon:   cfg.Convergence.EtaEpsilon,
			SpeciesGuard: cfg.Convergence.SpeciesGuard,
		},
		override: integrators.Override{ID: override.Boundary, Spec: override.Spec},
		separate: cfg.Time.Collectives == config.CollectivesSeparate,
		limit:    limit,
		sched:    newSchedule(cfg.Time, init.t0),
		rep:      rep,
		t:        init.t0,
	}
}

func fill(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}
