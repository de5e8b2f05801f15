package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/heatsim/internal/dynamo"
)

// PropertyModel recomputes temperature and properties from the conserved
// energy (the calcProp contract).
type PropertyModel interface {
	Update(f *dynamo.Field)
}

// SourceCoupling is the combustion kinetics contract. rate receives the
// reaction progress rate dη/dt over a sub-step of size h.
type SourceCoupling interface {
	CombustionEnergySource(q, rate, rho0, T, eta []float64, h float64)
	MassSource(gas, solid, rate, porosity, rho0 []float64)
}

// BoundaryConditions adjusts boundary-adjacent cells in place.
type BoundaryConditions interface {
	ApplyPressure(P []float64)
	ApplyEnergy(E, Tref []float64, h float64, rhoC, hx []float64)
	Override(id dynamo.BoundaryID, spec dynamo.BoundarySpec)
}

type StepperConfig struct {
	Scheme     dynamo.Scheme
	Diffusive  dynamo.Interp
	Convective dynamo.Interp
	UniformOn  bool
	Uniform    float64
	Kinetics   bool
}

// Override replaces a boundary specification once ignition is reached.
type Override struct {
	ID   dynamo.BoundaryID
	Spec dynamo.BoundarySpec
}

// StepResult reports what a call to Advance consumed and produced.
type StepResult struct {
	Substeps []float64
	// Running extrema of gas and solid densities over the owned cells of
	// every sub-step. Only meaningful in species mode.
	SpeciesMin float64
	SpeciesMax float64
}

// Stepper is the operator-split conservation update for one subdomain.
type Stepper struct {
	cfg   StepperConfig
	props PropertyModel
	src   SourceCoupling
	bcs   BoundaryConditions

	e0, t0, eta0, gas0, solid0 []float64
	q, rate                []float64
	gasRate, solidRate     []float64
	mflux                  []float64
}

func NewStepper(cfg StepperConfig, props PropertyModel, src SourceCoupling, bcs BoundaryConditions) *Stepper {
	return &Stepper{cfg: cfg, props: props, src: src, bcs: bcs}
}

// SubstepSizes returns [0.5·dt, dt] for Strang splitting and [dt] otherwise.
func SubstepSizes(scheme dynamo.Scheme, dt float64) []float64 {
	if scheme == dynamo.StrangSplit {
		return []float64{0.5 * dt, dt}
	}
	return []float64{dt}
}

// ApplyIgnitionOverride swaps the named boundary specification.
func (s *Stepper) ApplyIgnitionOverride(o Override) {
	s.bcs.Override(o.ID, o.Spec)
}

// MassFlux returns the face Darcy mass fluxes of the last sub-step.
func (s *Stepper) MassFlux() []float64 { return s.mflux }

// StartTemperature returns the temperature the last step started from.
func (s *Stepper) StartTemperature() []float64 { return s.t0 }

// Advance runs one global step of size dt. The field's properties must be
// current on entry; they are current again on return.
//
// Every sub-step restarts from the step-start state and reads the step-start
// temperature and properties, so only the last sub-step's result survives.
// Properties are refreshed once, after the last sub-step.
func (s *Stepper) Advance(f *dynamo.Field, dt float64) StepResult {
	s.ensure(f.Len())
	copy(s.e0, f.E)
	copy(s.t0, f.T)
	copy(s.eta0, f.Eta)
	if f.Species != nil {
		copy(s.gas0, f.Species.Gas)
		copy(s.solid0, f.Species.Solid)
	}

	res := StepResult{
		Substeps:   SubstepSizes(s.cfg.Scheme, dt),
		SpeciesMin: math.Inf(1),
		SpeciesMax: math.Inf(-1),
	}
	for i, h := range res.Substeps {
		s.kinetics(f, h)
		if f.Species != nil {
			s.species(f, h, &res)
		}
		s.energy(f, h, i == 0)
		s.bcs.ApplyEnergy(f.E, s.t0, h, f.RhoC, f.Hx)
	}
	s.props.Update(f)
	return res
}

func (s *Stepper) kinetics(f *dynamo.Field, h float64) {
	clear(s.q)
	clear(s.rate)
	if !s.cfg.Kinetics || s.src == nil {
		return
	}
	s.src.CombustionEnergySource(s.q, s.rate, f.RefDensity, s.t0, s.eta0, h)
	for j := range f.Eta {
		f.Eta[j] = s.eta0[j] + s.rate[j]*h
	}
}

func (s *Stepper) species(f *dynamo.Field, h float64, res *StepResult) {
	sp := f.Species
	for j := range sp.P {
		sp.P[j] = s.gas0[j] / sp.Porosity[j] * sp.R * s.t0[j]
	}
	s.bcs.ApplyPressure(sp.P)

	// Darcy flux at internal faces, positive from cell j towards j+1.
	for j := range s.mflux {
		perm := Interpolate(sp.Perm[j], sp.Perm[j+1], s.cfg.Diffusive)
		rho := Interpolate(s.gas0[j], s.gas0[j+1], s.cfg.Convective)
		s.mflux[j] = rho * (-perm / sp.Mu * (sp.P[j+1] - sp.P[j]) / f.Dx[j])
	}

	copy(sp.Gas, s.gas0)
	copy(sp.Solid, s.solid0)
	for j, m := range s.mflux {
		sp.Gas[j] -= h / f.Hx[j] * m
		sp.Gas[j+1] += h / f.Hx[j+1] * m
	}

	clear(s.gasRate)
	clear(s.solidRate)
	if s.src != nil {
		s.src.MassSource(s.gasRate, s.solidRate, s.rate, sp.Porosity, f.RefDensity)
	}
	floats.AddScaled(sp.Gas, h, s.gasRate)
	floats.AddScaled(sp.Solid, -h, s.solidRate)

	gas, solid := f.Owned(sp.Gas), f.Owned(sp.Solid)
	res.SpeciesMax = math.Max(res.SpeciesMax, math.Max(floats.Max(gas), floats.Max(solid)))
	res.SpeciesMin = math.Min(res.SpeciesMin, math.Min(floats.Min(gas), floats.Min(solid)))
}

func (s *Stepper) energy(f *dynamo.Field, h float64, first bool) {
	copy(f.E, s.e0)

	// Diffusion: heat entering cell j from j+1 leaves j+1.
	for j := range f.Dx {
		k := Interpolate(f.K[j], f.K[j+1], s.cfg.Diffusive)
		flux := k * (s.t0[j+1] - s.t0[j]) / f.Dx[j]
		f.E[j] += h / f.Hx[j] * flux
		f.E[j+1] -= h / f.Hx[j+1] * flux
	}

	if first && s.cfg.UniformOn {
		for j := range f.E {
			f.E[j] += s.cfg.Uniform * h
		}
	}
	floats.AddScaled(f.E, h, s.q)

	if f.Species == nil {
		return
	}
	for j, m := range s.mflux {
		cp := Interpolate(f.Cp[j], f.Cp[j+1], s.cfg.Convective)
		t := Interpolate(s.t0[j], s.t0[j+1], s.cfg.Convective)
		flux := m * cp * t
		f.E[j] -= h / f.Hx[j] * flux
		f.E[j+1] += h / f.Hx[j+1] * flux
	}
}

func (s *Stepper) ensure(n int) {
	if len(s.e0) == n {
		return
	}
	faces := max(n-1, 0)
	s.e0 = make([]float64, n)
	s.t0 = make([]float64, n)
	s.eta0 = make([]float64, n)
	s.gas0 = make([]float64, n)
	s.solid0 = make([]float64, n)
	s.q = make([]float64, n)
	s.rate = make([]float64, n)
	s.gasRate = make([]float64, n)
	s.solidRate = make([]float64, n)
	s.mflux = make([]float64, faces)
}
