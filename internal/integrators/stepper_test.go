package integrators

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/physics"
)

const cellWidth = 1e-3

type recordingBCs struct {
	steps     []float64
	trefs     [][]float64
	overrides []Override
}

func (r *recordingBCs) ApplyPressure([]float64) {}

func (r *recordingBCs) ApplyEnergy(_, tref []float64, h float64, _, _ []float64) {
	r.steps = append(r.steps, h)
	r.trefs = append(r.trefs, append([]float64(nil), tref...))
}

func (r *recordingBCs) Override(id dynamo.BoundaryID, spec dynamo.BoundarySpec) {
	r.overrides = append(r.overrides, Override{ID: id, Spec: spec})
}

func adiabatic() *physics.Boundaries {
	return physics.NewBoundaries(map[dynamo.BoundaryID]dynamo.BoundarySpec{
		dynamo.LeftEnergy:  {Kind: dynamo.FixedFlux, Values: []float64{0}},
		dynamo.RightEnergy: {Kind: dynamo.FixedFlux, Values: []float64{0}},
	}, true, true)
}

func newSlab(n int, temp func(j int) float64, species bool) (*dynamo.Field, *physics.Material) {
	f := dynamo.NewField(n, species)
	for j := range f.Hx {
		f.Hx[j] = cellWidth
	}
	for j := range f.Dx {
		f.Dx[j] = cellWidth
	}
	for j := range f.RefDensity {
		f.RefDensity[j] = 5000
	}
	if sp := f.Species; sp != nil {
		for j := range sp.Gas {
			sp.Gas[j] = 1
			sp.Solid[j] = 3000
			sp.Porosity[j] = 0.4
		}
		sp.Mu = 1e-5
		sp.R = 287
	}

	m := &physics.Material{K: 50, Rho: 5000, Cp: 500, GasK: 0.03, GasCp: 1000}
	T := make([]float64, n)
	for j := range T {
		T[j] = temp(j)
	}
	m.Init(f, T)
	return f, m
}

func stableStep(f *dynamo.Field, scheme dynamo.Scheme) float64 {
	c := TimeStepController{Scheme: scheme, Fourier: 0.4}
	return c.LocalStableStep(f.K, f.RhoC, f.Hx)
}

func totalEnergy(f *dynamo.Field) float64 {
	return floats.Dot(f.E, f.Hx)
}

func TestSubstepSizes(t *testing.T) {
	if got := SubstepSizes(dynamo.Explicit, 2); len(got) != 1 || got[0] != 2 {
		t.Errorf("explicit: expected [2], got %v", got)
	}
	if got := SubstepSizes(dynamo.StrangSplit, 2); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("strang: expected [1 2], got %v", got)
	}
}

func TestAdvanceSubstepsConsumed(t *testing.T) {
	f, m := newSlab(4, func(int) float64 { return 300 }, false)
	bcs := &recordingBCs{}
	s := NewStepper(StepperConfig{Scheme: dynamo.StrangSplit}, m, nil, bcs)

	res := s.Advance(f, 2)

	want := []float64{1.0, 2.0}
	if len(bcs.steps) != len(want) {
		t.Fatalf("expected %d sub-steps, got %v", len(want), bcs.steps)
	}
	for i := range want {
		if bcs.steps[i] != want[i] || res.Substeps[i] != want[i] {
			t.Errorf("sub-step %d: expected %v, got %v (result %v)", i, want[i], bcs.steps[i], res.Substeps[i])
		}
	}
}

func TestUniformTemperatureIsSteady(t *testing.T) {
	for _, scheme := range []dynamo.Scheme{dynamo.Explicit, dynamo.StrangSplit} {
		f, m := newSlab(16, func(int) float64 { return 300 }, false)
		s := NewStepper(StepperConfig{Scheme: scheme, Diffusive: dynamo.Harmonic}, m, nil, adiabatic())
		dt := stableStep(f, scheme)

		for i := 0; i < 200; i++ {
			s.Advance(f, dt)
		}
		if hi, lo := floats.Max(f.T), floats.Min(f.T); math.Abs(hi-300) > 1e-9 || math.Abs(lo-300) > 1e-9 {
			t.Errorf("%s: temperature drifted to [%v, %v]", scheme, lo, hi)
		}
	}
}

func TestEnergyConservation(t *testing.T) {
	hot := func(j int) float64 {
		if j < 4 {
			return 900
		}
		return 300
	}
	for _, scheme := range []dynamo.Scheme{dynamo.Explicit, dynamo.StrangSplit} {
		for _, interp := range []dynamo.Interp{dynamo.Linear, dynamo.Harmonic} {
			f, m := newSlab(16, hot, false)
			m.KTempCoeff = 1e-3
			m.TRef = 300
			m.Update(f)

			s := NewStepper(StepperConfig{Scheme: scheme, Diffusive: interp}, m, nil, adiabatic())
			e0 := totalEnergy(f)
			for i := 0; i < 100; i++ {
				s.Advance(f, stableStep(f, scheme))
			}
			if drift := math.Abs(totalEnergy(f)-e0) / e0; drift > 1e-12 {
				t.Errorf("%s/%s: relative energy drift %g", scheme, interp, drift)
			}
			if floats.Max(f.T) >= 900 {
				t.Errorf("%s/%s: expected the hot region to cool, max %v", scheme, interp, floats.Max(f.T))
			}
		}
	}
}

func TestStrangStagesStartFromStepState(t *testing.T) {
	hot := func(j int) float64 {
		if j < 4 {
			return 900
		}
		return 300
	}
	single, m1 := newSlab(8, hot, false)
	split, m2 := newSlab(8, hot, false)
	dt := stableStep(single, dynamo.Explicit)

	NewStepper(StepperConfig{Scheme: dynamo.Explicit, Diffusive: dynamo.Harmonic}, m1, nil, adiabatic()).Advance(single, dt)
	NewStepper(StepperConfig{Scheme: dynamo.StrangSplit, Diffusive: dynamo.Harmonic}, m2, nil, adiabatic()).Advance(split, dt)

	for j := range single.T {
		if split.T[j] != single.T[j] {
			t.Errorf("cell %d: strang %v, explicit %v", j, split.T[j], single.T[j])
		}
	}
	if math.Abs(single.T[3]-660) > 1e-9 || math.Abs(single.T[4]-540) > 1e-9 {
		t.Errorf("interface cells: got %v, %v, want 660, 540", single.T[3], single.T[4])
	}

	// Both stages hand the step-start temperature to the boundaries.
	f, m := newSlab(8, hot, false)
	start := append([]float64(nil), f.T...)
	bcs := &recordingBCs{}
	NewStepper(StepperConfig{Scheme: dynamo.StrangSplit}, m, nil, bcs).Advance(f, dt)
	if len(bcs.trefs) != 2 {
		t.Fatalf("expected 2 sub-steps, got %d", len(bcs.trefs))
	}
	for i, tref := range bcs.trefs {
		for j := range start {
			if tref[j] != start[j] {
				t.Errorf("sub-step %d cell %d: reference %v, want %v", i, j, tref[j], start[j])
			}
		}
	}
}

func TestUniformSource(t *testing.T) {
	f, m := newSlab(8, func(int) float64 { return 300 }, false)
	s := NewStepper(StepperConfig{Scheme: dynamo.Explicit, UniformOn: true, Uniform: 1e9}, m, nil, adiabatic())

	e0 := totalEnergy(f)
	dt := 1e-3
	s.Advance(f, dt)

	want := e0 + 1e9*dt*8*cellWidth
	if got := totalEnergy(f); math.Abs(got-want) > 1e-9*want {
		t.Errorf("expected energy %v, got %v", want, got)
	}
}

func TestKineticsAdvancesReaction(t *testing.T) {
	f, m := newSlab(8, func(int) float64 { return 1200 }, false)
	k := &physics.Kinetics{Ea: 48000, A0: 1e3, DH: 1e6}
	s := NewStepper(StepperConfig{Scheme: dynamo.Explicit, Kinetics: true}, m, k, adiabatic())

	e0 := totalEnergy(f)
	dt := 1e-4
	s.Advance(f, dt)

	rate := 1e3 * math.Exp(-48000/(physics.UniversalGasConstant*1200))
	for j, eta := range f.Eta {
		if math.Abs(eta-rate*dt) > 1e-12 {
			t.Fatalf("cell %d: expected eta %v, got %v", j, rate*dt, eta)
		}
	}
	released := 5000 * 1e6 * rate * dt * 8 * cellWidth
	if got := totalEnergy(f) - e0; math.Abs(got-released) > 1e-6*released {
		t.Errorf("expected %v released, got %v", released, got)
	}
}

func TestZeroPermeabilityHasNoDarcyFlux(t *testing.T) {
	for _, interp := range []dynamo.Interp{dynamo.Linear, dynamo.Harmonic} {
		f, m := newSlab(8, func(j int) float64 { return 300 + 100*float64(j) }, true)
		k := &physics.Kinetics{Ea: 48000, A0: 1e6, DH: 1e6, GasGen: 0.1}
		cfg := StepperConfig{Scheme: dynamo.Explicit, Diffusive: interp, Convective: interp, Kinetics: true}
		s := NewStepper(cfg, m, k, adiabatic())

		gas0 := append([]float64(nil), f.Species.Gas...)
		solid0 := append([]float64(nil), f.Species.Solid...)
		T0 := append([]float64(nil), f.T...)
		dt := 1e-5

		// Expected change is the kinetics source alone.
		n := f.Len()
		q, rate := make([]float64, n), make([]float64, n)
		gasRate, solidRate := make([]float64, n), make([]float64, n)
		k.CombustionEnergySource(q, rate, f.RefDensity, T0, make([]float64, n), dt)
		k.MassSource(gasRate, solidRate, rate, f.Species.Porosity, f.RefDensity)

		s.Advance(f, dt)

		for j, flux := range s.MassFlux() {
			if flux != 0 {
				t.Errorf("%s: face %d flux %v, want exactly 0", interp, j, flux)
			}
		}
		for j := range gas0 {
			if want := gas0[j] + dt*gasRate[j]; math.Abs(f.Species.Gas[j]-want) > 1e-15*want {
				t.Errorf("%s: cell %d gas %v, want %v", interp, j, f.Species.Gas[j], want)
			}
			if want := solid0[j] - dt*solidRate[j]; math.Abs(f.Species.Solid[j]-want) > 1e-15*want {
				t.Errorf("%s: cell %d solid %v, want %v", interp, j, f.Species.Solid[j], want)
			}
		}
	}
}

func TestDarcyFluxConservesGas(t *testing.T) {
	f, m := newSlab(10, func(int) float64 { return 300 }, true)
	sp := f.Species
	for j := range sp.Gas {
		sp.Perm[j] = 1e-11
		if j < 5 {
			sp.Gas[j] = 2
		}
	}
	m.Init(f, f.T)

	s := NewStepper(StepperConfig{Scheme: dynamo.Explicit, Diffusive: dynamo.Harmonic, Convective: dynamo.Linear}, m, nil, adiabatic())
	mass0 := floats.Dot(sp.Gas, f.Hx)
	res := s.Advance(f, 1e-6)

	if got := floats.Dot(sp.Gas, f.Hx); math.Abs(got-mass0) > 1e-12*mass0 {
		t.Errorf("gas mass changed from %v to %v", mass0, got)
	}
	if s.MassFlux()[4] <= 0 {
		t.Errorf("expected flow from high to low pressure, got %v", s.MassFlux()[4])
	}
	if res.SpeciesMin < 0 || res.SpeciesMax < 2 {
		t.Errorf("unexpected species extrema [%v, %v]", res.SpeciesMin, res.SpeciesMax)
	}
}

func TestApplyIgnitionOverride(t *testing.T) {
	f, m := newSlab(4, func(int) float64 { return 300 }, false)
	bcs := &recordingBCs{}
	s := NewStepper(StepperConfig{}, m, nil, bcs)

	o := Override{ID: dynamo.LeftEnergy, Spec: dynamo.BoundarySpec{Kind: dynamo.Convective, Values: []float64{10, 300}}}
	s.ApplyIgnitionOverride(o)
	s.Advance(f, 1e-3)

	if len(bcs.overrides) != 1 || bcs.overrides[0].ID != dynamo.LeftEnergy {
		t.Errorf("override not forwarded: %+v", bcs.overrides)
	}
}
