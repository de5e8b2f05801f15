package physics

import "github.com/san-kum/heatsim/internal/dynamo"

// StefanBoltzmann constant in W/(m²·K⁴).
const StefanBoltzmann = 5.67e-8

// Boundaries holds the named boundary specifications of one subdomain.
// Sides that face another subdomain are interfaces: energy there is left to
// the ghost-cell fluxes and no specification is applied.
type Boundaries struct {
	specs    [dynamo.NumBoundaries]*dynamo.BoundarySpec
	physical [2]bool
}

func NewBoundaries(specs map[dynamo.BoundaryID]dynamo.BoundarySpec, leftPhysical, rightPhysical bool) *Boundaries {
	b := &Boundaries{physical: [2]bool{leftPhysical, rightPhysical}}
	for id, s := range specs {
		b.Override(id, s)
	}
	return b
}

// Spec returns the active specification, nil when none is applied.
func (b *Boundaries) Spec(id dynamo.BoundaryID) *dynamo.BoundarySpec {
	return b.specs[id]
}

// Override replaces a named specification. It is ignored on interface sides.
func (b *Boundaries) Override(id dynamo.BoundaryID, spec dynamo.BoundarySpec) {
	if !b.isPhysical(id) {
		return
	}
	s := dynamo.BoundarySpec{Kind: spec.Kind, Values: append([]float64(nil), spec.Values...)}
	b.specs[id] = &s
}

func (b *Boundaries) isPhysical(id dynamo.BoundaryID) bool {
	if id.IsLeft() {
		return b.physical[0]
	}
	return b.physical[1]
}

// ApplyPressure pins boundary pressures with a FixedValue specification.
func (b *Boundaries) ApplyPressure(P []float64) {
	n := len(P)
	if s := b.specs[dynamo.LeftPressure]; s != nil && s.Kind == dynamo.FixedValue {
		P[0] = s.Value(0)
	}
	if s := b.specs[dynamo.RightPressure]; s != nil && s.Kind == dynamo.FixedValue {
		P[n-1] = s.Value(0)
	}
}

// ApplyEnergy adjusts the boundary cells for a sub-step of size h. Tref is
// the temperature the step started from.
func (b *Boundaries) ApplyEnergy(E, Tref []float64, h float64, rhoC, hx []float64) {
	if s := b.specs[dynamo.LeftEnergy]; s != nil {
		applyEnergy(*s, 0, E, Tref, h, rhoC, hx)
	}
	if s := b.specs[dynamo.RightEnergy]; s != nil {
		applyEnergy(*s, len(E)-1, E, Tref, h, rhoC, hx)
	}
}

func applyEnergy(s dynamo.BoundarySpec, i int, E, Tref []float64, h float64, rhoC, hx []float64) {
	switch s.Kind {
	case dynamo.FixedValue:
		E[i] = s.Value(0) * rhoC[i]
	case dynamo.FixedFlux:
		E[i] += s.Value(0) * h / hx[i]
	case dynamo.Convective:
		E[i] += s.Value(0) * (s.Value(1) - Tref[i]) * h / hx[i]
	case dynamo.Radiative:
		tinf, t := s.Value(1), Tref[i]
		E[i] += s.Value(0) * StefanBoltzmann * (tinf*tinf*tinf*tinf - t*t*t*t) * h / hx[i]
	}
}
