package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/heatsim/internal/dynamo"
)

const (
	// DefaultEtaEpsilon is the tolerance on reaction progress leaving [0, 1].
	DefaultEtaEpsilon = 1e-9
	// DefaultSpeciesGuard is the density below which species transport is
	// considered to have run away.
	DefaultSpeciesGuard = -10.0
)

// ConvergenceMonitor inspects a subdomain after a step for non-physical values.
type ConvergenceMonitor struct {
	EtaEpsilon   float64
	SpeciesGuard float64
}

func NewConvergenceMonitor() ConvergenceMonitor {
	return ConvergenceMonitor{EtaEpsilon: DefaultEtaEpsilon, SpeciesGuard: DefaultSpeciesGuard}
}

// Check returns the most severe-first code for the owned cells: energy,
// then reaction progress, then species. speciesMin is the running minimum
// reported by the stepper and is ignored outside species mode.
func (m ConvergenceMonitor) Check(f *dynamo.Field, speciesMin float64) dynamo.ErrorCode {
	e := f.Owned(f.E)
	if floats.HasNaN(e) || floats.Min(e) <= 0 {
		return dynamo.EnergyDivergence
	}

	eta := f.Owned(f.Eta)
	if floats.HasNaN(eta) || floats.Max(eta) > 1+m.EtaEpsilon || floats.Min(eta) < -m.EtaEpsilon {
		return dynamo.ReactionOutOfBounds
	}

	if sp := f.Species; sp != nil {
		gas, solid := f.Owned(sp.Gas), f.Owned(sp.Solid)
		if floats.HasNaN(gas) || floats.HasNaN(solid) || speciesMin < m.SpeciesGuard {
			return dynamo.SpeciesBalanceViolation
		}
	}
	return dynamo.OK
}
