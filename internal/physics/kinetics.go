package physics

import "math"

// UniversalGasConstant in J/(mol·K).
const UniversalGasConstant = 8.314

// Kinetics is a first-order Arrhenius combustion model:
//
//	dη/dt = A0·(1−η)·exp(−Ea/(Ru·T))
//
// releasing ρ0·ΔH per unit of reaction progress and converting a GasGen
// fraction of the reacted solid into gas.
type Kinetics struct {
	Ea     float64
	A0     float64
	DH     float64
	GasGen float64
}

// CombustionEnergySource fills q with the volumetric heat release rate and
// rate with dη/dt. The rate is limited so a sub-step of size h never takes
// η past 1.
func (k *Kinetics) CombustionEnergySource(q, rate, rho0, T, eta []float64, h float64) {
	for j := range rate {
		r := k.A0 * (1 - eta[j]) * math.Exp(-k.Ea/(UniversalGasConstant*T[j]))
		if h > 0 && eta[j]+r*h > 1 {
			r = (1 - eta[j]) / h
		}
		if r < 0 || math.IsNaN(r) {
			r = 0
		}
		rate[j] = r
		q[j] = rho0[j] * k.DH * r
	}
}

// MassSource fills the gas production and solid consumption rates. Both
// rates are per unit bulk volume, as rho0 is, so porosity does not scale them.
func (k *Kinetics) MassSource(gas, solid, rate, porosity, rho0 []float64) {
	for j := range rate {
		m := k.GasGen * rho0[j] * rate[j]
		gas[j] = m
		solid[j] = m
	}
}
