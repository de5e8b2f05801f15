package physics

import "github.com/san-kum/heatsim/internal/dynamo"

// Material is the property model of the reacting slab. In species mode the
// volumetric heat capacity follows the local gas and solid densities and
// the conductivity is porosity weighted.
type Material struct {
	K   float64
	Rho float64
	Cp  float64

	// KTempCoeff gives k(T) = k·(1 + KTempCoeff·(T − TRef)).
	KTempCoeff float64
	TRef       float64

	GasK  float64
	GasCp float64
}

// Update recomputes T, K, RhoC and Cp from E.
func (m *Material) Update(f *dynamo.Field) {
	for j := range f.E {
		rhoC, k, cp := m.local(f, j)
		f.RhoC[j] = rhoC
		f.Cp[j] = cp
		f.T[j] = f.E[j] / rhoC
		f.K[j] = k * (1 + m.KTempCoeff*(f.T[j]-m.TRef))
	}
}

// Init sets the energy from a temperature field and refreshes properties.
func (m *Material) Init(f *dynamo.Field, T []float64) {
	for j := range f.E {
		rhoC, _, _ := m.local(f, j)
		f.E[j] = rhoC * T[j]
	}
	m.Update(f)
}

func (m *Material) local(f *dynamo.Field, j int) (rhoC, k, cp float64) {
	sp := f.Species
	if sp == nil {
		return m.Rho * m.Cp, m.K, m.Cp
	}
	phi := sp.Porosity[j]
	rhoC = sp.Gas[j]*m.GasCp + sp.Solid[j]*m.Cp
	k = phi*m.GasK + (1-phi)*m.K
	return rhoC, k, m.GasCp
}
