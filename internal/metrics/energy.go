package metrics

import (
	"math"
)

// Sample is the global per-step summary the driver feeds to metrics.
type Sample struct {
	Step        int
	Time        float64
	Dt          float64
	TMax        float64
	TMin        float64
	EtaMax      float64
	Energy      float64 // Σ E·Hx over the domain
	EtaIntegral float64 // Σ η·Hx over the domain
	Ignited     bool
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

func DefaultMetrics() []Metric {
	return []Metric{
		NewEnergyDrift(),
		NewPeakTemperature(),
		NewWaveSpeed(),
		NewMeanStep(),
	}
}

// EnergyDrift is the largest relative change of total energy seen so far.
// Without sources and with adiabatic boundaries it stays at round-off.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s Sample) {
	if e.samples == 0 {
		e.initialEnergy = s.Energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(s.Energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// PeakTemperature is the highest temperature observed during the run.
type PeakTemperature struct {
	name string
	peak float64
}

func NewPeakTemperature() *PeakTemperature {
	return &PeakTemperature{name: "peak_temperature"}
}

func (p *PeakTemperature) Name() string { return p.name }

func (p *PeakTemperature) Observe(s Sample) {
	p.peak = math.Max(p.peak, s.TMax)
}

func (p *PeakTemperature) Value() float64 { return p.peak }

func (p *PeakTemperature) Reset() { p.peak = 0 }
