package integrators

import (
	"testing"

	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/physics"
)

func benchmarkAdvance(b *testing.B, scheme dynamo.Scheme, species bool) {
	f, m := newSlab(1000, func(j int) float64 { return 300 + float64(j%50) }, species)
	k := &physics.Kinetics{Ea: 48000, A0: 1e3, DH: 1e6, GasGen: 0.1}
	s := NewStepper(StepperConfig{Scheme: scheme, Diffusive: dynamo.Harmonic, Kinetics: true}, m, k, adiabatic())
	dt := stableStep(f, scheme)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Advance(f, dt)
	}
}

func BenchmarkAdvanceExplicit(b *testing.B) { benchmarkAdvance(b, dynamo.Explicit, false) }
func BenchmarkAdvanceSplit(b *testing.B)    { benchmarkAdvance(b, dynamo.StrangSplit, false) }
func BenchmarkAdvanceSpecies(b *testing.B)  { benchmarkAdvance(b, dynamo.StrangSplit, true) }

func BenchmarkInterpolateHarmonic(b *testing.B) {
	var sink float64
	for i := 0; i < b.N; i++ {
		sink += Interpolate(float64(i), 3, dynamo.Harmonic)
	}
	_ = sink
}
