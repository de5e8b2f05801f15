package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/heatsim/internal/dynamo"
)

// IgnitionDetector flags the irreversible transition to ignition. It is
// inert unless combustion kinetics is active.
type IgnitionDetector struct {
	Active    bool
	Criterion dynamo.Criterion
	Threshold float64
}

// Detect returns the local ignition state after a completed step, given the
// owned reaction progress after the step and the owned temperature the step
// started from.
func (d IgnitionDetector) Detect(state dynamo.Ignition, eta, startT []float64) dynamo.Ignition {
	if !d.Active || state == dynamo.Ignited {
		return state
	}
	var peak float64
	switch d.Criterion {
	case dynamo.Temperature:
		peak = floats.Max(startT)
	default:
		peak = floats.Max(eta)
	}
	if peak >= d.Threshold {
		return dynamo.Ignited
	}
	return state
}
