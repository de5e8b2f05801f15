package integrators

import (
	"math"

	"github.com/san-kum/heatsim/internal/comm"
	"github.com/san-kum/heatsim/internal/dynamo"
)

// TimeStepController derives the explicit stable step from the Fourier number.
//
// Fourier <= 0 means unset and defaults to 1. FixedDt <= 0 means no fixed
// step is configured.
type TimeStepController struct {
	Scheme  dynamo.Scheme
	Fourier float64
	FixedDt float64
}

// FourierNumber is the Fourier number actually applied.
func (c TimeStepController) FourierNumber() float64 {
	fo := c.Fourier
	if fo <= 0 || math.IsNaN(fo) {
		fo = 1
	}
	if c.Scheme == dynamo.Explicit {
		fo = math.Min(fo, 1)
	}
	return fo
}

// LocalStableStep returns min over cells of Fo*rhoC/k*h², further limited
// by the fixed step when one is configured.
func (c TimeStepController) LocalStableStep(k, rhoC, h []float64) float64 {
	fo := c.FourierNumber()
	dt := math.Inf(1)
	for i := range k {
		cand := fo * rhoC[i] / k[i] * h[i] * h[i]
		if math.IsNaN(cand) {
			return cand
		}
		dt = math.Min(dt, cand)
	}
	if c.FixedDt > 0 {
		dt = math.Min(dt, c.FixedDt)
	}
	return dt
}

// SynchronizeGlobalStep reduces the local step to the global minimum on
// rank 0 and broadcasts it. It blocks until every rank has contributed.
func SynchronizeGlobalStep(c *comm.Comm, localDt float64) (float64, dynamo.ErrorCode, error) {
	dt, err := c.Reduce(localDt, comm.OpMin, 0)
	if err != nil {
		return 0, dynamo.OK, err
	}
	dt, err = c.Broadcast(dt, 0)
	if err != nil {
		return 0, dynamo.OK, err
	}
	return dt, ValidateStep(dt), nil
}

// ValidateStep flags NaN or non-positive steps.
func ValidateStep(dt float64) dynamo.ErrorCode {
	if math.IsNaN(dt) || dt <= 0 {
		return dynamo.TimestepInvalid
	}
	return dynamo.OK
}
