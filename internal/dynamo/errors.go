package dynamo

import (
	"errors"
	"fmt"
)

// Terminal step errors. Each one halts the whole distributed run.
var (
	// ErrTimestepInvalid indicates the synchronized timestep was NaN or non-positive.
	ErrTimestepInvalid = errors.New("dynamo: synchronized timestep is NaN or non-positive")

	// ErrEnergyDivergence indicates a cell energy became NaN or non-positive.
	ErrEnergyDivergence = errors.New("dynamo: energy diverged")

	// ErrReactionOutOfBounds indicates reaction progress left [0, 1].
	ErrReactionOutOfBounds = errors.New("dynamo: reaction progress out of bounds")

	// ErrSpeciesBalance indicates a NaN or runaway negative species density.
	ErrSpeciesBalance = errors.New("dynamo: species balance violated")

	ErrUnknownCode = errors.New("dynamo: unknown error code")
)

// SimulationError wraps a terminal error with the step it was detected on.
type SimulationError struct {
	Step    int
	Time    float64
	Code    ErrorCode
	Wrapped error
}

func NewSimulationError(step int, t float64, code ErrorCode) *SimulationError {
	return &SimulationError{Step: step, Time: t, Code: code, Wrapped: code.Err()}
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
