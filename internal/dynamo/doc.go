// Package dynamo provides the core primitives shared by the heat solver.
//
// The package defines the per-subdomain field state and the closed
// enumerations that the rest of the solver dispatches on:
//
//   - [Field]: cell arrays for energy, temperature and properties
//   - [Species]: porous gas/solid record used in species mode
//   - [Scheme], [Interp], [BCKind], [BoundaryID], [Criterion]: configuration enums
//   - [ErrorCode], [Ignition]: per-step outcomes combined across workers
//
// # Example
//
//	f := dynamo.NewField(n, true)
//	mat.Init(f, temperature)
//	res := stepper.Advance(f, dt)
//
// # Thread Safety
//
// A Field is owned by exactly one worker. Collaborators receive it for the
// duration of a call and must not retain it.
package dynamo
