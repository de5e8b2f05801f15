// Package physics provides the physical models the heat solver is coupled to.
//
//   - [Mesh]: uniform cell-centred line with control-volume widths
//   - [Material]: property model, recomputes T, k, ρC and Cp from energy
//   - [Kinetics]: Arrhenius combustion source and gas generation
//   - [Boundaries]: named energy and pressure boundary conditions
//
// [Material], [Kinetics] and [Boundaries] satisfy the collaborator
// interfaces consumed by the integrators package.
//
// # Boundary kinds
//
//	value       E = T·ρC in the boundary cell
//	flux        q [W/m²] into the domain
//	convective  h·(T∞ − T) with values {h, T∞}
//	radiative   εσ(T∞⁴ − T⁴) with values {ε, T∞}
package physics
