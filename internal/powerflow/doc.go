// Package powerflow finds steady-state operating points by solving the
// network's algebraic balance equations with a damped Newton iteration.
//
// The solver is generic over the residual function; the network package
// supplies the equations and the canonical initial guess for a topology.
// Non-convergence is reported through Result.Converged, never as an error,
// and the solver never retries.
package powerflow
