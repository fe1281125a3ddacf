// Package sweep re-runs the stability analysis over parameter grids.
//
// Every grid point is an independent run on its own copy of the base case,
// so points are evaluated in parallel and returned in grid order.
package sweep
