// Package stability runs the small-signal analysis of one case:
// power flow, per-device linearization, network assembly, reference
// reduction and modal analysis.
//
// Analyze is a pure function of its case. Runs share no state, so callers
// may run independent cases concurrently.
package stability
