// Package linsys provides the core value types shared by every stage of a
// small-signal stability run.
//
// The package defines:
//
//   - [ParameterSet]: flat string to float mapping supplied by the caller
//   - [Vector]: state or input vector with finiteness checks
//   - [Variable]: a state name together with its owning component
//   - [StateMatrix]: linearized model (A, B, Bw, C, Cw) of one component
//
// # Example
//
//	ps := linsys.ParameterSet{"R": 0.02, "L": 0.1}
//	r := ps.Reader("line12")
//	R, L := r.Float("R"), r.Float("L")
//	if err := r.Err(); err != nil {
//	    return err
//	}
//
// Values in this package are never mutated once a run has produced them,
// so results may be shared across goroutines.
package linsys
