// Package network describes how devices attach to buses and turns a set of
// per-device models into one system.
//
// A Topology owns the algebraic power-balance equations solved for the
// operating point. Compose couples the per-device state matrices through a
// virtual shunt resistance at every bus and Reduce removes the redundant
// absolute angle of the reference device.
//
// Power-flow unknowns are laid out as
//
//	[w, V_1D, V_1Q, ..., V_BD, V_BQ, I_1D, I_1Q, ..., I_ND, I_NQ]
//
// with buses in first-seen order and devices in topology order.
package network
