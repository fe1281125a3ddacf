// Package linearize builds the small-signal state-space model of a single
// device about its operating point.
//
// Jacobians are taken by central finite differences on the device's
// nonlinear model:
//
//	A  = df/dx      B  = df/dv      Bw = df/dwcom
//	C  = dy/dx      Cw = dw/dx (reference device only)
package linearize
