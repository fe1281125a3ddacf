package linearize

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/device"
	"github.com/san-kum/gridmodes/internal/linsys"
)

var settings = &fd.JacobianSettings{Formula: fd.Central}

// Point is the operating point of one device: its state, its global D-Q
// input voltage and the centre-of-inertia frequency.
type Point struct {
	X []float64
	U [2]float64
	W float64
}

// Linearize returns the state matrices of m at op. Only the reference
// device gets a non-zero Cw; it must implement device.Former.
func Linearize(m device.Model, op Point, isReference bool) (*linsys.StateMatrix, error) {
	names := m.States()
	n := len(names)
	if len(op.X) != n {
		return nil, fmt.Errorf("%w: %s: state has %d entries, want %d", linsys.ErrDimensionMismatch, m.Label(), len(op.X), n)
	}

	var former device.Former
	if isReference {
		f, ok := m.(device.Former)
		if !ok {
			return nil, linsys.Topologyf("%s (%s) cannot act as reference", m.Label(), m.Class())
		}
		former = f
	}

	sm := &linsys.StateMatrix{
		Label:     m.Label(),
		Variables: make([]linsys.Variable, n),
	}
	for i, name := range names {
		sm.Variables[i] = linsys.Variable{Name: name, Component: m.Label()}
	}
	if n == 0 {
		return sm, nil
	}

	sm.A = mat.NewDense(n, n, nil)
	fd.Jacobian(sm.A, func(dx, x []float64) {
		m.Derive(dx, x, op.U, op.W)
	}, op.X, settings)

	sm.B = mat.NewDense(n, 2, nil)
	fd.Jacobian(sm.B, func(dx, u []float64) {
		m.Derive(dx, op.X, [2]float64{u[0], u[1]}, op.W)
	}, op.U[:], settings)

	sm.Bw = mat.NewDense(n, 1, nil)
	fd.Jacobian(sm.Bw, func(dx, w []float64) {
		m.Derive(dx, op.X, op.U, w[0])
	}, []float64{op.W}, settings)

	sm.C = mat.NewDense(2, n, nil)
	fd.Jacobian(sm.C, func(y, x []float64) {
		out := m.Output(x)
		y[0], y[1] = out[0], out[1]
	}, op.X, settings)

	sm.Cw = mat.NewDense(1, n, nil)
	if former != nil {
		fd.Jacobian(sm.Cw, func(y, x []float64) {
			y[0] = former.Frequency(x)
		}, op.X, settings)
	}

	if err := sm.Validate(); err != nil {
		return nil, err
	}
	return sm, nil
}
