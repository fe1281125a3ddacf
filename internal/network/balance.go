package network

import (
	"fmt"

	"github.com/san-kum/gridmodes/internal/device"
	"github.com/san-kum/gridmodes/internal/linearize"
	"github.com/san-kum/gridmodes/internal/linsys"
	"github.com/san-kum/gridmodes/internal/powerflow"
)

func (t *Topology) busOffset(b int) int { return 1 + 2*b }

func (t *Topology) currentOffset(k int) int { return 1 + 2*len(t.Buses) + 2*k }

func (t *Topology) busVoltage(x []float64, b int) complex128 {
	o := t.busOffset(b)
	return complex(x[o], x[o+1])
}

// terminal returns the power-flow solution seen from component k.
func (t *Topology) terminal(x []float64, k int) device.Terminal {
	var v complex128
	for _, tp := range t.incidence(k) {
		v += complex(tp.sign, 0) * t.busVoltage(x, tp.bus)
	}
	o := t.currentOffset(k)
	return device.Terminal{V: v, I: complex(x[o], x[o+1]), W: x[0]}
}

// Residual evaluates the power-balance equations: current balance at every
// bus, two terminal equations per device and the reference equation.
func (t *Topology) Residual(dst, x []float64) {
	nb := len(t.Buses)
	for i := range dst {
		dst[i] = 0
	}

	for k, c := range t.Components {
		o := t.currentOffset(k)
		for _, tp := range t.injection(k) {
			dst[2*tp.bus] += tp.sign * x[o]
			dst[2*tp.bus+1] += tp.sign * x[o+1]
		}

		r := c.Model.Residual(t.terminal(x, k))
		dst[2*nb+2*k] = real(r)
		dst[2*nb+2*k+1] = imag(r)
	}

	dst[len(dst)-1] = t.ReferenceModel().ReferenceResidual(t.terminal(x, t.Reference))
}

// InitialGuess is the canonical starting point: unit frequency, flat bus
// voltages (the stiff bus at its set voltage) and each device's current
// from its set-points.
func (t *Topology) InitialGuess() []float64 {
	x := make([]float64, t.Dim())
	x[0] = 1
	for b := range t.Buses {
		x[t.busOffset(b)] = 1
	}
	if t.stiffBus >= 0 {
		for _, c := range t.Components {
			if s, ok := c.Model.(stiff); ok {
				v := s.Voltage()
				o := t.busOffset(t.stiffBus)
				x[o], x[o+1] = real(v), imag(v)
			}
		}
	}

	for k, c := range t.Components {
		var i complex128
		if c.Model.Connection() != device.Series {
			i = c.Model.InitialCurrent(t.terminal(x, k).V)
		}
		o := t.currentOffset(k)
		x[o], x[o+1] = real(i), imag(i)
	}
	return x
}

// OperatingPoint is the solved steady state of a topology.
type OperatingPoint struct {
	// X0 concatenates every component's state vector in topology order.
	X0 []float64
	// Points holds each component's linearization point.
	Points []linearize.Point
	// Voltages are the bus voltages in Buses order.
	Voltages []complex128
	// Currents are the device output currents in topology order.
	Currents []complex128
	W        float64

	Converged    bool
	Iterations   int
	ResidualNorm float64
	// Solution is the raw power-flow unknown vector.
	Solution []float64
}

// Solve runs the power flow from the canonical guess and rebuilds every
// device's state. An unconverged power flow still yields an operating
// point built from the last iterate.
func (t *Topology) Solve(s powerflow.Settings) (*OperatingPoint, error) {
	res := powerflow.Solve(t.Residual, t.InitialGuess(), s)
	op, err := t.OperatingPointAt(res.X)
	if err != nil {
		return nil, err
	}
	op.Converged = res.Converged
	op.Iterations = res.Iterations
	op.ResidualNorm = res.ResidualNorm
	return op, nil
}

// OperatingPointAt rebuilds the device states at the power-flow vector x.
func (t *Topology) OperatingPointAt(x []float64) (*OperatingPoint, error) {
	if len(x) != t.Dim() {
		return nil, fmt.Errorf("network: solution has %d entries, want %d", len(x), t.Dim())
	}
	op := &OperatingPoint{
		X0:       make([]float64, 0, t.States()),
		Points:   make([]linearize.Point, len(t.Components)),
		Voltages: make([]complex128, len(t.Buses)),
		Currents: make([]complex128, len(t.Components)),
		W:        x[0],
		Solution: linsys.Vector(x).Clone(),
	}
	for b := range t.Buses {
		op.Voltages[b] = t.busVoltage(x, b)
	}

	for k, c := range t.Components {
		term := t.terminal(x, k)
		xs, err := c.Model.SteadyState(term)
		if err != nil {
			return nil, fmt.Errorf("network: steady state of %s: %w", c.Model.Label(), err)
		}
		op.X0 = append(op.X0, xs...)
		op.Currents[k] = term.I
		op.Points[k] = linearize.Point{
			X: xs,
			U: [2]float64{real(term.V), imag(term.V)},
			W: x[0],
		}
	}
	return op, nil
}
