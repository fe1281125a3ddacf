package device

import (
	"github.com/san-kum/gridmodes/internal/linsys"
)

var branchNames = []string{"i_D", "i_Q"}

// Branch is a series RL element whose current is integrated directly in
// the global frame. Lines connect two buses; loads hang off one bus.
type Branch struct {
	label string
	class Class
	wb    float64
	r, l  float64
}

func newBranch(class Class, label string, p linsys.ParameterSet, wbase float64) (*Branch, error) {
	rd := p.Reader(label)
	b := &Branch{
		label: label,
		class: class,
		wb:    wbase,
		r:     rd.Float("R"),
		l:     rd.Float("L"),
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

func NewLine(label string, p linsys.ParameterSet, wbase float64) (*Branch, error) {
	return newBranch(ClassLine, label, p, wbase)
}

func NewLoad(label string, p linsys.ParameterSet, wbase float64) (*Branch, error) {
	return newBranch(ClassLoad, label, p, wbase)
}

func (b *Branch) Label() string    { return b.label }
func (b *Branch) Class() Class     { return b.class }
func (b *Branch) States() []string { return branchNames }

func (b *Branch) Connection() Connection {
	if b.class == ClassLine {
		return Series
	}
	return Sink
}

func (b *Branch) Derive(dx, x []float64, v [2]float64, wcom float64) {
	dx[0] = b.wb/b.l*(v[0]-b.r*x[0]) + b.wb*wcom*x[1]
	dx[1] = b.wb/b.l*(v[1]-b.r*x[1]) - b.wb*wcom*x[0]
}

func (b *Branch) Output(x []float64) [2]float64 {
	return [2]float64{x[0], x[1]}
}

func (b *Branch) impedance(w float64) complex128 {
	return complex(b.r, w*b.l)
}

func (b *Branch) Residual(t Terminal) complex128 {
	return t.V - b.impedance(t.W)*t.I
}

func (b *Branch) InitialCurrent(v complex128) complex128 {
	if b.class == ClassLine {
		return 0
	}
	return v / b.impedance(1)
}

func (b *Branch) SteadyState(t Terminal) ([]float64, error) {
	return []float64{real(t.I), imag(t.I)}, nil
}
