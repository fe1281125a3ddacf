package device

import (
	"github.com/san-kum/gridmodes/internal/linsys"
)

// InfiniteBus holds its bus at Vset on the real axis and imposes wset on
// the network. It carries no states.
type InfiniteBus struct {
	label      string
	vset, wset float64
}

func NewInfiniteBus(label string, p linsys.ParameterSet) (*InfiniteBus, error) {
	r := p.Reader(label)
	b := &InfiniteBus{label: label, vset: r.Float("Vset"), wset: r.Float("wset")}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *InfiniteBus) Label() string          { return b.label }
func (b *InfiniteBus) Class() Class           { return ClassInfiniteBus }
func (b *InfiniteBus) Connection() Connection { return Stiff }
func (b *InfiniteBus) States() []string       { return nil }

// Voltage is the fixed bus voltage.
func (b *InfiniteBus) Voltage() complex128 { return complex(b.vset, 0) }

func (b *InfiniteBus) Derive(dx, x []float64, v [2]float64, wcom float64) {}

func (b *InfiniteBus) Output(x []float64) [2]float64 { return [2]float64{} }

func (b *InfiniteBus) Frequency(x []float64) float64 { return b.wset }

func (b *InfiniteBus) Residual(t Terminal) complex128 {
	return complex(real(t.V)-b.vset, imag(t.V))
}

func (b *InfiniteBus) ReferenceResidual(t Terminal) float64 {
	return t.W - b.wset
}

func (b *InfiniteBus) InitialCurrent(v complex128) complex128 { return 0 }

func (b *InfiniteBus) SteadyState(t Terminal) ([]float64, error) {
	return []float64{}, nil
}
