package linsys

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type Vector []float64

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Variable names one state of the global model.
type Variable struct {
	Name      string `json:"name" yaml:"name"`
	Component string `json:"component" yaml:"component"`
}

func (v Variable) String() string {
	return v.Component + "." + v.Name
}

// StateMatrix is the linearized model of one component:
//
//	dx/dt = A x + B v + Bw wcom
//	i     = C x
//	w     = Cw x
//
// where v is the global D-Q input voltage, i the global D-Q output current
// and w the component frequency (non-zero only for the reference).
type StateMatrix struct {
	Label     string
	A         *mat.Dense
	B         *mat.Dense
	Bw        *mat.Dense
	C         *mat.Dense
	Cw        *mat.Dense
	Variables []Variable
}

// Dim returns the number of states.
func (s *StateMatrix) Dim() int {
	if s.A == nil {
		return 0
	}
	r, _ := s.A.Dims()
	return r
}

// Validate checks the block shapes against the state count.
func (s *StateMatrix) Validate() error {
	n := len(s.Variables)
	check := func(name string, m *mat.Dense, rows, cols int) error {
		if n == 0 {
			return nil
		}
		if m == nil {
			return fmt.Errorf("%w: %s: %s is nil", ErrDimensionMismatch, s.Label, name)
		}
		r, c := m.Dims()
		if r != rows || c != cols {
			return fmt.Errorf("%w: %s: %s is %dx%d, want %dx%d", ErrDimensionMismatch, s.Label, name, r, c, rows, cols)
		}
		return nil
	}
	for _, err := range []error{
		check("A", s.A, n, n),
		check("B", s.B, n, 2),
		check("Bw", s.Bw, n, 1),
		check("C", s.C, 2, n),
		check("Cw", s.Cw, 1, n),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// IsFinite reports whether every entry of m is finite.
func IsFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
