package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/linsys"
)

// System is the coupled small-signal model of a topology.
type System struct {
	// A is the reduced state matrix and Variables its labels.
	A         *mat.Dense
	Variables []linsys.Variable

	// Full is the matrix before the reference angle was removed.
	Full          *mat.Dense
	FullVariables []linsys.Variable
	// Removed is the index in Full of the deleted state, or -1.
	Removed int
}

// Assemble composes the per-component matrices and removes the reference
// angle. mats must follow the topology's component order.
func Assemble(t *Topology, mats []*linsys.StateMatrix) (*System, error) {
	full, vars, err := Compose(t, mats)
	if err != nil {
		return nil, err
	}
	idx, err := t.referenceState(mats)
	if err != nil {
		return nil, err
	}

	sys := &System{Full: full, FullVariables: vars, Removed: idx}
	if idx < 0 {
		sys.A = mat.DenseCopyOf(full)
		sys.Variables = append([]linsys.Variable(nil), vars...)
		return sys, nil
	}
	sys.A, sys.Variables = Reduce(full, vars, idx)
	return sys, nil
}

// coupling is the scalar gain from component j's output current to
// component i's input voltage through the virtual resistances at shared
// non-stiff buses.
func (t *Topology) coupling(i, j int) float64 {
	sum := 0.0
	for _, a := range t.incidence(i) {
		if a.bus == t.stiffBus {
			continue
		}
		for _, s := range t.injection(j) {
			if s.bus == a.bus {
				sum += a.sign * s.sign
			}
		}
	}
	return t.Rx * sum
}

// Compose builds the global state matrix:
//
//	block(i, j)   += B_i N_ij C_j
//	block(i, ref) += Bw_i Cw_ref
//	block(i, i)   += A_i
//
// with N_ij the coupling gain times the 2x2 identity.
func Compose(t *Topology, mats []*linsys.StateMatrix) (*mat.Dense, []linsys.Variable, error) {
	if len(mats) != len(t.Components) {
		return nil, nil, fmt.Errorf("%w: %d state matrices for %d components", linsys.ErrDimensionMismatch, len(mats), len(t.Components))
	}

	offsets := make([]int, len(mats))
	n := 0
	for k, sm := range mats {
		if want := len(t.Components[k].Model.States()); sm.Dim() != want {
			return nil, nil, fmt.Errorf("%w: %s has %d states, want %d", linsys.ErrDimensionMismatch, sm.Label, sm.Dim(), want)
		}
		if err := sm.Validate(); err != nil {
			return nil, nil, err
		}
		offsets[k] = n
		n += sm.Dim()
	}
	if n == 0 {
		return nil, nil, linsys.Topologyf("no dynamic states")
	}

	a := mat.NewDense(n, n, nil)
	vars := make([]linsys.Variable, 0, n)
	ref := mats[t.Reference]

	block := func(i, j int) *mat.Dense {
		return a.Slice(offsets[i], offsets[i]+mats[i].Dim(), offsets[j], offsets[j]+mats[j].Dim()).(*mat.Dense)
	}

	for i, mi := range mats {
		if mi.Dim() == 0 {
			continue
		}
		vars = append(vars, mi.Variables...)

		diag := block(i, i)
		diag.Add(diag, mi.A)

		for j, mj := range mats {
			if mj.Dim() == 0 {
				continue
			}
			c := t.coupling(i, j)
			if c == 0 {
				continue
			}
			var bc mat.Dense
			bc.Mul(mi.B, mj.C)
			bc.Scale(c, &bc)
			blk := block(i, j)
			blk.Add(blk, &bc)
		}

		if ref.Dim() > 0 {
			var bw mat.Dense
			bw.Mul(mi.Bw, ref.Cw)
			blk := block(i, t.Reference)
			blk.Add(blk, &bw)
		}
	}
	return a, vars, nil
}

// referenceState returns the global index of the reference angle, or -1
// when the reference carries no states.
func (t *Topology) referenceState(mats []*linsys.StateMatrix) (int, error) {
	off := 0
	for k := 0; k < t.Reference; k++ {
		off += mats[k].Dim()
	}
	ref := mats[t.Reference]
	if ref.Dim() == 0 {
		return -1, nil
	}
	for i, v := range ref.Variables {
		if v.Name == "delta" {
			return off + i, nil
		}
	}
	return -1, linsys.Topologyf("reference %s has no angle state", ref.Label)
}

// Reduce deletes row and column idx and the matching label.
func Reduce(a *mat.Dense, vars []linsys.Variable, idx int) (*mat.Dense, []linsys.Variable) {
	n, _ := a.Dims()
	out := mat.NewDense(n-1, n-1, nil)
	for i, ri := 0, 0; i < n; i++ {
		if i == idx {
			continue
		}
		for j, cj := 0, 0; j < n; j++ {
			if j == idx {
				continue
			}
			out.Set(ri, cj, a.At(i, j))
			cj++
		}
		ri++
	}

	labels := make([]linsys.Variable, 0, n-1)
	labels = append(labels, vars[:idx]...)
	labels = append(labels, vars[idx+1:]...)
	return out, labels
}
