package linearize

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/device"
	"github.com/san-kum/gridmodes/internal/linsys"
)

func TestLinearize_BranchClosedForm(t *testing.T) {
	const wb = device.DefaultWBase
	r, l := 0.05, 0.2
	op := Point{X: []float64{0.7, -0.3}, U: [2]float64{1.0, 0.1}, W: 1.01}

	for _, class := range []device.Class{device.ClassLine, device.ClassLoad} {
		t.Run(string(class), func(t *testing.T) {
			m, err := device.New(class, "br", linsys.ParameterSet{"R": r, "L": l}, wb)
			if err != nil {
				t.Fatal(err)
			}
			sm, err := Linearize(m, op, false)
			if err != nil {
				t.Fatal(err)
			}

			wantA := mat.NewDense(2, 2, []float64{
				-wb * r / l, wb * op.W,
				-wb * op.W, -wb * r / l,
			})
			wantB := mat.NewDense(2, 2, []float64{wb / l, 0, 0, wb / l})
			wantBw := mat.NewDense(2, 1, []float64{wb * op.X[1], -wb * op.X[0]})
			wantC := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

			checks := []struct {
				name      string
				got, want mat.Matrix
			}{
				{"A", sm.A, wantA},
				{"B", sm.B, wantB},
				{"Bw", sm.Bw, wantBw},
				{"C", sm.C, wantC},
			}
			for _, c := range checks {
				if !mat.EqualApprox(c.got, c.want, 1e-5) {
					t.Errorf("%s = %v, want %v", c.name, mat.Formatted(c.got), mat.Formatted(c.want))
				}
			}
			if mat.Norm(sm.Cw, 1) != 0 {
				t.Errorf("Cw should be zero for a non-reference device")
			}
		})
	}
}

func TestLinearize_Dimensions(t *testing.T) {
	for _, class := range device.Classes() {
		t.Run(string(class), func(t *testing.T) {
			m, err := device.New(class, "dev", device.Defaults(class), device.DefaultWBase)
			if err != nil {
				t.Fatal(err)
			}
			term := device.Terminal{V: 1, I: m.InitialCurrent(1), W: 1}
			x, err := m.SteadyState(term)
			if err != nil {
				t.Fatal(err)
			}

			sm, err := Linearize(m, Point{X: x, U: [2]float64{1, 0}, W: 1}, false)
			if err != nil {
				t.Fatal(err)
			}
			n := len(m.States())
			if sm.Dim() != n || len(sm.Variables) != n {
				t.Errorf("dim = %d, variables = %d, want %d", sm.Dim(), len(sm.Variables), n)
			}
			if n > 0 && !linsys.IsFinite(sm.A) {
				t.Errorf("A has non-finite entries")
			}
			for _, v := range sm.Variables {
				if v.Component != "dev" {
					t.Errorf("variable %s owned by %q", v.Name, v.Component)
				}
			}
		})
	}
}

func TestLinearize_ReferenceCw(t *testing.T) {
	p := device.Defaults(device.ClassDroop)
	m, err := device.New(device.ClassDroop, "inv1", p, device.DefaultWBase)
	if err != nil {
		t.Fatal(err)
	}
	x, _ := m.SteadyState(device.Terminal{V: 1, I: complex(1, 0), W: 1})

	sm, err := Linearize(m, Point{X: x, U: [2]float64{1, 0}, W: 1}, true)
	if err != nil {
		t.Fatal(err)
	}
	// Only P feeds the droop frequency.
	for j := 0; j < sm.Dim(); j++ {
		want := 0.0
		if sm.Variables[j].Name == "P" {
			want = -p["mp"]
		}
		if got := sm.Cw.At(0, j); math.Abs(got-want) > 1e-8 {
			t.Errorf("Cw[%s] = %g, want %g", sm.Variables[j].Name, got, want)
		}
	}
}

func TestLinearize_FixedVoltageIsFinite(t *testing.T) {
	p := device.Defaults(device.ClassVSM)
	p["mq"] = math.Inf(1)
	m, err := device.New(device.ClassVSM, "vsm1", p, device.DefaultWBase)
	if err != nil {
		t.Fatal(err)
	}
	x, _ := m.SteadyState(device.Terminal{V: 1, I: complex(0.5, 0), W: 1})

	sm, err := Linearize(m, Point{X: x, U: [2]float64{1, 0}, W: 1}, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, blk := range []*mat.Dense{sm.A, sm.B, sm.Bw, sm.C, sm.Cw} {
		if !linsys.IsFinite(blk) {
			t.Fatalf("non-finite block with infinite mq")
		}
	}
}

func TestLinearize_Errors(t *testing.T) {
	line, _ := device.New(device.ClassLine, "l1", device.Defaults(device.ClassLine), device.DefaultWBase)

	_, err := Linearize(line, Point{X: []float64{0, 0}, U: [2]float64{1, 0}, W: 1}, true)
	if !errors.Is(err, linsys.ErrTopology) {
		t.Errorf("line as reference: expected ErrTopology, got %v", err)
	}

	_, err = Linearize(line, Point{X: []float64{0}, W: 1}, false)
	if !errors.Is(err, linsys.ErrDimensionMismatch) {
		t.Errorf("short state: expected ErrDimensionMismatch, got %v", err)
	}
}
