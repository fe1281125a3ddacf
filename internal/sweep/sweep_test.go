package sweep

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gridmodes/internal/config"
)

func TestGrid_Points(t *testing.T) {
	g := NewGrid(
		Axis{Component: "inv1", Key: "mp", Values: []float64{0.01, 0.02}},
		Axis{Component: "inv1", Key: "mq", Values: []float64{0.1, 0.2, 0.3}},
	)

	if g.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", g.Size())
	}
	points := g.Points()
	want := [][]float64{
		{0.01, 0.1}, {0.01, 0.2}, {0.01, 0.3},
		{0.02, 0.1}, {0.02, 0.2}, {0.02, 0.3},
	}
	if len(points) != len(want) {
		t.Fatalf("got %d points, want %d", len(points), len(want))
	}
	for i := range want {
		if points[i][0] != want[i][0] || points[i][1] != want[i][1] {
			t.Errorf("point %d = %v, want %v", i, points[i], want[i])
		}
	}

	if n := len(NewGrid().Points()); n != 0 {
		t.Errorf("empty grid has %d points", n)
	}
}

func TestLinspace(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		steps    int
		want     []float64
	}{
		{"single", 1, 5, 1, []float64{1}},
		{"two", 1, 5, 2, []float64{1, 5}},
		{"five", 0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Linspace(tt.min, tt.max, tt.steps)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("got[%d] = %g, want %g", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRun_GridOrder(t *testing.T) {
	base := config.GetPreset("droop-infinite-bus")
	values := []float64{0.02, 0.04, 0.06}
	g := NewGrid(Axis{Component: "inv1", Key: "mp", Values: values})

	s, err := Run(context.Background(), base, g, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Points) != len(values) {
		t.Fatalf("got %d points, want %d", len(s.Points), len(values))
	}
	for i, p := range s.Points {
		if p.Values[0] != values[i] {
			t.Errorf("point %d value = %g, want %g", i, p.Values[0], values[i])
		}
		if p.Err != nil {
			t.Errorf("point %d: %v", i, p.Err)
			continue
		}
		if !p.Result.Converged {
			t.Errorf("point %d did not converge", i)
		}
	}
	if base.Component("inv1").Params["mp"] != 0.05 {
		t.Error("Run modified the base case")
	}
	if _, ok := s.MostStable(); !ok {
		t.Error("expected a most stable point")
	}
}

func TestRun_PointErrors(t *testing.T) {
	base := config.GetPreset("droop-infinite-bus")
	g := NewGrid(Axis{Component: "inv9", Key: "mp", Values: []float64{0.1}})

	s, err := Run(context.Background(), base, g, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Points[0].Err == nil {
		t.Error("expected point error for unknown component")
	}
	if _, ok := s.MostStable(); ok {
		t.Error("no point should qualify")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGrid(Axis{Component: "inv1", Key: "mp", Values: []float64{0.01, 0.02}})
	_, err := Run(ctx, config.GetPreset("droop-infinite-bus"), g, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLocus(t *testing.T) {
	locus, err := Locus(context.Background(), config.GetPreset("droop-infinite-bus"), "inv1", "mp", 0.01, 0.05, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(locus) != 3 {
		t.Fatalf("got %d points, want 3", len(locus))
	}
	for i, p := range locus {
		if p.Err != nil {
			t.Fatalf("point %d: %v", i, p.Err)
		}
		if len(p.Eigenvalues) != 13 {
			t.Errorf("point %d has %d eigenvalues, want 13", i, len(p.Eigenvalues))
		}
	}
	if locus[0].Param != 0.01 || locus[2].Param != 0.05 {
		t.Errorf("params = %g..%g", locus[0].Param, locus[2].Param)
	}
}

func TestCrossing(t *testing.T) {
	tests := []struct {
		name  string
		locus []LocusPoint
		want  float64
		ok    bool
	}{
		{"never", []LocusPoint{{Param: 1, Stable: true}, {Param: 2, Stable: true}}, 0, false},
		{"crosses", []LocusPoint{{Param: 1, Stable: true}, {Param: 2, Stable: true}, {Param: 3}}, 3, true},
		{"starts unstable", []LocusPoint{{Param: 1}, {Param: 2}}, 0, false},
		{"skips failures", []LocusPoint{{Param: 1, Stable: true}, {Param: 2, Err: errors.New("x")}, {Param: 3}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Crossing(tt.locus)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Crossing() = (%g, %v), want (%g, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
