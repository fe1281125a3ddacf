package network

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/device"
	"github.com/san-kum/gridmodes/internal/linearize"
	"github.com/san-kum/gridmodes/internal/linsys"
	"github.com/san-kum/gridmodes/internal/powerflow"
)

type part struct {
	label string
	class device.Class
	bus   string
	from  string
	to    string
}

func build(t *testing.T, parts []part, reference string) *Topology {
	t.Helper()
	top, err := tryBuild(parts, reference)
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	return top
}

func tryBuild(parts []part, reference string) (*Topology, error) {
	comps := make([]Component, 0, len(parts))
	for _, p := range parts {
		m, err := device.New(p.class, p.label, device.Defaults(p.class), device.DefaultWBase)
		if err != nil {
			return nil, err
		}
		comps = append(comps, Component{Model: m, Bus: p.bus, From: p.from, To: p.to})
	}
	return NewTopology(comps, reference, 0)
}

var (
	droopGrid = []part{
		{label: "inv1", class: device.ClassDroop, bus: "b1"},
		{label: "grid", class: device.ClassInfiniteBus, bus: "b1"},
	}
	twoDroopLoad = []part{
		{label: "inv1", class: device.ClassDroopFast, bus: "b1"},
		{label: "inv2", class: device.ClassDroopFast, bus: "b1"},
		{label: "load1", class: device.ClassLoad, bus: "b1"},
	}
	droopLineLoad = []part{
		{label: "inv1", class: device.ClassDroop, bus: "b1"},
		{label: "line1", class: device.ClassLine, from: "b1", to: "b2"},
		{label: "load1", class: device.ClassLoad, bus: "b2"},
	}
)

func TestNewTopology_Errors(t *testing.T) {
	tests := []struct {
		name      string
		parts     []part
		reference string
	}{
		{"empty", nil, "inv1"},
		{"unknown reference", droopLineLoad, "inv9"},
		{"line as reference", droopLineLoad, "line1"},
		{"stiff device not reference", droopGrid, "inv1"},
		{"duplicate label", []part{
			{label: "inv1", class: device.ClassDroop, bus: "b1"},
			{label: "inv1", class: device.ClassLoad, bus: "b1"},
		}, "inv1"},
		{"shunt without bus", []part{
			{label: "inv1", class: device.ClassDroop},
		}, "inv1"},
		{"line to itself", []part{
			{label: "inv1", class: device.ClassDroop, bus: "b1"},
			{label: "line1", class: device.ClassLine, from: "b1", to: "b1"},
		}, "inv1"},
		{"two stiff devices", []part{
			{label: "g1", class: device.ClassInfiniteBus, bus: "b1"},
			{label: "g2", class: device.ClassInfiniteBus, bus: "b2"},
			{label: "line1", class: device.ClassLine, from: "b1", to: "b2"},
		}, "g1"},
		{"machine on the stiff bus", []part{
			{label: "sg1", class: device.ClassSG, bus: "b1"},
			{label: "grid", class: device.ClassInfiniteBus, bus: "b1"},
		}, "grid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tryBuild(tt.parts, tt.reference)
			if !errors.Is(err, linsys.ErrTopology) {
				t.Errorf("expected ErrTopology, got %v", err)
			}
		})
	}
}

func TestTopology_Layout(t *testing.T) {
	top := build(t, droopLineLoad, "inv1")

	if got := top.Buses; len(got) != 2 || got[0] != "b1" || got[1] != "b2" {
		t.Errorf("buses = %v", got)
	}
	if got, want := top.Dim(), 1+2*2+2*3; got != want {
		t.Errorf("Dim() = %d, want %d", got, want)
	}
	if got := top.States(); got != 13+2+2 {
		t.Errorf("States() = %d, want 17", got)
	}
	if top.Rx != DefaultRx {
		t.Errorf("Rx = %g, want default %g", top.Rx, DefaultRx)
	}
}

func TestTopology_Coupling(t *testing.T) {
	top := build(t, droopLineLoad, "inv1")
	rx := top.Rx

	tests := []struct {
		name string
		i, j int
		want float64
	}{
		{"inverter sees itself", 0, 0, rx},
		{"inverter sees line leaving", 0, 1, -rx},
		{"inverter does not see load", 0, 2, 0},
		{"line sees inverter", 1, 0, rx},
		{"line sees itself at both ends", 1, 1, -2 * rx},
		{"line sees load", 1, 2, rx},
		{"load sees line arriving", 2, 1, rx},
		{"load sees itself", 2, 2, -rx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := top.coupling(tt.i, tt.j); got != tt.want {
				t.Errorf("coupling(%d, %d) = %g, want %g", tt.i, tt.j, got, tt.want)
			}
		})
	}

	grid := build(t, droopGrid, "grid")
	if got := grid.coupling(0, 0); got != 0 {
		t.Errorf("stiff bus coupling = %g, want 0", got)
	}
}

func TestTopology_Solve(t *testing.T) {
	tests := []struct {
		name      string
		parts     []part
		reference string
	}{
		{"droop and grid", droopGrid, "grid"},
		{"two droops and load", twoDroopLoad, "inv1"},
		{"droop line load", droopLineLoad, "inv1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top := build(t, tt.parts, tt.reference)
			op, err := top.Solve(powerflow.DefaultSettings())
			if err != nil {
				t.Fatal(err)
			}
			if !op.Converged {
				t.Fatalf("power flow did not converge: norm %g", op.ResidualNorm)
			}

			f := make([]float64, top.Dim())
			top.Residual(f, op.Solution)
			if n := floats.Norm(f, math.Inf(1)); n >= 1e-5 {
				t.Errorf("residual norm = %g", n)
			}
			if len(op.X0) != top.States() {
				t.Errorf("len(X0) = %d, want %d", len(op.X0), top.States())
			}
			// The reference angle is zero.
			if top.ReferenceModel().Connection() != device.Stiff && math.Abs(op.X0[0]) > 1e-6 {
				t.Errorf("reference angle = %g", op.X0[0])
			}
		})
	}
}

func linearizeAll(t *testing.T, top *Topology, op *OperatingPoint) []*linsys.StateMatrix {
	t.Helper()
	mats := make([]*linsys.StateMatrix, len(top.Components))
	for k, c := range top.Components {
		sm, err := linearize.Linearize(c.Model, op.Points[k], k == top.Reference)
		if err != nil {
			t.Fatal(err)
		}
		mats[k] = sm
	}
	return mats
}

func TestAssemble_Reduction(t *testing.T) {
	top := build(t, twoDroopLoad, "inv1")
	op, err := top.Solve(powerflow.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := Assemble(top, linearizeAll(t, top, op))
	if err != nil {
		t.Fatal(err)
	}

	if r, c := sys.Full.Dims(); r != 26 || c != 26 {
		t.Fatalf("full matrix is %dx%d, want 26x26", r, c)
	}
	if sys.Removed != 0 {
		t.Errorf("removed state %d, want 0", sys.Removed)
	}
	if v := sys.FullVariables[sys.Removed]; v.Name != "delta" || v.Component != "inv1" {
		t.Errorf("removed %v, want inv1.delta", v)
	}

	row := sys.Full.RawRowView(sys.Removed)
	for j, v := range row {
		if math.Abs(v) > 1e-6 {
			t.Errorf("reference angle row entry %d = %g, want 0", j, v)
		}
	}

	if r, c := sys.A.Dims(); r != 25 || c != 25 {
		t.Fatalf("reduced matrix is %dx%d, want 25x25", r, c)
	}
	if len(sys.Variables) != 25 {
		t.Fatalf("%d labels, want 25", len(sys.Variables))
	}
	if v := sys.Variables[0]; v.Name != "Q" || v.Component != "inv1" {
		t.Errorf("first retained label = %v, want inv1.Q", v)
	}
	if v := sys.Variables[11]; v.Name != "delta" || v.Component != "inv2" {
		t.Errorf("label 11 = %v, want inv2.delta", v)
	}
}

func rank(t *testing.T, a mat.Matrix) int {
	t.Helper()
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		t.Fatal("SVD failed")
	}
	return svd.Rank(1e-12)
}

func TestAssemble_ReferenceRankDeficiency(t *testing.T) {
	top := build(t, twoDroopLoad, "inv1")
	op, err := top.Solve(powerflow.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := Assemble(top, linearizeAll(t, top, op))
	if err != nil {
		t.Fatal(err)
	}

	n, _ := sys.Full.Dims()
	if got := rank(t, sys.Full); got != n-1 {
		t.Errorf("full rank = %d, want %d", got, n-1)
	}
	if got := rank(t, sys.A); got != n-1 {
		t.Errorf("reduced rank = %d, want %d", got, n-1)
	}
}

func TestOperatingPointAt_CopiesSolution(t *testing.T) {
	top := build(t, droopLineLoad, "inv1")
	x := top.InitialGuess()
	op, err := top.OperatingPointAt(x)
	if err != nil {
		t.Fatal(err)
	}
	x[0] = 42
	if op.Solution[0] == 42 {
		t.Error("operating point shares the caller's vector")
	}
}

func TestAssemble_StiffReference(t *testing.T) {
	top := build(t, droopGrid, "grid")
	op, err := top.Solve(powerflow.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := Assemble(top, linearizeAll(t, top, op))
	if err != nil {
		t.Fatal(err)
	}
	if sys.Removed != -1 {
		t.Errorf("removed = %d, want -1", sys.Removed)
	}
	if r, _ := sys.A.Dims(); r != 13 {
		t.Errorf("matrix is %dx%[1]d, want 13x13", r)
	}
}

func TestCompose_MatrixCount(t *testing.T) {
	top := build(t, droopLineLoad, "inv1")
	_, _, err := Compose(top, nil)
	if !errors.Is(err, linsys.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
