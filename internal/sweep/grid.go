package sweep

import (
	"fmt"
)

// Axis varies one parameter of one component.
type Axis struct {
	Component string    `json:"component"`
	Key       string    `json:"key"`
	Values    []float64 `json:"values"`
}

func (a Axis) String() string {
	return fmt.Sprintf("%s.%s", a.Component, a.Key)
}

// Grid is the cartesian product of its axes. The last axis varies fastest.
type Grid struct {
	Axes []Axis
}

func NewGrid(axes ...Axis) *Grid {
	return &Grid{Axes: axes}
}

// Size returns the number of grid points.
func (g *Grid) Size() int {
	if len(g.Axes) == 0 {
		return 0
	}
	n := 1
	for _, a := range g.Axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates the grid, one value per axis.
func (g *Grid) Points() [][]float64 {
	points := make([][]float64, 0, g.Size())
	if len(g.Axes) == 0 {
		return points
	}
	g.enumerate(0, make([]float64, 0, len(g.Axes)), &points)
	return points
}

func (g *Grid) enumerate(depth int, current []float64, out *[][]float64) {
	if depth == len(g.Axes) {
		p := make([]float64, len(current))
		copy(p, current)
		*out = append(*out, p)
		return
	}
	for _, v := range g.Axes[depth].Values {
		g.enumerate(depth+1, append(current, v), out)
	}
}

// Linspace returns steps evenly spaced values from min to max inclusive.
func Linspace(min, max float64, steps int) []float64 {
	if steps <= 1 {
		return []float64{min}
	}
	step := (max - min) / float64(steps-1)
	out := make([]float64, steps)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	out[steps-1] = max
	return out
}
