package report

import (
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gridmodes/internal/stability"
	"github.com/san-kum/gridmodes/internal/sweep"
)

// RealParts plots the eigenvalue real parts in descending order.
func RealParts(res *stability.Result) string {
	data := make([]float64, len(res.Eigenvalues))
	for i, l := range res.Eigenvalues {
		data[i] = real(l)
	}
	if len(data) == 0 {
		return ""
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(data)))
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("eigenvalue real parts (descending)"),
	)
}

// Locus plots the maximum real part against the swept parameter. Failed
// points are left out.
func Locus(points []sweep.LocusPoint, caption string) string {
	data := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Err == nil {
			data = append(data, p.MaxRealPart)
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}
