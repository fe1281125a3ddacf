package sweep

import (
	"context"

	"github.com/san-kum/gridmodes/internal/config"
)

// LocusPoint holds the eigenvalues at one parameter value.
type LocusPoint struct {
	Param       float64
	Eigenvalues []complex128
	MaxRealPart float64
	Stable      bool
	Converged   bool
	Err         error
}

// Locus tracks the eigenvalues of base while one parameter moves from min
// to max in steps values.
func Locus(ctx context.Context, base *config.Case, component, key string, min, max float64, steps, workers int) ([]LocusPoint, error) {
	g := NewGrid(Axis{Component: component, Key: key, Values: Linspace(min, max, steps)})
	s, err := Run(ctx, base, g, workers)
	if err != nil {
		return nil, err
	}

	out := make([]LocusPoint, len(s.Points))
	for i, p := range s.Points {
		lp := LocusPoint{Param: p.Values[0], Err: p.Err}
		if p.Result != nil {
			lp.Eigenvalues = p.Result.Eigenvalues
			lp.MaxRealPart = p.Result.MaxRealPart
			lp.Stable = p.Result.Stable
			lp.Converged = p.Result.Converged
		}
		out[i] = lp
	}
	return out, nil
}

// Crossing returns the first parameter value at which the locus turns
// unstable, and false when it never does.
func Crossing(locus []LocusPoint) (float64, bool) {
	for i, p := range locus {
		if p.Err != nil || p.Stable {
			continue
		}
		if i > 0 && locus[i-1].Err == nil && locus[i-1].Stable {
			return p.Param, true
		}
	}
	return 0, false
}
