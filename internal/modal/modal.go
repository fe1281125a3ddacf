package modal

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/linsys"
)

// ParticipationFactor is one state's share in a mode.
type ParticipationFactor struct {
	State     int
	Component complex128
	Magnitude float64
	Name      string
	Owner     string
}

type Mode struct {
	// Index is the eigenvalue's position in Analysis.Eigenvalues.
	Index        int
	Real         float64
	Imag         float64
	FrequencyHz  float64
	DampingRatio float64

	// Participation holds the states at or above the threshold in state
	// order.
	Participation []ParticipationFactor
	// Dominant lists the owners of the retained states in first-seen order.
	Dominant     []string
	DominantText string
}

// Eigenvalue returns the mode's eigenvalue.
func (m Mode) Eigenvalue() complex128 { return complex(m.Real, m.Imag) }

// Oscillatory reports whether the mode has a non-zero frequency.
func (m Mode) Oscillatory() bool { return m.Imag > 0 }

type Analysis struct {
	Eigenvalues     []complex128
	Modes           []Mode
	MaxRealPart     float64
	MinDampingRatio float64
	Stable          bool
}

// Analyze decomposes a. vars labels the rows of a; threshold is the
// participation magnitude a state needs to be retained.
func Analyze(a mat.Matrix, vars []linsys.Variable, threshold float64) (*Analysis, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: state matrix is %dx%d", linsys.ErrDimensionMismatch, r, c)
	}
	if len(vars) != r {
		return nil, fmt.Errorf("%w: %d labels for %d states", linsys.ErrDimensionMismatch, len(vars), r)
	}
	if !linsys.IsFinite(a) {
		return nil, linsys.ErrIllPosed
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, fmt.Errorf("modal: eigendecomposition failed: %w", linsys.ErrIllPosed)
	}
	values := eig.Values(nil)
	var vectors mat.CDense
	eig.VectorsTo(&vectors)

	res := &Analysis{
		Eigenvalues:     values,
		MaxRealPart:     math.Inf(-1),
		MinDampingRatio: 1,
	}
	for k, lambda := range values {
		res.MaxRealPart = math.Max(res.MaxRealPart, real(lambda))
		if imag(lambda) < 0 {
			continue
		}
		m := newMode(k, lambda)
		m.Participation = participation(&vectors, k, vars, threshold)
		m.Dominant = owners(m.Participation)
		m.DominantText = strings.Join(m.Dominant, ", ")

		if m.Oscillatory() {
			res.MinDampingRatio = math.Min(res.MinDampingRatio, m.DampingRatio)
		}
		res.Modes = append(res.Modes, m)
	}
	res.Stable = res.MaxRealPart < 0
	return res, nil
}

func newMode(k int, lambda complex128) Mode {
	m := Mode{
		Index:       k,
		Real:        real(lambda),
		Imag:        imag(lambda),
		FrequencyHz: math.Abs(imag(lambda)) / (2 * math.Pi),
	}
	if mag := cmplx.Abs(lambda); mag > 0 {
		m.DampingRatio = -real(lambda) / mag
	}
	return m
}

func participation(vectors *mat.CDense, k int, vars []linsys.Variable, threshold float64) []ParticipationFactor {
	var pf []ParticipationFactor
	for i, v := range vars {
		c := vectors.At(i, k)
		mag := cmplx.Abs(c)
		if mag < threshold {
			continue
		}
		pf = append(pf, ParticipationFactor{
			State:     i,
			Component: c,
			Magnitude: mag,
			Name:      v.Name,
			Owner:     v.Component,
		})
	}
	return pf
}

func owners(pf []ParticipationFactor) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range pf {
		if !seen[p.Owner] {
			seen[p.Owner] = true
			out = append(out, p.Owner)
		}
	}
	return out
}
