package report

import (
	"encoding/json"
	"io"

	"github.com/san-kum/gridmodes/internal/linsys"
	"github.com/san-kum/gridmodes/internal/stability"
)

// Complex is a JSON-friendly complex number.
type Complex struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func toComplex(z complex128) Complex {
	return Complex{Re: real(z), Im: imag(z)}
}

type ParticipationRecord struct {
	State     int     `json:"state"`
	Name      string  `json:"name"`
	Owner     string  `json:"owner"`
	Component Complex `json:"component"`
	Magnitude float64 `json:"magnitude"`
}

type ModeRecord struct {
	Index         int                   `json:"index"`
	Eigenvalue    Complex               `json:"eigenvalue"`
	FrequencyHz   float64               `json:"frequency_hz"`
	DampingRatio  float64               `json:"damping_ratio"`
	Dominant      string                `json:"dominant"`
	Participation []ParticipationRecord `json:"participation"`
}

// Record is the exported form of a stability result.
type Record struct {
	Case            string            `json:"case"`
	Converged       bool              `json:"converged"`
	Stable          bool              `json:"stable"`
	MaxRealPart     float64           `json:"max_real_part"`
	MinDampingRatio float64           `json:"min_damping_ratio"`
	Frequency       float64           `json:"frequency"`
	Variables       []linsys.Variable `json:"variables"`
	Removed         *linsys.Variable  `json:"removed,omitempty"`
	SteadyState     []float64         `json:"steady_state"`
	Asys            [][]float64       `json:"asys"`
	Eigenvalues     []Complex         `json:"eigenvalues"`
	Modes           []ModeRecord      `json:"modes"`
}

func NewRecord(res *stability.Result) Record {
	rec := Record{
		Case:            res.Case,
		Converged:       res.Converged,
		Stable:          res.Stable,
		MaxRealPart:     res.MaxRealPart,
		MinDampingRatio: res.MinDampingRatio,
		Variables:       res.Variables,
		SteadyState:     res.SteadyState,
	}
	if res.OperatingPoint != nil {
		rec.Frequency = res.OperatingPoint.W
	}
	if res.Removed.Name != "" {
		removed := res.Removed
		rec.Removed = &removed
	}

	n, _ := res.Asys.Dims()
	rec.Asys = make([][]float64, n)
	for i := range rec.Asys {
		rec.Asys[i] = append([]float64(nil), res.Asys.RawRowView(i)...)
	}

	rec.Eigenvalues = make([]Complex, len(res.Eigenvalues))
	for i, l := range res.Eigenvalues {
		rec.Eigenvalues[i] = toComplex(l)
	}

	rec.Modes = make([]ModeRecord, len(res.Modes))
	for i, m := range res.Modes {
		mr := ModeRecord{
			Index:         m.Index,
			Eigenvalue:    toComplex(m.Eigenvalue()),
			FrequencyHz:   m.FrequencyHz,
			DampingRatio:  m.DampingRatio,
			Dominant:      m.DominantText,
			Participation: make([]ParticipationRecord, len(m.Participation)),
		}
		for j, p := range m.Participation {
			mr.Participation[j] = ParticipationRecord{
				State:     p.State,
				Name:      p.Name,
				Owner:     p.Owner,
				Component: toComplex(p.Component),
				Magnitude: p.Magnitude,
			}
		}
		rec.Modes[i] = mr
	}
	return rec
}

// WriteJSON encodes res as indented JSON.
func WriteJSON(w io.Writer, res *stability.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewRecord(res))
}
