package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/gridmodes/internal/modal"
	"github.com/san-kum/gridmodes/internal/stability"
)

// Summary is the headline block of a result.
func Summary(res *stability.Result) string {
	n, _ := res.Asys.Dims()
	lines := []string{
		Title.Render(res.Case),
		fmt.Sprintf("%s %s", Label.Render("verdict:"), Verdict(res.Stable)),
		fmt.Sprintf("%s %s", Label.Render("states:"), Value.Render(fmt.Sprintf("%d (of %d)", n, res.FullStates))),
		fmt.Sprintf("%s %s", Label.Render("max Re(λ):"), Value.Render(fmt.Sprintf("%.4f", res.MaxRealPart))),
		fmt.Sprintf("%s %s", Label.Render("min damping:"), Value.Render(fmt.Sprintf("%.4f", res.MinDampingRatio))),
		fmt.Sprintf("%s %s", Label.Render("frequency:"), Value.Render(fmt.Sprintf("%.6f pu", res.OperatingPoint.W))),
	}
	if !res.Converged {
		lines = append(lines, Warning.Render("power flow did not converge"))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// SortedModes returns the modes ordered from least to most damped.
func SortedModes(modes []modal.Mode) []modal.Mode {
	out := append([]modal.Mode(nil), modes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Real > out[j].Real
	})
	return out
}

// ModeTable writes up to limit modes, least damped first. limit <= 0
// writes every mode.
func ModeTable(w io.Writer, res *stability.Result, limit int) error {
	modes := SortedModes(res.Modes)
	if limit > 0 && len(modes) > limit {
		modes = modes[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tRE\tIM\tFREQ(Hz)\tDAMPING\tDOMINANT")
	for _, m := range modes {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.3f\t%.4f\t%s\n",
			m.Index,
			m.Real,
			m.Imag,
			m.FrequencyHz,
			m.DampingRatio,
			m.DominantText,
		)
	}
	return tw.Flush()
}

// ParticipationTable writes the retained participation factors of a mode.
func ParticipationTable(w io.Writer, m modal.Mode) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tNAME\tOWNER\tMAGNITUDE")
	for _, p := range m.Participation {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\n", p.State, p.Name, p.Owner, p.Magnitude)
	}
	return tw.Flush()
}
