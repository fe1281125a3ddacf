package stability

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/config"
	"github.com/san-kum/gridmodes/internal/device"
	"github.com/san-kum/gridmodes/internal/linearize"
	"github.com/san-kum/gridmodes/internal/linsys"
	"github.com/san-kum/gridmodes/internal/modal"
	"github.com/san-kum/gridmodes/internal/network"
	"github.com/san-kum/gridmodes/internal/powerflow"
)

type Result struct {
	Case string

	// Asys is the reduced system matrix labelled by Variables.
	Asys      *mat.Dense
	Variables []linsys.Variable
	// FullStates is the state count before reduction. Removed is the
	// reference angle deleted from the full model; empty when the
	// reference has no states.
	FullStates int
	Removed    linsys.Variable

	// SteadyState is the concatenated device state at the operating point.
	SteadyState    []float64
	OperatingPoint *network.OperatingPoint

	Eigenvalues     []complex128
	Modes           []modal.Mode
	MaxRealPart     float64
	MinDampingRatio float64
	Stable          bool
	Converged       bool
}

// Build instantiates the device models of c and validates the topology.
func Build(c config.Case) (*network.Topology, error) {
	wbase := c.WBase
	if wbase <= 0 {
		wbase = config.DefaultWBase
	}

	comps := make([]network.Component, 0, len(c.Components))
	for _, cc := range c.Components {
		m, err := device.New(device.Class(cc.Class), cc.Label, linsys.ParameterSet(cc.Params), wbase)
		if err != nil {
			return nil, fmt.Errorf("stability: build %s: %w", cc.Label, err)
		}
		comps = append(comps, network.Component{Model: m, Bus: cc.Bus, From: cc.From, To: cc.To})
	}
	return network.NewTopology(comps, c.Reference, c.Rx)
}

// Analyze runs the full pipeline on c. An unconverged power flow is
// reported through Result.Converged; the matrices are still built from the
// last iterate.
func Analyze(c config.Case) (*Result, error) {
	logger := slog.Default().With(
		slog.String("component", "stability"),
		slog.String("case", c.Name),
	)

	top, err := Build(c)
	if err != nil {
		return nil, err
	}

	op, err := top.Solve(powerflow.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("stability: operating point: %w", err)
	}
	logger.Debug("power flow finished",
		slog.Bool("converged", op.Converged),
		slog.Int("iterations", op.Iterations),
		slog.Float64("residual", op.ResidualNorm),
		slog.Float64("w", op.W),
	)
	if !op.Converged {
		logger.Warn("power flow did not converge",
			slog.Int("iterations", op.Iterations),
			slog.Float64("residual", op.ResidualNorm),
		)
	}

	mats := make([]*linsys.StateMatrix, len(top.Components))
	for k, comp := range top.Components {
		sm, err := linearize.Linearize(comp.Model, op.Points[k], k == top.Reference)
		if err != nil {
			return nil, fmt.Errorf("stability: linearize %s: %w", comp.Model.Label(), err)
		}
		mats[k] = sm
	}
	logger.Debug("components linearized", slog.Int("components", len(mats)), slog.Int("states", top.States()))

	sys, err := network.Assemble(top, mats)
	if err != nil {
		return nil, fmt.Errorf("stability: assemble: %w", err)
	}
	if !linsys.IsFinite(sys.A) {
		return nil, fmt.Errorf("stability: case %s: %w", c.Name, linsys.ErrIllPosed)
	}
	n, _ := sys.A.Dims()
	logger.Debug("system assembled", slog.Int("states", n), slog.Int("removed", sys.Removed))

	// Zero keeps every participation factor; only an unusable value falls
	// back to the default.
	threshold := c.Threshold
	if threshold < 0 || math.IsNaN(threshold) {
		threshold = config.DefaultThreshold
	}
	an, err := modal.Analyze(sys.A, sys.Variables, threshold)
	if err != nil {
		return nil, fmt.Errorf("stability: modal analysis: %w", err)
	}
	logger.Debug("modal analysis finished",
		slog.Int("modes", len(an.Modes)),
		slog.Float64("max_real", an.MaxRealPart),
		slog.Float64("min_damping", an.MinDampingRatio),
	)

	res := &Result{
		Case:            c.Name,
		Asys:            sys.A,
		Variables:       sys.Variables,
		FullStates:      top.States(),
		SteadyState:     op.X0,
		OperatingPoint:  op,
		Eigenvalues:     an.Eigenvalues,
		Modes:           an.Modes,
		MaxRealPart:     an.MaxRealPart,
		MinDampingRatio: an.MinDampingRatio,
		Stable:          an.Stable,
		Converged:       op.Converged,
	}
	if sys.Removed >= 0 {
		res.Removed = sys.FullVariables[sys.Removed]
	}
	return res, nil
}
