package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/gridmodes/internal/config"
	"github.com/san-kum/gridmodes/internal/report"
	"github.com/san-kum/gridmodes/internal/stability"
	"github.com/san-kum/gridmodes/internal/sweep"
)

var (
	logLevel   string
	configFile string
	modeLimit  int
	showPF     int
	showPlot   bool
	axes       []string
	workers    int
	param      string
	paramMin   float64
	paramMax   float64
	steps      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridmodes",
		Short: "small-signal stability of inverter and machine networks",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "case file path (yaml)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "analyze a case",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCase,
	}
	runCmd.Flags().IntVar(&modeLimit, "modes", 20, "number of modes to list (0 for all)")
	runCmd.Flags().IntVar(&showPF, "pf", 0, "print participation factors of the N least damped modes")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot eigenvalue real parts")

	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "list built-in cases",
		RunE:  listCases,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [preset] [path]",
		Short: "write a built-in case to a yaml file",
		Args:  cobra.ExactArgs(2),
		RunE:  dumpCase,
	}

	exportCmd := &cobra.Command{
		Use:   "export [preset]",
		Short: "analyze a case and print the result as json",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCase,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "analyze a case over a parameter grid",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "grid axis component.key=min:max:steps (repeatable)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for GOMAXPROCS)")

	locusCmd := &cobra.Command{
		Use:   "locus [preset]",
		Short: "track the eigenvalues while one parameter moves",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLocus,
	}
	locusCmd.Flags().StringVar(&param, "param", "", "parameter as component.key")
	locusCmd.Flags().Float64Var(&paramMin, "min", 0, "start value")
	locusCmd.Flags().Float64Var(&paramMax, "max", 1, "end value")
	locusCmd.Flags().IntVar(&steps, "steps", 20, "number of values")
	locusCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for GOMAXPROCS)")
	_ = locusCmd.MarkFlagRequired("param")

	rootCmd.AddCommand(runCmd, casesCmd, dumpCmd, exportCmd, sweepCmd, locusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadCase resolves the case from --config or a preset name, defaulting
// to the droop inverter against an infinite bus.
func loadCase(args []string) (*config.Case, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if len(args) == 0 {
		return config.DefaultCase(), nil
	}
	c := config.GetPreset(args[0])
	if c == nil {
		return nil, fmt.Errorf("unknown case %q (see 'gridmodes cases')", args[0])
	}
	return c, nil
}

func runCase(cmd *cobra.Command, args []string) error {
	c, err := loadCase(args)
	if err != nil {
		return err
	}
	res, err := stability.Analyze(*c)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary(res))
	fmt.Println()
	if err := report.ModeTable(os.Stdout, res, modeLimit); err != nil {
		return err
	}

	for i, m := range report.SortedModes(res.Modes) {
		if i >= showPF {
			break
		}
		fmt.Printf("\nmode %d (%.4f%+.4fi)\n", m.Index, m.Real, m.Imag)
		if err := report.ParticipationTable(os.Stdout, m); err != nil {
			return err
		}
	}

	if showPlot {
		fmt.Println()
		fmt.Println(report.RealParts(res))
	}
	return nil
}

func listCases(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREFERENCE\tCOMPONENTS")

	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		parts := make([]string, len(c.Components))
		for i, comp := range c.Components {
			parts[i] = fmt.Sprintf("%s(%s)", comp.Label, comp.Class)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, c.Reference, strings.Join(parts, " "))
	}
	return w.Flush()
}

func dumpCase(cmd *cobra.Command, args []string) error {
	c := config.GetPreset(args[0])
	if c == nil {
		return fmt.Errorf("unknown case %q", args[0])
	}
	if err := config.Save(args[1], c); err != nil {
		return err
	}
	fmt.Printf("wrote %s to %s\n", c.Name, args[1])
	return nil
}

func exportCase(cmd *cobra.Command, args []string) error {
	c, err := loadCase(args)
	if err != nil {
		return err
	}
	res, err := stability.Analyze(*c)
	if err != nil {
		return err
	}
	return report.WriteJSON(os.Stdout, res)
}

// parseAxis reads component.key=min:max:steps.
func parseAxis(s string) (sweep.Axis, error) {
	name, rng, ok := strings.Cut(s, "=")
	if !ok {
		return sweep.Axis{}, fmt.Errorf("axis %q: want component.key=min:max:steps", s)
	}
	component, key, err := splitParam(name)
	if err != nil {
		return sweep.Axis{}, err
	}
	fields := strings.Split(rng, ":")
	if len(fields) != 3 {
		return sweep.Axis{}, fmt.Errorf("axis %q: want min:max:steps", s)
	}
	lo, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return sweep.Axis{}, fmt.Errorf("axis %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return sweep.Axis{}, fmt.Errorf("axis %q: %w", s, err)
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil {
		return sweep.Axis{}, fmt.Errorf("axis %q: %w", s, err)
	}
	return sweep.Axis{Component: component, Key: key, Values: sweep.Linspace(lo, hi, n)}, nil
}

func splitParam(s string) (string, string, error) {
	component, key, ok := strings.Cut(s, ".")
	if !ok || component == "" || key == "" {
		return "", "", fmt.Errorf("parameter %q: want component.key", s)
	}
	return component, key, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	c, err := loadCase(args)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	parsed := make([]sweep.Axis, 0, len(axes))
	for _, a := range axes {
		ax, err := parseAxis(a)
		if err != nil {
			return err
		}
		parsed = append(parsed, ax)
	}

	s, err := sweep.Run(context.Background(), c, sweep.NewGrid(parsed...), workers)
	if err != nil {
		return err
	}

	fmt.Printf("sweep %s: %d points\n\n", s.ID, len(s.Points))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(parsed)+3)
	for _, ax := range parsed {
		header = append(header, strings.ToUpper(ax.String()))
	}
	header = append(header, "CONVERGED", "MAX RE", "MIN DAMPING", "STABLE")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, p := range s.Points {
		row := make([]string, 0, len(header))
		for _, v := range p.Values {
			row = append(row, strconv.FormatFloat(v, 'g', 6, 64))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error())
		} else {
			row = append(row,
				strconv.FormatBool(p.Result.Converged),
				fmt.Sprintf("%.4f", p.Result.MaxRealPart),
				fmt.Sprintf("%.4f", p.Result.MinDampingRatio),
				strconv.FormatBool(p.Result.Stable),
			)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := s.MostStable(); ok {
		fmt.Printf("\nmost stable point: %v (max Re %.4f)\n", best.Values, best.Result.MaxRealPart)
	}
	return nil
}

func runLocus(cmd *cobra.Command, args []string) error {
	c, err := loadCase(args)
	if err != nil {
		return err
	}
	component, key, err := splitParam(param)
	if err != nil {
		return err
	}

	locus, err := sweep.Locus(context.Background(), c, component, key, paramMin, paramMax, steps, workers)
	if err != nil {
		return err
	}

	fmt.Println(report.Locus(locus, fmt.Sprintf("max Re(λ) vs %s", param)))
	if v, ok := sweep.Crossing(locus); ok {
		fmt.Printf("\nloses stability at %s = %g\n", param, v)
	} else {
		fmt.Println("\nno stability boundary in range")
	}
	return nil
}
