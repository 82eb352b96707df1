package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/optim"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	dt         float64
	t0         float64
	tn         float64
	solvers    []string
	parallel   bool
	save       bool
	configFile string
	preset     string
	livePreset string
	series     string
	body       int
	solver     string
	svgSolver  string
	span       float64
	outFile    string
	format     string
	steps      []float64
	tolerance  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orbitsim",
		Short:         "gravitational n-body integrator comparison",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate a body set with every selected scheme",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "step size in days")
	runCmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "start time in days")
	runCmd.Flags().Float64Var(&tn, "tn", config.DefaultTN, "end time in days")
	runCmd.Flags().StringSliceVar(&solvers, "solvers", nil, "schemes to run (default all)")
	runCmd.Flags().BoolVar(&parallel, "parallel", true, "run schemes concurrently")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under --data")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", viz.SeriesEnergy, "energy, angular, area or orbit")
	plotCmd.Flags().IntVar(&body, "body", 1, "body index for the orbit series")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&format, "format", "json", "json or svg")
	exportCmd.Flags().StringVar(&svgSolver, "solver", "", "solver drawn by svg (default first stored)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "find the largest step size within an energy drift tolerance",
		Args:  cobra.NoArgs,
		RunE:  tuneStep,
	}
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().Float64SliceVar(&steps, "steps", []float64{5, 10, 20, 30, 60, 120}, "step sizes to try in days")
	tuneCmd.Flags().StringSliceVar(&solvers, "solvers", nil, "schemes to try (default all)")
	tuneCmd.Flags().Float64Var(&tolerance, "tol", 1e-4, "maximum relative energy drift")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-20s %d bodies, %g days, dt %g\n", name, len(p.Bodies), p.TN-p.T0, p.Dt)
			}
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate orbits in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&livePreset, "preset", "jovian-period", "use preset configuration")
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&solver, "solver", "stormer-verlet", "starting scheme")
	liveCmd.Flags().Float64Var(&span, "span", 120, "days advanced per frame")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, tuneCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command, preset string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
	}
	if flags.Changed("tn") {
		cfg.TN = tn
	}
	if flags.Changed("solvers") {
		cfg.Solvers = solvers
	}
	if flags.Changed("parallel") {
		cfg.Parallel = parallel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulator(cfg *config.Config) (*sim.Simulator, error) {
	set, err := cfg.BodySet()
	if err != nil {
		return nil, err
	}
	return sim.New(set, cfg.SimConfig(), sim.WithLogger(slog.Default()))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}
	schemes, err := cfg.Schemes()
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(viz.RenderHeader(s))
	results, err := s.Run(ctx, schemes...)
	if err != nil {
		return err
	}

	fmt.Println(viz.RenderSummary(results))
	graph, err := viz.PlotSeries(results, viz.SeriesEnergy, viz.PlotOptions{})
	if err != nil {
		return err
	}
	fmt.Println(graph)

	if !save {
		return nil
	}

	name := preset
	if name == "" {
		name = "custom"
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.NewMetadata(name, s, results), results)
	if err != nil {
		return err
	}
	slog.Info("run saved", "id", runID, "dir", st.Dir())
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tBODIES\tSPAN\tDT\tSOLVERS")

	for _, run := range runs {
		names := make([]string, len(run.Solvers))
		for i, s := range run.Solvers {
			names[i] = s.Solver
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%gd\t%gd\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(run.BodyNames(), ","),
			run.TN-run.T0,
			run.Dt,
			strings.Join(names, ","),
		)
	}

	return w.Flush()
}

func loadResults(st *storage.Store, meta *storage.RunMetadata) ([]*sim.Result, error) {
	results := make([]*sim.Result, 0, len(meta.Solvers))
	for _, s := range meta.Solvers {
		res, err := st.LoadResult(meta.ID, s.Solver)
		if err != nil {
			return nil, err
		}
		if res.Len() == 0 {
			return nil, fmt.Errorf("%s/%s: no data to plot", meta.ID, s.Solver)
		}
		results = append(results, res)
	}
	return results, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	results, err := loadResults(st, meta)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("bodies: %s\n", strings.Join(meta.BodyNames(), ", "))
	fmt.Printf("samples: %d\n\n", results[0].Len())

	graph, err := viz.PlotSeries(results, series, viz.PlotOptions{Body: body})
	if err != nil {
		return err
	}
	fmt.Println(graph)

	if series != viz.SeriesOrbit {
		return nil
	}

	fmt.Println("\nperiod estimates:")
	names := meta.BodyNames()
	for _, res := range results {
		period, err := analysis.OrbitalPeriod(res, body)
		if errors.Is(err, analysis.ErrTooShort) || errors.Is(err, analysis.ErrNoPeak) {
			fmt.Printf("  %-18s %s: %v\n", res.Solver, names[body], err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("  %-18s %s: %.1f days\n", res.Solver, names[body], period)
	}

	if len(results) > 1 {
		sep, err := analysis.Divergence(results[0], results[len(results)-1])
		if err != nil {
			return err
		}
		rate, err := analysis.GrowthRate(sep, results[0].Times)
		if err == nil && !math.IsNaN(rate) {
			fmt.Printf("\n%s vs %s: final separation %.3e AU, growth %.3e /day\n",
				results[0].Solver, results[len(results)-1].Solver, sep[len(sep)-1], rate)
		}
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	results, err := loadResults(st, meta)
	if err != nil {
		return err
	}

	var write func(w io.Writer) error
	switch format {
	case "json":
		write = func(w io.Writer) error { return storage.ExportJSON(w, *meta, results) }
	case "svg":
		res := results[0]
		if svgSolver != "" {
			if res, err = st.LoadResult(meta.ID, svgSolver); err != nil {
				return err
			}
		}
		write = func(w io.Writer) error { return export.OrbitsSVG(w, res, meta.BodyNames(), 600) }
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if outFile == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func tuneStep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, preset)
	if err != nil {
		return err
	}
	schemes, err := cfg.Schemes()
	if err != nil {
		return err
	}
	set, err := cfg.BodySet()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	build := func(dt float64) (*sim.Simulator, error) {
		sc := cfg.SimConfig()
		sc.Dt = dt
		return sim.New(set, sc, sim.WithLogger(slog.Default()))
	}
	trials, err := optim.NewStepSearch(steps).Search(ctx, build, schemes...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSOLVER\tMAX dE\tMAX dL\tELAPSED")
	for _, t := range trials {
		if t.Err != nil {
			fmt.Fprintf(w, "%g\t%s\tfailed: %v\t\t\n", t.Dt, t.Scheme, t.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%s\t%.3e\t%.3e\t%v\n", t.Dt, t.Scheme, t.MaxEnergyDrift, t.AngularMomentumDrift, t.Elapsed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best := optim.Best(trials, tolerance)
	fmt.Printf("\nlargest step within %.1e:\n", tolerance)
	for _, scheme := range schemes {
		if dt, ok := best[scheme]; ok {
			fmt.Printf("  %-18s %g d\n", scheme, dt)
		} else {
			fmt.Printf("  %-18s none\n", scheme)
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, livePreset)
	if err != nil {
		return err
	}
	scheme, err := integrators.ParseScheme(solver)
	if err != nil {
		return err
	}
	// No logger: writes to stderr would corrupt the alt screen.
	set, err := cfg.BodySet()
	if err != nil {
		return err
	}
	s, err := sim.New(set, cfg.SimConfig())
	if err != nil {
		return err
	}

	steps := int(span / cfg.Dt)
	m := viz.NewModel(s, steps).WithScheme(scheme)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
