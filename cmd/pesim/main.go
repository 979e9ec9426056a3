package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/pesim/internal/automation"
	"github.com/san-kum/pesim/internal/config"
	"github.com/san-kum/pesim/internal/pe"
	"github.com/san-kum/pesim/internal/storage"
	"github.com/san-kum/pesim/internal/tl"
	"github.com/san-kum/pesim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	// run
	configFile     string
	preset         string
	frequency      float64
	frequencies    []float64
	sourceDepth    float64
	receiverDepths []float64
	radialRange    float64
	angularBin     float64
	seafloorDepth  float64
	starter        string
	vertical       bool
	ignoreGradient bool
	workers        int
	timeout        time.Duration
	verbose        bool
	// plot / map
	depthIndex int
	angle      float64
	threshold  float64
	theme      string
	mapSize    int
	// export
	outPath string
	// automation
	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int
	numTrials int
	speedFrac float64
	lossFrac  float64
	seed      int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pesim",
		Short: "parabolic equation transmission loss calculator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pesim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "compute transmission loss around a source",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCalculation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&frequency, "freq", config.DefaultFrequency, "frequency (Hz)")
	runCmd.Flags().Float64SliceVar(&frequencies, "sweep", nil, "run several frequencies concurrently")
	runCmd.Flags().Float64Var(&sourceDepth, "source-depth", config.DefaultSourceDepth, "source depth (m)")
	runCmd.Flags().Float64SliceVar(&receiverDepths, "receiver-depth", []float64{config.DefaultReceiverDepth}, "receiver depths (m)")
	runCmd.Flags().Float64Var(&radialRange, "range", config.DefaultRadialRange, "radial range (m)")
	runCmd.Flags().Float64Var(&angularBin, "angular-bin", config.DefaultAngularBin, "angular bin (deg)")
	runCmd.Flags().Float64Var(&seafloorDepth, "depth", config.DefaultDepth, "flat seafloor depth (m)")
	runCmd.Flags().StringVar(&starter, "starter", pe.Thomson.String(), "starter method (GAUSSIAN, GREENE, THOMSON)")
	runCmd.Flags().BoolVar(&vertical, "vertical", false, "keep the vertical slice")
	runCmd.Flags().BoolVar(&ignoreGradient, "ignore-gradient", false, "treat the bathymetry gradient as zero")
	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent sweep runs (0 = GOMAXPROCS)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "abort after this long")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print grid and progress")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot transmission loss against range",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&depthIndex, "depth-index", 0, "receiver depth index")
	plotCmd.Flags().Float64Var(&angle, "angle", 0, "bearing (deg, counter-clockwise from east)")

	mapCmd := &cobra.Command{
		Use:   "map [run_id]",
		Short: "plan view of the loss around the source",
		Args:  cobra.ExactArgs(1),
		RunE:  mapRun,
	}
	mapCmd.Flags().IntVar(&depthIndex, "depth-index", 0, "receiver depth index")
	mapCmd.Flags().Float64Var(&threshold, "threshold", 0, "footprint threshold in dB (0 = heatmap)")
	mapCmd.Flags().StringVar(&theme, "theme", viz.ThemeOcean.Name, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	mapCmd.Flags().IntVar(&mapSize, "size", 40, "map size in cells")

	browseCmd := &cobra.Command{
		Use:   "browse [run_id]",
		Short: "browse a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  browseRun,
	}
	browseCmd.Flags().Float64Var(&threshold, "threshold", 70, "initial footprint threshold (dB)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFREQ\tOCEAN\tDEPTH\tRANGE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				freq := fmt.Sprintf("%g Hz", p.Frequency)
				if len(p.Frequencies) > 0 {
					freq = fmt.Sprintf("%v Hz", p.Frequencies)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%g m\t%g m\n", name, freq, p.Ocean.Kind, p.Ocean.Depth, p.Grid.RadialRange)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pesim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	paramSweepCmd := &cobra.Command{
		Use:   "param-sweep",
		Short: "sweep one parameter and summarise the loss",
		RunE:  runParamSweep,
	}
	paramSweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	paramSweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	paramSweepCmd.Flags().StringVar(&paramName, "param", "seafloor_loss", "parameter ("+strings.Join(automation.ParamNames(), ", ")+")")
	paramSweepCmd.Flags().Float64Var(&paramMin, "min", 0, "first value")
	paramSweepCmd.Flags().Float64Var(&paramMax, "max", 1, "last value")
	paramSweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb the seafloor and report the spread of the loss",
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	monteCarloCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	monteCarloCmd.Flags().IntVar(&numTrials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&speedFrac, "speed-frac", 0.05, "seafloor sound speed perturbation (fraction)")
	monteCarloCmd.Flags().Float64Var(&lossFrac, "loss-frac", 0.5, "seafloor loss perturbation (fraction)")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, mapCmd, browseCmd, exportCmd, presetsCmd, initCmd, scenarioCmd, paramSweepCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
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
	if flags.Changed("freq") {
		cfg.Frequency = frequency
	}
	if flags.Changed("sweep") {
		cfg.Frequencies = frequencies
	}
	if flags.Changed("source-depth") {
		cfg.SourceDepth = sourceDepth
	}
	if flags.Changed("receiver-depth") {
		cfg.ReceiverDepths = receiverDepths
	}
	if flags.Changed("range") {
		cfg.Grid.RadialRange = radialRange
	}
	if flags.Changed("angular-bin") {
		cfg.Grid.AngularBin = angularBin
	}
	if flags.Changed("depth") {
		cfg.Ocean.Depth = seafloorDepth
	}
	if flags.Changed("starter") {
		cfg.Starter.Method = starter
	}
	if flags.Changed("vertical") {
		cfg.VerticalSlice = vertical
	}
	if flags.Changed("ignore-gradient") {
		cfg.IgnoreBathyGradient = ignoreGradient
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCalculation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.CalculatorOptions()
	if err != nil {
		return err
	}

	name := cfg.Name
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name = "run"
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	var results []*tl.Result
	if len(cfg.Frequencies) > 0 {
		fmt.Printf("sweeping %s over %v Hz...\n", name, cfg.Frequencies)
		results, err = tl.Sweep(ctx, opts, cfg.Frequencies, cfg.SourceDepth, cfg.ReceiverDepths, workers)
		if err != nil {
			return err
		}
	} else {
		if verbose {
			opts.Observers = append(opts.Observers, viz.NewProgress(os.Stderr, stepCount(opts, cfg.Frequency), 30))
		}
		calc, err := tl.NewCalculator(opts)
		if err != nil {
			return err
		}
		fmt.Printf("running %s at %g Hz...\n", name, cfg.Frequency)
		res, err := calc.Run(ctx, cfg.Frequency, cfg.SourceDepth, cfg.ReceiverDepths, cfg.VerticalSlice, cfg.IgnoreBathyGradient)
		if err != nil {
			return err
		}
		results = []*tl.Result{res}
	}

	for _, res := range results {
		runID, err := st.Save(name, res)
		if err != nil {
			return err
		}
		printSummary(runID, res)
	}
	return nil
}

// stepCount predicts the number of range steps for the progress bar.
func stepCount(opts tl.Options, freq float64) int {
	c0 := opts.RefSoundSpeed
	if c0 <= 0 {
		c0 = 1500
	}
	dr := opts.RadialBin
	if dr == 0 {
		dr = c0 / freq / 2
	}
	return int(math.Ceil(opts.RadialRange / dr))
}

func printSummary(runID string, res *tl.Result) {
	g := res.Grid
	sum := storage.Summarize(res)

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%g Hz", res.Frequency)))
	fmt.Println(viz.KeyValue("run id", runID))
	fmt.Println(viz.KeyValue("elapsed", res.Elapsed.Round(time.Millisecond).String()))
	if verbose {
		fmt.Println(viz.KeyValue("grid", fmt.Sprintf("Nr=%d Nq=%d Nz=%d", g.Nr, g.Nq, g.Nz)))
		fmt.Println(viz.KeyValue("bins", fmt.Sprintf("dr=%.2f m dq=%.2f deg dz=%.2f m zmax=%.1f m", g.Dr, g.Dq*180/math.Pi, g.Dz, g.Zmax)))
	}
	if len(sum) > 0 {
		fmt.Println(viz.KeyValue("tl", fmt.Sprintf("min %.1f  mean %.1f  max %.1f dB", sum["tl_min"], sum["tl_mean"], sum["tl_max"])))
	}

	fmt.Println(viz.Separator(64))
	angles := res.Angles()
	for d, depth := range res.ReceiverDepths {
		row := res.TL[d][res.AngleIndex(0)]
		fmt.Printf("%s %s\n", viz.Label.Render(fmt.Sprintf("%6.1f m @ %.0f deg", depth, angles[res.AngleIndex(0)])), viz.Sparkline(row, 50))
	}
	fmt.Println()
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFREQ\tSOURCE\tGRID\tTL MEAN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g Hz\t%g m\t%dx%dx%d\t%.1f dB\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frequency,
			run.SourceDepth,
			run.Nr,
			run.Nq,
			run.Nz,
			run.Summary["tl_mean"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTL(args[0])
	if err != nil {
		return err
	}

	row, bearing, err := table.Row(depthIndex, angle)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(meta.Name))
	fmt.Println(viz.KeyValue("freq", fmt.Sprintf("%g Hz", meta.Frequency)))
	fmt.Println(viz.KeyValue("receiver", fmt.Sprintf("%g m", table.Depths[depthIndex])))
	fmt.Println(viz.KeyValue("range", fmt.Sprintf("%.0f - %.0f m", table.Ranges[0], table.Ranges[len(table.Ranges)-1])))
	fmt.Println()
	fmt.Println(viz.RangePlot(row, fmt.Sprintf("TL at %.1f deg (dB, negated)", bearing), 12, 80))
	return nil
}

func mapRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTL(args[0])
	if err != nil {
		return err
	}
	if depthIndex < 0 || depthIndex >= len(table.Depths) {
		return fmt.Errorf("depth index %d out of range [0, %d)", depthIndex, len(table.Depths))
	}
	plane := table.TL[depthIndex]

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s  %g Hz  %g m", meta.Name, meta.Frequency, table.Depths[depthIndex])))
	if threshold > 0 {
		c := viz.Footprint(plane, table.Angles, table.Ranges, threshold, mapSize)
		fmt.Print(viz.Panel.Render(c.String()))
		fmt.Println()
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("lit: TL <= %g dB, radius %.0f m", threshold, table.Ranges[len(table.Ranges)-1])))
		return nil
	}

	th := viz.GetTheme(theme)
	lo, hi := meta.Summary["tl_min"], meta.Summary["tl_max"]
	fmt.Print(viz.Heatmap(plane, th, lo, hi, 2*mapSize, min(len(table.Angles), mapSize)))
	fmt.Println(viz.Legend(th, lo, hi))
	fmt.Println(viz.Subtle.Render("rows: bearing ascending, columns: range"))
	return nil
}

func browseRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTL(args[0])
	if err != nil {
		return err
	}
	return viz.Browse(meta, table, threshold)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.ExportJSON(args[0], outPath); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Println(viz.Success.Render("exported " + outPath))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(scenario.Name))
	if scenario.Description != "" {
		fmt.Println(viz.Subtle.Render(scenario.Description))
	}
	results, err := automation.RunScenario(cmd.Context(), scenario, st, os.Stdout)
	for _, r := range results {
		printSummary(r.RunID, r.Result)
	}
	return err
}

func runParamSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, os.Stderr)
	if err != nil {
		return err
	}

	means := make([]float64, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN\tMIN\tMAX\n", strings.ToUpper(paramName))
	for i, r := range results {
		means[i] = r.MeanTL
		fmt.Fprintf(w, "%g\t%.1f dB\t%.1f dB\t%.1f dB\n", r.ParamValue, r.MeanTL, r.MinTL, r.MaxTL)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(means) > 1 {
		fmt.Println()
		fmt.Println(viz.RangePlot(means, "mean TL (dB, negated) against "+paramName, 8, 60))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:      cfg,
		SpeedFrac: speedFrac,
		LossFrac:  lossFrac,
		NumTrials: numTrials,
		Seed:      seed,
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, os.Stderr)
	if err != nil {
		return err
	}

	mean, std := automation.MonteCarloStats(results)
	means := make([]float64, len(results))
	for i, r := range results {
		means[i] = r.MeanTL
	}
	fmt.Println(viz.KeyValue("trials", fmt.Sprintf("%d", len(results))))
	fmt.Println(viz.KeyValue("mean TL", fmt.Sprintf("%.2f dB", mean)))
	fmt.Println(viz.KeyValue("std dev", fmt.Sprintf("%.2f dB", std)))
	fmt.Println(viz.Sparkline(means, 50))
	return nil
}
