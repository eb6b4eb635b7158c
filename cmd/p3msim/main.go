package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/p3msim/internal/config"
	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/electrostatics"
	"github.com/san-kum/p3msim/internal/metrics"
	"github.com/san-kum/p3msim/internal/p3m"
	"github.com/san-kum/p3msim/internal/report"
	"github.com/san-kum/p3msim/internal/sim"
	"github.com/san-kum/p3msim/internal/storage"
	"github.com/san-kum/p3msim/internal/tune"
)

var (
	dataDir string
	verbose bool

	configFile  string
	preset      string
	dt          float64
	steps       int
	seed        uint64
	particles   int
	boxLength   float64
	temperature float64
	cutoff      float64
	skin        float64
	mesh        int
	cao         int
	alpha       float64
	accuracy    float64
	kappa       float64

	noSave   bool
	replicas int

	meshList string
	caoList  string
	kmax     int

	writeConfig string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "p3msim",
		Short:        "particle-particle particle-mesh electrostatics lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".p3msim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")

	runCmd := &cobra.Command{
		Use:   "run [method]",
		Short: "run a molecular dynamics simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSystemFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().IntVar(&replicas, "replicas", 1, "independent replicas with consecutive seeds")

	energyCmd := &cobra.Command{
		Use:   "energy [method]",
		Short: "evaluate energy, forces and pressure once",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evaluateEnergy,
	}
	addSystemFlags(energyCmd)

	accuracyCmd := &cobra.Command{
		Use:   "accuracy",
		Short: "compare mesh k-space results against a direct ewald sum",
		Args:  cobra.NoArgs,
		RunE:  checkAccuracy,
	}
	addSystemFlags(accuracyCmd)
	accuracyCmd.Flags().StringVar(&meshList, "meshes", "16,32", "comma-separated mesh sizes")
	accuracyCmd.Flags().StringVar(&caoList, "caos", "3,5,7", "comma-separated assignment orders")
	accuracyCmd.Flags().IntVar(&kmax, "kmax", 12, "reciprocal vectors per axis in the reference sum")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "choose p3m parameters for the accuracy target",
		Args:  cobra.NoArgs,
		RunE:  tuneParameters,
	}
	addSystemFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&meshList, "meshes", "", "comma-separated mesh sizes (default grid when empty)")
	tuneCmd.Flags().StringVar(&caoList, "caos", "", "comma-separated assignment orders (default grid when empty)")
	tuneCmd.Flags().StringVar(&writeConfig, "write", "", "write the tuned configuration to this yaml file")

	checkCmd := &cobra.Command{
		Use:   "check [method]",
		Short: "build the cell decomposition and audit it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  checkDecomposition,
	}
	addSystemFlags(checkCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [method]",
		Short: "list available presets for a method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for method: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list electrostatics methods",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range electrostatics.NewRegistry().List() {
				fmt.Println(name)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	rootCmd.AddCommand(runCmd, energyCmd, accuracyCmd, tuneCmd, checkCmd, presetsCmd, methodsCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger()
	resolveAlpha(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	newSimulator := func(seed uint64) (*sim.Simulator, error) {
		c := *cfg
		sys, err := buildSystem(&c, seed, logger)
		if err != nil {
			return nil, err
		}
		s := sim.New(sys.dd, sys.engine, logger.With("seed", seed))
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		return s, nil
	}

	var results []*sim.Result
	if replicas > 1 {
		results, err = sim.NewEnsemble(newSimulator, replicas, cfg.Seed).Run(ctx, cfg.SimConfig())
		if err != nil {
			return err
		}
	} else {
		s, err := newSimulator(cfg.Seed)
		if err != nil {
			return err
		}
		result, err := s.Run(ctx, cfg.SimConfig())
		if err != nil {
			return err
		}
		results = []*sim.Result{result}
	}

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}

	for i, result := range results {
		fmt.Println(report.Run(cfg.Method, result))
		if noSave {
			continue
		}
		e := cfg.Electrostatics
		runID, err := st.Save(storage.RunMetadata{
			Method:    cfg.Method,
			Seed:      cfg.Seed + uint64(i),
			Dt:        cfg.Dt,
			Steps:     cfg.Steps,
			Particles: cfg.System.Particles,
			Box:       cfg.System.Box,
			Cutoff:    e.Cutoff,
			Skin:      e.Skin,
			Mesh:      e.Mesh,
			CAO:       e.CAO,
			Alpha:     e.Alpha,
		}, result)
		if err != nil {
			return err
		}
		fmt.Printf("saved run %s\n", runID)
	}
	return nil
}

func evaluateEnergy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sys, err := buildSystem(cfg, cfg.Seed, newLogger())
	if err != nil {
		return err
	}

	sys.dd.Rebuild()
	obs, err := sys.engine.Compute(sys.dd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "method\t%s\n", cfg.Method)
	fmt.Fprintf(w, "pairs\t%d\n", obs.Pairs)
	fmt.Fprintf(w, "short range\t%.10g\n", obs.ShortRange)
	if cfg.Method == "p3m" {
		fmt.Fprintf(w, "alpha\t%.6g\n", cfg.Electrostatics.Alpha)
		fmt.Fprintf(w, "k-space\t%.10g\n", obs.LongRange.KSpace)
		fmt.Fprintf(w, "self\t%.10g\n", obs.LongRange.Self)
		fmt.Fprintf(w, "neutralization\t%.10g\n", obs.LongRange.Neutralization)
	}
	fmt.Fprintf(w, "total\t%.10g\n", obs.Energy())
	fmt.Fprintf(w, "pressure\t%.8g\n", obs.Pressure())
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(report.Stress(obs.Stress))
	return nil
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer list %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func checkAccuracy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, []string{"p3m"})
	if err != nil {
		return err
	}
	meshes, err := parseInts(meshList)
	if err != nil {
		return err
	}
	caos, err := parseInts(caoList)
	if err != nil {
		return err
	}

	sys, err := buildSystem(cfg, cfg.Seed, newLogger())
	if err != nil {
		return err
	}
	ps := sys.particles
	box := cfg.Box()
	e := cfg.Electrostatics

	refEnergy, refForces, err := p3m.EwaldReciprocal(ps, box, e.Alpha, e.Prefactor, [3]int{kmax, kmax, kmax})
	if err != nil {
		return err
	}
	norm := 0.0
	for _, f := range refForces {
		norm += f.Norm2()
	}
	norm = math.Sqrt(norm / float64(len(ps)))

	rows := make([]report.AccuracyRow, 0, len(meshes)*len(caos))
	for _, m := range meshes {
		for _, order := range caos {
			params := cfg.Settings().P3MParams()
			params.Mesh = tune.MeshFor(box, m)
			params.CAO = order

			solver, err := p3m.NewSolver(params)
			if err != nil {
				return err
			}
			work := make(dynamo.Particles, len(ps))
			copy(work, ps)
			work.ResetForces()

			res, err := solver.Compute(work)
			if err != nil {
				return err
			}

			rms := 0.0
			for i := range work {
				rms += work[i].Force.Sub(refForces[i]).Norm2()
			}
			rms = math.Sqrt(rms / float64(len(work)))

			rows = append(rows, report.AccuracyRow{
				Name:      fmt.Sprintf("m%d cao%d", m, order),
				Energy:    res.KSpace,
				Reference: refEnergy,
				ForceRMS:  rms,
				Estimate:  p3m.KSpaceError(params, len(ps), sumQ2(ps)),
			})
		}
	}

	fmt.Printf("alpha %.6g, reference rms force %.6g\n\n", e.Alpha, norm)
	fmt.Println(report.Accuracy(rows, e.Accuracy))
	return nil
}

func tuneParameters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, []string{"p3m"})
	if err != nil {
		return err
	}
	logger := newLogger()

	box := cfg.Box()
	s := cfg.System
	ps, err := sim.RandomSystem(s.Particles, box, s.Charge, s.MinDist, s.Temperature, cfg.Seed)
	if err != nil {
		return err
	}
	charges := make([]float64, len(ps))
	for i := range ps {
		charges[i] = ps[i].Q
	}

	grid := tune.DefaultGrid(box)
	if meshes, err := parseInts(meshList); err != nil {
		return err
	} else if meshes != nil {
		grid.Meshes = meshes
	}
	if caos, err := parseInts(caoList); err != nil {
		return err
	} else if caos != nil {
		grid.CAOs = caos
	}
	if cmd.Flags().Changed("cutoff") || configFile != "" || preset != "" {
		grid.Cutoffs = []float64{cfg.Electrostatics.Cutoff}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target := tune.SystemOf(charges, box, cfg.Electrostatics.Prefactor)
	best, err := tune.NewTuner(tune.WithLogger(logger)).Tune(ctx, target, cfg.Electrostatics.Accuracy, grid)
	if err != nil {
		return err
	}
	fmt.Println(report.Tuned(best, cfg.Electrostatics.Accuracy))

	if writeConfig == "" {
		return nil
	}
	cfg.Electrostatics.Cutoff = best.Cutoff
	cfg.Electrostatics.Mesh = best.Params.Mesh
	cfg.Electrostatics.CAO = best.Params.CAO
	cfg.Electrostatics.Alpha = best.Params.Alpha
	if err := config.Save(writeConfig, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", writeConfig)
	return nil
}

func checkDecomposition(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sys, err := buildSystem(cfg, cfg.Seed, newLogger())
	if err != nil {
		return err
	}

	sys.dd.Rebuild()
	if err := sys.dd.Check(); err != nil {
		return err
	}

	dims := sys.dd.Dims()
	fmt.Printf("cells: %d x %d x %d (size %.4g)\n", dims[0], dims[1], dims[2], sys.dd.CellSize()[0])
	fmt.Printf("particles: %d\n", sys.dd.NumParticles())
	fmt.Printf("pairs within cutoff+skin: %d\n", sys.dd.NumPairs())
	fmt.Println(report.Good.Render("decomposition consistent"))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	fmt.Println(report.Runs(runs))
	return nil
}
