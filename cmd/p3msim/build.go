package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/p3msim/internal/cells"
	"github.com/san-kum/p3msim/internal/config"
	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/electrostatics"
	"github.com/san-kum/p3msim/internal/p3m"
	"github.com/san-kum/p3msim/internal/sim"
)

func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadConfig resolves the configuration in order: defaults, preset, config
// file, explicitly set flags. An optional method argument overrides the
// method of all of them.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Method = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Method, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Method))
		}
		cfg = p
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
		if len(args) > 0 {
			cfg.Method = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("particles") {
		cfg.System.Particles = particles
	}
	if flags.Changed("box") {
		cfg.System.Box = [3]float64{boxLength, boxLength, boxLength}
	}
	if flags.Changed("temperature") {
		cfg.System.Temperature = temperature
	}
	if flags.Changed("cutoff") {
		cfg.Electrostatics.Cutoff = cutoff
	}
	if flags.Changed("skin") {
		cfg.Electrostatics.Skin = skin
	}
	if flags.Changed("mesh") {
		cfg.Electrostatics.Mesh = [3]int{mesh, mesh, mesh}
	}
	if flags.Changed("cao") {
		cfg.Electrostatics.CAO = cao
	}
	if flags.Changed("alpha") {
		cfg.Electrostatics.Alpha = alpha
	}
	if flags.Changed("accuracy") {
		cfg.Electrostatics.Accuracy = accuracy
	}
	if flags.Changed("kappa") {
		cfg.Electrostatics.Kappa = kappa
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func addSystemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Uint64Var(&seed, "seed", 1, "random seed")
	f.IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	f.Float64Var(&boxLength, "box", config.DefaultBox, "cubic box length")
	f.Float64Var(&temperature, "temperature", config.DefaultTemperature, "initial kT")
	f.Float64Var(&cutoff, "cutoff", config.DefaultCutoff, "real-space cutoff")
	f.Float64Var(&skin, "skin", config.DefaultSkin, "verlet skin")
	f.IntVar(&mesh, "mesh", config.DefaultMesh, "mesh points per axis")
	f.IntVar(&cao, "cao", config.DefaultCAO, "charge assignment order")
	f.Float64Var(&alpha, "alpha", 0, "ewald splitting parameter (0 derives it from accuracy)")
	f.Float64Var(&accuracy, "accuracy", config.DefaultAccuracy, "target rms force error")
	f.Float64Var(&kappa, "kappa", 0, "inverse screening length")
}

// system is a fully assembled particle system.
type system struct {
	cfg       *config.Config
	particles dynamo.Particles
	dd        *cells.Decomposition
	method    electrostatics.Method
	engine    *electrostatics.Engine
}

func sumQ2(ps dynamo.Particles) float64 {
	s := 0.0
	for _, p := range ps {
		s += p.Q * p.Q
	}
	return s
}

// resolveAlpha fills in a zero splitting parameter from the accuracy target,
// giving the real-space part half of the error budget in quadrature.
func resolveAlpha(cfg *config.Config) {
	e := &cfg.Electrostatics
	if cfg.Method != "p3m" || e.Alpha != 0 {
		return
	}
	n := cfg.System.Particles
	q2 := float64(n) * cfg.System.Charge * cfg.System.Charge
	e.Alpha = p3m.AlphaForRealSpaceError(e.Prefactor, q2, n, e.Cutoff, e.Accuracy/math.Sqrt2, cfg.System.Box)
	if e.Alpha == 0 {
		e.Alpha = 1 / e.Cutoff
	}
}

func buildSystem(cfg *config.Config, seed uint64, logger *slog.Logger) (*system, error) {
	box := cfg.Box()
	s := cfg.System
	ps, err := sim.RandomSystem(s.Particles, box, s.Charge, s.MinDist, s.Temperature, seed)
	if err != nil {
		return nil, err
	}
	resolveAlpha(cfg)

	dd, err := cells.New(box, cfg.Electrostatics.Cutoff, cfg.Electrostatics.Skin)
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		if err := dd.Add(p); err != nil {
			return nil, err
		}
	}

	settings := cfg.Settings()
	settings.Logger = logger
	m, err := electrostatics.NewRegistry().New(cfg.Method, settings)
	if err != nil {
		return nil, err
	}

	return &system{
		cfg:       cfg,
		particles: ps,
		dd:        dd,
		method:    m,
		engine:    electrostatics.NewEngine(m, logger),
	}, nil
}
