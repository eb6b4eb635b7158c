package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/electrostatics"
	"github.com/san-kum/p3msim/internal/sim"
)

const (
	DefaultDt          = 0.005
	DefaultSteps       = 200
	DefaultParticles   = 200
	DefaultBox         = 10.0
	DefaultCharge      = 1.0
	DefaultMinDist     = 0.8
	DefaultTemperature = 1.0
	DefaultPrefactor   = 1.0
	DefaultCutoff      = 3.0
	DefaultSkin        = 0.3
	DefaultMesh        = 32
	DefaultCAO         = 5
	DefaultAccuracy    = 1e-4
)

type Config struct {
	Method         string               `yaml:"method"`
	Dt             float64              `yaml:"dt"`
	Steps          int                  `yaml:"steps"`
	CheckEvery     int                  `yaml:"check_every"`
	Seed           uint64               `yaml:"seed"`
	System         SystemConfig         `yaml:"system"`
	Electrostatics ElectrostaticsConfig `yaml:"electrostatics"`
}

type SystemConfig struct {
	Particles   int        `yaml:"particles"`
	Box         [3]float64 `yaml:"box"`
	Charge      float64    `yaml:"charge"`
	MinDist     float64    `yaml:"min_dist"`
	Temperature float64    `yaml:"temperature"`
}

type ElectrostaticsConfig struct {
	Prefactor float64 `yaml:"prefactor"`
	Cutoff    float64 `yaml:"cutoff"`
	Skin      float64 `yaml:"skin"`

	Mesh     [3]int  `yaml:"mesh"`
	CAO      int     `yaml:"cao"`
	Alpha    float64 `yaml:"alpha"` // 0 derives alpha from accuracy and cutoff
	Accuracy float64 `yaml:"accuracy"`
	Aliasing int     `yaml:"aliasing"`
	Tabulate int     `yaml:"tabulate"`

	Kappa    float64 `yaml:"kappa"`
	Epsilon1 float64 `yaml:"epsilon1"`
	Epsilon2 float64 `yaml:"epsilon2"`
}

func DefaultConfig() *Config {
	return &Config{
		Method:     "p3m",
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		CheckEvery: 50,
		Seed:       1,
		System: SystemConfig{
			Particles:   DefaultParticles,
			Box:         [3]float64{DefaultBox, DefaultBox, DefaultBox},
			Charge:      DefaultCharge,
			MinDist:     DefaultMinDist,
			Temperature: DefaultTemperature,
		},
		Electrostatics: ElectrostaticsConfig{
			Prefactor: DefaultPrefactor,
			Cutoff:    DefaultCutoff,
			Skin:      DefaultSkin,
			Mesh:      [3]int{DefaultMesh, DefaultMesh, DefaultMesh},
			CAO:       DefaultCAO,
			Accuracy:  DefaultAccuracy,
			Aliasing:  1,
			Epsilon1:  1,
			Epsilon2:  80,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Box() dynamo.Box {
	return dynamo.Box{L: dynamo.Vec3(c.System.Box)}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Dt: c.Dt, Steps: c.Steps, CheckEvery: c.CheckEvery}
}

// Settings converts the electrostatics section for the method registry.
// Alpha is passed through unchanged; callers resolve a zero alpha first.
func (c *Config) Settings() electrostatics.Settings {
	e := c.Electrostatics
	return electrostatics.Settings{
		Prefactor: e.Prefactor,
		Cutoff:    e.Cutoff,
		Box:       c.Box(),
		Mesh:      e.Mesh,
		CAO:       e.CAO,
		Alpha:     e.Alpha,
		Aliasing:  e.Aliasing,
		Tabulate:  e.Tabulate,
		Kappa:     e.Kappa,
		Epsilon1:  e.Epsilon1,
		Epsilon2:  e.Epsilon2,
	}
}

// Validate checks everything that can be checked without building the
// system. Method-specific parameters are validated again by the method
// constructors.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt %g", dynamo.ErrParameterBounds, c.Dt)
	}
	if c.Steps < 0 || c.CheckEvery < 0 {
		return fmt.Errorf("%w: steps %d, check_every %d", dynamo.ErrParameterBounds, c.Steps, c.CheckEvery)
	}
	if err := c.Box().Validate(); err != nil {
		return err
	}
	if c.System.Particles < 0 || c.System.MinDist < 0 || c.System.Temperature < 0 {
		return fmt.Errorf("%w: system %+v", dynamo.ErrParameterBounds, c.System)
	}

	e := c.Electrostatics
	if e.Skin < 0 {
		return fmt.Errorf("%w: skin %g", dynamo.ErrInvalidCutoff, e.Skin)
	}
	if c.Method == "none" {
		return nil
	}
	if !(e.Cutoff > 0) || 2*(e.Cutoff+e.Skin) > c.Box().MinLength() {
		return fmt.Errorf("%w: cutoff %g with skin %g in box %v", dynamo.ErrInvalidCutoff, e.Cutoff, e.Skin, c.System.Box)
	}

	switch c.Method {
	case "p3m":
		if e.Alpha == 0 && !(e.Accuracy > 0) {
			return fmt.Errorf("%w: need alpha or a positive accuracy", dynamo.ErrInvalidAlpha)
		}
		p := c.Settings().P3MParams()
		if p.Alpha == 0 {
			p.Alpha = 1
		}
		return p.Validate()
	case "debye-huckel", "reaction-field":
		return nil
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownMethod, c.Method)
	}
}
