package electrostatics

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/p3m"
)

// Settings carries every parameter a registered method may read.
type Settings struct {
	Prefactor float64
	Cutoff    float64
	Box       dynamo.Box

	// p3m
	Mesh     [3]int
	CAO      int
	Alpha    float64
	Aliasing int
	Tabulate int

	// debye-huckel, reaction-field
	Kappa    float64
	Epsilon1 float64
	Epsilon2 float64

	Logger *slog.Logger
}

// P3MParams extracts the mesh solver parameters.
func (s Settings) P3MParams() p3m.Params {
	return p3m.Params{
		Mesh:      s.Mesh,
		CAO:       s.CAO,
		Alpha:     s.Alpha,
		Box:       s.Box,
		Aliasing:  s.Aliasing,
		Prefactor: s.Prefactor,
		Tabulate:  s.Tabulate,
	}
}

type Registry struct {
	methods map[string]func(Settings) (Method, error)
}

func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]func(Settings) (Method, error))}

	r.methods["p3m"] = func(s Settings) (Method, error) {
		var opts []p3m.Option
		if s.Logger != nil {
			opts = append(opts, p3m.WithLogger(s.Logger))
		}
		return NewP3M(s.Cutoff, s.P3MParams(), opts...)
	}
	r.methods["debye-huckel"] = func(s Settings) (Method, error) {
		return NewDebyeHuckel(s.Prefactor, s.Kappa, s.Cutoff)
	}
	r.methods["reaction-field"] = func(s Settings) (Method, error) {
		return NewReactionField(s.Prefactor, s.Kappa, s.Epsilon1, s.Epsilon2, s.Cutoff)
	}
	r.methods["none"] = func(Settings) (Method, error) { return None{}, nil }

	return r
}

// Register adds or replaces a method factory.
func (r *Registry) Register(name string, fn func(Settings) (Method, error)) {
	r.methods[name] = fn
}

func (r *Registry) New(name string, s Settings) (Method, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownMethod, name)
	}
	return fn(s)
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
