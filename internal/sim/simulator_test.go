package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/p3msim/internal/cells"
	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/electrostatics"
)

func buildTestSimulator(method string, kT, skin float64, seed uint64) (*Simulator, error) {
	box := dynamo.CubicBox(8)
	ps, err := RandomSystem(16, box, 1, 1.5, kT, seed)
	if err != nil {
		return nil, err
	}

	const rc = 3.0
	dd, err := cells.New(box, rc, skin)
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		if err := dd.Add(p); err != nil {
			return nil, err
		}
	}

	m, err := electrostatics.NewRegistry().New(method, electrostatics.Settings{
		Prefactor: 1,
		Cutoff:    rc,
		Box:       box,
		Mesh:      [3]int{16, 16, 16},
		CAO:       4,
		Alpha:     1.1,
		Kappa:     0.5,
	})
	if err != nil {
		return nil, err
	}
	return New(dd, electrostatics.NewEngine(m, nil), nil), nil
}

func newTestSimulator(t *testing.T, method string, kT, skin float64, seed uint64) *Simulator {
	t.Helper()
	s, err := buildTestSimulator(method, kT, skin, seed)
	if err != nil {
		t.Fatalf("building simulator: %v", err)
	}
	return s
}

func TestSimulatorRun(t *testing.T) {
	s := newTestSimulator(t, "p3m", 0.1, 0.4, 1)

	calls := 0
	s.AddObserver(ObserverFunc(func(Record) { calls++ }))

	result, err := s.Run(context.Background(), Config{Dt: 0.005, Steps: 40, CheckEvery: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Records) != 41 {
		t.Errorf("expected 41 records, got %d", len(result.Records))
	}
	if result.StepsTaken != 40 {
		t.Errorf("expected 40 steps, got %d", result.StepsTaken)
	}
	if calls != 41 {
		t.Errorf("observer called %d times, want 41", calls)
	}

	first, last := result.Records[0], result.Records[len(result.Records)-1]
	scale := math.Abs(first.Potential) + first.Kinetic
	if drift := math.Abs(last.Total() - first.Total()); drift > 1e-2*scale {
		t.Errorf("energy drift %g exceeds %g", drift, 1e-2*scale)
	}
	if math.Abs(last.Time-0.2) > 1e-12 {
		t.Errorf("final time %g, want 0.2", last.Time)
	}
	for _, r := range result.Records {
		if n := math.Sqrt(r.NetForce[0]*r.NetForce[0] + r.NetForce[1]*r.NetForce[1] + r.NetForce[2]*r.NetForce[2]); n > 1e-8*r.ForceScale {
			t.Errorf("step %d: net force %g", r.Step, n)
		}
	}
}

func TestSimulatorRebuildsOnSkin(t *testing.T) {
	s := newTestSimulator(t, "debye-huckel", 4, 0.1, 2)

	result, err := s.Run(context.Background(), Config{Dt: 0.01, Steps: 50, CheckEvery: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Rebuilds == 0 {
		t.Fatal("expected skin-triggered rebuilds")
	}

	flagged := 0
	for _, r := range result.Records {
		if r.Rebuilt {
			flagged++
		}
	}
	if flagged != result.Rebuilds {
		t.Errorf("records flag %d rebuilds, result reports %d", flagged, result.Rebuilds)
	}
	if err := s.Decomposition().Check(); err != nil {
		t.Errorf("decomposition corrupted: %v", err)
	}
}

func TestSimulatorValidation(t *testing.T) {
	s := newTestSimulator(t, "none", 1, 0.2, 3)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Steps: 1}},
		{"negative steps", Config{Dt: 0.1, Steps: -1}},
		{"negative check", Config{Dt: 0.1, Steps: 1, CheckEvery: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.cfg)
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("got %v, want ErrParameterBounds", err)
			}
		})
	}

	p, _ := s.Decomposition().Particle(0)
	p.Mass = 0
	if _, err := s.Run(context.Background(), Config{Dt: 0.1, Steps: 1}); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("massless particle accepted: %v", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	s := newTestSimulator(t, "none", 1, 0.2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, Config{Dt: 0.01, Steps: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("expected only the initial record, got %d", len(result.Records))
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Observe(Record) { c.n++ }
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }

func TestSimulatorMetrics(t *testing.T) {
	s := newTestSimulator(t, "none", 1, 0.2, 5)
	s.AddMetric(&countMetric{n: 7})

	result, err := s.Run(context.Background(), Config{Dt: 0.01, Steps: 5})
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Metrics["count"]; got != 6 {
		t.Errorf("count metric = %g, want 6", got)
	}
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble(func(seed uint64) (*Simulator, error) {
		return buildTestSimulator("debye-huckel", 0.5, 0.3, seed)
	}, 3, 10)

	results, err := e.Run(context.Background(), Config{Dt: 0.01, Steps: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Records[0].Potential == results[1].Records[0].Potential {
		t.Error("replicas with different seeds produced identical systems")
	}

	boom := errors.New("boom")
	_, err = NewEnsemble(func(uint64) (*Simulator, error) { return nil, boom }, 2, 0).
		Run(context.Background(), Config{Dt: 0.01, Steps: 1})
	if !errors.Is(err, boom) {
		t.Errorf("factory error lost: %v", err)
	}
}

func TestRandomSystem(t *testing.T) {
	box := dynamo.CubicBox(10)
	ps, err := RandomSystem(50, box, 2, 1, 1.5, 7)
	if err != nil {
		t.Fatal(err)
	}

	var momentum dynamo.Vec3
	charge := 0.0
	for i := range ps {
		momentum = momentum.Add(ps[i].Vel)
		charge += ps[i].Q
		for j := i + 1; j < len(ps); j++ {
			if d := box.MinImage(ps[i].Pos.Sub(ps[j].Pos)).Norm(); d < 1 {
				t.Errorf("particles %d and %d only %g apart", i, j, d)
			}
		}
	}
	if momentum.Norm() > 1e-12 {
		t.Errorf("total momentum %v", momentum)
	}
	if charge != 0 {
		t.Errorf("total charge %g", charge)
	}

	if _, err := RandomSystem(1000, dynamo.CubicBox(2), 1, 1, 1, 1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("overfull box accepted: %v", err)
	}
}
