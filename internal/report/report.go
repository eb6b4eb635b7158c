package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/sim"
	"github.com/san-kum/p3msim/internal/storage"
	"github.com/san-kum/p3msim/internal/tune"
)

type field struct {
	label string
	value string
}

func fields(fs []field) string {
	width := 0
	for _, f := range fs {
		width = max(width, len(f.label))
	}
	lines := make([]string, len(fs))
	for i, f := range fs {
		lines[i] = Label.Render(fmt.Sprintf("%-*s", width, f.label)) + "  " + Value.Render(f.value)
	}
	return strings.Join(lines, "\n")
}

// Run summarises a finished simulation.
func Run(method string, r *sim.Result) string {
	fs := []field{
		{"method", method},
		{"steps", fmt.Sprintf("%d", r.StepsTaken)},
		{"rebuilds", fmt.Sprintf("%d", r.Rebuilds)},
	}
	if n := len(r.Records); n > 0 {
		first, last := r.Records[0], r.Records[n-1]
		fs = append(fs,
			field{"pairs", fmt.Sprintf("%d", last.Pairs)},
			field{"E total (start)", fmt.Sprintf("%.8g", first.Total())},
			field{"E total (end)", fmt.Sprintf("%.8g", last.Total())},
			field{"E k-space", fmt.Sprintf("%.8g", last.Electrostatics.LongRange.KSpace)},
			field{"pressure", fmt.Sprintf("%.6g", last.Pressure)},
		)
	}

	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fs = append(fs, field{name, fmt.Sprintf("%.6g", r.Metrics[name])})
	}

	body := fields(fs)
	if n := len(r.Records); n > 0 {
		body += "\n\n" + Stress(r.Records[n-1].Electrostatics.Stress)
	}
	if len(r.Records) > 1 {
		energy := make([]float64, len(r.Records))
		for i, rec := range r.Records {
			energy[i] = rec.Total()
		}
		body += "\n\n" + Subtle.Render("energy ") + Sparkline(energy, 48)
	}
	return Panel.Render(Title.Render("run") + "\n" + body)
}

// Stress renders the symmetric part of a stress tensor with its principal
// values.
func Stress(t dynamo.Tensor) string {
	sym := t.Sym()
	rows := make([]string, 0, 4)
	rows = append(rows, Subtle.Render("stress"))
	for i := 0; i < 3; i++ {
		rows = append(rows, Value.Render(fmt.Sprintf("% .6e % .6e % .6e", sym.At(i, 0), sym.At(i, 1), sym.At(i, 2))))
	}
	principal := Subtle.Render("principal n/a")
	if v, err := t.Principal(); err == nil {
		principal = Label.Render("principal") + "  " + Value.Render(fmt.Sprintf("% .6e % .6e % .6e", v[0], v[1], v[2]))
	}
	rows = append(rows, principal)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// AccuracyRow compares one mesh evaluation with a reference.
type AccuracyRow struct {
	Name      string
	Energy    float64
	Reference float64
	ForceRMS  float64
	Estimate  float64
}

func (r AccuracyRow) EnergyError() float64 {
	if r.Reference == 0 {
		return 0
	}
	d := (r.Energy - r.Reference) / r.Reference
	return max(d, -d)
}

// Accuracy renders a table of mesh-versus-reference comparisons.
func Accuracy(rows []AccuracyRow, tol float64) string {
	var b strings.Builder
	b.WriteString(Header.Render(fmt.Sprintf("%-16s %14s %14s %10s %10s %10s",
		"params", "E mesh", "E ewald", "rel dE", "rms dF", "estimate")))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-16s %14.8g %14.8g ", r.Name, r.Energy, r.Reference))
		b.WriteString(Grade(r.EnergyError(), tol).Render(fmt.Sprintf("%10.2e", r.EnergyError())))
		b.WriteString(" ")
		b.WriteString(Grade(r.ForceRMS, max(r.Estimate, tol)).Render(fmt.Sprintf("%10.2e", r.ForceRMS)))
		b.WriteString(fmt.Sprintf(" %10.2e", r.Estimate))
	}
	return b.String()
}

// Tuned renders the outcome of a parameter search.
func Tuned(c tune.Candidate, target float64) string {
	body := fields([]field{
		{"cutoff", fmt.Sprintf("%.4g", c.Cutoff)},
		{"mesh", fmt.Sprintf("%d x %d x %d", c.Params.Mesh[0], c.Params.Mesh[1], c.Params.Mesh[2])},
		{"cao", fmt.Sprintf("%d", c.Params.CAO)},
		{"alpha", fmt.Sprintf("%.6g", c.Params.Alpha)},
		{"real-space error", fmt.Sprintf("%.3e", c.RealSpace)},
		{"k-space error", fmt.Sprintf("%.3e", c.KSpace)},
		{"total error", Grade(c.Total, target).Render(fmt.Sprintf("%.3e", c.Total))},
		{"cost", fmt.Sprintf("%.4g", c.Cost)},
	})
	return Panel.Render(Title.Render("tuned p3m") + "\n" + body)
}

// Runs lists stored runs, one per line.
func Runs(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return Subtle.Render("no runs")
	}
	rows := make([]string, 0, len(runs)+1)
	rows = append(rows, Header.Render(fmt.Sprintf("%-34s %-15s %8s %6s %12s", "id", "method", "steps", "n", "drift")))
	for _, m := range runs {
		drift := "-"
		if v, ok := m.Metrics["energy_drift"]; ok {
			drift = fmt.Sprintf("%.3e", v)
		}
		rows = append(rows, fmt.Sprintf("%-34s %-15s %8d %6d %12s", m.ID, m.Method, m.StepsTaken, m.Particles, drift))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
