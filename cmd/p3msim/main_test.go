package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/p3msim/internal/dynamo"
)

func TestParseInts(t *testing.T) {
	got, err := parseInts(" 8, 16,32 ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 8 || got[2] != 32 {
		t.Errorf("parsed %v", got)
	}

	if got, err := parseInts(""); got != nil || err != nil {
		t.Errorf("empty list gave %v, %v", got, err)
	}
	if _, err := parseInts("8,x"); err == nil {
		t.Error("expected error for non-integer")
	}
}

func newTestCommand() *cobra.Command {
	configFile, preset = "", ""
	cmd := &cobra.Command{Use: "test"}
	addSystemFlags(cmd)
	return cmd
}

func TestLoadConfigFlagsOverridePreset(t *testing.T) {
	cmd := newTestCommand()
	if err := cmd.ParseFlags([]string{"--preset", "dilute", "--mesh", "24", "--particles", "10"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd, []string{"p3m"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Electrostatics.Mesh != [3]int{24, 24, 24} {
		t.Errorf("mesh flag ignored: %v", cfg.Electrostatics.Mesh)
	}
	if cfg.System.Particles != 10 {
		t.Errorf("particles flag ignored: %d", cfg.System.Particles)
	}
	if cfg.Electrostatics.Cutoff != 5 {
		t.Errorf("preset cutoff lost: %g", cfg.Electrostatics.Cutoff)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cmd := newTestCommand()
	if err := cmd.ParseFlags([]string{"--cao", "9"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd, nil); !errors.Is(err, dynamo.ErrInvalidOrder) {
		t.Errorf("got %v, want ErrInvalidOrder", err)
	}

	cmd = newTestCommand()
	if _, err := loadConfig(cmd, []string{"fmm"}); !errors.Is(err, dynamo.ErrUnknownMethod) {
		t.Errorf("got %v, want ErrUnknownMethod", err)
	}
}

func TestBuildSystemResolvesAlpha(t *testing.T) {
	cmd := newTestCommand()
	if err := cmd.ParseFlags([]string{"--particles", "20", "--mesh", "8", "--cao", "3"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, []string{"p3m"})
	if err != nil {
		t.Fatal(err)
	}

	sys, err := buildSystem(cfg, 3, newLogger())
	if err != nil {
		t.Fatal(err)
	}
	if !(cfg.Electrostatics.Alpha > 0) {
		t.Errorf("alpha not resolved: %g", cfg.Electrostatics.Alpha)
	}
	if sys.dd.NumParticles() != 20 || sys.method.Name() != "p3m" {
		t.Errorf("system %d particles, method %s", sys.dd.NumParticles(), sys.method.Name())
	}
}
