package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sampler.yaml")
	yamlContent := `
width: 12
alpha: 2.5
population_size: 2
temperatures: [1.0, 0.5]
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 12 {
		t.Fatalf("Width = %d, want 12", cfg.Width)
	}
	if cfg.Alpha != 2.5 {
		t.Fatalf("Alpha = %v, want 2.5", cfg.Alpha)
	}
	if cfg.Background != BackgroundIndependence {
		t.Fatalf("Background = %v, want default %v", cfg.Background, BackgroundIndependence)
	}
	if cfg.Burnin != 1000 {
		t.Fatalf("Burnin = %d, want default 1000", cfg.Burnin)
	}
}

func TestValidateRejectsMismatchedTemperatures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 3
	cfg.Temperatures = []float64{1.0, 0.5}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for mismatched temperatures length")
	}
}

func TestValidateRejectsUnknownBackground(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown background model")
	}
}

func TestValidateAcceptsDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate, got: %v", err)
	}
}
