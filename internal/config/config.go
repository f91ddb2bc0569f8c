// Package config loads and validates sampler configuration, following
// the teacher's Config/DefaultConfig factory idiom.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BackgroundModel selects which of the four background component
// variants a sampler run uses.
type BackgroundModel string

const (
	BackgroundIndependence BackgroundModel = "independence"
	BackgroundEntropy      BackgroundModel = "entropy"
	BackgroundDefault      BackgroundModel = "default"
	BackgroundMixture      BackgroundModel = "mixture"
)

// Config holds everything a sampler run needs: model hyperparameters,
// MCMC schedule, background selection, and where to persist the marginal
// cache.
type Config struct {
	// Dirichlet-process concentration parameter.
	Alpha float64 `yaml:"alpha"`
	// Pitman-Yor discount parameter, 0 reduces to a plain DP.
	Discount float64 `yaml:"discount"`
	// Foreground/background mixing weight in (0, 1): the Gibbs sampler
	// weights the background by log(1-Lambda) and foreground clusters by
	// log(Lambda * ...).
	Lambda float64 `yaml:"lambda"`
	// Motif width in columns.
	Width int `yaml:"width"`

	// Foreground Dirichlet pseudocount vector, length 5 (A,C,G,T,N).
	ForegroundAlpha []float64 `yaml:"foreground_alpha"`

	// Background selects the background component variant.
	Background BackgroundModel `yaml:"background"`
	// BackgroundAlpha seeds IndependenceBackground; for the entropy
	// background its first entry is used as the epsilon.
	BackgroundAlpha []float64 `yaml:"background_alpha"`
	// BackgroundGammaShape/Rate parameterize DefaultBackground's Gamma
	// prior over pseudocounts.
	BackgroundGammaShape float64 `yaml:"background_gamma_shape"`
	BackgroundGammaRate  float64 `yaml:"background_gamma_rate"`
	// BackgroundMixtureWeights/Alphas parameterize IndependenceMixture.
	BackgroundMixtureWeights []float64   `yaml:"background_mixture_weights"`
	BackgroundMixtureAlphas  [][]float64 `yaml:"background_mixture_alphas"`

	// Burnin is the number of initial sweeps discarded before sampling.
	Burnin int `yaml:"burnin"`
	// Samples is the number of post-burnin sweeps recorded.
	Samples int `yaml:"samples"`
	// PopulationSize is the number of parallel-tempered chains.
	PopulationSize int `yaml:"population_size"`
	// Temperatures holds one temperature per chain (the sampler divides
	// log-predictive terms by it); length must equal PopulationSize. The
	// untempered chain (temperature 1) is conventionally index 0.
	Temperatures []float64 `yaml:"temperatures"`
	// MetropolisMoveProbability is the chance, after each Gibbs sweep,
	// that one whole-cluster or single-range shift move is proposed.
	MetropolisMoveProbability float64 `yaml:"metropolis_move_probability"`

	// CachePath is the sqlite database file the persistent marginal
	// cache is stored in. Empty disables the cache.
	CachePath string `yaml:"cache_path"`

	// ControlAddr, when non-empty, serves the read-only inspection API
	// and command queue on this address.
	ControlAddr string `yaml:"control_addr"`
	// NATSURL, when non-empty, connects a NATS transport that queues
	// commands received over NATS. cmd/dpmtfbs does not publish progress
	// over it and does not act on the queued commands.
	NATSURL string `yaml:"nats_url"`

	// ClickHouseAddr, when non-empty, streams per-step chain scalar
	// history to ClickHouse in addition to keeping it in memory.
	ClickHouseAddr string `yaml:"clickhouse_addr"`
}

// DefaultConfig returns the configuration a single-chain run with no
// external sinks uses out of the box.
func DefaultConfig() Config {
	uniform := []float64{1, 1, 1, 1, 1}
	return Config{
		Alpha:                     1.0,
		Discount:                  0.0,
		Lambda:                    0.01,
		Width:                     10,
		ForegroundAlpha:           uniform,
		Background:                BackgroundIndependence,
		BackgroundAlpha:           uniform,
		BackgroundGammaShape:      2.0,
		BackgroundGammaRate:       2.0,
		Burnin:                    1000,
		Samples:                   1000,
		PopulationSize:            1,
		Temperatures:              []float64{1.0},
		MetropolisMoveProbability: 0.1,
		CachePath:                 "",
		ControlAddr:               "",
		NATSURL:                   "",
		ClickHouseAddr:            "",
	}
}

// Load reads and validates a YAML configuration file, filling in
// DefaultConfig's values for any key the file does not set.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first structural problem found in cfg, or nil.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("alpha must be positive, got %v", c.Alpha)
	}
	if c.Discount < 0 || c.Discount >= 1 {
		return fmt.Errorf("discount must be in [0, 1), got %v", c.Discount)
	}
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %d", c.PopulationSize)
	}
	if len(c.Temperatures) != c.PopulationSize {
		return fmt.Errorf("temperatures has %d entries, want %d (population_size)", len(c.Temperatures), c.PopulationSize)
	}
	switch c.Background {
	case BackgroundIndependence, BackgroundEntropy, BackgroundDefault, BackgroundMixture:
	default:
		return fmt.Errorf("unknown background model: %s", c.Background)
	}
	if c.Background == BackgroundMixture {
		if len(c.BackgroundMixtureWeights) != len(c.BackgroundMixtureAlphas) {
			return fmt.Errorf("background_mixture_weights has %d entries, background_mixture_alphas has %d, want equal", len(c.BackgroundMixtureWeights), len(c.BackgroundMixtureAlphas))
		}
	}
	return nil
}
