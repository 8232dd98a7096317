package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RateConfig is the YAML form of one RuleSet.
type RateConfig struct {
	RS    float64 `yaml:"r_s"`
	RP    float64 `yaml:"r_p"`
	RR    float64 `yaml:"r_r"`
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Delta float64 `yaml:"delta"`
}

// Schedule is one intermittent (on, off) day pair of the sweep space.
type Schedule struct {
	OnDays  float64 `yaml:"on_days"`
	OffDays float64 `yaml:"off_days"`
}

// InitialState is the compartment triple at t=0.
type InitialState struct {
	Sensitive float64 `yaml:"sensitive"`
	Persister float64 `yaml:"persister"`
	Resistant float64 `yaml:"resistant"`
}

// Config is the full simulation configuration, loaded once before any
// simulation work starts and immutable afterward.
type Config struct {
	OnDrug  RateConfig `yaml:"on_drug"`
	OffDrug RateConfig `yaml:"off_drug"`

	Initial      InitialState `yaml:"initial_state"`
	HorizonHours float64      `yaml:"horizon_hours"`
	Samples      int          `yaml:"samples"`

	AdaptiveThresholds    []float64  `yaml:"adaptive_thresholds"`
	IntermittentSchedules []Schedule `yaml:"intermittent_schedules"`
	IncludeContinuous     bool       `yaml:"include_continuous"`

	ScoreWeights Weights `yaml:"score_weights"`

	// Workers bounds the sweep's per-strategy fan-out.
	Workers int `yaml:"workers"`
}

// DefaultConfig mirrors defaults.yaml: the calibrated on/off rate constants,
// a 180-day horizon sampled at 1000 points, and the standard strategy space.
func DefaultConfig() Config {
	return Config{
		OnDrug: RateConfig{
			RS: -0.0015, RP: 0.0, RR: 0.0008042,
			Alpha: 0.002, Beta: 0.0, Delta: 0.0002,
		},
		OffDrug: RateConfig{
			RS: 0.0008042, RP: 0.0, RR: 0.0008042,
			Alpha: 0.0, Beta: 0.05, Delta: 0.0,
		},
		Initial:      InitialState{Sensitive: 1_000_000},
		HorizonHours: 4320,
		Samples:      1000,
		AdaptiveThresholds: []float64{
			0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9,
		},
		IntermittentSchedules: []Schedule{
			{1, 1}, {1, 3}, {3, 1}, {3, 3}, {3, 7},
			{7, 3}, {7, 7}, {7, 14}, {14, 7}, {14, 14},
		},
		IncludeContinuous: true,
		ScoreWeights:      DefaultWeights(),
		Workers:           4,
	}
}

// LoadConfig reads a YAML file over the built-in defaults: keys present in
// the file override, absent keys keep their default. Unknown keys are errors
// (strict parsing, so typos cannot silently fall back to defaults).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate fails fast, naming the violated constraint, before any
// simulation work begins.
func (c Config) Validate() error {
	if c.HorizonHours <= 0 {
		return fmt.Errorf("config: horizon_hours must be positive, got %g", c.HorizonHours)
	}
	if c.Samples < 2 {
		return fmt.Errorf("config: samples must be at least 2, got %d", c.Samples)
	}
	if c.Initial.Sensitive < 0 || c.Initial.Persister < 0 || c.Initial.Resistant < 0 {
		return fmt.Errorf("config: initial_state compartments must be non-negative, got %+v", c.Initial)
	}
	if !c.IncludeContinuous && len(c.AdaptiveThresholds) == 0 && len(c.IntermittentSchedules) == 0 {
		return fmt.Errorf("config: strategy space is empty")
	}
	for _, f := range c.AdaptiveThresholds {
		if f < 0 || f > 1 {
			return fmt.Errorf("config: adaptive threshold fraction %g outside [0,1]", f)
		}
	}
	for _, s := range c.IntermittentSchedules {
		if s.OnDays < 0 || s.OffDays < 0 {
			return fmt.Errorf("config: intermittent schedule days must be non-negative, got %+v", s)
		}
		if s.OnDays+s.OffDays == 0 {
			return fmt.Errorf("config: intermittent schedule must have a non-empty cycle, got %+v", s)
		}
	}
	if err := c.ScoreWeights.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Catalog builds the immutable ruleset catalog from the rate sections.
func (c Config) Catalog() Catalog {
	return NewCatalog(c.OnDrug.RuleSet(), c.OffDrug.RuleSet())
}

// RuleSet converts the YAML form into the model type.
func (rc RateConfig) RuleSet() RuleSet {
	return RuleSet{RS: rc.RS, RP: rc.RP, RR: rc.RR, Alpha: rc.Alpha, Beta: rc.Beta, Delta: rc.Delta}
}

// InitialCellState returns the t=0 compartment state.
func (c Config) InitialCellState() CellState {
	return CellState{S: c.Initial.Sensitive, P: c.Initial.Persister, R: c.Initial.Resistant}
}
