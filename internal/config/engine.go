package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// KnowledgeBackend selects which HistoricalKnowledgeStore backend serves
// lookups as the primary. The other backend remains the fallback.
type KnowledgeBackend string

const (
	BackendGraph KnowledgeBackend = "graph"
	BackendTable KnowledgeBackend = "table"
)

// Engine holds every request-scoped threshold and timeout the risk engine
// uses. It is passed explicitly at Coordinator construction; nothing in the
// engine reads ambient global state.
type Engine struct {
	// Correlation analyzer
	TrailingWindowDays    int     `yaml:"trailing_window_days"`
	MinRequiredDataDays   int     `yaml:"min_required_data_days"`
	MaxExcludedValueRatio float64 `yaml:"max_excluded_value_ratio"`

	// Concentration analyzer
	DangerThresholdPct   float64 `yaml:"danger_threshold_pct"`
	ModerateThresholdPct float64 `yaml:"moderate_threshold_pct"`

	// Synthesis
	CompoundingCorrelationPct int `yaml:"compounding_correlation_pct"`

	// Coordinator
	PerCallTimeout  time.Duration `yaml:"per_call_timeout"`
	OverallDeadline time.Duration `yaml:"overall_deadline"`

	// Knowledge store
	Backend KnowledgeBackend `yaml:"knowledge_backend"`
}

// Default returns the engine configuration matching the documented defaults:
// 90-day window, 60% danger threshold, 40% moderate threshold, 85% compounding
// correlation, 10s per-call timeout, 60s overall deadline, graph backend.
func Default() Engine {
	return Engine{
		TrailingWindowDays:        90,
		MinRequiredDataDays:       60,
		MaxExcludedValueRatio:     0.5,
		DangerThresholdPct:        60.0,
		ModerateThresholdPct:      40.0,
		CompoundingCorrelationPct: 85,
		PerCallTimeout:            10 * time.Second,
		OverallDeadline:           60 * time.Second,
		Backend:                   BackendGraph,
	}
}

// Load reads an engine configuration from a YAML file. Fields absent from the
// file keep their defaults.
func Load(path string) (Engine, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read engine config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse engine config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks threshold and timeout sanity.
func (e Engine) Validate() error {
	if e.TrailingWindowDays < 2 {
		return fmt.Errorf("trailing_window_days %d below minimum of 2", e.TrailingWindowDays)
	}
	if e.MinRequiredDataDays < 1 || e.MinRequiredDataDays > e.TrailingWindowDays {
		return fmt.Errorf("min_required_data_days %d outside [1, %d]", e.MinRequiredDataDays, e.TrailingWindowDays)
	}
	if e.MaxExcludedValueRatio < 0 || e.MaxExcludedValueRatio > 1 {
		return fmt.Errorf("max_excluded_value_ratio %.2f outside [0, 1]", e.MaxExcludedValueRatio)
	}
	if e.DangerThresholdPct <= 0 || e.DangerThresholdPct > 100 {
		return fmt.Errorf("danger_threshold_pct %.1f outside (0, 100]", e.DangerThresholdPct)
	}
	if e.ModerateThresholdPct <= 0 || e.ModerateThresholdPct >= e.DangerThresholdPct {
		return fmt.Errorf("moderate_threshold_pct %.1f must be in (0, %.1f)", e.ModerateThresholdPct, e.DangerThresholdPct)
	}
	if e.CompoundingCorrelationPct < 0 || e.CompoundingCorrelationPct > 100 {
		return fmt.Errorf("compounding_correlation_pct %d outside [0, 100]", e.CompoundingCorrelationPct)
	}
	if e.PerCallTimeout <= 0 {
		return fmt.Errorf("per_call_timeout must be positive, got %s", e.PerCallTimeout)
	}
	if e.OverallDeadline < e.PerCallTimeout {
		return fmt.Errorf("overall_deadline %s shorter than per_call_timeout %s", e.OverallDeadline, e.PerCallTimeout)
	}
	switch e.Backend {
	case BackendGraph, BackendTable:
	default:
		return fmt.Errorf("unknown knowledge_backend %q", e.Backend)
	}
	return nil
}
