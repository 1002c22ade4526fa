// Package data loads the engine's operator-editable YAML inputs: scenario
// records, symbol category mappings, price history fixtures and demo
// portfolios. Every loader validates on read so a malformed file fails at
// startup, not mid-analysis.
package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/covariant-labs/guardian/internal/domain"
)

// scenariosFile is the on-disk shape of data/scenarios.yaml.
type scenariosFile struct {
	Scenarios []domain.ScenarioRecord `yaml:"scenarios"`
}

// LoadScenarios reads scenario records from a YAML file.
func LoadScenarios(path string) ([]domain.ScenarioRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios file: %w", err)
	}

	var file scenariosFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios file: %w", err)
	}

	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("scenarios file %s contains no scenarios", path)
	}

	seen := make(map[string]bool, len(file.Scenarios))
	for i, s := range file.Scenarios {
		if s.ScenarioID == "" {
			return nil, fmt.Errorf("scenario %d is missing scenario_id", i)
		}
		if seen[s.ScenarioID] {
			return nil, fmt.Errorf("duplicate scenario_id %s", s.ScenarioID)
		}
		seen[s.ScenarioID] = true
		if len(s.BracketLosses) == 0 {
			return nil, fmt.Errorf("scenario %s has no bracket losses", s.ScenarioID)
		}
	}

	return file.Scenarios, nil
}
