package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
)

// pricesFile is the on-disk shape of a daily close-price history file. The
// reference series belongs to the market benchmark asset; constituents are
// keyed by symbol.
type pricesFile struct {
	Reference    []float64            `yaml:"reference"`
	Constituents map[string][]float64 `yaml:"constituents"`
}

// LoadPrices reads a price history file into a PriceSet.
func LoadPrices(path string) (correlation.PriceSet, error) {
	var set correlation.PriceSet

	raw, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("failed to read prices file: %w", err)
	}

	var file pricesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return set, fmt.Errorf("failed to parse prices file: %w", err)
	}

	if len(file.Reference) == 0 {
		return set, fmt.Errorf("prices file %s has no reference series", path)
	}
	for symbol, series := range file.Constituents {
		for i, p := range series {
			if p <= 0 {
				return set, fmt.Errorf("constituent %s has non-positive price at index %d", symbol, i)
			}
		}
	}
	for i, p := range file.Reference {
		if p <= 0 {
			return set, fmt.Errorf("reference series has non-positive price at index %d", i)
		}
	}

	set.Reference = file.Reference
	set.Constituents = make(map[string][]float64, len(file.Constituents))
	for symbol, series := range file.Constituents {
		set.Constituents[strings.ToUpper(symbol)] = series
	}

	return set, nil
}
