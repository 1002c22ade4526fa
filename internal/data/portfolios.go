package data

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/covariant-labs/guardian/internal/domain"
)

// portfoliosFile is the on-disk shape of data/portfolios.yaml, used for demo
// runs and the CLI analyze command.
type portfoliosFile struct {
	Portfolios map[string][]holdingEntry `yaml:"portfolios"`
}

type holdingEntry struct {
	Symbol    string  `yaml:"symbol"`
	Quantity  float64 `yaml:"quantity"`
	UnitPrice float64 `yaml:"unit_price"`
}

// LoadPortfolios reads named demo portfolios. Snapshots are stamped with the
// load time since the file carries no observation timestamps.
func LoadPortfolios(path string) (map[string]domain.PortfolioSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolios file: %w", err)
	}

	var file portfoliosFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse portfolios file: %w", err)
	}

	if len(file.Portfolios) == 0 {
		return nil, fmt.Errorf("portfolios file %s contains no portfolios", path)
	}

	now := time.Now().UTC()
	portfolios := make(map[string]domain.PortfolioSnapshot, len(file.Portfolios))
	for name, entries := range file.Portfolios {
		holdings := make([]domain.Holding, 0, len(entries))
		for _, e := range entries {
			h, err := domain.NewHolding(
				strings.ToUpper(e.Symbol),
				decimal.NewFromFloat(e.Quantity),
				decimal.NewFromFloat(e.UnitPrice),
			)
			if err != nil {
				return nil, fmt.Errorf("portfolio %s: %w", name, err)
			}
			holdings = append(holdings, h)
		}

		snapshot, err := domain.NewPortfolioSnapshot(name, holdings, now)
		if err != nil {
			return nil, fmt.Errorf("portfolio %s: %w", name, err)
		}
		portfolios[name] = snapshot
	}

	return portfolios, nil
}
