// Package concentration maps holdings to named categories, computes
// per-category portfolio shares, flags dangerous concentration, and attaches
// historical scenario and opportunity-cost context.
package concentration

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/covariant-labs/guardian/internal/config"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/knowledge"
)

// DiversificationLabel grades the portfolio's category spread.
type DiversificationLabel string

const (
	WellDiversified   DiversificationLabel = "WellDiversified"
	Moderate          DiversificationLabel = "Moderate"
	HighConcentration DiversificationLabel = "HighConcentration"
)

// CategoryHolding aggregates the holdings mapped to one category.
type CategoryHolding struct {
	Category   string          `json:"category"`
	Value      decimal.Decimal `json:"value"`
	Percentage float64         `json:"percentage"`
	Symbols    []string        `json:"symbols"`
}

// CategoryRisk carries the historical context for one concentrated category.
type CategoryRisk struct {
	Category         string                   `json:"category"`
	ScenarioContexts []domain.CategoryExcerpt `json:"scenario_contexts"`
	OpportunityCost  string                   `json:"opportunity_cost"`
}

// Result is the concentration analysis output.
type Result struct {
	Breakdown       map[string]CategoryHolding `json:"breakdown"`
	Concentrated    []string                   `json:"concentrated_categories"`
	Label           DiversificationLabel       `json:"diversification_label"`
	CategoryRisks   []CategoryRisk             `json:"category_risks"`
	UnknownSymbols  []string                   `json:"unknown_symbols,omitempty"`
	UnknownSharePct float64                    `json:"unknown_share_pct"`
	Narrative       string                     `json:"narrative"`
}

// Analyzer computes concentration results. Like the correlation analyzer it
// is a pure function of (snapshot, mapping table, configuration).
type Analyzer struct {
	cfg   config.Engine
	store knowledge.Store
}

// NewAnalyzer constructs a concentration analyzer.
func NewAnalyzer(cfg config.Engine, store knowledge.Store) *Analyzer {
	return &Analyzer{cfg: cfg, store: store}
}

// Analyze groups holdings by category and computes each category's share of
// total value. Symbols absent from the mapping accumulate separately as
// unknown exposure: excluded from category percentages but kept in the
// denominator, so unknown exposure depresses rather than inflates the others.
func (a *Analyzer) Analyze(ctx context.Context, snapshot domain.PortfolioSnapshot, categories map[string]string) (Result, error) {
	if err := snapshot.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid portfolio snapshot: %w", err)
	}

	breakdown := make(map[string]CategoryHolding)
	var unknown []string
	unknownValue := decimal.Zero

	for _, h := range snapshot.Holdings {
		category, ok := categories[h.Symbol]
		if !ok {
			unknown = append(unknown, h.Symbol)
			unknownValue = unknownValue.Add(h.Value)
			continue
		}
		ch := breakdown[category]
		ch.Category = category
		ch.Value = ch.Value.Add(h.Value)
		ch.Symbols = append(ch.Symbols, h.Symbol)
		breakdown[category] = ch
	}
	sort.Strings(unknown)

	total := snapshot.TotalValue
	var concentrated []string
	largestShare := 0.0
	for name, ch := range breakdown {
		share, _ := ch.Value.Div(total).Float64()
		ch.Percentage = share * 100
		breakdown[name] = ch

		if ch.Percentage > largestShare {
			largestShare = ch.Percentage
		}
		if ch.Percentage > a.cfg.DangerThresholdPct {
			concentrated = append(concentrated, name)
		}
	}
	sort.Strings(concentrated)

	unknownShare, _ := unknownValue.Div(total).Float64()

	label := WellDiversified
	switch {
	case len(concentrated) > 0:
		label = HighConcentration
	case largestShare >= a.cfg.ModerateThresholdPct:
		label = Moderate
	}

	risks := a.categoryRisks(ctx, concentrated)

	result := Result{
		Breakdown:       breakdown,
		Concentrated:    concentrated,
		Label:           label,
		CategoryRisks:   risks,
		UnknownSymbols:  unknown,
		UnknownSharePct: unknownShare * 100,
	}
	result.Narrative = a.narrative(result)
	return result, nil
}

// categoryRisks queries the knowledge store for each concentrated category.
// Missing context degrades to an empty excerpt list, never to a failure.
func (a *Analyzer) categoryRisks(ctx context.Context, concentrated []string) []CategoryRisk {
	risks := make([]CategoryRisk, 0, len(concentrated))
	for _, category := range concentrated {
		contexts, err := a.store.LookupCategoryPerformance(ctx, category)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("category performance lookup failed")
			contexts = nil
		}
		opportunity, err := a.store.LookupOpportunityCost(ctx, category)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("opportunity cost lookup failed")
			opportunity = ""
		}
		risks = append(risks, CategoryRisk{
			Category:         category,
			ScenarioContexts: contexts,
			OpportunityCost:  opportunity,
		})
	}
	return risks
}

func (a *Analyzer) narrative(r Result) string {
	var b strings.Builder

	names := make([]string, 0, len(r.Breakdown))
	for name := range r.Breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.Breakdown[names[i]].Percentage > r.Breakdown[names[j]].Percentage
	})

	fmt.Fprintf(&b, "Your portfolio spans %d categories:", len(names))
	for _, name := range names {
		ch := r.Breakdown[name]
		fmt.Fprintf(&b, " %s %.1f%% (%s);", name, ch.Percentage, strings.Join(ch.Symbols, ", "))
	}
	if len(r.UnknownSymbols) > 0 {
		fmt.Fprintf(&b, " %.1f%% of value is in unmapped symbols (%s), counted against the total but no category.",
			r.UnknownSharePct, strings.Join(r.UnknownSymbols, ", "))
	}

	if len(r.Concentrated) == 0 {
		fmt.Fprintf(&b, " No category exceeds the %.0f%% danger threshold: no concentration warnings.", a.cfg.DangerThresholdPct)
		return b.String()
	}

	for _, risk := range r.CategoryRisks {
		pct := r.Breakdown[risk.Category].Percentage
		fmt.Fprintf(&b, " WARNING: %.1f%% of your portfolio is concentrated in %s.", pct, risk.Category)
		for _, sc := range risk.ScenarioContexts {
			fmt.Fprintf(&b, " In the %s (%s) this category lost %.0f%% vs %.0f%% market average.",
				sc.DisplayName, sc.PeriodLabel, math.Abs(sc.CategoryLossPct), math.Abs(sc.MarketAvgLossPct))
		}
		if risk.OpportunityCost != "" {
			b.WriteString(" " + risk.OpportunityCost)
		}
	}
	return b.String()
}
