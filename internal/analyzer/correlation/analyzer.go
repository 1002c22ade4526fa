// Package correlation computes a portfolio's statistical co-movement against
// a designated reference asset over a fixed trailing window and classifies it
// into a qualitative bracket with historical scenario context.
package correlation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/covariant-labs/guardian/internal/config"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/knowledge"
)

// PriceSet carries the pre-loaded daily close series (oldest first) for the
// reference asset and the portfolio constituents. The engine never fetches
// prices itself.
type PriceSet struct {
	Reference    []float64
	Constituents map[string][]float64
}

// Result is the correlation analysis output. When InsufficientData is true
// the coefficient, percentage, and bracket fields are not meaningful and the
// narrative explains why no coefficient could be computed.
type Result struct {
	Coefficient      float64                  `json:"coefficient"`
	Percentage       int                      `json:"percentage"`
	Bracket          domain.CoMovementBracket `json:"bracket"`
	ScenarioContexts []domain.BracketExcerpt  `json:"scenario_contexts"`
	ExcludedSymbols  []string                 `json:"excluded_symbols,omitempty"`
	InsufficientData bool                     `json:"insufficient_data"`
	WindowDays       int                      `json:"window_days"`
	Narrative        string                   `json:"narrative"`
}

// Analyzer computes correlation results. It is stateless per invocation: the
// result is a pure function of (snapshot, prices, configuration).
type Analyzer struct {
	cfg   config.Engine
	store knowledge.Store
}

// NewAnalyzer constructs a correlation analyzer over the given knowledge
// store and configuration.
func NewAnalyzer(cfg config.Engine, store knowledge.Store) *Analyzer {
	return &Analyzer{cfg: cfg, store: store}
}

// Analyze computes the value-weighted portfolio return series and its Pearson
// correlation against the reference asset.
//
// Weights are the holdings' value shares at snapshot time, held fixed across
// the window. This is a documented simplifying approximation, not a true
// rebalanced return.
func (a *Analyzer) Analyze(ctx context.Context, snapshot domain.PortfolioSnapshot, prices PriceSet) (Result, error) {
	if err := snapshot.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid portfolio snapshot: %w", err)
	}

	window := a.cfg.TrailingWindowDays
	refReturns := tail(dailyReturns(prices.Reference), window)
	if len(refReturns) < a.cfg.MinRequiredDataDays {
		return a.insufficient(window, nil, fmt.Sprintf(
			"insufficient data: reference asset has %d return days, need at least %d",
			len(refReturns), a.cfg.MinRequiredDataDays)), nil
	}

	// Per-holding returns over the window. Holdings without enough history
	// are excluded from weighting with an explicit narrative note.
	type constituent struct {
		symbol  string
		weight  float64
		returns []float64
	}
	var (
		kept          []constituent
		excluded      []string
		excludedShare float64
	)
	for _, h := range snapshot.Holdings {
		share := snapshot.ValueShare(h)
		returns := tail(dailyReturns(prices.Constituents[h.Symbol]), window)
		if len(returns) < a.cfg.MinRequiredDataDays {
			excluded = append(excluded, h.Symbol)
			excludedShare += share
			continue
		}
		kept = append(kept, constituent{symbol: h.Symbol, weight: share, returns: returns})
	}
	sort.Strings(excluded)

	if len(kept) == 0 {
		return a.insufficient(window, excluded,
			"insufficient data: no holding has enough price history for the trailing window"), nil
	}
	if excludedShare > a.cfg.MaxExcludedValueRatio {
		return a.insufficient(window, excluded, fmt.Sprintf(
			"insufficient data: %.0f%% of portfolio value lacks price history (limit %.0f%%)",
			excludedShare*100, a.cfg.MaxExcludedValueRatio*100)), nil
	}

	// Re-normalize the kept weights so they sum to one, then align every
	// series on the shortest common tail.
	common := len(refReturns)
	keptShare := 1 - excludedShare
	for i := range kept {
		kept[i].weight /= keptShare
		if len(kept[i].returns) < common {
			common = len(kept[i].returns)
		}
	}
	if common < a.cfg.MinRequiredDataDays {
		return a.insufficient(window, excluded, fmt.Sprintf(
			"insufficient data: only %d overlapping return days across holdings, need %d",
			common, a.cfg.MinRequiredDataDays)), nil
	}

	portfolioReturns := make([]float64, common)
	for _, c := range kept {
		series := tail(c.returns, common)
		for i, r := range series {
			portfolioReturns[i] += c.weight * r
		}
	}

	coefficient := pearson(portfolioReturns, tail(refReturns, common))
	percentage := int(math.Round(math.Abs(coefficient) * 100))
	bracket := domain.ClassifyBracket(percentage)

	contexts, err := a.store.LookupBracketPerformance(ctx, bracket)
	if err != nil {
		// The resilient store never errors, but a bare backend might.
		log.Warn().Err(err).Msg("bracket performance lookup failed, continuing without context")
		contexts = nil
	}

	result := Result{
		Coefficient:      coefficient,
		Percentage:       percentage,
		Bracket:          bracket,
		ScenarioContexts: contexts,
		ExcludedSymbols:  excluded,
		WindowDays:       window,
	}
	result.Narrative = a.narrative(result, coefficient >= 0)
	return result, nil
}

func (a *Analyzer) insufficient(window int, excluded []string, reason string) Result {
	return Result{
		InsufficientData: true,
		ExcludedSymbols:  excluded,
		WindowDays:       window,
		Narrative:        reason,
	}
}

// narrative renders the plain-language explanation, covering all available
// scenarios rather than just one.
func (a *Analyzer) narrative(r Result, positive bool) string {
	direction := "positively"
	if !positive {
		direction = "negatively"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your portfolio is %d%% %s correlated with the reference asset over the past %d days. This is %s correlation.",
		r.Percentage, direction, r.WindowDays, strings.ToLower(string(r.Bracket)))

	if len(r.ExcludedSymbols) > 0 {
		fmt.Fprintf(&b, " Excluded from weighting for lack of price history: %s.",
			strings.Join(r.ExcludedSymbols, ", "))
	}

	if len(r.ScenarioContexts) == 0 {
		b.WriteString(" No historical scenario context is available.")
		return b.String()
	}

	b.WriteString(" Historical performance for portfolios in this bracket:")
	for _, sc := range r.ScenarioContexts {
		fmt.Fprintf(&b, " %s (%s): lost %.0f%% vs %.0f%% market average (reference drew down %.0f%%).",
			sc.DisplayName, sc.PeriodLabel, math.Abs(sc.ExpectedLossPct), math.Abs(sc.MarketAvgLossPct), math.Abs(sc.ReferenceLossPct))
	}
	return b.String()
}
