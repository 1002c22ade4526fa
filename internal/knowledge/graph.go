package knowledge

import (
	"context"
	"sort"

	"github.com/covariant-labs/guardian/internal/domain"
)

// Graph predicates. Each scenario record is decomposed into facts at load
// time; queries pattern-match over the fact index rather than walking the
// original records.
const (
	predBracketLoss   = "bracket-loss"
	predCategoryLoss  = "category-loss"
	predOpportunity   = "opportunity"
	predRecoveryWin   = "recovery-winner"
)

// fact is a single edge in the scenario graph: subject scenario, predicate,
// object (bracket or category name), and a numeric payload.
type fact struct {
	Scenario  string
	Predicate string
	Object    string
	Value     float64
	Aux       domain.OpportunityCost
}

// GraphStore is the primary backend: scenario records decomposed into a
// predicate-indexed fact graph queried by pattern matching. Output is
// byte-identical to TableStore for identical input.
type GraphStore struct {
	facts map[string][]fact                 // predicate -> facts, scenario-id ordered
	meta  map[string]domain.ScenarioRecord  // scenario id -> header fields
}

// NewGraphStore loads the scenario records into the fact graph.
func NewGraphStore(records []domain.ScenarioRecord) *GraphStore {
	g := &GraphStore{
		facts: make(map[string][]fact),
		meta:  make(map[string]domain.ScenarioRecord),
	}

	for _, rec := range sortedScenarios(records) {
		g.meta[rec.ScenarioID] = rec

		// Map iteration order is unspecified; emit bracket and category
		// facts in sorted object order so matches are reproducible.
		brackets := make([]string, 0, len(rec.BracketLosses))
		for b := range rec.BracketLosses {
			brackets = append(brackets, string(b))
		}
		sort.Strings(brackets)
		for _, b := range brackets {
			g.add(fact{rec.ScenarioID, predBracketLoss, b, rec.BracketLosses[domain.CoMovementBracket(b)], domain.OpportunityCost{}})
		}

		categories := make([]string, 0, len(rec.CategoryLosses))
		for c := range rec.CategoryLosses {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			g.add(fact{rec.ScenarioID, predCategoryLoss, c, rec.CategoryLosses[c], domain.OpportunityCost{}})
		}

		for _, oc := range rec.OpportunityCosts {
			g.add(fact{rec.ScenarioID, predOpportunity, oc.Category, oc.RecoveryGainPct, oc})
		}
		for _, w := range rec.RecoveryWinners {
			g.add(fact{rec.ScenarioID, predRecoveryWin, w, 0, domain.OpportunityCost{}})
		}
	}

	return g
}

func (g *GraphStore) add(f fact) {
	g.facts[f.Predicate] = append(g.facts[f.Predicate], f)
}

// match returns all facts with the given predicate whose object equals obj;
// an empty obj matches any object. Results keep load order (scenario-id
// ordered within a predicate).
func (g *GraphStore) match(predicate, obj string) []fact {
	var out []fact
	for _, f := range g.facts[predicate] {
		if obj != "" && f.Object != obj {
			continue
		}
		out = append(out, f)
	}
	return out
}

// LookupBracketPerformance pattern-matches (?scenario bracket-loss bracket).
func (g *GraphStore) LookupBracketPerformance(_ context.Context, bracket domain.CoMovementBracket) ([]domain.BracketExcerpt, error) {
	var excerpts []domain.BracketExcerpt
	for _, f := range g.match(predBracketLoss, string(bracket)) {
		rec := g.meta[f.Scenario]
		excerpts = append(excerpts, domain.BracketExcerpt{
			ScenarioID:       rec.ScenarioID,
			DisplayName:      rec.DisplayName,
			PeriodLabel:      rec.PeriodLabel,
			ExpectedLossPct:  f.Value,
			ReferenceLossPct: rec.ReferenceDrawdownPct,
			MarketAvgLossPct: rec.MarketAvgLossPct,
		})
	}
	return excerpts, nil
}

// LookupCategoryPerformance pattern-matches (?scenario category-loss category).
func (g *GraphStore) LookupCategoryPerformance(_ context.Context, category string) ([]domain.CategoryExcerpt, error) {
	var excerpts []domain.CategoryExcerpt
	for _, f := range g.match(predCategoryLoss, category) {
		rec := g.meta[f.Scenario]
		excerpts = append(excerpts, domain.CategoryExcerpt{
			ScenarioID:       rec.ScenarioID,
			DisplayName:      rec.DisplayName,
			PeriodLabel:      rec.PeriodLabel,
			CategoryLossPct:  f.Value,
			MarketAvgLossPct: rec.MarketAvgLossPct,
		})
	}
	return excerpts, nil
}

// LookupOpportunityCost pattern-matches (?scenario opportunity ?category),
// filters out the caller's category, and keeps the highest recovery gain.
func (g *GraphStore) LookupOpportunityCost(_ context.Context, category string) (string, error) {
	var (
		best  fact
		found bool
	)
	for _, f := range g.match(predOpportunity, "") {
		if f.Object == category {
			continue
		}
		if !found || f.Value > best.Value {
			best, found = f, true
		}
	}
	if !found {
		return "", nil
	}
	return formatOpportunityCost(g.meta[best.Scenario], best.Aux), nil
}

// LookupDualRisk joins (?s bracket-loss bracket) with (?s category-loss
// category) on the scenario and keeps the deepest category loss.
func (g *GraphStore) LookupDualRisk(_ context.Context, bracket domain.CoMovementBracket, category string) (*DualRiskRecord, error) {
	bracketByScenario := make(map[string]float64)
	for _, f := range g.match(predBracketLoss, string(bracket)) {
		bracketByScenario[f.Scenario] = f.Value
	}

	var worst *DualRiskRecord
	for _, f := range g.match(predCategoryLoss, category) {
		bracketLoss, ok := bracketByScenario[f.Scenario]
		if !ok {
			continue
		}
		if worst == nil || f.Value < worst.CategoryLossPct {
			rec := g.meta[f.Scenario]
			worst = &DualRiskRecord{
				ScenarioID:      rec.ScenarioID,
				DisplayName:     rec.DisplayName,
				PeriodLabel:     rec.PeriodLabel,
				BracketLossPct:  bracketLoss,
				CategoryLossPct: f.Value,
			}
		}
	}
	return worst, nil
}
