package knowledge

import (
	"context"

	"github.com/covariant-labs/guardian/internal/domain"
)

// TableStore is the deterministic fallback backend: direct lookups over
// preloaded scenario records.
type TableStore struct {
	records []domain.ScenarioRecord
}

// NewTableStore constructs a table backend over the given records. The
// records are copied and sorted once; they are never mutated afterwards.
func NewTableStore(records []domain.ScenarioRecord) *TableStore {
	return &TableStore{records: sortedScenarios(records)}
}

// LookupBracketPerformance returns one excerpt per scenario carrying the
// bracket, in scenario-id order.
func (t *TableStore) LookupBracketPerformance(_ context.Context, bracket domain.CoMovementBracket) ([]domain.BracketExcerpt, error) {
	var excerpts []domain.BracketExcerpt
	for _, rec := range t.records {
		loss, ok := rec.BracketLosses[bracket]
		if !ok {
			continue
		}
		excerpts = append(excerpts, domain.BracketExcerpt{
			ScenarioID:       rec.ScenarioID,
			DisplayName:      rec.DisplayName,
			PeriodLabel:      rec.PeriodLabel,
			ExpectedLossPct:  loss,
			ReferenceLossPct: rec.ReferenceDrawdownPct,
			MarketAvgLossPct: rec.MarketAvgLossPct,
		})
	}
	return excerpts, nil
}

// LookupCategoryPerformance returns one excerpt per scenario carrying the
// category, in scenario-id order.
func (t *TableStore) LookupCategoryPerformance(_ context.Context, category string) ([]domain.CategoryExcerpt, error) {
	var excerpts []domain.CategoryExcerpt
	for _, rec := range t.records {
		loss, ok := rec.CategoryLosses[category]
		if !ok {
			continue
		}
		excerpts = append(excerpts, domain.CategoryExcerpt{
			ScenarioID:       rec.ScenarioID,
			DisplayName:      rec.DisplayName,
			PeriodLabel:      rec.PeriodLabel,
			CategoryLossPct:  loss,
			MarketAvgLossPct: rec.MarketAvgLossPct,
		})
	}
	return excerpts, nil
}

// LookupOpportunityCost picks the highest recovery gain recorded outside the
// given category across all scenarios (ties broken by scenario-id order).
func (t *TableStore) LookupOpportunityCost(_ context.Context, category string) (string, error) {
	var (
		best         domain.OpportunityCost
		bestScenario domain.ScenarioRecord
		found        bool
	)
	for _, rec := range t.records {
		for _, oc := range rec.OpportunityCosts {
			if oc.Category == category {
				continue
			}
			if !found || oc.RecoveryGainPct > best.RecoveryGainPct {
				best, bestScenario, found = oc, rec, true
			}
		}
	}
	if !found {
		return "", nil
	}
	return formatOpportunityCost(bestScenario, best), nil
}

// LookupDualRisk returns the joint record with the deepest category loss
// among scenarios carrying both the bracket and the category.
func (t *TableStore) LookupDualRisk(_ context.Context, bracket domain.CoMovementBracket, category string) (*DualRiskRecord, error) {
	var worst *DualRiskRecord
	for _, rec := range t.records {
		bracketLoss, okB := rec.BracketLosses[bracket]
		categoryLoss, okC := rec.CategoryLosses[category]
		if !okB || !okC {
			continue
		}
		if worst == nil || categoryLoss < worst.CategoryLossPct {
			worst = &DualRiskRecord{
				ScenarioID:      rec.ScenarioID,
				DisplayName:     rec.DisplayName,
				PeriodLabel:     rec.PeriodLabel,
				BracketLossPct:  bracketLoss,
				CategoryLossPct: categoryLoss,
			}
		}
	}
	return worst, nil
}
