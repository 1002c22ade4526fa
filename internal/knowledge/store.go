// Package knowledge answers lookups of category and co-movement-bracket
// performance during named historical stress scenarios. Two interchangeable
// backends satisfy the same contract with byte-identical output: a graph
// backend performing pattern-matching queries over loaded triples, and a
// table backend performing direct lookups over preloaded scenario records.
// Callers never see which backend served a call.
package knowledge

import (
	"context"
	"fmt"
	"sort"

	"github.com/covariant-labs/guardian/internal/domain"
)

// DualRiskRecord is the joint bracket x category historical record used by
// synthesis to ground the risk multiplier. A scenario constitutes a joint
// record when it carries losses for both the bracket and the category.
type DualRiskRecord struct {
	ScenarioID      string  `json:"scenario_id"`
	DisplayName     string  `json:"display_name"`
	PeriodLabel     string  `json:"period_label"`
	BracketLossPct  float64 `json:"bracket_loss_pct"`
	CategoryLossPct float64 `json:"category_loss_pct"`
}

// Store is the historical knowledge lookup contract. Implementations must be
// safe for unsynchronized concurrent reads; loaded reference tables are never
// mutated after load.
type Store interface {
	// LookupBracketPerformance returns excerpts for every scenario that
	// records a loss for the given bracket, ordered by scenario id.
	LookupBracketPerformance(ctx context.Context, bracket domain.CoMovementBracket) ([]domain.BracketExcerpt, error)

	// LookupCategoryPerformance returns excerpts for every scenario that
	// records a loss for the given category, ordered by scenario id.
	LookupCategoryPerformance(ctx context.Context, category string) ([]domain.CategoryExcerpt, error)

	// LookupOpportunityCost returns a narrative describing what alternative
	// categories returned during recovery windows, relative to the given
	// concentrated category. Empty string means no context is available.
	LookupOpportunityCost(ctx context.Context, category string) (string, error)

	// LookupDualRisk returns the worst joint record for the bracket and
	// category, or nil when no scenario carries both.
	LookupDualRisk(ctx context.Context, bracket domain.CoMovementBracket, category string) (*DualRiskRecord, error)
}

// sortedScenarios returns records ordered by scenario id so that both
// backends emit identical sequences for identical input.
func sortedScenarios(records []domain.ScenarioRecord) []domain.ScenarioRecord {
	out := make([]domain.ScenarioRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].ScenarioID < out[j].ScenarioID })
	return out
}

// formatOpportunityCost renders the shared opportunity-cost narrative. Both
// backends funnel through this so their output stays byte-identical.
func formatOpportunityCost(scenario domain.ScenarioRecord, oc domain.OpportunityCost) string {
	return fmt.Sprintf(
		"During the %s recovery (%s), %s holdings like %s gained %.0f%%. %s",
		scenario.DisplayName, scenario.RecoveryPeriodLabel,
		oc.Category, oc.BestPerformer, oc.RecoveryGainPct, oc.Reason,
	)
}
