package synthesis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/covariant-labs/guardian/internal/analyzer/concentration"
	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
)

// recommend produces 1-3 ranked recommendations. The generation is rule-based
// and deterministic: identical inputs always yield the identical list. Under
// compounding risk the top rank addresses category concentration before
// correlation, because reducing concentration typically also reduces
// correlation when the concentrated category co-moves with the reference.
func (e *Engine) recommend(compounding bool, level RiskLevel, corr correlation.Result, conc concentration.Result) []Recommendation {
	var recs []Recommendation

	switch {
	case compounding:
		recs = append(recs,
			e.concentrationRec(1, conc),
			e.correlationRec(2, corr),
			Recommendation{
				Rank:   3,
				Action: "Address category concentration before correlation",
				Rationale: "When both risks are present, the concentrated category amplifies reference " +
					"correlation; trimming it reduces both dimensions at once.",
				ExpectedImpact: "A single rebalancing acts on both risk factors, shrinking the compounding multiplier first.",
			},
		)

	case conc.Label == concentration.WellDiversified && !corr.InsufficientData && corr.Percentage < 70:
		recs = append(recs, e.maintainRec(corr, conc))

	default:
		rank := 1
		if !corr.InsufficientData && corr.Percentage >= 70 {
			recs = append(recs, e.correlationRec(rank, corr))
			rank++
		}
		if len(conc.Concentrated) > 0 || conc.Label == concentration.Moderate {
			recs = append(recs, e.concentrationRec(rank, conc))
			rank++
		}
		if len(recs) == 0 {
			recs = append(recs, e.maintainRec(corr, conc))
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Rank < recs[j].Rank })
	return recs
}

func (e *Engine) correlationRec(rank int, corr correlation.Result) Recommendation {
	expectedLoss := 0.0
	scenarioName := ""
	if len(corr.ScenarioContexts) > 0 {
		expectedLoss = math.Abs(corr.ScenarioContexts[0].ExpectedLossPct)
		scenarioName = corr.ScenarioContexts[0].DisplayName
	}

	rationale := fmt.Sprintf("At %d%% correlation the portfolio moves nearly in lockstep with the reference asset.", corr.Percentage)
	impact := "Lowering correlation below 80% decouples the portfolio from reference-asset drawdowns."
	if scenarioName != "" {
		rationale = fmt.Sprintf("%s Portfolios at this level lost %.0f%% in the %s.", rationale, expectedLoss, scenarioName)
		impact = fmt.Sprintf("Reducing correlation below 80%% would have materially limited the %s loss.", scenarioName)
	}

	return Recommendation{
		Rank:           rank,
		Action:         fmt.Sprintf("Add uncorrelated assets to reduce reference correlation from %d%% to below 80%%", corr.Percentage),
		Rationale:      rationale,
		ExpectedImpact: impact,
	}
}

func (e *Engine) concentrationRec(rank int, conc concentration.Result) Recommendation {
	category := topConcentrated(conc)
	if category == "" {
		// Moderate label without a concentrated category: name the largest.
		largest := -1.0
		for name, ch := range conc.Breakdown {
			if ch.Percentage > largest {
				category, largest = name, ch.Percentage
			}
		}
	}
	pct := conc.Breakdown[category].Percentage

	rationale := fmt.Sprintf("A %.0f%% share in %s means a single-category drawdown dominates the portfolio.", pct, category)
	impact := fmt.Sprintf("Bringing %s below %.0f%% removes the single largest structural exposure.", category, e.cfg.ModerateThresholdPct)
	for _, risk := range conc.CategoryRisks {
		if risk.Category != category || len(risk.ScenarioContexts) == 0 {
			continue
		}
		sc := risk.ScenarioContexts[0]
		rationale = fmt.Sprintf("%s %s lost %.0f%% in the %s.", rationale, category, math.Abs(sc.CategoryLossPct), sc.DisplayName)
		if risk.OpportunityCost != "" {
			impact = fmt.Sprintf("%s %s", impact, risk.OpportunityCost)
		}
		break
	}

	return Recommendation{
		Rank:           rank,
		Action:         fmt.Sprintf("Reduce %s concentration from %.0f%% to below %.0f%%", category, pct, e.cfg.ModerateThresholdPct),
		Rationale:      rationale,
		ExpectedImpact: impact,
	}
}

// maintainRec frames the advice as "maintain" with no fabricated urgency for
// portfolios that are well diversified and weakly correlated.
func (e *Engine) maintainRec(corr correlation.Result, conc concentration.Result) Recommendation {
	var top []string
	names := make([]string, 0, len(conc.Breakdown))
	for name := range conc.Breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if conc.Breakdown[names[i]].Percentage != conc.Breakdown[names[j]].Percentage {
			return conc.Breakdown[names[i]].Percentage > conc.Breakdown[names[j]].Percentage
		}
		return names[i] < names[j]
	})
	for i, name := range names {
		if i == 3 {
			break
		}
		top = append(top, fmt.Sprintf("%s (%.0f%%)", name, conc.Breakdown[name].Percentage))
	}

	rationale := "The current allocation limits compounding risk."
	if !corr.InsufficientData {
		rationale = fmt.Sprintf("Your %d%% reference correlation and balanced allocation (%s) limit compounding risk.",
			corr.Percentage, strings.Join(top, ", "))
	}

	return Recommendation{
		Rank:      1,
		Action:    "Maintain the current balanced portfolio structure",
		Rationale: rationale,
		ExpectedImpact: fmt.Sprintf("Reviewing correlation and category shares periodically keeps the structure inside the %.0f%% moderate threshold.",
			e.cfg.ModerateThresholdPct),
	}
}
