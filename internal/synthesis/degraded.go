package synthesis

import (
	"fmt"

	"github.com/covariant-labs/guardian/internal/analyzer/concentration"
	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
	"github.com/covariant-labs/guardian/internal/domain"
)

// SynthesizeCorrelationOnly produces a degraded judgment from the correlation
// analysis alone. The note must identify which analyzer was lost and is
// carried verbatim into the narrative so a one-sided analysis is never
// presented as complete.
func (e *Engine) SynthesizeCorrelationOnly(corr correlation.Result, note string) Result {
	level := RiskLow
	if !corr.InsufficientData {
		switch corr.Bracket {
		case domain.BracketHigh:
			level = RiskHigh
		case domain.BracketModerate:
			level = RiskModerate
		}
	}

	result := Result{
		Correlation:      corr,
		RiskMultiplier:   1.0,
		OverallRiskLevel: level,
		Narrative: fmt.Sprintf(
			"PARTIAL ANALYSIS: %s. This judgment is based on correlation alone; category concentration is unknown and compounding risk could not be assessed. Overall risk level: %s.",
			note, level),
	}

	if !corr.InsufficientData && corr.Percentage >= 70 {
		result.Recommendations = []Recommendation{e.correlationRec(1, corr)}
	} else {
		result.Recommendations = []Recommendation{{
			Rank:           1,
			Action:         "Re-run the analysis once both analyzers are available",
			Rationale:      "Correlation alone shows no elevated risk, but concentration was not assessed.",
			ExpectedImpact: "A complete run rules out compounding risk invisible to a single analyzer.",
		}}
	}
	return result
}

// SynthesizeConcentrationOnly produces a degraded judgment from the
// concentration analysis alone.
func (e *Engine) SynthesizeConcentrationOnly(conc concentration.Result, note string) Result {
	level := RiskLow
	switch conc.Label {
	case concentration.HighConcentration:
		level = RiskHigh
	case concentration.Moderate:
		level = RiskModerate
	}

	result := Result{
		Concentration:    conc,
		Correlation:      correlation.Result{InsufficientData: true, Narrative: "correlation analysis unavailable"},
		RiskMultiplier:   1.0,
		OverallRiskLevel: level,
		Narrative: fmt.Sprintf(
			"PARTIAL ANALYSIS: %s. This judgment is based on concentration alone; reference correlation is unknown and compounding risk could not be assessed. Overall risk level: %s.",
			note, level),
	}

	if len(conc.Concentrated) > 0 || conc.Label == concentration.Moderate {
		result.Recommendations = []Recommendation{e.concentrationRec(1, conc)}
	} else {
		result.Recommendations = []Recommendation{{
			Rank:           1,
			Action:         "Re-run the analysis once both analyzers are available",
			Rationale:      "Concentration alone shows no elevated risk, but correlation was not assessed.",
			ExpectedImpact: "A complete run rules out compounding risk invisible to a single analyzer.",
		}}
	}
	return result
}
