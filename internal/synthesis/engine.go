// Package synthesis combines the correlation and concentration analyses,
// detects the compounding-risk pattern, and produces a ranked, justified set
// of recommendations.
package synthesis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/covariant-labs/guardian/internal/analyzer/concentration"
	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
	"github.com/covariant-labs/guardian/internal/config"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/knowledge"
)

// RiskLevel is the overall structural risk judgment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Recommendation is one ranked, justified action.
type Recommendation struct {
	Rank           int    `json:"rank"`
	Action         string `json:"action"`
	Rationale      string `json:"rationale"`
	ExpectedImpact string `json:"expected_impact"`
}

// Result is the combined risk judgment. The embedded analyzer results are
// carried verbatim; the consuming layer is responsible for any summarization.
type Result struct {
	Correlation         correlation.Result   `json:"correlation"`
	Concentration       concentration.Result `json:"concentration"`
	CompoundingDetected bool                 `json:"compounding_detected"`
	RiskMultiplier      float64              `json:"risk_multiplier"`
	MultiplierValidated bool                 `json:"multiplier_validated"`
	OverallRiskLevel    RiskLevel            `json:"overall_risk_level"`
	Recommendations     []Recommendation     `json:"recommendations"`
	Narrative           string               `json:"narrative"`
}

// Engine synthesizes the two analyses. Given identical inputs and an
// identical knowledge dataset it always produces an identical Result,
// including recommendation order.
type Engine struct {
	cfg   config.Engine
	store knowledge.Store
}

// NewEngine constructs a synthesis engine.
func NewEngine(cfg config.Engine, store knowledge.Store) *Engine {
	return &Engine{cfg: cfg, store: store}
}

// Synthesize combines both analyses into the overall risk judgment.
func (e *Engine) Synthesize(ctx context.Context, corr correlation.Result, conc concentration.Result) Result {
	compounding := !corr.InsufficientData &&
		corr.Percentage > e.cfg.CompoundingCorrelationPct &&
		len(conc.Concentrated) > 0

	multiplier, dual := e.riskMultiplier(ctx, compounding, corr, conc)

	level := e.riskLevel(compounding, corr, conc)

	result := Result{
		Correlation:         corr,
		Concentration:       conc,
		CompoundingDetected: compounding,
		RiskMultiplier:      multiplier,
		MultiplierValidated: dual != nil,
		OverallRiskLevel:    level,
	}
	result.Recommendations = e.recommend(compounding, level, corr, conc)
	result.Narrative = e.narrative(result, dual)
	return result
}

// riskLevel applies the ordered, first-match mapping.
func (e *Engine) riskLevel(compounding bool, corr correlation.Result, conc concentration.Result) RiskLevel {
	switch {
	case compounding && corr.Percentage > 90:
		return RiskCritical
	case compounding:
		return RiskHigh
	case (!corr.InsufficientData && corr.Bracket == domain.BracketModerate) || conc.Label == concentration.Moderate:
		return RiskModerate
	default:
		return RiskLow
	}
}

// riskMultiplier grounds the multiplier in the joint bracket x category
// historical record when one exists; otherwise it defaults to 1.0 and the
// narrative states the figure is an estimate rather than historically
// validated.
func (e *Engine) riskMultiplier(ctx context.Context, compounding bool, corr correlation.Result, conc concentration.Result) (float64, *knowledge.DualRiskRecord) {
	if !compounding {
		return 1.0, nil
	}

	category := topConcentrated(conc)
	dual, err := e.store.LookupDualRisk(ctx, corr.Bracket, category)
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("dual-risk lookup failed, multiplier is an estimate")
		return 1.0, nil
	}
	if dual == nil || dual.BracketLossPct == 0 {
		return 1.0, nil
	}

	multiplier := dual.CategoryLossPct / dual.BracketLossPct
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	return multiplier, dual
}

// topConcentrated returns the concentrated category with the largest share,
// ties broken alphabetically (Concentrated is sorted).
func topConcentrated(conc concentration.Result) string {
	top := ""
	topPct := -1.0
	for _, name := range conc.Concentrated {
		if pct := conc.Breakdown[name].Percentage; pct > topPct {
			top, topPct = name, pct
		}
	}
	return top
}

func (e *Engine) narrative(r Result, dual *knowledge.DualRiskRecord) string {
	var b strings.Builder

	if r.Correlation.InsufficientData {
		b.WriteString("Correlation could not be computed from the available price history, so this judgment rests on concentration alone. ")
	}

	if r.CompoundingDetected {
		category := topConcentrated(r.Concentration)
		pct := r.Concentration.Breakdown[category].Percentage
		fmt.Fprintf(&b, "Compounding risk detected: %d%% reference correlation combined with %.0f%% concentration in %s. ",
			r.Correlation.Percentage, pct, category)
		if dual != nil {
			fmt.Fprintf(&b, "In the %s (%s), portfolios with this dual-risk structure lost %.0f%% versus %.0f%% from correlation alone, a %.2fx multiplier. ",
				dual.DisplayName, dual.PeriodLabel, math.Abs(dual.CategoryLossPct), math.Abs(dual.BracketLossPct), r.RiskMultiplier)
		} else {
			fmt.Fprintf(&b, "No joint historical record exists for this bracket and category, so the %.1fx multiplier is an estimate, not a historically validated figure. ",
				r.RiskMultiplier)
		}
	} else if !r.Correlation.InsufficientData {
		fmt.Fprintf(&b, "Your %d%% reference correlation and %s category structure do not form a compounding pattern. ",
			r.Correlation.Percentage, strings.ToLower(string(r.Concentration.Label)))
	}

	fmt.Fprintf(&b, "Overall risk level: %s.", r.OverallRiskLevel)
	return b.String()
}
