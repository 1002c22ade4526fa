package synthesis

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covariant-labs/guardian/internal/analyzer/concentration"
	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
	"github.com/covariant-labs/guardian/internal/config"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/knowledge"
)

func testStore() knowledge.Store {
	return knowledge.NewTableStore([]domain.ScenarioRecord{
		{
			ScenarioID:           "crash_2022",
			DisplayName:          "2022 bear market",
			PeriodLabel:          "Nov 2021 - Dec 2022",
			ReferenceDrawdownPct: -75,
			MarketAvgLossPct:     -55,
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh: -50,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -75,
			},
		},
	})
}

func corrResult(percentage int) correlation.Result {
	return correlation.Result{
		Coefficient: float64(percentage) / 100,
		Percentage:  percentage,
		Bracket:     domain.ClassifyBracket(percentage),
		WindowDays:  90,
	}
}

func concResult(concentratedPct float64, concentrated bool) concentration.Result {
	label := concentration.WellDiversified
	var concentratedList []string
	if concentrated {
		label = concentration.HighConcentration
		concentratedList = []string{"DeFi Governance"}
	}
	return concentration.Result{
		Breakdown: map[string]concentration.CategoryHolding{
			"DeFi Governance": {
				Category:   "DeFi Governance",
				Value:      decimal.NewFromFloat(concentratedPct * 100),
				Percentage: concentratedPct,
				Symbols:    []string{"UNI", "AAVE"},
			},
		},
		Concentrated: concentratedList,
		Label:        label,
	}
}

func TestCompoundingDetection(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())
	ctx := context.Background()

	cases := []struct {
		name         string
		percentage   int
		concentrated bool
		want         bool
	}{
		{"both risks present", 88, true, true},
		{"correlation at threshold is not compounding", 85, true, false},
		{"high correlation alone", 88, false, false},
		{"concentration alone", 50, true, false},
		{"neither risk", 50, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Synthesize(ctx, corrResult(tc.percentage), concResult(70, tc.concentrated))
			assert.Equal(t, tc.want, result.CompoundingDetected)
		})
	}
}

func TestRiskLevelMapping(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())
	ctx := context.Background()

	cases := []struct {
		name         string
		percentage   int
		concentrated bool
		want         RiskLevel
	}{
		{"critical above 90 with compounding", 95, true, RiskCritical},
		{"high when compounding at 88", 88, true, RiskHigh},
		{"exactly 90 with compounding stays high", 90, true, RiskHigh},
		{"moderate bracket without compounding", 75, false, RiskModerate},
		{"low when nothing elevated", 50, false, RiskLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Synthesize(ctx, corrResult(tc.percentage), concResult(70, tc.concentrated))
			assert.Equal(t, tc.want, result.OverallRiskLevel)
		})
	}
}

func TestValidatedMultiplierFromJointRecord(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	result := engine.Synthesize(context.Background(), corrResult(95), concResult(70, true))

	require.True(t, result.CompoundingDetected)
	assert.True(t, result.MultiplierValidated)
	assert.InDelta(t, 1.5, result.RiskMultiplier, 1e-9, "category loss -75 over bracket loss -50")
	assert.Contains(t, result.Narrative, "1.50x multiplier")
}

func TestUnvalidatedMultiplierDefaultsToOne(t *testing.T) {
	// Store has no Moderate-bracket losses, so no joint record exists.
	store := knowledge.NewTableStore([]domain.ScenarioRecord{
		{
			ScenarioID:  "crash_2022",
			DisplayName: "2022 bear market",
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketModerate: -60,
			},
			CategoryLosses: map[string]float64{},
		},
	})
	engine := NewEngine(config.Default(), store)

	result := engine.Synthesize(context.Background(), corrResult(95), concResult(70, true))

	require.True(t, result.CompoundingDetected)
	assert.False(t, result.MultiplierValidated)
	assert.Equal(t, 1.0, result.RiskMultiplier)
	assert.Contains(t, result.Narrative, "estimate, not a historically validated figure")
}

func TestMultiplierNeverBelowOne(t *testing.T) {
	// Bracket loss deeper than category loss would yield a ratio below one.
	store := knowledge.NewTableStore([]domain.ScenarioRecord{
		{
			ScenarioID: "crash_2022",
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh: -80,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -40,
			},
		},
	})
	engine := NewEngine(config.Default(), store)

	result := engine.Synthesize(context.Background(), corrResult(95), concResult(70, true))
	assert.Equal(t, 1.0, result.RiskMultiplier)
}

func TestCompoundingYieldsThreeRankedRecommendations(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	result := engine.Synthesize(context.Background(), corrResult(95), concResult(70, true))

	require.Len(t, result.Recommendations, 3)
	for i, rec := range result.Recommendations {
		assert.Equal(t, i+1, rec.Rank)
		assert.NotEmpty(t, rec.Action)
		assert.NotEmpty(t, rec.Rationale)
		assert.NotEmpty(t, rec.ExpectedImpact)
	}
	assert.Contains(t, result.Recommendations[0].Action, "DeFi Governance", "concentration is addressed first")
	assert.Contains(t, result.Recommendations[1].Action, "correlation")
}

func TestHealthyPortfolioGetsMaintainRecommendation(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	result := engine.Synthesize(context.Background(), corrResult(45), concResult(30, false))

	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0].Action, "Maintain")
	assert.Equal(t, RiskLow, result.OverallRiskLevel)
}

func TestSynthesisIsDeterministic(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())
	ctx := context.Background()

	first := engine.Synthesize(ctx, corrResult(95), concResult(70, true))
	second := engine.Synthesize(ctx, corrResult(95), concResult(70, true))

	assert.Equal(t, first, second, "identical inputs must produce identical results")
}

func TestInsufficientCorrelationNeverCompounds(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	corr := correlation.Result{InsufficientData: true, Percentage: 99}
	result := engine.Synthesize(context.Background(), corr, concResult(70, true))

	assert.False(t, result.CompoundingDetected)
}

func TestDegradedCorrelationOnly(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	corr := corrResult(88)
	result := engine.SynthesizeCorrelationOnly(corr, "the concentration analyzer timed out")

	assert.Equal(t, RiskHigh, result.OverallRiskLevel)
	assert.False(t, result.CompoundingDetected)
	assert.Contains(t, result.Narrative, "PARTIAL ANALYSIS: the concentration analyzer timed out")
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0].Action, "correlation")
}

func TestDegradedConcentrationOnly(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	result := engine.SynthesizeConcentrationOnly(concResult(70, true), "the correlation analyzer failed")

	assert.Equal(t, RiskHigh, result.OverallRiskLevel)
	assert.Contains(t, result.Narrative, "PARTIAL ANALYSIS: the correlation analyzer failed")
	assert.True(t, result.Correlation.InsufficientData)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0].Action, "DeFi Governance")
}

func TestDegradedHealthySidesSuggestRerun(t *testing.T) {
	engine := NewEngine(config.Default(), testStore())

	corrOnly := engine.SynthesizeCorrelationOnly(corrResult(40), "concentration lost")
	assert.Equal(t, RiskLow, corrOnly.OverallRiskLevel)
	require.Len(t, corrOnly.Recommendations, 1)
	assert.Contains(t, corrOnly.Recommendations[0].Action, "Re-run")

	concOnly := engine.SynthesizeConcentrationOnly(concResult(30, false), "correlation lost")
	assert.Equal(t, RiskLow, concOnly.OverallRiskLevel)
	require.Len(t, concOnly.Recommendations, 1)
	assert.Contains(t, concOnly.Recommendations[0].Action, "Re-run")
}
