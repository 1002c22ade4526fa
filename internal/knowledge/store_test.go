package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covariant-labs/guardian/internal/domain"
)

func testRecords() []domain.ScenarioRecord {
	return []domain.ScenarioRecord{
		{
			ScenarioID:           "crash_b",
			DisplayName:          "second crash",
			PeriodLabel:          "2022",
			ReferenceDrawdownPct: -75,
			MarketAvgLossPct:     -55,
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh: -70,
				domain.BracketLow:  -48,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -75,
				"Stablecoins":     -5,
			},
			RecoveryWinners:     []string{"SOL"},
			RecoveryPeriodLabel: "2023",
			OpportunityCosts: []domain.OpportunityCost{
				{Category: "Layer-2", BestPerformer: "MATIC", RecoveryGainPct: 480, Reason: "scaling adoption"},
			},
		},
		{
			ScenarioID:           "crash_a",
			DisplayName:          "first crash",
			PeriodLabel:          "2020",
			ReferenceDrawdownPct: -65,
			MarketAvgLossPct:     -60,
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh: -62,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -48,
			},
			RecoveryWinners:     []string{"LINK"},
			RecoveryPeriodLabel: "2020 H2",
			OpportunityCosts: []domain.OpportunityCost{
				{Category: "Oracles", BestPerformer: "LINK", RecoveryGainPct: 700, Reason: "oracle usage grew"},
			},
		},
	}
}

// Both backends must be observably indistinguishable across the whole
// contract, not just return "equivalent" data.
func TestBackendsEmitIdenticalResults(t *testing.T) {
	ctx := context.Background()
	records := testRecords()
	graph := NewGraphStore(records)
	table := NewTableStore(records)

	gBracket, err := graph.LookupBracketPerformance(ctx, domain.BracketHigh)
	require.NoError(t, err)
	tBracket, err := table.LookupBracketPerformance(ctx, domain.BracketHigh)
	require.NoError(t, err)
	assert.Equal(t, tBracket, gBracket)

	gCategory, err := graph.LookupCategoryPerformance(ctx, "DeFi Governance")
	require.NoError(t, err)
	tCategory, err := table.LookupCategoryPerformance(ctx, "DeFi Governance")
	require.NoError(t, err)
	assert.Equal(t, tCategory, gCategory)

	gOpp, err := graph.LookupOpportunityCost(ctx, "DeFi Governance")
	require.NoError(t, err)
	tOpp, err := table.LookupOpportunityCost(ctx, "DeFi Governance")
	require.NoError(t, err)
	assert.Equal(t, tOpp, gOpp)

	gDual, err := graph.LookupDualRisk(ctx, domain.BracketHigh, "DeFi Governance")
	require.NoError(t, err)
	tDual, err := table.LookupDualRisk(ctx, domain.BracketHigh, "DeFi Governance")
	require.NoError(t, err)
	assert.Equal(t, tDual, gDual)
}

func TestLookupsOrderByScenarioID(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]Store{
		"table": NewTableStore(testRecords()),
		"graph": NewGraphStore(testRecords()),
	} {
		t.Run(name, func(t *testing.T) {
			excerpts, err := store.LookupBracketPerformance(ctx, domain.BracketHigh)
			require.NoError(t, err)
			require.Len(t, excerpts, 2)
			assert.Equal(t, "crash_a", excerpts[0].ScenarioID)
			assert.Equal(t, "crash_b", excerpts[1].ScenarioID)
		})
	}
}

func TestLookupDualRiskKeepsDeepestCategoryLoss(t *testing.T) {
	ctx := context.Background()
	store := NewTableStore(testRecords())

	dual, err := store.LookupDualRisk(ctx, domain.BracketHigh, "DeFi Governance")
	require.NoError(t, err)
	require.NotNil(t, dual)

	assert.Equal(t, "crash_b", dual.ScenarioID)
	assert.Equal(t, -75.0, dual.CategoryLossPct)
	assert.Equal(t, -70.0, dual.BracketLossPct)
}

func TestLookupDualRiskNilWhenNoJointRecord(t *testing.T) {
	ctx := context.Background()
	store := NewTableStore(testRecords())

	// Low bracket only exists in crash_b, which has no Oracles losses.
	dual, err := store.LookupDualRisk(ctx, domain.BracketLow, "Oracles")
	require.NoError(t, err)
	assert.Nil(t, dual)
}

func TestLookupOpportunityCostSkipsOwnCategory(t *testing.T) {
	ctx := context.Background()
	store := NewTableStore(testRecords())

	// Oracles has the highest recovery gain but is the caller's own category,
	// so the Layer-2 record is picked instead.
	narrative, err := store.LookupOpportunityCost(ctx, "Oracles")
	require.NoError(t, err)
	assert.Contains(t, narrative, "MATIC")
	assert.Contains(t, narrative, "480%")
}

func TestLookupsReturnEmptyForUnknownKeys(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]Store{
		"table": NewTableStore(testRecords()),
		"graph": NewGraphStore(testRecords()),
	} {
		t.Run(name, func(t *testing.T) {
			excerpts, err := store.LookupBracketPerformance(ctx, domain.BracketModerate)
			require.NoError(t, err)
			assert.Empty(t, excerpts)

			categories, err := store.LookupCategoryPerformance(ctx, "Gaming")
			require.NoError(t, err)
			assert.Empty(t, categories)
		})
	}
}
