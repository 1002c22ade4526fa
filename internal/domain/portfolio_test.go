package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHolding(t *testing.T, symbol string, quantity, price float64) Holding {
	t.Helper()
	h, err := NewHolding(symbol, decimal.NewFromFloat(quantity), decimal.NewFromFloat(price))
	require.NoError(t, err)
	return h
}

func TestNewHoldingComputesValue(t *testing.T) {
	h := mustHolding(t, "ETH", 2.5, 2400)
	assert.True(t, h.Value.Equal(decimal.NewFromInt(6000)), "value should be quantity x unit price")
}

func TestNewHoldingRejectsBadInputs(t *testing.T) {
	_, err := NewHolding("", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = NewHolding("BTC", decimal.Zero, decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = NewHolding("BTC", decimal.NewFromInt(1), decimal.NewFromInt(-3))
	assert.Error(t, err)
}

func TestNewPortfolioSnapshotDerivesTotal(t *testing.T) {
	holdings := []Holding{
		mustHolding(t, "BTC", 0.5, 40000),
		mustHolding(t, "ETH", 10, 2400),
	}

	snapshot, err := NewPortfolioSnapshot("owner-1", holdings, time.Now())
	require.NoError(t, err)

	assert.True(t, snapshot.TotalValue.Equal(decimal.NewFromInt(44000)))
	require.NoError(t, snapshot.Validate())
}

func TestNewPortfolioSnapshotRejectsEmpty(t *testing.T) {
	_, err := NewPortfolioSnapshot("owner-1", nil, time.Now())
	assert.Error(t, err)

	_, err = NewPortfolioSnapshot("", []Holding{mustHolding(t, "BTC", 1, 1)}, time.Now())
	assert.Error(t, err)
}

func TestValidateCatchesTamperedTotal(t *testing.T) {
	snapshot, err := NewPortfolioSnapshot("owner-1", []Holding{mustHolding(t, "BTC", 1, 40000)}, time.Now())
	require.NoError(t, err)

	snapshot.TotalValue = decimal.NewFromInt(41000)
	assert.Error(t, snapshot.Validate())
}

func TestValidateToleratesRoundingNoise(t *testing.T) {
	snapshot, err := NewPortfolioSnapshot("owner-1", []Holding{mustHolding(t, "BTC", 1, 40000)}, time.Now())
	require.NoError(t, err)

	// within the relative tolerance
	snapshot.TotalValue = snapshot.TotalValue.Add(decimal.NewFromFloat(0.001))
	assert.NoError(t, snapshot.Validate())
}

func TestValueShare(t *testing.T) {
	btc := mustHolding(t, "BTC", 1, 30000)
	eth := mustHolding(t, "ETH", 5, 2000)
	snapshot, err := NewPortfolioSnapshot("owner-1", []Holding{btc, eth}, time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 0.75, snapshot.ValueShare(btc), 1e-9)
	assert.InDelta(t, 0.25, snapshot.ValueShare(eth), 1e-9)
}

func TestClassifyBracketBoundaries(t *testing.T) {
	cases := []struct {
		pct  int
		want CoMovementBracket
	}{
		{0, BracketLow},
		{69, BracketLow},
		{70, BracketModerate},
		{84, BracketModerate},
		{85, BracketModerate},
		{86, BracketHigh},
		{100, BracketHigh},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyBracket(tc.pct), "percentage %d", tc.pct)
	}
}
