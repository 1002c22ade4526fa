package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// totalValueTolerance is the relative tolerance allowed between a snapshot's
// declared total and the sum of its holding values.
const totalValueTolerance = 1e-6

// Holding is a single position within a portfolio snapshot. Immutable once
// constructed through NewHolding.
type Holding struct {
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// NewHolding validates and constructs a Holding. Quantity and unit price must
// both be strictly positive; the value is always quantity x unit price.
func NewHolding(symbol string, quantity, unitPrice decimal.Decimal) (Holding, error) {
	if symbol == "" {
		return Holding{}, fmt.Errorf("holding symbol must not be empty")
	}
	if !quantity.IsPositive() {
		return Holding{}, fmt.Errorf("holding %s: quantity %s must be positive", symbol, quantity)
	}
	if !unitPrice.IsPositive() {
		return Holding{}, fmt.Errorf("holding %s: unit price %s must be positive", symbol, unitPrice)
	}

	return Holding{
		Symbol:    symbol,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Value:     quantity.Mul(unitPrice),
	}, nil
}

// PortfolioSnapshot is a point-in-time view of an owner's holdings. The total
// value always equals the sum of constituent values; NewPortfolioSnapshot
// computes it rather than trusting a caller-supplied figure.
type PortfolioSnapshot struct {
	OwnerID      string          `json:"owner_id"`
	Holdings     []Holding       `json:"holdings"`
	TotalValue   decimal.Decimal `json:"total_value"`
	SnapshotTime time.Time       `json:"snapshot_time"`
}

// NewPortfolioSnapshot constructs a snapshot from at least one holding and
// derives the total value. Constructing from zero holdings is an error.
func NewPortfolioSnapshot(ownerID string, holdings []Holding, at time.Time) (PortfolioSnapshot, error) {
	if ownerID == "" {
		return PortfolioSnapshot{}, fmt.Errorf("owner identifier must not be empty")
	}
	if len(holdings) == 0 {
		return PortfolioSnapshot{}, fmt.Errorf("portfolio %s: cannot construct snapshot from zero holdings", ownerID)
	}

	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.Value)
	}

	held := make([]Holding, len(holdings))
	copy(held, holdings)

	return PortfolioSnapshot{
		OwnerID:      ownerID,
		Holdings:     held,
		TotalValue:   total,
		SnapshotTime: at,
	}, nil
}

// Validate re-checks the total-value invariant within floating-point
// tolerance. Useful for snapshots deserialized from external callers.
func (p PortfolioSnapshot) Validate() error {
	if len(p.Holdings) == 0 {
		return fmt.Errorf("portfolio %s: snapshot has no holdings", p.OwnerID)
	}

	sum := decimal.Zero
	for _, h := range p.Holdings {
		if !h.Quantity.IsPositive() || !h.UnitPrice.IsPositive() {
			return fmt.Errorf("portfolio %s: holding %s has non-positive quantity or price", p.OwnerID, h.Symbol)
		}
		sum = sum.Add(h.Quantity.Mul(h.UnitPrice))
	}

	diff := p.TotalValue.Sub(sum).Abs()
	tolerance := sum.Abs().Mul(decimal.NewFromFloat(totalValueTolerance))
	if diff.GreaterThan(tolerance) {
		return fmt.Errorf("portfolio %s: total value %s does not match holding sum %s", p.OwnerID, p.TotalValue, sum)
	}
	return nil
}

// ValueShare returns the fraction of total value held in the given holding.
func (p PortfolioSnapshot) ValueShare(h Holding) float64 {
	if p.TotalValue.IsZero() {
		return 0
	}
	share, _ := h.Value.Div(p.TotalValue).Float64()
	return share
}
