package domain

// OpportunityCost describes what an alternative category returned during a
// scenario's recovery window, used to contextualize concentrated portfolios.
type OpportunityCost struct {
	Category        string  `json:"category" yaml:"category"`
	BestPerformer   string  `json:"best_performer" yaml:"best_performer"`
	RecoveryGainPct float64 `json:"recovery_gain_pct" yaml:"recovery_gain_pct"`
	Reason          string  `json:"reason" yaml:"reason"`
}

// ScenarioRecord is a stored historical stress event. Records are loaded once
// at process start, owned by the knowledge store, and never mutated after
// load; concurrent unsynchronized reads are safe.
type ScenarioRecord struct {
	ScenarioID           string                        `json:"scenario_id" yaml:"scenario_id"`
	DisplayName          string                        `json:"display_name" yaml:"display_name"`
	PeriodLabel          string                        `json:"period_label" yaml:"period_label"`
	ReferenceDrawdownPct float64                       `json:"reference_drawdown_pct" yaml:"reference_drawdown_pct"`
	MarketAvgLossPct     float64                       `json:"market_avg_loss_pct" yaml:"market_avg_loss_pct"`
	BracketLosses        map[CoMovementBracket]float64 `json:"bracket_losses" yaml:"bracket_losses"`
	CategoryLosses       map[string]float64            `json:"category_losses" yaml:"category_losses"`
	RecoveryWinners      []string                      `json:"recovery_winners" yaml:"recovery_winners"`
	RecoveryPeriodLabel  string                        `json:"recovery_period_label" yaml:"recovery_period_label"`
	OpportunityCosts     []OpportunityCost             `json:"opportunity_costs" yaml:"opportunity_costs"`
}

// BracketExcerpt is the slice of a scenario record relevant to one
// co-movement bracket.
type BracketExcerpt struct {
	ScenarioID       string  `json:"scenario_id"`
	DisplayName      string  `json:"display_name"`
	PeriodLabel      string  `json:"period_label"`
	ExpectedLossPct  float64 `json:"expected_loss_pct"`
	ReferenceLossPct float64 `json:"reference_loss_pct"`
	MarketAvgLossPct float64 `json:"market_avg_loss_pct"`
}

// CategoryExcerpt is the slice of a scenario record relevant to one category.
type CategoryExcerpt struct {
	ScenarioID       string  `json:"scenario_id"`
	DisplayName      string  `json:"display_name"`
	PeriodLabel      string  `json:"period_label"`
	CategoryLossPct  float64 `json:"category_loss_pct"`
	MarketAvgLossPct float64 `json:"market_avg_loss_pct"`
}
