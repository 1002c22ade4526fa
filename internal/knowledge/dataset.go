package knowledge

import "github.com/covariant-labs/guardian/internal/domain"

// DefaultScenarios returns the built-in historical stress dataset used when
// no external scenario source is configured. Loss figures are percentage
// drawdowns (negative numbers).
func DefaultScenarios() []domain.ScenarioRecord {
	return []domain.ScenarioRecord{
		{
			ScenarioID:           "crash_2022_bear",
			DisplayName:          "2022 Bear Market",
			PeriodLabel:          "Nov 2021 - Jun 2022",
			ReferenceDrawdownPct: -75.0,
			MarketAvgLossPct:     -55.0,
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh:     -70.0,
				domain.BracketModerate: -62.0,
				domain.BracketLow:      -48.0,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -75.0,
				"Layer-2":         -60.0,
				"Yield Protocols": -80.0,
				"Stablecoins":     -5.0,
			},
			RecoveryWinners:     []string{"SOL", "MATIC", "OP"},
			RecoveryPeriodLabel: "Jun 2022 - Dec 2023",
			OpportunityCosts: []domain.OpportunityCost{
				{
					Category:        "Layer-2",
					BestPerformer:   "MATIC",
					RecoveryGainPct: 480.0,
					Reason:          "Scaling networks led the rebound as activity migrated off mainnet.",
				},
				{
					Category:        "Layer-1 Alternatives",
					BestPerformer:   "SOL",
					RecoveryGainPct: 520.0,
					Reason:          "Alternative base layers recovered fastest once liquidity returned.",
				},
			},
		},
		{
			ScenarioID:           "crash_2021_correction",
			DisplayName:          "2021 Correction",
			PeriodLabel:          "May 2021 - Jul 2021",
			ReferenceDrawdownPct: -55.0,
			MarketAvgLossPct:     -42.0,
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh:     -52.0,
				domain.BracketModerate: -44.0,
				domain.BracketLow:      -33.0,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -58.0,
				"Layer-2":         -50.0,
				"Yield Protocols": -55.0,
				"Stablecoins":     -2.0,
			},
			RecoveryWinners:     []string{"ETH", "AXS", "SAND"},
			RecoveryPeriodLabel: "Jul 2021 - Nov 2021",
			OpportunityCosts: []domain.OpportunityCost{
				{
					Category:        "Gaming",
					BestPerformer:   "AXS",
					RecoveryGainPct: 900.0,
					Reason:          "Play-to-earn tokens decoupled from the broader market during the rebound.",
				},
			},
		},
		{
			ScenarioID:           "crash_2020_covid",
			DisplayName:          "2020 COVID Crash",
			PeriodLabel:          "Feb 2020 - Mar 2020",
			ReferenceDrawdownPct: -65.0,
			MarketAvgLossPct:     -50.0,
			BracketLosses: map[domain.CoMovementBracket]float64{
				domain.BracketHigh:     -62.0,
				domain.BracketModerate: -53.0,
				domain.BracketLow:      -40.0,
			},
			CategoryLosses: map[string]float64{
				"DeFi Governance": -48.0,
				"Layer-2":         -55.0,
				"Yield Protocols": -52.0,
				"Stablecoins":     -1.0,
			},
			RecoveryWinners:     []string{"ETH", "LINK", "SNX"},
			RecoveryPeriodLabel: "Mar 2020 - Aug 2020",
			OpportunityCosts: []domain.OpportunityCost{
				{
					Category:        "Oracles",
					BestPerformer:   "LINK",
					RecoveryGainPct: 700.0,
					Reason:          "Data infrastructure tokens outpaced the market through DeFi summer.",
				},
			},
		},
	}
}
