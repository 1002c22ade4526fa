package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/persistence"
)

// scenarioRepo implements ScenarioRepo for PostgreSQL. Bracket losses,
// category losses, recovery winners and opportunity costs live in JSONB
// columns so new brackets or categories never require a migration.
type scenarioRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewScenarioRepo creates a PostgreSQL scenario repository.
func NewScenarioRepo(db *sqlx.DB, timeout time.Duration) persistence.ScenarioRepo {
	return &scenarioRepo{db: db, timeout: timeout}
}

// scenarioRow is the flat scan target for the scenarios table.
type scenarioRow struct {
	ScenarioID           string          `db:"scenario_id"`
	DisplayName          string          `db:"display_name"`
	PeriodLabel          string          `db:"period_label"`
	ReferenceDrawdownPct float64         `db:"reference_drawdown_pct"`
	MarketAvgLossPct     float64         `db:"market_avg_loss_pct"`
	BracketLosses        json.RawMessage `db:"bracket_losses"`
	CategoryLosses       json.RawMessage `db:"category_losses"`
	RecoveryWinners      json.RawMessage `db:"recovery_winners"`
	RecoveryPeriodLabel  string          `db:"recovery_period_label"`
	OpportunityCosts     json.RawMessage `db:"opportunity_costs"`
}

func (r *scenarioRepo) Upsert(ctx context.Context, record domain.ScenarioRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if record.ScenarioID == "" {
		return fmt.Errorf("scenario_id is required")
	}

	bracketJSON, err := json.Marshal(record.BracketLosses)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket losses: %w", err)
	}
	categoryJSON, err := json.Marshal(record.CategoryLosses)
	if err != nil {
		return fmt.Errorf("failed to marshal category losses: %w", err)
	}
	winnersJSON, err := json.Marshal(record.RecoveryWinners)
	if err != nil {
		return fmt.Errorf("failed to marshal recovery winners: %w", err)
	}
	costsJSON, err := json.Marshal(record.OpportunityCosts)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity costs: %w", err)
	}

	query := `
		INSERT INTO scenarios
		(scenario_id, display_name, period_label, reference_drawdown_pct,
		 market_avg_loss_pct, bracket_losses, category_losses,
		 recovery_winners, recovery_period_label, opportunity_costs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (scenario_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			period_label = EXCLUDED.period_label,
			reference_drawdown_pct = EXCLUDED.reference_drawdown_pct,
			market_avg_loss_pct = EXCLUDED.market_avg_loss_pct,
			bracket_losses = EXCLUDED.bracket_losses,
			category_losses = EXCLUDED.category_losses,
			recovery_winners = EXCLUDED.recovery_winners,
			recovery_period_label = EXCLUDED.recovery_period_label,
			opportunity_costs = EXCLUDED.opportunity_costs`

	_, err = r.db.ExecContext(ctx, query,
		record.ScenarioID, record.DisplayName, record.PeriodLabel,
		record.ReferenceDrawdownPct, record.MarketAvgLossPct,
		bracketJSON, categoryJSON, winnersJSON,
		record.RecoveryPeriodLabel, costsJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert scenario %s: %w", record.ScenarioID, err)
	}

	return nil
}

func (r *scenarioRepo) Get(ctx context.Context, scenarioID string) (*domain.ScenarioRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row scenarioRow
	query := `
		SELECT scenario_id, display_name, period_label, reference_drawdown_pct,
		       market_avg_loss_pct, bracket_losses, category_losses,
		       recovery_winners, recovery_period_label, opportunity_costs
		FROM scenarios
		WHERE scenario_id = $1`

	if err := r.db.GetContext(ctx, &row, query, scenarioID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scenario %s: %w", scenarioID, err)
	}

	record, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *scenarioRepo) List(ctx context.Context) ([]domain.ScenarioRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []scenarioRow
	query := `
		SELECT scenario_id, display_name, period_label, reference_drawdown_pct,
		       market_avg_loss_pct, bracket_losses, category_losses,
		       recovery_winners, recovery_period_label, opportunity_costs
		FROM scenarios
		ORDER BY scenario_id`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	records := make([]domain.ScenarioRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *scenarioRepo) Delete(ctx context.Context, scenarioID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE scenario_id = $1`, scenarioID); err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", scenarioID, err)
	}
	return nil
}

func (row scenarioRow) toRecord() (domain.ScenarioRecord, error) {
	record := domain.ScenarioRecord{
		ScenarioID:           row.ScenarioID,
		DisplayName:          row.DisplayName,
		PeriodLabel:          row.PeriodLabel,
		ReferenceDrawdownPct: row.ReferenceDrawdownPct,
		MarketAvgLossPct:     row.MarketAvgLossPct,
		RecoveryPeriodLabel:  row.RecoveryPeriodLabel,
	}

	if err := json.Unmarshal(row.BracketLosses, &record.BracketLosses); err != nil {
		return record, fmt.Errorf("failed to unmarshal bracket losses for %s: %w", row.ScenarioID, err)
	}
	if err := json.Unmarshal(row.CategoryLosses, &record.CategoryLosses); err != nil {
		return record, fmt.Errorf("failed to unmarshal category losses for %s: %w", row.ScenarioID, err)
	}
	if err := json.Unmarshal(row.RecoveryWinners, &record.RecoveryWinners); err != nil {
		return record, fmt.Errorf("failed to unmarshal recovery winners for %s: %w", row.ScenarioID, err)
	}
	if err := json.Unmarshal(row.OpportunityCosts, &record.OpportunityCosts); err != nil {
		return record, fmt.Errorf("failed to unmarshal opportunity costs for %s: %w", row.ScenarioID, err)
	}

	return record, nil
}
