// Package persistence defines the storage contracts for historical scenario
// records. The embedded dataset is the default source; a database-backed
// repository lets operators curate scenarios without a rebuild.
package persistence

import (
	"context"

	"github.com/covariant-labs/guardian/internal/domain"
)

// ScenarioRepo stores and retrieves historical stress scenario records.
type ScenarioRepo interface {
	// Upsert inserts or replaces a scenario record keyed by scenario_id.
	Upsert(ctx context.Context, record domain.ScenarioRecord) error

	// Get returns one scenario by id, or (nil, nil) when absent.
	Get(ctx context.Context, scenarioID string) (*domain.ScenarioRecord, error)

	// List returns all scenarios ordered by scenario_id.
	List(ctx context.Context) ([]domain.ScenarioRecord, error)

	// Delete removes a scenario. Deleting an absent id is not an error.
	Delete(ctx context.Context, scenarioID string) error
}

// Repository aggregates all repository interfaces behind one handle.
type Repository struct {
	Scenarios ScenarioRepo
}

// RepositoryHealth reports storage connectivity for health endpoints.
type RepositoryHealth interface {
	Healthy(ctx context.Context) error
}
