package knowledge

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	cb "github.com/sony/gobreaker"

	"github.com/covariant-labs/guardian/internal/domain"
)

// ResilientStore fronts a primary and a fallback backend. Any primary error
// (including an open breaker or context timeout) is retried against the
// fallback exactly once, with the degradation logged. If both backends fail
// the lookup yields an empty result and a nil error: missing historical
// context must never propagate as a hard failure to the Coordinator.
type ResilientStore struct {
	primary  Store
	fallback Store
	breaker  *cb.CircuitBreaker

	// metricsCallback receives degradation events: "knowledge_degraded",
	// "knowledge_unavailable". Optional.
	metricsCallback func(event string)
}

// NewResilientStore wraps the two backends. The breaker trips after three
// consecutive primary failures and probes again after 30 seconds, so a dead
// graph backend does not add latency to every request.
func NewResilientStore(primary, fallback Store) *ResilientStore {
	settings := cb.Settings{Name: "knowledge-primary"}
	settings.Timeout = 30 * time.Second
	settings.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}

	return &ResilientStore{
		primary:  primary,
		fallback: fallback,
		breaker:  cb.NewCircuitBreaker(settings),
	}
}

// SetMetricsCallback registers a callback for degradation events.
func (r *ResilientStore) SetMetricsCallback(callback func(event string)) {
	r.metricsCallback = callback
}

func (r *ResilientStore) emit(event string) {
	if r.metricsCallback != nil {
		r.metricsCallback(event)
	}
}

// lookup runs fn against the primary behind the breaker, then once against
// the fallback on any error. Both failing is reported as (zero, degradedAll).
func lookup[T any](ctx context.Context, r *ResilientStore, op string, fn func(Store) (T, error)) (T, bool) {
	result, err := r.breaker.Execute(func() (any, error) {
		return fn(r.primary)
	})
	if err == nil {
		return result.(T), true
	}

	log.Warn().Err(err).Str("lookup", op).Msg("primary knowledge backend failed, retrying fallback")
	r.emit("knowledge_degraded")

	fallbackResult, fallbackErr := fn(r.fallback)
	if fallbackErr == nil {
		return fallbackResult, true
	}

	log.Error().Err(fallbackErr).Str("lookup", op).Msg("both knowledge backends failed, returning empty context")
	r.emit("knowledge_unavailable")

	var zero T
	return zero, false
}

// LookupBracketPerformance implements Store.
func (r *ResilientStore) LookupBracketPerformance(ctx context.Context, bracket domain.CoMovementBracket) ([]domain.BracketExcerpt, error) {
	excerpts, _ := lookup(ctx, r, "bracket_performance", func(s Store) ([]domain.BracketExcerpt, error) {
		return s.LookupBracketPerformance(ctx, bracket)
	})
	return excerpts, nil
}

// LookupCategoryPerformance implements Store.
func (r *ResilientStore) LookupCategoryPerformance(ctx context.Context, category string) ([]domain.CategoryExcerpt, error) {
	excerpts, _ := lookup(ctx, r, "category_performance", func(s Store) ([]domain.CategoryExcerpt, error) {
		return s.LookupCategoryPerformance(ctx, category)
	})
	return excerpts, nil
}

// LookupOpportunityCost implements Store.
func (r *ResilientStore) LookupOpportunityCost(ctx context.Context, category string) (string, error) {
	narrative, _ := lookup(ctx, r, "opportunity_cost", func(s Store) (string, error) {
		return s.LookupOpportunityCost(ctx, category)
	})
	return narrative, nil
}

// LookupDualRisk implements Store.
func (r *ResilientStore) LookupDualRisk(ctx context.Context, bracket domain.CoMovementBracket, category string) (*DualRiskRecord, error) {
	record, _ := lookup(ctx, r, "dual_risk", func(s Store) (*DualRiskRecord, error) {
		return s.LookupDualRisk(ctx, bracket, category)
	})
	return record, nil
}
