package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covariant-labs/guardian/internal/domain"
)

func TestCachedStoreFillsOnMissAndServesOnHit(t *testing.T) {
	ctx := context.Background()
	inner := NewTableStore(testRecords())
	client, mock := redismock.NewClientMock()

	store := NewCachedStore(inner, client)
	var events []string
	store.SetMetricsCallback(func(event string) { events = append(events, event) })

	want, err := inner.LookupBracketPerformance(ctx, domain.BracketHigh)
	require.NoError(t, err)
	encoded, err := json.Marshal(want)
	require.NoError(t, err)

	key := "guardian:knowledge:bracket:High"
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, encoded, cacheTTL).SetVal("OK")

	got, err := store.LookupBracketPerformance(ctx, domain.BracketHigh)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	mock.ExpectGet(key).SetVal(string(encoded))
	got, err = store.LookupBracketPerformance(ctx, domain.BracketHigh)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, []string{"cache_miss", "cache_hit"}, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedStoreTreatsCacheErrorsAsMisses(t *testing.T) {
	ctx := context.Background()
	inner := NewTableStore(testRecords())
	client, mock := redismock.NewClientMock()
	store := NewCachedStore(inner, client)

	want, err := inner.LookupOpportunityCost(ctx, "Oracles")
	require.NoError(t, err)
	encoded, err := json.Marshal(want)
	require.NoError(t, err)

	key := "guardian:knowledge:opportunity:Oracles"
	mock.ExpectGet(key).SetErr(errors.New("redis down"))
	mock.ExpectSet(key, encoded, cacheTTL).SetErr(errors.New("redis down"))

	got, err := store.LookupOpportunityCost(ctx, "Oracles")
	require.NoError(t, err, "cache failures must not change lookup results")
	assert.Equal(t, want, got)
}

func TestCachedStoreRefillsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	inner := NewTableStore(testRecords())
	client, mock := redismock.NewClientMock()
	store := NewCachedStore(inner, client)

	want, err := inner.LookupDualRisk(ctx, domain.BracketHigh, "DeFi Governance")
	require.NoError(t, err)
	encoded, err := json.Marshal(want)
	require.NoError(t, err)

	key := "guardian:knowledge:dualrisk:High:DeFi Governance"
	mock.ExpectGet(key).SetVal("{not json")
	mock.ExpectSet(key, encoded, cacheTTL).SetVal("OK")

	got, err := store.LookupDualRisk(ctx, domain.BracketHigh, "DeFi Governance")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
