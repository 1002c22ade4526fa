package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestReplyRoundTrip(t *testing.T) {
	bus := NewBus()
	bus.Register("echo", func(_ context.Context, env Envelope) (json.RawMessage, error) {
		return env.Payload, nil
	})

	reply, err := bus.Request(context.Background(), "echo", "corr-42", json.RawMessage(`{"ping":true}`))
	require.NoError(t, err)

	assert.Equal(t, "corr-42", reply.CorrelationID)
	assert.Equal(t, "echo", reply.Topic)
	assert.JSONEq(t, `{"ping":true}`, string(reply.Payload))
	assert.False(t, reply.SentAt.IsZero())
}

func TestRequestMintsCorrelationID(t *testing.T) {
	bus := NewBus()

	var seen string
	bus.Register("echo", func(_ context.Context, env Envelope) (json.RawMessage, error) {
		seen = env.CorrelationID
		return nil, nil
	})

	reply, err := bus.Request(context.Background(), "echo", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply.CorrelationID)
	assert.Equal(t, seen, reply.CorrelationID, "handler and reply must share the minted ID")
}

func TestRequestEnvelopeCarriesBusIdentity(t *testing.T) {
	bus := NewBus()

	var sender string
	bus.Register("echo", func(_ context.Context, env Envelope) (json.RawMessage, error) {
		sender = env.Sender
		return nil, nil
	})

	_, err := bus.Request(context.Background(), "echo", "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, bus.Identity(), sender)
	assert.Contains(t, sender, "bus/")
}

func TestRequestUnknownTopic(t *testing.T) {
	bus := NewBus()

	_, err := bus.Request(context.Background(), "nobody.home", "c1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestRequestAfterStop(t *testing.T) {
	bus := NewBus()
	bus.Register("echo", func(_ context.Context, env Envelope) (json.RawMessage, error) {
		return env.Payload, nil
	})
	bus.Stop()

	_, err := bus.Request(context.Background(), "echo", "c1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped")
}

func TestHandlerErrorIsWrappedAndUnwrappable(t *testing.T) {
	cause := errors.New("downstream unavailable")
	bus := NewBus()
	bus.Register("flaky", func(_ context.Context, _ Envelope) (json.RawMessage, error) {
		return nil, cause
	})

	_, err := bus.Request(context.Background(), "flaky", "c1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause, "callers match on the handler's error via errors.Is/As")
	assert.Contains(t, err.Error(), "flaky")
}

func TestRequestAbandonedOnContextExpiry(t *testing.T) {
	bus := NewBus()
	bus.Register("slow", func(ctx context.Context, _ Envelope) (json.RawMessage, error) {
		select {
		case <-time.After(time.Second):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := bus.Request(ctx, "slow", "c1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
