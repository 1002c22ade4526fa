// Package transport provides the in-process message bus that decouples the
// conversational surfaces (HTTP, CLI) from the analysis coordinator. Requests
// and replies travel as envelopes keyed by correlation ID, so a surface can
// issue a request and await its reply without holding a direct reference to
// the component that serves it.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Envelope is one message on the bus.
type Envelope struct {
	CorrelationID string          `json:"correlation_id"`
	Topic         string          `json:"topic"`
	Sender        string          `json:"sender"`
	SentAt        time.Time       `json:"sent_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Handler serves one request envelope and returns the reply payload.
type Handler func(ctx context.Context, env Envelope) (json.RawMessage, error)

// TopicAnalyze is the topic the analysis coordinator serves.
const TopicAnalyze = "analysis.request"

// ErrNoHandler is returned when a request targets a topic nobody serves.
var ErrNoHandler = fmt.Errorf("no handler registered for topic")

// Bus is an in-memory request/reply bus. Handlers run in their own
// goroutines; a slow handler never blocks other topics or other requests on
// the same topic.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	identity string
	stopped  bool
}

// NewBus creates a bus with a unique identity used as the default sender.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string]Handler),
		identity: "bus/" + uuid.NewString()[:8],
	}
}

// Identity returns the bus's sender identity.
func (b *Bus) Identity() string {
	return b.identity
}

// Register binds a handler to a topic, replacing any previous handler.
func (b *Bus) Register(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = h
	log.Debug().Str("topic", topic).Msg("bus handler registered")
}

// Stop rejects further requests. In-flight handlers run to completion.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

type reply struct {
	payload json.RawMessage
	err     error
}

// Request sends payload to topic and waits for the reply or ctx expiry. A
// missing correlation ID is minted here so every exchange is traceable.
func (b *Bus) Request(ctx context.Context, topic string, correlationID string, payload json.RawMessage) (Envelope, error) {
	b.mu.RLock()
	handler, ok := b.handlers[topic]
	stopped := b.stopped
	b.mu.RUnlock()

	if stopped {
		return Envelope{}, fmt.Errorf("bus is stopped")
	}
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %s", ErrNoHandler, topic)
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	env := Envelope{
		CorrelationID: correlationID,
		Topic:         topic,
		Sender:        b.identity,
		SentAt:        time.Now().UTC(),
		Payload:       payload,
	}

	replyCh := make(chan reply, 1)
	go func() {
		out, err := handler(ctx, env)
		replyCh <- reply{payload: out, err: err}
	}()

	select {
	case r := <-replyCh:
		if r.err != nil {
			return Envelope{}, fmt.Errorf("handler for %s failed: %w", topic, r.err)
		}
		return Envelope{
			CorrelationID: correlationID,
			Topic:         topic,
			Sender:        topic,
			SentAt:        time.Now().UTC(),
			Payload:       r.payload,
		}, nil
	case <-ctx.Done():
		return Envelope{}, fmt.Errorf("request to %s abandoned: %w", topic, ctx.Err())
	}
}
