package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ministryofjustice/offender-case-notes/internal/platform/kafka/consumer"
)

// HandlerFunc processes one decoded inbound event detail.
type HandlerFunc func(ctx context.Context, detail json.RawMessage) error

// Router dispatches inbound messages to event-type handlers. Unrecognized
// event types are logged and skipped so the offset commits; delivery is
// at-least-once and redelivering an unknown type would never succeed.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// NewRouter creates an event-type router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register adds a handler for a specific event type.
func (r *Router) Register(eventType string, handler HandlerFunc) {
	r.handlers[eventType] = handler
}

// Handle decodes the envelope and routes to the registered handler.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		// Malformed payloads can never be handled; skip rather than poison
		// the partition.
		r.logger.Error("unparseable event envelope, skipping",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"err", err,
		)
		return nil
	}

	handler, ok := r.handlers[env.EventType]
	if !ok {
		r.logger.Warn("no handler for event type, skipping message",
			"eventType", env.EventType,
			"topic", msg.Topic,
		)
		return nil
	}

	if err := handler(ctx, env.Detail); err != nil {
		return fmt.Errorf("handle %s: %w", env.EventType, err)
	}
	return nil
}
