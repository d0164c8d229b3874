// Package hub maintains the set of live notification subscribers and
// fans pipeline events out to all of them.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"echoloop/internal/domain"
)

// Subscriber is one live notification channel. Send must be safe for
// use by a single goroutine at a time; the hub serializes deliveries,
// which also gives each subscriber FIFO ordering of events.
type Subscriber interface {
	Send(payload []byte) error
}

// Hub is safe for concurrent Register/Unregister/Broadcast. Membership
// is self-healing: a subscriber whose Send fails is dropped during the
// same delivery pass, there is no separate health-check loop.
type Hub struct {
	mu     sync.Mutex
	subs   map[Subscriber]struct{}
	logger *slog.Logger
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[Subscriber]struct{}),
		logger: logger.With("component", "hub"),
	}
}

func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	h.logger.Debug("subscriber registered", "active", len(h.subs))
}

// Unregister removes sub; removing an unknown subscriber is a no-op.
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
	h.logger.Debug("subscriber unregistered", "active", len(h.subs))
}

// Len returns the current number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast serializes event once and writes it to every active
// subscriber. One failing subscriber never blocks the others; failed
// subscribers are collected during the pass and removed afterward.
func (h *Hub) Broadcast(event domain.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var failed []Subscriber
	for sub := range h.subs {
		if err := sub.Send(payload); err != nil {
			h.logger.Warn("subscriber delivery failed, dropping", "error", err)
			failed = append(failed, sub)
		}
	}

	for _, sub := range failed {
		delete(h.subs, sub)
	}

	return nil
}

// NotifyNewSummary implements the pipeline's notifier contract.
func (h *Hub) NotifyNewSummary(_ context.Context, item domain.MessageWithSummary) error {
	return h.Broadcast(domain.NewSummaryEvent(item))
}
