package handler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/session"
)

// SubscriptionPayload names one subscription. An empty name means all.
type SubscriptionPayload struct {
	Action       string `json:"action"`
	Subscription string `json:"subscription,omitempty"`
}

// Subscription toggles subscription flags.
type Subscription struct {
	store kvstore.Store
	on    bool
}

// NewSubscribe creates the subscribe handler.
func NewSubscribe(store kvstore.Store) *Subscription {
	return &Subscription{store: store, on: true}
}

// NewUnsubscribe creates the unsubscribe handler.
func NewUnsubscribe(store kvstore.Store) *Subscription {
	return &Subscription{store: store}
}

// Handle implements Handler.
func (h *Subscription) Handle(ctx context.Context, req Request) (Reply, error) {
	var p SubscriptionPayload
	if err := req.Payload.Decode(&p); err != nil {
		return Reply{}, err
	}

	names := session.Subscriptions
	if p.Subscription != "" {
		if !slices.Contains(session.Subscriptions, p.Subscription) {
			return Reply{}, fmt.Errorf("%w: unknown subscription %q", ErrInvalidPayload, p.Subscription)
		}
		names = []string{p.Subscription}
	}

	sessionID := req.State.SessionID()
	rec, err := loadOrEmpty(ctx, h.store, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("handler: load subscriptions: %w", err)
	}
	for _, name := range names {
		rec[name] = h.on
	}
	if err := h.store.Put(ctx, sessionID, rec); err != nil {
		return Reply{}, fmt.Errorf("handler: save subscriptions: %w", err)
	}

	if h.on {
		return TextReply(TextSubscribed), nil
	}
	return TextReply(TextUnsubscribed), nil
}

// loadOrEmpty returns a writable copy of the record under key, or an
// empty record when there is none.
func loadOrEmpty(ctx context.Context, store kvstore.Store, key string) (kvstore.Record, error) {
	rec, err := store.Load(ctx, key)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		return kvstore.Record{}, nil
	case err != nil:
		return nil, err
	}
	if rec = rec.Clone(); rec == nil {
		rec = kvstore.Record{}
	}
	return rec, nil
}
