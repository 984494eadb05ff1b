package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/session"
)

// ModeStart activates a transient mode by storing the activation time.
type ModeStart struct {
	store kvstore.Store
	mode  session.Mode
	field string
	text  string
	now   func() time.Time
}

// NewModeStart creates the handler activating mode. text is the reply.
func NewModeStart(store kvstore.Store, mode session.Mode, text string) (*ModeStart, error) {
	field, ok := session.ModeField(mode)
	if !ok {
		return nil, fmt.Errorf("handler: unknown mode %q", mode)
	}
	return &ModeStart{store: store, mode: mode, field: field, text: text, now: time.Now}, nil
}

// Handle implements Handler.
func (h *ModeStart) Handle(ctx context.Context, req Request) (Reply, error) {
	sessionID := req.State.SessionID()
	rec, err := loadOrEmpty(ctx, h.store, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("handler: load userstates: %w", err)
	}
	rec[h.field] = h.now().Unix()
	if err := h.store.Put(ctx, sessionID, rec); err != nil {
		return Reply{}, fmt.Errorf("handler: start %s mode: %w", h.mode, err)
	}
	return TextReply(h.text), nil
}
