package hook

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"sync"
	"time"
)

// AuditRecord is one JSON Lines entry written by AuditHook.
type AuditRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	SenderID  string    `json:"sender_id"`
	Identity  string    `json:"identity"`
	Kind      string    `json:"kind"`
	Action    string    `json:"action,omitempty"`
	Steps     int       `json:"steps"`
	Delivered int       `json:"delivered"`
	Error     string    `json:"error,omitempty"`
}

// AuditHook writes a JSON Lines audit log entry for every answered event.
// Inbound text is not recorded. It runs at AfterSend with the lowest
// priority (runs last).
type AuditHook struct {
	writer io.Writer
	mu     sync.Mutex
	now    func() time.Time
}

// NewAuditHook creates an audit hook that writes JSON Lines to w.
func NewAuditHook(w io.Writer) *AuditHook {
	return &AuditHook{
		writer: w,
		now:    time.Now,
	}
}

var _ Hook = (*AuditHook)(nil)

// Position returns AfterSend.
func (a *AuditHook) Position() Position { return AfterSend }

// Priority returns math.MaxInt.
func (a *AuditHook) Priority() int { return math.MaxInt }

// Execute writes one JSON Lines record for the event.
func (a *AuditHook) Execute(_ context.Context, hctx *Context) (Action, error) {
	record := AuditRecord{
		Timestamp: a.now(),
		Channel:   hctx.Event.Channel,
		SenderID:  hctx.Event.SenderID,
		Identity:  hctx.State.Identity(),
		Kind:      string(hctx.Event.Kind),
		Action:    hctx.Payload.Action,
		Delivered: len(hctx.Delivered),
	}

	if hctx.Reply != nil {
		if steps, err := hctx.Reply.Steps(); err == nil {
			record.Steps = len(steps)
		}
	}
	if hctx.Err != nil {
		record.Error = hctx.Err.Error()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := json.NewEncoder(a.writer).Encode(record); err != nil {
		return ActionContinue, err
	}
	return ActionContinue, nil
}
