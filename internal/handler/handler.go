// Package handler turns routed actions into replies. Handlers never talk
// to the transport: they return a Reply and the router sequences and
// dispatches it.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/pkg/message"
)

// Actions routed by the Mux.
const (
	ActionNewsAbout     = "news_about"
	ActionReportStart   = "report_start"
	ActionReportAudio   = "report_audio"
	ActionPushOutro     = "push_outro"
	ActionSubscribe     = "subscribe"
	ActionUnsubscribe   = "unsubscribe"
	ActionFeedbackStart = "feedback_start"
	ActionSurveyStart   = "survey_start"
)

// Sentinel errors.
var (
	ErrUnknownAction  = errors.New("handler: unknown action")
	ErrInvalidPayload = errors.New("handler: invalid payload")
)

// Payload is a routed action with its raw JSON parameters.
type Payload struct {
	Action string
	raw    json.RawMessage
}

// ParsePayload decodes a postback or quick-reply payload. It must be a
// JSON object with a non-empty "action" field.
func ParsePayload(s string) (Payload, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(s), &head); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if head.Action == "" {
		return Payload{}, fmt.Errorf("%w: missing action", ErrInvalidPayload)
	}
	return Payload{Action: head.Action, raw: json.RawMessage(s)}, nil
}

// NewPayload builds a Payload from an action and a parameter value that
// marshals to a JSON object. The action field is set from action.
func NewPayload(action string, params any) (Payload, error) {
	fields := map[string]any{}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return Payload{}, fmt.Errorf("%w: parameters must be an object: %w", ErrInvalidPayload, err)
		}
	}
	fields["action"] = action
	data, err := json.Marshal(fields)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return Payload{Action: action, raw: data}, nil
}

// Decode unmarshals the payload parameters into v.
func (p Payload) Decode(v any) error {
	if len(p.raw) == 0 {
		return fmt.Errorf("%w: empty payload for %s", ErrInvalidPayload, p.Action)
	}
	if err := json.Unmarshal(p.raw, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, p.Action, err)
	}
	return nil
}

// String returns the payload JSON.
func (p Payload) String() string { return string(p.raw) }

// Request is one routed event.
type Request struct {
	Event   message.InboundEvent
	State   session.State
	Payload Payload
}

// Handler handles one action.
type Handler interface {
	Handle(ctx context.Context, req Request) (Reply, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (Reply, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req Request) (Reply, error) {
	return f(ctx, req)
}

// Mux routes requests to handlers by payload action.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]Handler)}
}

// Register binds h to action, replacing any previous binding.
func (m *Mux) Register(action string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[action] = h
}

// Actions returns the registered actions, sorted.
func (m *Mux) Actions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.handlers))
	for a := range m.handlers {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Handle implements Handler.
func (m *Mux) Handle(ctx context.Context, req Request) (Reply, error) {
	m.mu.RLock()
	h, ok := m.handlers[req.Payload.Action]
	m.mu.RUnlock()
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Payload.Action)
	}
	return h.Handle(ctx, req)
}
