package message

import (
	"encoding/json"
	"errors"
	"time"
)

// EventKind discriminates inbound events.
type EventKind string

// Inbound event kinds.
const (
	EventText       EventKind = "text"
	EventPostback   EventKind = "postback"
	EventQuickReply EventKind = "quick_reply"
)

// InboundEvent is one user interaction received from a channel.
type InboundEvent struct {
	Channel   string    `json:"channel"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	Text      string    `json:"text,omitempty"`

	// Payload is the string payload of a postback or quick reply.
	Payload string `json:"payload,omitempty"`
}

// DecodePayload unmarshals a JSON payload into v.
func (e InboundEvent) DecodePayload(v any) error {
	if e.Payload == "" {
		return errors.New("message: event has no payload")
	}
	return json.Unmarshal([]byte(e.Payload), v)
}
