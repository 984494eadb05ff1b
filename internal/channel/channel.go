// Package channel turns fragmented content into ordered delivery steps and
// executes them against a messaging transport, one step at a time.
package channel

import (
	"context"

	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/pkg/message"
)

// Envelope carries the per-call addressing every outbound request is
// augmented with.
type Envelope struct {
	Recipient     string
	MessagingType string
	Tag           string
}

// Receipt is the transport's acknowledgement of a delivered message.
type Receipt struct {
	RecipientID string
	MessageID   string
}

// Transport sends single messages to one recipient. Implementations must
// honor ctx cancellation and deadlines.
type Transport interface {
	SendText(ctx context.Context, env Envelope, text string, quickReplies []message.QuickReply) (Receipt, error)
	SendButtons(ctx context.Context, env Envelope, text string, buttons []message.Button, quickReplies []message.QuickReply) (Receipt, error)
	SendAttachment(ctx context.Context, env Envelope, typ message.AttachmentType, attachmentID string) (Receipt, error)
	SendCarousel(ctx context.Context, env Envelope, elements []message.CarouselElement, quickReplies []message.QuickReply) (Receipt, error)
}

// AttachmentResolver maps a media URL to a reusable transport attachment id.
type AttachmentResolver interface {
	Resolve(ctx context.Context, url string, typ message.AttachmentType) (string, error)
}

// Channel is the bridge between a messaging platform and the router. It
// receives platform events and pushes them to the inbox, and sends replies
// through its Transport methods.
type Channel interface {
	core.Module
	Transport

	// SetInbox gives the channel a function to push inbound events to the
	// router. The router calls this during wiring, before Start().
	SetInbox(fn func(ev message.InboundEvent) error)
}

// MediaChannel is implemented by channels that need media resolved to
// transport attachment ids before it can be sent.
type MediaChannel interface {
	Channel
	Attachments() AttachmentResolver
}
