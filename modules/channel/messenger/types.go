package messenger

import (
	"fmt"

	"github.com/flemzord/newsclaw/pkg/message"
)

// Recipient addresses a Send API request.
type Recipient struct {
	ID string `json:"id"`
}

// SendRequest is the body of POST /me/messages.
type SendRequest struct {
	Recipient     Recipient   `json:"recipient"`
	Message       *OutMessage `json:"message,omitempty"`
	SenderAction  string      `json:"sender_action,omitempty"`
	MessagingType string      `json:"messaging_type,omitempty"`
	Tag           string      `json:"tag,omitempty"`
}

// OutMessage is the message object of a SendRequest. Text is a pointer so
// a text message with empty text still carries "text":"" while attachment
// messages omit the field.
type OutMessage struct {
	Text         *string              `json:"text,omitempty"`
	Attachment   *OutAttachment       `json:"attachment,omitempty"`
	QuickReplies []message.QuickReply `json:"quick_replies,omitempty"`
}

// OutAttachment is a media or template attachment.
type OutAttachment struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// MediaPayload references uploaded media or a URL to upload.
type MediaPayload struct {
	AttachmentID string `json:"attachment_id,omitempty"`
	URL          string `json:"url,omitempty"`
	IsReusable   bool   `json:"is_reusable,omitempty"`
}

// SendResponse is the Send API acknowledgement.
type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// AttachmentUploadRequest is the body of POST /me/message_attachments.
type AttachmentUploadRequest struct {
	Message OutMessage `json:"message"`
}

// AttachmentUploadResponse carries the reusable attachment id.
type AttachmentUploadResponse struct {
	AttachmentID string `json:"attachment_id"`
}

// graphError is the error envelope of every Graph API failure.
type graphError struct {
	Error *APIError `json:"error"`
}

// APIError is a Graph API error.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messenger: api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// WebhookPayload is the body Messenger posts to the webhook.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups events for one page.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging is one webhook event.
type Messaging struct {
	Sender    Recipient  `json:"sender"`
	Recipient Recipient  `json:"recipient"`
	Timestamp int64      `json:"timestamp"`
	Message   *InMessage `json:"message,omitempty"`
	Postback  *Postback  `json:"postback,omitempty"`
}

// InMessage is an inbound message.
type InMessage struct {
	MID        string      `json:"mid"`
	Text       string      `json:"text,omitempty"`
	IsEcho     bool        `json:"is_echo,omitempty"`
	QuickReply *QuickReply `json:"quick_reply,omitempty"`
}

// QuickReply is the payload of a tapped quick reply.
type QuickReply struct {
	Payload string `json:"payload"`
}

// Postback is a tapped postback button.
type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}
