package messenger

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/flemzord/newsclaw/pkg/message"
)

// WebhookReceiver processes Messenger webhook requests. It implements
// gateway.WebhookHandler and gateway.WebhookVerifier. Signature checks
// happen in the gateway dispatcher before HandleWebhook is called.
type WebhookReceiver struct {
	inbox       func(message.InboundEvent) error
	logger      *slog.Logger
	channelName string
	verifyToken string
}

// NewWebhookReceiver creates a new WebhookReceiver.
func NewWebhookReceiver(inbox func(message.InboundEvent) error, logger *slog.Logger, channelName, verifyToken string) *WebhookReceiver {
	return &WebhookReceiver{
		inbox:       inbox,
		logger:      logger,
		channelName: channelName,
		verifyToken: verifyToken,
	}
}

// VerifyWebhook answers the subscription handshake: it returns
// hub.challenge when hub.mode is "subscribe" and hub.verify_token matches.
func (w *WebhookReceiver) VerifyWebhook(query url.Values) (string, bool) {
	if query.Get("hub.mode") != "subscribe" {
		return "", false
	}
	token := query.Get("hub.verify_token")
	if subtle.ConstantTimeCompare([]byte(w.verifyToken), []byte(token)) != 1 {
		return "", false
	}
	return query.Get("hub.challenge"), true
}

// HandleWebhook parses the payload and pushes every supported event to the
// inbox. Inbox errors are joined and returned so the gateway answers 500.
func (w *WebhookReceiver) HandleWebhook(_ context.Context, _ string, body []byte, _ http.Header) error {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("messenger: invalid webhook JSON: %w", err)
	}
	if payload.Object != "page" {
		w.logger.Debug("skipping webhook for non-page object", "object", payload.Object)
		return nil
	}

	var errs []error
	for _, entry := range payload.Entry {
		for _, m := range entry.Messaging {
			ev, err := convertInbound(m, w.channelName)
			if err != nil {
				w.logger.Debug("skipping webhook event", "page", entry.ID, "sender", m.Sender.ID)
				continue
			}
			if err := w.inbox(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
