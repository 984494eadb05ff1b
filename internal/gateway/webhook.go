package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/flemzord/newsclaw/internal/security"
	"github.com/go-chi/chi/v5"
)

// Signature headers, in lookup order. Messenger signs with the first.
const (
	headerHubSignature = "X-Hub-Signature-256"
	headerSignature    = "X-Signature-256"
)

// WebhookHandler processes a validated webhook payload.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, source string, body []byte, headers http.Header) error
}

// WebhookVerifier answers the GET subscription handshake. It returns the
// challenge to echo and whether the request was accepted.
type WebhookVerifier interface {
	VerifyWebhook(query url.Values) (string, bool)
}

type webhookEntry struct {
	handler WebhookHandler
	secret  string
}

// WebhookDispatcher routes incoming webhooks to registered handlers with
// HMAC validation.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]webhookEntry
	limits   security.BodyLimits
	logger   *slog.Logger
}

// NewWebhookDispatcher creates a ready-to-use dispatcher. Bodies outside
// limits are rejected before any handler sees them.
func NewWebhookDispatcher(logger *slog.Logger, limits security.BodyLimits) *WebhookDispatcher {
	return &WebhookDispatcher{
		handlers: make(map[string]webhookEntry),
		limits:   limits,
		logger:   logger,
	}
}

// Register adds a handler for the given source with an optional HMAC
// secret. If h also implements WebhookVerifier, GET requests on the
// source are answered by it.
func (d *WebhookDispatcher) Register(source string, h WebhookHandler, secret string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[source] = webhookEntry{handler: h, secret: secret}
}

// Sources returns the registered sources, sorted.
func (d *WebhookDispatcher) Sources() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for s := range d.handlers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (d *WebhookDispatcher) lookup(source string) (webhookEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.handlers[source]
	return e, ok
}

// ServeVerify handles GET /webhooks/{source}.
func (d *WebhookDispatcher) ServeVerify(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	entry, ok := d.lookup(source)
	if !ok {
		observeWebhook(source, outcomeUnknown)
		http.Error(w, "unknown source", http.StatusNotFound)
		return
	}

	verifier, ok := entry.handler.(WebhookVerifier)
	if !ok {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	challenge, ok := verifier.VerifyWebhook(r.URL.Query())
	if !ok {
		observeWebhook(source, outcomeRejected)
		d.logger.Warn("webhook verification rejected", "source", source)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	observeWebhook(source, outcomeVerified)
	d.logger.Info("webhook verified", "source", source)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// ServeHTTP handles POST /webhooks/{source}. It validates the body and
// the HMAC signature if configured, then dispatches to the registered
// handler.
func (d *WebhookDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	source := chi.URLParam(r, "source")
	if source == "" {
		http.Error(w, "missing source", http.StatusBadRequest)
		return
	}

	entry, ok := d.lookup(source)
	if !ok {
		observeWebhook(source, outcomeUnknown)
		d.logger.Warn("webhook received for unregistered source", "source", source)
		http.Error(w, "unknown source", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.limits.Bytes()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			observeWebhook(source, outcomeInvalid)
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		observeWebhook(source, outcomeBadRequest)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if entry.secret != "" && !validateHMAC(body, signatureHeader(r.Header), entry.secret) {
		observeWebhook(source, outcomeRejected)
		d.logger.Warn("webhook signature mismatch", "source", source)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if err := d.limits.Check(body); err != nil {
		observeWebhook(source, outcomeInvalid)
		d.logger.Warn("webhook body rejected", "source", source, "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := entry.handler.HandleWebhook(r.Context(), source, body, r.Header); err != nil {
		observeWebhook(source, outcomeFailed)
		d.logger.Error("webhook handler failed", "source", source, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	observeWebhook(source, outcomeAccepted)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func signatureHeader(h http.Header) string {
	if sig := h.Get(headerHubSignature); sig != "" {
		return sig
	}
	return h.Get(headerSignature)
}

// validateHMAC checks HMAC-SHA256 signature in constant time.
func validateHMAC(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
