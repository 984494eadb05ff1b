package security

import (
	"context"
	"log/slog"
	"regexp"
)

// secretAttrPattern matches log attribute keys whose values are always
// secrets, e.g. page_token or app_secret. Narrower than secretKeyPattern:
// log keys like "key" or "cache_key" carry ordinary values.
var secretAttrPattern = regexp.MustCompile(`(?i)(^|_)(token|secret|password)$`)

// RedactingHandler wraps a slog.Handler. Messages and string attribute
// values pass through the Redactor; attributes named like secrets are
// replaced outright.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler wraps inner.
func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: redactor}
}

// Enabled delegates to the inner handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the record and passes it on.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs redacts attrs once, then folds them into the inner handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup delegates to the inner handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	// LogValuers such as session.State resolve to groups here.
	a.Value = a.Value.Resolve()

	if a.Value.Kind() != slog.KindGroup && secretAttrPattern.MatchString(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		a.Value = slog.StringValue(RedactPlaceholder)
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.redactor.Redact(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = h.redactAttr(ga)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindAny:
		// Errors and other values are logged by their string form; an
		// error wrapping a Graph API URL carries the access token.
		s := a.Value.String()
		if r := h.redactor.Redact(s); r != s {
			a.Value = slog.StringValue(r)
		}
	}
	return a
}
