package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/handler"
	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/security"
)

func newTestRouter(t *testing.T, ch *mediaChannel, mutate func(*Config)) *Router {
	t.Helper()

	mux := handler.NewMux()
	mux.Register("hello", handler.HandlerFunc(func(context.Context, handler.Request) (handler.Reply, error) {
		return handler.TextReply("hello"), nil
	}))
	cfg := Config{
		WorkerCount:    2,
		Resolver:       newResolver(kvstore.OpenCollections(kvstore.NewMemory())),
		Handler:        mux,
		Channels:       newRegistry(t, ch),
		TypingInterval: time.Hour,
		Logger:         testLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewRouter(cfg)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	t.Parallel()

	ch := newMediaChannel()
	full := Config{
		Resolver: newResolver(kvstore.OpenCollections(kvstore.NewMemory())),
		Handler:  handler.NewMux(),
		Channels: newRegistry(t, ch),
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no handler", func(c *Config) { c.Handler = nil }, ErrNoHandler},
		{"no resolver", func(c *Config) { c.Resolver = nil }, ErrNoResolver},
		{"no channels", func(c *Config) { c.Channels = nil }, ErrNoChannels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := full
			tt.mutate(&cfg)
			if _, err := NewRouter(cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewRouter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	t.Parallel()

	ch := newMediaChannel()
	r := newTestRouter(t, ch, nil)
	ch.SetInbox(r.Submit)

	r.Start(context.Background())
	defer r.Stop(context.Background())

	if err := ch.SimulateEvent(postback("psid-1", `{"action":"hello"}`)); err != nil {
		t.Fatalf("SimulateEvent: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for len(ch.Calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the reply")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := ch.Calls()[0]; got.Text != "hello" || got.Envelope.Recipient != "psid-1" {
		t.Errorf("call = %+v", got)
	}
}

func TestRouter_InboxFull(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMediaChannel(), func(c *Config) { c.InboxSize = 1 })

	// Not started: nothing drains the inbox.
	if err := r.Submit(postback("psid-1", `{"action":"hello"}`)); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := r.Submit(postback("psid-2", `{"action":"hello"}`)); !errors.Is(err, ErrInboxFull) {
		t.Errorf("second Submit error = %v, want ErrInboxFull", err)
	}
}

func TestRouter_RateLimitsPerSender(t *testing.T) {
	t.Parallel()

	limiter := security.NewRateLimiter(security.RateLimitConfig{EventsPerMin: 1})
	r := newTestRouter(t, newMediaChannel(), func(c *Config) { c.RateLimiter = limiter })

	if err := r.Submit(postback("psid-1", `{"action":"hello"}`)); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := r.Submit(postback("psid-1", `{"action":"hello"}`)); !errors.Is(err, security.ErrRateLimited) {
		t.Errorf("second Submit error = %v, want ErrRateLimited", err)
	}
	if err := r.Submit(postback("psid-2", `{"action":"hello"}`)); err != nil {
		t.Errorf("other sender Submit: %v", err)
	}
}

func TestRouter_StopRejectsSubmit(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, newMediaChannel(), nil)
	r.Start(context.Background())
	r.Stop(context.Background())
	r.Stop(context.Background())

	if err := r.Submit(postback("psid-1", `{"action":"hello"}`)); !errors.Is(err, ErrRouterStopped) {
		t.Errorf("Submit after Stop error = %v, want ErrRouterStopped", err)
	}
	if got := r.ActiveLanes(); got != 0 {
		t.Errorf("ActiveLanes() = %d, want 0", got)
	}

	// Start after Stop is ignored.
	r.Start(context.Background())
}
