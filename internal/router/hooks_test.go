package router

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/handler"
	"github.com/flemzord/newsclaw/internal/hook"
	"github.com/flemzord/newsclaw/internal/kvstore"
)

type funcHook struct {
	pos hook.Position
	fn  func(hctx *hook.Context) hook.Action
}

func (h funcHook) Position() hook.Position { return h.pos }
func (h funcHook) Priority() int           { return 0 }
func (h funcHook) Execute(_ context.Context, hctx *hook.Context) (hook.Action, error) {
	return h.fn(hctx), nil
}

func TestPipeline_Hooks(t *testing.T) {
	t.Parallel()

	var audit bytes.Buffer
	hooks := hook.NewPipeline()
	hooks.Register(funcHook{pos: hook.BeforeProcess, fn: func(hctx *hook.Context) hook.Action {
		if hctx.Event.SenderID == "psid-blocked" {
			return hook.ActionDrop
		}
		return hook.ActionContinue
	}})
	hooks.Register(funcHook{pos: hook.BeforeSend, fn: func(hctx *hook.Context) hook.Action {
		hctx.Reply.Content[0].Text += "!"
		return hook.ActionModify
	}})
	hooks.Register(hook.NewAuditHook(&audit))

	ch := newMediaChannel()
	mux := handler.NewMux()
	mux.Register("hello", handler.HandlerFunc(func(context.Context, handler.Request) (handler.Reply, error) {
		return handler.TextReply("hallo"), nil
	}))
	p := NewPipeline(PipelineConfig{
		Resolver:       newResolver(kvstore.OpenCollections(kvstore.NewMemory())),
		Handler:        mux,
		Channels:       newRegistry(t, ch),
		Hooks:          hooks,
		TypingInterval: time.Hour,
		Logger:         testLogger(),
	})

	res := p.Execute(context.Background(), envelopeFor(postback("psid-blocked", `{"action":"hello"}`)))
	if !res.Skipped || res.Error != nil {
		t.Errorf("blocked result = %+v, want skipped without error", res)
	}
	if calls := ch.Calls(); len(calls) != 0 {
		t.Fatalf("blocked sender got %d transport calls", len(calls))
	}

	res = p.Execute(context.Background(), envelopeFor(postback("psid-1", `{"action":"hello"}`)))
	if res.Error != nil || res.Skipped {
		t.Fatalf("result = %+v", res)
	}
	calls := ch.Calls()
	if len(calls) != 1 || calls[0].Text != "hallo!" {
		t.Fatalf("calls = %+v, want the modified reply", calls)
	}

	lines := strings.Split(strings.TrimSpace(audit.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("audit lines = %d, want 1:\n%s", len(lines), audit.String())
	}
	if !strings.Contains(lines[0], `"action":"hello"`) || !strings.Contains(lines[0], `"delivered":1`) {
		t.Errorf("audit line = %s", lines[0])
	}
}
