// Package hook provides event lifecycle hooks for the router pipeline.
// Hooks intercept an event at three positions: before it is routed, before
// its reply is dispatched, and after dispatch. This enables audit logging,
// event filtering, and reply mutation.
package hook

import (
	"context"
	"log/slog"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/internal/handler"
	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/pkg/message"
)

// Position identifies where in the pipeline a hook executes.
type Position string

const (
	// BeforeProcess runs once the session state is resolved, before the
	// event is routed. Hooks here can drop events.
	BeforeProcess Position = "before_process"

	// BeforeSend runs after the handler, before the reply is dispatched.
	// Hooks here can modify the reply.
	BeforeSend Position = "before_send"

	// AfterSend runs after dispatch, whether or not it succeeded.
	// Hooks here are fire-and-forget (errors are logged, never propagated).
	AfterSend Position = "after_send"
)

// Action signals the pipeline what to do after a hook executes.
type Action int

const (
	// ActionContinue tells the pipeline to proceed normally.
	ActionContinue Action = iota

	// ActionDrop tells the pipeline to stop processing this event.
	// Only valid for BeforeProcess hooks.
	ActionDrop

	// ActionModify signals that the hook mutated the reply.
	// Only meaningful for BeforeSend hooks.
	ActionModify
)

// Context carries data available to hooks. Shared across all three
// positions within a single event.
type Context struct {
	Position Position
	Event    message.InboundEvent
	State    session.State

	// Payload is the routed action. Zero for text events answered without
	// a handler.
	Payload handler.Payload

	// Reply is non-nil for BeforeSend and AfterSend.
	Reply *handler.Reply

	// Delivered and Err are set for AfterSend.
	Delivered []channel.Result
	Err       error

	// Metadata is shared across all 3 positions, allowing hooks
	// to communicate data through the pipeline.
	Metadata map[string]any

	Logger *slog.Logger
}

// Hook is the extension point interface for pipeline interception.
type Hook interface {
	// Position returns where this hook should execute.
	Position() Position

	// Priority determines execution order within a position.
	// Lower values run first.
	Priority() int

	// Execute runs the hook logic. The returned Action tells the
	// pipeline how to proceed.
	Execute(ctx context.Context, hctx *Context) (Action, error)
}
