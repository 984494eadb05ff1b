package router

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/internal/handler"
	"github.com/flemzord/newsclaw/internal/hook"
	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/pkg/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultEventTimeout   = 60 * time.Second
	defaultTypingInterval = 5 * time.Second
)

var tracer = otel.Tracer("github.com/flemzord/newsclaw/internal/router")

// StateResolver resolves the session state of a sender.
type StateResolver interface {
	Resolve(ctx context.Context, sessionID string) (session.State, error)
}

// ChannelLookup resolves a channel by name. Implemented by channel.Registry.
type ChannelLookup interface {
	Get(name string) (channel.Channel, error)
}

// PipelineConfig groups the dependencies of the event pipeline.
type PipelineConfig struct {
	Resolver StateResolver
	Handler  handler.Handler
	Channels ChannelLookup
	LaneLock *LaneLock

	// Hooks intercept events around routing and dispatch. Nil means none.
	Hooks *hook.Pipeline

	// Classifier maps text events to actions. Nil means every text event
	// gets the help reply.
	Classifier Classifier

	// EventTimeout bounds one event end to end. Zero means 60s.
	EventTimeout time.Duration

	// StepTimeout bounds each transport call. Zero means the dispatcher
	// default.
	StepTimeout time.Duration

	// TypingInterval paces typing indicators while a handler runs. Zero
	// means 5s.
	TypingInterval time.Duration

	Logger *slog.Logger
}

// PipelineResult is the outcome of one event.
type PipelineResult struct {
	State     session.State
	Payload   handler.Payload
	Delivered []channel.Result
	Error     error
	Skipped   bool
}

// Pipeline handles one event at a time per sender.
type Pipeline struct {
	cfg PipelineConfig
}

// NewPipeline creates a pipeline with the given configuration.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = defaultEventTimeout
	}
	if cfg.TypingInterval <= 0 {
		cfg.TypingInterval = defaultTypingInterval
	}
	if cfg.LaneLock == nil {
		cfg.LaneLock = NewLaneLock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg}
}

// Execute runs the pipeline for a single event.
func (p *Pipeline) Execute(ctx context.Context, env envelope) PipelineResult {
	ev := env.Event
	logger := p.cfg.Logger.With("channel", ev.Channel, "sender", ev.SenderID, "kind", ev.Kind)
	logger.Debug("pipeline: event received")

	// The timeout covers the wait behind earlier events of the same sender.
	ctx, cancel := context.WithTimeout(ctx, p.cfg.EventTimeout)
	defer cancel()

	if err := p.cfg.LaneLock.Acquire(ctx, env.Key); err != nil {
		logger.Warn("pipeline: gave up waiting for sender lane", "error", err)
		observeEvent(ev.Kind, outcomeDropped)
		return PipelineResult{Error: err, Skipped: true}
	}
	defer p.cfg.LaneLock.Release(env.Key)

	ctx, span := tracer.Start(ctx, "router.Event", trace.WithAttributes(
		attribute.String("event.channel", ev.Channel),
		attribute.String("event.kind", string(ev.Kind)),
	))
	defer span.End()

	res := p.execute(ctx, logger, ev)
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "event failed")
	}
	return res
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, ev message.InboundEvent) PipelineResult {
	ch, err := p.cfg.Channels.Get(ev.Channel)
	if err != nil {
		logger.Error("pipeline: no channel for event", "error", err)
		observeEvent(ev.Kind, outcomeDropped)
		return PipelineResult{Error: err, Skipped: true}
	}

	state, err := p.cfg.Resolver.Resolve(ctx, ev.SenderID)
	if err != nil {
		// Without an identity nothing can be tracked or attributed.
		logger.Error("pipeline: session resolution failed, event dropped", "error", err)
		observeEvent(ev.Kind, outcomeDropped)
		return PipelineResult{Error: err, Skipped: true}
	}
	logger = logger.With("state", state)

	hctx := &hook.Context{
		Event:    ev,
		State:    state,
		Metadata: make(map[string]any),
		Logger:   logger,
	}
	if p.cfg.Hooks != nil {
		if action, _ := p.cfg.Hooks.RunBeforeProcess(ctx, hctx); action == hook.ActionDrop {
			logger.Debug("pipeline: event dropped by hook")
			observeEvent(ev.Kind, outcomeDropped)
			return PipelineResult{State: state, Skipped: true}
		}
	}

	stopTyping := func() {}
	if typer, ok := ch.(channel.Typer); ok {
		var typingCtx context.Context
		typingCtx, stopTyping = context.WithCancel(ctx)
		channel.StartTypingLoop(typingCtx, typer, ev.SenderID, p.cfg.TypingInterval)
	}
	defer stopTyping()

	payload, reply, routed, err := p.route(ctx, logger, ev, state)
	res := PipelineResult{State: state, Payload: payload}
	if err != nil {
		observeEvent(ev.Kind, outcomeDropped)
		res.Error, res.Skipped = err, true
		return res
	}

	if routed {
		reply, err = p.cfg.Handler.Handle(ctx, handler.Request{Event: ev, State: state, Payload: payload})
		switch {
		case errors.Is(err, handler.ErrUnknownAction):
			logger.Warn("pipeline: unknown action, event dropped", "action", payload.Action)
			observeEvent(ev.Kind, outcomeDropped)
			res.Error, res.Skipped = err, true
			return res
		case err != nil:
			logger.Error("pipeline: handler failed", "action", payload.Action, "error", err)
			observeEvent(ev.Kind, outcomeHandlerFail)
			res.Error = err
			reply = handler.TextReply(handler.TextContentFailed)
		}
	}

	if reply.IsZero() {
		if res.Error == nil {
			observeEvent(ev.Kind, outcomeNoReply)
		}
		return res
	}

	hctx.Payload = payload
	hctx.Reply = &reply
	if p.cfg.Hooks != nil {
		_, _ = p.cfg.Hooks.RunBeforeSend(ctx, hctx)
		defer func() {
			hctx.Delivered, hctx.Err = res.Delivered, res.Error
			p.cfg.Hooks.RunAfterSend(ctx, hctx)
		}()
	}

	stopTyping()
	delivered, err := p.dispatch(ctx, ch, ev.SenderID, reply)
	res.Delivered = delivered
	if err != nil {
		logger.Error("pipeline: reply not delivered", "action", payload.Action, "delivered", len(delivered), "error", err)
		observeEvent(ev.Kind, outcomeDispatchErr)
		res.Error = errors.Join(res.Error, err)
		return res
	}
	if res.Error == nil {
		observeEvent(ev.Kind, outcomeReplied)
	}
	return res
}

// route picks the action for ev. routed=false with a non-zero reply means
// the reply is sent without running a handler.
func (p *Pipeline) route(ctx context.Context, logger *slog.Logger, ev message.InboundEvent, state session.State) (payload handler.Payload, reply handler.Reply, routed bool, err error) {
	switch ev.Kind {
	case message.EventPostback, message.EventQuickReply:
		payload, err = handler.ParsePayload(ev.Payload)
		if err != nil {
			logger.Warn("pipeline: unroutable payload, event dropped", "payload", ev.Payload, "error", err)
			return handler.Payload{}, handler.Reply{}, false, err
		}
		return payload, handler.Reply{}, true, nil

	case message.EventText:
		if p.cfg.Classifier == nil {
			return handler.Payload{}, handler.TextReply(handler.TextHelp), false, nil
		}
		payload, ok, cerr := p.cfg.Classifier.Classify(ctx, state.SessionID(), ev.Text)
		if cerr != nil {
			logger.Warn("pipeline: classification failed", "error", cerr)
			return handler.Payload{}, handler.TextReply(handler.TextHelp), false, nil
		}
		if !ok {
			return handler.Payload{}, handler.TextReply(handler.TextHelp), false, nil
		}
		return payload, handler.Reply{}, true, nil
	}

	logger.Debug("pipeline: unsupported event kind, skipped")
	return handler.Payload{}, handler.Reply{}, false, nil
}

func (p *Pipeline) dispatch(ctx context.Context, ch channel.Channel, recipient string, reply handler.Reply) ([]channel.Result, error) {
	steps, err := reply.Steps()
	if err != nil {
		return nil, err
	}

	var attachments channel.AttachmentResolver
	if mc, ok := ch.(channel.MediaChannel); ok {
		attachments = mc.Attachments()
	}

	d := channel.NewDispatcher(ch, attachments, p.cfg.Logger)
	return d.Dispatch(ctx, recipient, steps, channel.Options{Timeout: p.cfg.StepTimeout})
}

func observeEvent(kind message.EventKind, outcome string) {
	EventsTotal.WithLabelValues(string(kind), outcome).Inc()
}
