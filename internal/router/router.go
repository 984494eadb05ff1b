package router

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flemzord/newsclaw/internal/handler"
	"github.com/flemzord/newsclaw/internal/hook"
	"github.com/flemzord/newsclaw/internal/security"
	"github.com/flemzord/newsclaw/pkg/message"
)

const defaultInboxSize = 256

// Config holds the configuration for a Router.
type Config struct {
	WorkerCount int
	InboxSize   int

	Resolver   StateResolver
	Handler    handler.Handler
	Channels   ChannelLookup
	Classifier Classifier
	Hooks      *hook.Pipeline

	EventTimeout   time.Duration
	StepTimeout    time.Duration
	TypingInterval time.Duration

	// RateLimiter, if non-nil, limits events per sender.
	RateLimiter *security.RateLimiter

	Logger *slog.Logger
}

// withDefaults returns a copy of the config with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.InboxSize <= 0 {
		c.InboxSize = defaultInboxSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Router is the central dispatch layer. Channels submit events; workers run
// them through the pipeline and deliver replies via the originating channel.
type Router struct {
	config   Config
	inbox    chan envelope
	inboxMu  sync.RWMutex
	laneLock *LaneLock
	pool     *WorkerPool
	pipeline *Pipeline
	cancel   context.CancelFunc
	stopOnce sync.Once
	logger   *slog.Logger
	stopped  atomic.Bool
}

// NewRouter creates a new Router with the given configuration.
func NewRouter(cfg Config) (*Router, error) {
	cfg = cfg.withDefaults()

	switch {
	case cfg.Handler == nil:
		return nil, ErrNoHandler
	case cfg.Resolver == nil:
		return nil, ErrNoResolver
	case cfg.Channels == nil:
		return nil, ErrNoChannels
	}

	laneLock := NewLaneLock()
	pipeline := NewPipeline(PipelineConfig{
		Resolver:       cfg.Resolver,
		Handler:        cfg.Handler,
		Channels:       cfg.Channels,
		Classifier:     cfg.Classifier,
		LaneLock:       laneLock,
		Hooks:          cfg.Hooks,
		EventTimeout:   cfg.EventTimeout,
		StepTimeout:    cfg.StepTimeout,
		TypingInterval: cfg.TypingInterval,
		Logger:         cfg.Logger,
	})

	return &Router{
		config:   cfg,
		inbox:    make(chan envelope, cfg.InboxSize),
		laneLock: laneLock,
		pool:     NewWorkerPool(cfg.WorkerCount, cfg.Logger),
		pipeline: pipeline,
		logger:   cfg.Logger,
	}, nil
}

// Start launches the worker pool and begins processing events.
func (r *Router) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.inboxMu.Lock()
	if r.stopped.Load() {
		r.inboxMu.Unlock()
		cancel()
		r.logger.Warn("router: start ignored, router already stopped")
		return
	}
	r.cancel = cancel
	r.inboxMu.Unlock()

	r.pool.Start(ctx, r.inbox, func(ctx context.Context, env envelope) {
		r.pipeline.Execute(ctx, env)
	})
	r.logger.Info("router: started", "workers", r.config.WorkerCount, "inbox_size", r.config.InboxSize)
}

// Submit enqueues an inbound event for processing. If the inbox is full
// the event is dropped with a warning.
func (r *Router) Submit(ev message.InboundEvent) error {
	r.inboxMu.RLock()
	defer r.inboxMu.RUnlock()

	if r.stopped.Load() {
		return ErrRouterStopped
	}

	key := LaneKeyFromEvent(ev)

	if r.config.RateLimiter != nil {
		if err := r.config.RateLimiter.Allow(key.Channel + ":" + key.SenderID); err != nil {
			r.logger.Warn("router: sender rate limited", "channel", key.Channel, "sender", key.SenderID)
			observeEvent(ev.Kind, outcomeDropped)
			return err
		}
	}

	select {
	case r.inbox <- envelope{Event: ev, Key: key}:
		return nil
	default:
		r.logger.Warn("router: inbox full, event dropped", "channel", key.Channel, "sender", key.SenderID)
		observeEvent(ev.Kind, outcomeDropped)
		return ErrInboxFull
	}
}

// Stop closes the inbox, cancels in-flight events and waits for workers.
func (r *Router) Stop(_ context.Context) {
	r.stopOnce.Do(func() {
		r.logger.Info("router: stopping")

		r.inboxMu.Lock()
		r.stopped.Store(true)
		close(r.inbox)
		cancel := r.cancel
		r.inboxMu.Unlock()

		// Cancel before waiting so in-flight handlers can terminate.
		if cancel != nil {
			cancel()
		}

		r.pool.Wait()
		r.logger.Info("router: stopped")
	})
}

// ActiveLanes returns the number of senders with events in flight.
func (r *Router) ActiveLanes() int {
	return r.laneLock.Len()
}
