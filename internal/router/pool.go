package router

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/flemzord/newsclaw/pkg/message"
)

// DefaultWorkerCount is the number of workers when no size is specified.
const DefaultWorkerCount = 10

// envelope is the inbox item.
type envelope struct {
	Event message.InboundEvent
	Key   LaneKey
}

// WorkerPool runs a fixed number of goroutines draining the inbox. A
// panicking event is logged and counted; its worker keeps going.
type WorkerPool struct {
	size   int
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewWorkerPool creates a pool. size <= 0 means DefaultWorkerCount.
func NewWorkerPool(size int, logger *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = DefaultWorkerCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{size: size, logger: logger}
}

// Start launches the workers. They exit once inbox is closed and drained.
func (p *WorkerPool) Start(ctx context.Context, inbox <-chan envelope, handle func(context.Context, envelope)) {
	p.wg.Add(p.size)
	for range p.size {
		go func() {
			defer p.wg.Done()
			for env := range inbox {
				p.run(ctx, env, handle)
			}
		}()
	}
}

func (p *WorkerPool) run(ctx context.Context, env envelope, handle func(context.Context, envelope)) {
	InFlight.Inc()
	defer InFlight.Dec()
	defer func() {
		if v := recover(); v != nil {
			p.logger.Error("router: event handling panicked",
				"channel", env.Key.Channel,
				"sender", env.Key.SenderID,
				"panic", v,
				"stack", string(debug.Stack()),
			)
			observeEvent(env.Event.Kind, outcomePanic)
		}
	}()
	handle(ctx, env)
}

// Wait blocks until all workers have exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
