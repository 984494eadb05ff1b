package hook

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Errors counts failed hook executions by position.
var Errors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "newsclaw",
	Name:      "hook_errors_total",
	Help:      "Hook executions that returned an error, by position.",
}, []string{"position"})

type registered struct {
	hook Hook
	seq  int
}

// Pipeline holds hooks grouped by position, ordered by priority and then
// registration order. Safe for concurrent use; hooks registered during a
// run take effect from the next event.
type Pipeline struct {
	mu    sync.RWMutex
	hooks map[Position][]registered
	seq   int
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{hooks: make(map[Position][]registered)}
}

// Register adds h at its position.
func (p *Pipeline) Register(h Hook) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos := h.Position()
	// Copy so slices handed to running executions are never reordered.
	hs := append(slices.Clone(p.hooks[pos]), registered{hook: h, seq: p.seq})
	p.seq++
	slices.SortStableFunc(hs, func(a, b registered) int {
		return cmp.Or(cmp.Compare(a.hook.Priority(), b.hook.Priority()), cmp.Compare(a.seq, b.seq))
	})
	p.hooks[pos] = hs
}

// Len returns the number of hooks at pos.
func (p *Pipeline) Len(pos Position) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks[pos])
}

// RunBeforeProcess runs BeforeProcess hooks until one drops the event.
func (p *Pipeline) RunBeforeProcess(ctx context.Context, hctx *Context) (Action, error) {
	result := ActionContinue
	p.run(ctx, BeforeProcess, hctx, func(a Action) bool {
		if a == ActionDrop {
			result = ActionDrop
			return false
		}
		return true
	})
	return result, nil
}

// RunBeforeSend runs every BeforeSend hook and reports ActionModify if
// any of them changed the reply.
func (p *Pipeline) RunBeforeSend(ctx context.Context, hctx *Context) (Action, error) {
	result := ActionContinue
	p.run(ctx, BeforeSend, hctx, func(a Action) bool {
		if a == ActionModify {
			result = ActionModify
		}
		return true
	})
	return result, nil
}

// RunAfterSend runs every AfterSend hook.
func (p *Pipeline) RunAfterSend(ctx context.Context, hctx *Context) {
	p.run(ctx, AfterSend, hctx, func(Action) bool { return true })
}

// run executes the hooks at pos in order. A hook error is logged and
// counted, and its action still applies. next returns false to stop.
func (p *Pipeline) run(ctx context.Context, pos Position, hctx *Context, next func(Action) bool) {
	p.mu.RLock()
	hooks := p.hooks[pos]
	p.mu.RUnlock()

	hctx.Position = pos
	for _, r := range hooks {
		action, err := r.hook.Execute(ctx, hctx)
		if err != nil {
			Errors.WithLabelValues(string(pos)).Inc()
			if hctx.Logger != nil {
				hctx.Logger.Warn("hook: execution failed",
					"position", pos,
					"priority", r.hook.Priority(),
					"error", err,
				)
			}
		}
		if !next(action) {
			return
		}
	}
}
