package core

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"slices"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

type moduleState int

const (
	stateLoaded moduleState = iota
	stateStarted
	stateStopped
)

type moduleInstance struct {
	id     ModuleID
	module Module
	state  moduleState
}

// App holds the loaded modules in load order and drives Start and Stop.
// It is not safe for concurrent use.
type App struct {
	ctx       *AppContext
	instances []*moduleInstance
	logger    *slog.Logger
}

// NewApp returns an App with no modules around the root context.
func NewApp(ctx *AppContext) *App {
	return &App{ctx: ctx, logger: ctx.Logger.With("component", "core")}
}

// Context is the root AppContext; commands use it to reach services.
func (a *App) Context() *AppContext {
	return a.ctx
}

// LoadModules loads ids in order; providers must precede their consumers.
// A failure releases every module loaded so far.
func (a *App) LoadModules(ids []string) error {
	for _, id := range ids {
		mod, err := a.ctx.LoadModule(id)
		if err != nil {
			a.shutdown(false)
			return fmt.Errorf("loading module %s: %w", id, err)
		}
		a.add(mod.ModuleInfo().ID, mod)
	}
	return nil
}

// AppendModule adds a module assembled outside the registry, such as the
// router built from other modules' services. Call it before Start.
func (a *App) AppendModule(id ModuleID, mod Module) {
	a.add(id, mod)
}

func (a *App) add(id ModuleID, mod Module) {
	a.instances = append(a.instances, &moduleInstance{id: id, module: mod})
	a.logger.Info("module loaded", "module", string(id))
}

// Module finds a loaded module by ID.
func (a *App) Module(id string) (Module, bool) {
	i := slices.IndexFunc(a.instances, func(mi *moduleInstance) bool { return string(mi.id) == id })
	if i < 0 {
		return nil, false
	}
	return a.instances[i].module, true
}

// Modules lists loaded module IDs in load order.
func (a *App) Modules() []ModuleID {
	ids := make([]ModuleID, len(a.instances))
	for i, mi := range a.instances {
		ids[i] = mi.id
	}
	return ids
}

// Start starts modules in load order. On failure the modules already
// started are stopped, newest first, and the rest are released.
func (a *App) Start() error {
	for _, mi := range a.instances {
		if s, ok := mi.module.(Starter); ok {
			a.logger.Info("starting module", "module", string(mi.id))
			if err := s.Start(); err != nil {
				a.logger.Error("module start failed", "module", string(mi.id), "error", err)
				a.shutdown(true)
				return fmt.Errorf("starting module %s: %w", mi.id, err)
			}
		}
		mi.state = stateStarted
	}
	a.logger.Info("all modules started", "count", len(a.instances))
	return nil
}

// Stop stops every module, newest first. Modules that were provisioned
// but never started are stopped too, so resources opened in Provision are
// released.
func (a *App) Stop() {
	a.shutdown(true)
}

func (a *App) shutdown(logged bool) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, mi := range slices.Backward(a.instances) {
		if mi.state == stateStopped {
			continue
		}
		s, ok := mi.module.(Stopper)
		if ok {
			if logged && mi.state == stateStarted {
				a.logger.Info("stopping module", "module", string(mi.id))
			}
			if err := s.Stop(ctx); err != nil && logged {
				a.logger.Error("module stop error", "module", string(mi.id), "error", err)
			}
		}
		mi.state = stateStopped
	}
	a.instances = nil
}

// Run starts all modules and blocks until ctx is done or SIGINT/SIGTERM
// arrives, then stops them.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.logger.Info("shutdown requested")
	a.Stop()
	a.logger.Info("shutdown complete")
	return nil
}
