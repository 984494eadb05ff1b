// Package core provides the module system newsclaw is assembled from:
// a registry of modules, their lifecycle, and a shared service registry
// through which modules find each other at runtime.
package core

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// services is shared by every AppContext derived from the same root.
type services struct {
	mu sync.RWMutex
	m  map[string]any
}

// AppContext carries shared resources available to modules during
// provisioning and at runtime.
type AppContext struct {
	// Logger for the current module scope.
	Logger *slog.Logger

	// DataDir is the root directory for persistent module data.
	DataDir string

	parentLogger  *slog.Logger
	moduleConfigs map[string]yaml.Node
	services      *services
}

// NewAppContext creates a root AppContext.
func NewAppContext(logger *slog.Logger, dataDir string) *AppContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppContext{
		Logger:       logger,
		DataDir:      dataDir,
		parentLogger: logger,
		services:     &services{m: make(map[string]any)},
	}
}

// WithModuleConfigs returns a copy of the AppContext with module
// configurations set, keyed by module ID.
func (ctx *AppContext) WithModuleConfigs(configs map[string]yaml.Node) *AppContext {
	cp := *ctx
	cp.moduleConfigs = configs
	return &cp
}

// ForModule returns an AppContext scoped to the given module, with a child
// logger carrying the module ID.
func (ctx *AppContext) ForModule(id ModuleID) *AppContext {
	return &AppContext{
		Logger:        ctx.parentLogger.With("module", string(id)),
		DataDir:       ctx.DataDir,
		parentLogger:  ctx.parentLogger,
		moduleConfigs: ctx.moduleConfigs,
		services:      ctx.services,
	}
}

// RegisterService publishes a value under name for other modules.
// A later registration under the same name replaces the earlier one.
func (ctx *AppContext) RegisterService(name string, svc any) {
	ctx.services.mu.Lock()
	defer ctx.services.mu.Unlock()
	ctx.services.m[name] = svc
}

// Service looks up a value published with RegisterService.
func (ctx *AppContext) Service(name string) (any, bool) {
	ctx.services.mu.RLock()
	defer ctx.services.mu.RUnlock()
	svc, ok := ctx.services.m[name]
	return svc, ok
}

// ServiceNames returns the names of all registered services, sorted.
func (ctx *AppContext) ServiceNames() []string {
	ctx.services.mu.RLock()
	defer ctx.services.mu.RUnlock()
	names := make([]string, 0, len(ctx.services.m))
	for name := range ctx.services.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServiceAs looks up a service and asserts its type.
func ServiceAs[T any](ctx *AppContext, name string) (T, error) {
	var zero T
	svc, ok := ctx.Service(name)
	if !ok {
		return zero, fmt.Errorf("service %q not registered", name)
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service %q has type %T", name, svc)
	}
	return typed, nil
}

// LoadModule instantiates a module by ID and runs
//
//	New() → Configure() → Provision() → Validate()
//
// for whichever of those interfaces it implements.
func (ctx *AppContext) LoadModule(id string) (Module, error) {
	info, ok := GetModule(id)
	if !ok {
		return nil, fmt.Errorf("unknown module: %s", id)
	}

	mod := info.New()

	if c, ok := mod.(Configurable); ok {
		if node, exists := ctx.moduleConfigs[id]; exists {
			if err := c.Configure(&node); err != nil {
				return nil, fmt.Errorf("configuring module %s: %w", id, err)
			}
		}
	}

	if p, ok := mod.(Provisioner); ok {
		if err := p.Provision(ctx.ForModule(info.ID)); err != nil {
			return nil, fmt.Errorf("provisioning module %s: %w", id, err)
		}
	}

	if v, ok := mod.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validating module %s: %w", id, err)
		}
	}

	return mod, nil
}
