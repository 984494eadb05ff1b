package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/handler"
	"github.com/flemzord/newsclaw/internal/hook"
	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/router"
	"github.com/flemzord/newsclaw/internal/security"
	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/internal/tracking"
)

// routerModule puts a *router.Router into the App lifecycle.
type routerModule struct {
	router *router.Router
	ctx    context.Context
	audit  io.Closer
}

func (m *routerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "router"}
}

func (m *routerModule) Start() error {
	m.router.Start(m.ctx)
	return nil
}

func (m *routerModule) Stop(ctx context.Context) error {
	m.router.Stop(ctx)
	if m.audit != nil {
		return m.audit.Close()
	}
	return nil
}

// NewResolver builds the session resolver from the loaded kvstore module
// and, when configured, the tracking module.
func NewResolver(appCtx *core.AppContext) (*session.Resolver, error) {
	stores, err := core.ServiceAs[kvstore.Collections](appCtx, "kvstore.collections")
	if err != nil {
		return nil, fmt.Errorf("session resolver: %w", err)
	}

	r := &session.Resolver{Stores: stores, Logger: appCtx.Logger}
	if factory, err := core.ServiceAs[tracking.Factory](appCtx, "tracking.factory"); err == nil {
		r.Trackers = factory
	}
	return r, nil
}

// wireRouter builds the handler mux and the router, gives every loaded
// channel its inbox and appends the router to the app lifecycle. It must
// run after LoadModules and before Start.
func wireRouter(rt *Runtime) error {
	app, appCtx, logger := rt.App, rt.App.Context(), rt.Logger

	registry := channel.NewRegistry()
	var channels []channel.Channel
	for _, id := range app.Modules() {
		mod, ok := app.Module(string(id))
		if !ok {
			continue
		}
		ch, ok := mod.(channel.Channel)
		if !ok {
			continue
		}
		// Channels tag inbound events with their module ID.
		if err := registry.Register(string(id), ch); err != nil {
			return fmt.Errorf("registering channel %s: %w", id, err)
		}
		channels = append(channels, ch)
		logger.Info("router: registered channel", "channel", id)
	}
	if len(channels) == 0 {
		logger.Warn("router: no channel module loaded, nothing to route")
		return nil
	}

	repo, err := core.ServiceAs[content.Repository](appCtx, "content.repository")
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	resolver, err := NewResolver(appCtx)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	mux, err := handler.NewStandardMux(handler.Deps{
		Content: repo,
		Stores:  resolver.Stores,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	var classifier router.Classifier
	if c, err := core.ServiceAs[router.Classifier](appCtx, "router.classifier"); err == nil {
		classifier = c
	}

	rc := rt.Config.Router
	hooks := hook.NewPipeline()
	var audit *os.File
	if rc.AuditLog != "" {
		audit, err = openAuditLog(appCtx.DataDir, rc.AuditLog)
		if err != nil {
			return err
		}
		hooks.Register(hook.NewAuditHook(audit))
	}

	r, err := router.NewRouter(router.Config{
		WorkerCount:    rc.Workers,
		InboxSize:      rc.InboxSize,
		Resolver:       resolver,
		Handler:        mux,
		Channels:       registry,
		Classifier:     classifier,
		Hooks:          hooks,
		EventTimeout:   rc.EventTimeout,
		StepTimeout:    rc.StepTimeout,
		TypingInterval: rc.TypingInterval,
		RateLimiter:    security.NewRateLimiter(rc.RateLimit),
		Logger:         logger,
	})
	if err != nil {
		if audit != nil {
			_ = audit.Close()
		}
		return fmt.Errorf("creating router: %w", err)
	}

	for _, ch := range channels {
		ch.SetInbox(r.Submit)
	}

	// The router starts after the channels; events submitted in between
	// wait in the inbox.
	mod := &routerModule{router: r, ctx: context.Background()}
	if audit != nil {
		mod.audit = audit
	}
	app.AppendModule("router", mod)

	logger.Info("router: wired",
		"channels", len(channels),
		"actions", mux.Actions(),
		"classifier", classifier != nil,
		"audit_log", rc.AuditLog != "",
	)
	return nil
}

func openAuditLog(dataDir, path string) (*os.File, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	return f, nil
}
