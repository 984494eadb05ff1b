// Package gateway is the HTTP front door of newsclaw. It serves webhook
// verification and delivery for channel modules, a health endpoint and
// the Prometheus scrape endpoint.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/flemzord/newsclaw/internal/core"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

var (
	_ core.Module       = (*Gateway)(nil)
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// Services ending in healthSuffix are reported on /health under the name
// before the suffix.
const healthSuffix = ".health"

// Gateway is the gateway.http module. Channels reach it only through the
// gateway.webhook_dispatcher service.
type Gateway struct {
	config     Config
	appCtx     *core.AppContext
	logger     *slog.Logger
	dispatcher *WebhookDispatcher

	server    *http.Server
	listener  net.Listener
	served    chan struct{}
	checks    map[string]HealthChecker
	startedAt time.Time
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner. The dispatcher is published here
// so channel modules find it when they start.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.dispatcher = NewWebhookDispatcher(g.logger, g.config.Webhook)
	ctx.RegisterService("gateway.webhook_dispatcher", g.dispatcher)
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(g.config.Bind); err != nil {
		errs = append(errs, fmt.Errorf("gateway: bind %q: %w", g.config.Bind, err))
	}
	if a := g.config.Auth; (a.BasicUser == "") != (a.BasicPass == "") {
		errs = append(errs, errors.New("gateway: auth.basic_user and auth.basic_pass must be set together"))
	}
	if g.config.Webhook.MaxBytes < 0 || g.config.Webhook.MaxDepth < 0 {
		errs = append(errs, errors.New("gateway: webhook limits must not be negative"))
	}
	return errors.Join(errs...)
}

// Start implements core.Starter. Health checkers are collected now, after
// every module has provisioned.
func (g *Gateway) Start() error {
	g.checks = discoverHealthChecks(g.appCtx)

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", g.config.Bind, err)
	}
	g.listener = ln
	g.startedAt = time.Now()
	g.served = make(chan struct{})
	g.server = &http.Server{
		Handler:           g.buildRouter(),
		ReadTimeout:       g.config.ReadTimeout,
		ReadHeaderTimeout: g.config.ReadTimeout,
		WriteTimeout:      g.config.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(g.logger.Handler(), slog.LevelWarn),
	}

	g.logger.Info("gateway listening", "addr", ln.Addr().String(), "health_checks", len(g.checks))
	go func() {
		defer close(g.served)
		if err := g.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway stopped serving", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once started, useful with port 0.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Stop implements core.Stopper. In-flight requests get ShutdownTimeout to
// finish.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	err := g.server.Shutdown(ctx)
	<-g.served
	return err
}

func discoverHealthChecks(appCtx *core.AppContext) map[string]HealthChecker {
	checks := make(map[string]HealthChecker)
	for _, name := range appCtx.ServiceNames() {
		component, ok := strings.CutSuffix(name, healthSuffix)
		if !ok {
			continue
		}
		svc, _ := appCtx.Service(name)
		if hc, ok := svc.(HealthChecker); ok {
			checks[component] = hc
		}
	}
	return checks
}
