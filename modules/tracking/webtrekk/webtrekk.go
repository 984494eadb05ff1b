// Package webtrekk provides the analytics module. It publishes a
// tracking.Factory as the "tracking.factory" service; each tracker reports
// events for one durable identity.
package webtrekk

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/tracking"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
)

// Config holds the collector settings.
type Config struct {
	Endpoint string        `yaml:"endpoint"`
	TrackID  string        `yaml:"track_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webtrekk: endpoint must be a valid http/https URL, got %q", c.Endpoint)
	}
	if c.TrackID == "" {
		return fmt.Errorf("webtrekk: track_id is required")
	}
	return nil
}

func (c *Config) collectorURL() string {
	return c.Endpoint + "/" + url.PathEscape(c.TrackID)
}

// Module registers the tracker factory.
type Module struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "tracking.webtrekk",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("webtrekk: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.client = &http.Client{Timeout: m.config.Timeout}
	ctx.RegisterService("tracking.factory", m.Factory())
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// Factory returns a tracking.Factory building counted trackers.
func (m *Module) Factory() tracking.Factory {
	endpoint := m.config.collectorURL()
	return func(identity string) tracking.Tracker {
		return tracking.Instrumented(NewTracker(endpoint, identity, m.client))
	}
}
