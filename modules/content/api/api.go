// Package api provides the content repository module: an HTTP client for
// the editorial news API published as the "content.repository" service.
package api

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/internal/core"
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

// Config holds the content API configuration.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("content: base_url must be a valid http/https URL, got %q", c.BaseURL)
	}
	return nil
}

// Module registers the content repository.
type Module struct {
	config Config
	client *content.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "content.api",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("content: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.client = content.NewClient(m.config.BaseURL, m.config.Timeout)
	ctx.RegisterService("content.repository", content.Repository(m.client))
	m.logger.Info("content repository provisioned", "base_url", m.config.BaseURL)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}
