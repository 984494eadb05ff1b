// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for newsclaw.
package config

import (
	"time"

	"github.com/flemzord/newsclaw/internal/security"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.messenger").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Router tunes event handling.
	Router RouterConfig `yaml:"router,omitempty"`
}

// RouterConfig tunes the event router. Zero values mean the router's
// defaults.
type RouterConfig struct {
	Workers        int                      `yaml:"workers"`
	InboxSize      int                      `yaml:"inbox_size"`
	EventTimeout   time.Duration            `yaml:"event_timeout"`
	StepTimeout    time.Duration            `yaml:"step_timeout"`
	TypingInterval time.Duration            `yaml:"typing_interval"`
	RateLimit      security.RateLimitConfig `yaml:"rate_limit"`

	// AuditLog is a JSON Lines file recording every answered event.
	// Relative paths are under the data directory. Empty disables it.
	AuditLog string `yaml:"audit_log"`
}
