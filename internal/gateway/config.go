package gateway

import (
	"time"

	"github.com/flemzord/newsclaw/internal/security"
)

// Config is the gateway.http section.
type Config struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// HealthTimeout bounds each check behind /health.
	HealthTimeout time.Duration `yaml:"health_timeout"`
	// Webhook bounds inbound webhook bodies. Zero fields use the
	// security package defaults.
	Webhook security.BodyLimits `yaml:"webhook"`
}

const (
	defaultBind            = "127.0.0.1:8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultHealthTimeout   = 2 * time.Second
)

func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = defaultBind
	}
	for _, d := range []struct {
		field *time.Duration
		def   time.Duration
	}{
		{&c.ReadTimeout, defaultReadTimeout},
		{&c.WriteTimeout, defaultWriteTimeout},
		{&c.ShutdownTimeout, defaultShutdownTimeout},
		{&c.HealthTimeout, defaultHealthTimeout},
	} {
		if *d.field <= 0 {
			*d.field = d.def
		}
	}
}

// AuthConfig protects /metrics. Webhooks are authenticated by signature.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured reports whether any credential is set.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}
