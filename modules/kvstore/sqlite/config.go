package sqlite

import (
	"fmt"
	"time"

	"github.com/flemzord/newsclaw/internal/session"
	"github.com/robfig/cron/v3"
)

const (
	defaultBusyTimeout = 5000
	defaultDBFile      = "state.db"
)

// Config holds the SQLite key-value store configuration.
type Config struct {
	// Path is the database file path. Defaults to {DataDir}/state.db.
	Path string `yaml:"path"`

	// WAL enables WAL journal mode for concurrent reads. Defaults to true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`

	// Purge configures removal of expired transient-mode records.
	Purge PurgeConfig `yaml:"purge"`
}

// PurgeConfig controls the userstates purge job.
type PurgeConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`

	// Schedule is a 5-field cron expression. Defaults to hourly.
	Schedule string `yaml:"schedule"`

	// MaxAge defaults to the survey window, the longest transient mode.
	MaxAge time.Duration `yaml:"max_age"`
}

func (c *Config) defaults() {
	if c.WAL == nil {
		t := true
		c.WAL = &t
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.Purge.Enabled == nil {
		t := true
		c.Purge.Enabled = &t
	}
	if c.Purge.MaxAge <= 0 {
		c.Purge.MaxAge = session.SurveyWindow
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

func (c *Config) purgeEnabled() bool {
	return c.Purge.Enabled == nil || *c.Purge.Enabled
}

func (c *Config) validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.Purge.Schedule != "" {
		if _, err := cron.ParseStandard(c.Purge.Schedule); err != nil {
			return fmt.Errorf("sqlite: purge.schedule: %w", err)
		}
	}
	if c.Purge.MaxAge < session.SurveyWindow {
		return fmt.Errorf("sqlite: purge.max_age must be at least %s, got %s", session.SurveyWindow, c.Purge.MaxAge)
	}
	return nil
}
