// Package app provides the entry point shared by the newsclaw commands:
// configuration loading, logging setup, module loading and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/flemzord/newsclaw/internal/config"
	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/otel"
	"github.com/flemzord/newsclaw/internal/security"
)

// ServiceName is the service name reported in traces.
const ServiceName = "newsclaw"

// RunParams configures the application.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Runtime is a loaded configuration with its logger and application
// shell. Modules are not loaded yet.
type Runtime struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Redactor   *security.Redactor
	App        *core.App
}

// Bootstrap resolves, loads and validates the configuration, then builds
// the redacting logger and the app context.
func Bootstrap(params RunParams) (*Runtime, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	// Modules add their secrets to the redactor during Provision.
	redactor := security.NewRedactor()
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: params.LogLevel})
	logger := slog.New(security.NewRedactingHandler(inner, redactor))

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	appCtx := core.NewAppContext(logger, dataDir).WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService("security.redactor", redactor)
	appCtx.RegisterService("config.path", cfgPath)

	return &Runtime{
		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     logger,
		Redactor:   redactor,
		App:        core.NewApp(appCtx),
	}, nil
}

// LoadModules loads the configured modules in dependency order. With
// namespaces given, only modules in those namespaces are loaded.
func (rt *Runtime) LoadModules(namespaces ...string) error {
	ids := config.Resolve(rt.Config)
	if len(namespaces) > 0 {
		ids = slices.DeleteFunc(ids, func(id string) bool {
			return !slices.Contains(namespaces, core.ModuleID(id).Namespace())
		})
	}
	return rt.App.LoadModules(ids)
}

// Run loads configuration, starts all modules and blocks until SIGINT or
// SIGTERM.
func Run(params RunParams) error {
	rt, err := Bootstrap(params)
	if err != nil {
		return err
	}

	shutdownTracing, err := otel.Setup(context.Background(), ServiceName, params.Version)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			rt.Logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	rt.Logger.Info("starting newsclaw",
		"version", params.Version,
		"commit", params.Commit,
		"config", rt.ConfigPath,
	)

	if err := rt.LoadModules(); err != nil {
		return err
	}

	// Wire between LoadModules and Start: channels need their inbox before
	// they register webhooks.
	if err := wireRouter(rt); err != nil {
		rt.App.Stop()
		return err
	}

	return rt.App.Run(context.Background())
}

// Environment overrides for the file locations.
const (
	EnvConfigPath = "NEWSCLAW_CONFIG"
	EnvDataDir    = "NEWSCLAW_DATA_DIR"
)

// ResolveConfigPath returns the first existing config file among
// $NEWSCLAW_CONFIG, $XDG_CONFIG_HOME/newsclaw/newsclaw.yaml (or
// ~/.config/newsclaw/newsclaw.yaml when XDG_CONFIG_HOME is unset) and
// ./newsclaw.yaml. A set $NEWSCLAW_CONFIG that does not exist is an error.
func ResolveConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s: %w", EnvConfigPath, err)
		}
		return path, nil
	}

	var searched []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		searched = append(searched, filepath.Join(xdg, "newsclaw", "newsclaw.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		searched = append(searched, filepath.Join(home, ".config", "newsclaw", "newsclaw.yaml"))
	}
	searched = append(searched, "newsclaw.yaml")

	if i := slices.IndexFunc(searched, fileExists); i >= 0 {
		return searched[i], nil
	}
	return "", fmt.Errorf("no configuration file found in %s", strings.Join(searched, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DefaultDataDir is $NEWSCLAW_DATA_DIR, else $XDG_DATA_HOME/newsclaw,
// else ~/.local/share/newsclaw.
func DefaultDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "newsclaw")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "newsclaw")
}
