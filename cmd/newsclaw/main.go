// Package main is the entry point for the newsclaw CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/flemzord/newsclaw/internal/config"
	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/cron"
	"github.com/flemzord/newsclaw/internal/security"
	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/pkg/app"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	_ "github.com/flemzord/newsclaw/internal/gateway"
	_ "github.com/flemzord/newsclaw/modules/channel/messenger"
	_ "github.com/flemzord/newsclaw/modules/content/api"
	_ "github.com/flemzord/newsclaw/modules/kvstore/sqlite"
	_ "github.com/flemzord/newsclaw/modules/tracking/webtrekk"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "newsclaw",
		Short:         "A Messenger news bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), sessionCmd(), maintenanceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "newsclaw %s (commit: %s, built: %s)\n", version, commit, date)
			mods := core.GetModules()
			if len(mods) == 0 {
				fmt.Fprintln(out, "\nNo compiled modules.")
				return
			}
			fmt.Fprintln(out, "\nCompiled modules:")
			for _, mod := range mods {
				fmt.Fprintf(out, "  %s\n", mod.ID)
			}
		},
	}
}

func startCmd() *cobra.Command {
	var (
		cfgPath  string
		dataDir  string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start newsclaw with all configured modules",
		RunE: func(_ *cobra.Command, _ []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			return app.Run(app.RunParams{
				ConfigPath: cfgPath,
				DataDir:    dataDir,
				LogLevel:   level,
				Version:    version,
				Commit:     commit,
				Date:       date,
			})
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Persistent data directory")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	var show bool
	check := &cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ids := config.Resolve(cfg)
			fmt.Fprintf(out, "Configuration OK (%d modules)\n", len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "  %s\n", id)
			}
			if show {
				return printRedacted(out, cfg)
			}
			return nil
		},
	}
	check.Flags().BoolVar(&show, "print", false, "Print module sections with secrets redacted")
	cmd.AddCommand(check)
	return cmd
}

// printRedacted dumps every module section with credentials masked.
func printRedacted(w io.Writer, cfg *config.Config) error {
	modules := make(map[string]any, len(cfg.Modules))
	for id, node := range cfg.Modules {
		var section map[string]any
		if err := node.Decode(&section); err != nil {
			return fmt.Errorf("decoding %s: %w", id, err)
		}
		modules[id] = section
	}

	redactor := security.NewRedactor()
	redactor.RedactMap(modules)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"modules": modules}); err != nil {
		return err
	}
	return enc.Close()
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored session state",
	}

	var cfgPath, dataDir string
	resolve := &cobra.Command{
		Use:   "resolve <psid>",
		Short: "Resolve and print the session state of a Messenger user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Bootstrap(app.RunParams{
				ConfigPath: cfgPath,
				DataDir:    dataDir,
				LogLevel:   slog.LevelWarn,
			})
			if err != nil {
				return err
			}
			if err := rt.LoadModules("kvstore", "tracking"); err != nil {
				return err
			}
			defer rt.App.Stop()

			resolver, err := app.NewResolver(rt.App.Context())
			if err != nil {
				return err
			}
			state, err := resolver.Resolve(context.Background(), args[0])
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}
	resolve.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	resolve.Flags().StringVar(&dataDir, "data-dir", "", "Persistent data directory")
	cmd.AddCommand(resolve)
	return cmd
}

func maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Run maintenance jobs outside their schedule",
	}

	var cfgPath, dataDir string
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired transient-mode records now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.Bootstrap(app.RunParams{
				ConfigPath: cfgPath,
				DataDir:    dataDir,
				LogLevel:   slog.LevelWarn,
			})
			if err != nil {
				return err
			}
			if err := rt.LoadModules("kvstore"); err != nil {
				return err
			}
			defer rt.App.Stop()

			runner, err := core.ServiceAs[cron.Runner](rt.App.Context(), "kvstore.scheduler")
			if err != nil {
				return fmt.Errorf("purge is disabled or no kvstore module is configured: %w", err)
			}
			for _, job := range runner.Jobs() {
				if err := runner.RunNow(cmd.Context(), job); err != nil {
					return fmt.Errorf("%s: %w", job, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: done\n", job)
			}
			return nil
		},
	}
	purge.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	purge.Flags().StringVar(&dataDir, "data-dir", "", "Persistent data directory")
	cmd.AddCommand(purge)
	return cmd
}

func printState(w io.Writer, s session.State) {
	fmt.Fprintf(w, "session:   %s\n", s.SessionID())
	fmt.Fprintf(w, "identity:  %s\n", s.Identity())
	fmt.Fprintf(w, "tracking:  %t\n", s.TrackingEnabled())
	for _, name := range session.Subscriptions {
		fmt.Fprintf(w, "subscription %-9s %t\n", name+":", s.Subscription(name))
	}
	for _, m := range []session.Mode{session.ModeSurvey, session.ModeFeedback} {
		fmt.Fprintf(w, "mode %-17s %t\n", string(m)+":", s.Active(m))
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
