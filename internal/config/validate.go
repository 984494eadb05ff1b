package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/newsclaw/internal/core"
)

// RequiredNamespaces lists the roles a runnable configuration must fill.
var RequiredNamespaces = []string{"kvstore", "content", "channel"}

// Validate checks the structural validity of a Config: the version, that
// every module ID is registered, that the required roles are filled, and
// the router settings.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	present := make(map[string]bool)
	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
			continue
		}
		present[core.ModuleID(id).Namespace()] = true
	}

	if len(cfg.Modules) > 0 {
		for _, ns := range RequiredNamespaces {
			if !present[ns] {
				errs = append(errs, fmt.Errorf("config: a %s.* module is required", ns))
			}
		}
	}

	errs = append(errs, validateRouter(cfg.Router)...)

	return errors.Join(errs...)
}

func validateRouter(rc RouterConfig) []error {
	var errs []error
	nonNegative := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("config: router.%s must not be negative, got %d", name, v))
		}
	}
	nonNegativeDuration := func(name string, d time.Duration) {
		if d < 0 {
			errs = append(errs, fmt.Errorf("config: router.%s must not be negative, got %s", name, d))
		}
	}

	nonNegative("workers", rc.Workers)
	nonNegative("inbox_size", rc.InboxSize)
	nonNegative("rate_limit.events_per_min", rc.RateLimit.EventsPerMin)
	nonNegative("rate_limit.max_senders", rc.RateLimit.MaxSenders)
	nonNegativeDuration("event_timeout", rc.EventTimeout)
	nonNegativeDuration("step_timeout", rc.StepTimeout)
	nonNegativeDuration("typing_interval", rc.TypingInterval)
	return errs
}
