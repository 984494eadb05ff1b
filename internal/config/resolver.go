package config

import (
	"cmp"
	"slices"

	"github.com/flemzord/newsclaw/internal/core"
)

// startOrder ranks module namespaces. Storage comes first so later modules
// can look up its services during Provision; channels come last because
// they register on the gateway's webhook dispatcher.
var startOrder = map[string]int{
	"kvstore":  0,
	"tracking": 1,
	"content":  2,
	"gateway":  3,
	"channel":  4,
}

// Resolve returns the configured module IDs in load order: by namespace
// rank, then by ID. Unknown namespaces load after channels.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), cmp.Compare(a, b))
	})
	return ids
}

func rank(id string) int {
	if r, ok := startOrder[core.ModuleID(id).Namespace()]; ok {
		return r
	}
	return len(startOrder)
}
