package config

import (
	"slices"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestResolve_Order(t *testing.T) {
	cfg := &Config{Modules: map[string]yaml.Node{
		"channel.messenger": {},
		"gateway.http":      {},
		"content.api":       {},
		"tracking.webtrekk": {},
		"kvstore.sqlite":    {},
		"zeta.extra":        {},
		"alpha.extra":       {},
	}}

	got := Resolve(cfg)
	want := []string{
		"kvstore.sqlite",
		"tracking.webtrekk",
		"content.api",
		"gateway.http",
		"channel.messenger",
		"alpha.extra",
		"zeta.extra",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}
