package core

import "strings"

// ModuleID identifies a module, namespaced by its role
// (for example "channel.messenger" or "kvstore.sqlite").
type ModuleID string

// Namespace returns the part of the ID before the first dot.
func (id ModuleID) Namespace() string {
	ns, _, _ := strings.Cut(string(id), ".")
	return ns
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

// Module is implemented by every newsclaw module. Optional lifecycle
// behaviour is expressed through the interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
