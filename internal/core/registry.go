package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// registry holds every module compiled into the binary, keyed by ID.
var registry = struct {
	sync.RWMutex
	infos map[ModuleID]ModuleInfo
}{infos: make(map[ModuleID]ModuleInfo)}

// RegisterModule makes a module loadable by ID. Call it from init(); it
// panics on an empty ID, a nil constructor or a second registration of
// the same ID.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	switch {
	case info.ID == "":
		panic("core: module registered without an ID")
	case info.New == nil:
		panic(fmt.Sprintf("core: module %s has no constructor", info.ID))
	}

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.infos[info.ID]; dup {
		panic(fmt.Sprintf("core: module %s registered twice", info.ID))
	}
	registry.infos[info.ID] = info
}

// GetModule looks up a registered module.
func GetModule(id string) (ModuleInfo, bool) {
	registry.RLock()
	defer registry.RUnlock()
	info, ok := registry.infos[ModuleID(id)]
	return info, ok
}

// GetModules lists registered modules sorted by ID. When namespaces are
// given only modules in one of them are returned.
func GetModules(namespaces ...string) []ModuleInfo {
	registry.RLock()
	infos := slices.Collect(maps.Values(registry.infos))
	registry.RUnlock()

	if len(namespaces) > 0 {
		infos = slices.DeleteFunc(infos, func(info ModuleInfo) bool {
			return !slices.Contains(namespaces, info.ID.Namespace())
		})
	}
	slices.SortFunc(infos, func(a, b ModuleInfo) int { return cmp.Compare(a.ID, b.ID) })
	return infos
}

func resetRegistry() {
	registry.Lock()
	defer registry.Unlock()
	registry.infos = make(map[ModuleID]ModuleInfo)
}
