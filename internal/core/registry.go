package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var registry = struct {
	sync.RWMutex
	byID map[ModuleID]ModuleInfo
}{byID: make(map[ModuleID]ModuleInfo)}

// RegisterModule adds a module to the global registry. Call it from init().
// It panics when the ID is not of the form "<namespace>.<name>", when New
// is nil, or when the ID is already taken.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	ns, name, ok := strings.Cut(string(info.ID), ".")
	if !ok || ns == "" || name == "" {
		panic(fmt.Sprintf("module ID %q must be <namespace>.<name>", info.ID))
	}
	if info.New == nil {
		panic(fmt.Sprintf("module %s: New must not be nil", info.ID))
	}

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.byID[info.ID]; dup {
		panic(fmt.Sprintf("module %s registered twice", info.ID))
	}
	registry.byID[info.ID] = info
}

// GetModule returns the ModuleInfo registered under id.
func GetModule(id string) (ModuleInfo, bool) {
	registry.RLock()
	defer registry.RUnlock()
	info, ok := registry.byID[ModuleID(id)]
	return info, ok
}

// GetModules returns every registered module sorted by ID.
func GetModules() []ModuleInfo {
	registry.RLock()
	defer registry.RUnlock()
	return slices.SortedFunc(maps.Values(registry.byID), func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

func resetRegistry() {
	registry.Lock()
	defer registry.Unlock()
	clear(registry.byID)
}
