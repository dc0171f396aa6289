package core

// ModuleID names a module as "<namespace>.<name>", e.g. "gateway.http".
type ModuleID string

// Namespace returns the part of the ID before the first dot.
func (id ModuleID) Namespace() string {
	for i := 0; i < len(id); i++ {
		if id[i] == '.' {
			return string(id[:i])
		}
	}
	return string(id)
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

// Module is the minimal contract every module satisfies. Optional lifecycle
// hooks are discovered through the interfaces in lifecycle.go.
type Module interface {
	ModuleInfo() ModuleInfo
}
