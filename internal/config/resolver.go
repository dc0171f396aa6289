package config

import (
	"cmp"
	"slices"

	"github.com/flemzord/tweetcron/internal/core"
)

// loadOrder ranks module namespaces. Modules provision in this order so each
// one can resolve the services published by the namespaces before it.
var loadOrder = map[string]int{
	"store":     0,
	"poster":    1,
	"scheduler": 2,
	"gateway":   3,
}

// Resolve returns the configured module IDs in load order: by namespace rank,
// unknown namespaces last, then alphabetically.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}

func rank(id string) int {
	if r, ok := loadOrder[core.ModuleID(id).Namespace()]; ok {
		return r
	}
	return len(loadOrder)
}
