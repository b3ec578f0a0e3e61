package gtfs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/gtfsload/internal/feed"
)

// TableInfo contains display and schema information about a table.
type TableInfo struct {
	Name            string   `json:"name"`             // file name without ".txt"
	Label           string   `json:"label"`            // display name
	Required        bool     `json:"required"`         // absence is a MissingTable error
	RequiredColumns []string `json:"required_columns"` // absence is a MissingColumn error
	Order           int      `json:"order"`            // load position; referenced tables load first
}

// BindFunc produces the row callback that loads a table into f.
type BindFunc func(f *Feed) feed.RowFunc

// TableDefinition contains everything needed to load a table.
type TableDefinition struct {
	Info TableInfo
	Bind BindFunc
}

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a table with the same name is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Name]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Name))
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Name
	}
	registry[def.Info.Name] = def
}

// Get returns a table definition by name.
func Get(name string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered table definitions in load order.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Order != result[j].Info.Order {
			return result[i].Info.Order < result[j].Info.Order
		}
		return result[i].Info.Name < result[j].Info.Name
	})
	return result
}

// Infos returns the TableInfo of every registered table in load order.
func Infos() []TableInfo {
	defs := All()
	out := make([]TableInfo, len(defs))
	for i, d := range defs {
		out[i] = d.Info
	}
	return out
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
