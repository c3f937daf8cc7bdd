// CLAUDE:SUMMARY Import adapter contract and the process-wide adapter registry (register at init, lookup by ID).
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownAdapter is returned by Get for an unregistered adapter ID.
var ErrUnknownAdapter = errors.New("unknown import source")

// Adapter defines a data source importer that downloads a public dataset,
// transforms it, and writes a bundle directory the registry can load.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "ephy-produits").
	ID() string
	// DatasetID returns the target dataset directory name (e.g. "ephy").
	DatasetID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source (e.g. "Licence Ouverte v2.0").
	License() string
	// Import downloads the source from sourceURL, transforms it, and writes
	// the data files + manifest.yaml into a subdirectory of outputDir named after DatasetID().
	Import(ctx context.Context, sourceURL, outputDir string) error
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
