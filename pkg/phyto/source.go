// CLAUDE:SUMMARY Dataset sources: the Bundle handed to the registry and DirSource, which reads manifest-described bundles from a data directory.
package phyto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoProducts is returned when a data directory holds no products dataset.
var ErrNoProducts = errors.New("no products dataset found")

// Bundle is a complete replacement payload: the registry dataset plus the
// static tables that travel with it.
type Bundle struct {
	Dataset *Dataset
	// Aliases maps alternate trade names to registration codes.
	Aliases map[string]string
	// AliasNormalize is the GetNormalizer mode for alias keys.
	AliasNormalize string
	// Hazards maps CMR-flagged codes to their hazard statements.
	Hazards map[string][]string
}

// Source produces bundles. Load may block on I/O; it is only ever called
// by one goroutine at a time per Registry.
type Source interface {
	Load(ctx context.Context) (*Bundle, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Bundle, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*Bundle, error) { return f(ctx) }

// StaticSource always returns the same bundle.
func StaticSource(b *Bundle) Source {
	return SourceFunc(func(context.Context) (*Bundle, error) { return b, nil })
}

// DirSource loads the bundles written by the importers. Each subdirectory of
// Dir with a manifest.yaml is one dataset: exactly one of kind "products",
// any number of kind "hazards" (merged).
type DirSource struct {
	Dir    string
	Logger *slog.Logger
}

// NewDirSource returns a DirSource over dir.
func NewDirSource(dir string, logger *slog.Logger) *DirSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSource{Dir: dir, Logger: logger}
}

// Load scans the data directory and reads every dataset.
func (s *DirSource) Load(ctx context.Context) (*Bundle, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", s.Dir, err)
	}

	b := &Bundle{Hazards: make(map[string][]string)}
	var productsID string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.Dir, entry.Name())
		manifestPath := filepath.Join(dir, "manifest.yaml")
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		m, err := LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}

		switch m.Kind {
		case KindProducts:
			if productsID != "" {
				return nil, fmt.Errorf("dataset %s: products already loaded from %s", m.ID, productsID)
			}
			if err := s.loadProducts(dir, m, b); err != nil {
				return nil, fmt.Errorf("dataset %s: %w", m.ID, err)
			}
			productsID = m.ID
		case KindHazards:
			var codes map[string][]string
			if err := LoadGob(filepath.Join(dir, m.DataFile), &codes); err != nil {
				return nil, fmt.Errorf("dataset %s: %w", m.ID, err)
			}
			for code, statements := range codes {
				b.Hazards[code] = mergeStatements(b.Hazards[code], statements)
			}
		}
	}

	if productsID == "" {
		return nil, fmt.Errorf("%s: %w", s.Dir, ErrNoProducts)
	}
	return b, nil
}

func (s *DirSource) loadProducts(dir string, m *Manifest, b *Bundle) error {
	ds, err := LoadDataset(filepath.Join(dir, m.DataFile), m.Format.Compression == "gzip")
	if err != nil {
		return err
	}
	if ds.Version == "" {
		ds.Version = m.Version
	}
	b.Dataset = ds
	b.AliasNormalize = m.Format.AliasNormalize

	if m.AliasFile == "" {
		return nil
	}
	aliasPath := filepath.Join(dir, m.AliasFile)
	if _, err := os.Stat(aliasPath); err != nil {
		s.Logger.Warn("alias file missing, continuing without aliases", "dataset", m.ID, "path", aliasPath)
		return nil
	}
	if err := LoadGob(aliasPath, &b.Aliases); err != nil {
		return fmt.Errorf("aliases: %w", err)
	}
	return nil
}

func mergeStatements(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
