// CLAUDE:SUMMARY Manifest YAML schema describing an on-disk dataset bundle (products or CMR hazards), its source and file layout.
package phyto

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dataset kinds.
const (
	KindProducts = "products"
	KindHazards  = "hazards"
)

// Manifest describes one dataset directory: its source, version and files.
type Manifest struct {
	ID          string     `yaml:"id" json:"id"`
	Kind        string     `yaml:"kind" json:"kind"`
	Version     string     `yaml:"version" json:"version"`
	Source      string     `yaml:"source" json:"source"`
	SourceURL   string     `yaml:"source_url" json:"source_url,omitempty"`
	License     string     `yaml:"license" json:"license"`
	DataFile    string     `yaml:"data_file" json:"data_file"`
	AliasFile   string     `yaml:"alias_file,omitempty" json:"alias_file,omitempty"`
	GeneratedAt int64      `yaml:"generated_at,omitempty" json:"generated_at,omitempty"`
	Format      FormatSpec `yaml:"format" json:"-"`
}

// FormatSpec describes how the data files are encoded.
type FormatSpec struct {
	// Compression of the products file: "gzip" or empty.
	Compression string `yaml:"compression,omitempty"`
	// AliasNormalize is the GetNormalizer mode used for alias keys.
	AliasNormalize string `yaml:"alias_normalize,omitempty"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	switch m.Kind {
	case "":
		m.Kind = KindProducts
	case KindProducts, KindHazards:
	default:
		return nil, fmt.Errorf("manifest %s: unknown kind %q", path, m.Kind)
	}
	if m.DataFile == "" {
		if m.Kind == KindHazards {
			m.DataFile = "hazards.gob"
		} else {
			m.DataFile = "products.json.gz"
		}
	}
	if m.Format.AliasNormalize == "" {
		m.Format.AliasNormalize = "lowercase_trim"
	}
	return &m, nil
}
