// CLAUDE:SUMMARY Persistence of bundle files: gob for alias and hazard tables, gzip-compressed JSON for the products dataset.
package phyto

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// SaveGob serializes v to a gob-encoded file at path.
func SaveGob(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}

// LoadGob deserializes a gob-encoded file into v.
func LoadGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode gob: %w", err)
	}
	return nil
}

// SaveDataset writes ds as JSON, gzip-compressed when path ends in ".gz".
func SaveDataset(ds *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".gz") {
		if err := json.NewEncoder(f).Encode(ds); err != nil {
			return fmt.Errorf("encode dataset: %w", err)
		}
		return nil
	}

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(ds); err != nil {
		zw.Close()
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush gzip: %w", err)
	}
	return nil
}

// LoadDataset reads a JSON dataset. compressed forces gzip; otherwise it is
// inferred from the ".gz" extension.
func LoadDataset(path string, compressed bool) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed || strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip dataset: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}
