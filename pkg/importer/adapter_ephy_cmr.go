// CLAUDE:SUMMARY Import adapter deriving the CMR hazard set (H340/H341/H350/H351/H360/H362) from the E-Phy hazard statements CSV.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/phyto"
)

func init() {
	Register(&ephyCMRAdapter{})
}

type ephyCMRAdapter struct{}

func (a *ephyCMRAdapter) ID() string          { return "ephy-cmr" }
func (a *ephyCMRAdapter) DatasetID() string   { return "cmr" }
func (a *ephyCMRAdapter) Description() string { return "ANSES E-Phy produits classes CMR (mentions de danger)" }
func (a *ephyCMRAdapter) DefaultURL() string  { return EphyURL }
func (a *ephyCMRAdapter) License() string     { return ephyLicense }

func (a *ephyCMRAdapter) Import(ctx context.Context, sourceURL, outputDir string) error {
	dlDir, files, err := fetchArchive(ctx, sourceURL, outputDir, a.DatasetID())
	if dlDir != "" {
		defer os.RemoveAll(dlDir)
	}
	if err != nil {
		return err
	}

	csvPath := findCSV(files, []string{"danger"}, nil)
	if csvPath == "" {
		csvPath = findCSV(files, []string{"phrase"}, nil)
	}
	if csvPath == "" {
		return fmt.Errorf("no hazard statements CSV found in ZIP")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	codes, err := parseEphyHazards(f, csvCharset(csvPath))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	dir := filepath.Join(outputDir, a.DatasetID())
	if err := ensureDir(dir); err != nil {
		return err
	}
	if err := phyto.SaveGob(codes, filepath.Join(dir, "hazards.gob")); err != nil {
		return fmt.Errorf("save gob: %w", err)
	}

	fmt.Printf("  %d produits CMR\n", len(codes))
	version := time.Now().Format("2006-01-02")
	return writeManifest(dir, &phyto.Manifest{
		ID:          a.ID(),
		Kind:        phyto.KindHazards,
		Version:     version,
		Source:      "ANSES E-Phy",
		SourceURL:   sourceURL,
		License:     ephyLicense,
		DataFile:    "hazards.gob",
		GeneratedAt: time.Now().Unix(),
	})
}

// parseEphyHazards scans every non-code column of each row for CMR hazard
// statements. The file has one row per (product, statement), so statements
// are merged per code.
func parseEphyHazards(r io.Reader, charset string) (map[string][]string, error) {
	cr, err := newCSVReader(r, charset)
	if err != nil {
		return nil, err
	}
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := columnIndex(header, map[string]string{"code": "numero amm"})
	codeCol, ok := cols["code"]
	if !ok {
		return nil, fmt.Errorf("column %q not found in header %v", "numero amm", header)
	}

	codes := make(map[string][]string)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || codeCol >= len(record) {
			continue
		}
		code := strings.TrimSpace(record[codeCol])
		if code == "" {
			continue
		}

		rest := make([]string, 0, len(record)-1)
		for i, v := range record {
			if i != codeCol {
				rest = append(rest, v)
			}
		}
		for _, s := range phyto.CMRStatements(strings.Join(rest, " ")) {
			if !slices.Contains(codes[code], s) {
				codes[code] = append(codes[code], s)
			}
		}
	}
	return codes, nil
}
