// CLAUDE:SUMMARY Shared import utilities: HTTP download with retries, ZIP extraction, Windows-1252 CSV reader, manifest writer, freshness rule.
package importer

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/phyto"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// UpdateInterval is the age after which a published dataset is considered stale.
const UpdateInterval = 7 * 24 * time.Hour

// UpdateAvailable reports whether a dataset last imported at last should be
// refreshed at now. A zero last means it was never imported.
func UpdateAvailable(last, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= UpdateInterval
}

// downloadFile downloads url to dest with retries and timeout.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			continue
		}

		f, err := os.Create(dest)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("create file: %w", err)
		}

		_, copyErr := io.Copy(f, resp.Body)
		resp.Body.Close()
		closeErr := f.Close()

		if copyErr != nil {
			lastErr = copyErr
			continue
		}
		if closeErr != nil {
			return closeErr
		}
		return nil
	}
	return fmt.Errorf("download %s failed after 3 attempts: %w", url, lastErr)
}

// unzipFile extracts a ZIP archive to destDir and returns the list of extracted file paths.
func unzipFile(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		if err := extractEntry(f, destPath); err != nil {
			return nil, err
		}
		paths = append(paths, destPath)
	}
	return paths, nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// fetchArchive downloads a ZIP into a scratch directory and extracts it.
// The caller removes the returned directory.
func fetchArchive(ctx context.Context, sourceURL, outputDir, name string) (string, []string, error) {
	dlDir := filepath.Join(outputDir, "_download-"+name)
	if err := ensureDir(dlDir); err != nil {
		return "", nil, err
	}

	zipPath := filepath.Join(dlDir, name+".zip")
	fmt.Printf("  telechargement %s...\n", sourceURL)
	if err := downloadFile(ctx, sourceURL, zipPath); err != nil {
		return dlDir, nil, fmt.Errorf("download: %w", err)
	}
	files, err := unzipFile(zipPath, dlDir)
	if err != nil {
		return dlDir, nil, fmt.Errorf("unzip: %w", err)
	}
	return dlDir, files, nil
}

// findCSV returns the first extracted CSV whose lowercased base name contains
// every one of include and none of exclude.
func findCSV(files []string, include, exclude []string) string {
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f))
		if !strings.HasSuffix(base, ".csv") {
			continue
		}
		ok := true
		for _, s := range include {
			if !strings.Contains(base, s) {
				ok = false
				break
			}
		}
		for _, s := range exclude {
			if strings.Contains(base, s) {
				ok = false
				break
			}
		}
		if ok {
			return f
		}
	}
	return ""
}

// newCSVReader wraps r in a semicolon CSV reader decoding the given charset
// (an HTML encoding label such as "windows-1252"; empty means UTF-8).
func newCSVReader(r io.Reader, charset string) (*csv.Reader, error) {
	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		e, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", charset, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr, nil
}

// columnIndex maps each wanted key to the first header containing it, compared
// on NormalizeName'd text so "Etat d'autorisation" matches "etat d autorisation".
func columnIndex(header []string, wanted map[string]string) map[string]int {
	idx := make(map[string]int, len(wanted))
	for i, h := range header {
		h = phyto.NormalizeName(strings.TrimPrefix(h, "\ufeff"))
		for key, needle := range wanted {
			if _, seen := idx[key]; seen {
				continue
			}
			if strings.Contains(h, needle) {
				idx[key] = i
			}
		}
	}
	return idx
}

// field returns the trimmed value of column key, or "" when absent.
func field(record []string, cols map[string]int, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// writeManifest writes a Manifest as YAML to dir/manifest.yaml. It must be
// the last file written: watchers treat a new manifest as a complete bundle.
func writeManifest(dir string, m *phyto.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := filepath.Join(dir, ".manifest.yaml.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, "manifest.yaml"))
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
