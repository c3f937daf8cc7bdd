package importer

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/phyto"
)

func TestDownloadFile(t *testing.T) {
	content := "numero AMM;nom produit\n"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "ephy.csv")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
}

func TestDownloadFileRetry(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.zip")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("attempts = %d, want 2", n)
	}
}

func TestDownloadFileCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := downloadFile(ctx, ts.URL, filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error when context ends during backoff")
	}
}

func TestUnzipFile(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "ephy.zip")
	writeZip(t, zipPath, map[string]string{
		"decisionamm/produits_Windows-1252.csv": "a;b\n",
		"usages_des_produits_autorises_Windows-1252.csv": "c;d\n",
	})

	out := filepath.Join(dir, "out")
	ensureDir(out)
	files, err := unzipFile(zipPath, out)
	if err != nil {
		t.Fatalf("unzipFile: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2", files)
	}
	// Nested paths are flattened into destDir.
	if _, err := os.Stat(filepath.Join(out, "produits_Windows-1252.csv")); err != nil {
		t.Errorf("flattened file missing: %v", err)
	}
}

func TestFindCSV(t *testing.T) {
	files := []string{
		"/tmp/x/usages_des_produits_autorises_Windows-1252.csv",
		"/tmp/x/produits_phrases_de_risque_Windows-1252.csv",
		"/tmp/x/produits_classe_et_mention_danger_Windows-1252.csv",
		"/tmp/x/produits_Windows-1252.csv",
		"/tmp/x/readme.txt",
	}
	exclude := []string{"usage", "condition", "danger", "risque", "phrase"}
	if got := findCSV(files, []string{"produits_"}, exclude); filepath.Base(got) != "produits_Windows-1252.csv" {
		t.Errorf("products CSV = %q", got)
	}
	if got := findCSV(files, []string{"danger"}, nil); filepath.Base(got) != "produits_classe_et_mention_danger_Windows-1252.csv" {
		t.Errorf("hazard CSV = %q", got)
	}
	if got := findCSV(files, []string{"absent"}, nil); got != "" {
		t.Errorf("findCSV(absent) = %q", got)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m := &phyto.Manifest{
		ID:        "ephy-produits",
		Kind:      phyto.KindProducts,
		Version:   "2026-01-27",
		Source:    "test",
		License:   ephyLicense,
		DataFile:  "products.json.gz",
		AliasFile: "aliases.gob",
		Format:    phyto.FormatSpec{Compression: "gzip", AliasNormalize: "lowercase_trim"},
	}
	if err := writeManifest(dir, m); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	loaded, err := phyto.LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.ID != m.ID || loaded.AliasFile != "aliases.gob" || loaded.Format.Compression != "gzip" {
		t.Errorf("loaded = %+v", loaded)
	}
	if _, err := os.Stat(filepath.Join(dir, ".manifest.yaml.tmp")); !os.IsNotExist(err) {
		t.Error("temporary manifest left behind")
	}
}

func TestUpdateAvailable(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		want bool
	}{
		{"never imported", time.Time{}, true},
		{"yesterday", now.Add(-24 * time.Hour), false},
		{"six days", now.Add(-6 * 24 * time.Hour), false},
		{"seven days", now.Add(-7 * 24 * time.Hour), true},
		{"a month", now.AddDate(0, -1, 0), true},
	}
	for _, tt := range tests {
		if got := UpdateAvailable(tt.last, now); got != tt.want {
			t.Errorf("%s: UpdateAvailable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGetUnknownAdapter(t *testing.T) {
	if _, err := Get("insee-prenoms-fr"); !errors.Is(err, ErrUnknownAdapter) {
		t.Errorf("Get(unknown) err = %v, want ErrUnknownAdapter", err)
	}
	a, err := Get("ephy-produits")
	if err != nil {
		t.Fatalf("Get(ephy-produits): %v", err)
	}
	if a.DatasetID() != "ephy" {
		t.Errorf("DatasetID = %q, want ephy", a.DatasetID())
	}
}

// writeZip builds a ZIP archive from name -> content.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	f.Close()
}
