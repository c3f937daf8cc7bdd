package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeAdapter implements Adapter for test seeding.
type fakeAdapter struct {
	id, datasetID, desc, url, license string
}

func (f *fakeAdapter) ID() string          { return f.id }
func (f *fakeAdapter) DatasetID() string   { return f.datasetID }
func (f *fakeAdapter) Description() string { return f.desc }
func (f *fakeAdapter) DefaultURL() string  { return f.url }
func (f *fakeAdapter) License() string     { return f.license }
func (f *fakeAdapter) Import(context.Context, string, string) error {
	return nil
}

func tempSourceDB(t *testing.T) *SourceDB {
	t.Helper()
	sdb, err := OpenSourceDB(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	t.Cleanup(func() { sdb.Close() })
	return sdb
}

func TestOpenSourceDBCreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phyto.db")
	sdb, err := OpenSourceDB(path)
	if err != nil {
		t.Fatalf("OpenSourceDB: %v", err)
	}
	defer sdb.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources on empty db: %v", err)
	}
	if len(sources) != 0 {
		t.Fatalf("sources = %d, want 0", len(sources))
	}
}

func TestSeedRegisteredAdapters(t *testing.T) {
	sdb := tempSourceDB(t)
	if err := sdb.Seed(All()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	// Ordered by adapter ID.
	if sources[0].AdapterID != "ephy-cmr" || sources[1].AdapterID != "ephy-produits" {
		t.Errorf("order = %s, %s", sources[0].AdapterID, sources[1].AdapterID)
	}
	if sources[1].DatasetID != "ephy" || sources[1].SourceURL != EphyURL {
		t.Errorf("ephy-produits row = %+v", sources[1])
	}
}

func TestSeedKeepsURLOverride(t *testing.T) {
	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{&fakeAdapter{"ephy-produits", "ephy", "produits", "https://example.com/a", "LO"}})

	if err := sdb.SetURL("ephy-produits", "https://mirror.example.com/ephy.zip"); err != nil {
		t.Fatalf("SetURL: %v", err)
	}
	// Re-seeding at the next start must not clobber the override.
	sdb.Seed([]Adapter{&fakeAdapter{"ephy-produits", "ephy", "produits", "https://example.com/a", "LO"}})

	url, err := sdb.GetURL("ephy-produits")
	if err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if url != "https://mirror.example.com/ephy.zip" {
		t.Errorf("url = %s, want override", url)
	}
}

func TestSetURLNotFound(t *testing.T) {
	if err := tempSourceDB(t).SetURL("nonexistent", "https://example.com"); err == nil {
		t.Fatal("expected error for nonexistent adapter")
	}
}

func TestUpdateCheck(t *testing.T) {
	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{&fakeAdapter{"ephy-cmr", "cmr", "cmr", "https://example.com/cmr", "LO"}})

	if err := sdb.UpdateCheck("ephy-cmr", 404, "not found"); err != nil {
		t.Fatalf("UpdateCheck: %v", err)
	}
	src := mustSource(t, sdb, "ephy-cmr")
	if src.LastStatus == nil || *src.LastStatus != 404 {
		t.Errorf("last_status = %v, want 404", src.LastStatus)
	}
	if src.LastError == nil || *src.LastError != "not found" {
		t.Errorf("last_error = %v, want 'not found'", src.LastError)
	}

	sdb.UpdateCheck("ephy-cmr", 200, "")
	src = mustSource(t, sdb, "ephy-cmr")
	if src.LastError != nil {
		t.Errorf("last_error = %q, want cleared", *src.LastError)
	}
	if src.LastCheck == nil || *src.LastCheck == 0 {
		t.Error("last_check not set")
	}
}

func TestRecordAndLastImport(t *testing.T) {
	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{&fakeAdapter{"ephy-produits", "ephy", "produits", "https://example.com/a", "LO"}})

	last, err := sdb.LastImport("ephy-produits")
	if err != nil {
		t.Fatalf("LastImport: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("LastImport before any import = %v, want zero", last)
	}

	at := time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)
	if err := sdb.RecordImport("ephy-produits", at); err != nil {
		t.Fatalf("RecordImport: %v", err)
	}
	last, _ = sdb.LastImport("ephy-produits")
	if !last.Equal(at) {
		t.Errorf("LastImport = %v, want %v", last, at)
	}

	if err := sdb.RecordImport("unknown", at); err == nil {
		t.Error("RecordImport on unknown adapter: want error")
	}
	if last, err := sdb.LastImport("unknown"); err != nil || !last.IsZero() {
		t.Errorf("LastImport(unknown) = %v, %v; want zero, nil", last, err)
	}
}

func mustSource(t *testing.T, sdb *SourceDB, id string) Source {
	t.Helper()
	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	for _, src := range sources {
		if src.AdapterID == id {
			return src
		}
	}
	t.Fatalf("source %s not found", id)
	return Source{}
}
