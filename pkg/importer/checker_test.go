package importer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statusMap(t *testing.T, sdb *SourceDB) map[string]int {
	t.Helper()
	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	out := make(map[string]int)
	for _, src := range sources {
		if src.LastStatus != nil {
			out[src.AdapterID] = *src.LastStatus
		}
	}
	return out
}

func TestCheckAllStatuses(t *testing.T) {
	handler := func(code int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("method = %s, want HEAD", r.Method)
			}
			if code == http.StatusMovedPermanently {
				w.Header().Set("Location", "https://www.data.gouv.fr/fr/datasets/")
			}
			w.WriteHeader(code)
		}))
	}
	ok, gone, broken, moved := handler(200), handler(404), handler(500), handler(301)
	defer ok.Close()
	defer gone.Close()
	defer broken.Close()
	defer moved.Close()

	sdb := tempSourceDB(t)
	if err := sdb.Seed([]Adapter{
		&fakeAdapter{"ephy-produits", "ephy", "produits", ok.URL, "LO"},
		&fakeAdapter{"ephy-cmr", "cmr", "cmr", gone.URL, "LO"},
		&fakeAdapter{"ephy-usages", "usages", "usages", broken.URL, "LO"},
		&fakeAdapter{"ephy-moved", "moved", "moved", moved.URL, "LO"},
		&fakeAdapter{"dead", "dead", "dead", "http://127.0.0.1:1", "LO"},
	}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	NewChecker(sdb, quietLogger(), time.Hour).CheckAll(context.Background())

	got := statusMap(t, sdb)
	want := map[string]int{"ephy-produits": 200, "ephy-cmr": 404, "ephy-usages": 500, "ephy-moved": 301, "dead": 0}
	for id, code := range want {
		if got[id] != code {
			t.Errorf("%s: status = %d, want %d", id, got[id], code)
		}
	}

	sources, _ := sdb.ListSources()
	for _, src := range sources {
		if src.AdapterID == "dead" && (src.LastError == nil || *src.LastError == "") {
			t.Error("dead: want last_error set")
		}
		if src.AdapterID == "ephy-produits" && src.LastError != nil {
			t.Errorf("ephy-produits: last_error = %q, want nil", *src.LastError)
		}
	}
}

func TestCheckAllFlagsStaleDatasets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{
		&fakeAdapter{"ephy-produits", "ephy", "produits", srv.URL, "LO"},
		&fakeAdapter{"ephy-cmr", "cmr", "cmr", srv.URL, "LO"},
	})
	if err := sdb.RecordImport("ephy-cmr", time.Now()); err != nil {
		t.Fatalf("RecordImport: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	NewChecker(sdb, logger, time.Hour).CheckAll(context.Background())

	out := buf.String()
	if !strings.Contains(out, "dataset update available") || !strings.Contains(out, "adapter=ephy-produits") {
		t.Errorf("never-imported source not flagged:\n%s", out)
	}
	if strings.Contains(out, "adapter=ephy-cmr dataset=cmr") {
		t.Errorf("fresh source flagged:\n%s", out)
	}
	if !strings.Contains(out, "stale=1") {
		t.Errorf("summary should count one stale dataset:\n%s", out)
	}
}

func TestCheckerStartStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	sdb := tempSourceDB(t)
	sdb.Seed([]Adapter{&fakeAdapter{"ephy-produits", "ephy", "produits", srv.URL, "LO"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewChecker(sdb, quietLogger(), time.Hour).Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := statusMap(t, sdb); s["ephy-produits"] == 200 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestCheckAllEmptyDB(t *testing.T) {
	// Should not panic on an empty table.
	NewChecker(tempSourceDB(t), quietLogger(), time.Hour).CheckAll(context.Background())
}
