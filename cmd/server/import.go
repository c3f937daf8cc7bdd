// CLAUDE:SUMMARY CLI subcommand that downloads and builds registry datasets from public data sources via import adapters.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "", "adapter ID to import (e.g. ephy-produits)")
	all := fs.Bool("all", false, "import all available sources")
	outputDir := fs.String("output-dir", "data", "output directory for datasets")
	fs.Parse(args)

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur creation %s: %v\n", *outputDir, err)
		os.Exit(1)
	}

	// Open source DB and seed defaults.
	sdb, err := importer.OpenSourceDB(filepath.Join(*outputDir, "sources.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture sources.db: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	if err := sdb.Seed(importer.All()); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur seed sources: %v\n", err)
		os.Exit(1)
	}

	if !*all && *source == "" {
		fmt.Println("Sources disponibles :")
		fmt.Println()
		sources, _ := sdb.ListSources()
		for _, src := range sources {
			status := ""
			if src.LastStatus != nil {
				status = fmt.Sprintf("  [%d]", *src.LastStatus)
			}
			if src.LastImport != nil {
				status += "  importe le " + time.Unix(*src.LastImport, 0).Format("2006-01-02")
			}
			fmt.Printf("  %-15s  %s  (-> %s)%s\n", src.AdapterID, src.Description, src.DatasetID, status)
		}
		fmt.Println()
		fmt.Println("Usage :")
		fmt.Println("  phyto import --source <id> [--output-dir <dir>]")
		fmt.Println("  phyto import --all [--output-dir <dir>]")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if *all {
		failed := 0
		for _, a := range importer.All() {
			if err := runImport(ctx, sdb, a, *outputDir); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] ERREUR: %v\n", a.ID(), err)
				failed++
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	a, err := importer.Get(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		fmt.Println("\nSources disponibles :")
		for _, a := range importer.All() {
			fmt.Printf("  %s\n", a.ID())
		}
		os.Exit(1)
	}
	if err := runImport(ctx, sdb, a, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ERREUR: %v\n", a.ID(), err)
		os.Exit(1)
	}
}

// runImport imports one adapter with its configured URL and records the import time.
func runImport(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, outputDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	fmt.Printf("[%s] Import en cours...\n", a.ID())
	if err := a.Import(ctx, url, outputDir); err != nil {
		return err
	}
	if err := sdb.RecordImport(a.ID(), time.Now()); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	fmt.Printf("[%s] OK -> %s/%s/\n", a.ID(), outputDir, a.DatasetID())
	return nil
}
