// CLAUDE:SUMMARY CLI subcommand that resolves product names against a local data directory and prints the ranked candidates.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/kit"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
)

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory written by import")
	verbose := fs.Bool("v", false, "log dataset loading")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: phyto resolve [--data-dir <dir>] <nom produit | numero AMM>...")
		os.Exit(1)
	}

	level := "error"
	if *verbose {
		level = "info"
	}
	logger := newLogger(level, os.Stderr)
	reg := phyto.NewRegistry(phyto.NewDirSource(*dataDir, logger), phyto.WithLogger(logger))

	ctx, cancel := context.WithTimeout(kit.WithTransport(context.Background(), kit.TransportCLI), time.Minute)
	defer cancel()

	s, err := reg.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		os.Exit(1)
	}
	if s.Degraded() {
		fmt.Fprintf(os.Stderr, "Aucun jeu de donnees dans %s (lancer: phyto import --all --output-dir %s)\n", *dataDir, *dataDir)
		os.Exit(1)
	}

	for _, query := range fs.Args() {
		printResolution(os.Stdout, s, query)
	}
}

// printResolution writes the candidates for query as a table, or the product
// itself when query is a known registration code.
func printResolution(w io.Writer, s *phyto.Snapshot, query string) {
	fmt.Fprintf(w, "%s\n", query)
	if p, ok := s.ProductByCode(query); ok {
		printRow(w, s, p, "code", "")
		return
	}
	results := s.Resolve(query)
	if len(results) == 0 {
		fmt.Fprintln(w, "  (aucun resultat)")
		return
	}
	for _, r := range results {
		printRow(w, s, r.Product, string(r.MatchType), r.MatchedName)
	}
}

func printRow(w io.Writer, s *phyto.Snapshot, p *phyto.Product, match, matched string) {
	flags := []string{string(p.Status)}
	if s.Hazards().IsHazardous(p.Code) {
		flags = append(flags, "CMR")
	}
	line := fmt.Sprintf("  %-7s  %-8s  %-30s  %s", p.Code, match, p.Name, strings.Join(flags, ","))
	if matched != "" && phyto.NormalizeName(matched) != phyto.NormalizeName(p.Name) {
		line += "  (via " + matched + ")"
	}
	fmt.Fprintln(w, line)
}

// discardLogger is used by subcommands whose stdout is a protocol stream.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
