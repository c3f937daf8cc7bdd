// CLAUDE:SUMMARY CLI subcommand that serves the registry MCP tools over stdio for local agent clients.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hazyhaar/phyto-registry/pkg/api"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
	"github.com/mark3labs/mcp-go/server"
)

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory written by import")
	logFile := fs.String("log", "", "write logs to this file (stdout carries the protocol)")
	fs.Parse(args)

	logger := discardLogger()
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Erreur ouverture %s: %v\n", *logFile, err)
			os.Exit(1)
		}
		defer f.Close()
		logger = newLogger("info", f)
	}

	reg := phyto.NewRegistry(phyto.NewDirSource(*dataDir, logger), phyto.WithLogger(logger))
	srv := newMCPServer(api.Config{Registry: reg, Logger: logger})

	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(os.Stderr, "mcp: %v\n", err)
		os.Exit(1)
	}
}
