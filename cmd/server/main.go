package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hazyhaar/phyto-registry/pkg/api"
	"github.com/hazyhaar/phyto-registry/pkg/importer"
	"github.com/hazyhaar/phyto-registry/pkg/phyto"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

const version = "0.3.0"

type config struct {
	Addr          string            `yaml:"addr"`
	DataDir       string            `yaml:"data_dir"`
	Watch         bool              `yaml:"watch"`
	CheckInterval time.Duration     `yaml:"check_interval"`
	MCP           bool              `yaml:"mcp"`
	LogLevel      string            `yaml:"log_level"`
	TLSCert       string            `yaml:"tls_cert"`
	TLSKey        string            `yaml:"tls_key"`
	Match         phyto.MatchConfig `yaml:"match"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "resolve":
		cmdResolve(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: phyto <command>

Commands:
  serve     Start the HTTP server
  import    Download and build datasets from public sources
  resolve   Resolve a product name from the command line
  mcp       Serve the MCP tools over stdio
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	logger := newLogger(cfg.LogLevel, os.Stderr)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	metrics := api.NewMetrics()
	reg := phyto.NewRegistry(phyto.NewDirSource(cfg.DataDir, logger),
		phyto.WithLogger(logger),
		phyto.WithMatchConfig(cfg.Match),
		phyto.WithLoadObserver(metrics.ObserveLoad),
	)

	// SIGHUP: hot reload the dataset.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm up so the first request does not pay for the load.
	if _, err := reg.Snapshot(ctx); err != nil {
		logger.Error("initial load interrupted", "error", err)
		os.Exit(1)
	}

	// Import sources: last import dates for /v1/info and periodic URL checks.
	sdb, err := importer.OpenSourceDB(filepath.Join(cfg.DataDir, "sources.db"))
	if err != nil {
		logger.Error("open sources db", "error", err)
		os.Exit(1)
	}
	defer sdb.Close()
	if err := sdb.Seed(importer.All()); err != nil {
		logger.Error("seed sources", "error", err)
		os.Exit(1)
	}
	if cfg.CheckInterval > 0 {
		go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
	}

	if cfg.Watch {
		w, err := phyto.NewWatcher(cfg.DataDir, reg, logger)
		if err != nil {
			logger.Warn("data dir watcher disabled", "error", err)
		} else {
			go w.Run(ctx)
		}
	}

	apiCfg := api.Config{
		Registry: reg,
		Logger:   logger,
		Metrics:  metrics,
		Imports:  sdb,
	}
	if cfg.MCP {
		apiCfg.MCP = server.NewStreamableHTTPServer(newMCPServer(apiCfg))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(apiCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading dataset")
			if err := reg.Reload(ctx); err != nil {
				logger.Error("reload failed", "error", err)
			}
		}
	}()

	if cfg.TLSCert != "" {
		tlsCfg, err := loadTLSConfig(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Error("tls", "error", err)
			os.Exit(1)
		}
		srv.TLSConfig = tlsCfg
	}

	go func() {
		logger.Info("phyto registry listening", "addr", cfg.Addr, "tls", srv.TLSConfig != nil, "mcp", cfg.MCP, "watch", cfg.Watch)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// loadTLSConfig loads the cert/key pair served on the TCP listener.
func loadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	if keyFile == "" {
		return nil, fmt.Errorf("tls_cert set without tls_key")
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}, nil
}

func newMCPServer(cfg api.Config) *server.MCPServer {
	srv := server.NewMCPServer("phyto-registry", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, cfg)
	return srv
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func defaultConfig() config {
	return config{
		Addr:          ":8420",
		DataDir:       "data",
		Watch:         true,
		CheckInterval: 24 * time.Hour,
		MCP:           true,
		LogLevel:      "info",
		Match:         phyto.DefaultMatchConfig(),
	}
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := parseConfig(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func parseConfig(data []byte, cfg *config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if cfg.CheckInterval < 0 {
		return fmt.Errorf("check_interval must not be negative: %s", cfg.CheckInterval)
	}
	return nil
}
