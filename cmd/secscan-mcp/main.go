package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/config"
	"github.com/tb0hdan/secscan-mcp/pkg/executor"
	"github.com/tb0hdan/secscan-mcp/pkg/janitor"
	"github.com/tb0hdan/secscan-mcp/pkg/metrics"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/privilege"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/storage"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/catalog"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/dirb"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/disclaimer"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/fullscan"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/history"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/hydra"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/nikto"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/nmap"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/searchsploit"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/sqlmap"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/wpscan"
)

const (
	ServerName      = "secscan-mcp"
	ServiceName     = "Security Tools MCP Server"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

func main() {
	var (
		debug        bool
		bindAddr     string
		dbPath       string
		configPath   string
		transport    string
		printVersion bool
	)
	flag.BoolVar(&debug, "debug", false, "debug mode")
	flag.StringVar(&bindAddr, "bind", "", "bind address (host:port) for the http transport")
	flag.StringVar(&dbPath, "db", "", "SQLite database file path")
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.StringVar(&transport, "transport", "", "transport: stdio or http")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.Parse()
	// Sanitize version
	version := strings.TrimSpace(Version)
	if printVersion {
		fmt.Printf("%s Version: %s\n", ServiceName, version)
		os.Exit(0)
	}

	bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger.Fatal().Msgf("Failed to load configuration: %v", err)
	}
	// Flags win over the file and the environment.
	if debug {
		cfg.Server.Debug = true
	}
	if bindAddr != "" {
		cfg.Server.Bind = bindAddr
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if transport != "" {
		cfg.Server.Transport = transport
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Fatal().Msgf("Invalid configuration: %v", err)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stdout carries the protocol in stdio mode.
	var logOutput io.Writer = os.Stdout
	if cfg.Server.Transport == config.TransportStdio {
		logOutput = os.Stderr
	}
	logger := zerolog.New(logOutput).With().Timestamp().Logger()
	if cfg.Server.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("debug mode enabled")
	}

	guard := privilege.NewGuard()
	if err := guard.AssertNotPrivileged(); err != nil {
		logger.Warn().Err(err).Msg("Running as root: every scan request will be refused")
	}

	pol, err := policy.New(cfg.Scan.PolicyOptions())
	if err != nil {
		logger.Fatal().Msgf("Failed to build scan policy: %v", err)
	}

	if err := janitor.EnsureDir(cfg.Scan.Directory); err != nil {
		logger.Fatal().Msgf("Failed to prepare scan directory: %v", err)
	}
	go janitor.New(logger, cfg.Scan.Directory, cfg.Scan.StaleFileAge).Run(signalCtx, cfg.Scan.JanitorInterval)
	logger.Info().Msgf("Scan directory: %s", cfg.Scan.Directory)

	store, err := storage.NewSQLiteStorage(storage.Config{
		DatabasePath: cfg.Storage.DatabasePath,
		Debug:        cfg.Server.Debug,
		CreateDir:    true,
	})
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	logger.Info().Msgf("Database initialized at %s", cfg.Storage.DatabasePath)

	metrics.RegisterMetrics()

	runner := scan.NewRunner(logger, guard, pol, executor.New(logger, cfg.Scan.Directory))

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}
	srv := server.NewServer(impl, store, runner)

	// Web scanners double as full scan members.
	scanners := []tools.Scanner{
		nikto.New(logger),
		dirb.New(logger),
		wpscan.New(logger),
	}

	toolList := []tools.Tool{
		nmap.New(logger),
		sqlmap.New(logger),
		searchsploit.New(logger),
		hydra.New(logger),
		fullscan.New(logger, scanners...),
		history.New(logger),
		catalog.New(logger),
		disclaimer.New(logger),
	}
	for _, scanner := range scanners {
		toolList = append(toolList, scanner)
	}

	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Error().Msgf("Failed to register tool: %v", err)
		}
	}

	logger.Info().Msg("Server configured for authorized security testing only")

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		serveHTTP(signalCtx, logger, srv, cfg.Server.Bind, version)
	default:
		logger.Info().Msgf("%s starting on stdio", ServiceName)
		if err := srv.Run(signalCtx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Msgf("%s stopped: %v", ServiceName, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", ServiceName, err)
	} else {
		logger.Info().Msgf("%s shutdown complete", ServiceName)
	}
}

func serveHTTP(ctx context.Context, logger zerolog.Logger, srv *server.Server, bindAddr, version string) {
	// Stateless mode avoids "session not found" errors after server restart
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	http.Handle("/mcp", handler)
	http.Handle("/metrics", metrics.Handler())

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service": ServiceName,
			"version": version,
			"endpoints": map[string]string{
				"mcp":     "/mcp",
				"metrics": "/metrics",
			},
		})
	})

	httpServer := &http.Server{
		Addr:              bindAddr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().Msgf("%s starting on address %s", ServiceName, bindAddr)
	logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", bindAddr)

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("%s failed to start: %v", ServerName, err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Msgf("HTTP shutdown error: %v", err)
	}
}
