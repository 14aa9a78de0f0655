// Package main is the entry point for Gas Genie.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/gas-genie/business/api"
	apiDI "github.com/fd1az/gas-genie/business/api/di"
	"github.com/fd1az/gas-genie/business/api/rest"
	"github.com/fd1az/gas-genie/business/assistant"
	assistantDI "github.com/fd1az/gas-genie/business/assistant/di"
	"github.com/fd1az/gas-genie/business/gas"
	gasDI "github.com/fd1az/gas-genie/business/gas/di"
	"github.com/fd1az/gas-genie/internal/apm"
	"github.com/fd1az/gas-genie/internal/config"
	"github.com/fd1az/gas-genie/internal/logger"
	"github.com/fd1az/gas-genie/internal/metrics"
	"github.com/fd1az/gas-genie/internal/monolith"
	"github.com/fd1az/gas-genie/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const gasRefreshInterval = 30 * time.Second

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	tuiMode := flag.Bool("tui", false, "Run the chat TUI instead of the HTTP server")
	remote := flag.String("remote", "", "WebSocket URL of a running server, e.g. ws://localhost:8000/ws/assist (TUI only)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gas-genie %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch {
	case *tuiMode && *remote != "":
		err = runRemoteTUI(*remote)
	default:
		err = run(ctx, *configPath, *tuiMode)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(out io.Writer, cfg *config.Config) *logger.Logger {
	return logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// Logs would corrupt the TUI's alt screen.
	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	log := newLogger(out, cfg)
	log.Info(ctx, "starting gas genie",
		"version", version,
		"environment", cfg.App.Environment,
		"gas_source", cfg.Gas.Source,
	)

	stopTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: api resolves both gas and assistant services.
	modules := []monolith.Module{
		&gas.Module{},
		&assistant.Module{},
		&api.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if tuiMode {
		return ui.Run(
			ui.Config{Mode: "local", GasSource: cfg.Gas.Source, GasRefresh: gasRefreshInterval},
			assistantDI.GetAssistant(mono.Services()),
			gasDI.GetGasService(mono.Services()),
		)
	}

	return serve(ctx, apiDI.GetServer(mono.Services()), log)
}

func serve(ctx context.Context, server *rest.Server, log logger.LoggerInterface) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	return server.Shutdown(context.Background())
}

// runRemoteTUI talks to an already running server, so no local credentials
// or gas source are needed.
func runRemoteTUI(endpoint string) error {
	log := logger.New(io.Discard, logger.LevelInfo, "gas-genie", nil)
	return ui.Run(
		ui.Config{Mode: "remote", Endpoint: endpoint},
		rest.NewRemoteAssistant(endpoint, log),
		nil,
	)
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	traceProvider, err := apm.NewTraceProvider(cfg.Telemetry.ServiceName,
		apm.WithProvider(apm.Provider(cfg.Telemetry.TraceProvider), apm.ExporterConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
		}, log))
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider, "endpoint", cfg.Telemetry.OTLPEndpoint)

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	promServer := metrics.NewPrometheusServer(meterProvider, metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
	go func() {
		if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "prometheus server failed", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		promServer.Shutdown(shutdownCtx)
		meterProvider.Shutdown(shutdownCtx)
		traceProvider.Stop()
	}, nil
}
