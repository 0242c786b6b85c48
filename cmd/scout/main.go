// Package main is the entry point for product scout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/product-scout/business/opportunity"
	opportunityApp "github.com/fd1az/product-scout/business/opportunity/app"
	opportunityDI "github.com/fd1az/product-scout/business/opportunity/di"
	"github.com/fd1az/product-scout/business/profit"
	"github.com/fd1az/product-scout/business/risk"
	"github.com/fd1az/product-scout/business/trend"
	"github.com/fd1az/product-scout/internal/apm"
	"github.com/fd1az/product-scout/internal/config"
	"github.com/fd1az/product-scout/internal/health"
	"github.com/fd1az/product-scout/internal/logger"
	"github.com/fd1az/product-scout/internal/metrics"
	"github.com/fd1az/product-scout/internal/monolith"
	"github.com/fd1az/product-scout/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	tuiMode    bool
	once       bool
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	once := flag.Bool("once", false, "Run a single scan, print it and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("product-scout %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	opts := options{
		configPath: *configPath,
		tuiMode:    !*cliMode && !*once,
		once:       *once,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !opts.tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
		if opts.tuiMode && ui.Program != nil {
			ui.Program.Quit()
		}
	}()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Scanner.TUIMode = opts.tuiMode

	// TUI mode suppresses logs since the dashboard owns the terminal
	var out io.Writer = os.Stderr
	if opts.tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting product scout",
		"version", version,
		"environment", cfg.App.Environment,
		"watchlist", len(cfg.Scanner.Watchlist),
	)

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	var healthServer *health.Server
	if cfg.Telemetry.HealthPort > 0 && !opts.once {
		healthServer = health.NewServer(cfg.Telemetry.HealthPort, version, log)
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "port", cfg.Telemetry.HealthPort)
		}
		defer healthServer.Stop(context.Background())
	}

	mono := monolith.New(cfg, log, healthServer)
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown errors", "error", err)
		}
	}()

	// Dependency order: catalog and trends first, the ranker needs profit and risk
	modules := []monolith.Module{
		&trend.Module{},
		&profit.Module{},
		&risk.Module{},
		&opportunity.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if opts.tuiMode {
		return runTUI(ctx, func() error {
			return startModules(ctx, mono, modules)
		}, opportunityDI.GetScanner(mono.Services()))
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	scanner := opportunityDI.GetScanner(mono.Services())

	if opts.once {
		_, err := scanner.ScanOnce(ctx)
		return err
	}
	return runCLI(ctx, scanner, log)
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	if cfg.Telemetry.ServiceName != "" {
		os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	}

	provider := apm.ParseProvider(cfg.Telemetry.TraceProvider)
	traceProvider, err := apm.NewTraceProvider(log,
		apm.WithProvider(provider),
		apm.WithServiceName(cfg.Telemetry.ServiceName),
		apm.WithEndpoint(cfg.Telemetry.OTLPEndpoint),
		apm.WithSampleRatio(cfg.Telemetry.SampleRatio),
	)
	if err != nil {
		log.Warn(ctx, "tracing disabled", "error", err)
	} else {
		log.Info(ctx, "tracing initialized", "provider", provider, "endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	metricOpts := []metrics.OptionFn{metrics.WithServiceName(cfg.Telemetry.ServiceName)}
	exporters := metrics.ProvidersFromNames(cfg.Telemetry.MetricExports, cfg.Telemetry.OTLPEndpoint)
	for _, p := range exporters {
		metricOpts = append(metricOpts, metrics.WithProviderConfig(p))
	}
	meterProvider, err := metrics.NewMetricProvider(metricOpts...)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	}

	for _, p := range exporters {
		if p.Provider != metrics.PrometheusProvider {
			continue
		}
		port := strconv.Itoa(cfg.Telemetry.PrometheusPort)
		go func() {
			if err := metrics.ServePrometheusMetrics(ctx, log, metrics.WithPort(port)); err != nil {
				log.Error(ctx, "prometheus server stopped", "error", err)
			}
		}()
		break
	}

	return func() {
		if traceProvider != nil {
			_ = traceProvider.Stop()
		}
		if meterProvider != nil {
			_ = meterProvider.Shutdown(context.Background())
		}
	}
}

// startModules starts modules one by one so the TUI can show progress.
func startModules(ctx context.Context, mono monolith.Monolith, modules []monolith.Module) error {
	ui.Send(ui.StartupMsg{Step: "config", Status: "done"})

	for _, m := range modules {
		step := ""
		switch m.(type) {
		case *trend.Module:
			step = "trends"
		case *opportunity.Module:
			step = "notifiers"
		}
		if step != "" {
			ui.Send(ui.StartupMsg{Step: step, Status: "connecting"})
		}
		if err := m.Startup(ctx, mono); err != nil {
			if step != "" {
				ui.Send(ui.StartupMsg{Step: step, Status: "failed", Message: err.Error()})
			}
			return fmt.Errorf("failed to start modules: %w", err)
		}
		if step != "" {
			ui.Send(ui.StartupMsg{Step: step, Status: "done"})
		}
	}
	return nil
}

func runCLI(ctx context.Context, scanner *opportunityApp.Scanner, log *logger.Logger) error {
	log.Info(ctx, "all modules started, beginning opportunity scans")

	if err := scanner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scanner: %w", err)
	}

	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, startFunc func() error, scanner *opportunityApp.Scanner) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Show the welcome screen immediately
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		if err := scanner.Start(ctx); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
