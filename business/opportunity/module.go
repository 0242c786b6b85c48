// Package opportunity implements the opportunity bounded context: ranking, scanning and reporting.
package opportunity

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fd1az/product-scout/business/opportunity/app"
	opportunityDI "github.com/fd1az/product-scout/business/opportunity/di"
	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/business/opportunity/infra"
	"github.com/fd1az/product-scout/business/opportunity/infra/httpapi"
	"github.com/fd1az/product-scout/business/opportunity/infra/telegram"
	profitDI "github.com/fd1az/product-scout/business/profit/di"
	riskDI "github.com/fd1az/product-scout/business/risk/di"
	trendDI "github.com/fd1az/product-scout/business/trend/di"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/config"
	"github.com/fd1az/product-scout/internal/di"
	"github.com/fd1az/product-scout/internal/logger"
	"github.com/fd1az/product-scout/internal/monolith"
)

const (
	shutdownTimeout = 5 * time.Second
	staleScanFactor = 3
)

// Module implements the opportunity bounded context.
type Module struct{}

// RegisterServices registers all opportunity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, opportunityDI.Ranker, func(sr di.ServiceRegistry) *app.Ranker {
		cfg := sr.Get("config").(*config.Config)

		ranker, err := app.NewRanker(
			profitDI.GetEstimator(sr),
			riskDI.GetAssessor(sr),
			trendDI.GetCatalog(sr),
			RankerConfig(cfg.Ranker),
			app.WithJitterFactory(profitDI.GetJitterFactory(sr)),
		)
		if err != nil {
			panic("failed to create ranker: " + err.Error())
		}
		return ranker
	})

	// Scanner with the console or TUI reporter; optional surfaces attach at startup
	di.RegisterToken(c, opportunityDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var reporter app.Reporter
		if cfg.Scanner.TUIMode {
			reporter = infra.NewTUIReporter(nil)
		} else {
			reporter = infra.NewConsoleReporter(nil, cfg.Scanner.TopN)
		}

		return app.NewScanner(
			trendDI.GetTrendService(sr),
			opportunityDI.GetRanker(sr),
			app.ScannerConfig{
				Interval:  cfg.Scanner.Interval,
				Watchlist: Watchlist(cfg.Scanner.Watchlist),
			},
			log,
			reporter,
		)
	})

	di.RegisterToken(c, opportunityDI.Bot, func(sr di.ServiceRegistry) *telegram.Bot {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.Telegram.Enabled {
			return nil
		}
		bot, err := telegram.NewBot(telegram.Config{
			Token:              cfg.Telegram.Token,
			PollTimeout:        cfg.Telegram.PollTimeout,
			AlertMinConfidence: cfg.Telegram.AlertMinConfidence,
		}, opportunityDI.GetScanner(sr), log)
		if err != nil {
			log.Warn(context.Background(), "telegram bot disabled", "error", err)
			return nil
		}
		return bot
	})

	return nil
}

// Startup attaches the optional reporters and surfaces to the scanner.
// The scan loop itself is started by the caller.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	services := mono.Services()

	scanner := opportunityDI.GetScanner(services)
	scanner.SetStatusFunc(sourceStatus(services))
	mono.OnClose(scanner.Stop)

	if cfg.NATS.Enabled {
		nc, err := infra.ConnectNATS(infra.NATSConfig{URL: cfg.NATS.URL, Subject: cfg.NATS.Subject}, log)
		if err != nil {
			log.Warn(ctx, "nats unavailable, opportunities will not be published", "url", cfg.NATS.URL, "error", err)
		} else {
			scanner.AddReporter(infra.NewNATSReporter(nc, cfg.NATS.Subject, log))
			if hs := mono.Health(); hs != nil {
				hs.RegisterCheck("nats", func(context.Context) (bool, string) {
					if !nc.IsConnected() {
						return false, nc.Status().String()
					}
					return true, "connected"
				})
			}
		}
	}

	if bot := opportunityDI.GetBot(services); bot != nil {
		scanner.AddReporter(bot.Alerts())
		bot.Start(ctx)
		mono.OnClose(bot.Stop)
	}

	if cfg.HTTP.Enabled {
		handler := httpapi.NewHandler(otel.Tracer("opportunity.httpapi"), scanner)
		server := httpapi.NewServer(cfg.HTTP.Port, cfg.Telemetry.ServiceName, handler, mono.Health(), log)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("failed to start dashboard api: %w", err)
		}
		mono.OnClose(func() error {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Stop(stopCtx)
		})
	}

	if hs := mono.Health(); hs != nil {
		interval := cfg.Scanner.Interval
		hs.RegisterCheck("scanner", func(context.Context) (bool, string) {
			return scanFresh(scanner.Latest(), interval, time.Now())
		})
	}

	gate := opportunityDI.GetRanker(services).Gate()
	log.Info(ctx, "opportunity module started",
		"min_margin_pct", gate.MinMarginPct,
		"max_risk_level", gate.MaxRiskLevel,
		"watchlist", len(scanner.Watchlist()),
		"nats", cfg.NATS.Enabled,
		"telegram", cfg.Telegram.Enabled,
		"http", cfg.HTTP.Enabled,
	)
	return nil
}

// RankerConfig converts the ranker configuration.
func RankerConfig(c config.RankerConfig) app.RankerConfig {
	level, ok := trendDomain.ParseTier(c.MaxRiskLevel)
	if !ok {
		level = domain.DefaultGate().MaxRiskLevel
	}
	return app.RankerConfig{
		Gate:    domain.Gate{MinMarginPct: c.MinMarginPct, MaxRiskLevel: level},
		Workers: c.Workers,
	}
}

// Watchlist converts the configured watchlist.
func Watchlist(items []config.WatchItem) []domain.WatchItem {
	out := make([]domain.WatchItem, len(items))
	for i, item := range items {
		out[i] = domain.WatchItem{
			Keyword:     item.Keyword,
			ProductName: item.ProductName,
			Category:    item.Category,
			BasePrice:   item.BasePriceDecimal(),
			ResalePrice: item.ResalePriceDecimal(),
		}
	}
	return out
}

func sourceStatus(services di.ServiceRegistry) app.StatusFunc {
	svc := trendDI.GetTrendService(services)
	feed := trendDI.GetFeed(services)

	return func() []domain.SourceStatus {
		var out []domain.SourceStatus
		if configured, healthy := svc.SourceHealthy(); configured {
			out = append(out, domain.SourceStatus{Name: "trends api", Connected: healthy})
		}
		if feed != nil {
			out = append(out, domain.SourceStatus{Name: "trend feed", Connected: feed.IsConnected()})
		}
		return out
	}
}

// scanFresh reports unhealthy once the latest scan is older than a few intervals.
func scanFresh(latest *domain.Snapshot, interval time.Duration, now time.Time) (bool, string) {
	if latest == nil {
		return true, "waiting for first scan"
	}
	age := now.Sub(latest.ScannedAt)
	if interval > 0 && age > staleScanFactor*interval {
		return false, fmt.Sprintf("last scan #%d is %s old", latest.Scan, age.Round(time.Second))
	}
	return true, fmt.Sprintf("scan #%d, %d opportunities", latest.Scan, latest.Summary.Count)
}
