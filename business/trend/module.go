// Package trend implements the trend bounded context: observation fetching and normalization.
package trend

import (
	"context"
	"time"

	"github.com/fd1az/product-scout/business/trend/app"
	trendDI "github.com/fd1az/product-scout/business/trend/di"
	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/business/trend/infra/catalogfile"
	"github.com/fd1az/product-scout/business/trend/infra/localcache"
	"github.com/fd1az/product-scout/business/trend/infra/rediscache"
	"github.com/fd1az/product-scout/business/trend/infra/trendfeed"
	"github.com/fd1az/product-scout/business/trend/infra/trendsapi"
	"github.com/fd1az/product-scout/internal/config"
	"github.com/fd1az/product-scout/internal/di"
	"github.com/fd1az/product-scout/internal/logger"
	"github.com/fd1az/product-scout/internal/monolith"
)

const (
	redisConnectTimeout = 5 * time.Second
	feedConnectTimeout  = 10 * time.Second
	feedRetryInterval   = 5 * time.Second
)

// Module implements the trend bounded context.
type Module struct{}

// RegisterServices registers all trend services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Catalog loaded from file, falling back to compiled-in tables
	di.RegisterToken(c, trendDI.Catalog, func(sr di.ServiceRegistry) *domain.Catalog {
		cfg := sr.Get("config").(*config.Config)

		catalog, err := catalogfile.Load(cfg.Catalog.Path)
		if err != nil {
			panic("failed to load catalog: " + err.Error())
		}
		return catalog
	})

	di.RegisterToken(c, trendDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		return app.NewAggregator(trendDI.GetCatalog(sr))
	})

	// Cache: Redis when enabled and reachable, otherwise in-process
	di.RegisterToken(c, trendDI.Cache, func(sr di.ServiceRegistry) app.ObservationCache {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Redis.Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
			defer cancel()

			cache, err := rediscache.New(ctx, rediscache.Config{
				Addr:      cfg.Redis.Addr,
				Password:  cfg.Redis.Password,
				DB:        cfg.Redis.DB,
				KeyPrefix: cfg.Redis.KeyPrefix,
				TTL:       cfg.Trends.CacheTTL,
			})
			if err == nil {
				return cache
			}
			log.Warn(ctx, "redis unavailable, using in-process trend cache", "addr", cfg.Redis.Addr, "error", err)
		}
		return localcache.New(cfg.Trends.CacheTTL)
	})

	// Live feed, nil when no feed URL is configured
	di.RegisterToken(c, trendDI.Feed, func(sr di.ServiceRegistry) *trendfeed.Feed {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Trends.FeedURL == "" {
			return nil
		}

		keywords := make([]string, 0, len(cfg.Scanner.Watchlist))
		for _, item := range cfg.Scanner.Watchlist {
			keywords = append(keywords, item.Keyword)
		}

		feed, err := trendfeed.New(trendfeed.Config{
			URL:            cfg.Trends.FeedURL,
			Keywords:       keywords,
			MaxReconnects:  cfg.Trends.MaxReconnects,
			InitialBackoff: cfg.Trends.InitialBackoff,
			MaxBackoff:     cfg.Trends.MaxBackoff,
		}, log)
		if err != nil {
			panic("failed to create trend feed: " + err.Error())
		}
		return feed
	})

	// TrendService (public - exposed to other modules)
	di.RegisterToken(c, trendDI.TrendService, func(sr di.ServiceRegistry) *app.TrendService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var source app.TrendSource
		if cfg.Trends.APIURL != "" {
			client, err := trendsapi.NewClient(trendsapi.Config{
				BaseURL:           cfg.Trends.APIURL,
				APIKey:            cfg.Trends.APIKey,
				Timeout:           cfg.Trends.Timeout,
				RequestsPerMinute: cfg.Trends.RequestsPerMinute,
			}, log)
			if err != nil {
				panic("failed to create trends api client: " + err.Error())
			}
			source = client
		}

		return app.NewTrendService(
			trendDI.GetAggregator(sr),
			source,
			trendDI.GetCache(sr),
			cfg.Trends.FetchWorkers,
			log,
		)
	})

	return nil
}

// Startup connects the live feed and registers health checks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	services := mono.Services()

	svc := trendDI.GetTrendService(services)

	if cache, ok := trendDI.GetCache(services).(*rediscache.Cache); ok {
		mono.OnClose(cache.Close)
		if hs := mono.Health(); hs != nil {
			hs.RegisterCheck("trend_cache", func(ctx context.Context) (bool, string) {
				if err := cache.Ping(ctx); err != nil {
					return false, err.Error()
				}
				return true, "redis reachable"
			})
		}
	}

	feed := trendDI.GetFeed(services)
	if feed == nil {
		log.Info(ctx, "trend module started", "feed", false)
		return nil
	}

	feed.OnObservation(func(ctx context.Context, obs domain.RawObservation) {
		if err := svc.Ingest(ctx, obs); err != nil {
			log.Warn(ctx, "failed to ingest feed observation", "keyword", obs.Keyword, "error", err)
		}
	})
	mono.OnClose(feed.Close)

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("trend_feed", func(context.Context) (bool, string) {
			if !feed.IsConnected() {
				return false, "disconnected"
			}
			return true, "connected"
		})
	}

	// Try to connect with a short timeout - don't block startup
	connectCtx, cancel := context.WithTimeout(ctx, feedConnectTimeout)
	defer cancel()

	if err := feed.Connect(connectCtx); err != nil {
		log.Warn(ctx, "trend feed connection failed, will retry in background", "error", err)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(feedRetryInterval):
					if err := feed.Connect(ctx); err != nil {
						log.Warn(ctx, "trend feed retry failed", "error", err)
					} else {
						log.Info(ctx, "trend feed connected")
						return
					}
				}
			}
		}()
	}

	log.Info(ctx, "trend module started", "feed", true)
	return nil
}
