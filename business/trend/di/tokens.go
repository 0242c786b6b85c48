// Package di contains dependency injection tokens for the trend context.
package di

import (
	"github.com/fd1az/product-scout/business/trend/app"
	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/business/trend/infra/trendfeed"
	"github.com/fd1az/product-scout/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Catalog      = di.NewToken[*domain.Catalog]("trend.Catalog")
	Aggregator   = di.NewToken[*app.Aggregator]("trend.Aggregator")
	TrendService = di.NewToken[*app.TrendService]("trend.TrendService")
)

// Private dependency tokens - internal to trend module
var (
	Cache = di.NewToken[app.ObservationCache]("trend:cache")
	Feed  = di.NewToken[*trendfeed.Feed]("trend:feed")
)

// Helper functions for type-safe access
func GetCatalog(c di.ServiceRegistry) *domain.Catalog {
	return di.GetToken(c, Catalog)
}

func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}

func GetTrendService(c di.ServiceRegistry) *app.TrendService {
	return di.GetToken(c, TrendService)
}

func GetCache(c di.ServiceRegistry) app.ObservationCache {
	return di.GetToken(c, Cache)
}

func GetFeed(c di.ServiceRegistry) *trendfeed.Feed {
	return di.GetToken(c, Feed)
}
