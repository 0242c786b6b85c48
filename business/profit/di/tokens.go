// Package di contains dependency injection tokens for the profit context.
package di

import (
	"github.com/fd1az/product-scout/business/profit/app"
	"github.com/fd1az/product-scout/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Estimator     = di.NewToken[*app.Estimator]("profit.Estimator")
	JitterFactory = di.NewToken[app.JitterFactory]("profit.JitterFactory")
)

// Helper functions for type-safe access
func GetEstimator(c di.ServiceRegistry) *app.Estimator {
	return di.GetToken(c, Estimator)
}

func GetJitterFactory(c di.ServiceRegistry) app.JitterFactory {
	return di.GetToken(c, JitterFactory)
}
