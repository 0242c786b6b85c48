// Package profit implements the profit bounded context: resale estimation and unit economics.
package profit

import (
	"context"
	"time"

	"github.com/fd1az/product-scout/business/profit/app"
	profitDI "github.com/fd1az/product-scout/business/profit/di"
	"github.com/fd1az/product-scout/business/profit/domain"
	trendDI "github.com/fd1az/product-scout/business/trend/di"
	"github.com/fd1az/product-scout/internal/config"
	"github.com/fd1az/product-scout/internal/di"
	"github.com/fd1az/product-scout/internal/monolith"
)

// Module implements the profit bounded context.
type Module struct{}

// RegisterServices registers all profit services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, profitDI.Estimator, func(sr di.ServiceRegistry) *app.Estimator {
		cfg := sr.Get("config").(*config.Config)

		estimator, err := app.NewEstimator(FeeSchedule(cfg.Fees), trendDI.GetCatalog(sr))
		if err != nil {
			panic("failed to create estimator: " + err.Error())
		}
		return estimator
	})

	di.RegisterToken(c, profitDI.JitterFactory, func(sr di.ServiceRegistry) app.JitterFactory {
		cfg := sr.Get("config").(*config.Config)

		if !cfg.Ranker.Jitter {
			return app.NoJitter
		}
		seed := cfg.Ranker.JitterSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return app.SeededJitterFactory(seed)
	})

	return nil
}

// Startup initializes the profit module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "profit module started",
		"platform_pct", cfg.Fees.PlatformPct,
		"payment_pct", cfg.Fees.PaymentPct,
		"jitter", cfg.Ranker.Jitter,
		"jitter_seed", cfg.Ranker.JitterSeed,
	)
	return nil
}

// FeeSchedule converts the fee configuration.
func FeeSchedule(c config.FeesConfig) domain.FeeSchedule {
	return domain.FeeSchedule{
		PlatformPct:       c.PlatformPct,
		PaymentPct:        c.PaymentPct,
		ReturnReservePct:  c.ReturnReservePct,
		CurrencyBufferPct: c.CurrencyBufferPct,
		Shipping:          c.ShippingDecimal(),
		Packaging:         c.PackagingDecimal(),
		BreakEvenTarget:   c.BreakEvenTargetDecimal(),
	}
}
