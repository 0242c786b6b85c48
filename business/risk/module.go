// Package risk implements the risk bounded context: six-factor scoring and derived limits.
package risk

import (
	"context"

	"github.com/fd1az/product-scout/business/risk/app"
	riskDI "github.com/fd1az/product-scout/business/risk/di"
	"github.com/fd1az/product-scout/business/risk/domain"
	trendDI "github.com/fd1az/product-scout/business/trend/di"
	"github.com/fd1az/product-scout/internal/config"
	"github.com/fd1az/product-scout/internal/di"
	"github.com/fd1az/product-scout/internal/monolith"
)

// Module implements the risk bounded context.
type Module struct{}

// RegisterServices registers all risk services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, riskDI.Assessor, func(sr di.ServiceRegistry) *app.Assessor {
		cfg := sr.Get("config").(*config.Config)

		assessor, err := app.NewAssessor(AssessorConfig(cfg.Risk), trendDI.GetCatalog(sr))
		if err != nil {
			panic("failed to create risk assessor: " + err.Error())
		}
		return assessor
	})

	return nil
}

// Startup initializes the risk module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	th := riskDI.GetAssessor(mono.Services()).Thresholds()
	mono.Logger().Info(ctx, "risk module started", "low_max", th.LowMax, "medium_max", th.MediumMax)
	return nil
}

// AssessorConfig converts the risk configuration.
func AssessorConfig(c config.RiskConfig) app.Config {
	return app.Config{
		Weights:    factors(c.Weights),
		Thresholds: domain.Thresholds{LowMax: c.LowMax, MediumMax: c.MediumMax},
		Reporting:  factors(c.Reporting),
	}
}

func factors(w config.RiskWeights) domain.FactorScores {
	return domain.FactorScores{
		Volatility:  w.Volatility,
		Competition: w.Competition,
		Demand:      w.Demand,
		Seasonality: w.Seasonality,
		Supplier:    w.Supplier,
		Regulatory:  w.Regulatory,
	}
}
