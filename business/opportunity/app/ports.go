package app

import (
	"context"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
)

// TrendProvider supplies normalized trend profiles for keywords.
type TrendProvider interface {
	Profile(ctx context.Context, keyword string) (trendDomain.TrendProfile, error)
	Profiles(ctx context.Context, keywords []string) ([]trendDomain.TrendProfile, error)
}

// Reporter defines the interface for publishing scan results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report publishes the result of a scan.
	Report(ctx context.Context, snap *domain.Snapshot) error

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// ErrorReporter is implemented by reporters that surface failed scans.
type ErrorReporter interface {
	ReportError(ctx context.Context, err error)
}
