package app

import (
	"context"

	"github.com/fd1az/product-scout/business/trend/domain"
)

// TrendSource fetches a raw observation for a keyword from an external API.
type TrendSource interface {
	Fetch(ctx context.Context, keyword string) (domain.RawObservation, error)
}

// ObservationCache stores recent observations by keyword. A miss is
// (zero, false, nil); errors are reserved for backend failures.
type ObservationCache interface {
	Get(ctx context.Context, keyword string) (domain.RawObservation, bool, error)
	Set(ctx context.Context, keyword string, obs domain.RawObservation) error
}
