package app

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apm"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
)

const defaultFetchWorkers = 4

// TrendService fetches observations through the cache and source and
// normalizes them. Fetch failures degrade to an empty observation.
type TrendService struct {
	aggregator *Aggregator
	source     TrendSource
	cache      ObservationCache
	workers    int
	log        logger.LoggerInterface
	tracer     *apm.Tracer
	fetches    metric.Int64Counter
}

// NewTrendService wires a TrendService. source and cache may be nil.
func NewTrendService(
	aggregator *Aggregator,
	source TrendSource,
	cache ObservationCache,
	workers int,
	log logger.LoggerInterface,
) *TrendService {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	if log == nil {
		log = logger.NewDiscard()
	}

	fetches, _ := otel.Meter("scout.trend").Int64Counter(
		"scout_trend_fetch_total",
		metric.WithDescription("Trend lookups by result"),
	)

	return &TrendService{
		aggregator: aggregator,
		source:     source,
		cache:      cache,
		workers:    workers,
		log:        log,
		tracer:     apm.NewTracer("trend.service"),
		fetches:    fetches,
	}
}

// Aggregator returns the aggregator used to normalize observations.
func (s *TrendService) Aggregator() *Aggregator {
	return s.aggregator
}

// SourceHealthy reports whether a source is configured and usable. Sources
// that cannot report their health count as healthy.
func (s *TrendService) SourceHealthy() (configured, healthy bool) {
	if s.source == nil {
		return false, false
	}
	if h, ok := s.source.(interface{ Healthy() bool }); ok {
		return true, h.Healthy()
	}
	return true, true
}

func cacheKey(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// Observe returns the latest observation for keyword. Only an empty keyword
// or a cancelled context produce an error.
func (s *TrendService) Observe(ctx context.Context, keyword string) (obs domain.RawObservation, err error) {
	ctx, span := s.tracer.Start(ctx, "TrendService.Observe")
	defer span.Finish(&err)
	span.SetAttributes(attribute.String("keyword", keyword))

	key := cacheKey(keyword)
	if key == "" {
		return domain.RawObservation{}, apperror.Validation(apperror.CodeRequiredField, "keyword")
	}
	empty := domain.RawObservation{Keyword: strings.TrimSpace(keyword)}

	if s.cache != nil {
		cached, ok, cerr := s.cache.Get(ctx, key)
		switch {
		case cerr != nil:
			s.log.Warn(ctx, "trend cache unavailable", "keyword", key, "error", cerr)
		case ok:
			s.record(ctx, "hit")
			return cached, nil
		}
	}

	if s.source == nil {
		s.record(ctx, "no_source")
		s.log.Debug(ctx, "no trend source configured", "keyword", key)
		return empty, nil
	}

	fetched, ferr := s.source.Fetch(ctx, keyword)
	if ferr != nil {
		if ctx.Err() != nil {
			return domain.RawObservation{}, apperror.New(apperror.CodeEvaluationCancelled, apperror.WithCause(ctx.Err()))
		}
		s.record(ctx, "degraded")
		s.log.Warn(ctx, "trend data degraded", "keyword", key, "code", apperror.GetCode(ferr), "error", ferr)
		return empty, nil
	}
	if fetched.Keyword == "" {
		fetched.Keyword = empty.Keyword
	}

	s.record(ctx, "fetched")
	if s.cache != nil {
		if cerr := s.cache.Set(ctx, key, fetched); cerr != nil {
			s.log.Warn(ctx, "trend cache store failed", "keyword", key, "error", cerr)
		}
	}
	return fetched, nil
}

// Profile observes keyword and normalizes the result.
func (s *TrendService) Profile(ctx context.Context, keyword string) (domain.TrendProfile, error) {
	obs, err := s.Observe(ctx, keyword)
	if err != nil {
		return domain.TrendProfile{}, err
	}
	return s.aggregator.Normalize(obs), nil
}

// Profiles fetches keywords concurrently. Results keep the input order.
func (s *TrendService) Profiles(ctx context.Context, keywords []string) ([]domain.TrendProfile, error) {
	out := make([]domain.TrendProfile, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, kw := range keywords {
		g.Go(func() error {
			p, err := s.Profile(gctx, kw)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ingest stores an observation pushed by a live feed so the next lookup sees it.
func (s *TrendService) Ingest(ctx context.Context, obs domain.RawObservation) error {
	key := cacheKey(obs.Keyword)
	if key == "" {
		return apperror.Validation(apperror.CodeRequiredField, "keyword")
	}
	s.record(ctx, "ingested")
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, obs)
}

func (s *TrendService) record(ctx context.Context, result string) {
	if s.fetches != nil {
		s.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}
