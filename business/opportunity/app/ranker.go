// Package app contains application services and port definitions for the opportunity context.
package app

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	profitApp "github.com/fd1az/product-scout/business/profit/app"
	riskApp "github.com/fd1az/product-scout/business/risk/app"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apm"
	"github.com/fd1az/product-scout/internal/apperror"
)

const (
	breakoutGrowth   = 50.0
	trendingScore    = 80.0
	socialBuzzCount  = 10_000
	profitConfWeight = 0.6
	safetyWeight     = 0.4
)

// RankerConfig holds the gate and the fan-out limit.
type RankerConfig struct {
	Gate    domain.Gate
	Workers int
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithJitterFactory sets the per-candidate jitter sources.
func WithJitterFactory(f profitApp.JitterFactory) RankerOption {
	return func(r *Ranker) {
		if f != nil {
			r.jitter = f
		}
	}
}

// WithRankerClock sets the clock used for timestamps and the in_season signal.
func WithRankerClock(now func() time.Time) RankerOption {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// Ranker evaluates candidates concurrently, gates them and sorts the
// survivors by confidence.
type Ranker struct {
	estimator *profitApp.Estimator
	assessor  *riskApp.Assessor
	catalog   *trendDomain.Catalog
	gate      domain.Gate
	workers   int
	jitter    profitApp.JitterFactory
	now       func() time.Time
	tracer    *apm.Tracer

	evaluated metric.Int64Counter
	rejected  metric.Int64Counter
	ranked    metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewRanker creates a Ranker. A nil catalog uses the defaults.
func NewRanker(
	estimator *profitApp.Estimator,
	assessor *riskApp.Assessor,
	catalog *trendDomain.Catalog,
	cfg RankerConfig,
	opts ...RankerOption,
) (*Ranker, error) {
	if estimator == nil || assessor == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("ranker needs an estimator and an assessor"))
	}
	if cfg.Gate.MinMarginPct < 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("minimum margin cannot be negative"))
	}
	if catalog == nil {
		catalog = trendDomain.DefaultCatalog()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	meter := otel.Meter("scout.opportunity")
	evaluated, _ := meter.Int64Counter("scout_candidates_evaluated_total",
		metric.WithDescription("Candidates evaluated by the ranker"))
	rejected, _ := meter.Int64Counter("scout_candidates_rejected_total",
		metric.WithDescription("Candidates dropped by the gate, by reason"))
	ranked, _ := meter.Int64Counter("scout_opportunities_ranked_total",
		metric.WithDescription("Opportunities that passed the gate"))
	duration, _ := meter.Float64Histogram("scout_rank_duration_ms",
		metric.WithDescription("Time to rank a batch of candidates"),
		metric.WithUnit("ms"))

	r := &Ranker{
		estimator: estimator,
		assessor:  assessor,
		catalog:   catalog,
		gate:      cfg.Gate,
		workers:   cfg.Workers,
		jitter:    profitApp.NoJitter,
		now:       time.Now,
		tracer:    apm.NewTracer("opportunity.ranker"),
		evaluated: evaluated,
		rejected:  rejected,
		ranked:    ranked,
		duration:  duration,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Gate returns the inclusion gate.
func (r *Ranker) Gate() domain.Gate {
	return r.gate
}

// Rank evaluates candidates and returns the ones passing the gate, ordered by
// confidence descending. Equal confidences keep input order. Any invalid
// candidate fails the whole call.
func (r *Ranker) Rank(ctx context.Context, candidates []domain.Candidate) (out []domain.Opportunity, err error) {
	ctx, span := r.tracer.Start(ctx, "Ranker.Rank")
	defer span.Finish(&err)
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	start := time.Now()
	at := r.now()
	results := make([]*domain.Opportunity, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opp, err := r.evaluate(c, r.jitter(i), at)
			if err != nil {
				return apperror.New(apperror.CodeInvalidCandidate,
					apperror.WithCause(err),
					apperror.WithContext(fmt.Sprintf("candidate %d (%s)", i, c.Name())))
			}
			results[i] = opp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}
	r.evaluated.Add(ctx, int64(len(candidates)))

	out = make([]domain.Opportunity, 0, len(results))
	for _, opp := range results {
		if ok, reason := r.gate.Check(opp); !ok {
			r.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
			continue
		}
		out = append(out, *opp)
	}

	slices.SortStableFunc(out, func(a, b domain.Opportunity) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	r.ranked.Add(ctx, int64(len(out)))
	r.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	span.SetAttributes(attribute.Int("ranked", len(out)))
	return out, nil
}

// Evaluate scores a single candidate without applying the gate.
func (r *Ranker) Evaluate(ctx context.Context, c domain.Candidate) (*domain.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(ctx)
	}
	opp, err := r.evaluate(c, r.jitter(0), r.now())
	if err != nil {
		return nil, err
	}
	r.evaluated.Add(ctx, 1)
	return opp, nil
}

func (r *Ranker) evaluate(c domain.Candidate, src profitApp.JitterSource, at time.Time) (*domain.Opportunity, error) {
	name := c.Name()

	estimator := r.estimator
	if src != nil {
		estimator = estimator.WithSource(src)
	}

	analysis, err := estimator.Estimate(name, c.BasePrice, c.Profile, c.ResalePrice)
	if err != nil {
		return nil, err
	}
	assessment, err := r.assessor.Assess(name, c.BasePrice, analysis.ResalePrice, c.Profile)
	if err != nil {
		return nil, err
	}

	return &domain.Opportunity{
		ID:           uuid.New(),
		Profile:      c.Profile,
		Profit:       *analysis,
		Risk:         *assessment,
		ViralSignals: r.signals(c.Profile, at.Month()),
		Confidence:   Confidence(analysis.ConfidencePct, assessment.OverallRiskScore),
		EvaluatedAt:  at,
	}, nil
}

func (r *Ranker) signals(p trendDomain.TrendProfile, month time.Month) []string {
	out := []string{}
	if p.GrowthRate > breakoutGrowth {
		out = append(out, domain.SignalBreakoutGrowth)
	}
	if p.TrendScore >= trendingScore {
		out = append(out, domain.SignalTrending)
	}
	if p.SocialMentions >= socialBuzzCount {
		out = append(out, domain.SignalSocialBuzz)
	}
	for _, s := range r.catalog.MatchSeasons(p.Keyword) {
		if s.PhaseAt(month) == trendDomain.PhasePeak {
			out = append(out, domain.SignalInSeason)
			break
		}
	}
	return out
}

// Confidence blends the estimator's confidence with the inverse of the risk
// score, clamped to [0, 100] and rounded to one decimal.
func Confidence(profitConfidence, riskScore float64) float64 {
	c := profitConfWeight*profitConfidence + safetyWeight*(100-riskScore)
	c = math.Min(math.Max(c, 0), 100)
	return math.Round(c*10) / 10
}

func cancelled(ctx context.Context) error {
	return apperror.New(apperror.CodeEvaluationCancelled, apperror.WithCause(ctx.Err()))
}
