package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apm"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
)

const defaultScanInterval = 5 * time.Minute

// ScannerConfig holds configuration for the periodic scanner.
type ScannerConfig struct {
	Interval  time.Duration
	Watchlist []domain.WatchItem
}

// StatusFunc reports the connection state of the data sources.
type StatusFunc func() []domain.SourceStatus

// Scanner periodically ranks the watchlist and fans the result out to reporters.
type Scanner struct {
	trends TrendProvider
	ranker *Ranker
	config ScannerConfig
	status StatusFunc
	log    logger.LoggerInterface
	tracer *apm.Tracer

	mu        sync.RWMutex
	reporters []Reporter
	latest    *domain.Snapshot
	scans     int64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScanner creates a new Scanner.
func NewScanner(
	trends TrendProvider,
	ranker *Ranker,
	config ScannerConfig,
	log logger.LoggerInterface,
	reporters ...Reporter,
) *Scanner {
	if config.Interval <= 0 {
		config.Interval = defaultScanInterval
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Scanner{
		trends:    trends,
		ranker:    ranker,
		config:    config,
		log:       log,
		tracer:    apm.NewTracer("opportunity.scanner"),
		reporters: reporters,
	}
}

// SetStatusFunc sets the source status callback attached to snapshots.
func (s *Scanner) SetStatusFunc(fn StatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fn
}

// AddReporter registers another reporter. Call before Start.
func (s *Scanner) AddReporter(r Reporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reporters = append(s.reporters, r)
}

// Ranker returns the ranker used for scans.
func (s *Scanner) Ranker() *Ranker {
	return s.ranker
}

// Watchlist returns the configured watchlist.
func (s *Scanner) Watchlist() []domain.WatchItem {
	return s.config.Watchlist
}

// Start starts the reporters and the scan loop.
func (s *Scanner) Start(ctx context.Context) error {
	s.log.Info(ctx, "starting opportunity scanner",
		"interval", s.config.Interval,
		"watchlist", len(s.config.Watchlist))

	for _, r := range s.snapshotReporters() {
		if err := r.Start(ctx); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(runCtx, done)
	return nil
}

func (s *Scanner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scanner stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *Scanner) scan(ctx context.Context) {
	if _, err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Error(ctx, "scan failed", "code", apperror.GetCode(err), "error", err)
		for _, r := range s.snapshotReporters() {
			if er, ok := r.(ErrorReporter); ok {
				er.ReportError(ctx, err)
			}
		}
	}
}

// ScanOnce ranks the watchlist, stores the snapshot and reports it.
func (s *Scanner) ScanOnce(ctx context.Context) (snap *domain.Snapshot, err error) {
	ctx, span := s.tracer.Start(ctx, "Scanner.ScanOnce")
	defer span.Finish(&err)

	opps, err := s.Evaluate(ctx, s.config.Watchlist)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.scans++
	snap = &domain.Snapshot{
		Scan:          s.scans,
		ScannedAt:     s.ranker.now(),
		Evaluated:     len(s.config.Watchlist),
		Opportunities: opps,
		Summary:       domain.Summarize(opps),
	}
	if s.status != nil {
		snap.Sources = s.status()
	}
	s.latest = snap
	s.mu.Unlock()

	span.SetAttributes(attribute.Int64("scan", snap.Scan))
	s.log.Info(ctx, "scan complete",
		"scan", snap.Scan,
		"evaluated", snap.Evaluated,
		"opportunities", snap.Summary.Count,
		"top_category", snap.Summary.TopCategory)

	for _, r := range s.snapshotReporters() {
		if rerr := r.Report(ctx, snap); rerr != nil {
			s.log.Warn(ctx, "reporter failed", "code", apperror.GetCode(rerr), "error", rerr)
		}
	}
	return snap, nil
}

// Evaluate fetches trend profiles for items and ranks them.
func (s *Scanner) Evaluate(ctx context.Context, items []domain.WatchItem) ([]domain.Opportunity, error) {
	if len(items) == 0 {
		return []domain.Opportunity{}, nil
	}

	keywords := make([]string, len(items))
	for i, item := range items {
		keywords[i] = item.Keyword
	}
	profiles, err := s.trends.Profiles(ctx, keywords)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, len(items))
	for i, item := range items {
		candidates[i] = candidate(item, profiles[i])
	}
	return s.ranker.Rank(ctx, candidates)
}

// Analyze evaluates one item and reports whether it passes the gate.
func (s *Scanner) Analyze(ctx context.Context, item domain.WatchItem) (*domain.Verdict, error) {
	profile, err := s.trends.Profile(ctx, item.Keyword)
	if err != nil {
		return nil, err
	}

	opp, err := s.ranker.Evaluate(ctx, candidate(item, profile))
	if err != nil {
		return nil, err
	}
	ok, reason := s.ranker.Gate().Check(opp)
	return &domain.Verdict{Opportunity: opp, Accepted: ok, Reason: reason}, nil
}

// Latest returns the most recent snapshot, nil before the first scan.
func (s *Scanner) Latest() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Stop halts the scan loop and shuts down the reporters.
func (s *Scanner) Stop() error {
	s.log.Info(context.Background(), "stopping opportunity scanner")

	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	var errs []error
	for _, r := range s.snapshotReporters() {
		if err := r.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scanner) snapshotReporters() []Reporter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reporter, len(s.reporters))
	copy(out, s.reporters)
	return out
}

func candidate(item domain.WatchItem, profile trendDomain.TrendProfile) domain.Candidate {
	if c := strings.TrimSpace(item.Category); c != "" {
		profile.Category = strings.ToLower(c)
	}
	return domain.Candidate{
		ProductName: item.ProductName,
		Profile:     profile,
		BasePrice:   item.BasePrice,
		ResalePrice: item.ResalePrice,
	}
}
