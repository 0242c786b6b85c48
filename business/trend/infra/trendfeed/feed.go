// Package trendfeed subscribes to a live stream of trend observations over WebSocket.
package trendfeed

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
	"github.com/fd1az/product-scout/internal/wsconn"
)

const (
	tracerName = "trend.trendfeed"
	meterName  = "trend.trendfeed"

	eventObservation = "observation"
	eventBatch       = "batch"
)

// Config holds configuration for the feed.
type Config struct {
	URL            string
	Keywords       []string
	MaxReconnects  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type feedRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type feedEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Feed receives observations pushed by the server for subscribed keywords.
type Feed struct {
	config Config
	logger logger.LoggerInterface
	conn   *wsconn.Client

	onObservation func(context.Context, domain.RawObservation)
	handlersMu    sync.RWMutex

	subscriptions map[string]struct{}
	subsMu        sync.RWMutex
	nextID        atomic.Int64

	tracer      trace.Tracer
	received    metric.Int64Counter
	parseErrors metric.Int64Counter
}

// New creates a feed. It does not connect.
func New(cfg Config, log logger.LoggerInterface) (*Feed, error) {
	wsCfg := wsconn.DefaultConfig(cfg.URL, "trend-feed")
	wsCfg.Logger = log
	wsCfg.MaxReconnects = cfg.MaxReconnects
	if cfg.InitialBackoff > 0 {
		wsCfg.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxBackoff = cfg.MaxBackoff
	}

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, apperror.New(apperror.CodeTrendFeedError,
			apperror.WithCause(err),
			apperror.WithContext("failed to create wsconn"))
	}

	meter := otel.Meter(meterName)
	received, _ := meter.Int64Counter("scout_trend_feed_messages_total",
		metric.WithDescription("Observations received from the live feed"))
	parseErrors, _ := meter.Int64Counter("scout_trend_feed_parse_errors_total",
		metric.WithDescription("Feed messages that could not be decoded"))

	f := &Feed{
		config:        cfg,
		logger:        log,
		conn:          conn,
		subscriptions: make(map[string]struct{}),
		tracer:        otel.Tracer(tracerName),
		received:      received,
		parseErrors:   parseErrors,
	}
	for _, kw := range cfg.Keywords {
		if k := normalize(kw); k != "" {
			f.subscriptions[k] = struct{}{}
		}
	}

	conn.OnMessage(f.handleMessage)
	conn.OnReconnect(func(ctx context.Context) error {
		return f.sendSubscribe(ctx, f.Subscriptions())
	})
	return f, nil
}

// OnObservation registers the observation handler.
func (f *Feed) OnObservation(handler func(context.Context, domain.RawObservation)) {
	f.handlersMu.Lock()
	f.onObservation = handler
	f.handlersMu.Unlock()
}

// Connect dials the feed and subscribes to the configured keywords.
func (f *Feed) Connect(ctx context.Context) error {
	ctx, span := f.tracer.Start(ctx, "trendfeed.connect",
		trace.WithAttributes(attribute.Int("keywords", len(f.Subscriptions()))),
	)
	defer span.End()

	if err := f.conn.Connect(ctx); err != nil {
		span.RecordError(err)
		return apperror.New(apperror.CodeTrendFeedError,
			apperror.WithCause(err),
			apperror.WithContext(f.config.URL))
	}

	if err := f.sendSubscribe(ctx, f.Subscriptions()); err != nil {
		return err
	}

	f.logger.Info(ctx, "trend feed connected", "url", f.config.URL, "keywords", len(f.Subscriptions()))
	return nil
}

// Subscribe adds keywords to the live subscription.
func (f *Feed) Subscribe(ctx context.Context, keywords ...string) error {
	var fresh []string
	f.subsMu.Lock()
	for _, kw := range keywords {
		k := normalize(kw)
		if k == "" {
			continue
		}
		if _, ok := f.subscriptions[k]; !ok {
			f.subscriptions[k] = struct{}{}
			fresh = append(fresh, k)
		}
	}
	f.subsMu.Unlock()

	if !f.conn.IsConnected() {
		return nil
	}
	return f.sendSubscribe(ctx, fresh)
}

// Subscriptions returns the subscribed keywords, sorted.
func (f *Feed) Subscriptions() []string {
	f.subsMu.RLock()
	defer f.subsMu.RUnlock()

	out := make([]string, 0, len(f.subscriptions))
	for k := range f.subscriptions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *Feed) sendSubscribe(ctx context.Context, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	req := feedRequest{Method: "SUBSCRIBE", Params: keywords, ID: f.nextID.Add(1)}
	if err := f.conn.SendJSON(ctx, req); err != nil {
		return apperror.New(apperror.CodeTrendFeedError,
			apperror.WithCause(err),
			apperror.WithContext("failed to subscribe"))
	}
	return nil
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	var event feedEvent
	if err := json.Unmarshal(data, &event); err != nil || event.Type == "" {
		// Subscription acknowledgements carry no type.
		if err != nil {
			f.parseErrors.Add(ctx, 1)
			f.logger.Debug(ctx, "failed to parse feed message", "error", err, "data", string(data[:min(len(data), 200)]))
		}
		return
	}

	var batch []domain.RawObservation
	switch event.Type {
	case eventObservation:
		var obs domain.RawObservation
		if err := json.Unmarshal(event.Data, &obs); err != nil {
			f.parseErrors.Add(ctx, 1)
			return
		}
		batch = append(batch, obs)
	case eventBatch:
		if err := json.Unmarshal(event.Data, &batch); err != nil {
			f.parseErrors.Add(ctx, 1)
			return
		}
	default:
		return
	}

	f.handlersMu.RLock()
	handler := f.onObservation
	f.handlersMu.RUnlock()

	for _, obs := range batch {
		if strings.TrimSpace(obs.Keyword) == "" {
			continue
		}
		f.received.Add(ctx, 1)
		if handler != nil {
			handler(ctx, obs)
		}
	}
}

// IsConnected reports whether the feed holds a live connection.
func (f *Feed) IsConnected() bool {
	return f.conn.IsConnected()
}

// Close closes the feed connection.
func (f *Feed) Close() error {
	return f.conn.Close()
}

func normalize(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
