// Package trendsapi fetches keyword trend observations from a REST trends API.
package trendsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/circuitbreaker"
	"github.com/fd1az/product-scout/internal/httpclient"
	"github.com/fd1az/product-scout/internal/logger"
	"github.com/fd1az/product-scout/internal/ratelimit"
)

const (
	tracerName     = "trend.trendsapi"
	trendsEndpoint = "/v1/trends"
	defaultTimeout = 10 * time.Second
)

// Config holds configuration for the trends API client.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client implements app.TrendSource over HTTP, rate limited and behind a
// circuit breaker.
type Client struct {
	client  *httpclient.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker[domain.RawObservation]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a new trends API client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("trends api url is required"))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	tracer := otel.Tracer(tracerName)

	opts := []httpclient.Option{
		httpclient.WithName("trends"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(timeout),
		httpclient.WithTracer(tracer, true),
		httpclient.WithHeader("Accept", "application/json"),
	}
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithHeader("X-API-Key", cfg.APIKey))
	}

	client, err := httpclient.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("trends-api")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "trends api circuit state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Client{
		client:  client,
		limiter: ratelimit.New("trends-api", cfg.RequestsPerMinute),
		breaker: circuitbreaker.New[domain.RawObservation](cbCfg),
		logger:  log,
		tracer:  tracer,
	}, nil
}

// Fetch returns the current observation for keyword.
func (c *Client) Fetch(ctx context.Context, keyword string) (domain.RawObservation, error) {
	ctx, span := c.tracer.Start(ctx, "trendsapi.fetch",
		trace.WithAttributes(attribute.String("keyword", keyword)),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return domain.RawObservation{}, err
	}

	obs, err := c.breaker.Execute(func() (domain.RawObservation, error) {
		return c.get(ctx, keyword)
	})
	if err != nil {
		span.RecordError(err)
		return domain.RawObservation{}, err
	}

	span.SetAttributes(attribute.Bool("has_interest", obs.InterestScore != nil))
	c.logger.Debug(ctx, "fetched trend observation", "keyword", keyword, "has_interest", obs.InterestScore != nil)
	return obs, nil
}

// Healthy reports whether the circuit breaker admits requests.
func (c *Client) Healthy() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

func (c *Client) get(ctx context.Context, keyword string) (domain.RawObservation, error) {
	var result domain.RawObservation
	resp, err := c.client.GetJSON(ctx, trendsEndpoint, url.Values{"keyword": {keyword}}, &result,
		httpclient.WithLabel("endpoint", "trends"),
		httpclient.WithErrorHandler(trendsErrorHandler),
	)
	if err != nil {
		return domain.RawObservation{}, apperror.New(apperror.CodeTrendFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext(keyword))
	}
	if resp.IsError() {
		return domain.RawObservation{}, apperror.New(apperror.CodeTrendFetchFailed,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Body)))
	}

	if result.Keyword == "" {
		result.Keyword = keyword
	}
	return result, nil
}

// APIError is the error body returned by the trends API.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trends api error %d: %s", e.Status, e.Message)
}

func trendsErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.Status = statusCode
		return &apiErr
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
