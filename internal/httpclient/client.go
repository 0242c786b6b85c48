// Package httpclient provides the instrumented JSON client used by outbound
// lookups such as the trends API.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultUserAgent       = "product-scout"
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	// Bodies larger than this are truncated in span events.
	maxBodyEvent = 2048

	instrumentationName = "product-scout/httpclient"
)

// Response is a completed call with its body already read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Client issues GET requests against a base URL and decodes JSON bodies.
// It is safe for concurrent use.
type Client struct {
	http     *http.Client
	name     string
	baseURL  string
	headers  http.Header
	tracer   trace.Tracer
	logBody  bool
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a client. The transport records a span per request with
// dns, connect and tls events.
func New(opts ...Option) (*Client, error) {
	o := options{
		name:    "default",
		timeout: defaultTimeout,
		headers: http.Header{"User-Agent": {defaultUserAgent}},
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := &http.Transport{
		DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
		MaxConnsPerHost: defaultMaxConnsPerHost,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	meter := otel.GetMeterProvider().Meter(instrumentationName)
	requests, err := meter.Int64Counter("http_client_requests_total",
		metric.WithDescription("Outbound HTTP requests by provider and outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http_client_request_duration_ms",
		metric.WithDescription("Outbound HTTP request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Client{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		name:     o.name,
		baseURL:  strings.TrimSuffix(o.baseURL, "/"),
		headers:  o.headers,
		tracer:   tracer,
		logBody:  o.logBody,
		requests: requests,
		duration: duration,
	}, nil
}

// GetJSON requests path with query and decodes a successful body into out.
// Error statuses are passed to the call's ErrorHandler when set; otherwise
// the response is returned with a nil error and out left untouched.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any, opts ...CallOption) (*Response, error) {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	ctx, span := c.tracer.Start(ctx, "httpclient.get", trace.WithAttributes(
		attribute.String("provider", c.name),
		attribute.String("http.path", path),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, path, query)
	c.record(ctx, call.labels, start, resp, err)
	if err != nil {
		c.fail(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.logBody {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", truncate(resp.Body)),
		))
	}

	if resp.IsError() {
		if call.onError != nil {
			if err := call.onError(resp.StatusCode, resp.Body); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return resp, err
			}
		}
		return resp, nil
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			err = fmt.Errorf("decode %s response: %w", c.name, err)
			c.fail(span, err)
			return resp, err
		}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) (*Response, error) {
	target := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http") {
		target = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) record(ctx context.Context, labels []attribute.KeyValue, start time.Time, resp *Response, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "network_error"
	case resp.IsError():
		outcome = "http_error"
	}

	attrs := append([]attribute.KeyValue{
		attribute.String("provider", c.name),
		attribute.String("outcome", outcome),
	}, labels...)
	set := metric.WithAttributes(attrs...)

	c.requests.Add(ctx, 1, set)
	c.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, set)
}

func (c *Client) fail(span trace.Span, err error) {
	span.RecordError(err)
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}
	span.SetStatus(codes.Error, err.Error())
}

func truncate(body []byte) string {
	if len(body) > maxBodyEvent {
		return string(body[:maxBodyEvent]) + "..."
	}
	return string(body)
}
