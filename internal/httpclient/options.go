package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	name    string
	baseURL string
	timeout time.Duration
	headers http.Header
	tracer  trace.Tracer
	logBody bool
}

// Option configures a Client.
type Option func(*options)

// WithName sets the provider name used in spans and metric attributes.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBaseURL sets the URL that relative paths are resolved against.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader sets a header sent on every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers[http.CanonicalHeaderKey(key)] = []string{value}
	}
}

// WithTracer sets the tracer. When logBody is true response bodies are
// attached to the span as events.
func WithTracer(tracer trace.Tracer, logBody bool) Option {
	return func(o *options) {
		o.tracer = tracer
		o.logBody = logBody
	}
}

// ErrorHandler maps an error status and body to an error. Returning nil
// leaves the response to the caller.
type ErrorHandler func(statusCode int, body []byte) error

type callOptions struct {
	onError ErrorHandler
	labels  []attribute.KeyValue
}

// CallOption configures a single GetJSON call.
type CallOption func(*callOptions)

// WithErrorHandler sets the handler for 4xx and 5xx responses.
func WithErrorHandler(h ErrorHandler) CallOption {
	return func(o *callOptions) {
		o.onError = h
	}
}

// WithLabel adds a metric attribute to the call.
func WithLabel(key, value string) CallOption {
	return func(o *callOptions) {
		o.labels = append(o.labels, attribute.String(key, value))
	}
}
