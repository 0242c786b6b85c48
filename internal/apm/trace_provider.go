package apm

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
)

type Provider string

const (
	NewRelicProvider  Provider = "NEWRELIC_PROVIDER"
	ZipkinProvider    Provider = "ZIPKIN_PROVIDER"
	HoneycombProvider Provider = "HONEYCOMB_PROVIDER"
	ConsoleProvider   Provider = "CONSOLE_PROVIDER"
	EmptyProvider     Provider = "EMPTY_PROVIDER"
)

// ParseProvider maps a config value such as "zipkin" or "ZIPKIN_PROVIDER"
// onto a Provider. Unknown values map to EmptyProvider.
func ParseProvider(name string) Provider {
	switch strings.ToLower(strings.TrimSuffix(strings.ToUpper(name), "_PROVIDER")) {
	case "zipkin":
		return ZipkinProvider
	case "honeycomb":
		return HoneycombProvider
	case "newrelic":
		return NewRelicProvider
	case "console", "stdout":
		return ConsoleProvider
	default:
		return EmptyProvider
	}
}

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

type TracerOptions struct {
	provider    Provider
	serviceName string
	endpoint    string
	sampleRatio float64
}

type TracerOption func(*TracerOptions)

func WithProvider(provider Provider) TracerOption {
	return func(o *TracerOptions) {
		o.provider = provider
	}
}

// WithServiceName overrides OTEL_SERVICE_NAME.
func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) {
		o.serviceName = name
	}
}

// WithEndpoint overrides OTEL_EXPORTER_OTLP_ENDPOINT.
func WithEndpoint(endpoint string) TracerOption {
	return func(o *TracerOptions) {
		o.endpoint = endpoint
	}
}

// WithSampleRatio sets the parent-based sampling ratio. Values outside
// (0, 1) sample everything.
func WithSampleRatio(ratio float64) TracerOption {
	return func(o *TracerOptions) {
		o.sampleRatio = ratio
	}
}

func newExporter(log logger.LoggerInterface, opts *TracerOptions) (sdktrace.SpanExporter, error) {
	switch opts.provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinProvider:
		return zipkin.New(opts.endpoint)
	case NewRelicProvider:
		return otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(opts.endpoint),
			otlptracegrpc.WithHeaders(map[string]string{"api-key": os.Getenv("OTEL_EXPORTER_OTLP_HEADERS_KEY")}),
		)
	case HoneycombProvider:
		return newHoneycombExporter(log, opts.endpoint)
	default:
		return nil, nil
	}
}

func newHoneycombExporter(log logger.LoggerInterface, url string) (sdktrace.SpanExporter, error) {
	headerKeyValue := strings.SplitN(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"), "=", 2)
	if len(headerKeyValue) != 2 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("OTEL_EXPORTER_OTLP_HEADERS must be key=value"))
	}
	headers := map[string]string{headerKeyValue[0]: headerKeyValue[1]}

	if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "http/protobuf" {
		log.Info(context.Background(), "initializing honeycomb exporter", "protocol", "http", "endpoint", url)
		return otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpointURL(url),
			otlptracehttp.WithHeaders(headers),
		)
	}

	log.Info(context.Background(), "initializing honeycomb exporter", "protocol", "grpc", "endpoint", url)
	return otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpointURL(url),
		otlptracegrpc.WithHeaders(headers),
	)
}

// NewTraceProvider installs the global tracer provider and propagator.
// EmptyProvider leaves the otel no-op provider in place.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) (TraceProvider, error) {
	opts := &TracerOptions{
		provider:    EmptyProvider,
		serviceName: os.Getenv("OTEL_SERVICE_NAME"),
		endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	for _, opt := range options {
		opt(opts)
	}

	if opts.provider == EmptyProvider {
		return emptyTraceProvider{}, nil
	}

	exp, err := newExporter(log, opts)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext(string(opts.provider)))
	}
	if exp == nil {
		log.Warn(context.Background(), "unknown trace provider, tracing disabled", "provider", opts.provider)
		return emptyTraceProvider{}, nil
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.provider", string(opts.provider)),
		))

	sampler := sdktrace.AlwaysSample()
	if opts.sampleRatio > 0 && opts.sampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.sampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
