// Package apperror defines the coded error type shared by every layer, with
// the HTTP status and response body each code maps to.
package apperror

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// StatusClientClosedRequest is reported when the caller went away mid-evaluation.
const StatusClientClosedRequest = 499

// AppError carries a Code plus the detail needed to log it and render it.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	// Context names the input or collaborator involved, e.g. "keyword".
	Context string
	TraceID string
	cause   error
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Context)
		sb.WriteString("]")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any *AppError with the same Code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// LogValue renders the error as a group when passed to a slog logger.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
		slog.Int("status", e.StatusCode),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Option configures an AppError built by New.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New builds an error for code. Message and StatusCode default from the code.
func New(code Code, opts ...Option) *AppError {
	e := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: statusFor(code),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Message == "" {
		e.Message = strings.ToLower(strings.ReplaceAll(string(code), "_", " "))
	}
	return e
}

// Validation builds a 400 for a bad field.
func Validation(code Code, field string) *AppError {
	return New(code, WithContext(field), WithStatusCode(http.StatusBadRequest))
}

// GetCode returns the Code of the first AppError in err's chain, or
// CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// IsInvalidInput reports whether err is a caller-side validation failure.
func IsInvalidInput(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.StatusCode == http.StatusBadRequest
}

// Body is the error object of a Response.
type Body struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// Response is the JSON shape of every API error.
type Response struct {
	Error Body `json:"error"`
}

// ToResponse renders e without its cause.
func (e *AppError) ToResponse() Response {
	return Response{Error: Body{
		Code:    e.Code,
		Message: e.Message,
		Context: e.Context,
		TraceID: e.TraceID,
	}}
}

// HTTPResponse maps any error to a status and body. The trace id of the
// span in ctx is attached when the error does not already carry one.
// Errors outside this package are reported as 500 with their text.
func HTTPResponse(ctx context.Context, err error) (int, Response) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = New(CodeUnknownError, WithMessage(err.Error()))
	}

	resp := appErr.ToResponse()
	if resp.Error.TraceID == "" {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			resp.Error.TraceID = sc.TraceID().String()
		}
	}
	return appErr.StatusCode, resp
}

var statusByCode = map[Code]int{
	CodeRequiredField:       http.StatusBadRequest,
	CodeValidationError:     http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeRateLimitExceeded:   http.StatusTooManyRequests,
	CodeServiceTimeout:      http.StatusServiceUnavailable,
	CodeServiceUnavailable:  http.StatusServiceUnavailable,
	CodeCircuitOpen:         http.StatusBadGateway,
	CodeTrendFetchFailed:    http.StatusBadGateway,
	CodeEvaluationCancelled: StatusClientClosedRequest,
}

// statusFor looks the code up, then falls back on its naming family:
// INVALID_* is a 400 and *_CONNECTION_ERROR a 503.
func statusFor(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch c := string(code); {
	case strings.HasPrefix(c, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(c, "_CONNECTION_ERROR"):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
