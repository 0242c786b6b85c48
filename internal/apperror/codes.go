package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Analysis and setup errors.
const (
	CodeInvalidPrice        Code = "INVALID_PRICE"
	CodeMissingProductName  Code = "INVALID_PRODUCT_NAME"
	CodeInvalidCandidate    Code = "INVALID_CANDIDATE"
	CodeInvalidTrendProfile Code = "INVALID_TREND_PROFILE"
	CodeInvalidRiskWeights  Code = "INVALID_RISK_WEIGHTS"
	CodeInvalidFeeSchedule  Code = "INVALID_FEE_SCHEDULE"
	CodeCatalogLoadFailed   Code = "CATALOG_LOAD_FAILED"
	CodeEvaluationCancelled Code = "EVALUATION_CANCELLED"
)

// Collaborator errors (trend sources, transport, fan-out).
const (
	CodeTrendFetchFailed Code = "TREND_FETCH_FAILED"
	CodeTrendFeedError   Code = "TREND_FEED_CONNECTION_ERROR"

	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	CodeCacheMiss        Code = "CACHE_MISS"
	CodeCacheUnavailable Code = "CACHE_CONNECTION_ERROR"

	CodeCircuitOpen Code = "CIRCUIT_OPEN"

	CodePublishFailed  Code = "PUBLISH_FAILED"
	CodeNotifierFailed Code = "NOTIFIER_FAILED"
)
