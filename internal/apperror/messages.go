package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeInvalidPrice:        "Price must be greater than zero",
	CodeMissingProductName:  "Product name is required",
	CodeInvalidCandidate:    "Candidate could not be evaluated",
	CodeInvalidTrendProfile: "Trend profile is invalid",
	CodeInvalidRiskWeights:  "Risk factor weights must sum to 1",
	CodeInvalidFeeSchedule:  "Fee schedule is invalid",
	CodeCatalogLoadFailed:   "Failed to load keyword catalog",
	CodeEvaluationCancelled: "Evaluation cancelled",

	CodeTrendFetchFailed: "Failed to fetch trend data",
	CodeTrendFeedError:   "Trend feed connection error",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeCacheMiss:        "Cache miss",
	CodeCacheUnavailable: "Cache backend unavailable",

	CodeCircuitOpen: "Circuit breaker is open",

	CodePublishFailed:  "Failed to publish opportunities",
	CodeNotifierFailed: "Failed to deliver notifications",
}
