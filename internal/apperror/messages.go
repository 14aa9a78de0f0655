package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Gas price source errors
	CodeGasFetchFailed:           "Failed to fetch gas prices",
	CodeGasSourceMalformed:       "Gas price source returned an invalid payload",
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",

	// Recommendation errors
	CodeTrendUndefined: "Price trend is undefined for the current history",

	// Language model errors
	CodeModelStreamFailed: "Language model stream failed",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
