package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Gas Genie error codes
const (
	// Gas price source errors
	CodeGasFetchFailed           Code = "GAS_FETCH_FAILED"
	CodeGasSourceMalformed       Code = "GAS_SOURCE_MALFORMED"
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"

	// Recommendation errors
	CodeTrendUndefined Code = "TREND_UNDEFINED"

	// Language model errors
	CodeModelStreamFailed Code = "MODEL_STREAM_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
