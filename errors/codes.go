package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Audio errors, raised before any provider is attempted.
const (
	// ErrCodeConversionFailed indicates the transcoder or prober rejected the input.
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
	// ErrCodeAudioTooLong indicates the clip exceeds the configured duration limit.
	ErrCodeAudioTooLong ErrorCode = "AUDIO_TOO_LONG"
	// ErrCodeInvalidAudio indicates the clip is empty or otherwise unusable.
	ErrCodeInvalidAudio ErrorCode = "INVALID_AUDIO"
)

// Provider errors. These never reach callers directly; the orchestrator turns
// them into a failover step.
const (
	// ErrCodeProviderUnavailable indicates a probe failed or timed out.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeProviderTimeout indicates a transcription exceeded its deadline.
	ErrCodeProviderTimeout ErrorCode = "PROVIDER_TIMEOUT"
	// ErrCodeProviderProtocol indicates a malformed or empty response, or an
	// unexpected socket closure.
	ErrCodeProviderProtocol ErrorCode = "PROVIDER_PROTOCOL"
	// ErrCodeAllProvidersFailed is the terminal failover error.
	ErrCodeAllProvidersFailed ErrorCode = "ALL_PROVIDERS_FAILED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable:  true,
	ErrCodeConnectionFailed:    true,
	ErrCodeTimeout:             true,
	ErrCodeProviderUnavailable: true,
	ErrCodeProviderTimeout:     true,
	ErrCodeAllProvidersFailed:  true,
	ErrCodeInternal:            false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
