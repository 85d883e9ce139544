package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AllProvidersFailedMessage is the message of the terminal failover error.
const AllProvidersFailedMessage = "All STT providers failed or unavailable"

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s. Please verify the service is running.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// --- Audio ---

// ConversionFailed reports a transcoder or prober failure. The diagnostic is
// the tool's own stderr output and is kept verbatim in the details.
func ConversionFailed(op, diagnostic string) *AppError {
	return &AppError{
		Code: ErrCodeConversionFailed, Message: fmt.Sprintf("Audio %s failed.", op),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"operation": op, "diagnostic": diagnostic},
	}
}

// AudioTooLong reports a clip whose duration exceeds the configured maximum.
// A zero duration means the size pre-check rejected the clip before probing.
func AudioTooLong(duration, limit time.Duration) *AppError {
	details := map[string]any{"max_duration_ms": limit.Milliseconds()}
	if duration > 0 {
		details["duration_ms"] = duration.Milliseconds()
	}
	return &AppError{
		Code: ErrCodeAudioTooLong, Message: fmt.Sprintf("Audio exceeds the maximum duration of %s.", limit),
		HTTPStatus: http.StatusRequestEntityTooLarge, Retryable: false,
		Details: details,
	}
}

// InvalidAudio reports an empty or unusable clip.
func InvalidAudio(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidAudio, Message: reason,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// --- Providers ---

// ProviderUnavailable reports a failed or timed-out availability probe.
func ProviderUnavailable(name string) *AppError {
	return &AppError{
		Code: ErrCodeProviderUnavailable, Message: fmt.Sprintf("Provider %s is unavailable.", name),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"provider": name},
	}
}

// ProviderTimeout reports a transcription that did not settle before its deadline.
func ProviderTimeout(name string, after time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeProviderTimeout, Message: fmt.Sprintf("Provider %s timed out after %s.", name, after),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"provider": name, "timeout_ms": after.Milliseconds()},
	}
}

// ProviderProtocol reports a malformed response or an unexpected closure.
func ProviderProtocol(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeProviderProtocol, Message: reason,
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"provider": name},
	}
}

// AllProvidersFailed is the single terminal error raised once every
// configured provider has failed or was unavailable.
func AllProvidersFailed() *AppError {
	return &AppError{
		Code: ErrCodeAllProvidersFailed, Message: AllProvidersFailedMessage,
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
	}
}
