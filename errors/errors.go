package errors

import (
	"fmt"
	"net/http"
)

// AppError is the error type returned across package boundaries.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithDetail sets one detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Status returns the HTTP status, defaulting to 500.
func (e *AppError) Status() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// New creates an AppError; Retryable follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Wrap creates an AppError with a cause.
func Wrap(cause error, code ErrorCode, message string, httpStatus int) *AppError {
	return New(code, message, httpStatus).WithCause(cause)
}

func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		http.StatusServiceUnavailable).WithDetail("service", service)
}

func ConnectionFailed(service string) *AppError {
	return New(ErrCodeConnectionFailed,
		fmt.Sprintf("Unable to connect to %s.", service),
		http.StatusServiceUnavailable).WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The request took too long.", http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.",
		http.StatusTooManyRequests)
}

// NotFound omits the id detail when id is empty.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation is an INVALID_INPUT error with a free-form message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field), http.StatusBadRequest).
		WithDetail("field", field)
}

func PayloadTooLarge(limit int64) *AppError {
	return New(ErrCodePayloadTooLarge, "Request body too large.", http.StatusRequestEntityTooLarge).
		WithDetail("limit_bytes", limit)
}

func Internal(cause error) *AppError {
	return Wrap(cause, ErrCodeInternal, "An unexpected error occurred.", http.StatusInternalServerError)
}

func ExternalServiceError(service string, cause error) *AppError {
	return Wrap(cause, ErrCodeExternalService,
		fmt.Sprintf("The %s service encountered an error.", service),
		http.StatusBadGateway).WithDetail("service", service)
}

func StorageError(op string, cause error) *AppError {
	return Wrap(cause, ErrCodeStorage, fmt.Sprintf("Storage %s failed.", op), http.StatusInternalServerError).
		WithDetail("operation", op)
}

// TranscriptionFailed wraps any pipeline failure. The message carries the
// cause text so clients see what went wrong upstream.
func TranscriptionFailed(cause error) *AppError {
	msg := "Transcription failed"
	if cause != nil {
		msg = "Transcription failed: " + cause.Error()
	}
	return Wrap(cause, ErrCodeTranscriptionFailed, msg, http.StatusInternalServerError)
}

func ProviderUnavailable(provider string) *AppError {
	return New(ErrCodeProviderUnavailable,
		fmt.Sprintf("Transcription provider %q is not available.", provider),
		http.StatusServiceUnavailable).WithDetail("provider", provider)
}
