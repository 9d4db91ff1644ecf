package errors

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Availability
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Input
const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField    ErrorCode = "MISSING_FIELD"
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Server side
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeStorage         ErrorCode = "STORAGE_ERROR"

	// ErrCodeTranscriptionFailed covers every failure of the transcription
	// pipeline after the upload was accepted.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	// ErrCodeProviderUnavailable is returned when the selected speech-to-text
	// backend is not configured or its breaker is open.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
)

// Retryable marks codes a client may reasonably retry. Nothing in this
// service retries on its own.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable:  true,
	ErrCodeConnectionFailed:    true,
	ErrCodeTimeout:             true,
	ErrCodeRateLimited:         true,
	ErrCodeExternalService:     true,
	ErrCodeProviderUnavailable: true,
}

// IsRetryableCode reports whether code is retryable.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
