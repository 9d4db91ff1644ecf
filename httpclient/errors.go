package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode classifies a failed call.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	ErrCodeConnection
	ErrCodeAuth
	ErrCodeNotFound
	ErrCodeRateLimit
	ErrCodeValidation
	ErrCodeServer
	// ErrCodeDecode means the response body was not what the caller expected.
	ErrCodeDecode
	// ErrCodeUnavailable means the breaker or bulkhead refused the call.
	ErrCodeUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	case ErrCodeDecode:
		return "decode"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// maxBodyInMessage bounds how much of an error body ends up in Error().
const maxBodyInMessage = 512

// Error is a classified client failure. Retryable is informational; the
// client never retries.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

func NewDecodeError(err error, body []byte) *Error {
	return &Error{Code: ErrCodeDecode, Message: err.Error(), Body: body, Err: err}
}

func NewUnavailableError(err error) *Error {
	return &Error{Code: ErrCodeUnavailable, Message: err.Error(), Retryable: true, Err: err}
}

// ClassifyStatusCode returns nil for 2xx.
func ClassifyStatusCode(status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	e := &Error{StatusCode: status, Body: body, Message: statusMessage(status, body)}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case status == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case status >= 400 && status < 500:
		e.Code = ErrCodeValidation
	case status >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeServer
	}
	return e
}

func statusMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodyInMessage {
		text = text[:maxBodyInMessage] + "..."
	}
	if text == "" {
		return http.StatusText(status)
	}
	return text
}

func codeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

func is(err error, code ErrorCode) bool {
	c, ok := codeOf(err)
	return ok && c == code
}

func IsTimeout(err error) bool     { return is(err, ErrCodeTimeout) }
func IsConnection(err error) bool  { return is(err, ErrCodeConnection) }
func IsAuth(err error) bool        { return is(err, ErrCodeAuth) }
func IsNotFound(err error) bool    { return is(err, ErrCodeNotFound) }
func IsRateLimit(err error) bool   { return is(err, ErrCodeRateLimit) }
func IsServerError(err error) bool { return is(err, ErrCodeServer) }
func IsDecode(err error) bool      { return is(err, ErrCodeDecode) }

// IsRetryable reports the Retryable flag of a classified error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
