package middleware

import (
	"net"
	"net/http"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/resilience"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*http.Request) string

// RateLimit rejects requests with 429 once key has used up its window in
// limiter. A nil limiter disables the check.
func RateLimit(limiter *resilience.WindowLimiter, key KeyFunc) Middleware {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(key(r)) {
				writeError(w, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are not
// trusted.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
