package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/util"
)

const defaultMaxBodySize = 1 << 30 // 1GB

// BodySizeLimit caps request bodies at maxSize, e.g. "512MB" or "1GB".
// Unparseable values fall back to 1GB.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, apperrors.PayloadTooLarge(size))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
