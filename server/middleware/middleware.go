package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/scribe/errors"
)

// Middleware wraps an http.Handler. The whole stack runs at the server
// handler level, ahead of the ServeMux, so it covers Gin routes and any
// handler mounted beside them.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first in the list is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
