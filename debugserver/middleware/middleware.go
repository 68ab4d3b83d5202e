// Package middleware holds the net/http middleware of the debug surface.
// It wraps the whole handler, so it also covers routes mounted outside gin.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/kbukum/framegraph/errors"
)

// Middleware wraps an http.Handler with additional behavior.
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

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

func writeError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
