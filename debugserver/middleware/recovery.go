package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/logger"
)

// Recovery turns a handler panic into a 500 with an INTERNAL_ERROR body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					log.Error("panic recovered", map[string]interface{}{
						logger.FieldError: fmt.Sprintf("%v", v),
						"stack":           string(debug.Stack()),
						logger.FieldPath:  r.URL.Path,
						"method":          r.Method,
					})
					writeError(w, errors.Internal(fmt.Errorf("panic: %v", v)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
