package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kbukum/framegraph/errors"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator func(token string) (any, error)

type claimsKey struct{}

// Auth requires a valid bearer token on every path not starting with one
// of skipPaths. The validated claims are stored on the request context.
func Auth(validate TokenValidator, skipPaths ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, errors.Unauthorized("Authorization header required."))
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || scheme != "Bearer" || token == "" {
				writeError(w, errors.Unauthorized("Invalid authorization header format."))
				return
			}
			claims, err := validate(token)
			if err != nil {
				writeError(w, errors.Unauthorized("Invalid token.").WithCause(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(ctx context.Context) (any, bool) {
	c := ctx.Value(claimsKey{})
	return c, c != nil
}
