package middleware

import (
	"fmt"
	"net/http"

	"github.com/kbukum/framegraph/observability"
)

// Tracing opens an http.request span around each request, continuing a
// trace the caller propagated in its headers.
func Tracing() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := observability.ContextFromHeaders(r.Context(), r.Header)
			ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest)
			defer span.End()
			observability.SetSpanAttribute(ctx, "http.method", r.Method)
			observability.SetSpanAttribute(ctx, "http.path", r.URL.Path)
			if id := r.Header.Get(HeaderRequestID); id != "" {
				observability.SetSpanAttribute(ctx, observability.AttrRequestID, id)
			}

			rec := record(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			observability.SetSpanAttribute(ctx, observability.AttrStatus, rec.status)
			observability.SetSpanAttribute(ctx, "http.response_bytes", rec.bytes)
			if rec.status >= http.StatusInternalServerError {
				observability.SetSpanError(ctx, fmt.Errorf("status %d", rec.status))
			}
		})
	}
}
