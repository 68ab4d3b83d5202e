package middleware

import (
	"net/http"

	"github.com/kbukum/framegraph/util"
)

const defaultMaxBodySize = 1 << 20

// BodySizeLimit caps request bodies at a size like "64KB" or "1MB". An
// unparsable size falls back to 1MB.
func BodySizeLimit(maxSize string) Middleware {
	size, err := util.ParseSize(maxSize)
	if err != nil {
		size = defaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
