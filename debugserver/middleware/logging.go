package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/framegraph/logger"
)

// RequestLogger logs every request except health probes, at a level
// chosen by the response status.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			fields := logger.MergeWithDuration(map[string]interface{}{
				"method":           r.Method,
				logger.FieldPath:   r.URL.Path,
				logger.FieldStatus: rec.status,
				"bytes":            rec.bytes,
			}, time.Since(start))
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			msg := "request completed"
			if rec.flushed {
				msg = "stream closed"
			}
			logByStatus(log, msg, fields, rec.status)
		})
	}
}

func logByStatus(log *logger.Logger, msg string, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error(msg, fields)
	case status >= 400:
		log.Warn(msg, fields)
	default:
		log.Debug(msg, fields)
	}
}
