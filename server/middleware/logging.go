package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/sttkit/logger"
)

// RequestLogger logs every request with method, path, status and duration,
// plus the error code of failed responses.
// Probe and scrape paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			out := captureOutcome(w)
			next.ServeHTTP(out, r)
			duration := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", out.Status(),
				"response_bytes", out.Size(),
				logger.FieldDuration, duration.Milliseconds(),
			)
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			if r.ContentLength > 0 {
				fields[logger.FieldBytes] = r.ContentLength
			}

			if code := out.ErrorCode(); code != "" {
				fields["error_code"] = code
			}

			logByStatus(log, fields, out.Status())
		})
	}
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/health", "/health/live", "/health/ready", "/metrics", "/info":
		return true
	}
	return strings.HasPrefix(path, "/health/")
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Info("Request completed", fields)
	}
}
