package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/sttkit/observability"
)

// Tracing wraps each request in an observability.Request on the http
// surface. Handlers reach it through observability.RequestFromContext to
// record the clip. metrics may be nil.
func Tracing(metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, req := observability.StartRequest(r.Context(), metrics,
				observability.SurfaceHTTP, r.Method+" "+r.URL.Path, r.Header.Get(HeaderRequestID))

			out := captureOutcome(w)
			next.ServeHTTP(out, r.WithContext(ctx))

			observability.Annotate(ctx, attribute.Int("http.status_code", out.Status()))
			if code := out.ErrorCode(); code != "" {
				observability.Annotate(ctx, attribute.String(observability.AttrErrorCode, code))
			}
			status := observability.StatusOK
			if out.Status() >= http.StatusInternalServerError {
				status = observability.StatusError
			}
			req.End(ctx, status, nil)
		})
	}
}
