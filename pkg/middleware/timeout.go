// Package middleware wraps the handlers served next to /metrics.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Timeout bounds the request context to timeout. Handlers that probe
// backends (Redis, PostgreSQL) give up when the deadline passes instead of
// holding the scrape open.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
			if ctx.Err() == context.DeadlineExceeded {
				slog.Warn("request exceeded deadline", "method", r.Method, "path", r.URL.Path, "timeout", timeout)
			}
		})
	}
}
