package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/neomorfeo/bookflow/internal/domain"
)

const (
	TenantHeader = "X-Tenant-ID"
	UserHeader   = "X-User-ID"
)

// Identity lifts the tenant and user headers into the request context.
// Missing headers are left for the use cases to reject.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if tenant := r.Header.Get(TenantHeader); tenant != "" {
			ctx = domain.WithTenant(ctx, domain.TenantID(tenant))
		}
		if user := r.Header.Get(UserHeader); user != "" {
			ctx = domain.WithUser(ctx, domain.UserID(user))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request through slog.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
