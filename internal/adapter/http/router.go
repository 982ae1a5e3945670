// Package http exposes the booking use cases as a Huma REST API on a chi
// router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	ServiceName string
	Version     string
	Logger      *slog.Logger
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter builds the chi router with tracing, request ids, panic recovery,
// identity headers, the Huma API and the metrics endpoint.
func NewRouter(cfg RouterConfig, svc Services) chi.Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(RequestLogger(cfg.Logger))
	router.Use(middleware.Recoverer)
	router.Use(Identity)

	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	api := humachi.New(router, huma.DefaultConfig(cfg.ServiceName, cfg.Version))
	Register(api, svc)

	return router
}
