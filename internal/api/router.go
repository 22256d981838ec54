// Package api provides the HTTP API for Sky Forecaster.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api/handler"
	"github.com/skyforecaster/skyforecaster/internal/api/middleware"
	"github.com/skyforecaster/skyforecaster/internal/auth"
	"github.com/skyforecaster/skyforecaster/internal/forecast"
	"github.com/skyforecaster/skyforecaster/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Readings serves current observations (required).
	Readings handler.ReadingProvider

	// Resolver resolves and searches locations (required).
	Resolver handler.LocationResolver

	// Trends derives forecast trends from history (optional).
	Trends handler.TrendProvider

	// Generator produces forecast series (required).
	Generator *forecast.Generator

	// Tokens validates admin service tokens (required for admin routes).
	Tokens *auth.TokenService

	// Caches are invalidated by POST /v1/admin/cache/invalidate.
	Caches []handler.CacheInvalidator

	// Refresh enqueues a full location refresh (optional).
	Refresh handler.RefreshTrigger

	// Providers exposes upstream provider health on /v1/ops/status.
	Providers *resilience.Registry

	// Readiness checks probed by /v1/ops/ready.
	Readiness map[string]handler.ReadinessCheckFunc
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skyforecaster-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers, cfg.Readiness)
	conditionsHandler := handler.NewConditionsHandler(cfg.Readings, cfg.Resolver, cfg.Logger)
	forecastHandler := handler.NewForecastHandler(cfg.Readings, cfg.Resolver, cfg.Trends, cfg.Generator, cfg.Logger)
	aqiHandler := handler.NewAQIHandler(cfg.Logger)
	locationHandler := handler.NewLocationHandler(cfg.Resolver, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.Caches, cfg.Refresh, cfg.Logger)

	// Admin routes require a service token with the admin scope.
	adminAuth := middleware.ServiceAuth(cfg.Tokens, auth.ScopeAdmin)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Current conditions - hits upstream providers, stricter limit
		r.With(expensiveRateLimit).Get("/conditions", conditionsHandler.GetConditions)

		// Forecast - expensive compute on top of a fetch
		r.With(expensiveRateLimit).Get("/forecast", forecastHandler.GetForecast)

		// Direct index calculation - pure compute
		r.With(standardRateLimit).Post("/aqi:calculate", aqiHandler.Calculate)

		// Location search
		r.With(standardRateLimit).Get("/locations/search", locationHandler.Search)

		// Admin endpoints (service token) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Use(standardRateLimit)
			r.Post("/cache/invalidate", adminHandler.InvalidateCaches)
			r.Post("/refresh", adminHandler.TriggerRefresh)
		})
	})

	return r
}
