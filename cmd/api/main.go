// Package main provides the entrypoint for the Sky Forecaster API server.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/api"
	"github.com/skyforecaster/skyforecaster/internal/api/handler"
	"github.com/skyforecaster/skyforecaster/internal/api/middleware"
	"github.com/skyforecaster/skyforecaster/internal/auth"
	"github.com/skyforecaster/skyforecaster/internal/database"
	"github.com/skyforecaster/skyforecaster/internal/forecast"
	"github.com/skyforecaster/skyforecaster/internal/geocoding"
	"github.com/skyforecaster/skyforecaster/internal/geocoding/nominatim"
	"github.com/skyforecaster/skyforecaster/internal/history"
	"github.com/skyforecaster/skyforecaster/internal/observations"
	"github.com/skyforecaster/skyforecaster/internal/observations/openaq"
	"github.com/skyforecaster/skyforecaster/internal/observations/openweathermap"
	"github.com/skyforecaster/skyforecaster/internal/provider/resilience"
	"github.com/skyforecaster/skyforecaster/internal/telemetry"
	"github.com/skyforecaster/skyforecaster/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skyforecaster-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Sky Forecaster API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	readiness := map[string]handler.ReadinessCheckFunc{}

	// History storage: Postgres by default, in-memory when disabled
	var historyRepo history.Repository
	if os.Getenv("HISTORY_STORE") == "memory" {
		historyRepo = history.NewMemoryRepository()
		log.Info().Msg("using in-memory history store")
	} else {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		historyRepo = history.NewPostgresRepository(pool)
		readiness["database"] = func(ctx context.Context) error {
			return pool.Ping(ctx)
		}
	}

	historyService := history.NewService(history.ServiceConfig{
		Repository: historyRepo,
		Logger:     log,
	})
	log.Info().Msg("history service initialized")

	// Observation providers, tried in order. The synthetic provider is the
	// last resort so the service keeps answering without upstream access.
	registry := resilience.NewRegistry()
	var providers []observations.Provider

	if apiKey := os.Getenv("OPENAQ_API_KEY"); apiKey != "" {
		client := resilience.NewClient(resilience.DefaultClientConfig(openaq.ProviderName))
		registry.Register(openaq.ProviderName, client)
		providers = append(providers, openaq.NewClient(openaq.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: client,
			Logger:     log,
		}))
		log.Info().Msg("OpenAQ provider enabled")
	}

	if apiKey := os.Getenv("OPENWEATHERMAP_API_KEY"); apiKey != "" {
		client := resilience.NewClient(resilience.DefaultClientConfig(openweathermap.ProviderName))
		registry.Register(openweathermap.ProviderName, client)
		providers = append(providers, openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: client,
			Logger:     log,
		}))
		log.Info().Msg("OpenWeatherMap provider enabled")
	}

	if len(providers) == 0 {
		log.Warn().Msg("no upstream providers configured - serving synthetic data only")
	}
	providers = append(providers, observations.NewSyntheticProvider())

	observationService := observations.NewService(observations.ServiceConfig{
		Providers: providers,
		Logger:    log,
	})
	log.Info().Int("providers", len(providers)).Msg("observation service initialized")

	// Geocoding via Nominatim
	nominatimClient := resilience.NewClient(resilience.DefaultClientConfig(nominatim.ProviderName))
	registry.Register(nominatim.ProviderName, nominatimClient)
	geocodingService := geocoding.NewService(geocoding.ServiceConfig{
		Geocoder: nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:    os.Getenv("NOMINATIM_BASE_URL"),
			HTTPClient: nominatimClient,
			Logger:     log,
		}),
		Logger: log,
	})
	log.Info().Msg("geocoding service initialized")

	generator := forecast.NewGenerator(forecast.Config{})

	// Service tokens for the admin endpoints
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokenService := auth.NewTokenService(auth.TokenConfig{
		SigningKey: jwtSigningKey,
	})

	// The refresh trigger publishes a job for the worker when Pub/Sub is
	// configured; admin refresh returns 503 otherwise.
	var refresh handler.RefreshTrigger
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	topicName := os.Getenv("PUBSUB_TOPIC")
	if projectID != "" && topicName != "" {
		pubsubClient, psErr := pubsub.NewClient(ctx, projectID)
		if psErr != nil {
			log.Fatal().Err(psErr).Msg("failed to create pubsub client")
		}
		defer pubsubClient.Close()

		publisher := pubsubClient.Publisher(topicName)
		refresh = func(ctx context.Context, jobID string) error {
			data, marshalErr := json.Marshal(worker.RefreshMessage{
				JobType: worker.JobTypeLocationRefresh,
				JobID:   jobID,
			})
			if marshalErr != nil {
				return marshalErr
			}
			_, pubErr := publisher.Publish(ctx, &pubsub.Message{Data: data}).Get(ctx)
			return pubErr
		}
		log.Info().Str("topic", topicName).Msg("refresh publisher initialized")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Readings:    observationService,
		Resolver:    geocodingService,
		Trends:      historyService,
		Generator:   generator,
		Tokens:      tokenService,
		Caches: []handler.CacheInvalidator{
			observationService,
			geocodingService,
		},
		Refresh:   refresh,
		Providers: registry,
		Readiness: readiness,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
