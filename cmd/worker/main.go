// Package main provides the entrypoint for the Sky Forecaster worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyforecaster/skyforecaster/internal/database"
	"github.com/skyforecaster/skyforecaster/internal/history"
	"github.com/skyforecaster/skyforecaster/internal/observations"
	"github.com/skyforecaster/skyforecaster/internal/observations/openaq"
	"github.com/skyforecaster/skyforecaster/internal/observations/openweathermap"
	"github.com/skyforecaster/skyforecaster/internal/provider/resilience"
	"github.com/skyforecaster/skyforecaster/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skyforecaster-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Sky Forecaster worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// History storage: Postgres by default, in-memory when disabled
	var historyRepo history.Repository
	if os.Getenv("HISTORY_STORE") == "memory" {
		historyRepo = history.NewMemoryRepository()
		log.Info().Msg("using in-memory history store")
	} else {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("database connected")

		historyRepo = history.NewPostgresRepository(pool)
	}

	historyService := history.NewService(history.ServiceConfig{
		Repository: historyRepo,
		Logger:     log,
	})

	// Observation providers, same order as the API
	var providers []observations.Provider

	if apiKey := os.Getenv("OPENAQ_API_KEY"); apiKey != "" {
		providers = append(providers, openaq.NewClient(openaq.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: resilience.NewClient(resilience.DefaultClientConfig(openaq.ProviderName)),
			Logger:     log,
		}))
	}
	if apiKey := os.Getenv("OPENWEATHERMAP_API_KEY"); apiKey != "" {
		providers = append(providers, openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: resilience.NewClient(resilience.DefaultClientConfig(openweathermap.ProviderName)),
			Logger:     log,
		}))
	}
	providers = append(providers, observations.NewSyntheticProvider())

	observationService := observations.NewService(observations.ServiceConfig{
		Providers: providers,
		Logger:    log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:       worker.DefaultRefreshConfig(),
		Logger:       log,
		Observations: observationService,
		History:      historyService,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Pub/Sub driven when configured, otherwise a periodic refresh loop
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler error")
			}
		}()
		log.Info().Str("subscription", subscription).Msg("worker consuming pubsub jobs")
	} else {
		interval := 30 * time.Minute
		if raw := os.Getenv("REFRESH_INTERVAL_MINUTES"); raw != "" {
			if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
				interval = time.Duration(minutes) * time.Minute
			}
		}

		go func() {
			log.Info().Dur("interval", interval).Msg("worker running periodic refresh")
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			refreshJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refreshJob.Run(ctx)
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
