package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/foodtruckfinder/internal/adapters/cache"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/events"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/providers/dataset"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/providers/geolocation"
	"github.com/zatekoja/foodtruckfinder/internal/api/handlers"
	"github.com/zatekoja/foodtruckfinder/internal/api/middleware"
	"github.com/zatekoja/foodtruckfinder/internal/api/routes"
	"github.com/zatekoja/foodtruckfinder/internal/application/services"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/clients/redis"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/observability"
	"github.com/zatekoja/foodtruckfinder/pkg/config"
)

// geocoder is what the HTTP layer needs from a geolocation backend
type geocoder interface {
	providers.GeolocationProvider
	providers.AddressSuggester
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis backs the cache and the event bus; without it both stay in process
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-process cache and event bus")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewMemoryEventBus()
	}

	var geo geocoder
	switch cfg.Geolocation.Provider {
	case "google":
		google := geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, cacheProvider)
		google.SetLocale(cfg.Geolocation.Language, cfg.Geolocation.Region)
		google.SetMetrics(metrics)
		geo = google
	default:
		geo = geolocation.NewMockGeolocationProvider()
	}
	log.Info().Str("provider", cfg.Geolocation.Provider).Msg("geolocation provider initialized")

	var vendors providers.VendorDataset
	switch cfg.Dataset.Provider {
	case "static":
		vendors = dataset.NewStaticDataset(dataset.SampleRecords(time.Now()))
	default:
		socrata := dataset.NewSocrataDatasetWithClient(
			cfg.Dataset.BaseURL,
			cfg.Dataset.DatasetID,
			cfg.Dataset.AppToken,
			cacheProvider,
			cfg.Dataset.CacheTTL,
			&http.Client{Timeout: cfg.Dataset.Timeout},
		)
		socrata.SetMetrics(metrics)
		vendors = socrata
	}
	log.Info().Str("provider", cfg.Dataset.Provider).Str("dataset", cfg.Dataset.DatasetID).Msg("dataset provider initialized")

	sessions := services.NewSessionRegistry(geo, vendors, func(sessionID string) providers.MapSurface {
		return events.NewEventBusMapSurface(eventBus, sessionID)
	}, cfg.Sessions.MaxSessions, cfg.Sessions.IdleTTL)
	sessions.SetMetrics(metrics)
	// streams of dropped sessions are closed
	sessions.OnEvict(func(sessionID string) {
		if err := eventBus.Unsubscribe(context.Background(), providers.GetSessionChannel(sessionID)); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to close session stream")
		}
	})

	var mapsHandler *handlers.MapsHandler
	if cfg.Geolocation.Provider == "google" {
		mapsHandler = handlers.NewMapsHandler(cfg.Geolocation.APIKey, sessions, cacheProvider)
	}

	router := routes.NewRouter(
		handlers.NewSearchHandler(sessions),
		handlers.NewSSEHandler(eventBus, sessions),
		handlers.NewGeolocationHandler(geo, geo),
		mapsHandler,
		middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		middleware.NewCacheMiddleware(cacheProvider, metrics),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // map command streams stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	// streams end first so Shutdown does not wait on them
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
