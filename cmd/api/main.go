package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/thihaagset01/midwhereah/internal/adapters/foursquare"
	"github.com/thihaagset01/midwhereah/internal/adapters/googlemaps"
	"github.com/thihaagset01/midwhereah/internal/adapters/http"
	"github.com/thihaagset01/midwhereah/internal/adapters/memory"
	natsadapter "github.com/thihaagset01/midwhereah/internal/adapters/nats"
	"github.com/thihaagset01/midwhereah/internal/adapters/valkey"
	"github.com/thihaagset01/midwhereah/internal/core/ports"
	"github.com/thihaagset01/midwhereah/internal/core/usecases"
	"github.com/thihaagset01/midwhereah/internal/pkg/config"
	"github.com/thihaagset01/midwhereah/internal/pkg/logging"
	"github.com/thihaagset01/midwhereah/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("midwhereah-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("midwhereah-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Cache: valkey when configured, in-process otherwise
	var cache ports.CacheService
	var cachePing func(ctx context.Context) error
	if cfg.Valkey.Addr != "" {
		vk, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, using in-memory cache", "error", err)
		} else {
			defer vk.Close()
			cache = vk
			cachePing = vk.Ping
		}
	}
	if cache == nil {
		mem := memory.New()
		mem.StartSweep(ctx, time.Duration(cfg.Optimizer.CacheSweepSeconds)*time.Second)
		cache = mem
	}

	// Travel time oracle: degrade to haversine estimates without a key
	var oracle ports.TravelTimeOracle
	if cfg.Google.APIKey != "" {
		oracle = googlemaps.New(cfg.Google.APIKey)
	} else {
		slog.Warn("no google api key configured, serving estimates only")
	}

	// Venue discovery
	var venues ports.VenueDiscovery
	if cfg.Foursquare.APIKey != "" {
		venues = foursquare.New(cfg.Foursquare.APIKey)
	} else {
		slog.Warn("no foursquare api key configured, results carry no venues")
	}

	// NATS
	var events ports.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}

		// Separate connection for the WebSocket relay
		conn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			natsConn = conn
		}
	}

	// Services
	throttler := usecases.NewThrottler(cfg.Optimizer.OracleRatePerSecond)
	defer throttler.Close()

	travelSvc := usecases.NewTravelTimeService(oracle, cache, throttler,
		time.Duration(cfg.Optimizer.CacheTTLSeconds)*time.Second)
	candidateSvc := usecases.NewCandidateService(cfg.Optimizer.Hubs(), cfg.Optimizer.HubRadiusKm)
	optimizerSvc := usecases.NewOptimizerService(candidateSvc, travelSvc, venues, events, usecases.OptimizerConfig{
		MaxTimeMinutes:     cfg.Optimizer.MaxTimeMinutes,
		MaxRangeMinutes:    cfg.Optimizer.MaxRangeMinutes,
		ClusterThresholdKm: cfg.Optimizer.ClusterThresholdKm,
		VenueRadiusMeters:  cfg.Optimizer.VenueRadiusMeters,
		VenueCategories:    cfg.Optimizer.VenueCategories,
		VenueLimit:         cfg.Optimizer.VenueLimit,
		TopCandidates:      cfg.Optimizer.TopCandidates,
	})

	deps := &http.Dependencies{
		Optimizer:        optimizerSvc,
		Hubs:             cfg.Optimizer.Hubs(),
		NATS:             natsConn,
		Cache:            cache,
		CachePing:        cachePing,
		OracleConfigured: oracle != nil,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "MidWhereAh API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.midwhereah.sg",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
