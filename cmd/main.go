package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/duynhne/mflix-service/config"
	database "github.com/duynhne/mflix-service/internal/core"
	"github.com/duynhne/mflix-service/internal/core/cache"
	"github.com/duynhne/mflix-service/internal/core/domain"
	"github.com/duynhne/mflix-service/internal/core/repository"
	v1 "github.com/duynhne/mflix-service/internal/logic/v1"
	"github.com/duynhne/mflix-service/middleware"
	"github.com/duynhne/pkg/logger/zerolog"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	zerolog.Setup(cfg.Logging.Level)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().Str("endpoint", cfg.Profiling.Endpoint).Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	client, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	db := client.Database(cfg.Mongo.Database)
	log.Info().Str("database", cfg.Mongo.Database).Msg("MongoDB connection established")

	if err := repository.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	// The critic cache lives in Redis shared with the request-layer processes;
	// this binary keeps it warm.
	var critics *cache.CriticCache
	if cfg.Cache.Enabled {
		rdb, err := cache.NewRedisClient(context.Background(), cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, critic cache disabled")
		} else {
			defer rdb.Close()
			critics = cache.NewCriticCache(repository.NewCommentRepository(db), rdb,
				cache.WithTTL(cfg.GetCacheTTLDuration()),
				cache.WithPrefix(cfg.Cache.Prefix),
			)
			log.Info().Dur("ttl", cfg.GetCacheTTLDuration()).Msg("Critic cache enabled")
		}
	}

	users := v1.NewUserService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		repository.NewTransactor(client, cfg.Mongo.Transactions),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if interval := cfg.GetRepairIntervalDuration(); interval > 0 {
		go runMaintenance(ctx, interval, users, critics)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started or the primary is unreachable.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(pingCtx, client); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting ops server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	isShuttingDown.Store(true)
	if drainDelay := cfg.GetReadinessDrainDelayDuration(); drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Disconnect MongoDB
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect error")
	} else {
		log.Info().Msg("MongoDB disconnected")
	}

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}

// runMaintenance repairs interrupted user-delete cascades and, when the
// critic cache is enabled, refreshes the default leaderboard on every tick.
func runMaintenance(ctx context.Context, interval time.Duration, users *v1.UserService, critics *cache.CriticCache) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := users.RepairOrphanedSessions(ctx); err != nil {
			log.Error().Err(err).Msg("Orphaned session repair failed")
		}

		if critics != nil {
			if err := critics.Refresh(ctx, domain.DefaultCriticLimit); err != nil {
				log.Warn().Err(err).Msg("Critic leaderboard refresh failed")
			}
		}
	}
}
