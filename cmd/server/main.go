package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vedran77/glamplanner/internal/config"
	"github.com/vedran77/glamplanner/internal/database"
	"github.com/vedran77/glamplanner/internal/media"
	"github.com/vedran77/glamplanner/internal/repository"
	"github.com/vedran77/glamplanner/internal/repository/memory"
	mongorepo "github.com/vedran77/glamplanner/internal/repository/mongo"
	postgresrepo "github.com/vedran77/glamplanner/internal/repository/postgres"
	"github.com/vedran77/glamplanner/internal/service"
	"github.com/vedran77/glamplanner/internal/transport/http/middleware"
	"github.com/vedran77/glamplanner/internal/transport/http/router"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Database
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store connection failed")
	}
	defer store.Close()

	// Rate limiting
	window := time.Minute
	var limiter middleware.Limiter = middleware.NewLocalLimiter(cfg.RateLimitPerMinute, window)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, requests will not be rate limited until it recovers")
		} else {
			logger.Info().Msg("connected to Redis")
		}
		limiter = middleware.NewRedisLimiter(client, cfg.RateLimitPerMinute, window)
	}

	// Media
	var objects service.ObjectStore
	if cfg.MediaEnabled() {
		minioStore, err := media.NewMinioStore(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("s3 client setup failed")
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Msg("s3 bucket setup failed")
		}
		objects = minioStore
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("media uploads enabled")
	} else {
		logger.Warn().Msg("S3 not configured, uploads disabled")
	}

	// Services
	authService := service.NewAuthService(store.Users, service.AuthConfig{
		Secret:           cfg.JWTSecret,
		TokenTTL:         cfg.JWTTTL,
		AllowAdminSignup: cfg.AllowAdminSignup,
	})

	handler := router.New(router.Deps{
		Logger:      logger,
		Auth:        authService,
		Plans:       service.NewPlanService(store.Plans, store.Users),
		Gallery:     service.NewGalleryService(store.Gallery),
		Events:      service.NewEventService(store.Events),
		Media:       service.NewMediaService(objects, cfg.MediaFolder),
		Ping:        store.Ping,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.ServerPort).
			Str("env", cfg.Env).
			Str("driver", cfg.StoreDriver).
			Msg("starting server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := database.Connect(connectCtx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(connectCtx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Msg("connected to PostgreSQL")
		return postgresrepo.NewStore(pool), nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(connectCtx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureIndexes(connectCtx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDBName).Msg("connected to MongoDB")
		return mongorepo.NewStore(client, db), nil

	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	return nil, errors.New("unknown store driver " + cfg.StoreDriver)
}
