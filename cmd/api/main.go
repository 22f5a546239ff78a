/**
 * @description
 * Entry point of the Stackvest HTTP API. It wires Postgres, Redis, the outbox dispatcher
 * and the router, then serves until SIGINT/SIGTERM.
 */
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stackvest/backend/internal/api"
	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/config"
	"github.com/stackvest/backend/internal/store"
	"github.com/stackvest/backend/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := store.NewPool(ctx, cfg.DatabaseURL, 20)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	repository := store.NewPostgresRepository(dbpool, cfg.EventsExchange)
	tokens := app.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	service := app.NewService(repository, tokens, app.SettingsFromConfig(cfg), logger)

	var counter app.WindowCounter
	if redisClient := connectRedis(cfg.RedisURL, logger); redisClient != nil {
		defer redisClient.Close()
		counter = app.NewRedisWindowCounter(redisClient, cfg.RedisKeyPrefix)
		service.SetSweepLocker(app.NewRedisSweepLock(redisClient, cfg.RedisKeyPrefix))
	}
	limiter := app.NewRateLimiter(counter, logger)

	if cfg.RabbitMQURL == "" {
		logger.Warn("RABBITMQ_URL not set; events stay in the outbox until a dispatcher runs")
	} else {
		logger.Info("starting outbox dispatcher", "rabbitmq_url", rabbitmq.MaskURL(cfg.RabbitMQURL))
		dispatcher := app.NewOutboxDispatcher(repository, cfg.RabbitMQURL, time.Duration(cfg.OutboxPollIntervalMs)*time.Millisecond, logger)
		go dispatcher.Run(ctx)
	}

	router := api.NewRouter(api.NewHandler(service, logger), api.RouterConfig{
		AllowedOrigins:         cfg.CORSAllowedOrigins,
		InternalAPIKey:         cfg.InternalAPIKey,
		RateLimiter:            limiter,
		AuthRateLimitPerMinute: cfg.AuthRateLimitPerMinute,
		Logger:                 logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("could not start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server gracefully stopped")
}

// connectRedis returns nil when Redis is not configured or unreachable; rate limiting then
// runs per process and sweeps rely on gain credit keys alone.
func connectRedis(redisURL string, logger *slog.Logger) *redis.Client {
	if redisURL == "" {
		logger.Warn("REDIS_URL not set; using in-process rate limiting and no sweep lock")
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("redis url parse failed; continuing without redis", "error", err)
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed; continuing without redis", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}
