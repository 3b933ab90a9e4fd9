// Package app wires configuration, storage, cache, the click pipeline and
// the HTTP server together and runs them until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/shorturl-app/shorturl/internal/api/http"
	"github.com/shorturl-app/shorturl/internal/cache"
	"github.com/shorturl-app/shorturl/internal/clickstream"
	"github.com/shorturl-app/shorturl/internal/config"
	database "github.com/shorturl-app/shorturl/internal/database/postgres"
	"github.com/shorturl-app/shorturl/internal/service"
	"github.com/shorturl-app/shorturl/pkg/middleware/ratelimit"
	"github.com/shorturl-app/shorturl/pkg/postgres"
)

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("%s: auth.jwt_secret is not configured", op)
	}

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}
	}

	urlRepo := database.NewURLRepository(db)
	userRepo := database.NewUserRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	clickRepo := database.NewClickRepository(db)

	urlCache := cache.NewURLCache(redisClient, logger.Logger, cfg.Cache.MemoryTTL, cfg.Cache.RedisTTL)

	// With a broker configured clicks are published and a separate worker
	// persists them; otherwise an in-process dispatcher batches them straight
	// into the store.
	var sink service.ClickSink
	if cfg.AMQP.Enabled {
		conn, err := amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			return fmt.Errorf("%s: failed to connect to amqp broker: %w", op, err)
		}
		defer conn.Close()

		publisher, err := clickstream.NewPublisher(conn, cfg.AMQP.ClickQueue, logger.Logger)
		if err != nil {
			return fmt.Errorf("%s: failed to create click publisher: %w", op, err)
		}
		defer publisher.Close()

		sink = publisher
	} else {
		dispatcher := clickstream.NewDispatcher(clickRepo, logger.Logger,
			cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		sink = dispatcher

		g.Go(func() error {
			return dispatcher.Run(ctx)
		})
	}

	reserved := service.NewReservedCodes(cfg.ShortCode.ReservedPaths)

	urlSvc := service.NewURLService(urlRepo, urlCache, sink, reserved, cfg.ShortCode.Length, cfg.ShortCode.MaxRetries)
	userSvc := service.NewUserService(userRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	statsSvc := service.NewStatsService(urlRepo, clickRepo)

	if cfg.Auth.BootstrapPassword != "" {
		if err := userSvc.EnsureAdmin(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword); err != nil {
			return fmt.Errorf("%s: failed to ensure bootstrap admin: %w", op, err)
		}
	}

	if cfg.Analytics.RetentionDays > 0 {
		c := cron.New()

		_, err := c.AddFunc(cfg.Analytics.CleanupSchedule, func() {
			cutoff := time.Now().AddDate(0, 0, -cfg.Analytics.RetentionDays)

			deleted, err := clickRepo.DeleteEventsBefore(context.Background(), cutoff)
			if err != nil {
				logger.Error("failed to delete expired click events", slog.Any("err", err))
				return
			}
			if deleted > 0 {
				logger.Info("deleted expired click events",
					slog.Int64("deleted", deleted),
					slog.Time("cutoff", cutoff),
				)
			}
		})
		if err != nil {
			return fmt.Errorf("%s: failed to schedule click event cleanup: %w", op, err)
		}

		c.Start()
		g.Go(func() error {
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	var limiter func(http.Handler) http.Handler
	switch {
	case cfg.RateLimit.Enabled && redisClient != nil:
		limiter = ratelimit.New(ratelimit.NewRedisCounter(redisClient), logger.Logger,
			cfg.RateLimit.Requests, cfg.RateLimit.Window)
	case cfg.RateLimit.Enabled:
		logger.Warn("rate limiting disabled: redis is not configured")
	}

	tokens := apihttp.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	router := apihttp.NewRouter(logger, cfg.BaseURL, apihttp.Services{
		URLs:       urlSvc,
		Users:      userSvc,
		Categories: categorySvc,
		Stats:      statsSvc,
	}, tokens, limiter)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
