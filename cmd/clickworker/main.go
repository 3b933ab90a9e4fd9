package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"

	"github.com/shorturl-app/shorturl/internal/clickstream"
	"github.com/shorturl-app/shorturl/internal/config"
	database "github.com/shorturl-app/shorturl/internal/database/postgres"
	"github.com/shorturl-app/shorturl/pkg/postgres"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("click worker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	const op = "main.run"

	if !cfg.AMQP.Enabled {
		return fmt.Errorf("%s: amqp is not enabled in the config", op)
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

	clickRepo := database.NewClickRepository(db)

	// The worker usually starts alongside the broker, so early dial failures
	// are retried with backoff instead of crash looping.
	var conn *amqp.Connection
	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))

	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		conn, err = amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			logger.Warn("failed to connect to amqp broker, retrying", slog.Any("err", err))
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("%s: failed to connect to amqp broker: %w", op, err)
	}
	defer conn.Close()

	consumer, err := clickstream.NewConsumer(conn, cfg.AMQP.ClickQueue, clickRepo, logger,
		cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
	if err != nil {
		return fmt.Errorf("%s: failed to create click consumer: %w", op, err)
	}
	defer consumer.Close()

	logger.Info("click worker started", slog.String("queue", cfg.AMQP.ClickQueue))

	return consumer.Run(ctx)
}

func newLogger(env string) *slog.Logger {
	switch env {
	case config.EnvStage, config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
