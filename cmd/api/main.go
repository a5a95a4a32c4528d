package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/banking_ledger/internal/config"
	"github.com/congo-pay/banking_ledger/internal/infra"
	"github.com/congo-pay/banking_ledger/internal/logging"
	"github.com/congo-pay/banking_ledger/internal/notification"
	"github.com/congo-pay/banking_ledger/internal/routes"
	"github.com/congo-pay/banking_ledger/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if cfg.AutoMigrate {
			if err := infra.ApplySchema(ctx, db); err != nil {
				logger.Error("apply schema", "error", err)
				os.Exit(1)
			}
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	var notifier notification.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier, err := notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Error("build kafka notifier", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				logger.Warn("close kafka writer", "error", err)
			}
		}()
		notifier = kafkaNotifier
	}

	srv, err := server.New(routes.Deps{Cfg: cfg, DB: db, Cache: cache, Notifier: notifier, Logger: logger})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
