// cmd/historian/main.go drains the action queue in Redis into the Postgres
// archive and marks games abandoned after a period of inactivity.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/modernart/internal/cache"
	"github.com/jason-s-yu/modernart/internal/config"
	"github.com/jason-s-yu/modernart/internal/database"
	"github.com/jason-s-yu/modernart/internal/historian"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.PostgresURL())
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	archive := database.NewArchive(pool)
	if err := archive.Migrate(ctx); err != nil {
		logger.Fatalf("migrate archive: %v", err)
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	svc := historian.NewService(cache.NewActionQueue(rdb, cfg.HistorianQueueName), archive, logger)
	svc.BatchSize = cfg.HistorianBatchSize
	svc.FlushDelay = cfg.HistorianFlushDelay()
	svc.Inactivity = cfg.GameInactivityTimeout()

	logger.Infof("historian reading from %s", cfg.HistorianQueueName)
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("historian exited: %v", err)
	}
	logger.Info("historian shutdown complete")
}
