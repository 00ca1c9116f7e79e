// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/modernart/internal/auth"
	"github.com/jason-s-yu/modernart/internal/cache"
	"github.com/jason-s-yu/modernart/internal/config"
	"github.com/jason-s-yu/modernart/internal/database"
	"github.com/jason-s-yu/modernart/internal/engine"
	"github.com/jason-s-yu/modernart/internal/handlers"
	"github.com/jason-s-yu/modernart/internal/monitor"
	"github.com/jason-s-yu/modernart/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}
	if err := auth.Init(cfg.TokenExpireTime); err != nil {
		logger.Fatalf("auth: %v", err)
	}
	rules, err := cfg.Rules()
	if err != nil {
		logger.Fatalf("rules: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// connections are opened lazily and shared between the store and the
	// action log / archive
	var (
		pool *pgxpool.Pool
		rdb  *redis.Client
	)
	getPool := func() *pgxpool.Pool {
		if pool == nil {
			if pool, err = database.Connect(ctx, cfg.PostgresURL()); err != nil {
				logger.Fatalf("postgres: %v", err)
			}
		}
		return pool
	}
	getRedis := func() *redis.Client {
		if rdb == nil {
			if rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
				logger.Fatalf("redis: %v", err)
			}
		}
		return rdb
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		ps := store.NewPostgresStore(getPool())
		if err := ps.Migrate(ctx); err != nil {
			logger.Fatalf("migrate live_games: %v", err)
		}
		st = ps
	case config.BackendRedis:
		st = store.NewRedisStore(getRedis(), cfg.RedisKeyPrefix, cfg.GameTTL)
	default:
		st = store.NewMemoryStore()
	}
	logger.Infof("using %s game store", cfg.StoreBackend)

	mon := monitor.NewMonitor("modernart")
	opts := engine.Options{
		Rules:          rules,
		Monitor:        mon,
		AuctionTimeout: cfg.AuctionTimeout,
	}
	if cfg.PublishActions {
		opts.Publisher = cache.NewActionQueue(getRedis(), cfg.HistorianQueueName)
		logger.Infof("publishing actions to %s", cfg.HistorianQueueName)
	}
	if cfg.ArchiveResults {
		archive := database.NewArchive(getPool())
		if err := archive.Migrate(ctx); err != nil {
			logger.Fatalf("migrate archive: %v", err)
		}
		opts.Results = archive
	}

	eng := engine.New(st, logger, opts)
	defer eng.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewGameServer(eng, logger, mon).Routes(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Errorf("server exited: %v", err)
	}

	if rdb != nil {
		rdb.Close()
	}
	if pool != nil {
		pool.Close()
	}
	logger.Info("shutdown complete")
}
