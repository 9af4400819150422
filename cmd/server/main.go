package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/JustIkra/tg-restorants-bot/internal/config"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/JustIkra/tg-restorants-bot/internal/events"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	"github.com/JustIkra/tg-restorants-bot/internal/router"
	"github.com/JustIkra/tg-restorants-bot/internal/service"
	"github.com/JustIkra/tg-restorants-bot/internal/session"
	"github.com/JustIkra/tg-restorants-bot/internal/shutdown"
	"github.com/JustIkra/tg-restorants-bot/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	// Hand-off store
	store, closeStore, err := openHandoffStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Event publisher
	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		writer := events.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()
		publisher = events.NewKafkaPublisher(writer, cfg.KafkaTopic, logger)
		logger.Info("publishing events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	client := backend.NewClient(cfg.BackendURL, nil)

	sessions := session.NewManager(client, loc, logger)
	defer sessions.Shutdown()
	go sweepSessions(ctx, sessions, cfg.SessionIdleTTL, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	r := router.New(cfg, router.Deps{
		Sessions: sessions,
		Handoffs: store,
		Checkout: service.NewCheckoutService(store, client, publisher, logger),
		Admin:    service.NewAdminService(client, publisher, logger),
		Hub:      hub,
		Logger:   logger,
	})

	// No WriteTimeout: admin deletes hold the response until the manager
	// answers the confirmation dialog.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("backend", cfg.BackendURL),
			zap.String("handoff_store", cfg.HandoffStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
	return nil
}

// openHandoffStore connects the configured hand-off backend. The returned
// close func is always non-nil.
func openHandoffStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (handoff.Store, func(), error) {
	switch cfg.HandoffStore {
	case enum.HandoffStorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		store := handoff.NewPostgresStore(pool)
		go pruneHandoffs(ctx, store, cfg.HandoffTTL, logger)
		return store, pool.Close, nil

	case enum.HandoffStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return handoff.NewRedisStore(rdb, cfg.HandoffTTL), func() { rdb.Close() }, nil

	default:
		logger.Warn("hand-offs are kept in memory and lost on restart")
		return handoff.NewMemoryStore(), func() {}, nil
	}
}

// pruneHandoffs drops abandoned Postgres hand-offs until ctx ends.
func pruneHandoffs(ctx context.Context, store *handoff.PostgresStore, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Prune(ctx, ttl)
			if err != nil {
				logger.Warn("prune handoffs failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("pruned handoffs", zap.Int64("rows", n))
			}
		}
	}
}

// sweepSessions evicts ordering sessions the mini-app abandoned without
// ending them, until ctx ends.
func sweepSessions(ctx context.Context, sessions *session.Manager, maxIdle time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(maxIdle); n > 0 {
				logger.Info("evicted idle sessions", zap.Int("count", n), zap.Int("live", sessions.Len()))
			}
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return zcfg.Build()
}
