package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogue/internal/author"
	"catalogue/internal/book"
	"catalogue/internal/config"
	"catalogue/internal/httpx"
	"catalogue/internal/platform/logging"
	"catalogue/internal/platform/metrics"
	"catalogue/internal/platform/postgres"
	"catalogue/internal/platform/txn"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("catalogue: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var cache book.Cache = book.NopCache{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		redisCache := book.NewRedisCache(client, cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, cache calls will fail until it recovers", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		cache = redisCache
		logger.Info("book cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	var (
		authorRepo author.Repository
		bookRepo   book.Repository
		tx         txn.Manager
		ready      func(context.Context) error
	)
	switch cfg.Store {
	case config.StoreMemory:
		memAuthors := author.NewMemoryRepo()
		authorRepo = memAuthors
		bookRepo = book.NewMemoryRepo(memAuthors)
		tx = txn.NewSerial()
		logger.Warn("using in-memory store, data is lost on exit")
	default:
		pool, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("database connection OK", zap.String("dsn", postgres.RedactDSN(cfg.DBDSN)))

		authorRepo = author.NewPostgresRepo(pool, cfg.DBTimeout)
		bookRepo = book.NewPostgresRepo(pool, cfg.DBTimeout)
		tx = postgres.NewTxManager(pool)
		ready = pool.Ping
	}

	authors := author.NewService(authorRepo, tx, cache, m, logger)
	books := book.NewService(bookRepo, authors, tx, cache, m, logger)

	handler := newRouter(routerDeps{
		cfg:         cfg,
		authors:     authors,
		books:       books,
		ready:       ready,
		gatherer:    registry,
		metrics:     m,
		log:         logger,
		rateLimiter: httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies...),
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
