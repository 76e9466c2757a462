package main

import (
	"context"
	"net/http"
	"time"

	"catalogue/internal/author"
	"catalogue/internal/book"
	"catalogue/internal/config"
	"catalogue/internal/httpx"
	"catalogue/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type routerDeps struct {
	cfg         config.Config
	authors     *author.Service
	books       *book.Service
	ready       func(context.Context) error // nil means always ready
	gatherer    prometheus.Gatherer
	metrics     *metrics.Metrics
	log         *zap.Logger
	rateLimiter *httpx.RateLimitMiddleware
}

func newRouter(d routerDeps) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", metrics.Handler(d.gatherer))

	author.NewHTTPHandler(d.authors, d.log).Register(router)
	book.NewHTTPHandler(d.books, d.log).Register(router)

	// MetricsMiddleware must stay last so it sees the pattern the mux matched.
	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.log),
		httpx.RecoveryMiddleware(d.log),
		httpx.SecurityHeadersMiddleware(d.cfg.EnableHSTS),
		httpx.CORSMiddleware(d.cfg.CORSOrigins),
		d.rateLimiter.Middleware,
		httpx.RequestSizeLimitMiddleware(d.cfg.MaxBodyBytes),
		httpx.MetricsMiddleware(d.metrics),
	)
}
