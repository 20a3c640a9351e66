// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"

	"beamgate/internal/platform/config"
	"beamgate/internal/platform/httpserver"
	"beamgate/internal/platform/logger"
	"beamgate/internal/platform/metrics"
	"beamgate/internal/platform/middleware"
	platformpg "beamgate/internal/platform/postgres"
	platformredis "beamgate/internal/platform/redis"
	"beamgate/internal/registry"
	"beamgate/internal/registry/cache"
	registrymemory "beamgate/internal/registry/store/memory"
	registrypg "beamgate/internal/registry/store/postgres"
	"beamgate/internal/session"
	"beamgate/internal/validation"
	"beamgate/internal/validation/handler"
	valmetrics "beamgate/internal/validation/metrics"
	auditpublisher "beamgate/pkg/platform/audit/publisher"
	auditmemory "beamgate/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	site, err := time.LoadLocation(cfg.SiteTimezone)
	if err != nil {
		log.Error("invalid site timezone", "tz", cfg.SiteTimezone, "error", err.Error())
		os.Exit(1)
	}

	var store registry.Store
	if cfg.PostgresDSN != "" {
		db, err := platformpg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Error("registry database unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		store = registrypg.New(db, site)
	} else {
		log.Warn("no registry DSN configured, using empty in-memory store")
		store = registrymemory.New()
	}

	if cfg.RedisURL != "" {
		rdb, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer rdb.Close()
		store = cache.New(store, rdb.Client, cfg.RegistryCacheTTL, log)
	}

	auditor := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(),
		auditpublisher.WithLogger(log),
		auditpublisher.WithAsyncBuffer(256),
	)
	defer auditor.Close()

	platformMetrics := metrics.New()
	resolver := session.New(store, cfg.AuthorizedStates, log)
	validator := validation.New(store, resolver,
		validation.WithLogger(log),
		validation.WithMetrics(valmetrics.New()),
		validation.WithAuditEmitter(auditor),
	)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log, platformMetrics))
	router.Use(middleware.Timeout(30 * time.Second))

	handler.New(validator, resolver, store, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", metrics.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting beamgate", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
