package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wardrobeapp/wardrobe/internal/config"
	"github.com/wardrobeapp/wardrobe/internal/db"
	httpx "github.com/wardrobeapp/wardrobe/internal/http"
	"github.com/wardrobeapp/wardrobe/internal/observability"
	"github.com/wardrobeapp/wardrobe/internal/storage"
	"github.com/wardrobeapp/wardrobe/internal/tasks"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; tokens are unsigned-equivalent, dev only")
	}

	// tracing is opt-in; without an endpoint the SDK is never installed
	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, "wardrobe-api", cfg.OTLPEndpoint)
		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	{
		ctx, cancel := config.WithTimeout(10 * time.Second)
		err = db.EnsureSchema(ctx, pool)
		cancel()

		if err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
	}

	files, err := storage.NewStore(cfg.UploadDir, log)

	if err != nil {
		log.Error("upload dir setup failed", "err", err, "dir", cfg.UploadDir)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	runner := tasks.New(tasks.Config{}, log, prom)

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, pool, files, prom, runner)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage_mode", cfg.StorageMode)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}

		// let in-flight background work finish before the process exits
		if err := runner.Close(ctx); err != nil {
			log.Error("task drain incomplete", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
