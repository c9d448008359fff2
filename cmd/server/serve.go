package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Frans06/website/internal/auth"
	"github.com/Frans06/website/internal/content"
	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/media"
	"github.com/Frans06/website/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	ctx = logger.ContextWithLogger(ctx, log)

	// ── PostgreSQL ───────────────────────────────────────────
	if err := store.ApplyMigrations(ctx, cfg.Database.URL); err != nil {
		return err
	}
	handle := store.NewPoolHandle(cfg.Database.URL, store.PoolOptions{
		MaxConns:       cfg.Database.MaxConnections,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	})
	defer handle.Close()
	pool, err := handle.Get(ctx)
	if err != nil {
		return err
	}
	posts := store.NewPostRepository(pool, store.WithCallTimeout(handle.Options().AcquireTimeout))
	users := store.NewUserStore(pool)

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		return err
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey,
		cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL,
	)
	if err != nil {
		return err
	}

	// ── Metrics ──────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		store.NewPoolCollector(pool),
	)

	router := newRouter(routerDeps{
		log:            log,
		allowedOrigins: cfg.Server.AllowedOrigins,
		health:         func(ctx context.Context) error { return store.HealthCheck(ctx, pool) },
		metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		sessions:       sessions,
		auth:           auth.NewHandler(users, sessions, auth.WithSecureCookie(cfg.IsProduction())),
		posts:          content.NewHandler(content.NewService(posts, content.NewMarkdownRenderer())),
		media:          media.NewHandler(minioStore),
	})

	srv := &http.Server{
		Addr:              cfg.BindAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
