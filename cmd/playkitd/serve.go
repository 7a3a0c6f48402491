package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"

	authgin "github.com/open-rails/playkit/adapters/gin"
	"github.com/open-rails/playkit/adapters/ginutil"
	"github.com/open-rails/playkit/core"
	"github.com/open-rails/playkit/jobs"
	migrations "github.com/open-rails/playkit/migrations/postgres"
	"github.com/open-rails/playkit/player"
	memorylimiter "github.com/open-rails/playkit/ratelimit/memory"
	redislimiter "github.com/open-rails/playkit/ratelimit/redis"
	memorystore "github.com/open-rails/playkit/storage/memory"
	pgstore "github.com/open-rails/playkit/storage/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(viper.GetString("log_level")); err == nil {
		log.SetLevel(lvl)
	}

	issuerDomain := viper.GetString("issuer_domain")
	if issuerDomain == "" {
		return errors.New("issuer_domain is required")
	}

	svc := core.NewService(core.AcceptConfig{
		IssuerDomain: issuerDomain,
		CacheTTL:     viper.GetDuration("cache_ttl"),
		Logger:       log,
	})

	if schedule := viper.GetString("key_refresh_schedule"); schedule != "" {
		sched, err := svc.StartKeyRefresh(schedule)
		if err != nil {
			return fmt.Errorf("start key refresh: %w", err)
		}
		defer sched.Stop()
	}

	store, queue, cleanup, err := buildStorage(ctx, log)
	if err != nil {
		return err
	}
	defer cleanup()

	var limiter ginutil.RateLimiter
	if addr := viper.GetString("redis_addr"); addr != "" {
		limiter = redislimiter.New(redis.NewClient(&redis.Options{Addr: addr}), nil)
	} else {
		limiter = memorylimiter.New(nil)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	authgin.RegisterRoutes(r, svc, store, queue, limiter)

	srv := &http.Server{
		Addr:              viper.GetString("listen_addr"),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("playkitd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStorage wires the Postgres store, migrations, and river queue when a
// DSN is configured, falling back to the in-memory store for local runs.
func buildStorage(ctx context.Context, log *logrus.Logger) (player.Store, jobs.Enqueuer, func(), error) {
	dsn := viper.GetString("postgres_dsn")
	if dsn == "" {
		log.Warn("no postgres_dsn configured; using in-memory storage, message delivery disabled")
		return memorystore.New(), nil, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store := pgstore.New(db)
	queue, err := jobs.NewClient(pool, store, log)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("build job queue: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("start job queue: %w", err)
	}

	cleanup := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue.Stop(stopCtx)
		_ = db.Close()
		pool.Close()
	}
	return store, queue, cleanup, nil
}
