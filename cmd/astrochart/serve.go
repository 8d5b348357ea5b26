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
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/cache"
	"github.com/tbourn/astro-chart-backend/internal/config"
	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
	httpapi "github.com/tbourn/astro-chart-backend/internal/http"
	"github.com/tbourn/astro-chart-backend/internal/observability"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/sysutil"
)

// idempotencyPurgeInterval is how often expired Idempotency-Key records are
// deleted.
const idempotencyPurgeInterval = 10 * time.Minute

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

// run wires the service and blocks until ctx is cancelled or the server
// fails.
func run(ctx context.Context, cfg config.Config) error {
	sysutil.InitLogging(cfg.LogLevel, cfg.LogPretty, serviceName, version)
	gin.SetMode(cfg.GinMode)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}

	provider, closeCache, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, provider, cfg)

	srv := &http.Server{
		Addr:              sysutil.ListenAddr(cfg.Port, "8080"),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		purgeIdempotency(gCtx, db, idempotencyPurgeInterval)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		if err := closeCache(); err != nil {
			log.Error().Err(err).Msg("close cache")
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error().Err(err).Msg("close database")
			}
		}
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("otel shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
		return err
	}
	log.Info().Msg("service stopped")
	return nil
}

// openDatabase opens SQLite, migrates the schema and seeds reference data.
func openDatabase(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := repo.SetNodeID(cfg.NodeID); err != nil {
		return nil, err
	}
	if err := repo.SeedProducts(ctx, db); err != nil {
		return nil, fmt.Errorf("seed products: %w", err)
	}
	if cfg.Economy.SeedTestUser {
		if err := repo.SeedTestUser(ctx, db); err != nil {
			return nil, fmt.Errorf("seed test user: %w", err)
		}
		log.Info().Str("user_id", repo.TestUserID).Msg("development user seeded")
	}
	return db, nil
}

// buildProvider returns the Meeus ephemeris for the configured house system
// behind a cache. Redis is used when enabled and reachable; otherwise an
// in-memory cache.
func buildProvider(ctx context.Context, cfg config.Config) (ephemeris.Provider, func() error, error) {
	sys, err := ephemeris.ParseHouseSystem(cfg.Chart.HouseSystem)
	if err != nil {
		return nil, nil, err
	}

	var c cache.Cache
	if cfg.Redis.Enabled {
		rc, err := cache.DialRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory ephemeris cache")
		} else {
			c = rc
		}
	}
	if c == nil {
		c = cache.NewMemory(cfg.Chart.CacheSize, cfg.Chart.CacheTTL)
	}

	return &ephemeris.CachedProvider{
		Next:   ephemeris.NewMeeusProvider(sys),
		Cache:  c,
		TTL:    cfg.Chart.CacheTTL,
		System: sys,
	}, c.Close, nil
}

// purgeIdempotency deletes expired idempotency records every interval until
// ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Msg("purge idempotency records")
				}
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("expired idempotency records purged")
			}
		}
	}
}
