// Command server runs the video feed backend: the ingestion webhook and the
// public Media RSS feed on one HTTP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/video-feed-backend/internal/config"
	"github.com/tbourn/video-feed-backend/internal/fetch"
	httpapi "github.com/tbourn/video-feed-backend/internal/http"
	"github.com/tbourn/video-feed-backend/internal/observability"
	"github.com/tbourn/video-feed-backend/internal/repo"
	"github.com/tbourn/video-feed-backend/internal/repo/mongostore"
	"github.com/tbourn/video-feed-backend/internal/services"
	"github.com/tbourn/video-feed-backend/internal/storage"
	"github.com/tbourn/video-feed-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server exited")
}

func run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer scancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	videos, closeStore, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer scancel()
		if err := closeStore(sctx); err != nil {
			log.Warn().Err(err).Msg("record store close")
		}
	}()

	blobs, err := storage.New(cfg.S3)
	if err != nil {
		return err
	}
	fetcher := fetch.New(fetch.Options{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.MaxAssetBytes,
	})

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Videos: videos, Blobs: blobs, Fetcher: fetcher}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("record_store", cfg.Store.Kind).
			Str("bucket", blobs.Bucket()).
			Str("version", version).
			Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-gctx.Done():
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
		}

		sctx, scancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer scancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
		return nil
	})

	return g.Wait()
}

// openRecordStore opens the backend selected by RECORD_STORE and returns it
// with its close function.
func openRecordStore(ctx context.Context, cfg config.Config) (services.VideoStore, func(context.Context) error, error) {
	switch cfg.Store.Kind {
	case config.RecordStoreMongo:
		db, err := mongostore.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.NewVideoStore(db, cfg.Store.Table)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, db.Client().Disconnect, nil

	default:
		db, err := repo.OpenSQLite(cfg.Store.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.DBPath, err)
		}
		if cfg.OTEL.Enabled {
			if err := repo.EnableTracing(db); err != nil {
				return nil, nil, fmt.Errorf("gorm tracing: %w", err)
			}
		}
		if err := repo.AutoMigrate(db, cfg.Store.Table); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Store.DBPath).Str("table", cfg.Store.Table).Msg("sqlite ready")
		return repo.NewVideoRepo(db, cfg.Store.Table), func(context.Context) error { return sqlDB.Close() }, nil
	}
}
