package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/solvik/mediavault/internal/api"
	"github.com/solvik/mediavault/internal/config"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/db"
	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/logging"
	"github.com/solvik/mediavault/internal/metrics"
	"github.com/solvik/mediavault/internal/storage"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-api-key" {
		createAPIKey(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Apply pending migrations before serving")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Directory containing goose migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := cfg.Validate("core-api"); err != nil {
		fatalf("invalid config: %v", err)
	}

	logger := logging.NewLogger("core-api", cfg.LogLevel)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("applying database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := dialTemporal(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	store := storage.NewStore(logger, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
	bus := events.NewBus()

	srv := api.NewServer(logger, pool, tc, store, bus, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting core API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	// Flush buffered audit entries once no more requests can arrive.
	srv.Close()
}

func dialTemporal(cfg *config.Config, logger zerolog.Logger) (temporalclient.Client, error) {
	opts := temporalclient.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	}
	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		opts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	return temporalclient.Dial(opts)
}

// createAPIKey bootstraps the first platform key without going through the
// authenticated API.
func createAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	name := fs.String("name", "", "Descriptive key name (required)")
	fs.Parse(args)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: core-api create-api-key --name <name>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	key, rawKey, err := core.NewAPIKeyService(pool).Create(ctx, *name)
	if err != nil {
		fatalf("create API key: %v", err)
	}

	fmt.Printf("Created API key %q (%s)\n\n    %s\n\n", key.Name, key.ID, rawKey)
	fmt.Println("Only the hash is stored; the key will not be shown again.")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "core-api: "+format+"\n", args...)
	os.Exit(1)
}
