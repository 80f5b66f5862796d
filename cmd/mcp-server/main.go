package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/logging"
	"github.com/solvik/mediavault/internal/mcpserver"
)

func main() {
	var (
		configPath = flag.String("config", "mcp.yaml", "Path to mcp.yaml configuration file")
		specFile   = flag.String("spec", "", "Path to swagger.json file (overrides fetching from API)")
		addr       = flag.String("addr", ":8090", "Listen address")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := logging.NewLogger("mcp-server", *logLevel)

	cfg, err := mcpserver.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Environment overrides take precedence over flags.
	if apiURL := os.Getenv("MCP_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if envAddr := os.Getenv("MCP_ADDR"); envAddr != "" {
		*addr = envAddr
	}

	srv, err := mcpserver.New(cfg, loadSpec(cfg, *specFile, logger), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create MCP server")
	}

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("MCP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	logger.Info().Msg("MCP server stopped")
}

// loadSpec reads the swagger document from disk when -spec is set, otherwise
// fetches it from the running API.
func loadSpec(cfg *mcpserver.Config, specFile string, logger zerolog.Logger) []byte {
	if specFile != "" {
		data, err := os.ReadFile(specFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", specFile).Msg("failed to read spec file")
		}
		logger.Info().Str("path", specFile).Msg("loaded spec from file")
		return data
	}

	data, err := mcpserver.FetchSpec(cfg.APIURL, cfg.SpecPath)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.APIURL+cfg.SpecPath).Msg("failed to fetch spec from API")
	}
	logger.Info().Str("url", cfg.APIURL+cfg.SpecPath).Msg("fetched spec from API")
	return data
}
