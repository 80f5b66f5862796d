package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/config"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/db"
	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/logging"
	"github.com/solvik/mediavault/internal/metrics"
	"github.com/solvik/mediavault/internal/storage"
	"github.com/solvik/mediavault/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := cfg.Validate("worker"); err != nil {
		fatalf("invalid config: %v", err)
	}

	logger := logging.NewLogger("worker", cfg.LogLevel)

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
	profiles, err := storage.LoadProfiles(cfg.RenditionProfiles)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load rendition profiles")
	}

	// The worker shares the service layer with the API so activities run the
	// same classification and repair code paths. It never issues session
	// tokens, so the JWT material stays empty.
	bus := events.NewBus()
	services := core.NewServices(pool, tc, bus, logger, "", "")

	w := worker.New(tc, cfg.TaskQueue, worker.Options{
		Interceptors: []interceptor.WorkerInterceptor{&workflow.ErrorTypingInterceptor{}},
	})

	w.RegisterActivity(activity.NewAsset(services.Asset, store, profiles, logger))
	w.RegisterActivity(activity.NewIncident(services.Engine, services.Incident, logger))
	w.RegisterActivity(activity.NewWebhook())

	w.RegisterWorkflow(workflow.ProcessAssetWorkflow)
	w.RegisterWorkflow(workflow.RegenerateThumbnailsWorkflow)
	w.RegisterWorkflow(workflow.RetryPromotionWorkflow)
	w.RegisterWorkflow(workflow.IncidentRecoveryWorkflow)
	w.RegisterWorkflow(workflow.IncidentEscalationWorkflow)
	w.RegisterWorkflow(workflow.StaleAssetMonitorWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", cfg.TaskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	registerCronSchedules(ctx, tc, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "worker: "+format+"\n", args...)
	os.Exit(1)
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

// cronSchedule pairs a Temporal schedule with the sweep workflow it fires.
type cronSchedule struct {
	id       string
	cron     string
	workflow any
	args     []any
}

// registerCronSchedules upserts the reliability sweep schedules. A schedule
// left over from a previous deploy is kept as-is.
func registerCronSchedules(ctx context.Context, tc temporalclient.Client, cfg *config.Config, logger zerolog.Logger) {
	schedules := []cronSchedule{
		{
			id:       "incident-recovery-cron",
			cron:     "*/5 * * * *",
			workflow: workflow.IncidentRecoveryWorkflow,
			args:     []any{workflow.RecoverySweepParams{Limit: 25}},
		},
		{
			id:       "incident-escalation-cron",
			cron:     "*/10 * * * *",
			workflow: workflow.IncidentEscalationWorkflow,
			args: []any{workflow.EscalationSweepParams{
				Limit:      50,
				WebhookURL: cfg.TicketWebhookURL,
			}},
		},
		{
			id:       "stale-asset-cron",
			cron:     "*/15 * * * *",
			workflow: workflow.StaleAssetMonitorWorkflow,
			args: []any{workflow.StaleSweepParams{
				MaxAge: 30 * time.Minute,
				Limit:  100,
			}},
		},
	}

	sc := tc.ScheduleClient()
	for _, s := range schedules {
		slog := logger.With().Str("id", s.id).Logger()
		_, err := sc.Create(ctx, temporalclient.ScheduleOptions{
			ID:   s.id,
			Spec: temporalclient.ScheduleSpec{CronExpressions: []string{s.cron}},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: cfg.TaskQueue,
			},
		})
		switch {
		case err == nil:
			slog.Info().Str("cron", s.cron).Msg("cron schedule created")
		case scheduleExists(err):
			slog.Info().Msg("cron schedule already present")
		default:
			slog.Fatal().Err(err).Msg("failed to create cron schedule")
		}
	}
}

// scheduleExists reports whether schedule creation failed only because the
// ID is already registered. The server and SDK disagree on the message, so
// all known spellings are checked.
func scheduleExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "AlreadyExists") ||
		strings.Contains(msg, "already registered")
}
