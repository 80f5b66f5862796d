package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/solvik/mediavault/internal/api/handler"
	mw "github.com/solvik/mediavault/internal/api/middleware"
	"github.com/solvik/mediavault/internal/config"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/storage"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	pool           *pgxpool.Pool
	temporalClient temporalclient.Client
	store          storage.ObjectStore
	bus            *events.Bus
	cfg            *config.Config
	auditLogger    *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, db *pgxpool.Pool, temporalClient temporalclient.Client, store storage.ObjectStore, bus *events.Bus, cfg *config.Config) *Server {
	services := core.NewServices(db, temporalClient, bus, logger, cfg.JWTSecret, cfg.JWTIssuer)
	auditLogger := mw.NewAuditLogger(db, logger)

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       services,
		pool:           db,
		temporalClient: temporalClient,
		store:          store,
		bus:            bus,
		cfg:            cfg,
		auditLogger:    auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	// Portal sessions authenticate with email/password, not an API key.
	session := handler.NewSession(s.services)
	s.router.Post("/auth/sessions", session.Create)
	s.router.Get("/auth/me", session.Me)

	// Activity stream. WebSocket clients pass the API key as a query param,
	// so the handler does its own auth instead of the header middleware.
	stream := handler.NewEvents(s.bus, s.pool)
	s.router.Get("/events/stream", stream.Stream)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))
		r.Use(s.auditLogger.Middleware)

		// Dashboard
		dashboard := handler.NewDashboard(s.services.Dashboard)
		r.Get("/dashboard/stats", dashboard.Stats)

		// Search
		search := handler.NewSearch(s.services.Search)
		r.Get("/search", search.Search)

		// Audit logs
		audit := handler.NewAudit(s.pool)
		r.Get("/audit-logs", audit.List)

		// Tenants
		tenant := handler.NewTenant(s.services.Tenant)
		r.Get("/tenants", tenant.List)
		r.Post("/tenants", tenant.Create)
		r.Get("/tenants/{id}", tenant.Get)
		r.Put("/tenants/{id}", tenant.Update)
		r.Delete("/tenants/{id}", tenant.Delete)
		r.Post("/tenants/{id}/suspend", tenant.Suspend)
		r.Post("/tenants/{id}/unsuspend", tenant.Unsuspend)

		// Brands
		brand := handler.NewBrand(s.services)
		r.Get("/tenants/{tenantID}/brands", brand.ListByTenant)
		r.Post("/tenants/{tenantID}/brands", brand.Create)
		r.Get("/brands/{id}", brand.Get)
		r.Put("/brands/{id}", brand.Update)
		r.Delete("/brands/{id}", brand.Delete)

		// Assets
		asset := handler.NewAsset(s.services, s.store)
		r.Get("/assets", asset.List)
		r.Post("/assets", asset.Register)
		r.Get("/assets/{id}", asset.Get)
		r.Delete("/assets/{id}", asset.Delete)
		r.Post("/assets/{id}/reprocess", asset.Reprocess)
		r.Get("/assets/{id}/renditions", asset.Renditions)

		// Incidents
		incident := handler.NewIncident(s.services)
		r.Get("/incidents", incident.List)
		r.Post("/incidents", incident.Report)
		r.Post("/incidents/resolve-by-source", incident.ResolveBySource)
		r.Get("/incidents/{id}", incident.Get)
		r.Post("/incidents/{id}/recover", incident.Recover)
		r.Post("/incidents/{id}/resolve", incident.Resolve)
		r.Post("/incidents/{id}/escalate", incident.Escalate)

		// Tickets
		ticket := handler.NewTicket(s.services.Ticket)
		r.Get("/tickets", ticket.List)
		r.Get("/tickets/{id}", ticket.Get)
		r.Post("/tickets/{id}/close", ticket.Close)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Get("/api-keys/{id}", apiKey.Get)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	if _, err := s.temporalClient.CheckHealth(ctx, &temporalclient.CheckHealthRequest{}); err != nil {
		checks["temporal"] = err.Error()
		healthy = false
	} else {
		checks["temporal"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes the audit log writer. Call after the HTTP server has
// stopped accepting requests.
func (s *Server) Close() {
	s.auditLogger.Close()
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>MediaVault API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
