package core

import (
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/reliability"
)

type Services struct {
	Tenant     *TenantService
	Brand      *BrandService
	Asset      *AssetService
	Incident   *IncidentService
	Ticket     *TicketService
	APIKey     *APIKeyService
	Auth       *AuthService
	PortalUser *PortalUserService
	Search     *SearchService
	Dashboard  *DashboardService

	Engine *reliability.Engine
	Bus    *events.Bus
}

// NewServices wires every service over the shared pool and hands the
// reliability engine its collaborators. Strategy order matters: the
// visual-metadata strategy claims its exact title before the generic
// job-retry strategy can, and the engine runs only the first supporting
// strategy per pass.
func NewServices(db DB, tc temporalclient.Client, bus *events.Bus, logger zerolog.Logger, jwtSecret, jwtIssuer string) *Services {
	incidents := NewIncidentService(db, bus)
	assets := NewAssetService(db, tc, bus)
	tickets := NewTicketService(db, bus)

	policy := reliability.NewEscalationPolicy(incidents, logger)
	strategies := []reliability.RepairStrategy{
		reliability.NewVisualMetadataStrategy(assets, assets, logger),
		reliability.NewThumbnailRetryStrategy(assets, assets, assets, incidents, logger),
		reliability.NewJobRetryStrategy(assets, assets, assets, incidents, logger),
	}
	engine := reliability.NewEngine(incidents, assets, tickets, policy, strategies, logger)

	return &Services{
		Tenant:     NewTenantService(db),
		Brand:      NewBrandService(db),
		Asset:      assets,
		Incident:   incidents,
		Ticket:     tickets,
		APIKey:     NewAPIKeyService(db),
		Auth:       NewAuthService(db, jwtSecret, jwtIssuer),
		PortalUser: NewPortalUserService(db),
		Search:     NewSearchService(db),
		Dashboard:  NewDashboardService(db),
		Engine:     engine,
		Bus:        bus,
	}
}
