package core

import (
	"context"
	"fmt"
)

// DashboardStats holds aggregate counts for the ops dashboard.
type DashboardStats struct {
	Tenants          int   `json:"tenants"`
	TenantsActive    int   `json:"tenants_active"`
	TenantsSuspended int   `json:"tenants_suspended"`
	Brands           int   `json:"brands"`
	Assets           int   `json:"assets"`
	AssetsProcessing int   `json:"assets_processing"`
	AssetsFailed     int   `json:"assets_failed"`
	Renditions       int   `json:"renditions"`
	StorageBytes     int64 `json:"storage_bytes"`

	AssetsByStatus []StatusCount `json:"assets_by_status"`

	IncidentsOpen         int           `json:"incidents_open"`
	IncidentsCritical     int           `json:"incidents_critical"`
	IncidentsAutoResolved int           `json:"incidents_auto_resolved"`
	IncidentsBySeverity   []StatusCount `json:"incidents_by_severity"`
	TicketsOpen           int           `json:"tickets_open"`
	MTTRMinutes           *float64      `json:"mttr_minutes"`
}

// StatusCount holds a count grouped by status or severity.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DashboardService queries aggregate stats from the database.
type DashboardService struct {
	db DB
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats returns aggregate counts using a single query with CTEs for the
// scalar values plus group-by queries for the breakdowns.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	const countsQuery = `
		WITH tenant_count AS (
			SELECT count(*) AS c FROM tenants
		), tenant_active AS (
			SELECT count(*) AS c FROM tenants WHERE status = 'active'
		), tenant_suspended AS (
			SELECT count(*) AS c FROM tenants WHERE status = 'suspended'
		), brand_count AS (
			SELECT count(*) AS c FROM brands
		), asset_count AS (
			SELECT count(*) AS c FROM assets
		), asset_processing AS (
			SELECT count(*) AS c FROM assets WHERE status = 'processing'
		), asset_failed AS (
			SELECT count(*) AS c FROM assets WHERE status IN ('failed', 'promotion_failed')
		), rendition_count AS (
			SELECT count(*) AS c FROM renditions
		), storage_total AS (
			SELECT COALESCE(sum(size_bytes), 0) AS c FROM assets
		), incident_open AS (
			SELECT count(*) AS c FROM incidents WHERE resolved_at IS NULL
		), incident_critical AS (
			SELECT count(*) AS c FROM incidents WHERE severity = 'critical' AND resolved_at IS NULL
		), incident_auto AS (
			SELECT count(*) AS c FROM incidents WHERE auto_resolved AND resolved_at IS NOT NULL
		), ticket_open AS (
			SELECT count(*) AS c FROM tickets WHERE status = 'open'
		)
		SELECT
			(SELECT c FROM tenant_count),
			(SELECT c FROM tenant_active),
			(SELECT c FROM tenant_suspended),
			(SELECT c FROM brand_count),
			(SELECT c FROM asset_count),
			(SELECT c FROM asset_processing),
			(SELECT c FROM asset_failed),
			(SELECT c FROM rendition_count),
			(SELECT c FROM storage_total),
			(SELECT c FROM incident_open),
			(SELECT c FROM incident_critical),
			(SELECT c FROM incident_auto),
			(SELECT c FROM ticket_open)`

	stats := &DashboardStats{}
	err := s.db.QueryRow(ctx, countsQuery).Scan(
		&stats.Tenants,
		&stats.TenantsActive,
		&stats.TenantsSuspended,
		&stats.Brands,
		&stats.Assets,
		&stats.AssetsProcessing,
		&stats.AssetsFailed,
		&stats.Renditions,
		&stats.StorageBytes,
		&stats.IncidentsOpen,
		&stats.IncidentsCritical,
		&stats.IncidentsAutoResolved,
		&stats.TicketsOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	// Assets by status
	absRows, err := s.db.Query(ctx,
		`SELECT status, count(*) FROM assets GROUP BY status ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard assets by status: %w", err)
	}
	defer absRows.Close()

	for absRows.Next() {
		var sc StatusCount
		if err := absRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan asset status count: %w", err)
		}
		stats.AssetsByStatus = append(stats.AssetsByStatus, sc)
	}
	if err := absRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset status counts: %w", err)
	}

	// Open incidents by severity
	ibsRows, err := s.db.Query(ctx,
		`SELECT severity, count(*) FROM incidents WHERE resolved_at IS NULL
		 GROUP BY severity ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard incidents by severity: %w", err)
	}
	defer ibsRows.Close()

	for ibsRows.Next() {
		var sc StatusCount
		if err := ibsRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan incident severity count: %w", err)
		}
		stats.IncidentsBySeverity = append(stats.IncidentsBySeverity, sc)
	}
	if err := ibsRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incident severity counts: %w", err)
	}

	// MTTR over incidents resolved in the last 30 days
	var mttr *float64
	err = s.db.QueryRow(ctx,
		`SELECT EXTRACT(EPOCH FROM avg(resolved_at - detected_at)) / 60
		 FROM incidents
		 WHERE resolved_at IS NOT NULL AND resolved_at > now() - interval '30 days'`).Scan(&mttr)
	if err == nil {
		stats.MTTRMinutes = mttr
	}

	return stats, nil
}
