package core

import (
	"context"
	"fmt"
	"time"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
)

// DefaultStorageQuotaBytes applies when a tenant is created without an
// explicit quota.
const DefaultStorageQuotaBytes = 50 << 30

type TenantService struct {
	db DB
}

func NewTenantService(db DB) *TenantService {
	return &TenantService{db: db}
}

func (s *TenantService) Create(ctx context.Context, tenant *model.Tenant) error {
	tenant.ID = platform.NewID("tnt")
	if tenant.Status == "" {
		tenant.Status = model.TenantActive
	}
	if tenant.StorageQuotaBytes <= 0 {
		tenant.StorageQuotaBytes = DefaultStorageQuotaBytes
	}
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, status, storage_quota_bytes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tenant.ID, tenant.Name, tenant.Status, tenant.StorageQuotaBytes,
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *TenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, name, status, storage_quota_bytes, created_at, updated_at
		 FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Status, &t.StorageQuotaBytes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return &t, nil
}

func (s *TenantService) List(ctx context.Context, params request.ListParams) ([]model.Tenant, bool, error) {
	query := `SELECT id, name, status, storage_quota_bytes, created_at, updated_at FROM tenants WHERE true`
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		query += fmt.Sprintf(` AND (id ILIKE $%d OR name ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}

	sortCol := "created_at"
	switch params.Sort {
	case "name":
		sortCol = "name"
	case "status":
		sortCol = "status"
	case "created_at":
		sortCol = "created_at"
	}
	order := "DESC"
	if params.Order == "asc" {
		order = "ASC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, sortCol, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.StorageQuotaBytes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate tenants: %w", err)
	}

	hasMore := len(tenants) > params.Limit
	if hasMore {
		tenants = tenants[:params.Limit]
	}
	return tenants, hasMore, nil
}

func (s *TenantService) Update(ctx context.Context, tenant *model.Tenant) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tenants SET name = $1, storage_quota_bytes = $2, updated_at = now() WHERE id = $3`,
		tenant.Name, tenant.StorageQuotaBytes, tenant.ID,
	)
	if err != nil {
		return fmt.Errorf("update tenant %s: %w", tenant.ID, err)
	}
	return nil
}

func (s *TenantService) Suspend(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`,
		model.TenantSuspended, id,
	)
	if err != nil {
		return fmt.Errorf("suspend tenant %s: %w", id, err)
	}
	return nil
}

func (s *TenantService) Unsuspend(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`,
		model.TenantActive, id,
	)
	if err != nil {
		return fmt.Errorf("unsuspend tenant %s: %w", id, err)
	}
	return nil
}

// Delete removes the tenant; brands, assets, and portal users cascade at the
// database level.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tenant %s: %w", id, err)
	}
	return nil
}
