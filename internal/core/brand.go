package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
)

type BrandService struct {
	db DB
}

func NewBrandService(db DB) *BrandService {
	return &BrandService{db: db}
}

// Create inserts a brand. Slugs are unique per tenant; a unique index backs
// the pre-check for concurrent creates.
func (s *BrandService) Create(ctx context.Context, brand *model.Brand) error {
	taken, err := s.slugTaken(ctx, brand.TenantID, brand.Slug, "")
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("brand slug %q already in use", brand.Slug)
	}

	brand.ID = platform.NewID("brd")
	now := time.Now()
	brand.CreatedAt = now
	brand.UpdatedAt = now

	_, err = s.db.Exec(ctx,
		`INSERT INTO brands (id, tenant_id, name, slug, accent_color, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		brand.ID, brand.TenantID, brand.Name, brand.Slug, brand.AccentColor,
		brand.CreatedAt, brand.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert brand: %w", err)
	}
	return nil
}

func (s *BrandService) GetByID(ctx context.Context, id string) (*model.Brand, error) {
	var b model.Brand
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, name, slug, accent_color, created_at, updated_at
		 FROM brands WHERE id = $1`, id,
	).Scan(&b.ID, &b.TenantID, &b.Name, &b.Slug, &b.AccentColor, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get brand %s: %w", id, err)
	}
	return &b, nil
}

func (s *BrandService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Brand, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, tenant_id, name, slug, accent_color, created_at, updated_at
	          FROM brands WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list brands for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var brands []model.Brand
	for rows.Next() {
		var b model.Brand
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.Slug, &b.AccentColor, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate brands: %w", err)
	}

	hasMore := len(brands) > limit
	if hasMore {
		brands = brands[:limit]
	}
	return brands, hasMore, nil
}

func (s *BrandService) Update(ctx context.Context, brand *model.Brand) error {
	taken, err := s.slugTaken(ctx, brand.TenantID, brand.Slug, brand.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("brand slug %q already in use", brand.Slug)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE brands SET name = $1, slug = $2, accent_color = $3, updated_at = now() WHERE id = $4`,
		brand.Name, brand.Slug, brand.AccentColor, brand.ID,
	)
	if err != nil {
		return fmt.Errorf("update brand %s: %w", brand.ID, err)
	}
	return nil
}

// Delete removes the brand; assets referencing it fall back to no brand.
func (s *BrandService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand %s: %w", id, err)
	}
	return nil
}

func (s *BrandService) slugTaken(ctx context.Context, tenantID, slug, excludeID string) (bool, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM brands WHERE tenant_id = $1 AND slug = $2 AND id != $3`,
		tenantID, slug, excludeID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check brand slug: %w", err)
	}
	return true, nil
}
