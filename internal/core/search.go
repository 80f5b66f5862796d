package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SearchResult represents a single search result across entity types.
type SearchResult struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Label    string `json:"label"`
	TenantID string `json:"tenant_id,omitempty"`
	Status   string `json:"status"`
}

// SearchService provides cross-entity search.
type SearchService struct {
	db DB
}

// NewSearchService creates a new SearchService.
func NewSearchService(db DB) *SearchService {
	return &SearchService{db: db}
}

// Search runs parallel queries across entity tables and returns matching
// results.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + query + "%"

	type queryDef struct {
		sql  string
		args []any
	}

	queries := []queryDef{
		{
			sql: `SELECT 'tenant', id, name, id, status FROM tenants
				WHERE id ILIKE $1 OR name ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'brand', id, name, tenant_id, '' FROM brands
				WHERE id ILIKE $1 OR name ILIKE $1 OR slug ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'asset', id, title, tenant_id, status FROM assets
				WHERE id ILIKE $1 OR title ILIKE $1 OR original_filename ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'incident', id, title, COALESCE(tenant_id, ''),
				CASE WHEN resolved_at IS NULL THEN 'open' ELSE 'resolved' END
				FROM incidents
				WHERE id ILIKE $1 OR title ILIKE $1 OR source_id ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
		{
			sql: `SELECT 'ticket', id, subject, COALESCE(tenant_id, ''), status FROM tickets
				WHERE id ILIKE $1 OR subject ILIKE $1
				LIMIT $2`,
			args: []any{pattern, limit},
		},
	}

	results := make([][]SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		g.Go(func() error {
			rows, err := s.db.Query(ctx, q.sql, q.args...)
			if err != nil {
				return fmt.Errorf("search query %d: %w", i, err)
			}
			defer rows.Close()

			for rows.Next() {
				var r SearchResult
				if err := rows.Scan(&r.Type, &r.ID, &r.Label, &r.TenantID, &r.Status); err != nil {
					return fmt.Errorf("scan search result: %w", err)
				}
				results[i] = append(results[i], r)
			}
			return rows.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var all []SearchResult
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all, nil
}
