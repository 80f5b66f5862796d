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

type PortalUserService struct {
	db DB
}

func NewPortalUserService(db DB) *PortalUserService {
	return &PortalUserService{db: db}
}

// Create inserts a portal user, hashing the supplied password. Emails are
// globally unique so logins need no tenant qualifier.
func (s *PortalUserService) Create(ctx context.Context, user *model.PortalUser, password string) error {
	existing, err := s.FindByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("email %q already registered", user.Email)
	}

	hash, err := hashArgon2(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.ID = platform.NewID("usr")
	user.PasswordHash = hash
	if user.Role == "" {
		user.Role = model.RoleMember
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = s.db.Exec(ctx,
		`INSERT INTO portal_users (id, tenant_id, email, name, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.TenantID, user.Email, user.Name, user.PasswordHash,
		user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert portal user: %w", err)
	}
	return nil
}

func (s *PortalUserService) GetByID(ctx context.Context, id string) (*model.PortalUser, error) {
	var u model.PortalUser
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, email, name, password_hash, role, created_at, updated_at
		 FROM portal_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get portal user %s: %w", id, err)
	}
	return &u, nil
}

// FindByEmail returns nil, nil when no user carries the email.
func (s *PortalUserService) FindByEmail(ctx context.Context, email string) (*model.PortalUser, error) {
	var u model.PortalUser
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, email, name, password_hash, role, created_at, updated_at
		 FROM portal_users WHERE email = $1`, email,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find portal user by email: %w", err)
	}
	return &u, nil
}

func (s *PortalUserService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.PortalUser, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, tenant_id, email, name, password_hash, role, created_at, updated_at
	          FROM portal_users WHERE tenant_id = $1`
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
		return nil, false, fmt.Errorf("list portal users for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var users []model.PortalUser
	for rows.Next() {
		var u model.PortalUser
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash,
			&u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan portal user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate portal users: %w", err)
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}
	return users, hasMore, nil
}

func (s *PortalUserService) Update(ctx context.Context, user *model.PortalUser) error {
	_, err := s.db.Exec(ctx,
		`UPDATE portal_users SET name = $1, role = $2, updated_at = now() WHERE id = $3`,
		user.Name, user.Role, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update portal user %s: %w", user.ID, err)
	}
	return nil
}

// SetPassword replaces the stored password hash.
func (s *PortalUserService) SetPassword(ctx context.Context, id, password string) error {
	hash, err := hashArgon2(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`UPDATE portal_users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("set portal user %s password: %w", id, err)
	}
	return nil
}

func (s *PortalUserService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM portal_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portal user %s: %w", id, err)
	}
	return nil
}
