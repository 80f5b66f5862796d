package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
)

// APIKeyService manages API keys for the platform API. Only the SHA-256
// hash of a key is ever stored.
type APIKeyService struct {
	db DB
}

func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key, stores the hash, and returns the model
// along with the raw key string. The raw key is shown to the caller exactly
// once.
func (s *APIKeyService) Create(ctx context.Context, name string) (*model.APIKey, string, error) {
	rawKey := platform.NewSecret("mvk")
	return s.createWithKey(ctx, name, rawKey)
}

// CreateWithRawKey stores an API key with a caller-provided raw key value.
// Used for well-known dev/test keys where the raw value must be
// deterministic.
func (s *APIKeyService) CreateWithRawKey(ctx context.Context, name, rawKey string) (*model.APIKey, error) {
	key, _, err := s.createWithKey(ctx, name, rawKey)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *APIKeyService) createWithKey(ctx context.Context, name, rawKey string) (*model.APIKey, string, error) {
	hash := sha256.Sum256([]byte(rawKey))

	key := &model.APIKey{
		ID:        platform.NewID("key"),
		Name:      name,
		KeyHash:   hex.EncodeToString(hash[:]),
		KeyPrefix: rawKey[:12],
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	return key, rawKey, nil
}

func (s *APIKeyService) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	var k model.APIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, name, key_prefix, created_at, last_used_at, revoked_at
		 FROM api_keys WHERE id = $1`, id,
	).Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt, &k.RevokedAt)
	if err != nil {
		return nil, fmt.Errorf("get api key %s: %w", id, err)
	}
	return &k, nil
}

// List retrieves API keys with cursor-based pagination.
func (s *APIKeyService) List(ctx context.Context, limit int, cursor string) ([]model.APIKey, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, name, key_prefix, created_at, last_used_at, revoked_at FROM api_keys WHERE true`
	args := []any{}
	argIdx := 1

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
		return nil, false, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt, &k.RevokedAt); err != nil {
			return nil, false, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate api keys: %w", err)
	}

	hasMore := len(keys) > limit
	if hasMore {
		keys = keys[:limit]
	}
	return keys, hasMore, nil
}

// Revoke soft-deletes an API key by setting revoked_at.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key %s not found or already revoked", id)
	}
	return nil
}

// Authenticate resolves a raw key to its record, rejecting unknown and
// revoked keys. The last-used stamp is best effort.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error) {
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])

	var k model.APIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, name, key_prefix, created_at, last_used_at, revoked_at
		 FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash,
	).Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt, &k.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invalid api key")
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate api key: %w", err)
	}

	_, _ = s.db.Exec(ctx, `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, k.ID)

	return &k, nil
}
