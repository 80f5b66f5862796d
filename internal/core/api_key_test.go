package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ---------- Create ----------

func TestAPIKeyService_Create_StoresHashNotKey(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	var gotArgs []any
	db.On("Exec", ctx, sqlContains("INSERT INTO api_keys"), mock.MatchedBy(func(args []any) bool {
		gotArgs = args
		return true
	})).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	key, rawKey, err := svc.Create(ctx, "ci pipeline")
	require.NoError(t, err)

	assert.Regexp(t, `^key_[0-9a-f]{32}$`, key.ID)
	assert.True(t, strings.HasPrefix(rawKey, "mvk_"))
	assert.Equal(t, rawKey[:12], key.KeyPrefix)

	wantHash := sha256.Sum256([]byte(rawKey))
	assert.Equal(t, hex.EncodeToString(wantHash[:]), key.KeyHash)

	// The raw key never reaches the database.
	for _, arg := range gotArgs {
		if s, ok := arg.(string); ok {
			assert.NotEqual(t, rawKey, s)
		}
	}
	db.AssertExpectations(t)
}

func TestAPIKeyService_CreateWithRawKey_Deterministic(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	key, err := svc.CreateWithRawKey(ctx, "dev seed", "mvk_00000000deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "mvk_00000000", key.KeyPrefix)
}

// ---------- Revoke ----------

func TestAPIKeyService_Revoke_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, sqlContains("revoked_at IS NULL"), []any{"key_1"}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	require.NoError(t, svc.Revoke(ctx, "key_1"))
	db.AssertExpectations(t)
}

func TestAPIKeyService_Revoke_AlreadyRevoked(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(ctx, "key_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or already revoked")
}

// ---------- Authenticate ----------

func TestAPIKeyService_Authenticate_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	rawKey := "mvk_00000000deadbeef"
	hash := sha256.Sum256([]byte(rawKey))

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "key_1"
		*(dest[1].(*string)) = "ci pipeline"
		return nil
	}}
	db.On("QueryRow", ctx, sqlContains("WHERE key_hash = $1 AND revoked_at IS NULL"),
		[]any{hex.EncodeToString(hash[:])}).Return(row)
	db.On("Exec", ctx, sqlContains("last_used_at = now()"), []any{"key_1"}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	key, err := svc.Authenticate(ctx, rawKey)
	require.NoError(t, err)
	assert.Equal(t, "key_1", key.ID)
	db.AssertExpectations(t)
}

func TestAPIKeyService_Authenticate_UnknownKey(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.Anything, mock.Anything).Return(errNoRowsRow())

	key, err := svc.Authenticate(ctx, "mvk_bogus")
	require.Error(t, err)
	assert.Nil(t, key)
	assert.EqualError(t, err, "invalid api key")
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestAPIKeyService_Authenticate_LastUsedFailureIgnored(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "key_1"
		return nil
	}}
	db.On("QueryRow", ctx, mock.Anything, mock.Anything).Return(row)
	db.On("Exec", ctx, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("write timeout"))

	key, err := svc.Authenticate(ctx, "mvk_whatever")
	require.NoError(t, err)
	assert.Equal(t, "key_1", key.ID)
}

// ---------- List ----------

func TestAPIKeyService_List_NeverSelectsHash(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	var gotSQL string
	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		gotSQL = sql
		return true
	}), mock.Anything).Return(newEmptyMockRows(), nil)

	_, _, err := svc.List(ctx, 10, "")
	require.NoError(t, err)
	assert.NotContains(t, gotSQL, "key_hash")
}
