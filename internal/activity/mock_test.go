package activity

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// sqlContains matches a query by substring, to tell apart the different
// statements a service issues against the same mock.
func sqlContains(sub string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, sub)
	})
}

// ---------- Mock DB ----------

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

func errNoRowsRow() *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

// ---------- Mock Rows ----------

type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// assetScan fills the full assets SELECT column list. Width and height may
// be nil for unprobed assets.
func assetScan(id, tenantID, mimeType, storageKey, status, analysisStatus string, width, height *int) func(dest ...any) error {
	return func(dest ...any) error {
		now := time.Now()
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = tenantID
		*(dest[2].(**string)) = nil
		*(dest[3].(*string)) = "Test Asset"
		*(dest[4].(*string)) = "photo.png"
		*(dest[5].(*string)) = mimeType
		*(dest[6].(*int64)) = 2048
		*(dest[7].(*string)) = "sha256:abc"
		*(dest[8].(*string)) = storageKey
		*(dest[9].(*string)) = status
		*(dest[10].(*string)) = analysisStatus
		*(dest[11].(**int)) = width
		*(dest[12].(**int)) = height
		*(dest[13].(*bool)) = false
		*(dest[14].(*int)) = 0
		*(dest[15].(*time.Time)) = now
		*(dest[16].(*time.Time)) = now
		return nil
	}
}

func assetRow(id, tenantID, mimeType, storageKey, status, analysisStatus string, width, height *int) *mockRow {
	return &mockRow{scanFunc: assetScan(id, tenantID, mimeType, storageKey, status, analysisStatus, width, height)}
}

// ---------- Mock object store ----------

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Head(ctx context.Context, key string) (int64, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *mockObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	return m.Called(ctx, key, contentType, body).Error(0)
}

func (m *mockObjectStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	return m.Called(ctx, srcKey, dstKey).Error(0)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockObjectStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
