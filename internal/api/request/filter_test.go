package request

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		defaultSort string
		want        ListParams
	}{
		{
			name:        "defaults",
			defaultSort: "created_at",
			want:        ListParams{Limit: DefaultLimit, Sort: "created_at", Order: "desc"},
		},
		{
			name:        "all params",
			query:       "?limit=25&cursor=abc123&search=my-tenant&status=active&sort=name&order=asc",
			defaultSort: "created_at",
			want:        ListParams{Limit: 25, Cursor: "abc123", Search: "my-tenant", Status: "active", Sort: "name", Order: "asc"},
		},
		{
			name:        "caller default sort",
			defaultSort: "uploaded_at",
			want:        ListParams{Limit: DefaultLimit, Sort: "uploaded_at", Order: "desc"},
		},
		{
			name:        "invalid order falls back to desc",
			query:       "?order=sideways",
			defaultSort: "created_at",
			want:        ListParams{Limit: DefaultLimit, Sort: "created_at", Order: "desc"},
		},
		{
			name:        "status filter",
			query:       "?status=suspended",
			defaultSort: "created_at",
			want:        ListParams{Limit: DefaultLimit, Status: "suspended", Sort: "created_at", Order: "desc"},
		},
		{
			name:        "limit clamped",
			query:       "?limit=500",
			defaultSort: "created_at",
			want:        ListParams{Limit: MaxLimit, Sort: "created_at", Order: "desc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/tenants"+tt.query, nil)
			assert.Equal(t, tt.want, ParseListParams(r, tt.defaultSort))
		})
	}
}

func TestStringOr(t *testing.T) {
	assert.Equal(t, "hello", stringOr("hello", "world"))
	assert.Equal(t, "world", stringOr("", "world"))
}
