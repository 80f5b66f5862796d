package request

import "net/http"

// ListParams holds pagination, search, filter, and sort parameters.
type ListParams struct {
	Limit  int
	Cursor string
	Search string
	Status string
	Sort   string
	Order  string // "asc" or "desc"
}

// ParseListParams extracts list parameters from the query string.
// defaultSort names the column used when the client does not choose one;
// callers whitelist the sort value against their own column set.
func ParseListParams(r *http.Request, defaultSort string) ListParams {
	q := r.URL.Query()
	pg := ParsePagination(r)

	return ListParams{
		Limit:  pg.Limit,
		Cursor: pg.Cursor,
		Search: q.Get("search"),
		Status: q.Get("status"),
		Sort:   stringOr(q.Get("sort"), defaultSort),
		Order:  parseOrder(q.Get("order")),
	}
}

// parseOrder normalizes the sort direction, defaulting to newest first.
func parseOrder(raw string) string {
	if raw == "asc" {
		return "asc"
	}
	return "desc"
}

func stringOr(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
