package request

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit applies when the client sends no usable limit.
	DefaultLimit = 50
	// MaxLimit caps page sizes so a single request cannot drag the whole
	// asset table across the wire.
	MaxLimit = 100
)

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Cursor string
}

// ParsePagination reads limit and cursor from the query string. Non-numeric
// and out-of-range limits fall back to the default rather than erroring.
func ParsePagination(r *http.Request) Pagination {
	return Pagination{
		Limit:  clampLimit(r.URL.Query().Get("limit")),
		Cursor: r.URL.Query().Get("cursor"),
	}
}

func clampLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}
