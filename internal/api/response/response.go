package response

import (
	"encoding/json"
	"net/http"
	"reflect"
)

// ErrorResponse is the error envelope returned by every failing endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v with the given status. The status line is already on
// the wire when encoding runs, so encode errors only truncate the body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// PaginatedResponse wraps a list with pagination metadata.
type PaginatedResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes a paginated JSON response. Nil item slices render
// as an empty array, never as null.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, PaginatedResponse{
		Items:      emptyIfNil(items),
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}

func emptyIfNil(items any) any {
	if items == nil {
		return []any{}
	}
	if rv := reflect.ValueOf(items); rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}
	}
	return items
}
