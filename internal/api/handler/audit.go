package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/api/response"
)

// AuditLog is one recorded write request: who called, what they touched and
// what came back.
type AuditLog struct {
	ID           string          `json:"id"`
	APIKeyID     *string         `json:"api_key_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	ResourceType *string         `json:"resource_type,omitempty"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	StatusCode   int             `json:"status_code"`
	RequestBody  json.RawMessage `json:"request_body,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Audit serves the audit trail recorded by the audit middleware. It reads the
// table directly; the write side never goes through a service.
type Audit struct {
	pool *pgxpool.Pool
}

func NewAudit(pool *pgxpool.Pool) *Audit {
	return &Audit{pool: pool}
}

// auditSortColumns maps accepted sort keys to their columns.
var auditSortColumns = map[string]string{
	"created_at":    "created_at",
	"method":        "method",
	"resource_type": "resource_type",
}

// List godoc
//
//	@Summary		List audit log entries
//	@Description	Returns the recorded write requests, newest first. Filterable by resource, HTTP method, acting API key and time window; search matches the request path or resource type.
//	@Tags			Audit Logs
//	@Security		ApiKeyAuth
//	@Param			resource_type	query		string	false	"Filter by resource type"
//	@Param			resource_id		query		string	false	"Filter by resource ID"
//	@Param			method			query		string	false	"Filter by HTTP method"
//	@Param			api_key_id		query		string	false	"Filter by acting API key"
//	@Param			date_from		query		string	false	"Entries at or after this timestamp"
//	@Param			date_to			query		string	false	"Entries at or before this timestamp"
//	@Param			search			query		string	false	"Search in path or resource type"
//	@Param			sort			query		string	false	"Sort field (created_at, method, resource_type)"
//	@Param			order			query		string	false	"Sort order (asc, desc)"
//	@Param			limit			query		int		false	"Page size"	default(50)
//	@Param			cursor			query		string	false	"Pagination cursor"
//	@Success		200				{object}	response.PaginatedResponse{items=[]handler.AuditLog}
//	@Failure		500				{object}	response.ErrorResponse
//	@Router			/audit-logs [get]
func (h *Audit) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "created_at")
	q := r.URL.Query()

	var conditions []string
	var args []any
	argN := 1

	add := func(cond string, vals ...any) {
		conditions = append(conditions, cond)
		args = append(args, vals...)
		argN += len(vals)
	}

	if v := q.Get("resource_type"); v != "" {
		add(fmt.Sprintf("resource_type = $%d", argN), v)
	}
	if v := q.Get("resource_id"); v != "" {
		add(fmt.Sprintf("resource_id = $%d", argN), v)
	}
	if v := q.Get("method"); v != "" {
		add(fmt.Sprintf("method = $%d", argN), strings.ToUpper(v))
	}
	if v := q.Get("api_key_id"); v != "" {
		add(fmt.Sprintf("api_key_id = $%d", argN), v)
	}
	if v := q.Get("date_from"); v != "" {
		add(fmt.Sprintf("created_at >= $%d", argN), v)
	}
	if v := q.Get("date_to"); v != "" {
		add(fmt.Sprintf("created_at <= $%d", argN), v)
	}
	if params.Search != "" {
		add(fmt.Sprintf("(path ILIKE $%d OR resource_type ILIKE $%d)", argN, argN+1),
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	sortCol, ok := auditSortColumns[params.Sort]
	if !ok {
		sortCol = "created_at"
	}
	dir, cmp := "DESC", "<"
	if params.Order == "asc" {
		dir, cmp = "ASC", ">"
	}

	if params.Cursor != "" {
		add(fmt.Sprintf("%s %s (SELECT %s FROM audit_logs WHERE id = $%d)", sortCol, cmp, sortCol, argN),
			params.Cursor)
	}

	query := `SELECT id, api_key_id, method, path, resource_type, resource_id, status_code, request_body, created_at
	          FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d", sortCol, dir, argN)
	args = append(args, params.Limit+1)

	rows, err := h.pool.Query(r.Context(), query, args...)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.APIKeyID, &l.Method, &l.Path, &l.ResourceType,
			&l.ResourceID, &l.StatusCode, &l.RequestBody, &l.CreatedAt); err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hasMore := len(logs) > params.Limit
	if hasMore {
		logs = logs[:params.Limit]
	}
	var nextCursor string
	if hasMore && len(logs) > 0 {
		nextCursor = logs[len(logs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, logs, nextCursor, hasMore)
}
