package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
)

// TicketService manages support tickets, including the ones the reliability
// engine opens when an incident escalates past the repair chain.
type TicketService struct {
	db  DB
	bus *events.Bus
}

func NewTicketService(db DB, bus *events.Bus) *TicketService {
	return &TicketService{db: db, bus: bus}
}

// CreateFromIncident opens a ticket describing the incident, mapping its
// severity onto a ticket priority.
func (s *TicketService) CreateFromIncident(ctx context.Context, inc *model.Incident) (*model.Ticket, error) {
	body := inc.Message
	if body == "" {
		body = fmt.Sprintf("Incident %s (%s on %s) was not cleared by automated repair.",
			inc.ID, inc.Severity, inc.SourceType)
	}

	incidentID := inc.ID
	tkt := &model.Ticket{
		TenantID:   inc.TenantID,
		IncidentID: &incidentID,
		Subject:    inc.Title,
		Body:       body,
		Status:     model.TicketOpen,
		Priority:   priorityForSeverity(inc.Severity),
	}
	if err := s.Create(ctx, tkt); err != nil {
		return nil, err
	}
	return tkt, nil
}

func (s *TicketService) Create(ctx context.Context, tkt *model.Ticket) error {
	tkt.ID = platform.NewID("tkt")
	if tkt.Status == "" {
		tkt.Status = model.TicketOpen
	}
	if tkt.Priority == "" {
		tkt.Priority = model.TicketPriorityNormal
	}
	now := time.Now()
	tkt.CreatedAt = now
	tkt.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO tickets (id, tenant_id, incident_id, subject, body, status, priority, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tkt.ID, tkt.TenantID, tkt.IncidentID, tkt.Subject, tkt.Body,
		tkt.Status, tkt.Priority, tkt.CreatedAt, tkt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	evt := events.Event{Type: events.TicketCreated, Payload: tkt}
	if tkt.TenantID != nil {
		evt.TenantID = *tkt.TenantID
	}
	s.bus.Publish(evt)
	return nil
}

func (s *TicketService) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, incident_id, subject, body, status, priority, created_at, updated_at, closed_at
		 FROM tickets WHERE id = $1`, id,
	).Scan(&t.ID, &t.TenantID, &t.IncidentID, &t.Subject, &t.Body,
		&t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt, &t.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	return &t, nil
}

// TicketFilters holds optional filters for listing tickets.
type TicketFilters struct {
	TenantID string
	Status   string
	Priority string
}

// List returns tickets with optional filters, newest first, paginated.
func (s *TicketService) List(ctx context.Context, filters TicketFilters, limit int, cursor string) ([]model.Ticket, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, tenant_id, incident_id, subject, body, status, priority, created_at, updated_at, closed_at
	          FROM tickets`

	var conditions []string
	var args []any
	argN := 1

	if filters.TenantID != "" {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argN))
		args = append(args, filters.TenantID)
		argN++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argN))
		args = append(args, filters.Status)
		argN++
	}
	if filters.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argN))
		args = append(args, filters.Priority)
		argN++
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM tickets WHERE id = $%d)", argN))
		args = append(args, cursor)
		argN++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argN)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.TenantID, &t.IncidentID, &t.Subject, &t.Body,
			&t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt, &t.ClosedAt); err != nil {
			return nil, false, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate tickets: %w", err)
	}

	hasMore := len(tickets) > limit
	if hasMore {
		tickets = tickets[:limit]
	}
	return tickets, hasMore, nil
}

// Close marks the ticket closed; the closed_at guard keeps the original
// close time on repeat calls.
func (s *TicketService) Close(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tickets SET status = $1, closed_at = now(), updated_at = now()
		 WHERE id = $2 AND closed_at IS NULL`,
		model.TicketClosed, id,
	)
	if err != nil {
		return fmt.Errorf("close ticket %s: %w", id, err)
	}
	return nil
}

func priorityForSeverity(severity model.Severity) string {
	switch model.ParseSeverity(string(severity)) {
	case model.SeverityCritical:
		return model.TicketPriorityUrgent
	case model.SeverityError:
		return model.TicketPriorityHigh
	case model.SeverityWarning:
		return model.TicketPriorityNormal
	default:
		return model.TicketPriorityLow
	}
}
