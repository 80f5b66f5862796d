package model

import "time"

// Ticket statuses.
const (
	TicketOpen   = "open"
	TicketClosed = "closed"
)

// Ticket priorities.
const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// Ticket is a human-facing support item, typically created by escalating an
// incident the automated repair chain could not clear.
type Ticket struct {
	ID         string     `json:"id" db:"id"`
	TenantID   *string    `json:"tenant_id,omitempty" db:"tenant_id"`
	IncidentID *string    `json:"incident_id,omitempty" db:"incident_id"`
	Subject    string     `json:"subject" db:"subject"`
	Body       string     `json:"body" db:"body"`
	Status     string     `json:"status" db:"status"`
	Priority   string     `json:"priority" db:"priority"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}
