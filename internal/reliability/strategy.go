// Package reliability implements incident classification, age-based
// escalation, ticket gating, and the self-healing repair-strategy chain.
//
// The engine owns no persistence of its own: incidents, assets, tickets, and
// job dispatch are reached through narrow collaborator ports implemented by
// internal/core. All mutating operations are safe to call redundantly; a
// resolved incident is terminal and every entry point degrades to a no-op on
// it.
package reliability

import (
	"context"

	"github.com/solvik/mediavault/internal/model"
)

// Change describes a single field transition observed during reconciliation
// or repair.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// RepairResult is the outcome of one strategy attempt. Immutable once
// constructed.
type RepairResult struct {
	Resolved bool     `json:"resolved"`
	Changes  []Change `json:"changes,omitempty"`
}

// RepairStrategy recognizes a class of incidents and attempts an automated
// fix. Supports must stay cheap and side-effect free; Attempt may reconcile
// asset state and dispatch asynchronous work. A missing subject is "no
// progress", never an error.
type RepairStrategy interface {
	Name() string
	Supports(inc *model.Incident) bool
	Attempt(ctx context.Context, inc *model.Incident) (RepairResult, error)
}
