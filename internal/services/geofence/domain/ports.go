package domain

import (
	"context"

	"brigade/internal/modkit/repokit"
)

// ServicePort is the geofence surface other modules consume
type ServicePort interface {
	// Evaluate decides one clock attempt and logs the decision event.
	// A non-nil q joins the caller's transaction
	Evaluate(ctx context.Context, q repokit.Queryer, orgID string, in EvaluateInput) (Evaluation, error)

	// Override marks the time entry as manager-bypassed and logs an
	// OVERRIDE event plus an audit entry in one transaction
	Override(ctx context.Context, orgID, actorID string, actorLevel int, in OverrideInput) error

	UpsertConfig(ctx context.Context, orgID, actorID string, in UpsertConfigInput) (Config, error)
	ConfigByBranch(ctx context.Context, orgID, branchID string) (Config, bool, error)
	Events(ctx context.Context, orgID string, f EventFilter) ([]Event, error)
}

// EventFilter narrows event reads
type EventFilter struct {
	BranchID string
	UserID   string
	Type     EventType
	Limit    int
}
