package domain

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
)

// ServicePort is the timeclock surface. The kiosk ingest path and the
// authenticated API both drive the same state machine through it
type ServicePort interface {
	ClockIn(ctx context.Context, orgID, userID string, in ClockInInput) (TimeEntry, error)
	ClockOut(ctx context.Context, orgID, userID string, in ClockOutInput) (TimeEntry, error)
	StartBreak(ctx context.Context, orgID, userID string) (BreakEntry, error)
	EndBreak(ctx context.Context, orgID, userID string) (BreakEntry, error)
	Status(ctx context.Context, orgID, userID string) (Status, error)

	// StateFor and ApplyEvent run inside the caller's transaction; the
	// kiosk batch path uses them for sequence validation and replay
	StateFor(ctx context.Context, q repokit.Queryer, orgID, userID string) (ClockState, error)
	ApplyEvent(ctx context.Context, q repokit.Queryer, orgID, userID, branchID string, kind EventKind, at time.Time, method Method) (timeEntryID, breakEntryID string, err error)
}
