package domain

import "context"

// ServicePort renders the five CSV exports. Replaying any of them against
// unchanged data produces byte-identical output
type ServicePort interface {
	KioskEvents(ctx context.Context, orgID, actorID string, in RangeInput) (Result, error)
	PinAttempts(ctx context.Context, orgID, actorID string, in RangeInput) (Result, error)
	Incidents(ctx context.Context, orgID, actorID string, in RangeInput) (Result, error)
	TimeEntries(ctx context.Context, orgID, actorID string, in RangeInput) (Result, error)
	GeofenceEvents(ctx context.Context, orgID, actorID string, in RangeInput) (Result, error)
}
