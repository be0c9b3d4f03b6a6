package domain

import "context"

// ServicePort is the compliance surface
type ServicePort interface {
	// Evaluate scans completed entries in the range and files incidents.
	// Re-running the same range never duplicates; repeats count as skipped
	Evaluate(ctx context.Context, orgID, actorID string, in EvaluateInput) (Summary, error)

	List(ctx context.Context, orgID string, f IncidentFilter) ([]Incident, error)
	SetResolved(ctx context.Context, orgID, actorID, incidentID string, resolved bool) (Incident, error)
}
