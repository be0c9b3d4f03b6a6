package domain

import "context"

// ServicePort resolves and mutates per-org workforce policy
type ServicePort interface {
	Resolve(ctx context.Context, orgID string) (Policy, error)
	Update(ctx context.Context, orgID, actorID string, options map[string]string) (Policy, error)
}
