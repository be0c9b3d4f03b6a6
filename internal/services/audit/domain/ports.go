package domain

import (
	"context"

	"brigade/internal/modkit/repokit"
)

// RecorderPort appends audit entries; writes join the caller's transaction
// when a tx-bound Queryer is passed
type RecorderPort interface {
	Record(ctx context.Context, q repokit.Queryer, e Entry) error
}

// ReaderPort queries audit entries with stable keyset pagination
type ReaderPort interface {
	List(ctx context.Context, orgID string, f Filter) ([]Entry, error)
}

// ServicePort is the full audit surface
type ServicePort interface {
	RecorderPort
	ReaderPort
}
