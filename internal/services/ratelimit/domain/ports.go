// Package domain holds the rate limiter contract
package domain

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
)

// Decision is the outcome of one limiter check
type Decision struct {
	Allowed   bool          `json:"allowed"`
	Remaining int           `json:"remaining"`
	RetryIn   time.Duration `json:"retry_in,omitempty"`
}

// ServicePort is a DB-backed sliding-window counter. No in-memory state,
// no background eviction; every check is a COUNT over the attempt log.
// Callers decide what counts as an attempt: only recorded attempts weigh
// against the limit, so failure-only policies just skip Record on success
type ServicePort interface {
	Check(ctx context.Context, q repokit.Queryer, key string, window time.Duration, limit int) (Decision, error)
	Record(ctx context.Context, q repokit.Queryer, key string) error
}
