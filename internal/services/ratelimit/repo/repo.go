// Package repo provides the rate limit attempt log
package repo

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
)

// Repo is the attempt log persistence surface
type Repo interface {
	CountSince(ctx context.Context, key string, since time.Time) (int, error)
	Insert(ctx context.Context, key string, at time.Time) error
	OldestSince(ctx context.Context, key string, since time.Time) (time.Time, error)
}

type (
	// PG is a Postgres implementation of the attempt log
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// CountSince counts attempts for key strictly after since
func (r *queries) CountSince(ctx context.Context, key string, since time.Time) (int, error) {
	const sql = `SELECT COUNT(*) FROM rate_limit_attempts WHERE limiter_key = $1 AND attempted_at > $2`
	n, err := store.Scalar[int64](ctx, r.q, sql, key, since)
	if err != nil {
		return 0, perr.FromPostgres(err, "count attempts")
	}
	return int(n), nil
}

// Insert appends one attempt
func (r *queries) Insert(ctx context.Context, key string, at time.Time) error {
	const sql = `INSERT INTO rate_limit_attempts (limiter_key, attempted_at) VALUES ($1, $2)`
	_, err := r.q.Exec(ctx, sql, key, at)
	return perr.FromPostgres(err, "record attempt")
}

// OldestSince returns the earliest attempt inside the window, used for the
// retry-after hint. Zero time when the window is empty
func (r *queries) OldestSince(ctx context.Context, key string, since time.Time) (time.Time, error) {
	const sql = `
		SELECT COALESCE(MIN(attempted_at), 'epoch'::timestamptz)
		FROM rate_limit_attempts
		WHERE limiter_key = $1 AND attempted_at > $2
	`
	t, err := store.Scalar[time.Time](ctx, r.q, sql, key, since)
	if err != nil {
		return time.Time{}, perr.FromPostgres(err, "oldest attempt")
	}
	if t.Unix() == 0 {
		return time.Time{}, nil
	}
	return t, nil
}
