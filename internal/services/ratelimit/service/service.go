// Package service implements the sliding-window rate limiter
package service

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/services/ratelimit/domain"
	rrepo "brigade/internal/services/ratelimit/repo"
)

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[rrepo.Repo]
	now    func() time.Time
}

// New constructs the limiter
func New(db repokit.TxRunner) *Svc {
	if db == nil {
		panic("ratelimit service requires a TxRunner")
	}
	return &Svc{db: db, binder: rrepo.NewPG(), now: time.Now}
}

// Check counts attempts inside the window and decides. Two parallel checks
// just past the threshold may both pass; the off-by-one is accepted
func (s *Svc) Check(
	ctx context.Context, q repokit.Queryer, key string, window time.Duration, limit int,
) (domain.Decision, error) {
	if key == "" {
		return domain.Decision{}, perr.Validationf("limiter key required")
	}
	if window <= 0 || limit <= 0 {
		return domain.Decision{}, perr.Validationf("window and limit must be positive")
	}
	repo := s.bind(q)
	now := s.now().UTC()
	since := now.Add(-window)

	n, err := repo.CountSince(ctx, key, since)
	if err != nil {
		return domain.Decision{}, err
	}
	if n >= limit {
		retry := window
		if oldest, oerr := repo.OldestSince(ctx, key, since); oerr == nil && !oldest.IsZero() {
			retry = oldest.Add(window).Sub(now)
			if retry < 0 {
				retry = 0
			}
		}
		return domain.Decision{Allowed: false, Remaining: 0, RetryIn: retry}, nil
	}
	return domain.Decision{Allowed: true, Remaining: limit - n - 1}, nil
}

// Record appends one attempt at the current instant
func (s *Svc) Record(ctx context.Context, q repokit.Queryer, key string) error {
	if key == "" {
		return perr.Validationf("limiter key required")
	}
	return s.bind(q).Insert(ctx, key, s.now().UTC())
}

func (s *Svc) bind(q repokit.Queryer) rrepo.Repo {
	if q != nil {
		return s.binder.Bind(q)
	}
	return s.binder.Bind(s.db)
}
