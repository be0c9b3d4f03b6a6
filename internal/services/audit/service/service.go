// Package service implements the audit recorder and reader
package service

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/services/audit/domain"
	arepo "brigade/internal/services/audit/repo"
)

// Svc records and reads audit entries
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[arepo.Repo]
	repo   arepo.Repo
}

// New constructs the service; panics on nil db
func New(db repokit.TxRunner) *Svc {
	if db == nil {
		panic("audit service requires a TxRunner")
	}
	b := arepo.NewPG()
	return &Svc{
		db:     db,
		binder: b,
		repo:   b.Bind(db),
	}
}

// Record appends one entry using the caller's Queryer so the write joins
// whatever transaction is already open. A nil q falls back to the pool
func (s *Svc) Record(ctx context.Context, q repokit.Queryer, e domain.Entry) error {
	if e.OrgID == "" {
		return perr.Validationf("audit entry requires org id")
	}
	if e.Action == "" {
		return perr.Validationf("audit entry requires action")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	repo := s.repo
	if q != nil {
		repo = s.binder.Bind(q)
	}
	return repo.Insert(ctx, e)
}

// List queries entries for the org with the given filter
func (s *Svc) List(ctx context.Context, orgID string, f domain.Filter) ([]domain.Entry, error) {
	if orgID == "" {
		return nil, perr.Validationf("org id required")
	}
	return s.repo.List(ctx, orgID, f)
}
