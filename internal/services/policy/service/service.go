// Package service resolves per-org workforce policy over defaults
package service

import (
	"context"
	"sort"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/policy/domain"
	prepo "brigade/internal/services/policy/repo"
)

// Svc resolves and updates workforce policy
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[prepo.Repo]
	repo   prepo.Repo
	audit  adomain.RecorderPort
}

// New constructs the service; audit may be nil in tests
func New(db repokit.TxRunner, audit adomain.RecorderPort) *Svc {
	if db == nil {
		panic("policy service requires a TxRunner")
	}
	b := prepo.NewPG()
	return &Svc{db: db, binder: b, repo: b.Bind(db), audit: audit}
}

// Resolve merges stored rows over defaults. Malformed stored rows fail loud
// rather than silently reverting to defaults
func (s *Svc) Resolve(ctx context.Context, orgID string) (domain.Policy, error) {
	if orgID == "" {
		return domain.Policy{}, perr.Validationf("org id required")
	}
	rows, err := s.repo.Rows(ctx, orgID)
	if err != nil {
		return domain.Policy{}, err
	}
	p := domain.Defaults()
	for _, row := range rows {
		if err := p.Apply(row.Key, row.Value); err != nil {
			return domain.Policy{}, perr.Wrapf(err, perr.ErrorCodeDB, "stored policy row %s", row.Key)
		}
	}
	return p, nil
}

// Update validates and persists the given options in one transaction,
// then returns the freshly resolved policy
func (s *Svc) Update(ctx context.Context, orgID, actorID string, options map[string]string) (domain.Policy, error) {
	if orgID == "" {
		return domain.Policy{}, perr.Validationf("org id required")
	}
	if len(options) == 0 {
		return domain.Policy{}, perr.Validationf("no policy options supplied")
	}

	// validate the full set against defaults before any write
	probe := domain.Defaults()
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := probe.Apply(k, options[k]); err != nil {
			return domain.Policy{}, err
		}
	}

	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		for _, k := range keys {
			if err := repo.Upsert(ctx, orgID, k, options[k]); err != nil {
				return err
			}
		}
		if s.audit != nil {
			return s.audit.Record(ctx, q, adomain.Entry{
				OrgID:      orgID,
				ActorID:    actorID,
				Action:     adomain.ActionPolicyUpdated,
				EntityType: "workforce_policy",
				EntityID:   orgID,
				Payload:    options,
			})
		}
		return nil
	})
	if err != nil {
		return domain.Policy{}, err
	}
	return s.Resolve(ctx, orgID)
}
