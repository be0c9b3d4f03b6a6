// Package service implements org directory lookups and PIN management
package service

import (
	"context"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/hash"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/directory/domain"
	drepo "brigade/internal/services/directory/repo"
)

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[drepo.Repo]
	repo   drepo.Repo
	audit  adomain.RecorderPort
}

// New constructs the service
func New(db repokit.TxRunner, audit adomain.RecorderPort) *Svc {
	if db == nil {
		panic("directory service requires a TxRunner")
	}
	b := drepo.NewPG()
	return &Svc{db: db, binder: b, repo: b.Bind(db), audit: audit}
}

// Get returns the user scoped to the org
func (s *Svc) Get(ctx context.Context, orgID, userID string) (domain.User, error) {
	if orgID == "" || userID == "" {
		return domain.User{}, perr.Validationf("org id and user id required")
	}
	return s.repo.Get(ctx, orgID, userID)
}

// List returns org users matching the filter
func (s *Svc) List(ctx context.Context, orgID string, in domain.ListUsersInput) ([]domain.User, error) {
	if orgID == "" {
		return nil, perr.Validationf("org id required")
	}
	return s.repo.List(ctx, orgID, in)
}

// SetPin hashes the PIN with argon2id and stores it; the raw PIN is never
// persisted anywhere
func (s *Svc) SetPin(ctx context.Context, orgID, actorID string, in domain.SetPinInput) error {
	if orgID == "" {
		return perr.Validationf("org id required")
	}
	if err := validatePinFormat(in.Pin); err != nil {
		return err
	}
	encoded, err := hash.Secret(in.Pin)
	if err != nil {
		return err
	}
	return s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		if err := repo.SetPinHash(ctx, orgID, in.UserID, encoded); err != nil {
			return err
		}
		if s.audit != nil {
			return s.audit.Record(ctx, q, adomain.Entry{
				OrgID:      orgID,
				ActorID:    actorID,
				Action:     adomain.ActionPinSet,
				EntityType: "org_user",
				EntityID:   in.UserID,
			})
		}
		return nil
	})
}

// VerifyPin walks active org users in id order and returns the first match.
// Scoping by org up front means a PIN can never authenticate across orgs
func (s *Svc) VerifyPin(ctx context.Context, orgID, pin string) (string, bool, error) {
	if orgID == "" {
		return "", false, perr.Validationf("org id required")
	}
	if err := validatePinFormat(pin); err != nil {
		return "", false, err
	}
	candidates, err := s.repo.PinCandidates(ctx, orgID)
	if err != nil {
		return "", false, err
	}
	for _, c := range candidates {
		ok, verr := hash.Verify(pin, c.PinHash)
		if verr != nil {
			// skip corrupt rows; a bad hash must not block other users
			continue
		}
		if ok {
			return c.UserID, true, nil
		}
	}
	return "", false, nil
}

func validatePinFormat(pin string) error {
	if len(pin) < 4 || len(pin) > 6 {
		return perr.Validationf("pin must be 4 to 6 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return perr.Validationf("pin must be 4 to 6 digits")
		}
	}
	return nil
}
