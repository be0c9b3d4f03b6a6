// Package repo provides the directory repository implementation
package repo

import (
	"context"
	"strconv"
	"strings"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/directory/domain"
)

// Repo is the directory persistence surface
type Repo interface {
	Get(ctx context.Context, orgID, userID string) (domain.User, error)
	List(ctx context.Context, orgID string, in domain.ListUsersInput) ([]domain.User, error)
	SetPinHash(ctx context.Context, orgID, userID, pinHash string) error

	// PinCandidates returns active users with a PIN hash, user id ascending.
	// Deterministic order keeps kiosk lookups stable across calls
	PinCandidates(ctx context.Context, orgID string) ([]domain.PinCandidate, error)
}

type (
	// PG is a Postgres implementation of the directory repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const userCols = `id, org_id, COALESCE(branch_id, ''), name, email, role_level, active, pin_hash IS NOT NULL, created_at`

func scanUser(row store.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.OrgID, &u.BranchID, &u.Name, &u.Email, &u.RoleLevel, &u.Active, &u.HasPin, &u.CreatedAt)
	return u, err
}

// Get fetches one user scoped to the org
func (r *queries) Get(ctx context.Context, orgID, userID string) (domain.User, error) {
	const sql = `SELECT ` + userCols + ` FROM org_users WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanUser, sql, orgID, userID)
}

// List returns org users ordered by name then id
func (r *queries) List(ctx context.Context, orgID string, in domain.ListUsersInput) ([]domain.User, error) {
	var sb strings.Builder
	args := []any{orgID}
	sb.WriteString(`SELECT ` + userCols + ` FROM org_users WHERE org_id = $1`)
	if in.BranchID != "" {
		args = append(args, in.BranchID)
		sb.WriteString(" AND branch_id = $" + strconv.Itoa(len(args)))
	}
	if in.ActiveOnly {
		sb.WriteString(" AND active")
	}
	sb.WriteString(" ORDER BY name, id")

	limit := in.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	if in.Offset > 0 {
		args = append(args, in.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return store.Many(ctx, r.q, scanUser, sb.String(), args...)
}

// SetPinHash stores the hashed PIN for an active org user
func (r *queries) SetPinHash(ctx context.Context, orgID, userID, pinHash string) error {
	const sql = `
		UPDATE org_users
		SET pin_hash = $3, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND active
	`
	tag, err := r.q.Exec(ctx, sql, orgID, userID, pinHash)
	if err != nil {
		return perr.FromPostgres(err, "set pin hash")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("active user %s not found", userID)
	}
	return nil
}

// PinCandidates lists (user id, pin hash) for active users with a PIN
func (r *queries) PinCandidates(ctx context.Context, orgID string) ([]domain.PinCandidate, error) {
	const sql = `
		SELECT id, pin_hash
		FROM org_users
		WHERE org_id = $1 AND active AND pin_hash IS NOT NULL
		ORDER BY id
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.PinCandidate, error) {
		var c domain.PinCandidate
		err := row.Scan(&c.UserID, &c.PinHash)
		return c, err
	}, sql, orgID)
}
