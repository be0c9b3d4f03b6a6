// Package repo provides the policy repository implementation
package repo

import (
	"context"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
)

// Row is one stored policy option
type Row struct {
	Key   string
	Value string
}

// Repo is the policy persistence surface
type Repo interface {
	Rows(ctx context.Context, orgID string) ([]Row, error)
	Upsert(ctx context.Context, orgID, key, value string) error
}

type (
	// PG is a Postgres implementation of the policy repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Rows returns every stored option for the org, key ascending
func (r *queries) Rows(ctx context.Context, orgID string) ([]Row, error) {
	const sql = `
		SELECT option_key, option_value
		FROM workforce_policy
		WHERE org_id = $1
		ORDER BY option_key
	`
	return store.Many(ctx, r.q, func(row store.Row) (Row, error) {
		var o Row
		err := row.Scan(&o.Key, &o.Value)
		return o, err
	}, sql, orgID)
}

// Upsert writes one option row
func (r *queries) Upsert(ctx context.Context, orgID, key, value string) error {
	const sql = `
		INSERT INTO workforce_policy (org_id, option_key, option_value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (org_id, option_key) DO UPDATE
		SET option_value = EXCLUDED.option_value,
		    updated_at   = NOW()
	`
	_, err := r.q.Exec(ctx, sql, orgID, key, value)
	return perr.FromPostgresf(err, "upsert policy option %s", key)
}
