// Package repo provides the audit log repository implementation
package repo

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/audit/domain"

	"github.com/google/uuid"
)

// Repo is the audit persistence surface used by the service layer
type Repo interface {
	Insert(ctx context.Context, e domain.Entry) error
	List(ctx context.Context, orgID string, f domain.Filter) ([]domain.Entry, error)
}

type (
	// PG is a Postgres implementation of the audit repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Insert appends one audit record. Payload is serialized to JSONB
func (r *queries) Insert(ctx context.Context, e domain.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var payload []byte
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "audit payload for %s", e.Action)
		}
		payload = b
	}
	const sql = `
		INSERT INTO audit_log (id, org_id, actor_id, action, entity_type, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.Exec(ctx, sql, e.ID, e.OrgID, e.ActorID, string(e.Action), e.EntityType, e.EntityID, payload, e.CreatedAt)
	return perr.FromPostgres(err, "insert audit entry")
}

// List returns entries newest first with keyset pagination on (created_at, id)
func (r *queries) List(ctx context.Context, orgID string, f domain.Filter) ([]domain.Entry, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
		SELECT id, org_id, actor_id, action, entity_type, entity_id, payload, created_at
		FROM audit_log
		WHERE org_id = $1`)
	args = append(args, orgID)

	add := func(clause string, v any) {
		args = append(args, v)
		sb.WriteString(" AND " + clause + "$" + strconv.Itoa(len(args)))
	}
	if f.EntityType != "" {
		add("entity_type = ", f.EntityType)
	}
	if f.EntityID != "" {
		add("entity_id = ", f.EntityID)
	}
	if f.ActorID != "" {
		add("actor_id = ", f.ActorID)
	}
	if f.Action != "" {
		add("action = ", string(f.Action))
	}
	if !f.From.IsZero() {
		add("created_at >= ", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < ", f.To)
	}
	if !f.AfterAt.IsZero() && f.AfterID != "" {
		args = append(args, f.AfterAt, f.AfterID)
		sb.WriteString(" AND (created_at, id) < ($" + strconv.Itoa(len(args)-1) + ", $" + strconv.Itoa(len(args)) + ")")
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))

	return store.Many(ctx, r.q, scanEntry, sb.String(), args...)
}

func scanEntry(row store.Row) (domain.Entry, error) {
	var (
		e       domain.Entry
		action  string
		payload []byte
	)
	if err := row.Scan(&e.ID, &e.OrgID, &e.ActorID, &action, &e.EntityType, &e.EntityID, &payload, &e.CreatedAt); err != nil {
		return domain.Entry{}, err
	}
	e.Action = domain.Action(action)
	if len(payload) > 0 {
		var v any
		if err := json.Unmarshal(payload, &v); err == nil {
			e.Payload = v
		}
	}
	return e, nil
}
