// Package repo provides compliance incident persistence
package repo

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/compliance/domain"

	"github.com/google/uuid"
)

// Repo is the compliance persistence surface
type Repo interface {
	// CompletedEntries returns closed time entries whose clock-out falls in
	// [from, to), with their finished break durations attached
	CompletedEntries(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.Entry, error)

	InsertIncident(ctx context.Context, inc domain.Incident) (domain.Incident, error)
	GetIncident(ctx context.Context, orgID, incidentID string) (domain.Incident, error)
	ListIncidents(ctx context.Context, orgID string, f domain.IncidentFilter) ([]domain.Incident, error)
	SetResolved(ctx context.Context, orgID, incidentID, actorID string, resolved bool, at time.Time) error
}

type (
	// PG is a Postgres implementation of the compliance repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) CompletedEntries(
	ctx context.Context,
	orgID, branchID string,
	from, to time.Time,
) ([]domain.Entry, error) {
	const sql = `
		SELECT t.id, t.branch_id, t.user_id, t.clock_in_at, t.clock_out_at,
		       COALESCE(t.total_minutes, 0),
		       COALESCE(
		           (SELECT array_agg(b.minutes ORDER BY b.start_at)
		              FROM break_entries b
		             WHERE b.time_entry_id = t.id AND b.end_at IS NOT NULL),
		           '{}')
		  FROM time_entries t
		 WHERE t.org_id = $1
		   AND ($2 = '' OR t.branch_id = $2)
		   AND t.clock_out_at IS NOT NULL
		   AND t.clock_out_at >= $3 AND t.clock_out_at < $4
		 ORDER BY t.clock_out_at, t.id
	`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.Entry, error) {
		var e domain.Entry
		err := row.Scan(&e.ID, &e.BranchID, &e.UserID, &e.ClockInAt, &e.ClockOutAt, &e.TotalMinutes, &e.BreakMinutes)
		return e, err
	}, sql, orgID, branchID, from, to)
	if err != nil {
		return nil, perr.FromPostgres(err, "list completed entries")
	}
	return out, nil
}

const incidentCols = `
	id, org_id, branch_id, user_id, time_entry_id, type, severity,
	incident_date, penalty_minutes, resolved,
	COALESCE(resolved_by, ''), resolved_at, created_at`

func scanIncident(row store.Row) (domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID, &inc.OrgID, &inc.BranchID, &inc.UserID, &inc.TimeEntryID,
		&inc.Type, &inc.Severity,
		&inc.IncidentDate, &inc.PenaltyMinutes, &inc.Resolved,
		&inc.ResolvedBy, &inc.ResolvedAt, &inc.CreatedAt,
	)
	return inc, err
}

// InsertIncident files one incident. The unique index on
// (org_id, time_entry_id, type) makes repeat evaluation runs collide here
func (r *queries) InsertIncident(ctx context.Context, inc domain.Incident) (domain.Incident, error) {
	if inc.ID == "" {
		inc.ID = uuid.NewString()
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO compliance_incidents (
			id, org_id, branch_id, user_id, time_entry_id, type, severity,
			incident_date, penalty_minutes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.Exec(ctx, sql,
		inc.ID, inc.OrgID, inc.BranchID, inc.UserID, inc.TimeEntryID,
		string(inc.Type), string(inc.Severity),
		inc.IncidentDate, inc.PenaltyMinutes, inc.CreatedAt,
	)
	if err != nil {
		return domain.Incident{}, perr.FromPostgres(err, "insert incident")
	}
	return inc, nil
}

func (r *queries) GetIncident(ctx context.Context, orgID, incidentID string) (domain.Incident, error) {
	const sql = `SELECT ` + incidentCols + ` FROM compliance_incidents WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanIncident, sql, orgID, incidentID)
}

func (r *queries) ListIncidents(
	ctx context.Context,
	orgID string,
	f domain.IncidentFilter,
) ([]domain.Incident, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	resolved := -1
	if f.Resolved != nil {
		resolved = 0
		if *f.Resolved {
			resolved = 1
		}
	}
	var from, to any
	if !f.From.IsZero() {
		from = f.From
	}
	if !f.To.IsZero() {
		to = f.To
	}

	const sql = `
		SELECT ` + incidentCols + `
		  FROM compliance_incidents
		 WHERE org_id = $1
		   AND ($2 = '' OR branch_id = $2)
		   AND ($3 = '' OR user_id = $3)
		   AND ($4 = '' OR type = $4)
		   AND ($5 = '' OR severity = $5)
		   AND ($6 = -1 OR resolved = ($6 = 1))
		   AND ($7::timestamptz IS NULL OR incident_date >= $7)
		   AND ($8::timestamptz IS NULL OR incident_date < $8)
		 ORDER BY incident_date DESC, id DESC
		 LIMIT $9
	`
	return store.Many(ctx, r.q, scanIncident, sql,
		orgID, f.BranchID, f.UserID, string(f.Type), string(f.Severity), resolved, from, to, limit)
}

func (r *queries) SetResolved(
	ctx context.Context,
	orgID, incidentID, actorID string,
	resolved bool,
	at time.Time,
) error {
	const sql = `
		UPDATE compliance_incidents
		   SET resolved = $3,
		       resolved_by = CASE WHEN $3 THEN $4 ELSE NULL END,
		       resolved_at = CASE WHEN $3 THEN $5 ELSE NULL END
		 WHERE org_id = $1 AND id = $2
	`
	if err := store.ExecOne(ctx, r.q, sql, orgID, incidentID, resolved, actorID, at); err != nil {
		return perr.FromPostgres(err, "resolve incident")
	}
	return nil
}
