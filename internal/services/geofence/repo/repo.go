// Package repo provides geofence persistence
package repo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/geofence/domain"

	"github.com/google/uuid"
)

// Repo is the geofence persistence surface
type Repo interface {
	ConfigByBranch(ctx context.Context, orgID, branchID string) (domain.Config, bool, error)
	UpsertConfig(ctx context.Context, orgID string, c domain.Config) error
	InsertEvent(ctx context.Context, e domain.Event) (string, error)
	Events(ctx context.Context, orgID string, f domain.EventFilter) ([]domain.Event, error)

	// SetOverride stamps the override markers on the owning time entry
	SetOverride(ctx context.Context, orgID, timeEntryID string, action domain.ClockAction, actorID, reason string) error
	TimeEntryOwner(ctx context.Context, orgID, timeEntryID string) (userID, branchID string, err error)
}

type (
	// PG is a Postgres implementation of the geofence repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// ConfigByBranch loads the fence for one branch; ok=false when unset
func (r *queries) ConfigByBranch(ctx context.Context, orgID, branchID string) (domain.Config, bool, error) {
	const sql = `
		SELECT branch_id, enabled, center_lat, center_lng, radius_meters,
		       enforce_clock_in, enforce_clock_out, allow_manager_override, max_accuracy_meters
		FROM branch_geofences
		WHERE org_id = $1 AND branch_id = $2
	`
	c, err := store.One(ctx, r.q, scanConfig, sql, orgID, branchID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Config{}, false, nil
		}
		return domain.Config{}, false, err
	}
	return c, true, nil
}

func scanConfig(row store.Row) (domain.Config, error) {
	var c domain.Config
	err := row.Scan(&c.BranchID, &c.Enabled, &c.CenterLat, &c.CenterLng, &c.RadiusMeters,
		&c.EnforceClockIn, &c.EnforceClockOut, &c.AllowManagerOverride, &c.MaxAccuracyMeters)
	return c, err
}

// UpsertConfig writes the fence keyed by (org, branch)
func (r *queries) UpsertConfig(ctx context.Context, orgID string, c domain.Config) error {
	const sql = `
		INSERT INTO branch_geofences (
			org_id, branch_id, enabled, center_lat, center_lng, radius_meters,
			enforce_clock_in, enforce_clock_out, allow_manager_override, max_accuracy_meters, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (org_id, branch_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			center_lat = EXCLUDED.center_lat,
			center_lng = EXCLUDED.center_lng,
			radius_meters = EXCLUDED.radius_meters,
			enforce_clock_in = EXCLUDED.enforce_clock_in,
			enforce_clock_out = EXCLUDED.enforce_clock_out,
			allow_manager_override = EXCLUDED.allow_manager_override,
			max_accuracy_meters = EXCLUDED.max_accuracy_meters,
			updated_at = NOW()
	`
	_, err := r.q.Exec(ctx, sql, orgID, c.BranchID, c.Enabled, c.CenterLat, c.CenterLng, c.RadiusMeters,
		c.EnforceClockIn, c.EnforceClockOut, c.AllowManagerOverride, c.MaxAccuracyMeters)
	return perr.FromPostgres(err, "upsert geofence config")
}

// InsertEvent appends one decision event and returns its id
func (r *queries) InsertEvent(ctx context.Context, e domain.Event) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var lat, lng, acc *float64
	var src *string
	if e.Location != nil {
		lat, lng, acc = &e.Location.Lat, &e.Location.Lng, &e.Location.AccuracyMeters
		s := string(e.Location.Source)
		src = &s
	}
	const sql = `
		INSERT INTO geofence_events (
			id, org_id, branch_id, user_id, event_type, reason_code, clock_action,
			lat, lng, accuracy_meters, location_source, distance_meters, created_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.q.Exec(ctx, sql, e.ID, e.OrgID, e.BranchID, e.UserID, string(e.Type), string(e.ReasonCode),
		string(e.ClockAction), lat, lng, acc, src, e.DistanceMeters, e.CreatedAt)
	if err != nil {
		return "", perr.FromPostgres(err, "insert geofence event")
	}
	return e.ID, nil
}

// Events lists decisions newest first
func (r *queries) Events(ctx context.Context, orgID string, f domain.EventFilter) ([]domain.Event, error) {
	var sb strings.Builder
	args := []any{orgID}
	sb.WriteString(`
		SELECT id, org_id, branch_id, user_id, event_type, COALESCE(reason_code, ''), clock_action,
		       lat, lng, accuracy_meters, COALESCE(location_source, ''), distance_meters, created_at
		FROM geofence_events
		WHERE org_id = $1`)
	if f.BranchID != "" {
		args = append(args, f.BranchID)
		sb.WriteString(" AND branch_id = $" + strconv.Itoa(len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		sb.WriteString(" AND user_id = $" + strconv.Itoa(len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		sb.WriteString(" AND event_type = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))

	return store.Many(ctx, r.q, scanEvent, sb.String(), args...)
}

func scanEvent(row store.Row) (domain.Event, error) {
	var (
		e             domain.Event
		typ, rc, act  string
		lat, lng, acc *float64
		src           string
	)
	if err := row.Scan(&e.ID, &e.OrgID, &e.BranchID, &e.UserID, &typ, &rc, &act,
		&lat, &lng, &acc, &src, &e.DistanceMeters, &e.CreatedAt); err != nil {
		return domain.Event{}, err
	}
	e.Type = domain.EventType(typ)
	e.ReasonCode = domain.ReasonCode(rc)
	e.ClockAction = domain.ClockAction(act)
	if lat != nil && lng != nil {
		loc := domain.Location{Lat: *lat, Lng: *lng, Source: domain.LocationSource(src)}
		if acc != nil {
			loc.AccuracyMeters = *acc
		}
		e.Location = &loc
	}
	return e, nil
}

// SetOverride stamps the per-action override markers on the time entry
func (r *queries) SetOverride(
	ctx context.Context, orgID, timeEntryID string, action domain.ClockAction, actorID, reason string,
) error {
	var sql string
	switch action {
	case domain.ActionClockIn:
		sql = `
			UPDATE time_entries
			SET clock_in_override = TRUE, clock_in_override_by = $3, clock_in_override_reason = $4, updated_at = NOW()
			WHERE org_id = $1 AND id = $2
		`
	case domain.ActionClockOut:
		sql = `
			UPDATE time_entries
			SET clock_out_override = TRUE, clock_out_override_by = $3, clock_out_override_reason = $4, updated_at = NOW()
			WHERE org_id = $1 AND id = $2
		`
	default:
		return perr.Validationf("unknown clock action %s", action)
	}
	tag, err := r.q.Exec(ctx, sql, orgID, timeEntryID, actorID, reason)
	if err != nil {
		return perr.FromPostgres(err, "set override markers")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("time entry %s not found", timeEntryID)
	}
	return nil
}

// TimeEntryOwner resolves the user and branch owning a time entry
func (r *queries) TimeEntryOwner(ctx context.Context, orgID, timeEntryID string) (string, string, error) {
	const sql = `SELECT user_id, branch_id FROM time_entries WHERE org_id = $1 AND id = $2`
	type owner struct{ user, branch string }
	o, err := store.One(ctx, r.q, func(row store.Row) (owner, error) {
		var v owner
		err := row.Scan(&v.user, &v.branch)
		return v, err
	}, sql, orgID, timeEntryID)
	if err != nil {
		return "", "", err
	}
	return o.user, o.branch, nil
}
