// Package repo runs the read-only joins behind the CSV exports.
// Every query carries an explicit ORDER BY over domain keys so replays
// return rows in the same order
package repo

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	"brigade/internal/platform/store"
)

// KioskEventRow is one exported kiosk event with its device joined in
type KioskEventRow struct {
	ID             string
	ReceivedAt     time.Time
	OccurredAt     time.Time
	DeviceName     string
	BranchID       string
	Type           string
	Status         string
	RejectCode     string
	UserID         string
	IdempotencyKey string
	TimeEntryID    string
	BreakEntryID   string
}

// PinAttemptRow is one exported PIN attempt
type PinAttemptRow struct {
	AttemptedAt time.Time
	DeviceName  string
	BranchID    string
	MaskedPin   string
	Success     bool
	UserID      string
	IP          string
}

// IncidentRow is one exported compliance incident with user, branch and
// penalty amount joined in
type IncidentRow struct {
	ID             string
	IncidentDate   time.Time
	Type           string
	Severity       string
	UserID         string
	UserName       string
	UserEmail      string
	BranchID       string
	BranchName     string
	TimeEntryID    string
	PenaltyMinutes int
	PenaltyCents   int64
	Resolved       bool
	ResolvedAt     *time.Time
	CreatedAt      time.Time
}

// TimeEntryRow is one exported time entry with user, shift and geo stamps
type TimeEntryRow struct {
	ID              string
	UserID          string
	UserName        string
	UserEmail       string
	ClockInAt       time.Time
	ClockOutAt      *time.Time
	Method          string
	OvertimeMinutes int
	Approved        bool
	ShiftID         string
	Role            string

	InLat  *float64
	InLng  *float64
	InAcc  *float64
	InSrc  string
	OutLat *float64
	OutLng *float64
	OutAcc *float64
	OutSrc string
}

// GeofenceEventRow is one exported geofence decision
type GeofenceEventRow struct {
	ID             string
	CreatedAt      time.Time
	BranchID       string
	UserID         string
	Type           string
	ReasonCode     string
	ClockAction    string
	Lat            *float64
	Lng            *float64
	AccuracyMeters *float64
	Source         string
	DistanceMeters *float64
}

// Repo is the export read surface
type Repo interface {
	KioskEvents(ctx context.Context, orgID, branchID string, from, to time.Time) ([]KioskEventRow, error)
	PinAttempts(ctx context.Context, orgID, branchID string, from, to time.Time) ([]PinAttemptRow, error)
	Incidents(ctx context.Context, orgID, branchID string, from, to time.Time) ([]IncidentRow, error)
	TimeEntries(ctx context.Context, orgID, branchID string, from, to time.Time) ([]TimeEntryRow, error)
	GeofenceEvents(ctx context.Context, orgID, branchID string, from, to time.Time) ([]GeofenceEventRow, error)
}

type (
	// PG is a Postgres implementation of the export repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) KioskEvents(
	ctx context.Context,
	orgID, branchID string,
	from, to time.Time,
) ([]KioskEventRow, error) {
	const sql = `
		SELECT e.id, e.created_at, e.occurred_at, d.name, d.branch_id,
		       e.event_type, e.status, COALESCE(e.reject_code, ''),
		       COALESCE(e.user_id, ''), e.idempotency_key,
		       COALESCE(e.time_entry_id, ''), COALESCE(e.break_entry_id, '')
		  FROM kiosk_events e
		  JOIN kiosk_devices d ON d.id = e.device_id
		 WHERE d.org_id = $1
		   AND ($2 = '' OR d.branch_id = $2)
		   AND e.occurred_at >= $3 AND e.occurred_at < $4
		 ORDER BY e.occurred_at, e.id
	`
	return store.Many(ctx, r.q, func(row store.Row) (KioskEventRow, error) {
		var e KioskEventRow
		err := row.Scan(
			&e.ID, &e.ReceivedAt, &e.OccurredAt, &e.DeviceName, &e.BranchID,
			&e.Type, &e.Status, &e.RejectCode,
			&e.UserID, &e.IdempotencyKey, &e.TimeEntryID, &e.BreakEntryID,
		)
		return e, err
	}, sql, orgID, branchID, from, to)
}

func (r *queries) PinAttempts(
	ctx context.Context,
	orgID, branchID string,
	from, to time.Time,
) ([]PinAttemptRow, error) {
	const sql = `
		SELECT a.attempted_at, d.name, d.branch_id, a.masked_pin, a.success,
		       COALESCE(a.user_id, ''), COALESCE(a.ip, '')
		  FROM kiosk_pin_attempts a
		  JOIN kiosk_devices d ON d.id = a.device_id
		 WHERE d.org_id = $1
		   AND ($2 = '' OR d.branch_id = $2)
		   AND a.attempted_at >= $3 AND a.attempted_at < $4
		 ORDER BY a.attempted_at, a.id
	`
	return store.Many(ctx, r.q, func(row store.Row) (PinAttemptRow, error) {
		var a PinAttemptRow
		err := row.Scan(&a.AttemptedAt, &a.DeviceName, &a.BranchID, &a.MaskedPin, &a.Success, &a.UserID, &a.IP)
		return a, err
	}, sql, orgID, branchID, from, to)
}

func (r *queries) Incidents(
	ctx context.Context,
	orgID, branchID string,
	from, to time.Time,
) ([]IncidentRow, error) {
	const sql = `
		SELECT i.id, i.incident_date, i.type, i.severity,
		       i.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
		       i.branch_id, COALESCE(b.name, ''),
		       i.time_entry_id, i.penalty_minutes,
		       (i.penalty_minutes * COALESCE(p.hourly_rate, 0) * 100 / 60)::bigint,
		       i.resolved, i.resolved_at, i.created_at
		  FROM compliance_incidents i
		  LEFT JOIN org_users u ON u.id = i.user_id AND u.org_id = i.org_id
		  LEFT JOIN branches b ON b.id = i.branch_id
		  LEFT JOIN comp_profiles p ON p.org_id = i.org_id AND p.user_id = i.user_id
		       AND p.effective_from <= i.incident_date
		       AND (p.effective_to IS NULL OR p.effective_to >= i.incident_date)
		 WHERE i.org_id = $1
		   AND ($2 = '' OR i.branch_id = $2)
		   AND i.incident_date >= $3 AND i.incident_date < $4
		 ORDER BY i.incident_date, i.user_id, i.id
	`
	return store.Many(ctx, r.q, func(row store.Row) (IncidentRow, error) {
		var i IncidentRow
		err := row.Scan(
			&i.ID, &i.IncidentDate, &i.Type, &i.Severity,
			&i.UserID, &i.UserName, &i.UserEmail,
			&i.BranchID, &i.BranchName,
			&i.TimeEntryID, &i.PenaltyMinutes, &i.PenaltyCents,
			&i.Resolved, &i.ResolvedAt, &i.CreatedAt,
		)
		return i, err
	}, sql, orgID, branchID, from, to)
}

func (r *queries) TimeEntries(
	ctx context.Context,
	orgID, branchID string,
	from, to time.Time,
) ([]TimeEntryRow, error) {
	const sql = `
		SELECT t.id, t.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
		       t.clock_in_at, t.clock_out_at, t.method,
		       COALESCE(t.overtime_minutes, 0),
		       COALESCE(a.status = 'APPROVED', FALSE),
		       COALESCE(t.shift_id, ''), COALESCE(s.role, ''),
		       t.clock_in_lat, t.clock_in_lng, t.clock_in_accuracy_m, COALESCE(t.clock_in_source, ''),
		       t.clock_out_lat, t.clock_out_lng, t.clock_out_accuracy_m, COALESCE(t.clock_out_source, '')
		  FROM time_entries t
		  LEFT JOIN org_users u ON u.id = t.user_id AND u.org_id = t.org_id
		  LEFT JOIN timesheet_approvals a ON a.time_entry_id = t.id
		  LEFT JOIN scheduled_shifts s ON s.id = t.shift_id
		 WHERE t.org_id = $1
		   AND ($2 = '' OR t.branch_id = $2)
		   AND t.clock_in_at >= $3 AND t.clock_in_at < $4
		 ORDER BY t.clock_in_at, t.user_id, t.id
	`
	return store.Many(ctx, r.q, func(row store.Row) (TimeEntryRow, error) {
		var t TimeEntryRow
		err := row.Scan(
			&t.ID, &t.UserID, &t.UserName, &t.UserEmail,
			&t.ClockInAt, &t.ClockOutAt, &t.Method,
			&t.OvertimeMinutes, &t.Approved,
			&t.ShiftID, &t.Role,
			&t.InLat, &t.InLng, &t.InAcc, &t.InSrc,
			&t.OutLat, &t.OutLng, &t.OutAcc, &t.OutSrc,
		)
		return t, err
	}, sql, orgID, branchID, from, to)
}

func (r *queries) GeofenceEvents(
	ctx context.Context,
	orgID, branchID string,
	from, to time.Time,
) ([]GeofenceEventRow, error) {
	const sql = `
		SELECT e.id, e.created_at, e.branch_id, e.user_id, e.event_type,
		       COALESCE(e.reason_code, ''), e.clock_action,
		       e.lat, e.lng, e.accuracy_meters, COALESCE(e.location_source, ''),
		       e.distance_meters
		  FROM geofence_events e
		 WHERE e.org_id = $1
		   AND ($2 = '' OR e.branch_id = $2)
		   AND e.created_at >= $3 AND e.created_at < $4
		 ORDER BY e.created_at, e.user_id, e.id
	`
	return store.Many(ctx, r.q, func(row store.Row) (GeofenceEventRow, error) {
		var e GeofenceEventRow
		err := row.Scan(
			&e.ID, &e.CreatedAt, &e.BranchID, &e.UserID, &e.Type,
			&e.ReasonCode, &e.ClockAction,
			&e.Lat, &e.Lng, &e.AccuracyMeters, &e.Source,
			&e.DistanceMeters,
		)
		return e, err
	}, sql, orgID, branchID, from, to)
}
