// Package repo provides timeclock persistence
package repo

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	gdomain "brigade/internal/services/geofence/domain"
	sdomain "brigade/internal/services/scheduling/domain"
	"brigade/internal/services/timeclock/domain"

	"github.com/google/uuid"
)

// Repo is the timeclock persistence surface
type Repo interface {
	OpenEntry(ctx context.Context, orgID, userID string) (domain.TimeEntry, bool, error)
	GetEntry(ctx context.Context, orgID, entryID string) (domain.TimeEntry, error)
	InsertEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error)

	// CloseEntry stamps the clock-out instant, the computed minute totals
	// and any clock-out geo onto the open entry
	CloseEntry(ctx context.Context, e domain.TimeEntry) error

	OpenBreak(ctx context.Context, entryID string) (domain.BreakEntry, bool, error)
	InsertBreak(ctx context.Context, b domain.BreakEntry) (domain.BreakEntry, error)
	EndBreak(ctx context.Context, breakID string, at time.Time, minutes int) error
	EndedBreakMinutes(ctx context.Context, entryID string) (int, error)
	Breaks(ctx context.Context, entryID string) ([]domain.BreakEntry, error)

	// Shift attachment reads and transitions on the scheduling table
	ShiftByID(ctx context.Context, orgID, shiftID string) (sdomain.Shift, error)
	AttachableShift(ctx context.Context, orgID, userID, branchID string, at time.Time) (sdomain.Shift, bool, error)
	TodayShift(ctx context.Context, orgID, userID string, dayStart, dayEnd time.Time) (sdomain.Shift, bool, error)
	SetShiftInProgress(ctx context.Context, orgID, shiftID string) error
	CompleteShift(ctx context.Context, orgID, shiftID string, actual, breaks, overtime int) error
}

type (
	// PG is a Postgres implementation of the timeclock repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const entryCols = `
	id, org_id, branch_id, user_id, COALESCE(shift_id, ''), clock_in_at, clock_out_at, method,
	total_minutes, break_minutes, work_minutes, overtime_minutes,
	clock_in_lat, clock_in_lng, clock_in_accuracy_m, COALESCE(clock_in_source, ''),
	clock_out_lat, clock_out_lng, clock_out_accuracy_m, COALESCE(clock_out_source, ''),
	clock_in_override, clock_out_override, created_at`

func scanEntry(row store.Row) (domain.TimeEntry, error) {
	var (
		e                      domain.TimeEntry
		method                 string
		inLat, inLng, inAcc    *float64
		outLat, outLng, outAcc *float64
		inSrc, outSrc          string
	)
	if err := row.Scan(&e.ID, &e.OrgID, &e.BranchID, &e.UserID, &e.ShiftID, &e.ClockInAt, &e.ClockOutAt, &method,
		&e.TotalMinutes, &e.BreakMinutes, &e.WorkMinutes, &e.OvertimeMinutes,
		&inLat, &inLng, &inAcc, &inSrc,
		&outLat, &outLng, &outAcc, &outSrc,
		&e.ClockInOverride, &e.ClockOutOverride, &e.CreatedAt); err != nil {
		return domain.TimeEntry{}, err
	}
	e.Method = domain.Method(method)
	e.ClockIn = geoFrom(inLat, inLng, inAcc, inSrc)
	e.ClockOut = geoFrom(outLat, outLng, outAcc, outSrc)
	return e, nil
}

func geoFrom(lat, lng, acc *float64, src string) *domain.GeoStamp {
	if lat == nil || lng == nil {
		return nil
	}
	g := domain.GeoStamp{Lat: *lat, Lng: *lng}
	if acc != nil {
		g.AccuracyMeters = *acc
	}
	if src != "" {
		g.Source = gdomain.LocationSource(src)
	}
	return &g
}

// OpenEntry resolves the user's single open entry, if any
func (r *queries) OpenEntry(ctx context.Context, orgID, userID string) (domain.TimeEntry, bool, error) {
	const sql = `
		SELECT ` + entryCols + `
		FROM time_entries
		WHERE org_id = $1 AND user_id = $2 AND clock_out_at IS NULL
	`
	e, err := store.One(ctx, r.q, scanEntry, sql, orgID, userID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.TimeEntry{}, false, nil
		}
		return domain.TimeEntry{}, false, err
	}
	return e, true, nil
}

// GetEntry loads one entry by id
func (r *queries) GetEntry(ctx context.Context, orgID, entryID string) (domain.TimeEntry, error) {
	const sql = `SELECT ` + entryCols + ` FROM time_entries WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanEntry, sql, orgID, entryID)
}

// InsertEntry creates an open entry
func (r *queries) InsertEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var lat, lng, acc *float64
	var src *string
	if e.ClockIn != nil {
		lat, lng, acc = &e.ClockIn.Lat, &e.ClockIn.Lng, &e.ClockIn.AccuracyMeters
		s := string(e.ClockIn.Source)
		src = &s
	}
	const sql = `
		INSERT INTO time_entries (
			id, org_id, branch_id, user_id, shift_id, clock_in_at, method,
			clock_in_lat, clock_in_lng, clock_in_accuracy_m, clock_in_source, created_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.Exec(ctx, sql, e.ID, e.OrgID, e.BranchID, e.UserID, e.ShiftID, e.ClockInAt, string(e.Method),
		lat, lng, acc, src, e.CreatedAt)
	if err != nil {
		return domain.TimeEntry{}, perr.FromPostgres(err, "insert time entry")
	}
	return e, nil
}

// CloseEntry finalizes the open entry. Zero rows means it was closed
// concurrently
func (r *queries) CloseEntry(ctx context.Context, e domain.TimeEntry) error {
	var lat, lng, acc *float64
	var src *string
	if e.ClockOut != nil {
		lat, lng, acc = &e.ClockOut.Lat, &e.ClockOut.Lng, &e.ClockOut.AccuracyMeters
		s := string(e.ClockOut.Source)
		src = &s
	}
	const sql = `
		UPDATE time_entries
		SET clock_out_at = $3, total_minutes = $4, break_minutes = $5,
		    work_minutes = $6, overtime_minutes = $7,
		    clock_out_lat = $8, clock_out_lng = $9, clock_out_accuracy_m = $10, clock_out_source = $11,
		    updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND clock_out_at IS NULL
	`
	tag, err := r.q.Exec(ctx, sql, e.OrgID, e.ID, e.ClockOutAt, e.TotalMinutes, e.BreakMinutes,
		e.WorkMinutes, e.OvertimeMinutes, lat, lng, acc, src)
	if err != nil {
		return perr.FromPostgres(err, "close time entry")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("time entry already closed")
	}
	return nil
}

func scanBreak(row store.Row) (domain.BreakEntry, error) {
	var b domain.BreakEntry
	err := row.Scan(&b.ID, &b.TimeEntryID, &b.StartAt, &b.EndAt, &b.Minutes)
	return b, err
}

const breakCols = `id, time_entry_id, start_at, end_at, minutes`

// OpenBreak resolves the entry's single active break, if any
func (r *queries) OpenBreak(ctx context.Context, entryID string) (domain.BreakEntry, bool, error) {
	const sql = `SELECT ` + breakCols + ` FROM break_entries WHERE time_entry_id = $1 AND end_at IS NULL`
	b, err := store.One(ctx, r.q, scanBreak, sql, entryID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.BreakEntry{}, false, nil
		}
		return domain.BreakEntry{}, false, err
	}
	return b, true, nil
}

// InsertBreak starts a break
func (r *queries) InsertBreak(ctx context.Context, b domain.BreakEntry) (domain.BreakEntry, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	const sql = `INSERT INTO break_entries (id, time_entry_id, start_at) VALUES ($1, $2, $3)`
	if _, err := r.q.Exec(ctx, sql, b.ID, b.TimeEntryID, b.StartAt); err != nil {
		return domain.BreakEntry{}, perr.FromPostgres(err, "insert break")
	}
	return b, nil
}

// EndBreak stamps the end instant and duration on an active break
func (r *queries) EndBreak(ctx context.Context, breakID string, at time.Time, minutes int) error {
	const sql = `UPDATE break_entries SET end_at = $2, minutes = $3 WHERE id = $1 AND end_at IS NULL`
	tag, err := r.q.Exec(ctx, sql, breakID, at, minutes)
	if err != nil {
		return perr.FromPostgres(err, "end break")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("break already ended")
	}
	return nil
}

// EndedBreakMinutes sums finished break durations for the entry
func (r *queries) EndedBreakMinutes(ctx context.Context, entryID string) (int, error) {
	const sql = `SELECT COALESCE(SUM(minutes), 0)::int FROM break_entries WHERE time_entry_id = $1 AND end_at IS NOT NULL`
	n, err := store.Scalar[int](ctx, r.q, sql, entryID)
	if err != nil {
		return 0, perr.DBf("sum break minutes: %v", err)
	}
	return n, nil
}

// Breaks lists the entry's breaks oldest first
func (r *queries) Breaks(ctx context.Context, entryID string) ([]domain.BreakEntry, error) {
	const sql = `SELECT ` + breakCols + ` FROM break_entries WHERE time_entry_id = $1 ORDER BY start_at, id`
	return store.Many(ctx, r.q, scanBreak, sql, entryID)
}

const shiftCols = `
	id, org_id, branch_id, COALESCE(user_id, ''), role, start_at, end_at, status, is_open,
	planned_minutes, actual_minutes, break_minutes, overtime_minutes,
	COALESCE(published_by, ''), published_at, COALESCE(cancelled_by, ''), COALESCE(cancel_reason, ''), created_at`

func scanShift(row store.Row) (sdomain.Shift, error) {
	var (
		s      sdomain.Shift
		status string
	)
	if err := row.Scan(&s.ID, &s.OrgID, &s.BranchID, &s.UserID, &s.Role, &s.StartAt, &s.EndAt, &status, &s.IsOpen,
		&s.PlannedMinutes, &s.ActualMinutes, &s.BreakMinutes, &s.OvertimeMinutes,
		&s.PublishedBy, &s.PublishedAt, &s.CancelledBy, &s.CancelReason, &s.CreatedAt); err != nil {
		return sdomain.Shift{}, err
	}
	s.Status = sdomain.ShiftStatus(status)
	return s, nil
}

// ShiftByID loads one scheduled shift
func (r *queries) ShiftByID(ctx context.Context, orgID, shiftID string) (sdomain.Shift, error) {
	const sql = `SELECT ` + shiftCols + ` FROM scheduled_shifts WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanShift, sql, orgID, shiftID)
}

// AttachableShift finds the user's PUBLISHED shift whose window admits the
// instant with the grace allowance already applied by the caller
func (r *queries) AttachableShift(
	ctx context.Context, orgID, userID, branchID string, at time.Time,
) (sdomain.Shift, bool, error) {
	const sql = `
		SELECT ` + shiftCols + `
		FROM scheduled_shifts
		WHERE org_id = $1 AND user_id = $2 AND branch_id = $3
		  AND status = 'PUBLISHED' AND start_at <= $4 AND end_at > $4
		ORDER BY start_at, id
		LIMIT 1
	`
	s, err := store.One(ctx, r.q, scanShift, sql, orgID, userID, branchID, at)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return sdomain.Shift{}, false, nil
		}
		return sdomain.Shift{}, false, err
	}
	return s, true, nil
}

// TodayShift finds the user's PUBLISHED or IN_PROGRESS shift starting today
func (r *queries) TodayShift(
	ctx context.Context, orgID, userID string, dayStart, dayEnd time.Time,
) (sdomain.Shift, bool, error) {
	const sql = `
		SELECT ` + shiftCols + `
		FROM scheduled_shifts
		WHERE org_id = $1 AND user_id = $2
		  AND status IN ('PUBLISHED', 'IN_PROGRESS')
		  AND start_at >= $3 AND start_at < $4
		ORDER BY start_at, id
		LIMIT 1
	`
	s, err := store.One(ctx, r.q, scanShift, sql, orgID, userID, dayStart, dayEnd)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return sdomain.Shift{}, false, nil
		}
		return sdomain.Shift{}, false, err
	}
	return s, true, nil
}

// SetShiftInProgress flips PUBLISHED to IN_PROGRESS
func (r *queries) SetShiftInProgress(ctx context.Context, orgID, shiftID string) error {
	const sql = `
		UPDATE scheduled_shifts SET status = 'IN_PROGRESS', updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = 'PUBLISHED'
	`
	tag, err := r.q.Exec(ctx, sql, orgID, shiftID)
	if err != nil {
		return perr.FromPostgres(err, "start shift")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("shift %s is not PUBLISHED", shiftID)
	}
	return nil
}

// CompleteShift flips IN_PROGRESS to COMPLETED and stamps the actuals
func (r *queries) CompleteShift(ctx context.Context, orgID, shiftID string, actual, breaks, overtime int) error {
	const sql = `
		UPDATE scheduled_shifts
		SET status = 'COMPLETED', actual_minutes = $3, break_minutes = $4, overtime_minutes = $5, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = 'IN_PROGRESS'
	`
	tag, err := r.q.Exec(ctx, sql, orgID, shiftID, actual, breaks, overtime)
	if err != nil {
		return perr.FromPostgres(err, "complete shift")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("shift %s is not IN_PROGRESS", shiftID)
	}
	return nil
}
