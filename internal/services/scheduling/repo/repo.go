// Package repo provides scheduling persistence
package repo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/scheduling/domain"

	"github.com/google/uuid"
)

// Repo is the scheduling persistence surface
type Repo interface {
	UpsertTemplate(ctx context.Context, t domain.Template) (domain.Template, error)
	ListTemplates(ctx context.Context, orgID, branchID string, activeOnly bool) ([]domain.Template, error)

	InsertShift(ctx context.Context, s domain.Shift) (domain.Shift, error)
	GetShift(ctx context.Context, orgID, shiftID string) (domain.Shift, error)
	UpdateDraftShift(ctx context.Context, s domain.Shift) error
	DeleteDraftShift(ctx context.Context, orgID, shiftID string) error
	CancelShift(ctx context.Context, orgID, shiftID, actorID, reason string) (int64, error)
	ListShifts(ctx context.Context, orgID string, in domain.ListShiftsInput) ([]domain.Shift, error)

	// Overlapping returns the user's shifts intersecting (start, end),
	// excluding CANCELLED, shift id ascending. PUBLISHED rows are included
	// only when includePublished is set; DRAFT and in-flight states always count
	Overlapping(ctx context.Context, orgID, userID string, start, end time.Time, excludeIDs []string, includePublished bool) ([]domain.Shift, error)

	DraftShiftsInRange(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.Shift, error)
	MarkPublished(ctx context.Context, orgID string, shiftIDs []string, publisherID string, at time.Time) error
	WeekShiftMinutes(ctx context.Context, orgID, userID string, weekStart, weekEnd time.Time) (int, error)

	InsertClaim(ctx context.Context, c domain.Claim) (domain.Claim, error)
	GetClaim(ctx context.Context, orgID, claimID string) (domain.Claim, error)
	SetClaimStatus(ctx context.Context, orgID, claimID string, from, to domain.ClaimStatus, decidedBy string) (int64, error)
	RejectOtherClaims(ctx context.Context, orgID, shiftID, winningClaimID, decidedBy string) error
	AssignShiftUser(ctx context.Context, orgID, shiftID, userID string) error
	SwapShiftUsers(ctx context.Context, orgID, shiftA, userA, shiftB, userB string) error

	PayPeriodStatusAt(ctx context.Context, orgID, branchID string, at time.Time) (string, bool, error)
	ExceptionFor(ctx context.Context, orgID, userID string, date time.Time) (domain.AvailabilityException, bool, error)
	SlotsForWeekday(ctx context.Context, orgID, userID string, weekday int) ([]domain.AvailabilitySlot, error)
}

type (
	// PG is a Postgres implementation of the scheduling repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// UpsertTemplate inserts or updates a template
func (r *queries) UpsertTemplate(ctx context.Context, t domain.Template) (domain.Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
		t.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO shift_templates (
			id, org_id, branch_id, name, role, start_time, end_time, break_minutes, description, active, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			branch_id = EXCLUDED.branch_id,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			break_minutes = EXCLUDED.break_minutes,
			description = EXCLUDED.description,
			active = EXCLUDED.active
		WHERE shift_templates.org_id = EXCLUDED.org_id
	`
	_, err := r.q.Exec(ctx, sql, t.ID, t.OrgID, t.BranchID, t.Name, t.Role, t.StartTime, t.EndTime,
		t.BreakMinutes, t.Description, t.Active, t.CreatedAt)
	if err != nil {
		return domain.Template{}, perr.FromPostgres(err, "upsert shift template")
	}
	return t, nil
}

// ListTemplates returns templates name ascending
func (r *queries) ListTemplates(ctx context.Context, orgID, branchID string, activeOnly bool) ([]domain.Template, error) {
	var sb strings.Builder
	args := []any{orgID}
	sb.WriteString(`
		SELECT id, org_id, COALESCE(branch_id, ''), name, role, start_time, end_time,
		       break_minutes, COALESCE(description, ''), active, created_at
		FROM shift_templates
		WHERE org_id = $1`)
	if branchID != "" {
		args = append(args, branchID)
		sb.WriteString(" AND (branch_id IS NULL OR branch_id = $" + strconv.Itoa(len(args)) + ")")
	}
	if activeOnly {
		sb.WriteString(" AND active")
	}
	sb.WriteString(" ORDER BY name, id")
	return store.Many(ctx, r.q, scanTemplate, sb.String(), args...)
}

func scanTemplate(row store.Row) (domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.OrgID, &t.BranchID, &t.Name, &t.Role, &t.StartTime, &t.EndTime,
		&t.BreakMinutes, &t.Description, &t.Active, &t.CreatedAt)
	return t, err
}

const shiftCols = `
	id, org_id, branch_id, COALESCE(user_id, ''), role, start_at, end_at, status, is_open,
	planned_minutes, COALESCE(actual_minutes, 0), COALESCE(break_minutes, 0), COALESCE(overtime_minutes, 0),
	COALESCE(published_by, ''), published_at, COALESCE(cancelled_by, ''), COALESCE(cancel_reason, ''), created_at`

func scanShift(row store.Row) (domain.Shift, error) {
	var (
		s      domain.Shift
		status string
	)
	err := row.Scan(&s.ID, &s.OrgID, &s.BranchID, &s.UserID, &s.Role, &s.StartAt, &s.EndAt, &status, &s.IsOpen,
		&s.PlannedMinutes, &s.ActualMinutes, &s.BreakMinutes, &s.OvertimeMinutes,
		&s.PublishedBy, &s.PublishedAt, &s.CancelledBy, &s.CancelReason, &s.CreatedAt)
	s.Status = domain.ShiftStatus(status)
	return s, err
}

// InsertShift writes a new DRAFT shift
func (r *queries) InsertShift(ctx context.Context, s domain.Shift) (domain.Shift, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO scheduled_shifts (
			id, org_id, branch_id, user_id, role, start_at, end_at, status, is_open, planned_minutes, created_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.Exec(ctx, sql, s.ID, s.OrgID, s.BranchID, s.UserID, s.Role, s.StartAt, s.EndAt,
		string(s.Status), s.IsOpen, s.PlannedMinutes, s.CreatedAt)
	if err != nil {
		return domain.Shift{}, perr.FromPostgres(err, "insert shift")
	}
	return s, nil
}

// GetShift fetches one shift scoped to the org
func (r *queries) GetShift(ctx context.Context, orgID, shiftID string) (domain.Shift, error) {
	const sql = `SELECT ` + shiftCols + ` FROM scheduled_shifts WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanShift, sql, orgID, shiftID)
}

// UpdateDraftShift rewrites mutable fields while the row is still DRAFT
func (r *queries) UpdateDraftShift(ctx context.Context, s domain.Shift) error {
	const sql = `
		UPDATE scheduled_shifts
		SET user_id = NULLIF($3, ''), role = $4, start_at = $5, end_at = $6,
		    planned_minutes = $7, is_open = $8, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = 'DRAFT'
	`
	tag, err := r.q.Exec(ctx, sql, s.OrgID, s.ID, s.UserID, s.Role, s.StartAt, s.EndAt, s.PlannedMinutes, s.IsOpen)
	if err != nil {
		return perr.FromPostgres(err, "update shift")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("shift %s is not editable", s.ID)
	}
	return nil
}

// DeleteDraftShift removes a DRAFT shift
func (r *queries) DeleteDraftShift(ctx context.Context, orgID, shiftID string) error {
	const sql = `DELETE FROM scheduled_shifts WHERE org_id = $1 AND id = $2 AND status = 'DRAFT'`
	tag, err := r.q.Exec(ctx, sql, orgID, shiftID)
	if err != nil {
		return perr.FromPostgres(err, "delete shift")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("shift %s is not deletable", shiftID)
	}
	return nil
}

// CancelShift flips DRAFT or PUBLISHED to CANCELLED; returns rows affected
func (r *queries) CancelShift(ctx context.Context, orgID, shiftID, actorID, reason string) (int64, error) {
	const sql = `
		UPDATE scheduled_shifts
		SET status = 'CANCELLED', cancelled_by = $3, cancel_reason = NULLIF($4, ''), updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status IN ('DRAFT', 'PUBLISHED')
	`
	tag, err := r.q.Exec(ctx, sql, orgID, shiftID, actorID, reason)
	if err != nil {
		return 0, perr.FromPostgres(err, "cancel shift")
	}
	return tag.RowsAffected(), nil
}

// ListShifts returns shifts ordered by start then id
func (r *queries) ListShifts(ctx context.Context, orgID string, in domain.ListShiftsInput) ([]domain.Shift, error) {
	var sb strings.Builder
	args := []any{orgID}
	sb.WriteString(`SELECT ` + shiftCols + ` FROM scheduled_shifts WHERE org_id = $1`)
	if in.BranchID != "" {
		args = append(args, in.BranchID)
		sb.WriteString(" AND branch_id = $" + strconv.Itoa(len(args)))
	}
	if in.UserID != "" {
		args = append(args, in.UserID)
		sb.WriteString(" AND user_id = $" + strconv.Itoa(len(args)))
	}
	if in.Status != "" {
		args = append(args, in.Status)
		sb.WriteString(" AND status = $" + strconv.Itoa(len(args)))
	}
	if in.OpenOnly {
		sb.WriteString(" AND is_open AND status = 'PUBLISHED'")
	}
	if !in.From.IsZero() {
		args = append(args, in.From)
		sb.WriteString(" AND end_at > $" + strconv.Itoa(len(args)))
	}
	if !in.To.IsZero() {
		args = append(args, in.To)
		sb.WriteString(" AND start_at < $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY start_at, id")
	limit := in.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	return store.Many(ctx, r.q, scanShift, sb.String(), args...)
}

// Overlapping implements the shared conflict predicate:
// existing.start < end AND existing.end > start
func (r *queries) Overlapping(
	ctx context.Context, orgID, userID string, start, end time.Time, excludeIDs []string, includePublished bool,
) ([]domain.Shift, error) {
	var sb strings.Builder
	args := []any{orgID, userID, end, start}
	sb.WriteString(`
		SELECT ` + shiftCols + `
		FROM scheduled_shifts
		WHERE org_id = $1 AND user_id = $2
		  AND start_at < $3 AND end_at > $4
		  AND status <> 'CANCELLED'`)
	if !includePublished {
		sb.WriteString(" AND status <> 'PUBLISHED'")
	}
	for _, id := range excludeIDs {
		args = append(args, id)
		sb.WriteString(" AND id <> $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY id")
	return store.Many(ctx, r.q, scanShift, sb.String(), args...)
}

// DraftShiftsInRange selects publish candidates ordered by start then id
func (r *queries) DraftShiftsInRange(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.Shift, error) {
	const sql = `
		SELECT ` + shiftCols + `
		FROM scheduled_shifts
		WHERE org_id = $1 AND branch_id = $2 AND status = 'DRAFT'
		  AND start_at >= $3 AND start_at < $4
		ORDER BY start_at, id
	`
	return store.Many(ctx, r.q, scanShift, sql, orgID, branchID, from, to)
}

// MarkPublished flips the given DRAFT shifts to PUBLISHED in one statement
func (r *queries) MarkPublished(ctx context.Context, orgID string, shiftIDs []string, publisherID string, at time.Time) error {
	if len(shiftIDs) == 0 {
		return nil
	}
	var sb strings.Builder
	args := []any{orgID, publisherID, at}
	sb.WriteString(`
		UPDATE scheduled_shifts
		SET status = 'PUBLISHED', published_by = $2, published_at = $3, updated_at = NOW()
		WHERE org_id = $1 AND status = 'DRAFT' AND id IN (`)
	for i, id := range shiftIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, id)
		sb.WriteString("$" + strconv.Itoa(len(args)))
	}
	sb.WriteString(")")
	tag, err := r.q.Exec(ctx, sb.String(), args...)
	if err != nil {
		return perr.FromPostgres(err, "publish shifts")
	}
	if tag.RowsAffected() != int64(len(shiftIDs)) {
		return perr.StateConflictf("publish raced: %d of %d shifts were still DRAFT", tag.RowsAffected(), len(shiftIDs))
	}
	return nil
}

// WeekShiftMinutes sums planned minutes of PUBLISHED and IN_PROGRESS shifts in the week
func (r *queries) WeekShiftMinutes(ctx context.Context, orgID, userID string, weekStart, weekEnd time.Time) (int, error) {
	const sql = `
		SELECT COALESCE(SUM(planned_minutes), 0)
		FROM scheduled_shifts
		WHERE org_id = $1 AND user_id = $2
		  AND status IN ('PUBLISHED', 'IN_PROGRESS')
		  AND start_at >= $3 AND start_at < $4
	`
	n, err := store.Scalar[int64](ctx, r.q, sql, orgID, userID, weekStart, weekEnd)
	if err != nil {
		return 0, perr.FromPostgres(err, "week shift minutes")
	}
	return int(n), nil
}

// InsertClaim writes a PENDING claim
func (r *queries) InsertClaim(ctx context.Context, c domain.Claim) (domain.Claim, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO shift_claims (id, org_id, shift_id, user_id, status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`
	_, err := r.q.Exec(ctx, sql, c.ID, c.OrgID, c.ShiftID, c.UserID, string(c.Status), c.Note, c.CreatedAt)
	if err != nil {
		return domain.Claim{}, perr.FromPostgres(err, "insert claim")
	}
	return c, nil
}

// GetClaim fetches one claim scoped to the org
func (r *queries) GetClaim(ctx context.Context, orgID, claimID string) (domain.Claim, error) {
	const sql = `
		SELECT id, org_id, shift_id, user_id, status, COALESCE(note, ''),
		       COALESCE(decided_by, ''), decided_at, created_at
		FROM shift_claims
		WHERE org_id = $1 AND id = $2
	`
	return store.One(ctx, r.q, func(row store.Row) (domain.Claim, error) {
		var (
			c      domain.Claim
			status string
		)
		err := row.Scan(&c.ID, &c.OrgID, &c.ShiftID, &c.UserID, &status, &c.Note, &c.DecidedBy, &c.DecidedAt, &c.CreatedAt)
		c.Status = domain.ClaimStatus(status)
		return c, err
	}, sql, orgID, claimID)
}

// SetClaimStatus transitions a claim optimistically by current status
func (r *queries) SetClaimStatus(
	ctx context.Context, orgID, claimID string, from, to domain.ClaimStatus, decidedBy string,
) (int64, error) {
	const sql = `
		UPDATE shift_claims
		SET status = $4, decided_by = NULLIF($5, ''), decided_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = $3
	`
	tag, err := r.q.Exec(ctx, sql, orgID, claimID, string(from), string(to), decidedBy)
	if err != nil {
		return 0, perr.FromPostgres(err, "set claim status")
	}
	return tag.RowsAffected(), nil
}

// RejectOtherClaims marks every other PENDING claim on the shift REJECTED
func (r *queries) RejectOtherClaims(ctx context.Context, orgID, shiftID, winningClaimID, decidedBy string) error {
	const sql = `
		UPDATE shift_claims
		SET status = 'REJECTED', decided_by = $4, decided_at = NOW()
		WHERE org_id = $1 AND shift_id = $2 AND id <> $3 AND status = 'PENDING'
	`
	_, err := r.q.Exec(ctx, sql, orgID, shiftID, winningClaimID, decidedBy)
	return perr.FromPostgres(err, "reject other claims")
}

// AssignShiftUser sets the user and closes the open flag
func (r *queries) AssignShiftUser(ctx context.Context, orgID, shiftID, userID string) error {
	const sql = `
		UPDATE scheduled_shifts
		SET user_id = $3, is_open = FALSE, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`
	tag, err := r.q.Exec(ctx, sql, orgID, shiftID, userID)
	if err != nil {
		return perr.FromPostgres(err, "assign shift user")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("shift %s not found", shiftID)
	}
	return nil
}

// SwapShiftUsers exchanges the assignees of two shifts
func (r *queries) SwapShiftUsers(ctx context.Context, orgID, shiftA, userA, shiftB, userB string) error {
	const sql = `
		UPDATE scheduled_shifts
		SET user_id = CASE id WHEN $2 THEN $3 WHEN $4 THEN $5 END, updated_at = NOW()
		WHERE org_id = $1 AND id IN ($2, $4)
	`
	tag, err := r.q.Exec(ctx, sql, orgID, shiftA, userA, shiftB, userB)
	if err != nil {
		return perr.FromPostgres(err, "swap shift users")
	}
	if tag.RowsAffected() != 2 {
		return perr.StateConflictf("swap touched %d rows, want 2", tag.RowsAffected())
	}
	return nil
}

// PayPeriodStatusAt finds the pay period containing the instant
func (r *queries) PayPeriodStatusAt(ctx context.Context, orgID, branchID string, at time.Time) (string, bool, error) {
	const sql = `
		SELECT status
		FROM pay_periods
		WHERE org_id = $1
		  AND (branch_id IS NULL OR branch_id = $2)
		  AND start_date <= $3 AND end_date >= $3
		ORDER BY branch_id NULLS LAST
		LIMIT 1
	`
	status, err := store.One(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}, sql, orgID, branchID, at)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", false, nil
		}
		return "", false, perr.FromPostgres(err, "pay period status")
	}
	return status, true, nil
}

// ExceptionFor returns the date-specific availability override, if any
func (r *queries) ExceptionFor(ctx context.Context, orgID, userID string, date time.Time) (domain.AvailabilityException, bool, error) {
	const sql = `
		SELECT user_id, date, available, COALESCE(start_min, 0), COALESCE(end_min, 0)
		FROM availability_exceptions
		WHERE org_id = $1 AND user_id = $2 AND date = $3
	`
	e, err := store.One(ctx, r.q, func(row store.Row) (domain.AvailabilityException, error) {
		var v domain.AvailabilityException
		err := row.Scan(&v.UserID, &v.Date, &v.Available, &v.StartMin, &v.EndMin)
		return v, err
	}, sql, orgID, userID, date)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.AvailabilityException{}, false, nil
		}
		return domain.AvailabilityException{}, false, err
	}
	return e, true, nil
}

// SlotsForWeekday returns the weekly availability windows for the weekday
func (r *queries) SlotsForWeekday(ctx context.Context, orgID, userID string, weekday int) ([]domain.AvailabilitySlot, error) {
	const sql = `
		SELECT user_id, weekday, start_min, end_min
		FROM availability_slots
		WHERE org_id = $1 AND user_id = $2 AND weekday = $3
		ORDER BY start_min
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.AvailabilitySlot, error) {
		var s domain.AvailabilitySlot
		err := row.Scan(&s.UserID, &s.Weekday, &s.StartMin, &s.EndMin)
		return s, err
	}, sql, orgID, userID, weekday)
}
