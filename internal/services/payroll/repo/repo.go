// Package repo provides payroll persistence: periods, approvals,
// compensation setup, runs and the GL tables posting writes
package repo

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/payroll/domain"

	"github.com/google/uuid"
)

// PayableEntry is one completed time entry reduced to the minutes the
// calculator needs
type PayableEntry struct {
	UserID        string
	WorkedMinutes int
	BreakMinutes  int
}

// Repo is the payroll persistence surface
type Repo interface {
	InsertPeriod(ctx context.Context, p domain.PayPeriod) (domain.PayPeriod, error)
	GetPeriod(ctx context.Context, orgID, periodID string) (domain.PayPeriod, error)
	SetPeriodStatus(
		ctx context.Context, orgID, periodID string,
		from, to domain.PeriodStatus, actorID string, at time.Time,
	) (int64, error)
	ListPeriods(ctx context.Context, orgID, branchID string) ([]domain.PayPeriod, error)
	// LockApprovals stamps locked_at on approvals whose time entry falls
	// inside the period window
	LockApprovals(ctx context.Context, orgID, branchID string, start, end, at time.Time) (int64, error)

	ApprovalByEntry(ctx context.Context, orgID, timeEntryID string) (domain.TimesheetApproval, bool, error)
	EntryUser(ctx context.Context, orgID, timeEntryID string) (string, error)
	// EntryAutoLocked reports whether the entry's clock-in falls inside a
	// pay period whose end date is on or before the cutoff
	EntryAutoLocked(ctx context.Context, orgID, timeEntryID string, cutoff time.Time) (bool, error)
	InsertApproval(ctx context.Context, a domain.TimesheetApproval) (domain.TimesheetApproval, error)
	DecideApproval(
		ctx context.Context, orgID, approvalID string,
		status domain.ApprovalStatus, actorID string, at time.Time,
	) error
	ListApprovals(ctx context.Context, orgID string, status domain.ApprovalStatus) ([]domain.TimesheetApproval, error)

	InsertComponent(ctx context.Context, c domain.Component) (domain.Component, error)
	GetComponent(ctx context.Context, orgID, componentID string) (domain.Component, error)
	SetComponentEnabled(ctx context.Context, orgID, componentID string, enabled bool) error
	ListComponents(ctx context.Context, orgID string) ([]domain.Component, error)
	EnabledComponents(ctx context.Context, orgID, branchID string) ([]domain.Component, error)

	InsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error)
	HasOverlappingProfile(ctx context.Context, orgID, userID string, from time.Time, to *time.Time) (bool, error)
	ProfileFor(ctx context.Context, orgID, userID string, date time.Time) (domain.Profile, bool, error)
	ListProfiles(ctx context.Context, orgID, userID string) ([]domain.Profile, error)

	UpsertMapping(ctx context.Context, m domain.PostingMapping) (domain.PostingMapping, error)
	// MappingFor prefers a branch-scoped row over the org default
	MappingFor(ctx context.Context, orgID, branchID string) (domain.PostingMapping, bool, error)

	InsertRun(ctx context.Context, r domain.Run) (domain.Run, error)
	GetRun(ctx context.Context, orgID, runID string) (domain.Run, error)
	SetRunStatus(
		ctx context.Context, orgID, runID string,
		from, to domain.RunStatus, actorID string, at time.Time,
	) (int64, error)
	UpdateRunTotals(ctx context.Context, r domain.Run) error

	PayableEntries(
		ctx context.Context, orgID, branchID string,
		start, end time.Time, approvedOnly bool,
	) ([]PayableEntry, error)

	ReplaceRunLines(ctx context.Context, runID string, lines []domain.RunLine) error
	LinesForRun(ctx context.Context, runID string) ([]domain.RunLine, error)
	ReplacePayslips(ctx context.Context, runID string, slips []domain.Payslip, lines map[string][]domain.PayslipLine) error
	PayslipsForRun(ctx context.Context, runID string) ([]domain.Payslip, error)

	AccountsOwned(ctx context.Context, orgID string, ids []string) (int, error)
	InsertJournal(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error)
	GetJournal(ctx context.Context, orgID, journalID string) (domain.JournalEntry, error)
	MarkJournalReversed(ctx context.Context, orgID, journalID string) error
	InsertLink(ctx context.Context, l domain.JournalLink) (domain.JournalLink, error)
	LinksForRun(ctx context.Context, runID string) ([]domain.JournalLink, error)
	LinkOfType(ctx context.Context, runID string, t domain.LinkType) (domain.JournalLink, bool, error)
}

type (
	// PG is a Postgres implementation of the payroll repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

const periodCols = `
	id, org_id, COALESCE(branch_id, ''), type, start_date, end_date, status,
	COALESCE(closed_by, ''), closed_at, created_at`

func scanPeriod(row store.Row) (domain.PayPeriod, error) {
	var p domain.PayPeriod
	err := row.Scan(
		&p.ID, &p.OrgID, &p.BranchID, &p.Type, &p.StartDate, &p.EndDate, &p.Status,
		&p.ClosedBy, &p.ClosedAt, &p.CreatedAt,
	)
	return p, err
}

func (r *queries) InsertPeriod(ctx context.Context, p domain.PayPeriod) (domain.PayPeriod, error) {
	p.ID = newID(p.ID)
	const sql = `
		INSERT INTO pay_periods (id, org_id, branch_id, type, start_date, end_date, status, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
	`
	_, err := r.q.Exec(ctx, sql,
		p.ID, p.OrgID, p.BranchID, string(p.Type), p.StartDate, p.EndDate, string(p.Status), p.CreatedAt)
	if err != nil {
		return domain.PayPeriod{}, perr.FromPostgres(err, "insert pay period")
	}
	return p, nil
}

func (r *queries) GetPeriod(ctx context.Context, orgID, periodID string) (domain.PayPeriod, error) {
	const sql = `SELECT ` + periodCols + ` FROM pay_periods WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanPeriod, sql, orgID, periodID)
}

func (r *queries) SetPeriodStatus(
	ctx context.Context,
	orgID, periodID string,
	from, to domain.PeriodStatus,
	actorID string,
	at time.Time,
) (int64, error) {
	const sql = `
		UPDATE pay_periods
		   SET status = $4,
		       closed_by = CASE WHEN $4 = 'CLOSED' THEN $5 ELSE closed_by END,
		       closed_at = CASE WHEN $4 = 'CLOSED' THEN $6 ELSE closed_at END
		 WHERE org_id = $1 AND id = $2 AND status = $3
	`
	tag, err := r.q.Exec(ctx, sql, orgID, periodID, string(from), string(to), actorID, at)
	if err != nil {
		return 0, perr.FromPostgres(err, "update pay period status")
	}
	return tag.RowsAffected(), nil
}

func (r *queries) ListPeriods(ctx context.Context, orgID, branchID string) ([]domain.PayPeriod, error) {
	const sql = `
		SELECT ` + periodCols + `
		  FROM pay_periods
		 WHERE org_id = $1 AND ($2 = '' OR COALESCE(branch_id, '') = $2)
		 ORDER BY start_date DESC, id
	`
	return store.Many(ctx, r.q, scanPeriod, sql, orgID, branchID)
}

func (r *queries) LockApprovals(
	ctx context.Context,
	orgID, branchID string,
	start, end, at time.Time,
) (int64, error) {
	const sql = `
		UPDATE timesheet_approvals a
		   SET locked_at = $5
		  FROM time_entries t
		 WHERE a.time_entry_id = t.id
		   AND a.org_id = $1
		   AND ($2 = '' OR t.branch_id = $2)
		   AND t.clock_in_at >= $3 AND t.clock_in_at <= $4
		   AND a.locked_at IS NULL
	`
	tag, err := r.q.Exec(ctx, sql, orgID, branchID, start, end, at)
	if err != nil {
		return 0, perr.FromPostgres(err, "lock approvals")
	}
	return tag.RowsAffected(), nil
}

const approvalCols = `
	id, org_id, time_entry_id, user_id, status,
	COALESCE(decided_by, ''), decided_at, locked_at, created_at`

func scanApproval(row store.Row) (domain.TimesheetApproval, error) {
	var a domain.TimesheetApproval
	err := row.Scan(
		&a.ID, &a.OrgID, &a.TimeEntryID, &a.UserID, &a.Status,
		&a.DecidedBy, &a.DecidedAt, &a.LockedAt, &a.CreatedAt,
	)
	return a, err
}

func (r *queries) ApprovalByEntry(
	ctx context.Context,
	orgID, timeEntryID string,
) (domain.TimesheetApproval, bool, error) {
	const sql = `SELECT ` + approvalCols + ` FROM timesheet_approvals WHERE org_id = $1 AND time_entry_id = $2`
	a, err := store.One(ctx, r.q, scanApproval, sql, orgID, timeEntryID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.TimesheetApproval{}, false, nil
		}
		return domain.TimesheetApproval{}, false, err
	}
	return a, true, nil
}

func (r *queries) EntryUser(ctx context.Context, orgID, timeEntryID string) (string, error) {
	const sql = `SELECT user_id FROM time_entries WHERE org_id = $1 AND id = $2`
	uid, err := store.One(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}, sql, orgID, timeEntryID)
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (r *queries) EntryAutoLocked(
	ctx context.Context,
	orgID, timeEntryID string,
	cutoff time.Time,
) (bool, error) {
	const sql = `
		SELECT EXISTS (
			SELECT 1
			  FROM pay_periods p
			  JOIN time_entries t ON t.org_id = p.org_id
			   AND (COALESCE(p.branch_id, '') = '' OR p.branch_id = t.branch_id)
			   AND t.clock_in_at >= p.start_date AND t.clock_in_at <= p.end_date
			 WHERE p.org_id = $1 AND t.id = $2 AND p.end_date <= $3
		)
	`
	return store.One(ctx, r.q, func(row store.Row) (bool, error) {
		var locked bool
		err := row.Scan(&locked)
		return locked, err
	}, sql, orgID, timeEntryID, cutoff)
}

func (r *queries) InsertApproval(
	ctx context.Context,
	a domain.TimesheetApproval,
) (domain.TimesheetApproval, error) {
	a.ID = newID(a.ID)
	const sql = `
		INSERT INTO timesheet_approvals (id, org_id, time_entry_id, user_id, status, decided_by, decided_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := r.q.Exec(ctx, sql,
		a.ID, a.OrgID, a.TimeEntryID, a.UserID, string(a.Status), a.DecidedBy, a.DecidedAt, a.CreatedAt)
	if err != nil {
		return domain.TimesheetApproval{}, perr.FromPostgres(err, "insert approval")
	}
	return a, nil
}

func (r *queries) DecideApproval(
	ctx context.Context,
	orgID, approvalID string,
	status domain.ApprovalStatus,
	actorID string,
	at time.Time,
) error {
	const sql = `
		UPDATE timesheet_approvals
		   SET status = $3, decided_by = $4, decided_at = $5
		 WHERE org_id = $1 AND id = $2 AND locked_at IS NULL
	`
	if err := store.ExecOne(ctx, r.q, sql, orgID, approvalID, string(status), actorID, at); err != nil {
		return perr.FromPostgres(err, "decide approval")
	}
	return nil
}

func (r *queries) ListApprovals(
	ctx context.Context,
	orgID string,
	status domain.ApprovalStatus,
) ([]domain.TimesheetApproval, error) {
	const sql = `
		SELECT ` + approvalCols + `
		  FROM timesheet_approvals
		 WHERE org_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC, id
	`
	return store.Many(ctx, r.q, scanApproval, sql, orgID, string(status))
}

const componentCols = `
	id, org_id, COALESCE(branch_id, ''), code, name, type, calc, value,
	taxable, pre_tax, enabled, created_at`

func scanComponent(row store.Row) (domain.Component, error) {
	var c domain.Component
	err := row.Scan(
		&c.ID, &c.OrgID, &c.BranchID, &c.Code, &c.Name, &c.Type, &c.Calc, &c.Value,
		&c.Taxable, &c.PreTax, &c.Enabled, &c.CreatedAt,
	)
	return c, err
}

func (r *queries) InsertComponent(ctx context.Context, c domain.Component) (domain.Component, error) {
	c.ID = newID(c.ID)
	const sql = `
		INSERT INTO pay_components (
			id, org_id, branch_id, code, name, type, calc, value, taxable, pre_tax, enabled, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.Exec(ctx, sql,
		c.ID, c.OrgID, c.BranchID, c.Code, c.Name, string(c.Type), string(c.Calc), c.Value,
		c.Taxable, c.PreTax, c.Enabled, c.CreatedAt)
	if err != nil {
		return domain.Component{}, perr.FromPostgres(err, "insert component")
	}
	return c, nil
}

func (r *queries) GetComponent(ctx context.Context, orgID, componentID string) (domain.Component, error) {
	const sql = `SELECT ` + componentCols + ` FROM pay_components WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanComponent, sql, orgID, componentID)
}

func (r *queries) SetComponentEnabled(ctx context.Context, orgID, componentID string, enabled bool) error {
	const sql = `UPDATE pay_components SET enabled = $3 WHERE org_id = $1 AND id = $2`
	if err := store.ExecOne(ctx, r.q, sql, orgID, componentID, enabled); err != nil {
		return perr.FromPostgres(err, "toggle component")
	}
	return nil
}

func (r *queries) ListComponents(ctx context.Context, orgID string) ([]domain.Component, error) {
	const sql = `SELECT ` + componentCols + ` FROM pay_components WHERE org_id = $1 ORDER BY code, id`
	return store.Many(ctx, r.q, scanComponent, sql, orgID)
}

func (r *queries) EnabledComponents(ctx context.Context, orgID, branchID string) ([]domain.Component, error) {
	const sql = `
		SELECT ` + componentCols + `
		  FROM pay_components
		 WHERE org_id = $1 AND enabled
		   AND (branch_id IS NULL OR branch_id = $2)
		 ORDER BY code, id
	`
	return store.Many(ctx, r.q, scanComponent, sql, orgID, branchID)
}

const profileCols = `
	id, org_id, user_id, hourly_rate, effective_from, effective_to, created_at`

func scanProfile(row store.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.OrgID, &p.UserID, &p.HourlyRate, &p.EffectiveFrom, &p.EffectiveTo, &p.CreatedAt)
	return p, err
}

func (r *queries) InsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	p.ID = newID(p.ID)
	const sql = `
		INSERT INTO comp_profiles (id, org_id, user_id, hourly_rate, effective_from, effective_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, sql, p.ID, p.OrgID, p.UserID, p.HourlyRate, p.EffectiveFrom, p.EffectiveTo, p.CreatedAt)
	if err != nil {
		return domain.Profile{}, perr.FromPostgres(err, "insert profile")
	}
	return p, nil
}

func (r *queries) HasOverlappingProfile(
	ctx context.Context,
	orgID, userID string,
	from time.Time,
	to *time.Time,
) (bool, error) {
	const sql = `
		SELECT COUNT(*)::int
		  FROM comp_profiles
		 WHERE org_id = $1 AND user_id = $2
		   AND (effective_to IS NULL OR effective_to >= $3)
		   AND ($4::timestamptz IS NULL OR effective_from <= $4)
	`
	n, err := store.Scalar[int](ctx, r.q, sql, orgID, userID, from, to)
	if err != nil {
		return false, perr.FromPostgres(err, "check profile overlap")
	}
	return n > 0, nil
}

func (r *queries) ProfileFor(
	ctx context.Context,
	orgID, userID string,
	date time.Time,
) (domain.Profile, bool, error) {
	const sql = `
		SELECT ` + profileCols + `
		  FROM comp_profiles
		 WHERE org_id = $1 AND user_id = $2
		   AND effective_from <= $3
		   AND (effective_to IS NULL OR effective_to >= $3)
		 ORDER BY effective_from DESC
		 LIMIT 1
	`
	p, err := store.One(ctx, r.q, scanProfile, sql, orgID, userID, date)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return p, true, nil
}

func (r *queries) ListProfiles(ctx context.Context, orgID, userID string) ([]domain.Profile, error) {
	const sql = `
		SELECT ` + profileCols + `
		  FROM comp_profiles
		 WHERE org_id = $1 AND ($2 = '' OR user_id = $2)
		 ORDER BY user_id, effective_from
	`
	return store.Many(ctx, r.q, scanProfile, sql, orgID, userID)
}

const mappingCols = `
	id, org_id, COALESCE(branch_id, ''),
	labor_expense_account_id, wages_payable_account_id, taxes_payable_account_id,
	deductions_payable_account_id, employer_contrib_expense_account_id,
	employer_contrib_payable_account_id, cash_account_id, created_at`

func scanMapping(row store.Row) (domain.PostingMapping, error) {
	var m domain.PostingMapping
	err := row.Scan(
		&m.ID, &m.OrgID, &m.BranchID,
		&m.LaborExpenseAccountID, &m.WagesPayableAccountID, &m.TaxesPayableAccountID,
		&m.DeductionsPayableAccountID, &m.EmployerContribExpenseAccountID,
		&m.EmployerContribPayableAccountID, &m.CashAccountID, &m.CreatedAt,
	)
	return m, err
}

func (r *queries) UpsertMapping(ctx context.Context, m domain.PostingMapping) (domain.PostingMapping, error) {
	m.ID = newID(m.ID)
	const sql = `
		INSERT INTO payroll_posting_mappings (
			id, org_id, branch_id,
			labor_expense_account_id, wages_payable_account_id, taxes_payable_account_id,
			deductions_payable_account_id, employer_contrib_expense_account_id,
			employer_contrib_payable_account_id, cash_account_id, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (org_id, COALESCE(branch_id, '')) DO UPDATE SET
			labor_expense_account_id = EXCLUDED.labor_expense_account_id,
			wages_payable_account_id = EXCLUDED.wages_payable_account_id,
			taxes_payable_account_id = EXCLUDED.taxes_payable_account_id,
			deductions_payable_account_id = EXCLUDED.deductions_payable_account_id,
			employer_contrib_expense_account_id = EXCLUDED.employer_contrib_expense_account_id,
			employer_contrib_payable_account_id = EXCLUDED.employer_contrib_payable_account_id,
			cash_account_id = EXCLUDED.cash_account_id
		RETURNING ` + mappingCols

	return store.One(ctx, r.q, scanMapping, sql,
		m.ID, m.OrgID, m.BranchID,
		m.LaborExpenseAccountID, m.WagesPayableAccountID, m.TaxesPayableAccountID,
		m.DeductionsPayableAccountID, m.EmployerContribExpenseAccountID,
		m.EmployerContribPayableAccountID, m.CashAccountID, m.CreatedAt)
}

func (r *queries) MappingFor(
	ctx context.Context,
	orgID, branchID string,
) (domain.PostingMapping, bool, error) {
	const sql = `
		SELECT ` + mappingCols + `
		  FROM payroll_posting_mappings
		 WHERE org_id = $1 AND (branch_id IS NULL OR branch_id = $2)
		 ORDER BY branch_id NULLS LAST
		 LIMIT 1
	`
	m, err := store.One(ctx, r.q, scanMapping, sql, orgID, branchID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.PostingMapping{}, false, nil
		}
		return domain.PostingMapping{}, false, err
	}
	return m, true, nil
}

const runCols = `
	id, org_id, COALESCE(branch_id, ''), period_id, status,
	total_regular_hours, total_overtime_hours, total_paid_hours, total_gross, total_net,
	COALESCE(calculated_by, ''), calculated_at,
	COALESCE(approved_by, ''), approved_at,
	COALESCE(posted_by, ''), posted_at,
	COALESCE(paid_by, ''), paid_at,
	COALESCE(voided_by, ''), voided_at,
	created_at`

func scanRun(row store.Row) (domain.Run, error) {
	var r domain.Run
	err := row.Scan(
		&r.ID, &r.OrgID, &r.BranchID, &r.PeriodID, &r.Status,
		&r.TotalRegularHours, &r.TotalOvertimeHours, &r.TotalPaidHours, &r.TotalGross, &r.TotalNet,
		&r.CalculatedBy, &r.CalculatedAt,
		&r.ApprovedBy, &r.ApprovedAt,
		&r.PostedBy, &r.PostedAt,
		&r.PaidBy, &r.PaidAt,
		&r.VoidedBy, &r.VoidedAt,
		&r.CreatedAt,
	)
	return r, err
}

func (r *queries) InsertRun(ctx context.Context, run domain.Run) (domain.Run, error) {
	run.ID = newID(run.ID)
	const sql = `
		INSERT INTO payroll_runs (
			id, org_id, branch_id, period_id, status,
			total_regular_hours, total_overtime_hours, total_paid_hours, total_gross, total_net,
			created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, 0, 0, 0, 0, 0, $6)
	`
	_, err := r.q.Exec(ctx, sql, run.ID, run.OrgID, run.BranchID, run.PeriodID, string(run.Status), run.CreatedAt)
	if err != nil {
		return domain.Run{}, perr.FromPostgres(err, "insert payroll run")
	}
	return run, nil
}

func (r *queries) GetRun(ctx context.Context, orgID, runID string) (domain.Run, error) {
	const sql = `SELECT ` + runCols + ` FROM payroll_runs WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanRun, sql, orgID, runID)
}

// SetRunStatus is an update-where-status transition that also stamps the
// actor column matching the target status
func (r *queries) SetRunStatus(
	ctx context.Context,
	orgID, runID string,
	from, to domain.RunStatus,
	actorID string,
	at time.Time,
) (int64, error) {
	const sql = `
		UPDATE payroll_runs
		   SET status = $4,
		       calculated_by = CASE WHEN $4 = 'CALCULATED' THEN $5 ELSE calculated_by END,
		       calculated_at = CASE WHEN $4 = 'CALCULATED' THEN $6 ELSE calculated_at END,
		       approved_by   = CASE WHEN $4 = 'APPROVED'   THEN $5 ELSE approved_by END,
		       approved_at   = CASE WHEN $4 = 'APPROVED'   THEN $6 ELSE approved_at END,
		       posted_by     = CASE WHEN $4 = 'POSTED'     THEN $5 ELSE posted_by END,
		       posted_at     = CASE WHEN $4 = 'POSTED'     THEN $6 ELSE posted_at END,
		       paid_by       = CASE WHEN $4 = 'PAID'       THEN $5 ELSE paid_by END,
		       paid_at       = CASE WHEN $4 = 'PAID'       THEN $6 ELSE paid_at END,
		       voided_by     = CASE WHEN $4 = 'VOID'       THEN $5 ELSE voided_by END,
		       voided_at     = CASE WHEN $4 = 'VOID'       THEN $6 ELSE voided_at END
		 WHERE org_id = $1 AND id = $2 AND status = $3
	`
	tag, err := r.q.Exec(ctx, sql, orgID, runID, string(from), string(to), actorID, at)
	if err != nil {
		return 0, perr.FromPostgres(err, "update run status")
	}
	return tag.RowsAffected(), nil
}

func (r *queries) UpdateRunTotals(ctx context.Context, run domain.Run) error {
	const sql = `
		UPDATE payroll_runs
		   SET total_regular_hours = $3, total_overtime_hours = $4,
		       total_paid_hours = $5, total_gross = $6, total_net = $7
		 WHERE org_id = $1 AND id = $2
	`
	if err := store.ExecOne(ctx, r.q, sql,
		run.OrgID, run.ID,
		run.TotalRegularHours, run.TotalOvertimeHours, run.TotalPaidHours,
		run.TotalGross, run.TotalNet); err != nil {
		return perr.FromPostgres(err, "update run totals")
	}
	return nil
}

// PayableEntries reduces completed entries in the window to per-entry
// worked and break minutes. With approvedOnly, entries without an
// APPROVED timesheet decision are excluded
func (r *queries) PayableEntries(
	ctx context.Context,
	orgID, branchID string,
	start, end time.Time,
	approvedOnly bool,
) ([]PayableEntry, error) {
	const sql = `
		SELECT t.user_id,
		       (EXTRACT(EPOCH FROM (t.clock_out_at - t.clock_in_at)) / 60)::int,
		       COALESCE((SELECT SUM(b.minutes)::int FROM break_entries b
		                  WHERE b.time_entry_id = t.id AND b.end_at IS NOT NULL), 0)
		  FROM time_entries t
		 WHERE t.org_id = $1
		   AND ($2 = '' OR t.branch_id = $2)
		   AND t.clock_in_at >= $3
		   AND t.clock_out_at IS NOT NULL AND t.clock_out_at <= $4
		   AND (NOT $5 OR EXISTS (SELECT 1 FROM timesheet_approvals a
		                           WHERE a.time_entry_id = t.id AND a.status = 'APPROVED'))
		 ORDER BY t.user_id, t.clock_in_at, t.id
	`
	return store.Many(ctx, r.q, func(row store.Row) (PayableEntry, error) {
		var e PayableEntry
		err := row.Scan(&e.UserID, &e.WorkedMinutes, &e.BreakMinutes)
		return e, err
	}, sql, orgID, branchID, start, end, approvedOnly)
}

func (r *queries) ReplaceRunLines(ctx context.Context, runID string, lines []domain.RunLine) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payroll_run_lines WHERE run_id = $1`, runID); err != nil {
		return perr.FromPostgres(err, "clear run lines")
	}
	const sql = `
		INSERT INTO payroll_run_lines (id, run_id, user_id, regular_hours, overtime_hours, break_hours, paid_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, l := range lines {
		l.ID = newID(l.ID)
		if _, err := r.q.Exec(ctx, sql,
			l.ID, runID, l.UserID, l.RegularHours, l.OvertimeHours, l.BreakHours, l.PaidHours); err != nil {
			return perr.FromPostgres(err, "insert run line")
		}
	}
	return nil
}

func (r *queries) LinesForRun(ctx context.Context, runID string) ([]domain.RunLine, error) {
	const sql = `
		SELECT id, run_id, user_id, regular_hours, overtime_hours, break_hours, paid_hours
		  FROM payroll_run_lines
		 WHERE run_id = $1
		 ORDER BY user_id
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.RunLine, error) {
		var l domain.RunLine
		err := row.Scan(&l.ID, &l.RunID, &l.UserID, &l.RegularHours, &l.OvertimeHours, &l.BreakHours, &l.PaidHours)
		return l, err
	}, sql, runID)
}

// ReplacePayslips rewrites the run's payslips and their line items.
// Line items are keyed by the slip's user id in the input map
func (r *queries) ReplacePayslips(
	ctx context.Context,
	runID string,
	slips []domain.Payslip,
	lines map[string][]domain.PayslipLine,
) error {
	if _, err := r.q.Exec(ctx,
		`DELETE FROM payslip_lines WHERE payslip_id IN (SELECT id FROM payslips WHERE run_id = $1)`,
		runID); err != nil {
		return perr.FromPostgres(err, "clear payslip lines")
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM payslips WHERE run_id = $1`, runID); err != nil {
		return perr.FromPostgres(err, "clear payslips")
	}

	const slipSQL = `
		INSERT INTO payslips (
			id, run_id, user_id, gross_earnings, pre_tax_deductions, taxable_wages,
			taxes_withheld, post_tax_deductions, net_pay, employer_contrib_total, total_employer_cost
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	const lineSQL = `
		INSERT INTO payslip_lines (id, payslip_id, component_code, type, amount)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, s := range slips {
		s.ID = newID(s.ID)
		if _, err := r.q.Exec(ctx, slipSQL,
			s.ID, runID, s.UserID, s.GrossEarnings, s.PreTaxDeductions, s.TaxableWages,
			s.TaxesWithheld, s.PostTaxDeductions, s.NetPay, s.EmployerContribTotal, s.TotalEmployerCost); err != nil {
			return perr.FromPostgres(err, "insert payslip")
		}
		for _, l := range lines[s.UserID] {
			l.ID = newID(l.ID)
			if _, err := r.q.Exec(ctx, lineSQL, l.ID, s.ID, l.ComponentCode, string(l.Type), l.Amount); err != nil {
				return perr.FromPostgres(err, "insert payslip line")
			}
		}
	}
	return nil
}

func (r *queries) PayslipsForRun(ctx context.Context, runID string) ([]domain.Payslip, error) {
	const sql = `
		SELECT id, run_id, user_id, gross_earnings, pre_tax_deductions, taxable_wages,
		       taxes_withheld, post_tax_deductions, net_pay, employer_contrib_total, total_employer_cost
		  FROM payslips
		 WHERE run_id = $1
		 ORDER BY user_id
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.Payslip, error) {
		var s domain.Payslip
		err := row.Scan(
			&s.ID, &s.RunID, &s.UserID, &s.GrossEarnings, &s.PreTaxDeductions, &s.TaxableWages,
			&s.TaxesWithheld, &s.PostTaxDeductions, &s.NetPay, &s.EmployerContribTotal, &s.TotalEmployerCost)
		return s, err
	}, sql, runID)
}

func (r *queries) AccountsOwned(ctx context.Context, orgID string, ids []string) (int, error) {
	const sql = `SELECT COUNT(*)::int FROM gl_accounts WHERE org_id = $1 AND id = ANY($2)`
	n, err := store.Scalar[int](ctx, r.q, sql, orgID, ids)
	if err != nil {
		return 0, perr.FromPostgres(err, "count accounts")
	}
	return n, nil
}

func (r *queries) InsertJournal(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	e.ID = newID(e.ID)
	const entrySQL = `
		INSERT INTO gl_journal_entries (id, org_id, source, memo, reversed, reverses_id, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := r.q.Exec(ctx, entrySQL,
		e.ID, e.OrgID, string(e.Source), e.Memo, e.Reversed, e.ReversesID, e.EntryDate, e.CreatedAt)
	if err != nil {
		return domain.JournalEntry{}, perr.FromPostgres(err, "insert journal")
	}

	const lineSQL = `
		INSERT INTO gl_journal_lines (id, journal_id, account_id, debit, credit, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range e.Lines {
		e.Lines[i].ID = newID(e.Lines[i].ID)
		e.Lines[i].JournalID = e.ID
		l := e.Lines[i]
		if _, err := r.q.Exec(ctx, lineSQL, l.ID, l.JournalID, l.AccountID, l.Debit, l.Credit, l.Meta); err != nil {
			return domain.JournalEntry{}, perr.FromPostgres(err, "insert journal line")
		}
	}
	return e, nil
}

func (r *queries) GetJournal(ctx context.Context, orgID, journalID string) (domain.JournalEntry, error) {
	const sql = `
		SELECT id, org_id, source, COALESCE(memo, ''), reversed, COALESCE(reverses_id, ''), entry_date, created_at
		  FROM gl_journal_entries
		 WHERE org_id = $1 AND id = $2
	`
	e, err := store.One(ctx, r.q, func(row store.Row) (domain.JournalEntry, error) {
		var e domain.JournalEntry
		err := row.Scan(&e.ID, &e.OrgID, &e.Source, &e.Memo, &e.Reversed, &e.ReversesID, &e.EntryDate, &e.CreatedAt)
		return e, err
	}, sql, orgID, journalID)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	const lineSQL = `
		SELECT id, journal_id, account_id, debit, credit, meta
		  FROM gl_journal_lines
		 WHERE journal_id = $1
		 ORDER BY id
	`
	e.Lines, err = store.Many(ctx, r.q, func(row store.Row) (domain.JournalLine, error) {
		var l domain.JournalLine
		err := row.Scan(&l.ID, &l.JournalID, &l.AccountID, &l.Debit, &l.Credit, &l.Meta)
		return l, err
	}, lineSQL, journalID)
	return e, err
}

func (r *queries) MarkJournalReversed(ctx context.Context, orgID, journalID string) error {
	const sql = `UPDATE gl_journal_entries SET reversed = TRUE WHERE org_id = $1 AND id = $2 AND NOT reversed`
	if err := store.ExecOne(ctx, r.q, sql, orgID, journalID); err != nil {
		return perr.FromPostgres(err, "mark journal reversed")
	}
	return nil
}

func (r *queries) InsertLink(ctx context.Context, l domain.JournalLink) (domain.JournalLink, error) {
	l.ID = newID(l.ID)
	const sql = `
		INSERT INTO payroll_journal_links (id, run_id, journal_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.q.Exec(ctx, sql, l.ID, l.RunID, l.JournalID, string(l.Type), l.CreatedAt); err != nil {
		return domain.JournalLink{}, perr.FromPostgres(err, "insert journal link")
	}
	return l, nil
}

func (r *queries) LinksForRun(ctx context.Context, runID string) ([]domain.JournalLink, error) {
	const sql = `
		SELECT id, run_id, journal_id, type, created_at
		  FROM payroll_journal_links
		 WHERE run_id = $1
		 ORDER BY created_at, id
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.JournalLink, error) {
		var l domain.JournalLink
		err := row.Scan(&l.ID, &l.RunID, &l.JournalID, &l.Type, &l.CreatedAt)
		return l, err
	}, sql, runID)
}

func (r *queries) LinkOfType(
	ctx context.Context,
	runID string,
	t domain.LinkType,
) (domain.JournalLink, bool, error) {
	const sql = `
		SELECT id, run_id, journal_id, type, created_at
		  FROM payroll_journal_links
		 WHERE run_id = $1 AND type = $2
		 LIMIT 1
	`
	l, err := store.One(ctx, r.q, func(row store.Row) (domain.JournalLink, error) {
		var l domain.JournalLink
		err := row.Scan(&l.ID, &l.RunID, &l.JournalID, &l.Type, &l.CreatedAt)
		return l, err
	}, sql, runID, string(t))
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.JournalLink{}, false, nil
		}
		return domain.JournalLink{}, false, err
	}
	return l, true, nil
}
