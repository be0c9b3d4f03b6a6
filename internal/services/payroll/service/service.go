// Package service implements payroll: pay periods, timesheet approvals,
// compensation setup, run lifecycle, calculation and GL posting
package service

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/payroll/domain"
	prepo "brigade/internal/services/payroll/repo"
	pdomain "brigade/internal/services/policy/domain"
)

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[prepo.Repo]
	repo   prepo.Repo
	audit  adomain.RecorderPort
	policy pdomain.ServicePort
	now    func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, audit adomain.RecorderPort, policy pdomain.ServicePort) *Svc {
	if db == nil {
		panic("payroll service requires a TxRunner")
	}
	b := prepo.NewPG()
	return &Svc{db: db, binder: b, repo: b.Bind(db), audit: audit, policy: policy, now: time.Now}
}

// CreatePeriod opens a new pay period
func (s *Svc) CreatePeriod(
	ctx context.Context,
	orgID, actorID string,
	in domain.CreatePeriodInput,
) (domain.PayPeriod, error) {
	if !in.Type.Valid() {
		return domain.PayPeriod{}, perr.Validationf("unknown period type %q", in.Type)
	}
	if !in.EndDate.After(in.StartDate) {
		return domain.PayPeriod{}, perr.Validationf("period end must be after start")
	}
	return s.repo.InsertPeriod(ctx, domain.PayPeriod{
		OrgID:     orgID,
		BranchID:  in.BranchID,
		Type:      in.Type,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    domain.PeriodOpen,
		CreatedAt: s.now().UTC(),
	})
}

// ClosePeriod flips OPEN to CLOSED and locks every contained timesheet
// approval in the same transaction
func (s *Svc) ClosePeriod(ctx context.Context, orgID, actorID, periodID string) (domain.PayPeriod, error) {
	var out domain.PayPeriod
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		p, err := r.GetPeriod(ctx, orgID, periodID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		rows, err := r.SetPeriodStatus(ctx, orgID, periodID, domain.PeriodOpen, domain.PeriodClosed, actorID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return perr.StateConflictf("pay period is %s, expected OPEN", p.Status)
		}
		locked, err := r.LockApprovals(ctx, orgID, p.BranchID, p.StartDate, p.EndDate, now)
		if err != nil {
			return err
		}
		out, err = r.GetPeriod(ctx, orgID, periodID)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     adomain.ActionPayPeriodClosed,
			EntityType: "pay_period",
			EntityID:   periodID,
			Payload:    map[string]any{"approvals_locked": locked},
		})
	})
	return out, err
}

// MarkExported flips CLOSED to EXPORTED after a successful export
func (s *Svc) MarkExported(ctx context.Context, orgID, actorID, periodID string) (domain.PayPeriod, error) {
	var out domain.PayPeriod
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		rows, err := r.SetPeriodStatus(
			ctx, orgID, periodID, domain.PeriodClosed, domain.PeriodExported, actorID, s.now().UTC())
		if err != nil {
			return err
		}
		if rows == 0 {
			p, err := r.GetPeriod(ctx, orgID, periodID)
			if err != nil {
				return err
			}
			return perr.StateConflictf("pay period is %s, expected CLOSED", p.Status)
		}
		out, err = r.GetPeriod(ctx, orgID, periodID)
		return err
	})
	return out, err
}

// ListPeriods returns the org's pay periods, optionally branch-scoped
func (s *Svc) ListPeriods(ctx context.Context, orgID, branchID string) ([]domain.PayPeriod, error) {
	return s.repo.ListPeriods(ctx, orgID, branchID)
}

// SetApproval decides the timesheet approval for a time entry, creating
// the row on first decision. Locked approvals reject further mutation,
// and entries auto-lock once their period has been over for the policy's
// auto-lock-days
func (s *Svc) SetApproval(
	ctx context.Context,
	orgID, actorID string,
	in domain.SetApprovalInput,
) (domain.TimesheetApproval, error) {
	if in.Status != domain.ApprovalApproved && in.Status != domain.ApprovalRejected {
		return domain.TimesheetApproval{}, perr.Validationf("status must be APPROVED or REJECTED")
	}

	var out domain.TimesheetApproval
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		now := s.now().UTC()

		pol := s.resolvePolicy(ctx, orgID)
		if locked, err := r.EntryAutoLocked(ctx, orgID, in.TimeEntryID, now.AddDate(0, 0, -pol.AutoLockDays)); err != nil {
			return err
		} else if locked {
			return perr.StateConflictf("timesheet auto-locked %d days after period end", pol.AutoLockDays)
		}

		a, ok, err := r.ApprovalByEntry(ctx, orgID, in.TimeEntryID)
		if err != nil {
			return err
		}
		if ok {
			if a.Locked() {
				return perr.StateConflictf("timesheet approval is locked by a closed pay period")
			}
			if err := r.DecideApproval(ctx, orgID, a.ID, in.Status, actorID, now); err != nil {
				return err
			}
			a.Status = in.Status
			a.DecidedBy = actorID
			a.DecidedAt = &now
		} else {
			userID, err := r.EntryUser(ctx, orgID, in.TimeEntryID)
			if err != nil {
				return err
			}
			a, err = r.InsertApproval(ctx, domain.TimesheetApproval{
				OrgID:       orgID,
				TimeEntryID: in.TimeEntryID,
				UserID:      userID,
				Status:      in.Status,
				DecidedBy:   actorID,
				DecidedAt:   &now,
				CreatedAt:   now,
			})
			if err != nil {
				return err
			}
		}
		out = a

		action := adomain.ActionTimesheetApproved
		if in.Status == domain.ApprovalRejected {
			action = adomain.ActionTimesheetRejected
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     action,
			EntityType: "timesheet_approval",
			EntityID:   a.ID,
			Payload:    map[string]any{"time_entry_id": in.TimeEntryID, "status": string(in.Status)},
		})
	})
	return out, err
}

// ListApprovals returns approvals, optionally filtered by status
func (s *Svc) ListApprovals(
	ctx context.Context,
	orgID string,
	status domain.ApprovalStatus,
) ([]domain.TimesheetApproval, error) {
	return s.repo.ListApprovals(ctx, orgID, status)
}

// CreateComponent defines a compensation component
func (s *Svc) CreateComponent(
	ctx context.Context,
	orgID string,
	in domain.CreateComponentInput,
) (domain.Component, error) {
	if !in.Type.Valid() {
		return domain.Component{}, perr.Validationf("unknown component type %q", in.Type)
	}
	if !in.Calc.Valid() {
		return domain.Component{}, perr.Validationf("unknown calc method %q", in.Calc)
	}
	if in.Code == "" {
		return domain.Component{}, perr.Validationf("component code required")
	}
	return s.repo.InsertComponent(ctx, domain.Component{
		OrgID:     orgID,
		BranchID:  in.BranchID,
		Code:      in.Code,
		Name:      in.Name,
		Type:      in.Type,
		Calc:      in.Calc,
		Value:     in.Value,
		Taxable:   in.Taxable,
		PreTax:    in.PreTax,
		Enabled:   true,
		CreatedAt: s.now().UTC(),
	})
}

// SetComponentEnabled toggles a component
func (s *Svc) SetComponentEnabled(
	ctx context.Context,
	orgID, componentID string,
	enabled bool,
) (domain.Component, error) {
	if err := s.repo.SetComponentEnabled(ctx, orgID, componentID, enabled); err != nil {
		return domain.Component{}, err
	}
	return s.repo.GetComponent(ctx, orgID, componentID)
}

// ListComponents returns all of the org's components
func (s *Svc) ListComponents(ctx context.Context, orgID string) ([]domain.Component, error) {
	return s.repo.ListComponents(ctx, orgID)
}

// CreateProfile sets a user's compensation window. Overlapping windows
// for the same user are forbidden
func (s *Svc) CreateProfile(
	ctx context.Context,
	orgID string,
	in domain.CreateProfileInput,
) (domain.Profile, error) {
	if in.UserID == "" {
		return domain.Profile{}, perr.Validationf("user id required")
	}
	if in.HourlyRate.IsNegative() {
		return domain.Profile{}, perr.Validationf("hourly rate must not be negative")
	}
	if in.EffectiveTo != nil && in.EffectiveTo.Before(in.EffectiveFrom) {
		return domain.Profile{}, perr.Validationf("effective window end before start")
	}

	var out domain.Profile
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		overlap, err := r.HasOverlappingProfile(ctx, orgID, in.UserID, in.EffectiveFrom, in.EffectiveTo)
		if err != nil {
			return err
		}
		if overlap {
			return perr.Conflictf("profile window overlaps an existing profile for user %s", in.UserID)
		}
		out, err = r.InsertProfile(ctx, domain.Profile{
			OrgID:         orgID,
			UserID:        in.UserID,
			HourlyRate:    in.HourlyRate,
			EffectiveFrom: in.EffectiveFrom,
			EffectiveTo:   in.EffectiveTo,
			CreatedAt:     s.now().UTC(),
		})
		return err
	})
	return out, err
}

// ListProfiles returns profiles, optionally for one user
func (s *Svc) ListProfiles(ctx context.Context, orgID, userID string) ([]domain.Profile, error) {
	return s.repo.ListProfiles(ctx, orgID, userID)
}

// SetMapping upserts the posting mapping for the org or a branch
func (s *Svc) SetMapping(ctx context.Context, orgID string, in domain.MappingInput) (domain.PostingMapping, error) {
	m := domain.PostingMapping{
		OrgID:    orgID,
		BranchID: in.BranchID,

		LaborExpenseAccountID:           in.LaborExpenseAccountID,
		WagesPayableAccountID:           in.WagesPayableAccountID,
		TaxesPayableAccountID:           in.TaxesPayableAccountID,
		DeductionsPayableAccountID:      in.DeductionsPayableAccountID,
		EmployerContribExpenseAccountID: in.EmployerContribExpenseAccountID,
		EmployerContribPayableAccountID: in.EmployerContribPayableAccountID,
		CashAccountID:                   in.CashAccountID,

		CreatedAt: s.now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return domain.PostingMapping{}, err
	}

	var out domain.PostingMapping
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		owned, err := r.AccountsOwned(ctx, orgID, m.AccountIDs())
		if err != nil {
			return err
		}
		if owned != len(uniqueIDs(m.AccountIDs())) {
			return perr.Validationf("posting mapping references accounts outside the org")
		}
		out, err = r.UpsertMapping(ctx, m)
		return err
	})
	return out, err
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CreateRun opens a DRAFT run over a pay period
func (s *Svc) CreateRun(ctx context.Context, orgID, actorID string, in domain.CreateRunInput) (domain.Run, error) {
	period, err := s.repo.GetPeriod(ctx, orgID, in.PeriodID)
	if err != nil {
		return domain.Run{}, err
	}
	branch := in.BranchID
	if branch == "" {
		branch = period.BranchID
	}
	return s.repo.InsertRun(ctx, domain.Run{
		OrgID:     orgID,
		BranchID:  branch,
		PeriodID:  period.ID,
		Status:    domain.RunDraft,
		CreatedAt: s.now().UTC(),
	})
}

// ApproveRun flips CALCULATED to APPROVED
func (s *Svc) ApproveRun(ctx context.Context, orgID, actorID, runID string) (domain.Run, error) {
	return s.transition(ctx, orgID, actorID, runID,
		domain.RunCalculated, domain.RunApproved, adomain.ActionPayrollApproved)
}

// GetRun returns the run with its lines and payslips
func (s *Svc) GetRun(ctx context.Context, orgID, runID string) (domain.RunDetail, error) {
	run, err := s.repo.GetRun(ctx, orgID, runID)
	if err != nil {
		return domain.RunDetail{}, err
	}
	lines, err := s.repo.LinesForRun(ctx, run.ID)
	if err != nil {
		return domain.RunDetail{}, err
	}
	slips, err := s.repo.PayslipsForRun(ctx, run.ID)
	if err != nil {
		return domain.RunDetail{}, err
	}
	return domain.RunDetail{Run: run, Lines: lines, Payslips: slips}, nil
}

// transition is the shared update-where-status run transition with audit
func (s *Svc) transition(
	ctx context.Context,
	orgID, actorID, runID string,
	from, to domain.RunStatus,
	action adomain.Action,
) (domain.Run, error) {
	var out domain.Run
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		rows, err := r.SetRunStatus(ctx, orgID, runID, from, to, actorID, s.now().UTC())
		if err != nil {
			return err
		}
		if rows == 0 {
			run, err := r.GetRun(ctx, orgID, runID)
			if err != nil {
				return err
			}
			return perr.StateConflictf("payroll run is %s, expected %s", run.Status, from)
		}
		out, err = r.GetRun(ctx, orgID, runID)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     action,
			EntityType: "payroll_run",
			EntityID:   runID,
			Payload:    map[string]any{"from": string(from), "to": string(to)},
		})
	})
	return out, err
}
