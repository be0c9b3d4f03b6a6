// Package service implements scheduling: templates, shifts, publish,
// claims and swaps, all sharing one conflict detector
package service

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/timeutil"
	adomain "brigade/internal/services/audit/domain"
	pdomain "brigade/internal/services/policy/domain"
	"brigade/internal/services/scheduling/domain"
	srepo "brigade/internal/services/scheduling/repo"
)

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[srepo.Repo]
	repo   srepo.Repo
	audit  adomain.RecorderPort
	policy pdomain.ServicePort
	now    func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, audit adomain.RecorderPort, policy pdomain.ServicePort) *Svc {
	if db == nil {
		panic("scheduling service requires a TxRunner")
	}
	b := srepo.NewPG()
	return &Svc{db: db, binder: b, repo: b.Bind(db), audit: audit, policy: policy, now: time.Now}
}

// UpsertTemplate creates or updates a reusable shift definition
func (s *Svc) UpsertTemplate(ctx context.Context, orgID, actorID string, in domain.UpsertTemplateInput) (domain.Template, error) {
	if orgID == "" {
		return domain.Template{}, perr.Validationf("org id required")
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	t := domain.Template{
		ID:           in.ID,
		OrgID:        orgID,
		BranchID:     in.BranchID,
		Name:         in.Name,
		Role:         in.Role,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		BreakMinutes: in.BreakMinutes,
		Description:  in.Description,
		Active:       active,
	}
	return s.repo.UpsertTemplate(ctx, t)
}

// ListTemplates returns templates for the org, optionally branch-scoped
func (s *Svc) ListTemplates(ctx context.Context, orgID, branchID string, activeOnly bool) ([]domain.Template, error) {
	if orgID == "" {
		return nil, perr.Validationf("org id required")
	}
	return s.repo.ListTemplates(ctx, orgID, branchID, activeOnly)
}

func validateWindow(start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, perr.Validationf("shift start must be before end")
	}
	planned := domain.PlannedMinutesFor(start, end)
	if planned < domain.MinShiftMinutes || planned > domain.MaxShiftMinutes {
		return 0, perr.Validationf("shift length %d minutes outside [%d, %d]",
			planned, domain.MinShiftMinutes, domain.MaxShiftMinutes)
	}
	return planned, nil
}

func overlapError(conflicts []domain.Shift) error {
	return perr.Overlapf("schedule overlap with shift %s", conflicts[0].ID)
}

// CreateShift validates the window, runs the conflict check for the assignee
// and writes a DRAFT row
func (s *Svc) CreateShift(ctx context.Context, orgID, actorID string, in domain.CreateShiftInput) (domain.Shift, error) {
	if orgID == "" {
		return domain.Shift{}, perr.Validationf("org id required")
	}
	planned, err := validateWindow(in.StartAt, in.EndAt)
	if err != nil {
		return domain.Shift{}, err
	}
	if in.UserID == "" && !in.IsOpen {
		return domain.Shift{}, perr.Validationf("shift needs an assignee or the open flag")
	}

	if in.UserID != "" {
		conflicts, err := s.repo.Overlapping(ctx, orgID, in.UserID, in.StartAt, in.EndAt, nil, false)
		if err != nil {
			return domain.Shift{}, err
		}
		if len(conflicts) > 0 {
			return domain.Shift{}, overlapError(conflicts)
		}
	}

	shift := domain.Shift{
		OrgID:          orgID,
		BranchID:       in.BranchID,
		UserID:         in.UserID,
		Role:           in.Role,
		StartAt:        in.StartAt.UTC(),
		EndAt:          in.EndAt.UTC(),
		Status:         domain.ShiftDraft,
		IsOpen:         in.IsOpen,
		PlannedMinutes: planned,
	}

	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		created, err := repo.InsertShift(ctx, shift)
		if err != nil {
			return err
		}
		shift = created
		return s.record(ctx, q, orgID, actorID, adomain.ActionShiftCreated, "scheduled_shift", shift.ID, shift)
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return shift, nil
}

// UpdateShift mutates a DRAFT shift, recomputing planned minutes and
// re-checking conflicts excluding itself
func (s *Svc) UpdateShift(ctx context.Context, orgID, actorID string, in domain.UpdateShiftInput) (domain.Shift, error) {
	planned, err := validateWindow(in.StartAt, in.EndAt)
	if err != nil {
		return domain.Shift{}, err
	}

	var out domain.Shift
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		cur, err := repo.GetShift(ctx, orgID, in.ShiftID)
		if err != nil {
			return err
		}
		if cur.Status != domain.ShiftDraft {
			return perr.StateConflictf("shift is %s, only DRAFT shifts are editable", cur.Status)
		}

		userID := cur.UserID
		if in.UserID != "" {
			userID = in.UserID
		}
		if userID != "" {
			conflicts, err := repo.Overlapping(ctx, orgID, userID, in.StartAt, in.EndAt, []string{cur.ID}, false)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return overlapError(conflicts)
			}
		}

		cur.UserID = userID
		if in.Role != "" {
			cur.Role = in.Role
		}
		cur.StartAt = in.StartAt.UTC()
		cur.EndAt = in.EndAt.UTC()
		cur.PlannedMinutes = planned
		cur.IsOpen = cur.IsOpen && userID == ""

		if err := repo.UpdateDraftShift(ctx, cur); err != nil {
			return err
		}
		out = cur
		return s.record(ctx, q, orgID, actorID, adomain.ActionShiftUpdated, "scheduled_shift", cur.ID, cur)
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return out, nil
}

// DeleteShift removes a DRAFT shift
func (s *Svc) DeleteShift(ctx context.Context, orgID, actorID, shiftID string) error {
	return s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		if err := repo.DeleteDraftShift(ctx, orgID, shiftID); err != nil {
			return err
		}
		return s.record(ctx, q, orgID, actorID, adomain.ActionShiftDeleted, "scheduled_shift", shiftID, nil)
	})
}

// CancelShift flips DRAFT or PUBLISHED to CANCELLED
func (s *Svc) CancelShift(ctx context.Context, orgID, actorID string, in domain.CancelShiftInput) (domain.Shift, error) {
	var out domain.Shift
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		n, err := repo.CancelShift(ctx, orgID, in.ShiftID, actorID, in.Reason)
		if err != nil {
			return err
		}
		if n == 0 {
			cur, gerr := repo.GetShift(ctx, orgID, in.ShiftID)
			if gerr != nil {
				return gerr
			}
			return perr.StateConflictf("shift is %s, cannot cancel", cur.Status)
		}
		cur, err := repo.GetShift(ctx, orgID, in.ShiftID)
		if err != nil {
			return err
		}
		out = cur
		return s.record(ctx, q, orgID, actorID, adomain.ActionShiftCancelled, "scheduled_shift", in.ShiftID,
			map[string]string{"reason": in.Reason})
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return out, nil
}

// GetShift fetches one shift
func (s *Svc) GetShift(ctx context.Context, orgID, shiftID string) (domain.Shift, error) {
	return s.repo.GetShift(ctx, orgID, shiftID)
}

// ListShifts queries shifts with the given filter
func (s *Svc) ListShifts(ctx context.Context, orgID string, in domain.ListShiftsInput) ([]domain.Shift, error) {
	if orgID == "" {
		return nil, perr.Validationf("org id required")
	}
	return s.repo.ListShifts(ctx, orgID, in)
}

// Publish re-validates every DRAFT in range against published rows and flips
// them all, or none. Any overlap aborts the whole batch
func (s *Svc) Publish(ctx context.Context, orgID, actorID string, in domain.PublishInput) (domain.PublishResult, error) {
	if !in.From.Before(in.To) {
		return domain.PublishResult{}, perr.Validationf("publish range start must be before end")
	}

	var result domain.PublishResult
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		drafts, err := repo.DraftShiftsInRange(ctx, orgID, in.BranchID, in.From, in.To)
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			return perr.NotFoundf("no draft shifts in range")
		}

		ids := make([]string, 0, len(drafts))
		for _, d := range drafts {
			if d.UserID != "" {
				conflicts, err := repo.Overlapping(ctx, orgID, d.UserID, d.StartAt, d.EndAt, []string{d.ID}, true)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					return overlapError(conflicts)
				}
			}
			ids = append(ids, d.ID)
		}

		now := s.now().UTC()
		if err := repo.MarkPublished(ctx, orgID, ids, actorID, now); err != nil {
			return err
		}
		result = domain.PublishResult{Published: len(ids), ShiftIDs: ids}
		return s.record(ctx, q, orgID, actorID, adomain.ActionShiftsPublished, "scheduled_shift", in.BranchID,
			map[string]any{"count": len(ids), "from": in.From, "to": in.To})
	})
	if err != nil {
		return domain.PublishResult{}, err
	}
	return result, nil
}

// CheckConflicts exposes the shared overlap detector
func (s *Svc) CheckConflicts(
	ctx context.Context, orgID, userID string, start, end time.Time, excludeIDs []string, includePublished bool,
) ([]domain.Shift, error) {
	if orgID == "" || userID == "" {
		return nil, perr.Validationf("org id and user id required")
	}
	return s.repo.Overlapping(ctx, orgID, userID, start, end, excludeIDs, includePublished)
}

// CheckOvertime warns when scheduled plus additional minutes exceed the
// weekly threshold. It never blocks
func (s *Svc) CheckOvertime(
	ctx context.Context, orgID, userID string, weekStart time.Time, additionalMinutes int,
) (domain.OvertimeWarning, error) {
	threshold := pdomain.Defaults().WeeklyOTThresholdMinutes
	if s.policy != nil {
		p, err := s.policy.Resolve(ctx, orgID)
		if err != nil {
			return domain.OvertimeWarning{}, err
		}
		threshold = p.WeeklyOTThresholdMinutes
	}
	ws := timeutil.DayOf(weekStart)
	current, err := s.repo.WeekShiftMinutes(ctx, orgID, userID, ws, ws.AddDate(0, 0, 7))
	if err != nil {
		return domain.OvertimeWarning{}, err
	}
	return domain.OvertimeWarning{
		Warn:              current+additionalMinutes > threshold,
		CurrentMinutes:    current,
		AdditionalMinutes: additionalMinutes,
		ThresholdMinutes:  threshold,
	}, nil
}

// layeredCheck runs the pay-period, overlap and availability checks for one
// candidate assignment. Conflicts accumulate rather than short-circuit
func (s *Svc) layeredCheck(
	ctx context.Context, repo srepo.Repo, orgID, userID string, shift domain.Shift, excludeIDs []string,
) ([]domain.Conflict, error) {
	var out []domain.Conflict

	status, found, err := repo.PayPeriodStatusAt(ctx, orgID, shift.BranchID, shift.StartAt)
	if err != nil {
		return nil, err
	}
	if found && (status == "CLOSED" || status == "EXPORTED") {
		out = append(out, domain.Conflict{Kind: domain.ConflictPayPeriodLocked, Detail: "pay period is " + status})
	}

	overlaps, err := repo.Overlapping(ctx, orgID, userID, shift.StartAt, shift.EndAt, excludeIDs, true)
	if err != nil {
		return nil, err
	}
	for _, o := range overlaps {
		out = append(out, domain.Conflict{Kind: domain.ConflictScheduleOverlap, ShiftID: o.ID})
	}

	avail, err := s.availabilityOK(ctx, repo, orgID, userID, shift)
	if err != nil {
		return nil, err
	}
	if !avail {
		out = append(out, domain.Conflict{Kind: domain.ConflictUnavailable})
	}
	return out, nil
}

// availabilityOK applies the soft availability rules: a date exception wins,
// then weekly slots, and no configuration at all means available
func (s *Svc) availabilityOK(
	ctx context.Context, repo srepo.Repo, orgID, userID string, shift domain.Shift,
) (bool, error) {
	day := timeutil.DayOf(shift.StartAt)
	startMin := shift.StartAt.UTC().Hour()*60 + shift.StartAt.UTC().Minute()
	endMin := startMin + shift.PlannedMinutes

	exc, found, err := repo.ExceptionFor(ctx, orgID, userID, day)
	if err != nil {
		return false, err
	}
	if found {
		if !exc.Available {
			return false, nil
		}
		if exc.StartMin == 0 && exc.EndMin == 0 {
			return true, nil
		}
		return startMin >= exc.StartMin && endMin <= exc.EndMin, nil
	}

	slots, err := repo.SlotsForWeekday(ctx, orgID, userID, int(day.Weekday()))
	if err != nil {
		return false, err
	}
	if len(slots) == 0 {
		return true, nil
	}
	for _, slot := range slots {
		if startMin >= slot.StartMin && endMin <= slot.EndMin {
			return true, nil
		}
	}
	return false, nil
}

func conflictsToError(conflicts []domain.Conflict) error {
	for _, c := range conflicts {
		if c.Kind == domain.ConflictPayPeriodLocked {
			return perr.StateConflictf("pay period locked")
		}
	}
	for _, c := range conflicts {
		if c.Kind == domain.ConflictScheduleOverlap {
			return perr.Overlapf("schedule overlap with shift %s", c.ShiftID)
		}
	}
	return perr.Conflictf("assignee unavailable")
}

// ClaimShift files a PENDING bid on an open shift. No conflict check here;
// the layered check runs at approval time
func (s *Svc) ClaimShift(ctx context.Context, orgID, userID string, in domain.ClaimInput) (domain.Claim, error) {
	var out domain.Claim
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		shift, err := repo.GetShift(ctx, orgID, in.ShiftID)
		if err != nil {
			return err
		}
		if !shift.IsOpen || shift.Status != domain.ShiftPublished {
			return perr.StateConflictf("shift is not open for claims")
		}
		claim, err := repo.InsertClaim(ctx, domain.Claim{
			OrgID:   orgID,
			ShiftID: in.ShiftID,
			UserID:  userID,
			Status:  domain.ClaimPending,
			Note:    in.Note,
		})
		if err != nil {
			return err
		}
		out = claim
		return s.record(ctx, q, orgID, userID, adomain.ActionShiftClaimed, "shift_claim", claim.ID,
			map[string]string{"shift_id": in.ShiftID})
	})
	if err != nil {
		return domain.Claim{}, err
	}
	return out, nil
}

// ApproveClaim awards the shift to the claimant. Assignment, approval and
// rejection of losing claims are one transaction so the shift cannot be
// double-awarded
func (s *Svc) ApproveClaim(ctx context.Context, orgID, actorID string, in domain.DecideClaimInput) (domain.Claim, error) {
	var out domain.Claim
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		claim, err := repo.GetClaim(ctx, orgID, in.ClaimID)
		if err != nil {
			return err
		}
		if claim.Status != domain.ClaimPending {
			return perr.StateConflictf("claim is %s", claim.Status)
		}
		shift, err := repo.GetShift(ctx, orgID, claim.ShiftID)
		if err != nil {
			return err
		}
		if !shift.IsOpen {
			return perr.StateConflictf("shift is no longer open")
		}

		conflicts, err := s.layeredCheck(ctx, repo, orgID, claim.UserID, shift, []string{shift.ID})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictsToError(conflicts)
		}

		if err := repo.AssignShiftUser(ctx, orgID, shift.ID, claim.UserID); err != nil {
			return err
		}
		n, err := repo.SetClaimStatus(ctx, orgID, claim.ID, domain.ClaimPending, domain.ClaimApproved, actorID)
		if err != nil {
			return err
		}
		if n == 0 {
			return perr.StateConflictf("claim decided concurrently")
		}
		if err := repo.RejectOtherClaims(ctx, orgID, shift.ID, claim.ID, actorID); err != nil {
			return err
		}
		claim.Status = domain.ClaimApproved
		claim.DecidedBy = actorID
		out = claim
		return s.record(ctx, q, orgID, actorID, adomain.ActionClaimApproved, "shift_claim", claim.ID,
			map[string]string{"shift_id": shift.ID, "user_id": claim.UserID})
	})
	if err != nil {
		return domain.Claim{}, err
	}
	return out, nil
}

// RejectClaim declines a pending claim; the shift stays open
func (s *Svc) RejectClaim(ctx context.Context, orgID, actorID string, in domain.DecideClaimInput) (domain.Claim, error) {
	return s.decideClaim(ctx, orgID, actorID, in.ClaimID, domain.ClaimRejected, adomain.ActionClaimRejected, "")
}

// WithdrawClaim lets the claimant pull a pending claim; the shift stays open
func (s *Svc) WithdrawClaim(ctx context.Context, orgID, userID string, in domain.DecideClaimInput) (domain.Claim, error) {
	return s.decideClaim(ctx, orgID, userID, in.ClaimID, domain.ClaimWithdrawn, adomain.ActionClaimWithdrawn, userID)
}

func (s *Svc) decideClaim(
	ctx context.Context, orgID, actorID, claimID string, to domain.ClaimStatus, action adomain.Action, mustOwn string,
) (domain.Claim, error) {
	var out domain.Claim
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		claim, err := repo.GetClaim(ctx, orgID, claimID)
		if err != nil {
			return err
		}
		if mustOwn != "" && claim.UserID != mustOwn {
			return perr.Forbiddenf("claim belongs to another user")
		}
		n, err := repo.SetClaimStatus(ctx, orgID, claimID, domain.ClaimPending, to, actorID)
		if err != nil {
			return err
		}
		if n == 0 {
			return perr.StateConflictf("claim is %s", claim.Status)
		}
		claim.Status = to
		claim.DecidedBy = actorID
		out = claim
		return s.record(ctx, q, orgID, actorID, action, "shift_claim", claimID, nil)
	})
	if err != nil {
		return domain.Claim{}, err
	}
	return out, nil
}

// ValidateSwap runs the layered check for both parties, each against the
// other's shift and excluding their own outgoing shift. All conflicts
// accumulate
func (s *Svc) ValidateSwap(ctx context.Context, orgID string, in domain.SwapInput) ([]domain.Conflict, error) {
	return s.validateSwap(ctx, s.repo, orgID, in)
}

func (s *Svc) validateSwap(ctx context.Context, repo srepo.Repo, orgID string, in domain.SwapInput) ([]domain.Conflict, error) {
	a, err := repo.GetShift(ctx, orgID, in.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	b, err := repo.GetShift(ctx, orgID, in.TargetShiftID)
	if err != nil {
		return nil, err
	}
	if a.UserID == "" || b.UserID == "" {
		return nil, perr.Validationf("both shifts must be assigned to swap")
	}
	if a.UserID == b.UserID {
		return nil, perr.Validationf("cannot swap shifts of the same user")
	}

	var out []domain.Conflict
	ca, err := s.layeredCheck(ctx, repo, orgID, a.UserID, b, []string{a.ID})
	if err != nil {
		return nil, err
	}
	out = append(out, ca...)
	cb, err := s.layeredCheck(ctx, repo, orgID, b.UserID, a, []string{b.ID})
	if err != nil {
		return nil, err
	}
	out = append(out, cb...)
	return out, nil
}

// ExecuteSwap validates both sides then exchanges the assignees atomically
func (s *Svc) ExecuteSwap(ctx context.Context, orgID, actorID string, in domain.SwapInput) error {
	return s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		conflicts, err := s.validateSwap(ctx, repo, orgID, in)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictsToError(conflicts)
		}
		a, err := repo.GetShift(ctx, orgID, in.RequesterShiftID)
		if err != nil {
			return err
		}
		b, err := repo.GetShift(ctx, orgID, in.TargetShiftID)
		if err != nil {
			return err
		}
		if err := repo.SwapShiftUsers(ctx, orgID, a.ID, b.UserID, b.ID, a.UserID); err != nil {
			return err
		}
		return s.record(ctx, q, orgID, actorID, adomain.ActionShiftsSwapped, "scheduled_shift", a.ID,
			map[string]string{"with_shift": b.ID})
	})
}

func (s *Svc) record(
	ctx context.Context, q repokit.Queryer, orgID, actorID string, action adomain.Action,
	entityType, entityID string, payload any,
) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, q, adomain.Entry{
		OrgID:      orgID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
	})
}
