// Package service implements the clock-in/out and break state machine.
// All state is derived from the single open time entry; there are no
// in-process caches or timers
package service

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/money"
	"brigade/internal/platform/timeutil"
	adomain "brigade/internal/services/audit/domain"
	gdomain "brigade/internal/services/geofence/domain"
	pdomain "brigade/internal/services/policy/domain"
	sdomain "brigade/internal/services/scheduling/domain"
	"brigade/internal/services/timeclock/domain"
	trepo "brigade/internal/services/timeclock/repo"
)

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[trepo.Repo]
	repo   trepo.Repo
	audit  adomain.RecorderPort
	policy pdomain.ServicePort
	geo    gdomain.ServicePort
	now    func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, audit adomain.RecorderPort, policy pdomain.ServicePort, geo gdomain.ServicePort) *Svc {
	if db == nil {
		panic("timeclock service requires a TxRunner")
	}
	b := trepo.NewPG()
	return &Svc{db: db, binder: b, repo: b.Bind(db), audit: audit, policy: policy, geo: geo, now: time.Now}
}

func validateGeo(g *domain.GeoStamp) error {
	if g == nil {
		return nil
	}
	if g.Lat < -90 || g.Lat > 90 || g.Lng < -180 || g.Lng > 180 {
		return perr.Validationf("location out of range")
	}
	if g.AccuracyMeters < 0 {
		return perr.Validationf("accuracy must be non-negative")
	}
	return nil
}

// ClockIn opens a time entry, attaching the user's published shift. Grace
// is a quarter hour before shift start
func (s *Svc) ClockIn(ctx context.Context, orgID, userID string, in domain.ClockInInput) (domain.TimeEntry, error) {
	if orgID == "" || userID == "" {
		return domain.TimeEntry{}, perr.Validationf("org id and user id required")
	}
	if !in.Method.Valid() {
		return domain.TimeEntry{}, perr.Validationf("unknown clock method %q", in.Method)
	}
	if err := validateGeo(in.Location); err != nil {
		return domain.TimeEntry{}, err
	}
	now := s.now().UTC()

	var entry domain.TimeEntry
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		entry, err = s.clockIn(ctx, q, orgID, userID, in, now, true)
		return err
	})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return entry, nil
}

func (s *Svc) clockIn(
	ctx context.Context, q repokit.Queryer, orgID, userID string,
	in domain.ClockInInput, now time.Time, enforceFence bool,
) (domain.TimeEntry, error) {
	repo := s.binder.Bind(q)

	if _, open, err := repo.OpenEntry(ctx, orgID, userID); err != nil {
		return domain.TimeEntry{}, err
	} else if open {
		return domain.TimeEntry{}, perr.StateConflictf("already clocked in")
	}

	shift, err := s.resolveShift(ctx, repo, orgID, userID, in, now)
	if err != nil {
		return domain.TimeEntry{}, err
	}

	if enforceFence {
		if err := s.checkFence(ctx, q, orgID, userID, in.BranchID, gdomain.ActionClockIn, in.Location); err != nil {
			return domain.TimeEntry{}, err
		}
	}

	if shift.Status == sdomain.ShiftPublished {
		if err := repo.SetShiftInProgress(ctx, orgID, shift.ID); err != nil {
			return domain.TimeEntry{}, err
		}
	}

	entry, err := repo.InsertEntry(ctx, domain.TimeEntry{
		OrgID:     orgID,
		BranchID:  in.BranchID,
		UserID:    userID,
		ShiftID:   shift.ID,
		ClockInAt: now,
		Method:    in.Method,
		ClockIn:   in.Location,
	})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	err = s.record(ctx, q, orgID, userID, adomain.ActionClockIn, entry.ID,
		map[string]string{"shift_id": shift.ID, "method": string(in.Method)})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return entry, nil
}

func (s *Svc) resolveShift(
	ctx context.Context, repo trepo.Repo, orgID, userID string, in domain.ClockInInput, now time.Time,
) (sdomain.Shift, error) {
	grace := domain.ShiftGraceMinutes * time.Minute

	if in.ShiftID != "" {
		shift, err := repo.ShiftByID(ctx, orgID, in.ShiftID)
		if err != nil {
			return sdomain.Shift{}, err
		}
		if shift.UserID != userID {
			return sdomain.Shift{}, perr.Forbiddenf("shift belongs to another user")
		}
		if shift.Status != sdomain.ShiftPublished {
			return sdomain.Shift{}, perr.StateConflictf("shift is %s, expected PUBLISHED", shift.Status)
		}
		if now.Before(shift.StartAt.Add(-grace)) {
			return sdomain.Shift{}, perr.StateConflictf("too early to clock in, shift starts %s", timeutil.ISO(shift.StartAt))
		}
		return shift, nil
	}

	shift, found, err := repo.AttachableShift(ctx, orgID, userID, in.BranchID, now.Add(grace))
	if err != nil {
		return sdomain.Shift{}, err
	}
	if !found {
		return sdomain.Shift{}, perr.NoShiftf("no published shift for user at this branch")
	}
	return shift, nil
}

func (s *Svc) checkFence(
	ctx context.Context, q repokit.Queryer, orgID, userID, branchID string,
	action gdomain.ClockAction, loc *domain.GeoStamp,
) error {
	if s.geo == nil {
		return nil
	}
	ev, err := s.geo.Evaluate(ctx, q, orgID, gdomain.EvaluateInput{
		BranchID: branchID,
		UserID:   userID,
		Action:   action,
		Location: loc.Location(),
	})
	if err != nil {
		return err
	}
	if !ev.Allowed {
		return perr.Forbiddenf("%s blocked by geofence: %s", action, ev.ReasonCode)
	}
	return nil
}

// ClockOut closes the open entry. An active break ends at the clock-out
// instant and its minutes count toward the break total; worked minutes
// round to the policy interval before the overtime split
func (s *Svc) ClockOut(ctx context.Context, orgID, userID string, in domain.ClockOutInput) (domain.TimeEntry, error) {
	if err := validateGeo(in.Location); err != nil {
		return domain.TimeEntry{}, err
	}
	now := s.now().UTC()

	var out domain.TimeEntry
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.clockOut(ctx, q, orgID, userID, in, now, true)
		return err
	})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return out, nil
}

func (s *Svc) clockOut(
	ctx context.Context, q repokit.Queryer, orgID, userID string,
	in domain.ClockOutInput, now time.Time, enforceFence bool,
) (domain.TimeEntry, error) {
	repo := s.binder.Bind(q)

	entry, open, err := repo.OpenEntry(ctx, orgID, userID)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	if !open {
		return domain.TimeEntry{}, perr.StateConflictf("not clocked in")
	}

	if enforceFence {
		if err := s.checkFence(ctx, q, orgID, userID, entry.BranchID, gdomain.ActionClockOut, in.Location); err != nil {
			return domain.TimeEntry{}, err
		}
	}

	if br, active, err := repo.OpenBreak(ctx, entry.ID); err != nil {
		return domain.TimeEntry{}, err
	} else if active {
		mins := timeutil.MinutesBetween(br.StartAt, now)
		if err := repo.EndBreak(ctx, br.ID, now, mins); err != nil {
			return domain.TimeEntry{}, err
		}
	}

	breakMin, err := repo.EndedBreakMinutes(ctx, entry.ID)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	pol, err := s.resolvePolicy(ctx, orgID)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	total := timeutil.MinutesBetween(entry.ClockInAt, now)
	work := total - breakMin
	if work < 0 {
		work = 0
	}
	// worked minutes snap to the policy interval; raw totals stay exact
	work = money.RoundMinutes(work, pol.RoundingIntervalMinutes, pol.RoundingMode)
	overtime := work - pol.DailyOTThresholdMinutes
	if overtime < 0 {
		overtime = 0
	}

	entry.ClockOutAt = &now
	entry.TotalMinutes = total
	entry.BreakMinutes = breakMin
	entry.WorkMinutes = work
	entry.OvertimeMinutes = overtime
	entry.ClockOut = in.Location
	if err := repo.CloseEntry(ctx, entry); err != nil {
		return domain.TimeEntry{}, err
	}

	if entry.ShiftID != "" {
		shift, err := repo.ShiftByID(ctx, orgID, entry.ShiftID)
		if err != nil {
			return domain.TimeEntry{}, err
		}
		if shift.Status == sdomain.ShiftInProgress {
			if err := repo.CompleteShift(ctx, orgID, shift.ID, work, breakMin, overtime); err != nil {
				return domain.TimeEntry{}, err
			}
		}
	}

	err = s.record(ctx, q, orgID, userID, adomain.ActionClockOut, entry.ID,
		map[string]int{"work_minutes": work, "break_minutes": breakMin, "overtime_minutes": overtime})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return entry, nil
}

func (s *Svc) resolvePolicy(ctx context.Context, orgID string) (pdomain.Policy, error) {
	if s.policy == nil {
		return pdomain.Defaults(), nil
	}
	return s.policy.Resolve(ctx, orgID)
}

// StartBreak opens a break on the user's open entry
func (s *Svc) StartBreak(ctx context.Context, orgID, userID string) (domain.BreakEntry, error) {
	now := s.now().UTC()
	var out domain.BreakEntry
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.startBreak(ctx, q, orgID, userID, now)
		return err
	})
	if err != nil {
		return domain.BreakEntry{}, err
	}
	return out, nil
}

func (s *Svc) startBreak(
	ctx context.Context, q repokit.Queryer, orgID, userID string, now time.Time,
) (domain.BreakEntry, error) {
	repo := s.binder.Bind(q)
	entry, open, err := repo.OpenEntry(ctx, orgID, userID)
	if err != nil {
		return domain.BreakEntry{}, err
	}
	if !open {
		return domain.BreakEntry{}, perr.StateConflictf("not clocked in")
	}
	if _, active, err := repo.OpenBreak(ctx, entry.ID); err != nil {
		return domain.BreakEntry{}, err
	} else if active {
		return domain.BreakEntry{}, perr.StateConflictf("already on break")
	}
	br, err := repo.InsertBreak(ctx, domain.BreakEntry{TimeEntryID: entry.ID, StartAt: now})
	if err != nil {
		return domain.BreakEntry{}, err
	}
	if err := s.record(ctx, q, orgID, userID, adomain.ActionBreakStart, entry.ID, nil); err != nil {
		return domain.BreakEntry{}, err
	}
	return br, nil
}

// EndBreak closes the active break and persists its duration
func (s *Svc) EndBreak(ctx context.Context, orgID, userID string) (domain.BreakEntry, error) {
	now := s.now().UTC()
	var out domain.BreakEntry
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.endBreak(ctx, q, orgID, userID, now)
		return err
	})
	if err != nil {
		return domain.BreakEntry{}, err
	}
	return out, nil
}

func (s *Svc) endBreak(
	ctx context.Context, q repokit.Queryer, orgID, userID string, now time.Time,
) (domain.BreakEntry, error) {
	repo := s.binder.Bind(q)
	entry, open, err := repo.OpenEntry(ctx, orgID, userID)
	if err != nil {
		return domain.BreakEntry{}, err
	}
	if !open {
		return domain.BreakEntry{}, perr.StateConflictf("not clocked in")
	}
	br, active, err := repo.OpenBreak(ctx, entry.ID)
	if err != nil {
		return domain.BreakEntry{}, err
	}
	if !active {
		return domain.BreakEntry{}, perr.StateConflictf("not on break")
	}
	mins := timeutil.MinutesBetween(br.StartAt, now)
	if err := repo.EndBreak(ctx, br.ID, now, mins); err != nil {
		return domain.BreakEntry{}, err
	}
	br.EndAt = &now
	br.Minutes = mins
	if err := s.record(ctx, q, orgID, userID, adomain.ActionBreakEnd, entry.ID,
		map[string]int{"minutes": mins}); err != nil {
		return domain.BreakEntry{}, err
	}
	return br, nil
}

// StateFor reports the user's clock state inside the caller's transaction.
// The kiosk replay path uses it for sequence validation
func (s *Svc) StateFor(
	ctx context.Context, q repokit.Queryer, orgID, userID string,
) (domain.ClockState, error) {
	repo := s.binder.Bind(q)
	entry, open, err := repo.OpenEntry(ctx, orgID, userID)
	if err != nil {
		return domain.ClockState{}, err
	}
	if !open {
		return domain.ClockState{}, nil
	}
	st := domain.ClockState{ClockedIn: true, EntryID: entry.ID}
	if _, active, err := repo.OpenBreak(ctx, entry.ID); err != nil {
		return domain.ClockState{}, err
	} else if active {
		st.OnBreak = true
	}
	return st, nil
}

// ApplyEvent performs one clock action inside the caller's transaction at
// an explicit instant. Geofence enforcement is skipped unless policy
// requires it for kiosks; replayed events carry no location
func (s *Svc) ApplyEvent(
	ctx context.Context, q repokit.Queryer, orgID, userID, branchID string,
	kind domain.EventKind, at time.Time, method domain.Method,
) (timeEntryID, breakEntryID string, err error) {
	at = at.UTC()
	enforce := false
	if s.policy != nil {
		p, err := s.policy.Resolve(ctx, orgID)
		if err != nil {
			return "", "", err
		}
		enforce = p.RequireGeofenceForKiosk
	}

	switch kind {
	case domain.EventClockIn:
		e, err := s.clockIn(ctx, q, orgID, userID,
			domain.ClockInInput{BranchID: branchID, Method: method}, at, enforce)
		if err != nil {
			return "", "", err
		}
		return e.ID, "", nil
	case domain.EventClockOut:
		e, err := s.clockOut(ctx, q, orgID, userID, domain.ClockOutInput{}, at, enforce)
		if err != nil {
			return "", "", err
		}
		return e.ID, "", nil
	case domain.EventBreakStart:
		b, err := s.startBreak(ctx, q, orgID, userID, at)
		if err != nil {
			return "", "", err
		}
		return b.TimeEntryID, b.ID, nil
	case domain.EventBreakEnd:
		b, err := s.endBreak(ctx, q, orgID, userID, at)
		if err != nil {
			return "", "", err
		}
		return b.TimeEntryID, b.ID, nil
	default:
		return "", "", perr.Validationf("unknown clock event kind %q", kind)
	}
}

// Status reports the derived clock state plus today's shift
func (s *Svc) Status(ctx context.Context, orgID, userID string) (domain.Status, error) {
	if orgID == "" || userID == "" {
		return domain.Status{}, perr.Validationf("org id and user id required")
	}
	now := s.now().UTC()

	var st domain.Status
	entry, open, err := s.repo.OpenEntry(ctx, orgID, userID)
	if err != nil {
		return domain.Status{}, err
	}
	if open {
		st.IsClockedIn = true
		st.Entry = &entry
		if br, active, err := s.repo.OpenBreak(ctx, entry.ID); err != nil {
			return domain.Status{}, err
		} else if active {
			st.ActiveBreak = &br
		}
	}

	dayStart := timeutil.DayOf(now)
	shift, found, err := s.repo.TodayShift(ctx, orgID, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return domain.Status{}, err
	}
	if found {
		st.TodayShift = &shift
	}
	return st, nil
}

func (s *Svc) record(
	ctx context.Context, q repokit.Queryer, orgID, actorID string, action adomain.Action, entryID string, payload any,
) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, q, adomain.Entry{
		OrgID:      orgID,
		ActorID:    actorID,
		Action:     action,
		EntityType: "time_entry",
		EntityID:   entryID,
		Payload:    payload,
	})
}
