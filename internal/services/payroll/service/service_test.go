package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/money"
	"brigade/internal/platform/store"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/payroll/domain"
	prepo "brigade/internal/services/payroll/repo"
	pdomain "brigade/internal/services/policy/domain"
)

type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(fakeTx{})
}

type fakeRepo struct {
	periods      map[string]domain.PayPeriod
	approvals    map[string]domain.TimesheetApproval
	entryUsers   map[string]string
	entryClockIn map[string]time.Time
	components   []domain.Component
	profiles     []domain.Profile
	mappings     []domain.PostingMapping
	runs         map[string]domain.Run
	runLines     map[string][]domain.RunLine
	payslips     map[string][]domain.Payslip
	entries      []prepo.PayableEntry
	unapproved   []prepo.PayableEntry
	accounts     map[string]bool
	journals     map[string]domain.JournalEntry
	links        []domain.JournalLink
	nextID       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		periods:      map[string]domain.PayPeriod{},
		approvals:    map[string]domain.TimesheetApproval{},
		entryUsers:   map[string]string{},
		entryClockIn: map[string]time.Time{},
		runs:         map[string]domain.Run{},
		runLines:     map[string][]domain.RunLine{},
		payslips:     map[string][]domain.Payslip{},
		accounts:     map[string]bool{},
		journals:     map[string]domain.JournalEntry{},
	}
}

func (f *fakeRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeRepo) InsertPeriod(_ context.Context, p domain.PayPeriod) (domain.PayPeriod, error) {
	p.ID = f.id("pp")
	f.periods[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetPeriod(_ context.Context, orgID, periodID string) (domain.PayPeriod, error) {
	p, ok := f.periods[periodID]
	if !ok || p.OrgID != orgID {
		return domain.PayPeriod{}, perr.NotFoundf("pay period %s not found", periodID)
	}
	return p, nil
}

func (f *fakeRepo) SetPeriodStatus(
	_ context.Context,
	orgID, periodID string,
	from, to domain.PeriodStatus,
	actorID string,
	at time.Time,
) (int64, error) {
	p, ok := f.periods[periodID]
	if !ok || p.OrgID != orgID || p.Status != from {
		return 0, nil
	}
	p.Status = to
	if to == domain.PeriodClosed {
		p.ClosedBy = actorID
		p.ClosedAt = &at
	}
	f.periods[periodID] = p
	return 1, nil
}

func (f *fakeRepo) ListPeriods(_ context.Context, orgID, branchID string) ([]domain.PayPeriod, error) {
	var out []domain.PayPeriod
	for _, p := range f.periods {
		if p.OrgID == orgID && (branchID == "" || p.BranchID == branchID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) LockApprovals(
	_ context.Context,
	orgID, _ string,
	_, _, at time.Time,
) (int64, error) {
	var n int64
	for k, a := range f.approvals {
		if a.OrgID == orgID && a.LockedAt == nil {
			ts := at
			a.LockedAt = &ts
			f.approvals[k] = a
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ApprovalByEntry(
	_ context.Context,
	orgID, timeEntryID string,
) (domain.TimesheetApproval, bool, error) {
	for _, a := range f.approvals {
		if a.OrgID == orgID && a.TimeEntryID == timeEntryID {
			return a, true, nil
		}
	}
	return domain.TimesheetApproval{}, false, nil
}

func (f *fakeRepo) EntryUser(_ context.Context, orgID, timeEntryID string) (string, error) {
	uid, ok := f.entryUsers[timeEntryID]
	if !ok {
		return "", perr.NotFoundf("time entry %s not found", timeEntryID)
	}
	return uid, nil
}

func (f *fakeRepo) EntryAutoLocked(
	_ context.Context,
	orgID, timeEntryID string,
	cutoff time.Time,
) (bool, error) {
	in, ok := f.entryClockIn[timeEntryID]
	if !ok {
		return false, nil
	}
	for _, p := range f.periods {
		if p.OrgID == orgID && !in.Before(p.StartDate) && !in.After(p.EndDate) && !p.EndDate.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) InsertApproval(
	_ context.Context,
	a domain.TimesheetApproval,
) (domain.TimesheetApproval, error) {
	a.ID = f.id("tsa")
	f.approvals[a.ID] = a
	return a, nil
}

func (f *fakeRepo) DecideApproval(
	_ context.Context,
	orgID, approvalID string,
	status domain.ApprovalStatus,
	actorID string,
	at time.Time,
) error {
	a, ok := f.approvals[approvalID]
	if !ok || a.OrgID != orgID || a.LockedAt != nil {
		return perr.StateConflictf("approval locked or missing")
	}
	a.Status = status
	a.DecidedBy = actorID
	a.DecidedAt = &at
	f.approvals[approvalID] = a
	return nil
}

func (f *fakeRepo) ListApprovals(
	_ context.Context,
	orgID string,
	status domain.ApprovalStatus,
) ([]domain.TimesheetApproval, error) {
	var out []domain.TimesheetApproval
	for _, a := range f.approvals {
		if a.OrgID == orgID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertComponent(_ context.Context, c domain.Component) (domain.Component, error) {
	c.ID = f.id("comp")
	f.components = append(f.components, c)
	return c, nil
}

func (f *fakeRepo) GetComponent(_ context.Context, orgID, componentID string) (domain.Component, error) {
	for _, c := range f.components {
		if c.ID == componentID && c.OrgID == orgID {
			return c, nil
		}
	}
	return domain.Component{}, perr.NotFoundf("component %s not found", componentID)
}

func (f *fakeRepo) SetComponentEnabled(_ context.Context, orgID, componentID string, enabled bool) error {
	for i, c := range f.components {
		if c.ID == componentID && c.OrgID == orgID {
			f.components[i].Enabled = enabled
			return nil
		}
	}
	return perr.NotFoundf("component %s not found", componentID)
}

func (f *fakeRepo) ListComponents(_ context.Context, orgID string) ([]domain.Component, error) {
	var out []domain.Component
	for _, c := range f.components {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) EnabledComponents(_ context.Context, orgID, branchID string) ([]domain.Component, error) {
	var out []domain.Component
	for _, c := range f.components {
		if c.OrgID == orgID && c.Enabled && (c.BranchID == "" || c.BranchID == branchID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertProfile(_ context.Context, p domain.Profile) (domain.Profile, error) {
	p.ID = f.id("prof")
	f.profiles = append(f.profiles, p)
	return p, nil
}

func (f *fakeRepo) HasOverlappingProfile(
	_ context.Context,
	orgID, userID string,
	from time.Time,
	to *time.Time,
) (bool, error) {
	for _, p := range f.profiles {
		if p.OrgID != orgID || p.UserID != userID {
			continue
		}
		endsBeforeFrom := p.EffectiveTo != nil && p.EffectiveTo.Before(from)
		startsAfterTo := to != nil && p.EffectiveFrom.After(*to)
		if !endsBeforeFrom && !startsAfterTo {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ProfileFor(
	_ context.Context,
	orgID, userID string,
	date time.Time,
) (domain.Profile, bool, error) {
	for _, p := range f.profiles {
		if p.OrgID == orgID && p.UserID == userID && p.EffectiveOn(date) {
			return p, true, nil
		}
	}
	return domain.Profile{}, false, nil
}

func (f *fakeRepo) ListProfiles(_ context.Context, orgID, userID string) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range f.profiles {
		if p.OrgID == orgID && (userID == "" || p.UserID == userID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertMapping(_ context.Context, m domain.PostingMapping) (domain.PostingMapping, error) {
	for i, old := range f.mappings {
		if old.OrgID == m.OrgID && old.BranchID == m.BranchID {
			m.ID = old.ID
			f.mappings[i] = m
			return m, nil
		}
	}
	m.ID = f.id("map")
	f.mappings = append(f.mappings, m)
	return m, nil
}

func (f *fakeRepo) MappingFor(
	_ context.Context,
	orgID, branchID string,
) (domain.PostingMapping, bool, error) {
	var orgWide *domain.PostingMapping
	for i, m := range f.mappings {
		if m.OrgID != orgID {
			continue
		}
		if m.BranchID == branchID && branchID != "" {
			return m, true, nil
		}
		if m.BranchID == "" {
			orgWide = &f.mappings[i]
		}
	}
	if orgWide != nil {
		return *orgWide, true, nil
	}
	return domain.PostingMapping{}, false, nil
}

func (f *fakeRepo) InsertRun(_ context.Context, r domain.Run) (domain.Run, error) {
	r.ID = f.id("run")
	r.TotalRegularHours = money.Zero
	r.TotalOvertimeHours = money.Zero
	r.TotalPaidHours = money.Zero
	r.TotalGross = money.Zero
	r.TotalNet = money.Zero
	f.runs[r.ID] = r
	return r, nil
}

func (f *fakeRepo) GetRun(_ context.Context, orgID, runID string) (domain.Run, error) {
	r, ok := f.runs[runID]
	if !ok || r.OrgID != orgID {
		return domain.Run{}, perr.NotFoundf("payroll run %s not found", runID)
	}
	return r, nil
}

func (f *fakeRepo) SetRunStatus(
	_ context.Context,
	orgID, runID string,
	from, to domain.RunStatus,
	actorID string,
	at time.Time,
) (int64, error) {
	r, ok := f.runs[runID]
	if !ok || r.OrgID != orgID || r.Status != from {
		return 0, nil
	}
	r.Status = to
	ts := at
	switch to {
	case domain.RunCalculated:
		r.CalculatedBy, r.CalculatedAt = actorID, &ts
	case domain.RunApproved:
		r.ApprovedBy, r.ApprovedAt = actorID, &ts
	case domain.RunPosted:
		r.PostedBy, r.PostedAt = actorID, &ts
	case domain.RunPaid:
		r.PaidBy, r.PaidAt = actorID, &ts
	case domain.RunVoid:
		r.VoidedBy, r.VoidedAt = actorID, &ts
	}
	f.runs[runID] = r
	return 1, nil
}

func (f *fakeRepo) UpdateRunTotals(_ context.Context, r domain.Run) error {
	cur, ok := f.runs[r.ID]
	if !ok {
		return perr.NotFoundf("payroll run %s not found", r.ID)
	}
	cur.TotalRegularHours = r.TotalRegularHours
	cur.TotalOvertimeHours = r.TotalOvertimeHours
	cur.TotalPaidHours = r.TotalPaidHours
	cur.TotalGross = r.TotalGross
	cur.TotalNet = r.TotalNet
	f.runs[r.ID] = cur
	return nil
}

func (f *fakeRepo) PayableEntries(
	_ context.Context,
	_, _ string,
	_, _ time.Time,
	approvedOnly bool,
) ([]prepo.PayableEntry, error) {
	if approvedOnly {
		return f.entries, nil
	}
	return append(append([]prepo.PayableEntry{}, f.entries...), f.unapproved...), nil
}

func (f *fakeRepo) ReplaceRunLines(_ context.Context, runID string, lines []domain.RunLine) error {
	f.runLines[runID] = lines
	return nil
}

func (f *fakeRepo) LinesForRun(_ context.Context, runID string) ([]domain.RunLine, error) {
	return f.runLines[runID], nil
}

func (f *fakeRepo) ReplacePayslips(
	_ context.Context,
	runID string,
	slips []domain.Payslip,
	_ map[string][]domain.PayslipLine,
) error {
	f.payslips[runID] = slips
	return nil
}

func (f *fakeRepo) PayslipsForRun(_ context.Context, runID string) ([]domain.Payslip, error) {
	return f.payslips[runID], nil
}

func (f *fakeRepo) AccountsOwned(_ context.Context, orgID string, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if f.accounts[orgID+"/"+id] {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) InsertJournal(_ context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	e.ID = f.id("jr")
	for i := range e.Lines {
		e.Lines[i].ID = f.id("jl")
		e.Lines[i].JournalID = e.ID
	}
	f.journals[e.ID] = e
	return e, nil
}

func (f *fakeRepo) GetJournal(_ context.Context, orgID, journalID string) (domain.JournalEntry, error) {
	e, ok := f.journals[journalID]
	if !ok || e.OrgID != orgID {
		return domain.JournalEntry{}, perr.NotFoundf("journal %s not found", journalID)
	}
	return e, nil
}

func (f *fakeRepo) MarkJournalReversed(_ context.Context, orgID, journalID string) error {
	e, ok := f.journals[journalID]
	if !ok || e.OrgID != orgID || e.Reversed {
		return perr.StateConflictf("journal already reversed")
	}
	e.Reversed = true
	f.journals[journalID] = e
	return nil
}

func (f *fakeRepo) InsertLink(_ context.Context, l domain.JournalLink) (domain.JournalLink, error) {
	l.ID = f.id("lnk")
	f.links = append(f.links, l)
	return l, nil
}

func (f *fakeRepo) LinksForRun(_ context.Context, runID string) ([]domain.JournalLink, error) {
	var out []domain.JournalLink
	for _, l := range f.links {
		if l.RunID == runID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) LinkOfType(
	_ context.Context,
	runID string,
	t domain.LinkType,
) (domain.JournalLink, bool, error) {
	for _, l := range f.links {
		if l.RunID == runID && l.Type == t {
			return l, true, nil
		}
	}
	return domain.JournalLink{}, false, nil
}

type fakeAudit struct{ entries []adomain.Entry }

func (f *fakeAudit) Record(_ context.Context, _ repokit.Queryer, e adomain.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakePolicy struct {
	pol pdomain.Policy
	err error
}

func (f *fakePolicy) Resolve(context.Context, string) (pdomain.Policy, error) { return f.pol, f.err }
func (f *fakePolicy) Update(_ context.Context, _, _ string, _ map[string]string) (pdomain.Policy, error) {
	return f.pol, nil
}

var t0 = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newFake(fr *fakeRepo, aud *fakeAudit, pol *fakePolicy) *Svc {
	s := &Svc{
		db:     fakeTx{},
		binder: repokit.BindFunc[prepo.Repo](func(repokit.Queryer) prepo.Repo { return fr }),
		repo:   fr,
		audit:  aud,
		now:    func() time.Time { return t0.Add(10 * 24 * time.Hour) },
	}
	if pol != nil {
		s.policy = pol
	}
	return s
}

func openPeriod(fr *fakeRepo) domain.PayPeriod {
	p := domain.PayPeriod{
		ID: fr.id("pp"), OrgID: "org-1", Type: domain.PeriodWeekly,
		StartDate: t0, EndDate: t0.Add(7 * 24 * time.Hour),
		Status: domain.PeriodOpen, CreatedAt: t0,
	}
	fr.periods[p.ID] = p
	return p
}

func TestClosePeriod_LocksApprovals(t *testing.T) {
	fr := newFakeRepo()
	aud := &fakeAudit{}
	s := newFake(fr, aud, nil)
	p := openPeriod(fr)
	a := domain.TimesheetApproval{
		ID: fr.id("tsa"), OrgID: "org-1", TimeEntryID: "te-1", UserID: "u-1",
		Status: domain.ApprovalApproved,
	}
	fr.approvals[a.ID] = a

	closed, err := s.ClosePeriod(context.Background(), "org-1", "mgr-1", p.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.PeriodClosed || closed.ClosedBy != "mgr-1" || closed.ClosedAt == nil {
		t.Fatalf("closed period = %+v", closed)
	}
	if fr.approvals[a.ID].LockedAt == nil {
		t.Fatalf("approval not locked")
	}
	if len(aud.entries) != 1 || aud.entries[0].Action != adomain.ActionPayPeriodClosed {
		t.Fatalf("audit = %+v", aud.entries)
	}

	if _, err := s.ClosePeriod(context.Background(), "org-1", "mgr-1", p.ID); !perr.IsCode(err, perr.ErrorCodeStateConflict) {
		t.Fatalf("second close should conflict, got %v", err)
	}
}

func TestMarkExported_RequiresClosed(t *testing.T) {
	fr := newFakeRepo()
	s := newFake(fr, &fakeAudit{}, nil)
	p := openPeriod(fr)

	if _, err := s.MarkExported(context.Background(), "org-1", "mgr-1", p.ID); !perr.IsCode(err, perr.ErrorCodeStateConflict) {
		t.Fatalf("export of OPEN period should conflict, got %v", err)
	}

	if _, err := s.ClosePeriod(context.Background(), "org-1", "mgr-1", p.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	exported, err := s.MarkExported(context.Background(), "org-1", "mgr-1", p.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.Status != domain.PeriodExported {
		t.Fatalf("status = %s", exported.Status)
	}
}

func TestSetApproval_CreateThenRedecide(t *testing.T) {
	fr := newFakeRepo()
	aud := &fakeAudit{}
	s := newFake(fr, aud, nil)
	fr.entryUsers["te-1"] = "u-1"

	a, err := s.SetApproval(context.Background(), "org-1", "mgr-1", domain.SetApprovalInput{
		TimeEntryID: "te-1", Status: domain.ApprovalApproved,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if a.UserID != "u-1" || a.Status != domain.ApprovalApproved || a.DecidedBy != "mgr-1" {
		t.Fatalf("approval = %+v", a)
	}
	if aud.entries[0].Action != adomain.ActionTimesheetApproved {
		t.Fatalf("audit action = %s", aud.entries[0].Action)
	}

	a, err = s.SetApproval(context.Background(), "org-1", "mgr-2", domain.SetApprovalInput{
		TimeEntryID: "te-1", Status: domain.ApprovalRejected,
	})
	if err != nil {
		t.Fatalf("re-decide: %v", err)
	}
	if a.Status != domain.ApprovalRejected || a.DecidedBy != "mgr-2" {
		t.Fatalf("approval = %+v", a)
	}
	if len(fr.approvals) != 1 {
		t.Fatalf("re-decide must not create a second approval")
	}
}

func TestSetApproval_LockedRejectsMutation(t *testing.T) {
	fr := newFakeRepo()
	s := newFake(fr, &fakeAudit{}, nil)
	locked := t0
	a := domain.TimesheetApproval{
		ID: fr.id("tsa"), OrgID: "org-1", TimeEntryID: "te-1", UserID: "u-1",
		Status: domain.ApprovalApproved, LockedAt: &locked,
	}
	fr.approvals[a.ID] = a

	_, err := s.SetApproval(context.Background(), "org-1", "mgr-1", domain.SetApprovalInput{
		TimeEntryID: "te-1", Status: domain.ApprovalRejected,
	})
	if !perr.IsCode(err, perr.ErrorCodeStateConflict) {
		t.Fatalf("locked approval should conflict, got %v", err)
	}
}

func TestSetApproval_AutoLocksAfterPeriodEnd(t *testing.T) {
	fr := newFakeRepo()
	s := newFake(fr, &fakeAudit{}, nil)

	// period over for 17 days, well past the default 7 auto-lock days
	old := domain.PayPeriod{
		ID: fr.id("pp"), OrgID: "org-1", Type: domain.PeriodWeekly,
		StartDate: t0.Add(-14 * 24 * time.Hour), EndDate: t0.Add(-7 * 24 * time.Hour),
		Status: domain.PeriodOpen,
	}
	fr.periods[old.ID] = old
	fr.entryUsers["te-old"] = "u-1"
	fr.entryClockIn["te-old"] = t0.Add(-10 * 24 * time.Hour)

	_, err := s.SetApproval(context.Background(), "org-1", "mgr-1", domain.SetApprovalInput{
		TimeEntryID: "te-old", Status: domain.ApprovalApproved,
	})
	if !perr.IsCode(err, perr.ErrorCodeStateConflict) {
		t.Fatalf("stale entry should auto-lock, got %v", err)
	}

	// entries inside the current period stay decidable
	cur := openPeriod(fr)
	fr.entryUsers["te-new"] = "u-1"
	fr.entryClockIn["te-new"] = cur.StartDate.Add(24 * time.Hour)
	if _, err := s.SetApproval(context.Background(), "org-1", "mgr-1", domain.SetApprovalInput{
		TimeEntryID: "te-new", Status: domain.ApprovalApproved,
	}); err != nil {
		t.Fatalf("current entry should be decidable: %v", err)
	}
}

func TestCreateProfile_OverlapForbidden(t *testing.T) {
	fr := newFakeRepo()
	s := newFake(fr, &fakeAudit{}, nil)

	end := t0.Add(30 * 24 * time.Hour)
	if _, err := s.CreateProfile(context.Background(), "org-1", domain.CreateProfileInput{
		UserID: "u-1", HourlyRate: money.New(20, 0), EffectiveFrom: t0, EffectiveTo: &end,
	}); err != nil {
		t.Fatalf("first profile: %v", err)
	}

	_, err := s.CreateProfile(context.Background(), "org-1", domain.CreateProfileInput{
		UserID: "u-1", HourlyRate: money.New(25, 0), EffectiveFrom: t0.Add(15 * 24 * time.Hour),
	})
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("overlapping window should conflict, got %v", err)
	}

	// adjacent window after the first one is fine
	if _, err := s.CreateProfile(context.Background(), "org-1", domain.CreateProfileInput{
		UserID: "u-1", HourlyRate: money.New(25, 0), EffectiveFrom: end.Add(24 * time.Hour),
	}); err != nil {
		t.Fatalf("non-overlapping profile: %v", err)
	}
}

func TestResolvePolicy_FailureFallsBackToDefaults(t *testing.T) {
	s := newFake(newFakeRepo(), &fakeAudit{}, nil)
	s.policy = &fakePolicy{err: perr.Unavailablef("policy store down")}

	def := pdomain.Defaults()
	got := s.resolvePolicy(context.Background(), "org-1")
	if got.DailyOTThresholdMinutes != def.DailyOTThresholdMinutes || got.AutoLockDays != def.AutoLockDays {
		t.Fatalf("expected defaults on resolution failure, got %+v", got)
	}
}

func TestSetMapping_RequiresOwnedAccounts(t *testing.T) {
	fr := newFakeRepo()
	s := newFake(fr, &fakeAudit{}, nil)
	in := domain.MappingInput{
		LaborExpenseAccountID:           "acc-1",
		WagesPayableAccountID:           "acc-2",
		TaxesPayableAccountID:           "acc-3",
		DeductionsPayableAccountID:      "acc-4",
		EmployerContribExpenseAccountID: "acc-5",
		EmployerContribPayableAccountID: "acc-6",
		CashAccountID:                   "acc-7",
	}
	for i := 1; i <= 6; i++ {
		fr.accounts[fmt.Sprintf("org-1/acc-%d", i)] = true
	}

	if _, err := s.SetMapping(context.Background(), "org-1", in); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("foreign account should fail validation, got %v", err)
	}

	fr.accounts["org-1/acc-7"] = true
	m, err := s.SetMapping(context.Background(), "org-1", in)
	if err != nil {
		t.Fatalf("set mapping: %v", err)
	}
	if m.CashAccountID != "acc-7" {
		t.Fatalf("mapping = %+v", m)
	}
}
