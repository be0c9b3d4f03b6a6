// Package service renders the deterministic CSV exports. Column orders
// are stable contracts; row order comes from the repo's ORDER BY clauses
package service

import (
	"context"
	"fmt"
	"time"

	"brigade/internal/modkit/repokit"
	"brigade/internal/platform/csvx"
	perr "brigade/internal/platform/errors"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/export/domain"
	erepo "brigade/internal/services/export/repo"
)

// Svc implements domain.ServicePort
type Svc struct {
	db    repokit.TxRunner
	repo  erepo.Repo
	audit adomain.RecorderPort
	now   func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, audit adomain.RecorderPort) *Svc {
	if db == nil {
		panic("export service requires a TxRunner")
	}
	return &Svc{db: db, repo: erepo.NewPG().Bind(db), audit: audit, now: time.Now}
}

var kioskEventHeader = []string{
	"ID", "Received At", "Occurred At", "Device", "Branch", "Type", "Status",
	"Reject Code", "User", "Idempotency Key", "Time Entry ID", "Break Entry ID",
}

// KioskEvents exports accepted and rejected kiosk events in the window
func (s *Svc) KioskEvents(ctx context.Context, orgID, actorID string, in domain.RangeInput) (domain.Result, error) {
	if err := validateRange(in); err != nil {
		return domain.Result{}, err
	}
	rows, err := s.repo.KioskEvents(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.Result{}, err
	}
	doc := csvx.Document{Header: kioskEventHeader, Rows: make([][]string, 0, len(rows))}
	for _, e := range rows {
		doc.Rows = append(doc.Rows, []string{
			e.ID, csvx.TimeVal(e.ReceivedAt), csvx.TimeVal(e.OccurredAt),
			e.DeviceName, e.BranchID, e.Type, e.Status,
			e.RejectCode, e.UserID, e.IdempotencyKey, e.TimeEntryID, e.BreakEntryID,
		})
	}
	return s.finish(ctx, orgID, actorID, "kiosk-events", in, doc)
}

var pinAttemptHeader = []string{
	"Timestamp", "Device", "Branch", "PIN (masked)", "Success", "User", "IP Address",
}

// PinAttempts exports the append-only PIN attempt log
func (s *Svc) PinAttempts(ctx context.Context, orgID, actorID string, in domain.RangeInput) (domain.Result, error) {
	if err := validateRange(in); err != nil {
		return domain.Result{}, err
	}
	rows, err := s.repo.PinAttempts(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.Result{}, err
	}
	doc := csvx.Document{Header: pinAttemptHeader, Rows: make([][]string, 0, len(rows))}
	for _, a := range rows {
		doc.Rows = append(doc.Rows, []string{
			csvx.TimeVal(a.AttemptedAt), a.DeviceName, a.BranchID,
			a.MaskedPin, csvx.Bool(a.Success), a.UserID, a.IP,
		})
	}
	return s.finish(ctx, orgID, actorID, "pin-attempts", in, doc)
}

var incidentHeader = []string{
	"Incident ID", "Incident Date", "Type", "Severity", "Title",
	"User ID", "User Name", "User Email", "Branch ID", "Branch Name",
	"Time Entry ID", "Penalty Minutes", "Penalty Amount Cents", "Currency",
	"Resolved", "Resolved At", "Created At",
}

var incidentTitles = map[string]string{
	"MEAL_BREAK_MISSED": "Meal break missed",
	"MEAL_BREAK_SHORT":  "Meal break short",
	"REST_BREAK_MISSED": "Rest break missed",
	"REST_BREAK_SHORT":  "Rest break short",
}

// Incidents exports compliance incidents with penalty amounts priced at
// the profile rate effective on the incident date
func (s *Svc) Incidents(ctx context.Context, orgID, actorID string, in domain.RangeInput) (domain.Result, error) {
	if err := validateRange(in); err != nil {
		return domain.Result{}, err
	}
	rows, err := s.repo.Incidents(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.Result{}, err
	}
	doc := csvx.Document{Header: incidentHeader, Rows: make([][]string, 0, len(rows))}
	for _, i := range rows {
		doc.Rows = append(doc.Rows, []string{
			i.ID, csvx.TimeVal(i.IncidentDate), i.Type, i.Severity, incidentTitles[i.Type],
			i.UserID, i.UserName, i.UserEmail, i.BranchID, i.BranchName,
			i.TimeEntryID, csvx.Int(i.PenaltyMinutes), fmt.Sprintf("%d", i.PenaltyCents), "USD",
			csvx.Bool(i.Resolved), csvx.Time(i.ResolvedAt), csvx.TimeVal(i.CreatedAt),
		})
	}
	return s.finish(ctx, orgID, actorID, "compliance-incidents", in, doc)
}

var timeEntryHeader = []string{
	"Entry ID", "User ID", "User Name", "User Email", "Clock In", "Clock Out",
	"Method", "Overtime Minutes", "Approved", "Shift ID", "Role",
	"Clock In Lat", "Clock In Lng", "Clock In Accuracy (m)", "Clock In Source",
	"Clock Out Lat", "Clock Out Lng", "Clock Out Accuracy (m)", "Clock Out Source",
}

// TimeEntries exports time entries with their geo stamps
func (s *Svc) TimeEntries(ctx context.Context, orgID, actorID string, in domain.RangeInput) (domain.Result, error) {
	if err := validateRange(in); err != nil {
		return domain.Result{}, err
	}
	rows, err := s.repo.TimeEntries(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.Result{}, err
	}
	doc := csvx.Document{Header: timeEntryHeader, Rows: make([][]string, 0, len(rows))}
	for _, t := range rows {
		doc.Rows = append(doc.Rows, []string{
			t.ID, t.UserID, t.UserName, t.UserEmail,
			csvx.TimeVal(t.ClockInAt), csvx.Time(t.ClockOutAt),
			t.Method, csvx.Int(t.OvertimeMinutes), csvx.Bool(t.Approved), t.ShiftID, t.Role,
			optFloat(t.InLat), optFloat(t.InLng), optFloat(t.InAcc), t.InSrc,
			optFloat(t.OutLat), optFloat(t.OutLng), optFloat(t.OutAcc), t.OutSrc,
		})
	}
	return s.finish(ctx, orgID, actorID, "time-entries", in, doc)
}

var geofenceHeader = []string{
	"ID", "Timestamp", "Branch", "User", "Type", "Reason Code", "Clock Action",
	"Lat", "Lng", "Accuracy (m)", "Source", "Distance (m)",
}

// GeofenceEvents exports geofence allow/block/override decisions
func (s *Svc) GeofenceEvents(ctx context.Context, orgID, actorID string, in domain.RangeInput) (domain.Result, error) {
	if err := validateRange(in); err != nil {
		return domain.Result{}, err
	}
	rows, err := s.repo.GeofenceEvents(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.Result{}, err
	}
	doc := csvx.Document{Header: geofenceHeader, Rows: make([][]string, 0, len(rows))}
	for _, e := range rows {
		doc.Rows = append(doc.Rows, []string{
			e.ID, csvx.TimeVal(e.CreatedAt), e.BranchID, e.UserID,
			e.Type, e.ReasonCode, e.ClockAction,
			optFloat(e.Lat), optFloat(e.Lng), optFloat(e.AccuracyMeters), e.Source,
			optFloat(e.DistanceMeters),
		})
	}
	return s.finish(ctx, orgID, actorID, "geofence-events", in, doc)
}

func validateRange(in domain.RangeInput) error {
	if !in.To.After(in.From) {
		return perr.Validationf("range end must be after start")
	}
	return nil
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return csvx.Float(*f)
}

// finish encodes the document, names the file after the export and window,
// and records the audit row
func (s *Svc) finish(
	ctx context.Context,
	orgID, actorID, name string,
	in domain.RangeInput,
	doc csvx.Document,
) (domain.Result, error) {
	encoded, err := doc.Encode()
	if err != nil {
		return domain.Result{}, err
	}
	out := domain.Result{
		Filename: fmt.Sprintf("%s-%s-%s.csv", name, in.From.UTC().Format("20060102"), in.To.UTC().Format("20060102")),
		Hash:     encoded.Hash,
		Rows:     len(doc.Rows),
		Body:     encoded.Body,
	}
	err = s.audit.Record(ctx, nil, adomain.Entry{
		OrgID:      orgID,
		ActorID:    actorID,
		Action:     adomain.ActionExportGenerated,
		EntityType: "export",
		EntityID:   out.Filename,
		Payload:    map[string]any{"rows": out.Rows, "hash": out.Hash},
	})
	if err != nil {
		return domain.Result{}, err
	}
	return out, nil
}
