// Package repo runs the aggregate queries behind workforce reporting.
// Grouped results carry an explicit ORDER BY so responses are stable
package repo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/reporting/domain"
)

// DeviceRow is the minimal device read health derivation needs
type DeviceRow struct {
	Enabled    bool
	LastSeenAt *time.Time
}

// Repo is the reporting persistence surface
type Repo interface {
	ShiftAggregates(ctx context.Context, orgID, branchID string, from, to time.Time) (domain.LaborKPIs, error)
	EntryAggregates(ctx context.Context, orgID, branchID string, from, to time.Time) (actual, breaks, overtime int, err error)
	IncidentCounts(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.IncidentCount, error)
	IngestCounts(ctx context.Context, orgID, branchID string, from, to time.Time) (domain.IngestStats, error)
	RejectCounts(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.RejectCodeCount, error)
	Devices(ctx context.Context, orgID, branchID string) ([]DeviceRow, error)
}

type (
	// PG is a Postgres implementation of the reporting repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func branchClause(args *[]any, branchID string) string {
	if branchID == "" {
		return ""
	}
	*args = append(*args, branchID)
	return " AND branch_id = $" + strconv.Itoa(len(*args))
}

// ShiftAggregates counts shifts and planned minutes in the window
func (r *queries) ShiftAggregates(ctx context.Context, orgID, branchID string, from, to time.Time) (domain.LaborKPIs, error) {
	args := []any{orgID, from, to}
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			COUNT(*) FILTER (WHERE status <> 'CANCELLED'),
			COUNT(*) FILTER (WHERE status IN ('COMPLETED', 'APPROVED')),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COUNT(*) FILTER (WHERE is_open AND status = 'PUBLISHED'),
			COALESCE(SUM(planned_minutes) FILTER (WHERE status <> 'CANCELLED'), 0)
		FROM scheduled_shifts
		WHERE org_id = $1 AND start_at >= $2 AND start_at < $3`)
	sb.WriteString(branchClause(&args, branchID))

	var k domain.LaborKPIs
	err := r.q.QueryRow(ctx, sb.String(), args...).Scan(
		&k.ScheduledShifts, &k.CompletedShifts, &k.CancelledShifts, &k.OpenShifts, &k.ScheduledMinutes)
	if err != nil {
		return domain.LaborKPIs{}, perr.FromPostgres(err, "shift aggregates")
	}
	return k, nil
}

// EntryAggregates sums closed time entries in the window
func (r *queries) EntryAggregates(ctx context.Context, orgID, branchID string, from, to time.Time) (int, int, int, error) {
	args := []any{orgID, from, to}
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			COALESCE(SUM(work_minutes), 0),
			COALESCE(SUM(break_minutes), 0),
			COALESCE(SUM(overtime_minutes), 0)
		FROM time_entries
		WHERE org_id = $1 AND clock_out_at IS NOT NULL AND clock_in_at >= $2 AND clock_in_at < $3`)
	sb.WriteString(branchClause(&args, branchID))

	var work, breaks, ot int
	if err := r.q.QueryRow(ctx, sb.String(), args...).Scan(&work, &breaks, &ot); err != nil {
		return 0, 0, 0, perr.FromPostgres(err, "entry aggregates")
	}
	return work, breaks, ot, nil
}

// IncidentCounts buckets incidents by type and severity
func (r *queries) IncidentCounts(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.IncidentCount, error) {
	args := []any{orgID, from, to}
	var sb strings.Builder
	sb.WriteString(`
		SELECT type, severity, COUNT(*), COUNT(*) FILTER (WHERE resolved)
		FROM compliance_incidents
		WHERE org_id = $1 AND incident_date >= $2 AND incident_date < $3`)
	sb.WriteString(branchClause(&args, branchID))
	sb.WriteString(" GROUP BY type, severity ORDER BY type, severity")

	return store.Many(ctx, r.q, func(row store.Row) (domain.IncidentCount, error) {
		var c domain.IncidentCount
		err := row.Scan(&c.Type, &c.Severity, &c.Count, &c.Resolved)
		return c, err
	}, sb.String(), args...)
}

// IngestCounts totals kiosk batches and per-event outcomes in the window
func (r *queries) IngestCounts(ctx context.Context, orgID, branchID string, from, to time.Time) (domain.IngestStats, error) {
	args := []any{orgID, from, to}
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			COUNT(DISTINCT e.batch_row_id) FILTER (WHERE e.batch_row_id IS NOT NULL),
			COUNT(*),
			COUNT(*) FILTER (WHERE e.status = 'ACCEPTED'),
			COUNT(*) FILTER (WHERE e.status = 'REJECTED')
		FROM kiosk_events e
		JOIN kiosk_devices d ON d.id = e.device_id
		WHERE d.org_id = $1 AND e.occurred_at >= $2 AND e.occurred_at < $3`)
	if branchID != "" {
		args = append(args, branchID)
		sb.WriteString(" AND d.branch_id = $" + strconv.Itoa(len(args)))
	}

	var s domain.IngestStats
	err := r.q.QueryRow(ctx, sb.String(), args...).Scan(&s.Batches, &s.Events, &s.Accepted, &s.Rejected)
	if err != nil {
		return domain.IngestStats{}, perr.FromPostgres(err, "ingest counts")
	}
	return s, nil
}

// RejectCounts buckets rejected kiosk events by code
func (r *queries) RejectCounts(ctx context.Context, orgID, branchID string, from, to time.Time) ([]domain.RejectCodeCount, error) {
	args := []any{orgID, from, to}
	var sb strings.Builder
	sb.WriteString(`
		SELECT e.reject_code, COUNT(*)
		FROM kiosk_events e
		JOIN kiosk_devices d ON d.id = e.device_id
		WHERE d.org_id = $1 AND e.status = 'REJECTED' AND e.reject_code IS NOT NULL
		  AND e.occurred_at >= $2 AND e.occurred_at < $3`)
	if branchID != "" {
		args = append(args, branchID)
		sb.WriteString(" AND d.branch_id = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" GROUP BY e.reject_code ORDER BY e.reject_code")

	return store.Many(ctx, r.q, func(row store.Row) (domain.RejectCodeCount, error) {
		var c domain.RejectCodeCount
		err := row.Scan(&c.Code, &c.Count)
		return c, err
	}, sb.String(), args...)
}

// Devices returns the enabled flag and last-seen stamp for health buckets
func (r *queries) Devices(ctx context.Context, orgID, branchID string) ([]DeviceRow, error) {
	args := []any{orgID}
	var sb strings.Builder
	sb.WriteString(`SELECT enabled, last_seen_at FROM kiosk_devices WHERE org_id = $1`)
	sb.WriteString(branchClause(&args, branchID))
	sb.WriteString(" ORDER BY id")

	return store.Many(ctx, r.q, func(row store.Row) (DeviceRow, error) {
		var d DeviceRow
		err := row.Scan(&d.Enabled, &d.LastSeenAt)
		return d, err
	}, sb.String(), args...)
}
