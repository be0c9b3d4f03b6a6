// Package service computes workforce KPIs and grouped counts. Everything
// here is read-only; determinism comes from the repo's grouping order
package service

import (
	"context"
	"math"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	kdomain "brigade/internal/services/kiosk/domain"
	"brigade/internal/services/reporting/domain"
	rrepo "brigade/internal/services/reporting/repo"
)

// MaxRangeDays caps one report request
const MaxRangeDays = 366

// Svc implements domain.ServicePort
type Svc struct {
	db   repokit.TxRunner
	repo rrepo.Repo
	now  func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner) *Svc {
	if db == nil {
		panic("reporting service requires a TxRunner")
	}
	return &Svc{db: db, repo: rrepo.NewPG().Bind(db), now: time.Now}
}

func validateRange(in domain.RangeInput) error {
	if in.From.IsZero() || in.To.IsZero() {
		return perr.Validationf("from and to are required")
	}
	if !in.From.Before(in.To) {
		return perr.Validationf("from must precede to")
	}
	if in.To.Sub(in.From) > MaxRangeDays*24*time.Hour {
		return perr.Validationf("range exceeds %d days", MaxRangeDays)
	}
	return nil
}

// Labor compares scheduled minutes against the clock record
func (s *Svc) Labor(ctx context.Context, orgID string, in domain.RangeInput) (domain.LaborKPIs, error) {
	if orgID == "" {
		return domain.LaborKPIs{}, perr.Validationf("org id required")
	}
	if err := validateRange(in); err != nil {
		return domain.LaborKPIs{}, err
	}
	k, err := s.repo.ShiftAggregates(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.LaborKPIs{}, err
	}
	work, breaks, ot, err := s.repo.EntryAggregates(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.LaborKPIs{}, err
	}
	k.ActualMinutes = work
	k.BreakMinutes = breaks
	k.OvertimeMinutes = ot
	return k, nil
}

// Incidents buckets compliance incidents by type and severity
func (s *Svc) Incidents(ctx context.Context, orgID string, in domain.RangeInput) ([]domain.IncidentCount, error) {
	if orgID == "" {
		return nil, perr.Validationf("org id required")
	}
	if err := validateRange(in); err != nil {
		return nil, err
	}
	return s.repo.IncidentCounts(ctx, orgID, in.BranchID, in.From, in.To)
}

// KioskIngest reports acceptance rates and reject-code buckets
func (s *Svc) KioskIngest(ctx context.Context, orgID string, in domain.RangeInput) (domain.IngestStats, error) {
	if orgID == "" {
		return domain.IngestStats{}, perr.Validationf("org id required")
	}
	if err := validateRange(in); err != nil {
		return domain.IngestStats{}, err
	}
	stats, err := s.repo.IngestCounts(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.IngestStats{}, err
	}
	if stats.Events > 0 {
		rate := float64(stats.Accepted) / float64(stats.Events)
		stats.AcceptanceRate = math.Round(rate*10000) / 10000
	}
	rejects, err := s.repo.RejectCounts(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return domain.IngestStats{}, err
	}
	stats.RejectsByCode = rejects
	return stats, nil
}

// DeviceHealth buckets enrolled devices by health derived from last-seen
func (s *Svc) DeviceHealth(ctx context.Context, orgID, branchID string) (domain.HealthCounts, error) {
	if orgID == "" {
		return domain.HealthCounts{}, perr.Validationf("org id required")
	}
	rows, err := s.repo.Devices(ctx, orgID, branchID)
	if err != nil {
		return domain.HealthCounts{}, err
	}
	now := s.now().UTC()
	var out domain.HealthCounts
	for _, d := range rows {
		dev := kdomain.Device{Enabled: d.Enabled, LastSeenAt: d.LastSeenAt}
		switch dev.HealthAt(now) {
		case kdomain.HealthOnline:
			out.Online++
		case kdomain.HealthStale:
			out.Stale++
		case kdomain.HealthOffline:
			out.Offline++
		case kdomain.HealthDisabled:
			out.Disabled++
		}
	}
	return out, nil
}
