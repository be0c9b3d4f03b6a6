package service

import (
	"context"
	"testing"
	"time"

	perr "brigade/internal/platform/errors"
	"brigade/internal/services/reporting/domain"
	rrepo "brigade/internal/services/reporting/repo"
)

type fakeRepo struct {
	shifts  domain.LaborKPIs
	work    int
	breaks  int
	ot      int
	buckets []domain.IncidentCount
	ingest  domain.IngestStats
	rejects []domain.RejectCodeCount
	devices []rrepo.DeviceRow
}

func (f *fakeRepo) ShiftAggregates(context.Context, string, string, time.Time, time.Time) (domain.LaborKPIs, error) {
	return f.shifts, nil
}

func (f *fakeRepo) EntryAggregates(context.Context, string, string, time.Time, time.Time) (int, int, int, error) {
	return f.work, f.breaks, f.ot, nil
}

func (f *fakeRepo) IncidentCounts(context.Context, string, string, time.Time, time.Time) ([]domain.IncidentCount, error) {
	return f.buckets, nil
}

func (f *fakeRepo) IngestCounts(context.Context, string, string, time.Time, time.Time) (domain.IngestStats, error) {
	return f.ingest, nil
}

func (f *fakeRepo) RejectCounts(context.Context, string, string, time.Time, time.Time) ([]domain.RejectCodeCount, error) {
	return f.rejects, nil
}

func (f *fakeRepo) Devices(context.Context, string, string) ([]rrepo.DeviceRow, error) {
	return f.devices, nil
}

func newFake(fr *fakeRepo, now time.Time) *Svc {
	return &Svc{repo: fr, now: func() time.Time { return now }}
}

var (
	from = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
)

func TestLaborMergesShiftAndEntryAggregates(t *testing.T) {
	fr := &fakeRepo{
		shifts: domain.LaborKPIs{ScheduledShifts: 10, CompletedShifts: 7, ScheduledMinutes: 4800},
		work:   4210, breaks: 300, ot: 95,
	}
	svc := newFake(fr, to)

	got, err := svc.Labor(context.Background(), "org-1", domain.RangeInput{From: from, To: to})
	if err != nil {
		t.Fatalf("labor: %v", err)
	}
	if got.ScheduledMinutes != 4800 || got.ActualMinutes != 4210 || got.BreakMinutes != 300 || got.OvertimeMinutes != 95 {
		t.Fatalf("unexpected kpis %+v", got)
	}
}

func TestLaborRejectsBadRange(t *testing.T) {
	svc := newFake(&fakeRepo{}, to)
	cases := []domain.RangeInput{
		{},
		{From: to, To: from},
		{From: from, To: from.Add(400 * 24 * time.Hour)},
	}
	for i, in := range cases {
		_, err := svc.Labor(context.Background(), "org-1", in)
		if perr.CodeOf(err) != perr.ErrorCodeValidation {
			t.Fatalf("case %d: want validation error, got %v", i, err)
		}
	}
}

func TestKioskIngestAcceptanceRate(t *testing.T) {
	fr := &fakeRepo{
		ingest:  domain.IngestStats{Batches: 2, Events: 8, Accepted: 6, Rejected: 2},
		rejects: []domain.RejectCodeCount{{Code: "NOT_CLOCKED_IN", Count: 2}},
	}
	svc := newFake(fr, to)

	got, err := svc.KioskIngest(context.Background(), "org-1", domain.RangeInput{From: from, To: to})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got.AcceptanceRate != 0.75 {
		t.Fatalf("acceptance rate = %v, want 0.75", got.AcceptanceRate)
	}
	if len(got.RejectsByCode) != 1 || got.RejectsByCode[0].Code != "NOT_CLOCKED_IN" {
		t.Fatalf("unexpected reject buckets %+v", got.RejectsByCode)
	}
}

func TestKioskIngestZeroEvents(t *testing.T) {
	svc := newFake(&fakeRepo{}, to)
	got, err := svc.KioskIngest(context.Background(), "org-1", domain.RangeInput{From: from, To: to})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got.AcceptanceRate != 0 {
		t.Fatalf("acceptance rate = %v, want 0", got.AcceptanceRate)
	}
}

func TestDeviceHealthBuckets(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { t := now.Add(-d); return &t }

	fr := &fakeRepo{devices: []rrepo.DeviceRow{
		{Enabled: true, LastSeenAt: ago(time.Minute)},      // online
		{Enabled: true, LastSeenAt: ago(10 * time.Minute)}, // stale
		{Enabled: true, LastSeenAt: ago(2 * time.Hour)},    // offline
		{Enabled: true},                                    // never seen: offline
		{Enabled: false, LastSeenAt: ago(time.Minute)},     // disabled wins
	}}
	svc := newFake(fr, now)

	got, err := svc.DeviceHealth(context.Background(), "org-1", "")
	if err != nil {
		t.Fatalf("device health: %v", err)
	}
	want := domain.HealthCounts{Online: 1, Stale: 1, Offline: 2, Disabled: 1}
	if got != want {
		t.Fatalf("health counts = %+v, want %+v", got, want)
	}
}
