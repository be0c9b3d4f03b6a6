package domain

import "context"

// ServicePort is the reporting surface. All reads are aggregates with
// deterministic grouping order; nothing here mutates state
type ServicePort interface {
	Labor(ctx context.Context, orgID string, in RangeInput) (LaborKPIs, error)
	Incidents(ctx context.Context, orgID string, in RangeInput) ([]IncidentCount, error)
	KioskIngest(ctx context.Context, orgID string, in RangeInput) (IngestStats, error)
	DeviceHealth(ctx context.Context, orgID, branchID string) (HealthCounts, error)
}
