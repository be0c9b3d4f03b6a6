package domain

import "context"

// ServicePort is the payroll surface: periods, approvals, compensation
// setup, runs and GL posting
type ServicePort interface {
	CreatePeriod(ctx context.Context, orgID, actorID string, in CreatePeriodInput) (PayPeriod, error)
	// ClosePeriod flips OPEN to CLOSED and locks every contained
	// timesheet approval in the same transaction
	ClosePeriod(ctx context.Context, orgID, actorID, periodID string) (PayPeriod, error)
	MarkExported(ctx context.Context, orgID, actorID, periodID string) (PayPeriod, error)
	ListPeriods(ctx context.Context, orgID, branchID string) ([]PayPeriod, error)

	SetApproval(ctx context.Context, orgID, actorID string, in SetApprovalInput) (TimesheetApproval, error)
	ListApprovals(ctx context.Context, orgID string, status ApprovalStatus) ([]TimesheetApproval, error)

	CreateComponent(ctx context.Context, orgID string, in CreateComponentInput) (Component, error)
	SetComponentEnabled(ctx context.Context, orgID, componentID string, enabled bool) (Component, error)
	ListComponents(ctx context.Context, orgID string) ([]Component, error)

	CreateProfile(ctx context.Context, orgID string, in CreateProfileInput) (Profile, error)
	ListProfiles(ctx context.Context, orgID, userID string) ([]Profile, error)

	SetMapping(ctx context.Context, orgID string, in MappingInput) (PostingMapping, error)

	CreateRun(ctx context.Context, orgID, actorID string, in CreateRunInput) (Run, error)
	Calculate(ctx context.Context, orgID, actorID, runID string) (RunDetail, error)
	ApproveRun(ctx context.Context, orgID, actorID, runID string) (Run, error)
	PostRun(ctx context.Context, orgID, actorID, runID string) (Run, error)
	PayRun(ctx context.Context, orgID, actorID, runID string) (Run, error)
	VoidRun(ctx context.Context, orgID, actorID, runID string) (Run, error)
	GetRun(ctx context.Context, orgID, runID string) (RunDetail, error)
}
