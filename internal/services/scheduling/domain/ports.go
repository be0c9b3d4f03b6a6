package domain

import (
	"context"
	"time"
)

// ServicePort is the scheduling surface
type ServicePort interface {
	UpsertTemplate(ctx context.Context, orgID, actorID string, in UpsertTemplateInput) (Template, error)
	ListTemplates(ctx context.Context, orgID, branchID string, activeOnly bool) ([]Template, error)

	CreateShift(ctx context.Context, orgID, actorID string, in CreateShiftInput) (Shift, error)
	UpdateShift(ctx context.Context, orgID, actorID string, in UpdateShiftInput) (Shift, error)
	DeleteShift(ctx context.Context, orgID, actorID, shiftID string) error
	CancelShift(ctx context.Context, orgID, actorID string, in CancelShiftInput) (Shift, error)
	GetShift(ctx context.Context, orgID, shiftID string) (Shift, error)
	ListShifts(ctx context.Context, orgID string, in ListShiftsInput) ([]Shift, error)

	Publish(ctx context.Context, orgID, actorID string, in PublishInput) (PublishResult, error)

	// CheckConflicts is the shared overlap detector used by create, update,
	// publish, swap and claim approval
	CheckConflicts(ctx context.Context, orgID, userID string, start, end time.Time, excludeIDs []string, includePublished bool) ([]Shift, error)

	// CheckOvertime is the non-blocking weekly threshold warning
	CheckOvertime(ctx context.Context, orgID, userID string, weekStart time.Time, additionalMinutes int) (OvertimeWarning, error)

	ClaimShift(ctx context.Context, orgID, userID string, in ClaimInput) (Claim, error)
	ApproveClaim(ctx context.Context, orgID, actorID string, in DecideClaimInput) (Claim, error)
	RejectClaim(ctx context.Context, orgID, actorID string, in DecideClaimInput) (Claim, error)
	WithdrawClaim(ctx context.Context, orgID, userID string, in DecideClaimInput) (Claim, error)

	ValidateSwap(ctx context.Context, orgID string, in SwapInput) ([]Conflict, error)
	ExecuteSwap(ctx context.Context, orgID, actorID string, in SwapInput) error
}
