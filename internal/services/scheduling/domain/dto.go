package domain

import "time"

// UpsertTemplateInput creates or updates a shift template
type UpsertTemplateInput struct {
	ID           string `json:"id,omitempty"`
	BranchID     string `json:"branch_id,omitempty"`
	Name         string `json:"name"       validate:"required,max=120"`
	Role         string `json:"role"       validate:"required,max=80"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `json:"end_time"   validate:"required,datetime=15:04"`
	BreakMinutes int    `json:"break_minutes" validate:"min=0,max=240"`
	Description  string `json:"description,omitempty" validate:"max=500"`
	Active       *bool  `json:"active,omitempty"`
}

// CreateShiftInput creates a DRAFT shift
type CreateShiftInput struct {
	BranchID string    `json:"branch_id" validate:"required"`
	UserID   string    `json:"user_id,omitempty"`
	Role     string    `json:"role"      validate:"required,max=80"`
	StartAt  time.Time `json:"start_at"  validate:"required"`
	EndAt    time.Time `json:"end_at"    validate:"required"`
	IsOpen   bool      `json:"is_open,omitempty"`
}

// UpdateShiftInput mutates a DRAFT shift
type UpdateShiftInput struct {
	ShiftID string    `json:"shift_id" validate:"required"`
	UserID  string    `json:"user_id,omitempty"`
	Role    string    `json:"role,omitempty" validate:"omitempty,max=80"`
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at"   validate:"required"`
}

// CancelShiftInput cancels a DRAFT or PUBLISHED shift
type CancelShiftInput struct {
	ShiftID string `json:"shift_id" validate:"required"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

// PublishInput flips all DRAFT shifts in a branch/date range to PUBLISHED
type PublishInput struct {
	BranchID string    `json:"branch_id" validate:"required"`
	From     time.Time `json:"from"      validate:"required"`
	To       time.Time `json:"to"        validate:"required"`
}

// PublishResult reports what a publish touched
type PublishResult struct {
	Published int      `json:"published"`
	ShiftIDs  []string `json:"shift_ids"`
}

// ClaimInput bids on an open shift
type ClaimInput struct {
	ShiftID string `json:"shift_id" validate:"required"`
	Note    string `json:"note,omitempty" validate:"max=500"`
}

// DecideClaimInput approves or rejects a pending claim
type DecideClaimInput struct {
	ClaimID string `json:"claim_id" validate:"required"`
}

// SwapInput validates and executes a shift swap between two users
type SwapInput struct {
	RequesterShiftID string `json:"requester_shift_id" validate:"required"`
	TargetShiftID    string `json:"target_shift_id"    validate:"required"`
}

// OvertimeCheckInput asks whether adding minutes would cross the weekly
// threshold
type OvertimeCheckInput struct {
	UserID            string    `json:"user_id"    validate:"required"`
	WeekStart         time.Time `json:"week_start" validate:"required"`
	AdditionalMinutes int       `json:"additional_minutes" validate:"min=0"`
}

// ListShiftsInput filters shift reads
type ListShiftsInput struct {
	BranchID string    `json:"branch_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Status   string    `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED IN_PROGRESS COMPLETED APPROVED CANCELLED"`
	OpenOnly bool      `json:"open_only,omitempty"`
	From     time.Time `json:"from,omitempty"`
	To       time.Time `json:"to,omitempty"`
	Limit    int       `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}
