// Package domain holds scheduling types
package domain

import (
	"time"

	"brigade/internal/platform/timeutil"
)

// ShiftStatus is the shift lifecycle state
type ShiftStatus string

// Shift lifecycle states
const (
	ShiftDraft      ShiftStatus = "DRAFT"
	ShiftPublished  ShiftStatus = "PUBLISHED"
	ShiftInProgress ShiftStatus = "IN_PROGRESS"
	ShiftCompleted  ShiftStatus = "COMPLETED"
	ShiftApproved   ShiftStatus = "APPROVED"
	ShiftCancelled  ShiftStatus = "CANCELLED"
)

// Duration bounds for one shift, in minutes
const (
	MinShiftMinutes = 60
	MaxShiftMinutes = 960
)

// Template is a reusable shift definition. Templates are authoring hints;
// shifts never reference them after creation
type Template struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	BranchID     string    `json:"branch_id,omitempty"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	BreakMinutes int       `json:"break_minutes"`
	Description  string    `json:"description,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Shift is a concrete staffed assignment
type Shift struct {
	ID              string      `json:"id"`
	OrgID           string      `json:"org_id"`
	BranchID        string      `json:"branch_id"`
	UserID          string      `json:"user_id,omitempty"`
	Role            string      `json:"role"`
	StartAt         time.Time   `json:"start_at"`
	EndAt           time.Time   `json:"end_at"`
	Status          ShiftStatus `json:"status"`
	IsOpen          bool        `json:"is_open"`
	PlannedMinutes  int         `json:"planned_minutes"`
	ActualMinutes   int         `json:"actual_minutes,omitempty"`
	BreakMinutes    int         `json:"break_minutes,omitempty"`
	OvertimeMinutes int         `json:"overtime_minutes,omitempty"`
	PublishedBy     string      `json:"published_by,omitempty"`
	PublishedAt     *time.Time  `json:"published_at,omitempty"`
	CancelledBy     string      `json:"cancelled_by,omitempty"`
	CancelReason    string      `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// PlannedMinutesFor computes the planned duration for a window
func PlannedMinutesFor(start, end time.Time) int {
	return timeutil.MinutesBetween(start, end)
}

// ClaimStatus is the open-shift claim state
type ClaimStatus string

// Claim states
const (
	ClaimPending   ClaimStatus = "PENDING"
	ClaimApproved  ClaimStatus = "APPROVED"
	ClaimRejected  ClaimStatus = "REJECTED"
	ClaimWithdrawn ClaimStatus = "WITHDRAWN"
)

// Claim is a user's bid on an open shift
type Claim struct {
	ID        string      `json:"id"`
	OrgID     string      `json:"org_id"`
	ShiftID   string      `json:"shift_id"`
	UserID    string      `json:"user_id"`
	Status    ClaimStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	DecidedBy string      `json:"decided_by,omitempty"`
	DecidedAt *time.Time  `json:"decided_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AvailabilitySlot is one weekly recurring availability window
type AvailabilitySlot struct {
	UserID   string `json:"user_id"`
	Weekday  int    `json:"weekday"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
}

// AvailabilityException is a date-specific availability override
type AvailabilityException struct {
	UserID    string    `json:"user_id"`
	Date      time.Time `json:"date"`
	Available bool      `json:"available"`
	StartMin  int       `json:"start_min,omitempty"`
	EndMin    int       `json:"end_min,omitempty"`
}

// ConflictKind tags one layered-check failure
type ConflictKind string

// Layered conflict kinds
const (
	ConflictPayPeriodLocked ConflictKind = "PAY_PERIOD_LOCKED"
	ConflictScheduleOverlap ConflictKind = "SCHEDULE_OVERLAP"
	ConflictUnavailable     ConflictKind = "UNAVAILABLE"
)

// Conflict is one reason a shift cannot be assigned
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	ShiftID string       `json:"shift_id,omitempty"`
	Detail  string       `json:"detail,omitempty"`
}

// OvertimeWarning is the non-blocking weekly threshold check result
type OvertimeWarning struct {
	Warn             bool `json:"warn"`
	CurrentMinutes   int  `json:"current_minutes"`
	AdditionalMinutes int `json:"additional_minutes"`
	ThresholdMinutes int  `json:"threshold_minutes"`
}
