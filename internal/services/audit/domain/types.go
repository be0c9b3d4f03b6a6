// Package domain holds audit log types shared by repo and service layers
package domain

import "time"

// Action is the closed set of auditable action codes
type Action string

// Recognized action codes. Append only; renames break stored rows
const (
	ActionShiftCreated       Action = "SHIFT_CREATED"
	ActionShiftUpdated       Action = "SHIFT_UPDATED"
	ActionShiftDeleted       Action = "SHIFT_DELETED"
	ActionShiftCancelled     Action = "SHIFT_CANCELLED"
	ActionShiftsPublished    Action = "SHIFTS_PUBLISHED"
	ActionShiftClaimed       Action = "SHIFT_CLAIMED"
	ActionClaimApproved      Action = "CLAIM_APPROVED"
	ActionClaimRejected      Action = "CLAIM_REJECTED"
	ActionClaimWithdrawn     Action = "CLAIM_WITHDRAWN"
	ActionShiftsSwapped      Action = "SHIFTS_SWAPPED"
	ActionClockIn            Action = "CLOCK_IN"
	ActionClockOut           Action = "CLOCK_OUT"
	ActionBreakStart         Action = "BREAK_START"
	ActionBreakEnd           Action = "BREAK_END"
	ActionTimesheetApproved  Action = "TIMESHEET_APPROVED"
	ActionTimesheetRejected  Action = "TIMESHEET_REJECTED"
	ActionPayPeriodClosed    Action = "PAY_PERIOD_CLOSED"
	ActionDeviceEnrolled     Action = "KIOSK_DEVICE_ENROLLED"
	ActionDeviceRotated      Action = "KIOSK_SECRET_ROTATED"
	ActionDeviceDisabled     Action = "KIOSK_DEVICE_DISABLED"
	ActionKioskBatchReceived Action = "KIOSK_BATCH_RECEIVED"
	ActionKioskEventAccepted Action = "KIOSK_EVENT_ACCEPTED"
	ActionKioskEventRejected Action = "KIOSK_EVENT_REJECTED"
	ActionKioskRateLimited   Action = "KIOSK_RATE_LIMITED"
	ActionGeofenceBlocked    Action = "GEOFENCE_BLOCKED"
	ActionGeofenceOverride   Action = "GEOFENCE_OVERRIDE"
	ActionPolicyUpdated      Action = "POLICY_UPDATED"
	ActionPinSet             Action = "PIN_SET"
	ActionPayrollCalculated  Action = "PAYROLL_CALCULATED"
	ActionPayrollApproved    Action = "PAYROLL_APPROVED"
	ActionPayrollPosted      Action = "PAYROLL_POSTED"
	ActionPayrollPaid        Action = "PAYROLL_PAID"
	ActionPayrollVoided      Action = "PAYROLL_VOIDED"
	ActionIncidentCreated    Action = "INCIDENT_CREATED"
	ActionIncidentResolved   Action = "INCIDENT_RESOLVED"
	ActionExportGenerated    Action = "EXPORT_GENERATED"
)

// Entry is one append-only audit record
type Entry struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	ActorID    string    `json:"actor_id"`
	Action     Action    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Payload    any       `json:"payload,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter narrows audit reads; zero fields are ignored
type Filter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     Action
	From       time.Time
	To         time.Time

	// keyset cursor: rows strictly older than (AfterAt, AfterID)
	AfterAt time.Time
	AfterID string
	Limit   int
}
