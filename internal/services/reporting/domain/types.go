// Package domain holds workforce reporting aggregates
package domain

import "time"

// RangeInput scopes a report to a window and optional branch
type RangeInput struct {
	BranchID string    `json:"branch_id,omitempty"`
	From     time.Time `json:"from" validate:"required"`
	To       time.Time `json:"to"   validate:"required"`
}

// LaborKPIs compares the plan against what the clock recorded
type LaborKPIs struct {
	ScheduledShifts  int `json:"scheduled_shifts"`
	CompletedShifts  int `json:"completed_shifts"`
	CancelledShifts  int `json:"cancelled_shifts"`
	OpenShifts       int `json:"open_shifts"`
	ScheduledMinutes int `json:"scheduled_minutes"`
	ActualMinutes    int `json:"actual_minutes"`
	BreakMinutes     int `json:"break_minutes"`
	OvertimeMinutes  int `json:"overtime_minutes"`
}

// IncidentCount is one (type, severity) bucket
type IncidentCount struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Count    int    `json:"count"`
	Resolved int    `json:"resolved"`
}

// IngestStats summarizes kiosk event acceptance in the window
type IngestStats struct {
	Batches        int                `json:"batches"`
	Events         int                `json:"events"`
	Accepted       int                `json:"accepted"`
	Rejected       int                `json:"rejected"`
	AcceptanceRate float64            `json:"acceptance_rate"`
	RejectsByCode  []RejectCodeCount  `json:"rejects_by_code"`
}

// RejectCodeCount is one reject-code bucket
type RejectCodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// HealthCounts buckets devices by derived health
type HealthCounts struct {
	Online   int `json:"online"`
	Stale    int `json:"stale"`
	Offline  int `json:"offline"`
	Disabled int `json:"disabled"`
}
