// Package domain holds break-compliance types
package domain

import "time"

// IncidentType classifies a break violation
type IncidentType string

// Incident types
const (
	MealBreakMissed IncidentType = "MEAL_BREAK_MISSED"
	MealBreakShort  IncidentType = "MEAL_BREAK_SHORT"
	RestBreakMissed IncidentType = "REST_BREAK_MISSED"
	RestBreakShort  IncidentType = "REST_BREAK_SHORT"
)

// Severity ranks an incident
type Severity string

// Severities
const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// MealPartitionMinutes splits breaks into meal (at or above) and rest
const MealPartitionMinutes = 20

// MaxRangeDays caps one evaluation request
const MaxRangeDays = 90

// Incident is one recorded violation, unique by (org, time entry, type)
type Incident struct {
	ID             string       `json:"id"`
	OrgID          string       `json:"org_id"`
	BranchID       string       `json:"branch_id"`
	UserID         string       `json:"user_id"`
	TimeEntryID    string       `json:"time_entry_id"`
	Type           IncidentType `json:"type"`
	Severity       Severity     `json:"severity"`
	IncidentDate   time.Time    `json:"incident_date"`
	PenaltyMinutes int          `json:"penalty_minutes"`
	Resolved       bool         `json:"resolved"`
	ResolvedBy     string       `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Summary reports one evaluation pass
type Summary struct {
	Evaluated        int `json:"evaluated"`
	IncidentsCreated int `json:"incidents_created"`
	IncidentsSkipped int `json:"incidents_skipped"`
	Errors           int `json:"errors"`
}

// Entry is a completed time entry with its break durations, the unit the
// evaluator works on
type Entry struct {
	ID           string    `json:"id"`
	BranchID     string    `json:"branch_id"`
	UserID       string    `json:"user_id"`
	ClockInAt    time.Time `json:"clock_in_at"`
	ClockOutAt   time.Time `json:"clock_out_at"`
	TotalMinutes int       `json:"total_minutes"`
	BreakMinutes []int     `json:"break_minutes"`
}

// EvaluateInput scopes one evaluation pass
type EvaluateInput struct {
	BranchID string    `json:"branch_id,omitempty"`
	From     time.Time `json:"from" validate:"required"`
	To       time.Time `json:"to"   validate:"required"`
}

// IncidentFilter narrows incident reads
type IncidentFilter struct {
	BranchID string
	UserID   string
	Type     IncidentType
	Severity Severity
	Resolved *bool
	From     time.Time
	To       time.Time
	Limit    int
}
