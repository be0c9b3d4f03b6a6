// Package domain holds timeclock types: time entries, breaks and the
// derived clock state
package domain

import (
	"time"

	gdomain "brigade/internal/services/geofence/domain"
	sdomain "brigade/internal/services/scheduling/domain"
)

// Method is how the user authenticated the clock action
type Method string

// Clock methods
const (
	MethodPassword Method = "PASSWORD"
	MethodMSR      Method = "MSR"
	MethodPasskey  Method = "PASSKEY"
)

// Valid reports whether m is a known method
func (m Method) Valid() bool {
	switch m {
	case MethodPassword, MethodMSR, MethodPasskey:
		return true
	}
	return false
}

// ShiftGraceMinutes is the attachment window around a published shift start
const ShiftGraceMinutes = 15

// EventKind is a clock action applied by the kiosk replay path
type EventKind string

// Clock event kinds
const (
	EventClockIn    EventKind = "CLOCK_IN"
	EventClockOut   EventKind = "CLOCK_OUT"
	EventBreakStart EventKind = "BREAK_START"
	EventBreakEnd   EventKind = "BREAK_END"
)

// ClockState is the minimal state snapshot used for sequence validation
type ClockState struct {
	ClockedIn bool   `json:"clocked_in"`
	OnBreak   bool   `json:"on_break"`
	EntryID   string `json:"entry_id,omitempty"`
}

// GeoStamp is the optional location captured with a clock action
type GeoStamp struct {
	Lat            float64                `json:"lat" validate:"min=-90,max=90"`
	Lng            float64                `json:"lng" validate:"min=-180,max=180"`
	AccuracyMeters float64                `json:"accuracy_meters" validate:"min=0"`
	Source         gdomain.LocationSource `json:"source" validate:"omitempty,oneof=GPS WIFI MANUAL"`
}

// Location converts the stamp to the geofence evaluation shape
func (g *GeoStamp) Location() *gdomain.Location {
	if g == nil {
		return nil
	}
	return &gdomain.Location{Lat: g.Lat, Lng: g.Lng, AccuracyMeters: g.AccuracyMeters, Source: g.Source}
}

// BreakEntry is one break inside a time entry
type BreakEntry struct {
	ID          string     `json:"id"`
	TimeEntryID string     `json:"time_entry_id"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Minutes     int        `json:"minutes"`
}

// TimeEntry is one clock session. ClockOutAt nil means the entry is open
type TimeEntry struct {
	ID              string     `json:"id"`
	OrgID           string     `json:"org_id"`
	BranchID        string     `json:"branch_id"`
	UserID          string     `json:"user_id"`
	ShiftID         string     `json:"shift_id,omitempty"`
	ClockInAt       time.Time  `json:"clock_in_at"`
	ClockOutAt      *time.Time `json:"clock_out_at,omitempty"`
	Method          Method     `json:"method"`
	TotalMinutes    int        `json:"total_minutes,omitempty"`
	BreakMinutes    int        `json:"break_minutes,omitempty"`
	WorkMinutes     int        `json:"work_minutes,omitempty"`
	OvertimeMinutes int        `json:"overtime_minutes,omitempty"`

	ClockIn          *GeoStamp `json:"clock_in_geo,omitempty"`
	ClockOut         *GeoStamp `json:"clock_out_geo,omitempty"`
	ClockInOverride  bool      `json:"clock_in_override,omitempty"`
	ClockOutOverride bool      `json:"clock_out_override,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Open reports whether the entry is still clocked in
func (e TimeEntry) Open() bool { return e.ClockOutAt == nil }

// Status is the derived per-user clock state
type Status struct {
	IsClockedIn bool           `json:"is_clocked_in"`
	Entry       *TimeEntry     `json:"entry,omitempty"`
	ActiveBreak *BreakEntry    `json:"active_break,omitempty"`
	TodayShift  *sdomain.Shift `json:"today_shift,omitempty"`
}
