// Package domain holds geofence types and the distance math
package domain

import "time"

// ClockAction names the clock operation being gated
type ClockAction string

// Gated clock actions
const (
	ActionClockIn  ClockAction = "CLOCK_IN"
	ActionClockOut ClockAction = "CLOCK_OUT"
)

// ReasonCode explains why an evaluation blocked
type ReasonCode string

// Block reasons
const (
	ReasonOutsideGeofence ReasonCode = "OUTSIDE_GEOFENCE"
	ReasonAccuracyTooLow  ReasonCode = "ACCURACY_TOO_LOW"
	ReasonMissingLocation ReasonCode = "MISSING_LOCATION"
)

// EventType classifies logged geofence events
type EventType string

// Event types
const (
	EventBlocked  EventType = "BLOCKED"
	EventOverride EventType = "OVERRIDE"
	EventAllowed  EventType = "ALLOWED"
)

// LocationSource names how a fix was obtained
type LocationSource string

// Location sources
const (
	SourceGPS    LocationSource = "GPS"
	SourceWifi   LocationSource = "WIFI"
	SourceManual LocationSource = "MANUAL"
)

// Location is one client-reported fix
type Location struct {
	Lat            float64        `json:"lat" validate:"min=-90,max=90"`
	Lng            float64        `json:"lng" validate:"min=-180,max=180"`
	AccuracyMeters float64        `json:"accuracy_meters" validate:"min=0"`
	Source         LocationSource `json:"source" validate:"omitempty,oneof=GPS WIFI MANUAL"`
}

// Config is the per-branch fence
type Config struct {
	BranchID             string  `json:"branch_id"`
	Enabled              bool    `json:"enabled"`
	CenterLat            float64 `json:"center_lat"`
	CenterLng            float64 `json:"center_lng"`
	RadiusMeters         float64 `json:"radius_meters"`
	EnforceClockIn       bool    `json:"enforce_clock_in"`
	EnforceClockOut      bool    `json:"enforce_clock_out"`
	AllowManagerOverride bool    `json:"allow_manager_override"`
	MaxAccuracyMeters    float64 `json:"max_accuracy_meters"`
}

// Enforces reports whether the config gates the given action
func (c Config) Enforces(a ClockAction) bool {
	if !c.Enabled {
		return false
	}
	switch a {
	case ActionClockIn:
		return c.EnforceClockIn
	case ActionClockOut:
		return c.EnforceClockOut
	}
	return false
}

// Evaluation is the decision for one clock attempt
type Evaluation struct {
	Allowed          bool       `json:"allowed"`
	DistanceMeters   *float64   `json:"distance_meters,omitempty"`
	ReasonCode       ReasonCode `json:"reason_code,omitempty"`
	RequiresOverride bool       `json:"requires_override,omitempty"`
	CanOverride      bool       `json:"can_override,omitempty"`
}

// Event is one logged geofence decision
type Event struct {
	ID             string      `json:"id"`
	OrgID          string      `json:"org_id"`
	BranchID       string      `json:"branch_id"`
	UserID         string      `json:"user_id"`
	Type           EventType   `json:"type"`
	ReasonCode     ReasonCode  `json:"reason_code,omitempty"`
	ClockAction    ClockAction `json:"clock_action"`
	Location       *Location   `json:"location,omitempty"`
	DistanceMeters *float64    `json:"distance_meters,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
