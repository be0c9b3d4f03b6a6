package domain

// EvaluateInput is one gate check
type EvaluateInput struct {
	BranchID string      `json:"branch_id" validate:"required"`
	UserID   string      `json:"user_id"   validate:"required"`
	Action   ClockAction `json:"action"    validate:"required,oneof=CLOCK_IN CLOCK_OUT"`
	Location *Location   `json:"location,omitempty"`
}

// OverrideInput bypasses a block on a time entry
type OverrideInput struct {
	TimeEntryID string      `json:"time_entry_id" validate:"required"`
	Action      ClockAction `json:"action"        validate:"required,oneof=CLOCK_IN CLOCK_OUT"`
	Reason      string      `json:"reason"        validate:"required,min=10"`
	Location    *Location   `json:"location,omitempty"`
}

// UpsertConfigInput creates or replaces a branch fence
type UpsertConfigInput struct {
	BranchID             string  `json:"branch_id"      validate:"required"`
	Enabled              bool    `json:"enabled"`
	CenterLat            float64 `json:"center_lat"     validate:"min=-90,max=90"`
	CenterLng            float64 `json:"center_lng"     validate:"min=-180,max=180"`
	RadiusMeters         float64 `json:"radius_meters"  validate:"min=10,max=50000"`
	EnforceClockIn       bool    `json:"enforce_clock_in"`
	EnforceClockOut      bool    `json:"enforce_clock_out"`
	AllowManagerOverride bool    `json:"allow_manager_override"`
	MaxAccuracyMeters    float64 `json:"max_accuracy_meters" validate:"omitempty,min=1"`
}
