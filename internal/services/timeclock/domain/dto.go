package domain

// ClockInInput starts a clock session
type ClockInInput struct {
	BranchID string    `json:"branch_id" validate:"required"`
	ShiftID  string    `json:"shift_id,omitempty"`
	Method   Method    `json:"method" validate:"required,oneof=PASSWORD MSR PASSKEY"`
	Location *GeoStamp `json:"location,omitempty"`
}

// ClockOutInput closes the open clock session
type ClockOutInput struct {
	Location *GeoStamp `json:"location,omitempty"`
}
