package domain

// SetPinInput sets or rotates a user's kiosk PIN
type SetPinInput struct {
	UserID string `json:"user_id" validate:"required"`
	Pin    string `json:"pin"     validate:"required,numeric,min=4,max=6"`
}

// ListUsersInput filters the org directory listing
type ListUsersInput struct {
	BranchID   string `json:"branch_id,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	Limit      int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
	Offset     int    `json:"offset,omitempty" validate:"omitempty,min=0"`
}
