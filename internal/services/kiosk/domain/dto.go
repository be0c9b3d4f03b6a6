package domain

import "time"

// EnrollDeviceInput registers a tablet at a branch
type EnrollDeviceInput struct {
	BranchID     string   `json:"branch_id" validate:"required"`
	Name         string   `json:"name"      validate:"required,max=120"`
	AllowedCIDRs []string `json:"allowed_cidrs,omitempty" validate:"omitempty,dive,cidr"`
}

// EnrollDeviceResult carries the one-time plaintext secret
type EnrollDeviceResult struct {
	Device Device `json:"device"`
	Secret string `json:"secret"`
}

// AuthenticateInput opens a device session
type AuthenticateInput struct {
	PublicID string `json:"public_id" validate:"required"`
	Secret   string `json:"secret"    validate:"required"`
	IP       string `json:"-"`
}

// DevicePublic is the device view a kiosk sees after authenticating
type DevicePublic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PublicID string `json:"public_id"`
	BranchID string `json:"branch"`
}

// AuthenticateResult opens a kiosk session
type AuthenticateResult struct {
	SessionID string       `json:"session_id"`
	Device    DevicePublic `json:"device"`
}

// StatusInput asks for one user's clock state by PIN
type StatusInput struct {
	Pin string `json:"pin" validate:"required"`
}

// ClockEventInput is the online single-event path
type ClockEventInput struct {
	Type EventType `json:"type" validate:"required,oneof=CLOCK_IN CLOCK_OUT BREAK_START BREAK_END"`
	Pin  string    `json:"pin"  validate:"required"`
	IP   string    `json:"-"`
}

// BatchEventInput is one replayed offline event
type BatchEventInput struct {
	IdempotencyKey string    `json:"idempotency_key" validate:"required,max=128"`
	Type           EventType `json:"type"            validate:"required,oneof=CLOCK_IN CLOCK_OUT BREAK_START BREAK_END"`
	OccurredAt     time.Time `json:"occurred_at"     validate:"required"`
	Pin            string    `json:"pin"             validate:"required"`
}

// BatchInput is the offline replay envelope
type BatchInput struct {
	BatchID string            `json:"batch_id" validate:"required,max=128"`
	Events  []BatchEventInput `json:"events"   validate:"required,min=1,max=100"`
	IP      string            `json:"-"`
}

// DeviceView is a device read with derived health
type DeviceView struct {
	Device
	Health Health `json:"health"`
}
