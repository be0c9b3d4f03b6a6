package domain

import (
	"context"

	tcdomain "brigade/internal/services/timeclock/domain"
)

// ServicePort is the kiosk surface: device lifecycle for managers, and
// the session plus clock paths for the tablets themselves
type ServicePort interface {
	EnrollDevice(ctx context.Context, orgID, actorID string, in EnrollDeviceInput) (EnrollDeviceResult, error)
	RotateSecret(ctx context.Context, orgID, actorID, deviceID string) (EnrollDeviceResult, error)
	SetDeviceEnabled(ctx context.Context, orgID, actorID, deviceID string, enabled bool) error
	ListDevices(ctx context.Context, orgID, branchID string) ([]DeviceView, error)

	// Authenticate verifies the device secret and starts a session, ending
	// any prior active one
	Authenticate(ctx context.Context, in AuthenticateInput) (Session, Device, error)
	Heartbeat(ctx context.Context, sessionID string) (Session, error)
	EndSession(ctx context.Context, sessionID string) error

	// SubmitEvent is the online single-event path keyed by session
	SubmitEvent(ctx context.Context, sessionID string, in ClockEventInput) (EventResult, error)

	// SubmitBatch replays an offline event queue; idempotent at batch and
	// event level
	SubmitBatch(ctx context.Context, sessionID string, in BatchInput) (BatchResult, error)

	// SessionStatus verifies a PIN and returns that user's clock state
	// for the kiosk home screen
	SessionStatus(ctx context.Context, sessionID, pin string) (tcdomain.Status, error)

	Attempts(ctx context.Context, orgID, deviceID string, limit int) ([]PinAttempt, error)
}
