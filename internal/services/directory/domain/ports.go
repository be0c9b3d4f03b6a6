package domain

import "context"

// ServicePort is the directory surface other modules consume
type ServicePort interface {
	// Get returns the user; cross-org ids fail forbidden
	Get(ctx context.Context, orgID, userID string) (User, error)
	List(ctx context.Context, orgID string, in ListUsersInput) ([]User, error)

	// SetPin hashes and stores a kiosk PIN for the user
	SetPin(ctx context.Context, orgID, actorID string, in SetPinInput) error

	// VerifyPin walks active org users in id order and returns the first
	// whose stored hash verifies; ok=false when none match
	VerifyPin(ctx context.Context, orgID, pin string) (userID string, ok bool, err error)
}
