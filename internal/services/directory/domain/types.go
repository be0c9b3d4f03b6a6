// Package domain holds org directory types
package domain

import "time"

// User is an org member as the workforce core sees it.
// Accounts and authentication live elsewhere; this is the working subset
type User struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	BranchID  string    `json:"branch_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RoleLevel int       `json:"role_level"`
	Active    bool      `json:"active"`
	HasPin    bool      `json:"has_pin"`
	CreatedAt time.Time `json:"created_at"`
}

// PinCandidate pairs a user id with its stored PIN hash for kiosk lookup
type PinCandidate struct {
	UserID  string
	PinHash string
}

// HourlyRateSource names where a user's pay rate was resolved from
const RateSourceCompensationProfile = "COMPENSATION_PROFILE"
