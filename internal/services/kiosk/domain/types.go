// Package domain holds kiosk types: devices, sessions, PIN attempts and
// the offline-replay batch model
package domain

import (
	"strings"
	"time"
)

// Health is the derived device state at read time
type Health string

// Device health states
const (
	HealthOnline   Health = "ONLINE"
	HealthStale    Health = "STALE"
	HealthOffline  Health = "OFFLINE"
	HealthDisabled Health = "DISABLED"
)

// Health derivation thresholds
const (
	OnlineWithinMinutes = 5
	StaleWithinMinutes  = 30
)

// Device is a shared branch tablet. The secret is stored only hashed and
// surfaces in plaintext exactly once, at enrollment or rotation
type Device struct {
	ID           string     `json:"id"`
	OrgID        string     `json:"org_id"`
	BranchID     string     `json:"branch_id"`
	PublicID     string     `json:"public_id"`
	SecretHash   string     `json:"-"`
	Enabled      bool       `json:"enabled"`
	AllowedCIDRs []string   `json:"allowed_cidrs,omitempty"`
	Name         string     `json:"name"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HealthAt derives the device health from last-seen recency
func (d Device) HealthAt(now time.Time) Health {
	if !d.Enabled {
		return HealthDisabled
	}
	if d.LastSeenAt == nil {
		return HealthOffline
	}
	age := now.Sub(*d.LastSeenAt)
	switch {
	case age < OnlineWithinMinutes*time.Minute:
		return HealthOnline
	case age < StaleWithinMinutes*time.Minute:
		return HealthStale
	default:
		return HealthOffline
	}
}

// EndReason is why a session ended
type EndReason string

// Session end reasons
const (
	EndExpired          EndReason = "EXPIRED"
	EndRotated          EndReason = "ROTATED"
	EndManual           EndReason = "MANUAL"
	EndHeartbeatTimeout EndReason = "HEARTBEAT_TIMEOUT"
)

// Session is one device login. At most one session per device is active
type Session struct {
	ID              string     `json:"id"`
	DeviceID        string     `json:"device_id"`
	StartedAt       time.Time  `json:"started_at"`
	LastHeartbeatAt time.Time  `json:"last_heartbeat_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	EndedReason     EndReason  `json:"ended_reason,omitempty"`
}

// Active reports whether the session is still open
func (s Session) Active() bool { return s.EndedAt == nil }

// PinAttempt is one append-only PIN verification record
type PinAttempt struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	AttemptedAt time.Time `json:"attempted_at"`
	MaskedPin   string    `json:"masked_pin"`
	Success     bool      `json:"success"`
	UserID      string    `json:"user_id,omitempty"`
	IP          string    `json:"ip,omitempty"`
}

// MaskPin hides all but the last two digits
func MaskPin(pin string) string {
	if len(pin) <= 2 {
		return strings.Repeat("*", len(pin))
	}
	return strings.Repeat("*", len(pin)-2) + pin[len(pin)-2:]
}

// ValidPinFormat reports whether pin is 4 to 6 digits
func ValidPinFormat(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EventType is the kind of replayed clock event
type EventType string

// Kiosk event types
const (
	EventClockIn    EventType = "CLOCK_IN"
	EventClockOut   EventType = "CLOCK_OUT"
	EventBreakStart EventType = "BREAK_START"
	EventBreakEnd   EventType = "BREAK_END"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventClockIn, EventClockOut, EventBreakStart, EventBreakEnd:
		return true
	}
	return false
}

// EventStatus is the stored outcome of one event
type EventStatus string

// Event outcomes
const (
	EventAccepted EventStatus = "ACCEPTED"
	EventRejected EventStatus = "REJECTED"
)

// RejectCode explains a rejected event
type RejectCode string

// Reject codes
const (
	RejectAlreadyClockedIn RejectCode = "ALREADY_CLOCKED_IN"
	RejectNotClockedIn     RejectCode = "NOT_CLOCKED_IN"
	RejectOnBreak          RejectCode = "ON_BREAK"
	RejectAlreadyOnBreak   RejectCode = "ALREADY_ON_BREAK"
	RejectNotOnBreak       RejectCode = "NOT_ON_BREAK"
	RejectInvalidPinFormat RejectCode = "INVALID_PIN_FORMAT"
	RejectInvalidPin       RejectCode = "INVALID_PIN"
	RejectRateLimited      RejectCode = "RATE_LIMITED"
	RejectNoPublishedShift RejectCode = "NO_PUBLISHED_SHIFT"
	RejectInternal         RejectCode = "INTERNAL"
)

// BatchStatus is the ingest batch lifecycle
type BatchStatus string

// Batch states
const (
	BatchReceived  BatchStatus = "RECEIVED"
	BatchProcessed BatchStatus = "PROCESSED"
)

// MaxBatchEvents caps one ingest request
const MaxBatchEvents = 100

// Batch is one offline replay envelope, unique by (device, batch id)
type Batch struct {
	ID            string      `json:"id"`
	DeviceID      string      `json:"device_id"`
	BatchID       string      `json:"batch_id"`
	EventCount    int         `json:"event_count"`
	Status        BatchStatus `json:"status"`
	AcceptedCount int         `json:"accepted_count"`
	RejectedCount int         `json:"rejected_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Event is one stored clock event, unique by (device, idempotency key)
type Event struct {
	ID             string      `json:"id"`
	DeviceID       string      `json:"device_id"`
	BatchRowID     string      `json:"batch_row_id,omitempty"`
	IdempotencyKey string      `json:"idempotency_key"`
	Type           EventType   `json:"type"`
	OccurredAt     time.Time   `json:"occurred_at"`
	Status         EventStatus `json:"status"`
	RejectCode     RejectCode  `json:"reject_code,omitempty"`
	UserID         string      `json:"user_id,omitempty"`
	TimeEntryID    string      `json:"time_entry_id,omitempty"`
	BreakEntryID   string      `json:"break_entry_id,omitempty"`
	Seq            int         `json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Result reports one event's outcome to the kiosk
func (e Event) Result() EventResult {
	return EventResult{
		IdempotencyKey: e.IdempotencyKey,
		Status:         e.Status,
		Code:           e.RejectCode,
		TimeEntryID:    e.TimeEntryID,
		BreakEntryID:   e.BreakEntryID,
	}
}

// EventResult is the per-event response row
type EventResult struct {
	IdempotencyKey string      `json:"idempotency_key"`
	Status         EventStatus `json:"status"`
	Code           RejectCode  `json:"code,omitempty"`
	TimeEntryID    string      `json:"time_entry_id,omitempty"`
	BreakEntryID   string      `json:"break_entry_id,omitempty"`
}

// BatchResult is the ingest response envelope
type BatchResult struct {
	BatchID       string        `json:"batch_id"`
	EventCount    int           `json:"event_count"`
	AcceptedCount int           `json:"accepted_count"`
	RejectedCount int           `json:"rejected_count"`
	Results       []EventResult `json:"results"`
}
