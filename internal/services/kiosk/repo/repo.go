// Package repo provides kiosk persistence
package repo

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/store"
	"brigade/internal/services/kiosk/domain"

	"github.com/google/uuid"
)

// Repo is the kiosk persistence surface
type Repo interface {
	InsertDevice(ctx context.Context, d domain.Device) (domain.Device, error)
	GetDevice(ctx context.Context, orgID, deviceID string) (domain.Device, error)
	DeviceByPublicID(ctx context.Context, publicID string) (domain.Device, error)
	DeviceByID(ctx context.Context, deviceID string) (domain.Device, error)
	ListDevices(ctx context.Context, orgID, branchID string) ([]domain.Device, error)
	SetSecretHash(ctx context.Context, orgID, deviceID, hash string) error
	SetEnabled(ctx context.Context, orgID, deviceID string, enabled bool) error
	TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error

	InsertSession(ctx context.Context, s domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	EndSession(ctx context.Context, sessionID string, at time.Time, reason domain.EndReason) error
	EndActiveSessions(ctx context.Context, deviceID string, at time.Time, reason domain.EndReason) error
	UpdateHeartbeat(ctx context.Context, sessionID string, at time.Time) error

	InsertAttempt(ctx context.Context, a domain.PinAttempt) error
	Attempts(ctx context.Context, deviceID string, limit int) ([]domain.PinAttempt, error)

	GetBatch(ctx context.Context, deviceID, batchID string) (domain.Batch, bool, error)
	InsertBatch(ctx context.Context, b domain.Batch) (domain.Batch, error)
	SetBatchStatus(ctx context.Context, id string, status domain.BatchStatus, accepted, rejected int) error

	EventByKey(ctx context.Context, deviceID, key string) (domain.Event, bool, error)
	InsertEvent(ctx context.Context, e domain.Event) (domain.Event, error)
}

type (
	// PG is a Postgres implementation of the kiosk repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const deviceCols = `
	id, org_id, branch_id, public_id, secret_hash, enabled, allowed_cidrs,
	COALESCE(name, ''), last_seen_at, created_at`

func scanDevice(row store.Row) (domain.Device, error) {
	var d domain.Device
	err := row.Scan(&d.ID, &d.OrgID, &d.BranchID, &d.PublicID, &d.SecretHash, &d.Enabled, &d.AllowedCIDRs,
		&d.Name, &d.LastSeenAt, &d.CreatedAt)
	return d, err
}

// InsertDevice enrolls a tablet
func (r *queries) InsertDevice(ctx context.Context, d domain.Device) (domain.Device, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO kiosk_devices (id, org_id, branch_id, public_id, secret_hash, enabled, allowed_cidrs, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.Exec(ctx, sql, d.ID, d.OrgID, d.BranchID, d.PublicID, d.SecretHash, d.Enabled,
		d.AllowedCIDRs, d.Name, d.CreatedAt)
	if err != nil {
		return domain.Device{}, perr.FromPostgres(err, "insert kiosk device")
	}
	return d, nil
}

// GetDevice loads a device org-scoped
func (r *queries) GetDevice(ctx context.Context, orgID, deviceID string) (domain.Device, error) {
	const sql = `SELECT ` + deviceCols + ` FROM kiosk_devices WHERE org_id = $1 AND id = $2`
	return store.One(ctx, r.q, scanDevice, sql, orgID, deviceID)
}

// DeviceByPublicID resolves the device a kiosk authenticates as. Public
// ids are globally unique, so this lookup is deliberately unscoped
func (r *queries) DeviceByPublicID(ctx context.Context, publicID string) (domain.Device, error) {
	const sql = `SELECT ` + deviceCols + ` FROM kiosk_devices WHERE public_id = $1`
	return store.One(ctx, r.q, scanDevice, sql, publicID)
}

// DeviceByID resolves a device from a session row; deliberately unscoped
// since sessions carry no org
func (r *queries) DeviceByID(ctx context.Context, deviceID string) (domain.Device, error) {
	const sql = `SELECT ` + deviceCols + ` FROM kiosk_devices WHERE id = $1`
	return store.One(ctx, r.q, scanDevice, sql, deviceID)
}

// ListDevices returns the org's devices, optionally branch-scoped
func (r *queries) ListDevices(ctx context.Context, orgID, branchID string) ([]domain.Device, error) {
	const sql = `
		SELECT ` + deviceCols + `
		FROM kiosk_devices
		WHERE org_id = $1 AND ($2 = '' OR branch_id = $2)
		ORDER BY created_at, id
	`
	return store.Many(ctx, r.q, scanDevice, sql, orgID, branchID)
}

// SetSecretHash replaces the stored secret hash
func (r *queries) SetSecretHash(ctx context.Context, orgID, deviceID, hash string) error {
	const sql = `UPDATE kiosk_devices SET secret_hash = $3, updated_at = NOW() WHERE org_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, sql, orgID, deviceID, hash)
	if err != nil {
		return perr.FromPostgres(err, "rotate kiosk secret")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("device %s not found", deviceID)
	}
	return nil
}

// SetEnabled toggles the device
func (r *queries) SetEnabled(ctx context.Context, orgID, deviceID string, enabled bool) error {
	const sql = `UPDATE kiosk_devices SET enabled = $3, updated_at = NOW() WHERE org_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, sql, orgID, deviceID, enabled)
	if err != nil {
		return perr.FromPostgres(err, "toggle kiosk device")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("device %s not found", deviceID)
	}
	return nil
}

// TouchLastSeen stamps device liveness
func (r *queries) TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	const sql = `UPDATE kiosk_devices SET last_seen_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.q.Exec(ctx, sql, deviceID, at)
	return perr.FromPostgres(err, "touch device last seen")
}

const sessionCols = `id, device_id, started_at, last_heartbeat_at, ended_at, COALESCE(ended_reason, '')`

func scanSession(row store.Row) (domain.Session, error) {
	var (
		s      domain.Session
		reason string
	)
	if err := row.Scan(&s.ID, &s.DeviceID, &s.StartedAt, &s.LastHeartbeatAt, &s.EndedAt, &reason); err != nil {
		return domain.Session{}, err
	}
	s.EndedReason = domain.EndReason(reason)
	return s, nil
}

// InsertSession opens a session
func (r *queries) InsertSession(ctx context.Context, s domain.Session) (domain.Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const sql = `
		INSERT INTO kiosk_sessions (id, device_id, started_at, last_heartbeat_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.q.Exec(ctx, sql, s.ID, s.DeviceID, s.StartedAt, s.LastHeartbeatAt); err != nil {
		return domain.Session{}, perr.FromPostgres(err, "insert kiosk session")
	}
	return s, nil
}

// GetSession loads one session
func (r *queries) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	const sql = `SELECT ` + sessionCols + ` FROM kiosk_sessions WHERE id = $1`
	return store.One(ctx, r.q, scanSession, sql, sessionID)
}

// EndSession closes a session if still open
func (r *queries) EndSession(ctx context.Context, sessionID string, at time.Time, reason domain.EndReason) error {
	const sql = `
		UPDATE kiosk_sessions SET ended_at = $2, ended_reason = $3
		WHERE id = $1 AND ended_at IS NULL
	`
	_, err := r.q.Exec(ctx, sql, sessionID, at, string(reason))
	return perr.FromPostgres(err, "end kiosk session")
}

// EndActiveSessions closes whatever is open for the device
func (r *queries) EndActiveSessions(ctx context.Context, deviceID string, at time.Time, reason domain.EndReason) error {
	const sql = `
		UPDATE kiosk_sessions SET ended_at = $2, ended_reason = $3
		WHERE device_id = $1 AND ended_at IS NULL
	`
	_, err := r.q.Exec(ctx, sql, deviceID, at, string(reason))
	return perr.FromPostgres(err, "end active kiosk sessions")
}

// UpdateHeartbeat stamps session liveness
func (r *queries) UpdateHeartbeat(ctx context.Context, sessionID string, at time.Time) error {
	const sql = `UPDATE kiosk_sessions SET last_heartbeat_at = $2 WHERE id = $1 AND ended_at IS NULL`
	tag, err := r.q.Exec(ctx, sql, sessionID, at)
	if err != nil {
		return perr.FromPostgres(err, "update kiosk heartbeat")
	}
	if tag.RowsAffected() == 0 {
		return perr.StateConflictf("session ended")
	}
	return nil
}

// InsertAttempt appends one PIN attempt
func (r *queries) InsertAttempt(ctx context.Context, a domain.PinAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const sql = `
		INSERT INTO kiosk_pin_attempts (id, device_id, attempted_at, masked_pin, success, user_id, ip)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
	`
	_, err := r.q.Exec(ctx, sql, a.ID, a.DeviceID, a.AttemptedAt, a.MaskedPin, a.Success, a.UserID, a.IP)
	return perr.FromPostgres(err, "insert pin attempt")
}

// Attempts lists attempts newest first
func (r *queries) Attempts(ctx context.Context, deviceID string, limit int) ([]domain.PinAttempt, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const sql = `
		SELECT id, device_id, attempted_at, masked_pin, success, COALESCE(user_id, ''), COALESCE(ip, '')
		FROM kiosk_pin_attempts
		WHERE device_id = $1
		ORDER BY attempted_at DESC, id DESC
		LIMIT $2
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.PinAttempt, error) {
		var a domain.PinAttempt
		err := row.Scan(&a.ID, &a.DeviceID, &a.AttemptedAt, &a.MaskedPin, &a.Success, &a.UserID, &a.IP)
		return a, err
	}, sql, deviceID, limit)
}

const batchCols = `id, device_id, batch_id, event_count, status, accepted_count, rejected_count, created_at`

func scanBatch(row store.Row) (domain.Batch, error) {
	var (
		b      domain.Batch
		status string
	)
	if err := row.Scan(&b.ID, &b.DeviceID, &b.BatchID, &b.EventCount, &status,
		&b.AcceptedCount, &b.RejectedCount, &b.CreatedAt); err != nil {
		return domain.Batch{}, err
	}
	b.Status = domain.BatchStatus(status)
	return b, nil
}

// GetBatch resolves a batch by its client-supplied id
func (r *queries) GetBatch(ctx context.Context, deviceID, batchID string) (domain.Batch, bool, error) {
	const sql = `SELECT ` + batchCols + ` FROM kiosk_batches WHERE device_id = $1 AND batch_id = $2`
	b, err := store.One(ctx, r.q, scanBatch, sql, deviceID, batchID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Batch{}, false, nil
		}
		return domain.Batch{}, false, err
	}
	return b, true, nil
}

// InsertBatch records a batch receipt
func (r *queries) InsertBatch(ctx context.Context, b domain.Batch) (domain.Batch, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO kiosk_batches (id, device_id, batch_id, event_count, status, accepted_count, rejected_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.Exec(ctx, sql, b.ID, b.DeviceID, b.BatchID, b.EventCount, string(b.Status),
		b.AcceptedCount, b.RejectedCount, b.CreatedAt)
	if err != nil {
		return domain.Batch{}, perr.FromPostgres(err, "insert kiosk batch")
	}
	return b, nil
}

// SetBatchStatus finalizes the batch counters
func (r *queries) SetBatchStatus(ctx context.Context, id string, status domain.BatchStatus, accepted, rejected int) error {
	const sql = `UPDATE kiosk_batches SET status = $2, accepted_count = $3, rejected_count = $4 WHERE id = $1`
	_, err := r.q.Exec(ctx, sql, id, string(status), accepted, rejected)
	return perr.FromPostgres(err, "update kiosk batch")
}

const eventCols = `
	id, device_id, COALESCE(batch_row_id, ''), idempotency_key, event_type, occurred_at, status,
	COALESCE(reject_code, ''), COALESCE(user_id, ''), COALESCE(time_entry_id, ''), COALESCE(break_entry_id, ''),
	seq, created_at`

func scanEvent(row store.Row) (domain.Event, error) {
	var (
		e            domain.Event
		typ, st, rc  string
	)
	if err := row.Scan(&e.ID, &e.DeviceID, &e.BatchRowID, &e.IdempotencyKey, &typ, &e.OccurredAt, &st,
		&rc, &e.UserID, &e.TimeEntryID, &e.BreakEntryID, &e.Seq, &e.CreatedAt); err != nil {
		return domain.Event{}, err
	}
	e.Type = domain.EventType(typ)
	e.Status = domain.EventStatus(st)
	e.RejectCode = domain.RejectCode(rc)
	return e, nil
}

// EventByKey resolves a previously processed event
func (r *queries) EventByKey(ctx context.Context, deviceID, key string) (domain.Event, bool, error) {
	const sql = `SELECT ` + eventCols + ` FROM kiosk_events WHERE device_id = $1 AND idempotency_key = $2`
	e, err := store.One(ctx, r.q, scanEvent, sql, deviceID, key)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Event{}, false, nil
		}
		return domain.Event{}, false, err
	}
	return e, true, nil
}

// InsertEvent stores one processed event outcome
func (r *queries) InsertEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const sql = `
		INSERT INTO kiosk_events (
			id, device_id, batch_row_id, idempotency_key, event_type, occurred_at, status,
			reject_code, user_id, time_entry_id, break_entry_id, seq, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7,
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13)
	`
	_, err := r.q.Exec(ctx, sql, e.ID, e.DeviceID, e.BatchRowID, e.IdempotencyKey, string(e.Type), e.OccurredAt,
		string(e.Status), string(e.RejectCode), e.UserID, e.TimeEntryID, e.BreakEntryID, e.Seq, e.CreatedAt)
	if err != nil {
		return domain.Event{}, perr.FromPostgres(err, "insert kiosk event")
	}
	return e, nil
}
