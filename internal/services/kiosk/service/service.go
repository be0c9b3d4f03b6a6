// Package service implements kiosk devices, sessions and the PIN-driven
// clock paths, including idempotent offline batch replay
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/hash"
	"brigade/internal/platform/logger"
	adomain "brigade/internal/services/audit/domain"
	ddomain "brigade/internal/services/directory/domain"
	"brigade/internal/services/kiosk/domain"
	krepo "brigade/internal/services/kiosk/repo"
	pdomain "brigade/internal/services/policy/domain"
	rldomain "brigade/internal/services/ratelimit/domain"
	tcdomain "brigade/internal/services/timeclock/domain"

	"github.com/google/uuid"
)

// errRejected aborts the accept transaction so a rejected event leaves no
// clock mutation behind
var errRejected = errors.New("kiosk: event rejected")

const pinWindow = time.Minute

// Svc implements domain.ServicePort
type Svc struct {
	db        repokit.TxRunner
	binder    repokit.Binder[krepo.Repo]
	repo      krepo.Repo
	audit     adomain.RecorderPort
	policy    pdomain.ServicePort
	limiter   rldomain.ServicePort
	directory ddomain.ServicePort
	timeclock tcdomain.ServicePort
	now       func() time.Time

	skipSecretVerify bool
}

// Option tweaks service construction
type Option func(*Svc)

// WithSecretVerification toggles device secret checks on Authenticate.
// Disabling is a local-development switch only; every other credential
// (session, PIN, rate limit) still applies
func WithSecretVerification(enabled bool) Option {
	return func(s *Svc) { s.skipSecretVerify = !enabled }
}

// New constructs the service
func New(
	db repokit.TxRunner,
	audit adomain.RecorderPort,
	policy pdomain.ServicePort,
	limiter rldomain.ServicePort,
	directory ddomain.ServicePort,
	timeclock tcdomain.ServicePort,
	opts ...Option,
) *Svc {
	if db == nil || limiter == nil || directory == nil || timeclock == nil {
		panic("kiosk service requires db, limiter, directory and timeclock")
	}
	b := krepo.NewPG()
	s := &Svc{
		db: db, binder: b, repo: b.Bind(db),
		audit: audit, policy: policy, limiter: limiter,
		directory: directory, timeclock: timeclock,
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", perr.Internalf("generate device secret: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// EnrollDevice registers a tablet and returns its secret exactly once
func (s *Svc) EnrollDevice(ctx context.Context, orgID, actorID string, in domain.EnrollDeviceInput) (domain.EnrollDeviceResult, error) {
	if orgID == "" || in.BranchID == "" {
		return domain.EnrollDeviceResult{}, perr.Validationf("org id and branch id required")
	}
	secret, err := newSecret()
	if err != nil {
		return domain.EnrollDeviceResult{}, err
	}
	secretHash, err := hash.Secret(secret)
	if err != nil {
		return domain.EnrollDeviceResult{}, err
	}

	var dev domain.Device
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		created, err := repo.InsertDevice(ctx, domain.Device{
			OrgID:        orgID,
			BranchID:     in.BranchID,
			PublicID:     uuid.NewString(),
			SecretHash:   secretHash,
			Enabled:      true,
			AllowedCIDRs: in.AllowedCIDRs,
			Name:         in.Name,
		})
		if err != nil {
			return err
		}
		dev = created
		return s.record(ctx, q, orgID, actorID, adomain.ActionDeviceEnrolled, "kiosk_device", dev.ID,
			map[string]string{"branch_id": in.BranchID, "name": in.Name})
	})
	if err != nil {
		return domain.EnrollDeviceResult{}, err
	}
	return domain.EnrollDeviceResult{Device: dev, Secret: secret}, nil
}

// RotateSecret replaces the device secret and invalidates every active
// session in the same transaction
func (s *Svc) RotateSecret(ctx context.Context, orgID, actorID, deviceID string) (domain.EnrollDeviceResult, error) {
	secret, err := newSecret()
	if err != nil {
		return domain.EnrollDeviceResult{}, err
	}
	secretHash, err := hash.Secret(secret)
	if err != nil {
		return domain.EnrollDeviceResult{}, err
	}

	var dev domain.Device
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		cur, err := repo.GetDevice(ctx, orgID, deviceID)
		if err != nil {
			return err
		}
		if err := repo.SetSecretHash(ctx, orgID, deviceID, secretHash); err != nil {
			return err
		}
		if err := repo.EndActiveSessions(ctx, deviceID, s.now().UTC(), domain.EndRotated); err != nil {
			return err
		}
		dev = cur
		return s.record(ctx, q, orgID, actorID, adomain.ActionDeviceRotated, "kiosk_device", deviceID, nil)
	})
	if err != nil {
		return domain.EnrollDeviceResult{}, err
	}
	return domain.EnrollDeviceResult{Device: dev, Secret: secret}, nil
}

// SetDeviceEnabled toggles the device; disabling ends active sessions
func (s *Svc) SetDeviceEnabled(ctx context.Context, orgID, actorID, deviceID string, enabled bool) error {
	return s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		if err := repo.SetEnabled(ctx, orgID, deviceID, enabled); err != nil {
			return err
		}
		if !enabled {
			if err := repo.EndActiveSessions(ctx, deviceID, s.now().UTC(), domain.EndManual); err != nil {
				return err
			}
		}
		return s.record(ctx, q, orgID, actorID, adomain.ActionDeviceDisabled, "kiosk_device", deviceID,
			map[string]bool{"enabled": enabled})
	})
}

// ListDevices returns the org's devices with derived health
func (s *Svc) ListDevices(ctx context.Context, orgID, branchID string) ([]domain.DeviceView, error) {
	devices, err := s.repo.ListDevices(ctx, orgID, branchID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := make([]domain.DeviceView, 0, len(devices))
	for _, d := range devices {
		out = append(out, domain.DeviceView{Device: d, Health: d.HealthAt(now)})
	}
	return out, nil
}

// Authenticate verifies the shared secret and opens a session. Any prior
// active session ends with reason EXPIRED
func (s *Svc) Authenticate(ctx context.Context, in domain.AuthenticateInput) (domain.Session, domain.Device, error) {
	dev, err := s.repo.DeviceByPublicID(ctx, in.PublicID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Session{}, domain.Device{}, perr.Unauthorizedf("invalid device credentials")
		}
		return domain.Session{}, domain.Device{}, err
	}
	if !s.skipSecretVerify {
		ok, err := hash.Verify(in.Secret, dev.SecretHash)
		if err != nil || !ok {
			return domain.Session{}, domain.Device{}, perr.Unauthorizedf("invalid device credentials")
		}
	}
	if !dev.Enabled {
		return domain.Session{}, domain.Device{}, perr.Forbiddenf("device disabled")
	}

	now := s.now().UTC()
	var sess domain.Session
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		if err := repo.EndActiveSessions(ctx, dev.ID, now, domain.EndExpired); err != nil {
			return err
		}
		created, err := repo.InsertSession(ctx, domain.Session{
			DeviceID:        dev.ID,
			StartedAt:       now,
			LastHeartbeatAt: now,
		})
		if err != nil {
			return err
		}
		sess = created
		return repo.TouchLastSeen(ctx, dev.ID, now)
	})
	if err != nil {
		return domain.Session{}, domain.Device{}, err
	}
	return sess, dev, nil
}

// Heartbeat stamps session and device liveness
func (s *Svc) Heartbeat(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, dev, err := s.validateSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.now().UTC()
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		if err := repo.UpdateHeartbeat(ctx, sessionID, now); err != nil {
			return err
		}
		return repo.TouchLastSeen(ctx, dev.ID, now)
	})
	if err != nil {
		return domain.Session{}, err
	}
	sess.LastHeartbeatAt = now
	return sess, nil
}

// EndSession closes the session manually
func (s *Svc) EndSession(ctx context.Context, sessionID string) error {
	return s.repo.EndSession(ctx, sessionID, s.now().UTC(), domain.EndManual)
}

// validateSession applies the no-timer heartbeat timeout: staleness is
// evaluated on every call and an expired session is ended in place
func (s *Svc) validateSession(ctx context.Context, sessionID string) (domain.Session, domain.Device, error) {
	if sessionID == "" {
		return domain.Session{}, domain.Device{}, perr.Unauthorizedf("kiosk session required")
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Session{}, domain.Device{}, perr.Unauthorizedf("unknown kiosk session")
		}
		return domain.Session{}, domain.Device{}, err
	}
	if !sess.Active() {
		return domain.Session{}, domain.Device{}, perr.Unauthorizedf("kiosk session ended: %s", sess.EndedReason)
	}
	dev, err := s.repo.DeviceByID(ctx, sess.DeviceID)
	if err != nil {
		return domain.Session{}, domain.Device{}, err
	}
	if !dev.Enabled {
		return domain.Session{}, domain.Device{}, perr.Forbiddenf("device disabled")
	}

	timeout := time.Duration(s.resolvePolicy(ctx, dev.OrgID).KioskSessionTimeoutMinutes) * time.Minute
	if s.now().UTC().Sub(sess.LastHeartbeatAt) > timeout {
		if err := s.repo.EndSession(ctx, sessionID, s.now().UTC(), domain.EndHeartbeatTimeout); err != nil {
			return domain.Session{}, domain.Device{}, err
		}
		return domain.Session{}, domain.Device{}, perr.Unauthorizedf("kiosk session ended: %s", domain.EndHeartbeatTimeout)
	}
	return sess, dev, nil
}

func (s *Svc) resolvePolicy(ctx context.Context, orgID string) pdomain.Policy {
	if s.policy == nil {
		return pdomain.Defaults()
	}
	p, err := s.policy.Resolve(ctx, orgID)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("org_id", orgID).Msg("policy resolution failed, using defaults")
		return pdomain.Defaults()
	}
	return p
}

func limiterKey(deviceID string) string { return "kiosk-pin:" + deviceID }

func pinKey(deviceID, pin string) string {
	return "kiosk-pin:" + deviceID + ":" + domain.MaskPin(pin)
}

// SubmitEvent is the online single-event path: session, rate limit, PIN,
// then the clock action, event row and audit in one transaction
func (s *Svc) SubmitEvent(ctx context.Context, sessionID string, in domain.ClockEventInput) (domain.EventResult, error) {
	if !in.Type.Valid() {
		return domain.EventResult{}, perr.Validationf("unknown event type %q", in.Type)
	}
	_, dev, err := s.validateSession(ctx, sessionID)
	if err != nil {
		return domain.EventResult{}, err
	}
	now := s.now().UTC()
	pol := s.resolvePolicy(ctx, dev.OrgID)

	if err := s.checkRate(ctx, dev, in.Pin, pol); err != nil {
		return domain.EventResult{}, err
	}

	userID, err := s.verifyPin(ctx, dev, in.Pin, in.IP, now)
	if err != nil {
		return domain.EventResult{}, err
	}

	var ev domain.Event
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		teID, beID, err := s.timeclock.ApplyEvent(ctx, q, dev.OrgID, userID, dev.BranchID,
			tcdomain.EventKind(in.Type), now, tcdomain.MethodPassword)
		if err != nil {
			return err
		}
		stored, err := repo.InsertEvent(ctx, domain.Event{
			DeviceID:       dev.ID,
			IdempotencyKey: uuid.NewString(),
			Type:           in.Type,
			OccurredAt:     now,
			Status:         domain.EventAccepted,
			UserID:         userID,
			TimeEntryID:    teID,
			BreakEntryID:   beID,
		})
		if err != nil {
			return err
		}
		ev = stored
		return s.record(ctx, q, dev.OrgID, userID, adomain.ActionKioskEventAccepted, "kiosk_event", stored.ID,
			map[string]string{"type": string(in.Type), "device_id": dev.ID})
	})
	if err != nil {
		return domain.EventResult{}, err
	}
	return ev.Result(), nil
}

// SessionStatus verifies the PIN like any other kiosk action and returns
// the matched user's clock state. Failed lookups count against the limiter
func (s *Svc) SessionStatus(ctx context.Context, sessionID, pin string) (tcdomain.Status, error) {
	_, dev, err := s.validateSession(ctx, sessionID)
	if err != nil {
		return tcdomain.Status{}, err
	}
	now := s.now().UTC()
	pol := s.resolvePolicy(ctx, dev.OrgID)

	if err := s.checkRate(ctx, dev, pin, pol); err != nil {
		return tcdomain.Status{}, err
	}
	userID, err := s.verifyPin(ctx, dev, pin, "", now)
	if err != nil {
		return tcdomain.Status{}, err
	}
	return s.timeclock.Status(ctx, dev.OrgID, userID)
}

// checkRate denies when recent failed attempts reach either policy cap:
// per device and PIN first, then device-wide across all PINs
func (s *Svc) checkRate(ctx context.Context, dev domain.Device, pin string, pol pdomain.Policy) error {
	dec, err := s.limiter.Check(ctx, nil, pinKey(dev.ID, pin), pinWindow, pol.KioskPinRateLimitPerMinute)
	if err != nil {
		return err
	}
	if dec.Allowed {
		dec, err = s.limiter.Check(ctx, nil, limiterKey(dev.ID), pinWindow, pol.KioskMaxInvalidPinsPerMinute)
		if err != nil {
			return err
		}
	}
	if dec.Allowed {
		return nil
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, nil, adomain.Entry{
			OrgID:      dev.OrgID,
			ActorID:    dev.ID,
			Action:     adomain.ActionKioskRateLimited,
			EntityType: "kiosk_device",
			EntityID:   dev.ID,
		})
	}
	return perr.RateLimitedf("too many pin attempts, retry in %s", dec.RetryIn.Round(time.Second))
}

// recordFailure weighs a failed attempt against both limiter windows
func (s *Svc) recordFailure(ctx context.Context, deviceID, pin string) error {
	if err := s.limiter.Record(ctx, nil, pinKey(deviceID, pin)); err != nil {
		return err
	}
	return s.limiter.Record(ctx, nil, limiterKey(deviceID))
}

// verifyPin runs the org-scoped lookup and always appends an attempt row.
// Only failures count against the limiter
func (s *Svc) verifyPin(ctx context.Context, dev domain.Device, pin, ip string, now time.Time) (string, error) {
	if !domain.ValidPinFormat(pin) {
		_ = s.repo.InsertAttempt(ctx, domain.PinAttempt{
			DeviceID: dev.ID, AttemptedAt: now, MaskedPin: domain.MaskPin(pin), Success: false, IP: ip,
		})
		if err := s.recordFailure(ctx, dev.ID, pin); err != nil {
			return "", err
		}
		return "", perr.Validationf("pin must be 4 to 6 digits")
	}
	userID, ok, err := s.directory.VerifyPin(ctx, dev.OrgID, pin)
	if err != nil {
		return "", err
	}
	attempt := domain.PinAttempt{
		DeviceID: dev.ID, AttemptedAt: now, MaskedPin: domain.MaskPin(pin), Success: ok, UserID: userID, IP: ip,
	}
	if err := s.repo.InsertAttempt(ctx, attempt); err != nil {
		return "", err
	}
	if !ok {
		if err := s.recordFailure(ctx, dev.ID, pin); err != nil {
			return "", err
		}
		return "", perr.Unauthorizedf("invalid pin")
	}
	return userID, nil
}

// SubmitBatch replays an offline event queue. A PROCESSED batch returns
// its stored results; events are idempotent individually, processed in
// order, and each commits its own transaction so progress is incremental
func (s *Svc) SubmitBatch(ctx context.Context, sessionID string, in domain.BatchInput) (domain.BatchResult, error) {
	if in.BatchID == "" {
		return domain.BatchResult{}, perr.Validationf("batch id required")
	}
	if len(in.Events) == 0 {
		return domain.BatchResult{}, perr.Validationf("batch has no events")
	}
	if len(in.Events) > domain.MaxBatchEvents {
		return domain.BatchResult{}, perr.Validationf("batch exceeds %d events", domain.MaxBatchEvents)
	}
	_, dev, err := s.validateSession(ctx, sessionID)
	if err != nil {
		return domain.BatchResult{}, err
	}

	batch, found, err := s.repo.GetBatch(ctx, dev.ID, in.BatchID)
	if err != nil {
		return domain.BatchResult{}, err
	}
	if found && batch.Status == domain.BatchProcessed {
		return s.storedResult(ctx, dev, batch, in.Events)
	}
	if !found {
		batch, err = s.repo.InsertBatch(ctx, domain.Batch{
			DeviceID:   dev.ID,
			BatchID:    in.BatchID,
			EventCount: len(in.Events),
			Status:     domain.BatchReceived,
		})
		if err != nil {
			return domain.BatchResult{}, err
		}
		if s.audit != nil {
			_ = s.audit.Record(ctx, nil, adomain.Entry{
				OrgID:      dev.OrgID,
				ActorID:    dev.ID,
				Action:     adomain.ActionKioskBatchReceived,
				EntityType: "kiosk_batch",
				EntityID:   batch.ID,
				Payload:    map[string]any{"batch_id": in.BatchID, "event_count": len(in.Events)},
			})
		}
	}

	pol := s.resolvePolicy(ctx, dev.OrgID)
	results := make([]domain.EventResult, 0, len(in.Events))
	accepted, rejected := 0, 0
	for i, e := range in.Events {
		ev, err := s.processEvent(ctx, dev, batch.ID, i, e, in.IP, pol)
		if err != nil {
			return domain.BatchResult{}, err
		}
		if ev.Status == domain.EventAccepted {
			accepted++
		} else {
			rejected++
		}
		results = append(results, ev.Result())
	}

	if err := s.repo.SetBatchStatus(ctx, batch.ID, domain.BatchProcessed, accepted, rejected); err != nil {
		return domain.BatchResult{}, err
	}
	return domain.BatchResult{
		BatchID:       in.BatchID,
		EventCount:    len(in.Events),
		AcceptedCount: accepted,
		RejectedCount: rejected,
		Results:       results,
	}, nil
}

// storedResult rebuilds the first response for a PROCESSED batch. Results
// resolve by idempotency key rather than by batch row: an event that was a
// duplicate of an earlier batch has its row attached to that batch, and a
// row scan would silently drop it from the replay
func (s *Svc) storedResult(
	ctx context.Context, dev domain.Device, batch domain.Batch, events []domain.BatchEventInput,
) (domain.BatchResult, error) {
	results := make([]domain.EventResult, 0, len(events))
	for _, e := range events {
		prior, found, err := s.repo.EventByKey(ctx, dev.ID, e.IdempotencyKey)
		if err != nil {
			return domain.BatchResult{}, err
		}
		if !found {
			continue
		}
		results = append(results, prior.Result())
	}
	return domain.BatchResult{
		BatchID:       batch.BatchID,
		EventCount:    batch.EventCount,
		AcceptedCount: batch.AcceptedCount,
		RejectedCount: batch.RejectedCount,
		Results:       results,
	}, nil
}

// processEvent handles one replayed event: duplicate check, PIN, sequence
// validation, then either the accept transaction (clock action + event row
// + audit) or the reject transaction (event row + audit)
func (s *Svc) processEvent(
	ctx context.Context, dev domain.Device, batchRowID string, seq int,
	in domain.BatchEventInput, ip string, pol pdomain.Policy,
) (domain.Event, error) {
	if prior, dup, err := s.repo.EventByKey(ctx, dev.ID, in.IdempotencyKey); err != nil {
		return domain.Event{}, err
	} else if dup {
		return prior, nil
	}

	base := domain.Event{
		DeviceID:       dev.ID,
		BatchRowID:     batchRowID,
		IdempotencyKey: in.IdempotencyKey,
		Type:           in.Type,
		OccurredAt:     in.OccurredAt.UTC(),
		Seq:            seq,
	}
	if !in.Type.Valid() {
		return s.rejectEvent(ctx, dev, base, "", domain.RejectInternal)
	}
	if !domain.ValidPinFormat(in.Pin) {
		return s.rejectEvent(ctx, dev, base, "", domain.RejectInvalidPinFormat)
	}

	if err := s.checkRate(ctx, dev, in.Pin, pol); err != nil {
		if perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
			return s.rejectEvent(ctx, dev, base, "", domain.RejectRateLimited)
		}
		return domain.Event{}, err
	}

	now := s.now().UTC()
	userID, ok, err := s.directory.VerifyPin(ctx, dev.OrgID, in.Pin)
	if err != nil {
		return domain.Event{}, err
	}
	if err := s.repo.InsertAttempt(ctx, domain.PinAttempt{
		DeviceID: dev.ID, AttemptedAt: now, MaskedPin: domain.MaskPin(in.Pin), Success: ok, UserID: userID, IP: ip,
	}); err != nil {
		return domain.Event{}, err
	}
	if !ok {
		if err := s.recordFailure(ctx, dev.ID, in.Pin); err != nil {
			return domain.Event{}, err
		}
		return s.rejectEvent(ctx, dev, base, "", domain.RejectInvalidPin)
	}
	base.UserID = userID

	var (
		stored domain.Event
		reject domain.RejectCode
	)
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)

		st, err := s.timeclock.StateFor(ctx, q, dev.OrgID, userID)
		if err != nil {
			return err
		}
		if code := sequenceCode(st, in.Type); code != "" {
			reject = code
			return errRejected
		}

		teID, beID, err := s.timeclock.ApplyEvent(ctx, q, dev.OrgID, userID, dev.BranchID,
			tcdomain.EventKind(in.Type), in.OccurredAt, tcdomain.MethodPassword)
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeNoShift) {
				reject = domain.RejectNoPublishedShift
				return errRejected
			}
			return err
		}

		ev := base
		ev.Status = domain.EventAccepted
		ev.TimeEntryID = teID
		ev.BreakEntryID = beID
		ev, err = repo.InsertEvent(ctx, ev)
		if err != nil {
			return err
		}
		stored = ev
		return s.record(ctx, q, dev.OrgID, userID, adomain.ActionKioskEventAccepted, "kiosk_event", ev.ID,
			map[string]string{"type": string(in.Type), "device_id": dev.ID})
	})
	if err != nil {
		if errors.Is(err, errRejected) {
			return s.rejectEvent(ctx, dev, base, userID, reject)
		}
		return domain.Event{}, err
	}
	return stored, nil
}

// sequenceCode maps the current clock state to the reject code for an
// illegal event, empty when the event is legal
func sequenceCode(st tcdomain.ClockState, typ domain.EventType) domain.RejectCode {
	switch typ {
	case domain.EventClockIn:
		if st.ClockedIn {
			return domain.RejectAlreadyClockedIn
		}
	case domain.EventClockOut:
		if !st.ClockedIn {
			return domain.RejectNotClockedIn
		}
		if st.OnBreak {
			return domain.RejectOnBreak
		}
	case domain.EventBreakStart:
		if !st.ClockedIn {
			return domain.RejectNotClockedIn
		}
		if st.OnBreak {
			return domain.RejectAlreadyOnBreak
		}
	case domain.EventBreakEnd:
		if !st.ClockedIn {
			return domain.RejectNotClockedIn
		}
		if !st.OnBreak {
			return domain.RejectNotOnBreak
		}
	}
	return ""
}

// rejectEvent persists the REJECTED row and its audit entry atomically
func (s *Svc) rejectEvent(
	ctx context.Context, dev domain.Device, base domain.Event, userID string, code domain.RejectCode,
) (domain.Event, error) {
	var stored domain.Event
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		ev := base
		ev.Status = domain.EventRejected
		ev.RejectCode = code
		ev.UserID = userID
		var err error
		ev, err = repo.InsertEvent(ctx, ev)
		if err != nil {
			return err
		}
		stored = ev
		actor := userID
		if actor == "" {
			actor = dev.ID
		}
		return s.record(ctx, q, dev.OrgID, actor, adomain.ActionKioskEventRejected, "kiosk_event", ev.ID,
			map[string]string{"type": string(base.Type), "code": string(code), "device_id": dev.ID})
	})
	if err != nil {
		return domain.Event{}, err
	}
	return stored, nil
}

// Attempts lists PIN attempts for a device, org-scoped
func (s *Svc) Attempts(ctx context.Context, orgID, deviceID string, limit int) ([]domain.PinAttempt, error) {
	if _, err := s.repo.GetDevice(ctx, orgID, deviceID); err != nil {
		return nil, err
	}
	return s.repo.Attempts(ctx, deviceID, limit)
}

func (s *Svc) record(
	ctx context.Context, q repokit.Queryer, orgID, actorID string, action adomain.Action,
	entityType, entityID string, payload any,
) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, q, adomain.Entry{
		OrgID:      orgID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
	})
}
