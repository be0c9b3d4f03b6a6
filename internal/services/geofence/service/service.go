// Package service implements the geofence evaluation and override engine
package service

import (
	"context"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/logger"
	"brigade/internal/platform/store"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/geofence/domain"
	grepo "brigade/internal/services/geofence/repo"
)

// defaultMaxAccuracyMeters gates fixes when the config leaves it unset
const defaultMaxAccuracyMeters = 200

// overrideMinLevel is the manager tier allowed to bypass a block
const overrideMinLevel = 3

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[grepo.Repo]
	repo   grepo.Repo
	audit  adomain.RecorderPort
	ch     store.Clickhouse
}

// New constructs the service; ch may be nil (analytics mirror off)
func New(db repokit.TxRunner, audit adomain.RecorderPort, ch store.Clickhouse) *Svc {
	if db == nil {
		panic("geofence service requires a TxRunner")
	}
	b := grepo.NewPG()
	return &Svc{db: db, binder: b, repo: b.Bind(db), audit: audit, ch: ch}
}

// Evaluate decides one clock attempt per the enforcement order and logs the
// decision. Postgres is authoritative; ClickHouse gets a best-effort mirror
func (s *Svc) Evaluate(
	ctx context.Context, q repokit.Queryer, orgID string, in domain.EvaluateInput,
) (domain.Evaluation, error) {
	if orgID == "" || in.BranchID == "" {
		return domain.Evaluation{}, perr.Validationf("org id and branch id required")
	}
	repo := s.bind(q)

	cfg, found, err := repo.ConfigByBranch(ctx, orgID, in.BranchID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if !found || !cfg.Enforces(in.Action) {
		return domain.Evaluation{Allowed: true}, nil
	}

	ev := s.decide(cfg, in.Location)
	s.logEvent(ctx, repo, orgID, in, ev)
	return ev, nil
}

func (s *Svc) decide(cfg domain.Config, loc *domain.Location) domain.Evaluation {
	canOverride := cfg.AllowManagerOverride

	if loc == nil {
		return domain.Evaluation{
			Allowed:          false,
			ReasonCode:       domain.ReasonMissingLocation,
			RequiresOverride: true,
			CanOverride:      canOverride,
		}
	}

	maxAcc := cfg.MaxAccuracyMeters
	if maxAcc <= 0 {
		maxAcc = defaultMaxAccuracyMeters
	}
	if loc.AccuracyMeters > maxAcc {
		return domain.Evaluation{
			Allowed:     false,
			ReasonCode:  domain.ReasonAccuracyTooLow,
			CanOverride: canOverride,
		}
	}

	d := domain.Distance(loc.Lat, loc.Lng, cfg.CenterLat, cfg.CenterLng)
	if d <= cfg.RadiusMeters {
		return domain.Evaluation{Allowed: true, DistanceMeters: &d}
	}
	return domain.Evaluation{
		Allowed:          false,
		DistanceMeters:   &d,
		ReasonCode:       domain.ReasonOutsideGeofence,
		RequiresOverride: true,
		CanOverride:      canOverride,
	}
}

func (s *Svc) logEvent(
	ctx context.Context, repo grepo.Repo, orgID string, in domain.EvaluateInput, ev domain.Evaluation,
) {
	typ := domain.EventBlocked
	if ev.Allowed {
		typ = domain.EventAllowed
	}
	e := domain.Event{
		OrgID:          orgID,
		BranchID:       in.BranchID,
		UserID:         in.UserID,
		Type:           typ,
		ReasonCode:     ev.ReasonCode,
		ClockAction:    in.Action,
		Location:       in.Location,
		DistanceMeters: ev.DistanceMeters,
	}
	if _, err := repo.InsertEvent(ctx, e); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("geofence event insert failed")
		return
	}
	s.mirror(ctx, e)
}

// mirror ships the event to ClickHouse when the seam is configured.
// Failures are logged and swallowed; analytics never block a clock action
func (s *Svc) mirror(ctx context.Context, e domain.Event) {
	if s.ch == nil {
		return
	}
	if err := s.ch.Insert(ctx, "geofence_events", e); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("geofence clickhouse mirror failed")
	}
}

// Override bypasses a block on a time entry. Requires manager tier and a
// substantive reason; markers, event and audit all land in one transaction
func (s *Svc) Override(ctx context.Context, orgID, actorID string, actorLevel int, in domain.OverrideInput) error {
	if orgID == "" {
		return perr.Validationf("org id required")
	}
	if actorLevel < overrideMinLevel {
		return perr.Forbiddenf("geofence override requires role level %d", overrideMinLevel)
	}
	if len(in.Reason) < 10 {
		return perr.Validationf("override reason must be at least 10 characters")
	}

	var mirrored domain.Event
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)

		userID, branchID, err := repo.TimeEntryOwner(ctx, orgID, in.TimeEntryID)
		if err != nil {
			return err
		}

		cfg, found, err := repo.ConfigByBranch(ctx, orgID, branchID)
		if err != nil {
			return err
		}
		if found && !cfg.AllowManagerOverride {
			return perr.Forbiddenf("manager override disabled for branch")
		}

		if err := repo.SetOverride(ctx, orgID, in.TimeEntryID, in.Action, actorID, in.Reason); err != nil {
			return err
		}

		e := domain.Event{
			OrgID:       orgID,
			BranchID:    branchID,
			UserID:      userID,
			Type:        domain.EventOverride,
			ClockAction: in.Action,
			Location:    in.Location,
		}
		if _, err := repo.InsertEvent(ctx, e); err != nil {
			return err
		}
		mirrored = e

		if s.audit != nil {
			return s.audit.Record(ctx, q, adomain.Entry{
				OrgID:      orgID,
				ActorID:    actorID,
				Action:     adomain.ActionGeofenceOverride,
				EntityType: "time_entry",
				EntityID:   in.TimeEntryID,
				Payload: map[string]any{
					"clock_action": in.Action,
					"reason":       in.Reason,
				},
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.mirror(ctx, mirrored)
	return nil
}

// UpsertConfig validates and writes the branch fence
func (s *Svc) UpsertConfig(ctx context.Context, orgID, actorID string, in domain.UpsertConfigInput) (domain.Config, error) {
	if orgID == "" {
		return domain.Config{}, perr.Validationf("org id required")
	}
	if in.RadiusMeters < 10 || in.RadiusMeters > 50000 {
		return domain.Config{}, perr.Validationf("radius must be between 10 and 50000 meters")
	}
	if in.CenterLat < -90 || in.CenterLat > 90 || in.CenterLng < -180 || in.CenterLng > 180 {
		return domain.Config{}, perr.Validationf("center out of range")
	}
	maxAcc := in.MaxAccuracyMeters
	if maxAcc <= 0 {
		maxAcc = defaultMaxAccuracyMeters
	}
	cfg := domain.Config{
		BranchID:             in.BranchID,
		Enabled:              in.Enabled,
		CenterLat:            in.CenterLat,
		CenterLng:            in.CenterLng,
		RadiusMeters:         in.RadiusMeters,
		EnforceClockIn:       in.EnforceClockIn,
		EnforceClockOut:      in.EnforceClockOut,
		AllowManagerOverride: in.AllowManagerOverride,
		MaxAccuracyMeters:    maxAcc,
	}
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		if err := s.binder.Bind(q).UpsertConfig(ctx, orgID, cfg); err != nil {
			return err
		}
		if s.audit != nil {
			return s.audit.Record(ctx, q, adomain.Entry{
				OrgID:      orgID,
				ActorID:    actorID,
				Action:     adomain.ActionPolicyUpdated,
				EntityType: "branch_geofence",
				EntityID:   in.BranchID,
				Payload:    cfg,
			})
		}
		return nil
	})
	if err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// ConfigByBranch reads the fence for one branch
func (s *Svc) ConfigByBranch(ctx context.Context, orgID, branchID string) (domain.Config, bool, error) {
	return s.repo.ConfigByBranch(ctx, orgID, branchID)
}

// Events lists logged decisions
func (s *Svc) Events(ctx context.Context, orgID string, f domain.EventFilter) ([]domain.Event, error) {
	if orgID == "" {
		return nil, perr.Validationf("org id required")
	}
	return s.repo.Events(ctx, orgID, f)
}

func (s *Svc) bind(q repokit.Queryer) grepo.Repo {
	if q != nil {
		return s.binder.Bind(q)
	}
	return s.repo
}
