// Package service implements break-compliance evaluation and incident management
package service

import (
	"context"
	"time"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/logger"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/compliance/domain"
	"brigade/internal/services/compliance/repo"
	pdomain "brigade/internal/services/policy/domain"
)

// Svc evaluates completed time entries against break rules and files incidents
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	repo   repo.Repo
	audit  adomain.RecorderPort
	policy pdomain.ServicePort
	now    func() time.Time
}

// New constructs the compliance service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[repo.Repo],
	audit adomain.RecorderPort,
	policy pdomain.ServicePort,
) *Svc {
	if db == nil || binder == nil || audit == nil {
		panic("compliance: nil dependency")
	}
	return &Svc{
		db:     db,
		binder: binder,
		repo:   binder.Bind(db),
		audit:  audit,
		policy: policy,
		now:    time.Now,
	}
}

// Evaluate scans completed entries in [from, to) and files one incident per
// (entry, violation type). Entries already covered by an earlier run are
// counted as skipped, so re-running a range is safe
func (s *Svc) Evaluate(ctx context.Context, orgID, actorID string, in domain.EvaluateInput) (domain.Summary, error) {
	var sum domain.Summary

	if !in.To.After(in.From) {
		return sum, perr.Validationf("range end must be after start")
	}
	if in.To.Sub(in.From) > domain.MaxRangeDays*24*time.Hour {
		return sum, perr.Validationf("range must not exceed %d days", domain.MaxRangeDays)
	}

	pol := s.resolvePolicy(ctx, orgID)
	entries, err := s.repo.CompletedEntries(ctx, orgID, in.BranchID, in.From, in.To)
	if err != nil {
		return sum, err
	}

	log := logger.C(ctx)
	for _, e := range entries {
		sum.Evaluated++
		for _, inc := range evaluateEntry(orgID, e, pol) {
			created, err := s.fileIncident(ctx, actorID, inc)
			switch {
			case err != nil:
				sum.Errors++
				log.Warn().Err(err).
					Str("time_entry_id", e.ID).
					Str("type", string(inc.Type)).
					Msg("incident insert failed")
			case created:
				sum.IncidentsCreated++
			default:
				sum.IncidentsSkipped++
			}
		}
	}
	return sum, nil
}

// fileIncident inserts one incident with its audit row. A duplicate key on
// (org, time entry, type) means a prior run already filed it
func (s *Svc) fileIncident(ctx context.Context, actorID string, inc domain.Incident) (bool, error) {
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		stored, err := r.InsertIncident(ctx, inc)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      inc.OrgID,
			ActorID:    actorID,
			Action:     adomain.ActionIncidentCreated,
			EntityType: "compliance_incident",
			EntityID:   stored.ID,
			Payload: map[string]any{
				"type":            string(inc.Type),
				"severity":        string(inc.Severity),
				"user_id":         inc.UserID,
				"time_entry_id":   inc.TimeEntryID,
				"penalty_minutes": inc.PenaltyMinutes,
			},
		})
	})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeDuplicateKey) || perr.IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// evaluateEntry applies the four break rules to one completed entry.
// Breaks at or above the meal partition count toward the meal requirement,
// shorter ones toward the rest requirement
func evaluateEntry(orgID string, e domain.Entry, pol pdomain.Policy) []domain.Incident {
	duration := e.TotalMinutes
	if duration <= 0 {
		duration = int(e.ClockOutAt.Sub(e.ClockInAt) / time.Minute)
	}

	var mealMinutes, restMinutes int
	for _, m := range e.BreakMinutes {
		if m >= domain.MealPartitionMinutes {
			mealMinutes += m
		} else {
			restMinutes += m
		}
	}

	day := time.Date(
		e.ClockInAt.UTC().Year(), e.ClockInAt.UTC().Month(), e.ClockInAt.UTC().Day(),
		0, 0, 0, 0, time.UTC,
	)
	base := domain.Incident{
		OrgID:        orgID,
		BranchID:     e.BranchID,
		UserID:       e.UserID,
		TimeEntryID:  e.ID,
		IncidentDate: day,
	}

	var out []domain.Incident

	if mealAfter := pol.MealBreakRequiredAfterHours * 60; mealAfter > 0 && duration >= mealAfter {
		switch {
		case mealMinutes == 0:
			inc := base
			inc.Type = domain.MealBreakMissed
			inc.Severity = domain.SeverityHigh
			inc.PenaltyMinutes = pol.MealBreakMinimumMinutes
			out = append(out, inc)
		case mealMinutes < pol.MealBreakMinimumMinutes:
			inc := base
			inc.Type = domain.MealBreakShort
			inc.Severity = domain.SeverityMedium
			inc.PenaltyMinutes = pol.MealBreakMinimumMinutes - mealMinutes
			out = append(out, inc)
		}
	}

	if restAfter := pol.RestBreakRequiredAfterHours * 60; restAfter > 0 && duration >= restAfter {
		switch {
		case restMinutes == 0:
			inc := base
			inc.Type = domain.RestBreakMissed
			inc.Severity = domain.SeverityLow
			inc.PenaltyMinutes = pol.RestBreakMinimumMinutes
			out = append(out, inc)
		case restMinutes < pol.RestBreakMinimumMinutes:
			inc := base
			inc.Type = domain.RestBreakShort
			inc.Severity = domain.SeverityLow
			inc.PenaltyMinutes = pol.RestBreakMinimumMinutes - restMinutes
			out = append(out, inc)
		}
	}

	return out
}

// List returns incidents matching the filter
func (s *Svc) List(ctx context.Context, orgID string, f domain.IncidentFilter) ([]domain.Incident, error) {
	return s.repo.ListIncidents(ctx, orgID, f)
}

// SetResolved marks an incident resolved or reopens it
func (s *Svc) SetResolved(
	ctx context.Context,
	orgID, actorID, incidentID string,
	resolved bool,
) (domain.Incident, error) {
	var out domain.Incident
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		inc, err := r.GetIncident(ctx, orgID, incidentID)
		if err != nil {
			return err
		}
		if inc.Resolved == resolved {
			return perr.StateConflictf("incident already in requested state")
		}
		if err := r.SetResolved(ctx, orgID, incidentID, actorID, resolved, s.now().UTC()); err != nil {
			return err
		}
		out, err = r.GetIncident(ctx, orgID, incidentID)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, adomain.Entry{
			OrgID:      orgID,
			ActorID:    actorID,
			Action:     adomain.ActionIncidentResolved,
			EntityType: "compliance_incident",
			EntityID:   incidentID,
			Payload:    map[string]any{"resolved": resolved},
		})
	})
	return out, err
}

func (s *Svc) resolvePolicy(ctx context.Context, orgID string) pdomain.Policy {
	if s.policy == nil {
		return pdomain.Defaults()
	}
	pol, err := s.policy.Resolve(ctx, orgID)
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("org_id", orgID).Msg("policy resolution failed, using defaults")
		return pdomain.Defaults()
	}
	return pol
}
