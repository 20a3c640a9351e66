// Package session resolves which beamline session, if any, is active at a
// given instant. "Active" is a pure function of (beamline, asOf, store
// snapshot); there is no process-wide current-session state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"beamgate/internal/registry"
	"beamgate/internal/registry/models"
	dErrors "beamgate/pkg/domain-errors"
)

// ErrNoActiveSession means no one is currently authorized on the beamline.
// This is an expected outcome, not a fault; callers branch with errors.Is.
var ErrNoActiveSession = errors.New("no active session on beamline")

// DefaultAuthorizedStates is the proposal-state set that permits a session
// window to authorize work.
var DefaultAuthorizedStates = []models.ProposalState{models.ProposalStateOpen}

// Resolver decides the unique active session for a beamline at an instant.
type Resolver struct {
	store      registry.Store
	authorized map[models.ProposalState]struct{}
	logger     *slog.Logger
}

// New builds a resolver. authorizedStates defaults to
// DefaultAuthorizedStates when empty.
func New(store registry.Store, authorizedStates []models.ProposalState, logger *slog.Logger) *Resolver {
	if len(authorizedStates) == 0 {
		authorizedStates = DefaultAuthorizedStates
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[models.ProposalState]struct{}, len(authorizedStates))
	for _, st := range authorizedStates {
		set[st] = struct{}{}
	}
	return &Resolver{store: store, authorized: set, logger: logger}
}

// ResolveActive returns the session whose window contains asOf and whose
// proposal state is authorized. Among multiple matches the latest startDate
// wins, tie-broken by highest visit_number.
//
// The registry does not forbid overlapping windows on one beamline; the
// tie-break is a documented read-side simplification, not a scheduling
// guarantee.
//
// Returns ErrNoActiveSession when nothing matches. Store faults propagate
// unchanged: an unreachable store must never read as "no one is authorized".
func (r *Resolver) ResolveActive(ctx context.Context, beamLineName string, asOf time.Time) (models.BLSession, error) {
	sessions, err := r.store.SessionsForBeamline(ctx, beamLineName)
	if err != nil {
		return models.BLSession{}, err
	}

	var candidates []models.BLSession
	proposals := make(map[int64]models.Proposal)

	for _, sess := range sessions {
		if !sess.Contains(asOf) {
			continue
		}
		proposal, ok := proposals[sess.ProposalID]
		if !ok {
			proposal, err = r.store.FindProposal(ctx, sess.ProposalID)
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				// Dangling proposal reference in the mirror; the session
				// cannot authorize anyone without an owning proposal.
				r.logger.WarnContext(ctx, "session references missing proposal",
					"sessionId", sess.SessionID,
					"proposalId", sess.ProposalID,
				)
				continue
			}
			if err != nil {
				return models.BLSession{}, err
			}
			proposals[sess.ProposalID] = proposal
		}
		if !proposal.IsAuthorized(r.authorized) {
			continue
		}
		candidates = append(candidates, sess)
	}

	if len(candidates) == 0 {
		return models.BLSession{}, ErrNoActiveSession
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].StartDate.Equal(candidates[j].StartDate) {
			return candidates[i].StartDate.After(candidates[j].StartDate)
		}
		return candidates[i].VisitNumber > candidates[j].VisitNumber
	})
	if len(candidates) > 1 {
		r.logger.WarnContext(ctx, "overlapping session windows on beamline",
			"beamLineName", beamLineName,
			"candidates", len(candidates),
			"winner", candidates[0].SessionID,
		)
	}
	return candidates[0], nil
}
