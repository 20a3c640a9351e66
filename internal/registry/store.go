// Package registry defines read-only access to the mirrored facility
// database. The schema is owned externally; stores surface point-in-time
// reads and no business logic.
package registry

import (
	"context"

	"beamgate/internal/registry/models"
)

// Store is the read-only query boundary over the registry mirror.
//
// Implementations must return errors coded not_found for absent records and
// unavailable for infrastructure failures, and must not retry: retry policy
// belongs to the caller. Every call is a point-in-time read with no side
// effects, so callers may issue reads with unlimited concurrency.
type Store interface {
	FindPerson(ctx context.Context, personID int64) (models.Person, error)
	FindProposal(ctx context.Context, proposalID int64) (models.Proposal, error)
	FindDetector(ctx context.Context, detectorID int64) (models.Detector, error)

	// SessionsForBeamline returns every session scheduled on the beamline,
	// unfiltered by time. Time-window filtering is the resolver's job.
	SessionsForBeamline(ctx context.Context, beamLineName string) ([]models.BLSession, error)

	// FindSessionForVisit resolves a visit code (proposal code + number +
	// visit number) to its session.
	FindSessionForVisit(ctx context.Context, visit models.Visit) (models.BLSession, error)
}
