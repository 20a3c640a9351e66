// Package audit captures which authorization context permitted each
// validation to run. Events are transport-agnostic so stores and sinks can
// fan out.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event records one orchestrator outcome.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"requestId,omitempty"`
	BeamLineName string    `json:"beamLineName"`
	DetectorID   int64     `json:"detectorId"`
	// SessionID is nil for unauthorized outcomes, where no session context
	// existed to permit the check.
	SessionID  *int64 `json:"sessionId,omitempty"`
	Outcome    string `json:"outcome"`
	Violations int    `json:"violations"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByBeamline(ctx context.Context, beamLineName string) ([]Event, error)
}
