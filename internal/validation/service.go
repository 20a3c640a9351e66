// Package validation composes the session resolver and the detector
// evaluator into the single externally callable authorize-and-validate
// operation.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"beamgate/internal/detector"
	"beamgate/internal/registry"
	"beamgate/internal/registry/models"
	"beamgate/internal/session"
	valmetrics "beamgate/internal/validation/metrics"
	dErrors "beamgate/pkg/domain-errors"
	audit "beamgate/pkg/platform/audit"
	"beamgate/pkg/requestcontext"
)

// OutcomeKind tags the validation verdict.
type OutcomeKind string

const (
	OutcomeApproved         OutcomeKind = "approved"
	OutcomeRejected         OutcomeKind = "rejected"
	OutcomeUnauthorized     OutcomeKind = "unauthorized"
	OutcomeDetectorNotFound OutcomeKind = "detector_not_found"
)

// Request is the input to one authorize-and-validate call. AsOf must be
// supplied by the caller; the service never samples the clock itself, so
// identical inputs against an unchanged store yield identical outcomes.
type Request struct {
	BeamLineName string
	DetectorID   int64
	Config       detector.ConfigurationRequest
	AsOf         time.Time
}

// Outcome is the combined verdict. Session is set for every kind except
// Unauthorized, so callers can always audit which authorization context
// permitted the check to run.
type Outcome struct {
	Kind       OutcomeKind          `json:"outcome"`
	Session    *models.BLSession    `json:"session,omitempty"`
	Violations []detector.Violation `json:"violations,omitempty"`
}

// AuditEmitter records outcomes; satisfied by the audit publisher.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the validation orchestrator. All operations are pure reads of
// the store snapshot; the service holds no mutable state and may be called
// with unlimited concurrency.
type Service struct {
	store    registry.Store
	resolver *session.Resolver
	auditor  AuditEmitter
	metrics  *valmetrics.Metrics
	logger   *slog.Logger
}

type serviceConfig struct {
	auditor AuditEmitter
	metrics *valmetrics.Metrics
	logger  *slog.Logger
}

type Option func(*serviceConfig)

func WithAuditEmitter(a AuditEmitter) Option {
	return func(cfg *serviceConfig) { cfg.auditor = a }
}

func WithMetrics(m *valmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = l }
}

func New(store registry.Store, resolver *session.Resolver, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		auditor:  cfg.auditor,
		metrics:  cfg.metrics,
		logger:   cfg.logger,
	}
}

// AuthorizeAndValidate resolves the active session on the beamline at
// req.AsOf and evaluates the requested configuration against the named
// detector's limits.
//
// The session resolution and the detector fetch have no ordering dependency
// and are issued concurrently; the evaluator runs after the join. Store
// faults abort the whole call with an unavailable error; an unreachable
// store is never treated as "no constraints" or "not authorized".
func (s *Service) AuthorizeAndValidate(ctx context.Context, req Request) (Outcome, error) {
	if req.BeamLineName == "" {
		return Outcome{}, dErrors.New(dErrors.CodeBadRequest, "beamline name is required")
	}
	if req.DetectorID <= 0 {
		return Outcome{}, dErrors.New(dErrors.CodeBadRequest, "detector id is required")
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = requestcontext.Now(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		activeSession models.BLSession
		noSession     bool
		det           models.Detector
		detMissing    bool
	)

	g.Go(func() error {
		start := time.Now()
		sess, err := s.resolver.ResolveActive(gctx, req.BeamLineName, asOf)
		s.metrics.ObserveRegistryRead("resolve_session", time.Since(start))
		if errors.Is(err, session.ErrNoActiveSession) {
			noSession = true
			return nil
		}
		if err != nil {
			return err
		}
		activeSession = sess
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		d, err := s.store.FindDetector(gctx, req.DetectorID)
		s.metrics.ObserveRegistryRead("find_detector", time.Since(start))
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			detMissing = true
			return nil
		}
		if err != nil {
			return err
		}
		det = d
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "validation aborted on store fault",
			"beamLineName", req.BeamLineName,
			"detectorId", req.DetectorID,
			"error", err.Error(),
		)
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			return Outcome{}, err
		}
		return Outcome{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "registry read failed")
	}

	var outcome Outcome
	switch {
	case noSession:
		outcome = Outcome{Kind: OutcomeUnauthorized}
	case detMissing:
		outcome = Outcome{Kind: OutcomeDetectorNotFound, Session: &activeSession}
	default:
		result := detector.Evaluate(det, req.Config)
		if result.Pass {
			outcome = Outcome{Kind: OutcomeApproved, Session: &activeSession}
		} else {
			outcome = Outcome{Kind: OutcomeRejected, Session: &activeSession, Violations: result.Violations}
		}
	}

	s.logger.InfoContext(ctx, "validation outcome",
		"beamLineName", req.BeamLineName,
		"detectorId", req.DetectorID,
		"outcome", outcome.String(),
	)
	s.metrics.IncrementOutcome(string(outcome.Kind))
	s.emitAudit(ctx, req, asOf, outcome)
	return outcome, nil
}

func (s *Service) emitAudit(ctx context.Context, req Request, asOf time.Time, outcome Outcome) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		ID:           uuid.New(),
		Timestamp:    asOf,
		RequestID:    requestcontext.RequestID(ctx),
		BeamLineName: req.BeamLineName,
		DetectorID:   req.DetectorID,
		Outcome:      string(outcome.Kind),
		Violations:   len(outcome.Violations),
	}
	if outcome.Session != nil {
		id := outcome.Session.SessionID
		event.SessionID = &id
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		// Audit is fail-open for the ops category; the validation verdict
		// stands regardless.
		s.logger.WarnContext(ctx, "audit emit failed",
			"beamLineName", req.BeamLineName,
			"error", err.Error(),
		)
	}
}

// String renders the outcome for logs.
func (o Outcome) String() string {
	if o.Session == nil {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s (session %d)", o.Kind, o.Session.SessionID)
}
