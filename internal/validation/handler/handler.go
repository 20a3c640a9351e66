// Package handler is the thin HTTP layer over the validation orchestrator
// and the session read API. It delegates to services without embedding
// business logic so transport concerns remain isolated.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"beamgate/internal/detector"
	"beamgate/internal/registry"
	"beamgate/internal/registry/models"
	"beamgate/internal/session"
	"beamgate/internal/validation"
	dErrors "beamgate/pkg/domain-errors"
	"beamgate/pkg/requestcontext"
)

// Handler serves the validation and session endpoints.
type Handler struct {
	logger    *slog.Logger
	validator *validation.Service
	resolver  *session.Resolver
	store     registry.Store
}

func New(validator *validation.Service, resolver *session.Resolver, store registry.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		validator: validator,
		resolver:  resolver,
		store:     store,
	}
}

// Register mounts the routes on the given router. The shared middleware
// chain (recovery, request ID, request time, logging, timeout) is applied
// by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/beamlines/{beamLineName}/validate", h.handleValidate)
	r.Get("/beamlines/{beamLineName}/session", h.handleActiveSession)
	r.Get("/visits/{code}", h.handleVisit)
}

// validateRequest is the wire form of one validation call.
type validateRequest struct {
	DetectorID    int64                         `json:"detectorId"`
	AsOf          *time.Time                    `json:"asOf,omitempty"`
	Configuration detector.ConfigurationRequest `json:"configuration"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	beamLineName := chi.URLParam(r, "beamLineName")

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid validate request",
			"beamLineName", beamLineName,
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	asOf := requestcontext.Now(ctx)
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	outcome, err := h.validator.AuthorizeAndValidate(ctx, validation.Request{
		BeamLineName: beamLineName,
		DetectorID:   req.DetectorID,
		Config:       req.Configuration,
		AsOf:         asOf,
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "validation failed",
				"beamLineName", beamLineName,
				"detectorId", req.DetectorID,
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, outcomeStatus(outcome.Kind), outcome)
}

// outcomeStatus maps verdict kinds to HTTP statuses. Every kind still
// carries the full outcome payload in the body.
func outcomeStatus(kind validation.OutcomeKind) int {
	switch kind {
	case validation.OutcomeUnauthorized:
		return http.StatusForbidden
	case validation.OutcomeDetectorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// sessionResponse decorates a session with its visit code.
type sessionResponse struct {
	models.BLSession
	Visit string `json:"visit"`
}

func (h *Handler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	beamLineName := chi.URLParam(r, "beamLineName")

	asOf := requestcontext.Now(ctx)
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "asOf must be RFC3339"))
			return
		}
		asOf = parsed
	}

	sess, err := h.resolver.ResolveActive(ctx, beamLineName, asOf)
	if errors.Is(err, session.ErrNoActiveSession) {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "no active session on beamline"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "session resolution failed",
			"beamLineName", beamLineName,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	h.writeSession(w, r, sess)
}

func (h *Handler) handleVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	visit, err := models.ParseVisit(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.store.FindSessionForVisit(ctx, visit)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "visit lookup failed",
				"visit", visit.String(),
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}

	h.writeSession(w, r, sess)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, sess models.BLSession) {
	resp := sessionResponse{BLSession: sess}
	proposal, err := h.store.FindProposal(r.Context(), sess.ProposalID)
	switch {
	case err == nil:
		resp.Visit = models.VisitCode(proposal, sess)
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		// Dangling proposal reference in the mirror; the session is still
		// reportable, just without a visit code.
		h.logger.WarnContext(r.Context(), "session references missing proposal",
			"sessionId", sess.SessionID,
			"proposalId", sess.ProposalID,
		)
	default:
		h.logger.ErrorContext(r.Context(), "proposal lookup failed",
			"sessionId", sess.SessionID,
			"proposalId", sess.ProposalID,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError centralizes domain error translation so every endpoint returns
// the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}
