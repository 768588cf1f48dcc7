package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crest/internal/badge/models"
	"crest/internal/platform/middleware"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	audit "crest/pkg/platform/audit"
	"crest/pkg/platform/httputil"
	"crest/pkg/requestcontext"
)

// Service defines the interface for badge operations.
type Service interface {
	Mint(ctx context.Context, owner id.Principal, uri string) (id.BadgeID, error)
	MintTimeLimited(ctx context.Context, owner id.Principal, uri string, expiry uint64) (id.BadgeID, error)
	BatchMint(ctx context.Context, owner id.Principal, uris []string) ([]id.BadgeID, error)
	Transfer(ctx context.Context, caller id.Principal, badgeID id.BadgeID, recipient id.Principal) error
	UpdateURI(ctx context.Context, caller id.Principal, badgeID id.BadgeID, newURI string) error
	Burn(ctx context.Context, caller id.Principal, badgeID id.BadgeID) error
	BurnExpired(ctx context.Context, caller id.Principal, badgeID id.BadgeID) error
	Metadata(ctx context.Context, badgeID id.BadgeID) (*models.Badge, error)
	Verify(ctx context.Context, badgeID id.BadgeID) (*models.Verification, error)
	Stats(ctx context.Context) models.Stats
	History(ctx context.Context, badgeID id.BadgeID) ([]audit.Event, error)
}

// Handler handles badge registry endpoints.
type Handler struct {
	logger    *slog.Logger
	badges    Service
	validator middleware.TokenValidator
}

// New creates a new badge Handler.
func New(badges Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		badges:    badges,
		validator: validator,
	}
}

// Register registers the badge routes with the chi router. Mutations require
// a bearer token; queries are public.
func (h *Handler) Register(r chi.Router) {
	r.Route("/badges", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/", h.handleMint)
			r.Post("/batch", h.handleBatchMint)
			r.Post("/time-limited", h.handleMintTimeLimited)
			r.Post("/{id}/transfer", h.handleTransfer)
			r.Put("/{id}/uri", h.handleUpdateURI)
			r.Delete("/{id}", h.handleBurn)
			r.Post("/{id}/expire", h.handleBurnExpired)
		})

		r.Get("/{id}", h.handleMetadata)
		r.Get("/{id}/verify", h.handleVerify)
		r.Get("/{id}/history", h.handleHistory)
	})

	r.Get("/stats", h.handleStats)
}

type mintRequest struct {
	URI string `json:"uri"`
}

type mintTimeLimitedRequest struct {
	URI    string `json:"uri"`
	Expiry uint64 `json:"expiry"`
}

type batchMintRequest struct {
	URIs []string `json:"uris"`
}

type transferRequest struct {
	Recipient string `json:"recipient"`
}

type updateURIRequest struct {
	URI string `json:"uri"`
}

type mintResponse struct {
	ID id.BadgeID `json:"id"`
}

type batchMintResponse struct {
	IDs []id.BadgeID `json:"ids"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	minted, err := h.badges.Mint(ctx, caller, req.URI)
	if err != nil {
		h.writeOperationError(w, r, "mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, mintResponse{ID: minted})
}

func (h *Handler) handleMintTimeLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req mintTimeLimitedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	minted, err := h.badges.MintTimeLimited(ctx, caller, req.URI, req.Expiry)
	if err != nil {
		h.writeOperationError(w, r, "time-limited mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, mintResponse{ID: minted})
}

func (h *Handler) handleBatchMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req batchMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	minted, err := h.badges.BatchMint(ctx, caller, req.URIs)
	if err != nil {
		h.writeOperationError(w, r, "batch mint failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, batchMintResponse{IDs: minted})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipient, err := id.ParsePrincipal(req.Recipient)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid recipient"))
		return
	}

	if err := h.badges.Transfer(ctx, caller, badgeID, recipient); err != nil {
		h.writeOperationError(w, r, "transfer failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	var req updateURIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.badges.UpdateURI(ctx, caller, badgeID, req.URI); err != nil {
		h.writeOperationError(w, r, "uri update failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	if err := h.badges.Burn(ctx, caller, badgeID); err != nil {
		h.writeOperationError(w, r, "burn failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurnExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	if err := h.badges.BurnExpired(ctx, caller, badgeID); err != nil {
		h.writeOperationError(w, r, "expired burn failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	badge, err := h.badges.Metadata(r.Context(), badgeID)
	if err != nil {
		h.writeOperationError(w, r, "metadata lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, badge)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	v, err := h.badges.Verify(r.Context(), badgeID)
	if err != nil {
		h.writeOperationError(w, r, "verify failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	badgeID, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	events, err := h.badges.History(r.Context(), badgeID)
	if err != nil {
		h.writeOperationError(w, r, "history lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.badges.Stats(r.Context()))
}

// caller reads the authenticated principal set by RequireAuth.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Principal, bool) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		// This should never happen if RequireAuth middleware is configured correctly
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return caller, true
}

// badgeID parses the {id} path parameter.
func (h *Handler) badgeID(w http.ResponseWriter, r *http.Request) (id.BadgeID, bool) {
	badgeID, err := id.ParseBadgeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid badge id"))
		return 0, false
	}
	return badgeID, true
}

func (h *Handler) writeOperationError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	logFn := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		logFn = h.logger.ErrorContext
	}
	logFn(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
