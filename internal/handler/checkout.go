package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	"github.com/JustIkra/tg-restorants-bot/internal/middleware"
	"github.com/JustIkra/tg-restorants-bot/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutSubmitter places the handed-off order.
// Satisfied by *service.CheckoutService; narrow interface for testability.
type CheckoutSubmitter interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*backend.Order, error)
}

// CheckoutHandler serves the checkout view.
type CheckoutHandler struct {
	svc      CheckoutSubmitter
	sessions SessionManager
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc CheckoutSubmitter, sessions SessionManager, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, sessions: sessions, logger: logger}
}

// RegisterRoutes registers checkout endpoints on the given Chi router.
// Expected to be mounted at /checkout behind Authenticate.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Submit)
}

// --- Request / Response types ---

type checkoutRequest struct {
	SessionID string `json:"session_id"`
	Notes     string `json:"notes"`
}

// --- Handlers ---

// Submit places the order handed off by the session. The hand-off is read
// from the store, so checkout works even after the ordering session is gone.
// A live session still on the ordered cafe is discarded on success.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	sid, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session_id"})
		return
	}

	order, err := h.svc.Submit(r.Context(), service.SubmitRequest{
		Namespace: HandoffNamespace(claims.TGID, sid),
		UserID:    claims.TGID,
		Token:     middleware.TokenFromContext(r.Context()),
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	// The ordering flow ends with the order unless the user has moved on
	// to another cafe meanwhile.
	if live, err := h.sessions.Get(sid, claims.TGID); err == nil {
		if cafeID, _ := live.ActiveCatalog(); cafeID == order.CafeID {
			h.sessions.Discard(sid, claims.TGID) //nolint:errcheck
		}
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoHandoff):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidCafe),
		errors.Is(err, service.ErrNotesTooLong),
		errors.Is(err, service.ErrMissingToken):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, handoff.ErrCorrupt):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "stored checkout data is unreadable, return to the menu"})
	default:
		writeBackendError(w, h.logger, "submit order", err)
	}
}
