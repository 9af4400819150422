package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/JustIkra/tg-restorants-bot/internal/confirm"
	"github.com/JustIkra/tg-restorants-bot/internal/middleware"
	"github.com/JustIkra/tg-restorants-bot/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Deleter runs confirmation-guarded deletions.
// Satisfied by *service.AdminService; narrow interface for testability.
type Deleter interface {
	Delete(ctx context.Context, c service.Confirmer, token string, t service.Target) (*service.DeleteResult, error)
}

// BridgeLocator finds the confirmation bridge of a manager's admin console.
// Satisfied by *ws.Hub; narrow interface for testability.
type BridgeLocator interface {
	Bridge(managerID int64) (*confirm.Bridge, bool)
}

// AdminHandler serves destructive admin actions. Every action waits for the
// manager to confirm it on their connected admin console.
type AdminHandler struct {
	deleter Deleter
	bridges BridgeLocator
	logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(deleter Deleter, bridges BridgeLocator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{deleter: deleter, bridges: bridges, logger: logger}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
// Expected to be mounted at /admin behind Authenticate and RequireRole(manager).
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cafes/{id}", func(r chi.Router) {
		r.Delete("/", h.DeleteCafe)
		r.Delete("/combos/{cid}", h.DeleteCombo)
		r.Delete("/menu/{iid}", h.DeleteMenuItem)
	})
	r.Delete("/users/{tgid}", h.DeleteUser)
}

// --- Handlers ---

// DeleteCafe removes a cafe once confirmed.
func (h *AdminHandler) DeleteCafe(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cafe ID"})
		return
	}
	h.delete(w, r, service.Target{Kind: service.TargetCafe, ID: id})
}

// DeleteCombo removes a combo once confirmed.
func (h *AdminHandler) DeleteCombo(w http.ResponseWriter, r *http.Request) {
	cafeID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cafe ID"})
		return
	}
	id, ok := int64Param(r, "cid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo ID"})
		return
	}
	h.delete(w, r, service.Target{Kind: service.TargetCombo, ID: id, CafeID: cafeID})
}

// DeleteMenuItem removes a dish once confirmed.
func (h *AdminHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	cafeID, ok := int64Param(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cafe ID"})
		return
	}
	id, ok := int64Param(r, "iid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	h.delete(w, r, service.Target{Kind: service.TargetMenuItem, ID: id, CafeID: cafeID})
}

// DeleteUser removes a user once confirmed.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	tgid, ok := int64Param(r, "tgid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}
	h.delete(w, r, service.Target{Kind: service.TargetUser, ID: tgid})
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request, t service.Target) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	bridge, ok := h.bridges.Bridge(claims.TGID)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "admin console is not connected"})
		return
	}

	t.ReturnFocus = r.URL.Query().Get("return_focus")
	res, err := h.deleter.Delete(r.Context(), bridge, middleware.TokenFromContext(r.Context()), t)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, confirm.ErrPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "another confirmation is pending"})
	case errors.Is(err, confirm.ErrClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "admin console disconnected"})
	case errors.Is(err, context.Canceled):
		// The caller went away; the prompt is already withdrawn.
	case errors.Is(err, service.ErrInvalidTarget):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeBackendError(w, h.logger, "admin delete", err)
	}
}
