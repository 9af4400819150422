package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/availability"
	"github.com/JustIkra/tg-restorants-bot/internal/cart"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	"github.com/JustIkra/tg-restorants-bot/internal/middleware"
	"github.com/JustIkra/tg-restorants-bot/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManager owns ordering sessions.
// Satisfied by *session.Manager; narrow interface for testability.
type SessionManager interface {
	Create(userID int64) *session.Session
	Get(id uuid.UUID, userID int64) (*session.Session, error)
	Discard(id uuid.UUID, userID int64) error
}

// HandoffNamespace scopes a hand-off to its owner and session.
func HandoffNamespace(userID int64, sessionID uuid.UUID) string {
	return fmt.Sprintf("%d:%s", userID, sessionID)
}

// SessionHandler drives the ordering view: cafe choice, cart edits, date
// choice and the hand-off to checkout.
type SessionHandler struct {
	sessions SessionManager
	store    handoff.Store
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionManager, store handoff.Store, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, store: store, logger: logger}
}

// RegisterRoutes registers session endpoints on the given Chi router.
// Expected to be mounted at /sessions behind Authenticate.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/cafe", h.SelectCafe)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{dish_id}", h.RemoveItem)
		r.Put("/date", h.ChooseDate)
		r.Post("/handoff", h.Handoff)
	})
}

// --- Request / Response types ---

type selectCafeRequest struct {
	CafeID int64 `json:"cafe_id"`
	// TZOffsetMinutes is the mini-app's UTC offset. When set it decides
	// which calendar day is "today" for the date selection.
	TZOffsetMinutes *int `json:"tz_offset_minutes"`
}

const maxTZOffsetMinutes = 14 * 60

type addItemRequest struct {
	DishID  cart.DishID  `json:"dish_id"`
	Options cart.Options `json:"options"`
}

type chooseDateRequest struct {
	Date string `json:"date"`
}

type handoffResponse struct {
	SessionID uuid.UUID         `json:"session_id"`
	CafeID    int64             `json:"cafe_id"`
	OrderDate availability.Date `json:"order_date"`
	Cart      cart.Cart         `json:"cart"`
}

// --- Handlers ---

// Create starts an ordering session for the caller.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	s := h.sessions.Create(claims.TGID)
	writeJSON(w, http.StatusCreated, s.View())
}

// Get returns the session view with every derived value.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Delete ends the ordering flow.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	sid, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	if err := h.sessions.Discard(sid, claims.TGID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectCafe switches the active cafe. The response already reflects the
// cleared cart and a loading day window.
func (h *SessionHandler) SelectCafe(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectCafeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if off := req.TZOffsetMinutes; off != nil {
		if *off < -maxTZOffsetMinutes || *off > maxTZOffsetMinutes {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tz_offset_minutes"})
			return
		}
		if err := s.SetLocation(time.FixedZone("", *off*60)); err != nil {
			h.writeSessionError(w, err)
			return
		}
	}

	if err := s.SelectCafe(req.CafeID, middleware.TokenFromContext(r.Context())); err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// AddItem adds one unit of a dish to the cart.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DishID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dish_id is required"})
		return
	}

	v, err := s.AddItem(req.DishID, req.Options)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// RemoveItem removes one unit of a dish from the cart.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "dish_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	v, err := s.RemoveItem(cart.DishID(id))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ChooseDate selects another orderable day.
func (h *SessionHandler) ChooseDate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req chooseDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	date, err := availability.ParseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	v, err := s.ChooseDate(date)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Handoff stores the cart, cafe and date for the checkout view. It is
// refused while checkout is disabled.
func (h *SessionHandler) Handoff(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	ho, err := s.Handoff()
	if errors.Is(err, session.ErrCheckoutDisabled) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "checkout is disabled",
			"reason": string(s.View().DisabledReason),
		})
		return
	}
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	if err := handoff.Save(r.Context(), h.store, HandoffNamespace(s.UserID, s.ID), ho); err != nil {
		h.logger.Error("save handoff", zap.String("session_id", s.ID.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, handoffResponse{
		SessionID: s.ID,
		CafeID:    ho.CafeID,
		OrderDate: ho.OrderDate,
		Cart:      ho.Cart,
	})
}

// --- Helpers ---

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}

	sid, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil, false
	}

	s, err := h.sessions.Get(sid, claims.TGID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	case errors.Is(err, session.ErrNoCafe):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no cafe selected"})
	case errors.Is(err, session.ErrInvalidCafe):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cafe_id"})
	case errors.Is(err, availability.ErrDateBlocked):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, availability.ErrUnknownDate):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "date is not in the availability window"})
	case errors.Is(err, availability.ErrNotAvailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "availability is not loaded"})
	default:
		h.logger.Error("session operation", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
