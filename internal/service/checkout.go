package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/JustIkra/tg-restorants-bot/internal/cart"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/JustIkra/tg-restorants-bot/internal/events"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	"go.uber.org/zap"
)

const maxNotesLength = 500

// Errors returned by the checkout service.
var (
	ErrNoHandoff     = errors.New("nothing to check out")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidCafe   = errors.New("invalid cafe_id")
	ErrNotesTooLong  = errors.New("notes are too long")
	ErrMissingToken  = errors.New("missing backend token")
	ErrOrderRejected = errors.New("order rejected by backend")
)

// OrderBackend places orders.
// Satisfied by *backend.Client; narrow interface for testability.
type OrderBackend interface {
	CreateOrder(ctx context.Context, token string, req backend.OrderRequest) (*backend.Order, error)
}

// SubmitRequest is the validated input for placing the handed-off order.
type SubmitRequest struct {
	Namespace string
	UserID    int64
	Token     string
	Notes     string
}

// OrderSubmitted is the payload of the order.submitted event.
type OrderSubmitted struct {
	OrderID   int64  `json:"order_id"`
	UserTGID  int64  `json:"user_tgid"`
	CafeID    int64  `json:"cafe_id"`
	OrderDate string `json:"order_date"`
	Items     int    `json:"items"`
}

// CheckoutService turns a hand-off into a backend order.
type CheckoutService struct {
	store     handoff.Store
	orders    OrderBackend
	publisher events.Publisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(store handoff.Store, orders OrderBackend, publisher events.Publisher, logger *zap.Logger) *CheckoutService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{store: store, orders: orders, publisher: publisher, logger: logger}
}

// Submit loads the hand-off, places the order and clears the hand-off.
// Backend rejections (deadline passed and the like) are returned wrapped in
// ErrOrderRejected with the backend's *backend.APIError attached.
func (s *CheckoutService) Submit(ctx context.Context, req SubmitRequest) (*backend.Order, error) {
	// --- Validate input ---
	if req.Token == "" {
		return nil, ErrMissingToken
	}
	if len([]rune(req.Notes)) > maxNotesLength {
		return nil, ErrNotesTooLong
	}

	// --- Load hand-off ---
	h, err := handoff.Load(ctx, s.store, req.Namespace)
	if errors.Is(err, handoff.ErrNotFound) {
		return nil, ErrNoHandoff
	}
	if err != nil {
		return nil, fmt.Errorf("load handoff: %w", err)
	}
	if h.CafeID <= 0 {
		return nil, ErrInvalidCafe
	}
	if h.Cart.TotalItems() == 0 {
		return nil, ErrEmptyCart
	}

	// --- Place order ---
	order, err := s.orders.CreateOrder(ctx, req.Token, BuildOrder(*h, req.Notes))
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %w", ErrOrderRejected, err)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Clear hand-off ---
	if err := handoff.Clear(ctx, s.store, req.Namespace); err != nil {
		s.logger.Warn("clear handoff failed", zap.String("namespace", req.Namespace), zap.Error(err))
	}

	payload := OrderSubmitted{
		OrderID:   order.ID,
		UserTGID:  req.UserID,
		CafeID:    h.CafeID,
		OrderDate: h.OrderDate.String(),
		Items:     h.Cart.TotalItems(),
	}
	if err := s.publisher.Publish(ctx, enum.EventOrderSubmitted, strconv.FormatInt(order.ID, 10), payload); err != nil {
		s.logger.Warn("order event lost", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	s.logger.Info("order submitted",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_tgid", req.UserID),
		zap.Int64("cafe_id", h.CafeID),
		zap.String("order_date", h.OrderDate.String()))
	return order, nil
}

// BuildOrder turns a hand-off into the backend order payload. Dishes the
// hand-off recorded as extras go to Extras, everything else to Items, both
// in ascending dish order.
func BuildOrder(h handoff.Handoff, notes string) backend.OrderRequest {
	req := backend.OrderRequest{
		CafeID:    h.CafeID,
		OrderDate: h.OrderDate,
		Items:     []backend.OrderItem{},
		Notes:     notes,
	}
	for _, it := range h.Cart.Items() {
		if h.IsExtra(it.DishID) {
			req.Extras = append(req.Extras, backend.OrderExtra{MenuItemID: it.DishID, Quantity: it.Quantity})
			continue
		}
		req.Items = append(req.Items, backend.OrderItem{
			MenuItemID: it.DishID,
			Quantity:   it.Quantity,
			Options:    optionsOrNil(it.Options),
		})
	}
	return req
}

func optionsOrNil(o cart.Options) cart.Options {
	if len(o) == 0 {
		return nil
	}
	return o
}
