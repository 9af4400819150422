// Package handoff carries the ordering view's state to the checkout view.
//
// The handoff is a handful of plain string values under fixed keys,
// namespaced by ordering session. It is not versioned and is overwritten on
// every hand-off.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/JustIkra/tg-restorants-bot/internal/availability"
	"github.com/JustIkra/tg-restorants-bot/internal/cart"
)

// Fixed keys written for every hand-off.
const (
	KeyCart         = "cart"
	KeyActiveCafeID = "active_cafe_id"
	KeySelectedDate = "selected_date"
	// KeyExtras lists the dishes of the cart that are add-ons. Hand-offs
	// written without it load with no extras.
	KeyExtras = "extras"
)

// Errors returned by Load.
var (
	ErrNotFound = errors.New("handoff not found")
	ErrCorrupt  = errors.New("handoff is corrupt")
)

// Store is a namespaced string key-value store.
type Store interface {
	Put(ctx context.Context, namespace string, values map[string]string) error
	Get(ctx context.Context, namespace string) (map[string]string, error)
	Delete(ctx context.Context, namespace string) error
}

// Handoff is everything the checkout view needs from the ordering view.
type Handoff struct {
	CafeID    int64             `json:"cafe_id"`
	OrderDate availability.Date `json:"order_date"`
	Cart      cart.Cart         `json:"cart"`
	// Extras are the cart dishes the cafe menu marks as add-ons, recorded
	// when the hand-off is made.
	Extras []cart.DishID `json:"extras,omitempty"`
}

// IsExtra reports whether id was recorded as an add-on.
func (h Handoff) IsExtra(id cart.DishID) bool {
	for _, e := range h.Extras {
		if e == id {
			return true
		}
	}
	return false
}

// Save writes h under namespace, replacing any previous hand-off.
func Save(ctx context.Context, s Store, namespace string, h Handoff) error {
	c := h.Cart
	if c == nil {
		c = cart.Cart{}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	extras := h.Extras
	if extras == nil {
		extras = []cart.DishID{}
	}
	rawExtras, err := json.Marshal(extras)
	if err != nil {
		return fmt.Errorf("encode extras: %w", err)
	}
	return s.Put(ctx, namespace, map[string]string{
		KeyCart:         string(raw),
		KeyActiveCafeID: strconv.FormatInt(h.CafeID, 10),
		KeySelectedDate: string(h.OrderDate),
		KeyExtras:       string(rawExtras),
	})
}

// Load reads the hand-off stored under namespace.
func Load(ctx context.Context, s Store, namespace string) (*Handoff, error) {
	values, err := s.Get(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}

	var h Handoff
	if err := json.Unmarshal([]byte(values[KeyCart]), &h.Cart); err != nil {
		return nil, fmt.Errorf("%w: cart: %w", ErrCorrupt, err)
	}
	for id, line := range h.Cart {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: cart: dish %d has quantity %d", ErrCorrupt, id, line.Quantity)
		}
	}
	if raw, ok := values[KeyExtras]; ok {
		if err := json.Unmarshal([]byte(raw), &h.Extras); err != nil {
			return nil, fmt.Errorf("%w: extras: %w", ErrCorrupt, err)
		}
	}
	h.CafeID, err = strconv.ParseInt(values[KeyActiveCafeID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: active_cafe_id: %w", ErrCorrupt, err)
	}
	h.OrderDate, err = availability.ParseDate(values[KeySelectedDate])
	if err != nil {
		return nil, fmt.Errorf("%w: selected_date: %w", ErrCorrupt, err)
	}
	return &h, nil
}

// Clear removes the hand-off stored under namespace.
func Clear(ctx context.Context, s Store, namespace string) error {
	return s.Delete(ctx, namespace)
}
