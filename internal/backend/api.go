package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/availability"
	"github.com/JustIkra/tg-restorants-bot/internal/cart"
	"github.com/shopspring/decimal"
)

// CategoryExtra marks à-la-carte add-ons in the menu.
const CategoryExtra = "extra"

// MenuItem is a dish from a cafe menu. Price is nil for combo-only dishes.
type MenuItem struct {
	ID          cart.DishID      `json:"id"`
	CafeID      int64            `json:"cafe_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Category    string           `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable bool             `json:"is_available"`
}

// OrderItem is a cart line submitted with an order.
type OrderItem struct {
	MenuItemID cart.DishID  `json:"menu_item_id"`
	Quantity   int          `json:"quantity"`
	Options    cart.Options `json:"options,omitempty"`
}

// OrderExtra is an add-on submitted with an order.
type OrderExtra struct {
	MenuItemID cart.DishID `json:"menu_item_id"`
	Quantity   int         `json:"quantity"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	CafeID    int64             `json:"cafe_id"`
	OrderDate availability.Date `json:"order_date"`
	Items     []OrderItem       `json:"items"`
	Extras    []OrderExtra      `json:"extras,omitempty"`
	Notes     string            `json:"notes,omitempty"`
}

// Order is the backend's view of a placed order.
type Order struct {
	ID         int64             `json:"id"`
	UserTGID   int64             `json:"user_tgid"`
	CafeID     int64             `json:"cafe_id"`
	OrderDate  availability.Date `json:"order_date"`
	Status     string            `json:"status"`
	Notes      *string           `json:"notes"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	CreatedAt  time.Time         `json:"created_at"`
}

type weekAvailabilityResponse struct {
	CafeID       int64              `json:"cafe_id"`
	Availability []availability.Day `json:"availability"`
}

// WeekAvailability fetches the rolling order-eligibility window for a cafe.
func (c *Client) WeekAvailability(ctx context.Context, token string, cafeID int64) ([]availability.Day, error) {
	var resp weekAvailabilityResponse
	q := url.Values{"cafe_id": {strconv.FormatInt(cafeID, 10)}}
	if err := c.do(ctx, http.MethodGet, "/orders/availability/week", q, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Availability, nil
}

// Menu fetches every menu item of a cafe, extras included.
func (c *Client) Menu(ctx context.Context, token string, cafeID int64) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cafes/%d/menu", cafeID), nil, token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateOrder places an order. Deadline and pricing rejections come back
// as *APIError.
func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, token, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteCafe removes a cafe.
func (c *Client) DeleteCafe(ctx context.Context, token string, cafeID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cafes/%d", cafeID), nil, token, nil, nil)
}

// DeleteCombo removes a combo from a cafe.
func (c *Client) DeleteCombo(ctx context.Context, token string, cafeID, comboID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cafes/%d/combos/%d", cafeID, comboID), nil, token, nil, nil)
}

// DeleteMenuItem removes a dish from a cafe menu.
func (c *Client) DeleteMenuItem(ctx context.Context, token string, cafeID, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cafes/%d/menu/%d", cafeID, itemID), nil, token, nil, nil)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, token string, tgid int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", tgid), nil, token, nil, nil)
}

// Catalog indexes a cafe menu by dish.
type Catalog map[cart.DishID]MenuItem

// NewCatalog builds a Catalog from menu items.
func NewCatalog(items []MenuItem) Catalog {
	c := make(Catalog, len(items))
	for _, it := range items {
		c[it.ID] = it
	}
	return c
}

// Price resolves a dish price. Unknown dishes and dishes without a
// standalone price are misses. Usable as a cart.PriceLookup.
func (c Catalog) Price(id cart.DishID) (decimal.Decimal, bool) {
	it, ok := c[id]
	if !ok || it.Price == nil {
		return decimal.Zero, false
	}
	return *it.Price, true
}

// IsExtra reports whether the dish is an add-on.
func (c Catalog) IsExtra(id cart.DishID) bool {
	return c[id].Category == CategoryExtra
}
