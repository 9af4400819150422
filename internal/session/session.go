// Package session holds the ordering flow state of one mini-app visit: the
// active cafe, its cart, the day window and the price catalog.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/availability"
	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/JustIkra/tg-restorants-bot/internal/cart"
	"github.com/JustIkra/tg-restorants-bot/internal/checkout"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Errors returned by sessions and the manager.
var (
	ErrNotFound         = errors.New("session not found")
	ErrClosed           = errors.New("session closed")
	ErrNoCafe           = errors.New("no cafe selected")
	ErrInvalidCafe      = errors.New("invalid cafe_id")
	ErrCheckoutDisabled = errors.New("checkout is disabled")
)

// Fetcher loads per-cafe data from the backend.
// Satisfied by *backend.Client; narrow interface for testability.
type Fetcher interface {
	WeekAvailability(ctx context.Context, token string, cafeID int64) ([]availability.Day, error)
	Menu(ctx context.Context, token string, cafeID int64) ([]backend.MenuItem, error)
}

// View is a snapshot of the session with every derived value recomputed.
type View struct {
	ID               uuid.UUID          `json:"id"`
	CafeID           *int64             `json:"cafe_id"`
	Cart             cart.Cart          `json:"cart"`
	TotalItems       int                `json:"total_items"`
	TotalPrice       decimal.Decimal    `json:"total_price"`
	Days             []availability.Day `json:"days"`
	SelectedDate     *availability.Date `json:"selected_date"`
	Loading          bool               `json:"loading"`
	Error            string             `json:"error,omitempty"`
	NoAvailableDates bool               `json:"no_available_dates"`
	CheckoutDisabled bool               `json:"checkout_disabled"`
	DisabledReason   checkout.Reason    `json:"disabled_reason,omitempty"`
}

// Session is one user's ordering flow. It is created at flow entry and
// discarded at flow exit; all methods are safe for concurrent use.
type Session struct {
	ID     uuid.UUID
	UserID int64

	fetcher Fetcher
	logger  *zap.Logger

	mu       sync.Mutex
	cafeID   int64
	cart     cart.Cart
	catalog  backend.Catalog
	resolver *availability.Resolver
	fetchTok availability.Token
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup

	// lastSeen is guarded by the owning Manager's mutex.
	lastSeen time.Time
}

func newSession(userID int64, fetcher Fetcher, resolver *availability.Resolver, logger *zap.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		UserID:   userID,
		fetcher:  fetcher,
		logger:   logger.With(zap.String("session_id", id.String())),
		cart:     cart.Cart{},
		resolver: resolver,
	}
}

// SelectCafe makes cafeID the active cafe. The cart, catalog and day window
// of the previous cafe are cleared before SelectCafe returns; the new day
// window and menu are fetched in the background with the caller's token.
// A cafeID of 0 leaves the session without an active cafe.
func (s *Session) SelectCafe(cafeID int64, token string) error {
	if cafeID < 0 {
		return ErrInvalidCafe
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.stopFetchLocked()
	s.cafeID = cafeID
	s.cart = cart.Cart{}
	s.catalog = nil

	if cafeID == 0 {
		s.resolver.Reset()
		return nil
	}

	tok := s.resolver.Begin()
	s.fetchTok = tok
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fetch(ctx, tok, cafeID, token)
	}()
	return nil
}

func (s *Session) fetch(ctx context.Context, tok availability.Token, cafeID int64, token string) {
	var (
		days  []availability.Day
		items []backend.MenuItem
	)

	// A failed availability fetch cancels the menu fetch; a failed menu
	// fetch only costs the prices.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = s.fetcher.WeekAvailability(gctx, token, cafeID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.fetcher.Menu(gctx, token, cafeID)
		if err != nil && gctx.Err() == nil {
			s.logger.Warn("menu fetch failed, totals will omit prices",
				zap.Int64("cafe_id", cafeID), zap.Error(err))
		}
		return nil
	})
	daysErr := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok != s.fetchTok || ctx.Err() != nil {
		s.logger.Debug("discarding superseded cafe data", zap.Int64("cafe_id", cafeID))
		return
	}
	if daysErr != nil {
		s.logger.Warn("availability fetch failed", zap.Int64("cafe_id", cafeID), zap.Error(daysErr))
		daysErr = fmt.Errorf("load availability: %w", daysErr)
		days = nil
	}
	s.resolver.Apply(tok, days, daysErr)
	s.catalog = backend.NewCatalog(items)
}

func (s *Session) stopFetchLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// AddItem adds one unit of a dish. opts replaces the dish options only when
// non-nil.
func (s *Session) AddItem(id cart.DishID, opts cart.Options) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return View{}, err
	}
	s.cart = s.cart.Add(id, opts)
	return s.viewLocked(), nil
}

// RemoveItem removes one unit of a dish. Removing an absent dish is a no-op.
func (s *Session) RemoveItem(id cart.DishID) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return View{}, err
	}
	s.cart = s.cart.Remove(id)
	return s.viewLocked(), nil
}

// ChooseDate overrides the automatic selection with another orderable day.
func (s *Session) ChooseDate(date availability.Date) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return View{}, err
	}
	if err := s.resolver.Choose(date); err != nil {
		return View{}, err
	}
	return s.viewLocked(), nil
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	st := s.resolver.State()
	v := View{
		ID:               s.ID,
		Cart:             s.cart,
		TotalItems:       s.cart.TotalItems(),
		TotalPrice:       s.cart.TotalPrice(s.catalog.Price),
		Days:             st.Days,
		SelectedDate:     st.Selected,
		Loading:          st.Loading,
		NoAvailableDates: st.NoAvailableDates(),
	}
	if v.Days == nil {
		v.Days = []availability.Day{}
	}
	if s.cafeID != 0 {
		id := s.cafeID
		v.CafeID = &id
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	v.CheckoutDisabled, v.DisabledReason = checkout.Check(s.gateInputs(v))
	return v
}

func (s *Session) gateInputs(v View) checkout.Inputs {
	return checkout.Inputs{
		TotalItems:       v.TotalItems,
		SelectedDate:     v.SelectedDate,
		Loading:          v.Loading,
		NoAvailableDates: v.NoAvailableDates,
	}
}

// Handoff captures what the checkout view needs, including which dishes
// the active cafe's menu marks as extras. It refuses while the checkout
// action is disabled.
func (s *Session) Handoff() (handoff.Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return handoff.Handoff{}, err
	}

	v := s.viewLocked()
	if v.CheckoutDisabled {
		return handoff.Handoff{}, fmt.Errorf("%w: %s", ErrCheckoutDisabled, v.DisabledReason)
	}
	h := handoff.Handoff{
		CafeID:    s.cafeID,
		OrderDate: *v.SelectedDate,
		Cart:      s.cart,
	}
	for _, it := range s.cart.Items() {
		if s.catalog.IsExtra(it.DishID) {
			h.Extras = append(h.Extras, it.DishID)
		}
	}
	return h, nil
}

// ActiveCatalog returns the active cafe and its price catalog. The catalog
// is nil until the menu has loaded; cafeID is 0 without an active cafe.
func (s *Session) ActiveCatalog() (cafeID int64, catalog backend.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cafeID, s.catalog
}

// SetLocation makes loc decide the caller's "today" when the day window
// loads. Call it before SelectCafe.
func (s *Session) SetLocation(loc *time.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.resolver.SetLocation(loc)
	return nil
}

// Close ends the flow: the in-flight fetch is cancelled and awaited, and
// every later call fails with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopFetchLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.cafeID == 0 {
		return ErrNoCafe
	}
	return nil
}
