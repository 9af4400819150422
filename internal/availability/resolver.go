package availability

import (
	"fmt"
	"time"
)

// Token identifies one availability request. Only the most recent token
// may write results into the resolver.
type Token uint64

// State is the resolver output for the active cafe.
type State struct {
	Days     []Day
	Selected *Date
	Loading  bool
	Err      error
}

// NoAvailableDates reports that settled data says nothing is orderable,
// as opposed to data that has not arrived yet.
func (s State) NoAvailableDates() bool {
	if len(s.Days) == 0 || s.Loading || s.Err != nil {
		return false
	}
	for _, d := range s.Days {
		if d.CanOrder {
			return false
		}
	}
	return true
}

// Resolver tracks the day window and selected date for one ordering
// session. It is not safe for concurrent use; the owning session
// serializes access.
type Resolver struct {
	now   func() time.Time
	loc   *time.Location
	gen    Token
	state  State
	loaded bool
}

// NewResolver creates a Resolver. now defaults to time.Now and loc to
// time.Local.
func NewResolver(now func() time.Time, loc *time.Location) *Resolver {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{now: now, loc: loc}
}

// SetLocation changes the zone that decides which calendar day is today.
// It applies from the next Apply on.
func (r *Resolver) SetLocation(loc *time.Location) {
	if loc != nil {
		r.loc = loc
	}
}

// Begin starts a new request generation. The previous day list and
// selection are cleared immediately so a stale cafe's dates never show.
func (r *Resolver) Begin() Token {
	r.gen++
	r.state = State{Loading: true}
	r.loaded = false
	return r.gen
}

// Apply stores the outcome of the request identified by tok. Responses
// for superseded tokens are discarded and Apply returns false.
func (r *Resolver) Apply(tok Token, days []Day, err error) bool {
	if tok != r.gen || !r.state.Loading {
		return false
	}
	if err != nil {
		r.state = State{Err: err}
		return true
	}

	stored := make([]Day, len(days))
	for i, d := range days {
		if d.Weekday == "" {
			d.Weekday = d.Date.WeekdayLabel()
		}
		stored[i] = d
	}
	r.state = State{
		Days:     stored,
		Selected: Select(stored, Today(r.now(), r.loc)),
	}
	r.loaded = true
	return true
}

// Reset empties the resolver when no cafe is active. In-flight requests
// are invalidated.
func (r *Resolver) Reset() {
	r.gen++
	r.state = State{}
	r.loaded = false
}

// Choose overrides the selection with another orderable day from the
// current window. It fails with ErrNotAvailable until a window has loaded.
func (r *Resolver) Choose(date Date) error {
	if !r.loaded || r.state.Err != nil {
		return ErrNotAvailable
	}
	for _, d := range r.state.Days {
		if d.Date != date {
			continue
		}
		if !d.CanOrder {
			if d.Reason != nil && *d.Reason != "" {
				return fmt.Errorf("%w: %s", ErrDateBlocked, *d.Reason)
			}
			return ErrDateBlocked
		}
		sel := d.Date
		r.state.Selected = &sel
		return nil
	}
	return ErrUnknownDate
}

// State returns a copy of the current state.
func (r *Resolver) State() State {
	s := r.state
	if s.Days != nil {
		s.Days = append([]Day(nil), s.Days...)
	}
	if s.Selected != nil {
		sel := *s.Selected
		s.Selected = &sel
	}
	return s
}
