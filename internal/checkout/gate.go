// Package checkout decides whether the checkout action is available.
package checkout

import "github.com/JustIkra/tg-restorants-bot/internal/availability"

// Reason names the first condition blocking checkout.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonEmptyCart      Reason = "empty_cart"
	ReasonNoDate         Reason = "no_date_selected"
	ReasonLoading        Reason = "availability_loading"
	ReasonNoAvailability Reason = "no_available_dates"
)

// Inputs are the independent pieces of state the gate combines.
type Inputs struct {
	TotalItems       int
	SelectedDate     *availability.Date
	Loading          bool
	NoAvailableDates bool
}

// Check returns whether checkout is disabled and, if so, why.
func Check(in Inputs) (disabled bool, reason Reason) {
	switch {
	case in.TotalItems == 0:
		return true, ReasonEmptyCart
	case in.Loading:
		return true, ReasonLoading
	case in.NoAvailableDates:
		return true, ReasonNoAvailability
	case in.SelectedDate == nil:
		return true, ReasonNoDate
	}
	return false, ReasonNone
}

// Disabled is the single enable/disable decision for the checkout action.
func Disabled(in Inputs) bool {
	disabled, _ := Check(in)
	return disabled
}
