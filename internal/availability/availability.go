package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Errors returned by the resolver.
var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrUnknownDate  = errors.New("date is not in the availability window")
	ErrDateBlocked  = errors.New("ordering is closed for this date")
	ErrNotAvailable = errors.New("availability not loaded")
)

// Date is an ISO calendar date (YYYY-MM-DD) without time of day.
type Date string

// ParseDate validates s as an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(t.Format(dateLayout)), nil
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc != nil {
		now = now.In(loc)
	}
	return Date(now.Format(dateLayout))
}

// Time returns the date as midnight UTC.
func (d Date) Time() (time.Time, error) {
	return time.Parse(dateLayout, string(d))
}

func (d Date) String() string { return string(d) }

var weekdayLabels = [...]string{
	time.Sunday:    "воскресенье",
	time.Monday:    "понедельник",
	time.Tuesday:   "вторник",
	time.Wednesday: "среда",
	time.Thursday:  "четверг",
	time.Friday:    "пятница",
	time.Saturday:  "суббота",
}

// WeekdayLabel returns the display label for the date's weekday,
// or "" when the date does not parse.
func (d Date) WeekdayLabel() string {
	t, err := d.Time()
	if err != nil {
		return ""
	}
	return weekdayLabels[t.Weekday()]
}

// Day describes whether an order can be placed for one calendar date.
// Computed by the backend; the resolver does no deadline arithmetic.
type Day struct {
	Date     Date       `json:"date"`
	Weekday  string     `json:"weekday"`
	CanOrder bool       `json:"can_order"`
	Deadline *time.Time `json:"deadline"`
	Reason   *string    `json:"reason"`
}

// Select picks the order date for a window of days: today when it is
// orderable, else the earliest orderable date, else nil.
func Select(days []Day, today Date) *Date {
	sorted := make([]Day, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	for _, d := range sorted {
		if d.Date == today && d.CanOrder {
			sel := d.Date
			return &sel
		}
	}
	for _, d := range sorted {
		if d.CanOrder {
			sel := d.Date
			return &sel
		}
	}
	return nil
}
