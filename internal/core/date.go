package core

import (
	"time"
)

// Date is a day-granular calendar date. Billing cycles never need
// time-of-day, so every Date is normalized to midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day. The values are
// normalized the way time.Date does (month 13 rolls into the next year).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds a date from year, month and day, clamping the day to
// the last valid day of the month instead of rolling over (Feb 31 -> Feb 28).
// Month overflow is still normalized first (month 13 -> January next year).
func ClampedDate(year, month, day int) Date {
	// Normalize the month via the first of the month, then clamp the day.
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	y, m, _ := first.Date()
	if max := DaysInMonth(y, int(m)); day > max {
		day = max
	}
	if day < 1 {
		day = 1
	}
	return NewDate(y, int(m), day)
}

// AddMonths advances the date by n calendar months, clamping the day to the
// target month's length (Jan 31 + 1 month -> Feb 28/29).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	return ClampedDate(y, int(m)+n, day)
}

// AddDays advances the date by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO renders the date as YYYY-MM-DD, the wire format for all dates.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Validate checks the date is set and within calendar ranges.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether two dates are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}
