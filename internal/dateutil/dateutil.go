package dateutil

import "time"

// Clock abstracts "now" so ticks and due calculations can be driven with
// arbitrary dates in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock, in UTC.
func SystemClock() Clock { return systemClock{} }

// FixedClock is a Clock pinned to a single instant. Advance moves it.
type FixedClock struct {
	Current time.Time
}

func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{Current: t} }

func (c *FixedClock) Now() time.Time { return c.Current }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// DateOf truncates t to midnight UTC of the same calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days after t, normalized to midnight.
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole calendar days from a to b
// (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
