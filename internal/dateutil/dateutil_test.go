package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddDays(t *testing.T) {
	base := time.Date(2025, 3, 10, 15, 42, 0, 0, time.UTC)

	got := AddDays(base, 90)
	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), got)

	// Negative offsets walk backwards.
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), AddDays(base, -1))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 1, 6, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 5, DaysBetween(a, b))
	assert.Equal(t, -5, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 7, 4, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 7, 4, 23, 59, 59, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.Add(time.Second)))
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFixedClock(start)
	assert.Equal(t, start, clk.Now())

	clk.Advance(48 * time.Hour)
	assert.Equal(t, start.Add(48*time.Hour), clk.Now())
}
