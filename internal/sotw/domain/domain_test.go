package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLastFullWeekFromMidWeek(t *testing.T) {
	// Wednesday 2026-03-04 -> window Mon 2026-02-23 .. Mon 2026-03-02.
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	start, end := LastFullWeek(now)

	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 7*24*time.Hour, end.Sub(start))
}

func TestLastFullWeekOnMondayRollsOver(t *testing.T) {
	// Monday midnight already closes the previous week.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := LastFullWeek(monday)

	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, monday, end)

	// Later the same Monday the window is unchanged.
	start2, end2 := LastFullWeek(monday.Add(23 * time.Hour))
	assert.Equal(t, start, start2)
	assert.Equal(t, end, end2)
}

func TestLastFullWeekOnSunday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	start, end := LastFullWeek(sunday)

	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), end)
}
