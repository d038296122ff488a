package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kst(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestRecentTradingDate(t *testing.T) {
	loc := kst(t)

	// Wednesday 10:00: today's data is available.
	wed := time.Date(2025, 1, 15, 10, 0, 0, 0, loc)
	assert.Equal(t, "20250115", RecentTradingDate(wed))

	// Wednesday 08:00: yesterday is the latest trading day.
	early := time.Date(2025, 1, 15, 8, 0, 0, 0, loc)
	assert.Equal(t, "20250114", RecentTradingDate(early))

	// Sunday rolls back to Friday.
	sun := time.Date(2025, 1, 19, 12, 0, 0, 0, loc)
	assert.Equal(t, "20250117", RecentTradingDate(sun))

	// Monday before open rolls back through the weekend.
	monEarly := time.Date(2025, 1, 20, 7, 0, 0, 0, loc)
	assert.Equal(t, "20250117", RecentTradingDate(monEarly))
}

func TestIsMarketHours(t *testing.T) {
	loc := kst(t)

	assert.True(t, IsMarketHours(time.Date(2025, 1, 15, 9, 0, 0, 0, loc)))
	assert.True(t, IsMarketHours(time.Date(2025, 1, 15, 15, 30, 0, 0, loc)))
	assert.False(t, IsMarketHours(time.Date(2025, 1, 15, 15, 31, 0, 0, loc)))
	assert.False(t, IsMarketHours(time.Date(2025, 1, 15, 8, 59, 0, 0, loc)))
	assert.False(t, IsMarketHours(time.Date(2025, 1, 18, 10, 0, 0, 0, loc))) // Saturday
}

func TestIsWeekday(t *testing.T) {
	loc := kst(t)
	assert.True(t, IsWeekday(time.Date(2025, 1, 15, 0, 0, 0, 0, loc)))
	assert.False(t, IsWeekday(time.Date(2025, 1, 18, 0, 0, 0, 0, loc)))
	assert.False(t, IsWeekday(time.Date(2025, 1, 19, 0, 0, 0, 0, loc)))
}
