package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateSundayClosed(t *testing.T) {
	// Several Sundays across the year.
	for _, d := range []time.Time{
		date(2026, time.August, 30),
		date(2026, time.January, 4),
		date(2025, time.December, 28),
	} {
		require.Equal(t, time.Sunday, d.Weekday())
		assert.Empty(t, Generate(d))
	}
}

func TestGenerateSaturdayShortDay(t *testing.T) {
	d := date(2026, time.August, 29)
	require.Equal(t, time.Saturday, d.Weekday())

	got := Generate(d)
	require.Len(t, got, 12)
	assert.Equal(t, "08:00", got[0].Value)
	assert.Equal(t, "8:00 AM", got[0].Label)
	assert.Equal(t, "13:30", got[len(got)-1].Value)
	assert.Equal(t, "1:30 PM", got[len(got)-1].Label)
}

func TestGenerateWeekday(t *testing.T) {
	d := date(2026, time.August, 28) // Friday
	got := Generate(d)

	require.NotEmpty(t, got)
	assert.Equal(t, "08:00", got[0].Value)
	assert.Equal(t, "19:30", got[len(got)-1].Value)
	assert.Len(t, got, 24)

	// Every slot minute is :00 or :30 and values are strictly ascending.
	for i, s := range got {
		min := s.Value[3:]
		assert.Contains(t, []string{"00", "30"}, min, "slot %s", s.Value)
		if i > 0 {
			assert.Greater(t, s.Value, got[i-1].Value)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	d := date(2026, time.September, 1)
	assert.Equal(t, Generate(d), Generate(d))
}

func TestGenerateZeroDate(t *testing.T) {
	assert.Empty(t, Generate(time.Time{}))
}

func TestGenerateNoonLabel(t *testing.T) {
	got := Generate(date(2026, time.September, 2))
	var noon *Slot
	for i := range got {
		if got[i].Value == "12:00" {
			noon = &got[i]
		}
	}
	require.NotNil(t, noon)
	assert.Equal(t, "12:00 PM", noon.Label)
}

func TestContains(t *testing.T) {
	got := Generate(date(2026, time.September, 2))
	assert.True(t, Contains(got, "09:30"))
	assert.False(t, Contains(got, "07:30"))
	assert.False(t, Contains(got, "20:00"))
	assert.False(t, Contains(got, "09:15"))
}

func TestValidStart(t *testing.T) {
	assert.True(t, ValidStart(time.Date(2026, time.September, 2, 9, 30, 0, 0, time.UTC)))
	assert.False(t, ValidStart(time.Date(2026, time.September, 2, 9, 45, 0, 0, time.UTC)))
	// Saturday afternoon past close.
	assert.False(t, ValidStart(time.Date(2026, time.August, 29, 15, 0, 0, 0, time.UTC)))
	// Sunday.
	assert.False(t, ValidStart(time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)))
	// Stray seconds do not count as a slot start.
	assert.False(t, ValidStart(time.Date(2026, time.September, 2, 9, 30, 45, 0, time.UTC)))
}
