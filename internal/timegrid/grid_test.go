package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	_, err := New(start, 24*time.Hour, 45)
	assert.ErrorIs(t, err, ErrInvalidSlotMinutes)

	_, err = New(start, 0, 30)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestGrid_SlotsRoundTrip(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	g, err := New(start, 48*time.Hour, 30)
	require.NoError(t, err)

	require.Equal(t, 96, g.Count())
	for i, slot := range g.Slots() {
		assert.Equal(t, i, g.Index(slot))
	}
}

func TestGrid_FloorsStartToSlotBoundary(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 17, 42, 0, time.UTC)
	g, err := New(start, 24*time.Hour, 30)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), g.Start())
}

func TestGrid_Index(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	g, err := New(start, 24*time.Hour, 60)
	require.NoError(t, err)

	assert.Equal(t, 10, g.Index(time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10, g.Index(time.Date(2024, 6, 3, 10, 59, 0, 0, time.UTC)))
	assert.Equal(t, -1, g.Index(time.Date(2024, 6, 2, 23, 30, 0, 0, time.UTC)))
	assert.Equal(t, 11, g.IndexCeil(time.Date(2024, 6, 3, 10, 1, 0, 0, time.UTC)))
}

func TestGrid_DayOf(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	g, err := New(start, 72*time.Hour, 30)
	require.NoError(t, err)

	assert.Equal(t, 0, g.DayOf(0))
	assert.Equal(t, 0, g.DayOf(47))
	assert.Equal(t, 1, g.DayOf(48))
	assert.Equal(t, 2, g.DayOf(120))
}

func TestWeekday_MondayZero(t *testing.T) {
	mon := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	sun := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, Weekday(mon))
	assert.Equal(t, 6, Weekday(sun))
}

func TestSlotKey(t *testing.T) {
	instant := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "Monday-14", SlotKey(instant))
	assert.Equal(t, "Sunday-9", SlotKeyFor(time.Sunday, 9))
}
