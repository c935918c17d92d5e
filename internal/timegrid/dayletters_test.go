package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayFromLetter(t *testing.T) {
	tests := []struct {
		letter   string
		expected time.Weekday
	}{
		{"M", time.Monday},
		{"T", time.Tuesday},
		{"W", time.Wednesday},
		{"R", time.Thursday},
		{"F", time.Friday},
		{"S", time.Saturday},
		{"U", time.Sunday},
		{"m", time.Monday},
		{" r ", time.Thursday},
	}

	for _, tt := range tests {
		wd, err := WeekdayFromLetter(tt.letter)
		require.NoError(t, err, tt.letter)
		assert.Equal(t, tt.expected, wd)
	}

	_, err := WeekdayFromLetter("X")
	assert.Error(t, err)
	_, err = WeekdayFromLetter("MW")
	assert.Error(t, err)
}

func TestParseDayPattern(t *testing.T) {
	days, err := ParseDayPattern("MWF")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)

	days, err = ParseDayPattern("tr")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Thursday}, days)

	_, err = ParseDayPattern("")
	assert.Error(t, err)
	_, err = ParseDayPattern("MXF")
	assert.Error(t, err)
}

func TestFormatDayPattern_RoundTrip(t *testing.T) {
	pattern := "MTWRFSU"
	days, err := ParseDayPattern(pattern)
	require.NoError(t, err)
	assert.Equal(t, pattern, FormatDayPattern(days))
}

func TestParseWeekdayName(t *testing.T) {
	wd, err := ParseWeekdayName("monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)

	_, err = ParseWeekdayName("Mondayy")
	assert.Error(t, err)
}
