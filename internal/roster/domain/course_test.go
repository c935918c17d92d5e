package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planningDomain "github.com/studora/studora/internal/planning/domain"
)

func mustClock(t *testing.T, s string) planningDomain.TimeOfDay {
	t.Helper()
	tod, err := ParseBannerClock(s)
	require.NoError(t, err)
	return tod
}

func TestParseBannerClock(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{input: "0930", hour: 9, minute: 30},
		{input: "1100", hour: 11, minute: 0},
		{input: "1215", hour: 12, minute: 15},
		{input: " 0800 ", hour: 8, minute: 0},
		{input: "2500", wantErr: true},
		{input: "930", wantErr: true},
		{input: ".", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tod, err := ParseBannerClock(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, tod.Hour())
			assert.Equal(t, tt.minute, tod.Minute())
		})
	}
}

func TestMeetingTimeWeekdays(t *testing.T) {
	mt := MeetingTime{Days: "MWF", StartTime: mustClock(t, "1100"), EndTime: mustClock(t, "1215")}

	days, err := mt.Weekdays()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)
}

func TestNewCourseValidation(t *testing.T) {
	timetable := Timetable{Times: []MeetingTime{{
		Days:      "TR",
		StartTime: mustClock(t, "0930"),
		EndTime:   mustClock(t, "1045"),
	}}}

	course, err := NewCourse("EECE 503", "Software Tools", 30014, 1, 3, "A. Ghanem", "Summer 2024-2025", timetable)
	require.NoError(t, err)
	assert.Equal(t, 30014, course.CRN())
	assert.Len(t, course.Timetable().Times, 1)

	_, err = NewCourse("", "Software Tools", 30014, 1, 3, "", "Summer 2024-2025", timetable)
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)

	_, err = NewCourse("EECE 503", "Software Tools", 0, 1, 3, "", "Summer 2024-2025", timetable)
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)

	inverted := Timetable{Times: []MeetingTime{{
		Days:      "M",
		StartTime: mustClock(t, "1100"),
		EndTime:   mustClock(t, "1000"),
	}}}
	_, err = NewCourse("EECE 503", "Software Tools", 30014, 1, 3, "", "Summer 2024-2025", inverted)
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)

	badDays := Timetable{Times: []MeetingTime{{
		Days:      "MX",
		StartTime: mustClock(t, "1000"),
		EndTime:   mustClock(t, "1100"),
	}}}
	_, err = NewCourse("EECE 503", "Software Tools", 30014, 1, 3, "", "Summer 2024-2025", badDays)
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)
}

func TestNewStudentValidation(t *testing.T) {
	student, err := NewStudent("Lina Haddad", "LINA@university.edu", "CSE", 3)
	require.NoError(t, err)
	assert.Equal(t, "lina@university.edu", student.Email())

	_, err = NewStudent("", "lina@university.edu", "CSE", 3)
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)

	_, err = NewStudent("Lina Haddad", "not-an-email", "CSE", 3)
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)
}
