package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ResolveStudentID returns the acting student: the --student flag when set,
// otherwise the identity configured via STUDORA_STUDENT_ID.
func ResolveStudentID(flagValue string) (uuid.UUID, error) {
	if flagValue != "" {
		id, err := uuid.Parse(flagValue)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: invalid student id %q", planningDomain.ErrInvalidInput, flagValue)
		}
		return id, nil
	}
	a := GetApp()
	if a == nil || a.CurrentStudentID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: no student configured (set STUDORA_STUDENT_ID or pass --student)", planningDomain.ErrInvalidInput)
	}
	return a.CurrentStudentID, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (use YYYY-MM-DD)", planningDomain.ErrInvalidInput, s)
	}
	return parsed.UTC(), nil
}

// ParseDateTime parses a timestamp, accepting RFC3339 or "YYYY-MM-DD HH:MM".
func ParseDateTime(s string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse("2006-01-02 15:04", s); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q (use RFC3339 or \"YYYY-MM-DD HH:MM\")", planningDomain.ErrInvalidInput, s)
}

// ParseWeekdays parses a comma-separated weekday list such as "mon,wed,fri".
func ParseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", planningDomain.ErrInvalidInput, part)
		}
		days = append(days, day)
	}
	return days, nil
}
