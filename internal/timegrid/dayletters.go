package timegrid

import (
	"fmt"
	"strings"
	"time"
)

// Day-letter codec for compact timetable patterns: M T W R F S U.

var letterToWeekday = map[rune]time.Weekday{
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
	'U': time.Sunday,
}

var weekdayToLetter = map[time.Weekday]string{
	time.Monday:    "M",
	time.Tuesday:   "T",
	time.Wednesday: "W",
	time.Thursday:  "R",
	time.Friday:    "F",
	time.Saturday:  "S",
	time.Sunday:    "U",
}

// WeekdayFromLetter decodes a single day letter.
func WeekdayFromLetter(letter string) (time.Weekday, error) {
	runes := []rune(strings.ToUpper(strings.TrimSpace(letter)))
	if len(runes) != 1 {
		return 0, fmt.Errorf("invalid day letter %q", letter)
	}
	wd, ok := letterToWeekday[runes[0]]
	if !ok {
		return 0, fmt.Errorf("unknown day letter %q", letter)
	}
	return wd, nil
}

// LetterForWeekday encodes a weekday as its day letter.
func LetterForWeekday(day time.Weekday) string {
	return weekdayToLetter[day]
}

// ParseDayPattern decodes a compact pattern such as "MWF" into weekdays,
// preserving order and rejecting unknown letters.
func ParseDayPattern(pattern string) ([]time.Weekday, error) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return nil, fmt.Errorf("empty day pattern")
	}
	days := make([]time.Weekday, 0, len(trimmed))
	for _, r := range strings.ToUpper(trimmed) {
		wd, ok := letterToWeekday[r]
		if !ok {
			return nil, fmt.Errorf("unknown day letter %q in pattern %q", string(r), pattern)
		}
		days = append(days, wd)
	}
	return days, nil
}

// FormatDayPattern encodes weekdays as a compact letter pattern.
func FormatDayPattern(days []time.Weekday) string {
	var b strings.Builder
	for _, d := range days {
		b.WriteString(weekdayToLetter[d])
	}
	return b.String()
}

// ParseWeekdayName decodes a full weekday name ("Monday") case-insensitively.
func ParseWeekdayName(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), strings.TrimSpace(name)) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday name %q", name)
}
