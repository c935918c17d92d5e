package domain

import "fmt"

// Recurrence describes how a fixed obligation repeats.
type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// ParseRecurrence validates a recurrence value.
func ParseRecurrence(s string) (Recurrence, error) {
	r := Recurrence(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, s)
	}
	return r, nil
}

func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

func (r Recurrence) String() string { return string(r) }
