package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/studora/studora/internal/planning/domain"
)

// Horizon caps applied when an obligation has no end date.
const (
	weeklyHorizonPeriods  = 26
	monthlyHorizonPeriods = 6
)

// RecurrenceExpander materializes calendar events from fixed-obligation
// templates. Regeneration is idempotent modulo event ids: an unchanged
// template always yields the same occurrence instants.
type RecurrenceExpander struct {
	events domain.CalendarEventRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewRecurrenceExpander creates an expander over the given event store.
func NewRecurrenceExpander(events domain.CalendarEventRepository, logger *slog.Logger) *RecurrenceExpander {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurrenceExpander{
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the expander clock, for tests.
func (e *RecurrenceExpander) WithNow(now func() time.Time) *RecurrenceExpander {
	e.now = now
	return e
}

// Occurrences computes the occurrence dates of the obligation, one rule per
// listed weekday so each weekday steps independently of the others.
func (e *RecurrenceExpander) Occurrences(obligation *domain.FixedObligation) ([]time.Time, error) {
	base := midnightUTC(obligation.StartDate())

	var until time.Time
	if end := obligation.EndDate(); end != nil {
		until = midnightUTC(*end).Add(24*time.Hour - time.Second)
	}

	var dates []time.Time
	for _, day := range obligation.DaysOfWeek() {
		first := firstOnOrAfter(base, day)

		opt := rrule.ROption{
			Dtstart: first,
		}
		switch obligation.Recurrence() {
		case domain.RecurrenceWeekly:
			opt.Freq = rrule.WEEKLY
			opt.Interval = 1
			if until.IsZero() {
				opt.Count = weeklyHorizonPeriods
			}
		case domain.RecurrenceBiweekly:
			opt.Freq = rrule.WEEKLY
			opt.Interval = 2
			if until.IsZero() {
				opt.Count = weeklyHorizonPeriods
			}
		case domain.RecurrenceMonthly:
			// Keep the nth-weekday-of-month slot of the first occurrence.
			nth := (first.Day()-1)/7 + 1
			opt.Freq = rrule.MONTHLY
			opt.Interval = 1
			wd := rruleWeekday(day)
			opt.Byweekday = []rrule.Weekday{wd.Nth(nth)}
			if until.IsZero() {
				opt.Count = monthlyHorizonPeriods
			}
		default:
			return nil, fmt.Errorf("%w: unknown recurrence %q", domain.ErrInvalidInput, obligation.Recurrence())
		}
		if !until.IsZero() {
			opt.Until = until
		}

		rule, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, fmt.Errorf("%w: building recurrence rule: %v", domain.ErrInvalidInput, err)
		}
		dates = append(dates, rule.All()...)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Materialize builds the calendar events for every occurrence, combining the
// occurrence date with the template's time-of-day window.
func (e *RecurrenceExpander) Materialize(obligation *domain.FixedObligation) ([]*domain.CalendarEvent, error) {
	dates, err := e.Occurrences(obligation)
	if err != nil {
		return nil, err
	}

	events := make([]*domain.CalendarEvent, 0, len(dates))
	for _, date := range dates {
		ev, err := domain.NewCalendarEvent(
			obligation.StudentID(),
			domain.FixedRef(obligation.ID()),
			obligation.StartTime().On(date),
			obligation.EndTime().On(date),
			obligation.Priority(),
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Regenerate deletes the obligation's future events and re-materializes the
// template from scratch. Past events are left untouched. The caller is
// expected to run this inside a unit of work.
func (e *RecurrenceExpander) Regenerate(ctx context.Context, obligation *domain.FixedObligation) (int, error) {
	now := e.now()

	deleted, err := e.events.DeleteFutureByRef(ctx, domain.FixedRef(obligation.ID()), now)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting future occurrences: %v", domain.ErrPersistence, err)
	}

	all, err := e.Materialize(obligation)
	if err != nil {
		return 0, err
	}

	future := make([]*domain.CalendarEvent, 0, len(all))
	for _, ev := range all {
		if !ev.StartTime().Before(now) {
			future = append(future, ev)
		}
	}
	if err := e.events.SaveBatch(ctx, future); err != nil {
		return 0, fmt.Errorf("%w: saving occurrences: %v", domain.ErrPersistence, err)
	}

	e.logger.Debug("regenerated fixed obligation occurrences",
		"obligation_id", obligation.ID(),
		"deleted", deleted,
		"created", len(future),
	)

	return len(future), nil
}

// RemoveAll cascade-deletes every event of the obligation.
func (e *RecurrenceExpander) RemoveAll(ctx context.Context, obligation *domain.FixedObligation) error {
	if _, err := e.events.DeleteByRef(ctx, domain.FixedRef(obligation.ID())); err != nil {
		return fmt.Errorf("%w: deleting occurrences: %v", domain.ErrPersistence, err)
	}
	return nil
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func firstOnOrAfter(base time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(base.Weekday()) + 7) % 7
	return base.AddDate(0, 0, offset)
}

func rruleWeekday(day time.Weekday) rrule.Weekday {
	switch day {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
