package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/studora/internal/planning/domain"
)

type memEventRepo struct {
	events map[uuid.UUID]*domain.CalendarEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[uuid.UUID]*domain.CalendarEvent)}
}

func (r *memEventRepo) Save(_ context.Context, ev *domain.CalendarEvent) error {
	r.events[ev.ID()] = ev
	return nil
}

func (r *memEventRepo) SaveBatch(ctx context.Context, events []*domain.CalendarEvent) error {
	for _, ev := range events {
		if err := r.Save(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *memEventRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.CalendarEvent, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (r *memEventRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]*domain.CalendarEvent, error) {
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if ev.StudentID() == studentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memEventRepo) FindByStudentInRange(_ context.Context, studentID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if ev.StudentID() == studentID && ev.StartTime().Before(to) && !ev.EndTime().Before(from) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memEventRepo) DeleteFutureByRef(_ context.Context, ref domain.EventRef, cutoff time.Time) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.Ref() == ref && !ev.StartTime().Before(cutoff) {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *memEventRepo) DeleteByRef(_ context.Context, ref domain.EventRef) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.Ref() == ref {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *memEventRepo) DeleteByRefForStudent(_ context.Context, ref domain.EventRef, studentID uuid.UUID) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.Ref() == ref && ev.StudentID() == studentID {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *memEventRepo) DeletePlaceableByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.StudentID() == studentID && ev.IsPlaceable() {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *memEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.events, id)
	return nil
}

func mustTimeOfDay(t *testing.T, hour, minute int) domain.TimeOfDay {
	t.Helper()
	tod, err := domain.NewTimeOfDay(hour, minute)
	require.NoError(t, err)
	return tod
}

func weeklyObligation(t *testing.T, days []time.Weekday, start time.Time, end *time.Time, rec domain.Recurrence) *domain.FixedObligation {
	t.Helper()
	ob, err := domain.NewFixedObligation(
		uuid.New(), "algorithms lecture", "",
		mustTimeOfDay(t, 10, 0), mustTimeOfDay(t, 11, 30),
		days, start, end, rec, 2, nil,
	)
	require.NoError(t, err)
	return ob
}

func newTestExpander(repo domain.CalendarEventRepository, now time.Time) *RecurrenceExpander {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecurrenceExpander(repo, logger).WithNow(func() time.Time { return now })
}

func TestOccurrencesWeekly(t *testing.T) {
	// Monday 2026-01-05; window through Sunday 2026-01-25 covers three weeks.
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 20)
	ob := weeklyObligation(t, []time.Weekday{time.Monday, time.Wednesday}, start, &end, domain.RecurrenceWeekly)

	e := newTestExpander(newMemEventRepo(), start)
	dates, err := e.Occurrences(ob)
	require.NoError(t, err)

	require.Len(t, dates, 6)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, start.AddDate(0, 0, 2), dates[1], "first Wednesday")
	for _, d := range dates {
		day := d.Weekday()
		assert.True(t, day == time.Monday || day == time.Wednesday)
	}
}

func TestOccurrencesBiweeklyStepsPerWeekday(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // Monday
	end := start.AddDate(0, 0, 27)
	ob := weeklyObligation(t, []time.Weekday{time.Monday}, start, &end, domain.RecurrenceBiweekly)

	e := newTestExpander(newMemEventRepo(), start)
	dates, err := e.Occurrences(ob)
	require.NoError(t, err)

	require.Len(t, dates, 2)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, start.AddDate(0, 0, 14), dates[1])
}

func TestOccurrencesOpenEndedCapped(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	ob := weeklyObligation(t, []time.Weekday{time.Friday}, start, nil, domain.RecurrenceWeekly)

	e := newTestExpander(newMemEventRepo(), start)
	dates, err := e.Occurrences(ob)
	require.NoError(t, err)

	assert.Len(t, dates, weeklyHorizonPeriods)
}

func TestOccurrencesMonthlyKeepsNthWeekday(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // first Monday of January
	end := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
	ob := weeklyObligation(t, []time.Weekday{time.Monday}, start, &end, domain.RecurrenceMonthly)

	e := newTestExpander(newMemEventRepo(), start)
	dates, err := e.Occurrences(ob)
	require.NoError(t, err)

	require.Len(t, dates, 3)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC), dates[1], "first Monday of February")
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), dates[2], "first Monday of March")
}

func TestMaterializeCombinesTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	ob := weeklyObligation(t, []time.Weekday{time.Monday}, start, &end, domain.RecurrenceWeekly)

	e := newTestExpander(newMemEventRepo(), start)
	events, err := e.Materialize(ob)
	require.NoError(t, err)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, start.Add(10*time.Hour), ev.StartTime())
	assert.Equal(t, start.Add(11*time.Hour+30*time.Minute), ev.EndTime())
	assert.Equal(t, domain.EventFixedObligation, ev.Type())
	assert.Equal(t, ob.ID(), ev.Ref().ID)
	assert.Equal(t, 2, ev.Priority())
}

func TestRegeneratePreservesPastEvents(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 20)
	ob := weeklyObligation(t, []time.Weekday{time.Monday}, start, &end, domain.RecurrenceWeekly)

	repo := newMemEventRepo()
	now := start.AddDate(0, 0, 7) // second Monday

	// Seed a stale future event and a past one belonging to the obligation.
	past, err := domain.NewCalendarEvent(ob.StudentID(), domain.FixedRef(ob.ID()),
		start.Add(10*time.Hour), start.Add(11*time.Hour), 2)
	require.NoError(t, err)
	stale, err := domain.NewCalendarEvent(ob.StudentID(), domain.FixedRef(ob.ID()),
		now.Add(15*time.Hour), now.Add(16*time.Hour), 2)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), past))
	require.NoError(t, repo.Save(context.Background(), stale))

	e := newTestExpander(repo, now)
	created, err := e.Regenerate(context.Background(), ob)
	require.NoError(t, err)

	assert.Equal(t, 2, created, "second and third Mondays are regenerated")

	_, err = repo.FindByID(context.Background(), past.ID())
	assert.NoError(t, err, "past occurrence survives regeneration")
	_, err = repo.FindByID(context.Background(), stale.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound, "stale future occurrence is replaced")
}

func TestRemoveAllCascades(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 13)
	ob := weeklyObligation(t, []time.Weekday{time.Monday}, start, &end, domain.RecurrenceWeekly)

	repo := newMemEventRepo()
	e := newTestExpander(repo, start)
	_, err := e.Regenerate(context.Background(), ob)
	require.NoError(t, err)
	require.NotEmpty(t, repo.events)

	require.NoError(t, e.RemoveAll(context.Background(), ob))
	assert.Empty(t, repo.events)
}
