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
	"github.com/studora/studora/internal/planning/solver"
)

var normNow = time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNormalizer(60, logger).WithNow(func() time.Time { return normNow })
}

func mustFlexible(t *testing.T, target float64, constraints domain.Constraints, endDate *time.Time, priority int) *domain.FlexibleObligation {
	t.Helper()
	ob, err := domain.NewFlexibleObligation(uuid.New(), "gym", "", target, constraints, nil, endDate, priority)
	require.NoError(t, err)
	return ob
}

func mustTask(t *testing.T, deadline time.Time, total, session float64) *domain.AcademicTask {
	t.Helper()
	task, err := domain.NewAcademicTask(uuid.New(), uuid.New(), domain.TaskAssignment, "essay", "", deadline, total, session, nil)
	require.NoError(t, err)
	return task
}

func TestNormalizeFlexibleDefaults(t *testing.T) {
	n := newTestNormalizer(t)
	ob := mustFlexible(t, 3, domain.Constraints{}, nil, 3)

	out, err := n.Normalize(NormalizeInput{
		WeekStart: normNow,
		Flexible:  []*domain.FlexibleObligation{ob},
	})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	task := out.Tasks[0]
	assert.Equal(t, ob.ID(), task.ID)
	assert.Equal(t, 3.0, task.TotalHours)
	assert.Equal(t, 1.0, task.SessionHours, "session hours default to one")
	assert.Equal(t, 3, task.Priority)
	assert.False(t, task.IsStudy)
}

func TestNormalizeSnapsHoursToGrid(t *testing.T) {
	n := newTestNormalizer(t)
	ob := mustFlexible(t, 3.7, domain.Constraints{SessionHours: 1.5}, nil, 2)

	out, err := n.Normalize(NormalizeInput{WeekStart: normNow, Flexible: []*domain.FlexibleObligation{ob}})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, 3.0, out.Tasks[0].TotalHours, "total floors to whole hours on a 60-minute grid")
	assert.Equal(t, 1.0, out.Tasks[0].SessionHours)
}

func TestNormalizeHalfHourGrid(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewNormalizer(30, logger).WithNow(func() time.Time { return normNow })
	ob := mustFlexible(t, 3.7, domain.Constraints{SessionHours: 0.2}, nil, 2)

	out, err := n.Normalize(NormalizeInput{WeekStart: normNow, Flexible: []*domain.FlexibleObligation{ob}})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, 3.5, out.Tasks[0].TotalHours)
	assert.Equal(t, 0.5, out.Tasks[0].SessionHours, "tiny sessions round up to one slot")
}

func TestNormalizeDropsExpiredFlexible(t *testing.T) {
	n := newTestNormalizer(t)
	past := normNow.Add(-24 * time.Hour)
	expired := mustFlexible(t, 2, domain.Constraints{}, &past, 3)
	active := mustFlexible(t, 2, domain.Constraints{}, nil, 3)

	out, err := n.Normalize(NormalizeInput{
		WeekStart: normNow,
		Flexible:  []*domain.FlexibleObligation{expired, active},
	})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, active.ID(), out.Tasks[0].ID)
}

func TestNormalizeExtendsEndDateThroughItsDay(t *testing.T) {
	n := newTestNormalizer(t)
	day := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	ob, err := domain.NewFlexibleObligation(uuid.New(), "gym", "", 1, domain.Constraints{SessionHours: 1}, &day, &day, 3)
	require.NoError(t, err)

	out, err := n.Normalize(NormalizeInput{
		WeekStart: day,
		Flexible:  []*domain.FlexibleObligation{ob},
	})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	require.NotNil(t, out.Tasks[0].EndDate)
	assert.Equal(t, day.AddDate(0, 0, 1), *out.Tasks[0].EndDate,
		"the end date is the last active day, not an exclusive bound")
}

func TestNormalizeKeepsObligationEndingToday(t *testing.T) {
	n := newTestNormalizer(t)
	// normNow is 08:00 on this day; the obligation is still active until midnight.
	today := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	ob := mustFlexible(t, 2, domain.Constraints{}, &today, 3)

	out, err := n.Normalize(NormalizeInput{
		WeekStart: normNow,
		Flexible:  []*domain.FlexibleObligation{ob},
	})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, ob.ID(), out.Tasks[0].ID)
}

func TestSingleDayWindowSchedulesOnThatDay(t *testing.T) {
	n := newTestNormalizer(t)
	day := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	ob, err := domain.NewFlexibleObligation(uuid.New(), "gym", "", 1, domain.Constraints{SessionHours: 1}, &day, &day, 3)
	require.NoError(t, err)

	input, err := n.Normalize(NormalizeInput{
		WeekStart: day,
		Flexible:  []*domain.FlexibleObligation{ob},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := solver.NewEngine(solver.DefaultConfig(), logger).WithNow(func() time.Time { return normNow })
	result, err := engine.Solve(context.Background(), input)

	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	s := result.Sessions[0]
	assert.Equal(t, day.Day(), s.Start.Day(), "the single session lands on the only allowed day")
	assert.GreaterOrEqual(t, s.Start.Hour(), 8)
	assert.LessOrEqual(t, s.Start.Hour(), 22)
}

func TestNormalizeAcademicTask(t *testing.T) {
	n := newTestNormalizer(t)
	deadline := normNow.Add(5 * 24 * time.Hour)
	task := mustTask(t, deadline, 6, 2)

	out, err := n.Normalize(NormalizeInput{WeekStart: normNow, Tasks: []*domain.AcademicTask{task}})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	got := out.Tasks[0]
	assert.Equal(t, 8, got.Priority, "academic work outranks flexible budgets")
	assert.True(t, got.IsStudy)
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(deadline))
}

func TestNormalizeDropsPastDeadlineTask(t *testing.T) {
	n := newTestNormalizer(t)
	task := mustTask(t, normNow.Add(-time.Hour), 2, 1)

	out, err := n.Normalize(NormalizeInput{WeekStart: normNow, Tasks: []*domain.AcademicTask{task}})

	require.NoError(t, err)
	assert.Empty(t, out.Tasks)
}

func TestNormalizeSkipsCompletedTask(t *testing.T) {
	n := newTestNormalizer(t)
	task := mustTask(t, normNow.Add(48*time.Hour), 2, 1)
	require.NoError(t, task.Complete())

	out, err := n.Normalize(NormalizeInput{WeekStart: normNow, Tasks: []*domain.AcademicTask{task}})

	require.NoError(t, err)
	assert.Empty(t, out.Tasks)
}

func TestNormalizeImmovableEvents(t *testing.T) {
	n := newTestNormalizer(t)
	studentID := uuid.New()

	lecture, err := domain.NewCalendarEvent(studentID, domain.LectureRef(uuid.New()),
		normNow.Add(2*time.Hour), normNow.Add(3*time.Hour), 0)
	require.NoError(t, err)
	placed, err := domain.NewCalendarEvent(studentID, domain.StudyRef(uuid.New()),
		normNow.Add(4*time.Hour), normNow.Add(5*time.Hour), 8)
	require.NoError(t, err)

	out, err := n.Normalize(NormalizeInput{
		WeekStart:       normNow,
		ImmovableEvents: []*domain.CalendarEvent{lecture, placed},
	})

	require.NoError(t, err)
	require.Len(t, out.Fixed, 1, "placeable events are not hard blocks")
	assert.Equal(t, lecture.ID(), out.Fixed[0].ID)
	assert.Equal(t, 1, out.Fixed[0].Priority, "unset priority defaults to one")
}
