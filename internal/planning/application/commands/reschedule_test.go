package commands

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/studora/internal/planning/application/services"
	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/planning/solver"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

var weekStart = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC) // Monday

type noopUnitOfWork struct{}

func (noopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUnitOfWork) Commit(context.Context) error                       { return nil }
func (noopUnitOfWork) Rollback(context.Context) error                     { return nil }

type fakeEventRepo struct {
	events map[uuid.UUID]*domain.CalendarEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*domain.CalendarEvent)}
}

func (r *fakeEventRepo) Save(_ context.Context, ev *domain.CalendarEvent) error {
	r.events[ev.ID()] = ev
	return nil
}

func (r *fakeEventRepo) SaveBatch(ctx context.Context, events []*domain.CalendarEvent) error {
	for _, ev := range events {
		if err := r.Save(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.CalendarEvent, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (r *fakeEventRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]*domain.CalendarEvent, error) {
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if ev.StudentID() == studentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) FindByStudentInRange(_ context.Context, studentID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	var out []*domain.CalendarEvent
	for _, ev := range r.events {
		if ev.StudentID() == studentID && ev.StartTime().Before(to) && !ev.EndTime().Before(from) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) DeleteFutureByRef(_ context.Context, ref domain.EventRef, cutoff time.Time) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.Ref() == ref && !ev.StartTime().Before(cutoff) {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) DeleteByRef(_ context.Context, ref domain.EventRef) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.Ref() == ref {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) DeleteByRefForStudent(_ context.Context, ref domain.EventRef, studentID uuid.UUID) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.Ref() == ref && ev.StudentID() == studentID {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) DeletePlaceableByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	var n int64
	for id, ev := range r.events {
		if ev.StudentID() == studentID && ev.IsPlaceable() {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.events, id)
	return nil
}

type fakeFlexRepo struct {
	obligations map[uuid.UUID]*domain.FlexibleObligation
}

func newFakeFlexRepo() *fakeFlexRepo {
	return &fakeFlexRepo{obligations: make(map[uuid.UUID]*domain.FlexibleObligation)}
}

func (r *fakeFlexRepo) Save(_ context.Context, ob *domain.FlexibleObligation) error {
	r.obligations[ob.ID()] = ob
	return nil
}

func (r *fakeFlexRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.FlexibleObligation, error) {
	ob, ok := r.obligations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ob, nil
}

func (r *fakeFlexRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]*domain.FlexibleObligation, error) {
	var out []*domain.FlexibleObligation
	for _, ob := range r.obligations {
		if ob.StudentID() == studentID {
			out = append(out, ob)
		}
	}
	return out, nil
}

func (r *fakeFlexRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.obligations, id)
	return nil
}

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*domain.AcademicTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*domain.AcademicTask)}
}

func (r *fakeTaskRepo) Save(_ context.Context, task *domain.AcademicTask) error {
	r.tasks[task.ID()] = task
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.AcademicTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (r *fakeTaskRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]*domain.AcademicTask, error) {
	var out []*domain.AcademicTask
	for _, task := range r.tasks {
		if task.StudentID() == studentID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) FindSchedulableByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.AcademicTask, error) {
	all, err := r.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	var out []*domain.AcademicTask
	for _, task := range all {
		if task.IsSchedulable() {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.tasks, id)
	return nil
}

type rescheduleFixture struct {
	handler    *RescheduleHandler
	eventRepo  *fakeEventRepo
	flexRepo   *fakeFlexRepo
	taskRepo   *fakeTaskRepo
	outboxRepo *outbox.InMemoryRepository
}

func newRescheduleFixture() *rescheduleFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := solver.DefaultConfig()
	cfg.WallClock = 2 * time.Second
	engine := solver.NewEngine(cfg, logger).WithNow(func() time.Time { return weekStart })
	runner := services.NewSolverRunner(engine, services.DefaultSolverRunnerConfig(), logger)
	normalizer := services.NewNormalizer(cfg.SlotMinutes, logger).WithNow(func() time.Time { return weekStart })

	f := &rescheduleFixture{
		eventRepo:  newFakeEventRepo(),
		flexRepo:   newFakeFlexRepo(),
		taskRepo:   newFakeTaskRepo(),
		outboxRepo: outbox.NewInMemoryRepository(),
	}
	f.handler = NewRescheduleHandler(
		f.eventRepo,
		f.flexRepo,
		f.taskRepo,
		normalizer,
		runner,
		services.NewStudentLock(),
		nil,
		f.outboxRepo,
		noopUnitOfWork{},
		logger,
	).WithNow(func() time.Time { return weekStart })
	return f
}

func (f *rescheduleFixture) eventsByType(studentID uuid.UUID, eventType domain.EventType) []*domain.CalendarEvent {
	var out []*domain.CalendarEvent
	for _, ev := range f.eventRepo.events {
		if ev.StudentID() == studentID && ev.Type() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func TestRescheduleHandlerPlacesFlexibleObligation(t *testing.T) {
	f := newRescheduleFixture()
	studentID := uuid.New()

	ob, err := domain.NewFlexibleObligation(studentID, "gym", "", 3,
		domain.Constraints{SessionHours: 1}, nil, nil, 3)
	require.NoError(t, err)
	require.NoError(t, f.flexRepo.Save(context.Background(), ob))

	result, err := f.handler.Handle(context.Background(), RescheduleCommand{StudentID: studentID})
	require.NoError(t, err)

	assert.Equal(t, 3, result.AppliedEvents)
	assert.NotEqual(t, solver.StatusInfeasible, result.SolverStatus)

	placed := f.eventsByType(studentID, domain.EventFlexibleObligation)
	require.Len(t, placed, 3)
	for _, ev := range placed {
		assert.Equal(t, ob.ID(), ev.Ref().ID)
		assert.Equal(t, time.Hour, ev.EndTime().Sub(ev.StartTime()))
	}

	msgs, err := f.outboxRepo.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "planning.schedule.applied", msgs[0].EventType)
}

func TestRescheduleHandlerPlacesStudySessions(t *testing.T) {
	f := newRescheduleFixture()
	studentID := uuid.New()

	task, err := domain.NewAcademicTask(studentID, uuid.New(), domain.TaskAssignment,
		"essay", "", weekStart.AddDate(0, 0, 7), 4, 2, nil)
	require.NoError(t, err)
	require.NoError(t, f.taskRepo.Save(context.Background(), task))

	result, err := f.handler.Handle(context.Background(), RescheduleCommand{StudentID: studentID})
	require.NoError(t, err)
	assert.Equal(t, 2, result.AppliedEvents)

	study := f.eventsByType(studentID, domain.EventStudySession)
	require.Len(t, study, 2)
	for _, ev := range study {
		assert.Equal(t, task.ID(), ev.Ref().ID)
		assert.False(t, ev.EndTime().After(task.Deadline()))
	}
}

func TestRescheduleHandlerPreservesScheduledHours(t *testing.T) {
	f := newRescheduleFixture()
	studentID := uuid.New()

	ob, err := domain.NewFlexibleObligation(studentID, "reading", "", 5,
		domain.Constraints{SessionHours: 1}, nil, nil, 3)
	require.NoError(t, err)
	require.NoError(t, f.flexRepo.Save(context.Background(), ob))

	// Two hours were already granted in an earlier run; a plain reschedule
	// re-places those two hours, not the full weekly target.
	for i := 0; i < 2; i++ {
		ev, err := domain.NewCalendarEvent(studentID, domain.FlexibleRef(ob.ID()),
			weekStart.Add(time.Duration(9+2*i)*time.Hour),
			weekStart.Add(time.Duration(10+2*i)*time.Hour), 3)
		require.NoError(t, err)
		require.NoError(t, f.eventRepo.Save(context.Background(), ev))
	}

	result, err := f.handler.Handle(context.Background(), RescheduleCommand{StudentID: studentID})
	require.NoError(t, err)
	assert.Equal(t, 2, result.AppliedEvents)
}

func TestRescheduleHandlerNewObligationUsesWeeklyTarget(t *testing.T) {
	f := newRescheduleFixture()
	studentID := uuid.New()

	ob, err := domain.NewFlexibleObligation(studentID, "reading", "", 5,
		domain.Constraints{SessionHours: 1}, nil, nil, 3)
	require.NoError(t, err)
	require.NoError(t, f.flexRepo.Save(context.Background(), ob))

	// A stale placement exists, but the obligation is marked newly created,
	// so its hours come from the weekly target.
	ev, err := domain.NewCalendarEvent(studentID, domain.FlexibleRef(ob.ID()),
		weekStart.Add(9*time.Hour), weekStart.Add(10*time.Hour), 3)
	require.NoError(t, err)
	require.NoError(t, f.eventRepo.Save(context.Background(), ev))

	obID := ob.ID()
	result, err := f.handler.Handle(context.Background(), RescheduleCommand{
		StudentID:       studentID,
		NewObligationID: &obID,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.AppliedEvents)
}

func TestRescheduleHandlerInfeasibleLeavesCalendarUntouched(t *testing.T) {
	f := newRescheduleFixture()
	studentID := uuid.New()

	// An all-day immovable block every day of the obligation's window.
	fixedID := uuid.New()
	for d := 0; d < 2; d++ {
		day := weekStart.AddDate(0, 0, d)
		ev, err := domain.NewCalendarEvent(studentID, domain.FixedRef(fixedID),
			day, day.Add(24*time.Hour), 1)
		require.NoError(t, err)
		require.NoError(t, f.eventRepo.Save(context.Background(), ev))
	}

	deadline := weekStart.Add(47 * time.Hour)
	start := weekStart
	ob, err := domain.NewFlexibleObligation(studentID, "reading", "", 1,
		domain.Constraints{SessionHours: 1}, &start, &deadline, 3)
	require.NoError(t, err)
	require.NoError(t, f.flexRepo.Save(context.Background(), ob))

	existing, err := domain.NewCalendarEvent(studentID, domain.StudyRef(uuid.New()),
		weekStart.AddDate(0, 0, 5).Add(9*time.Hour), weekStart.AddDate(0, 0, 5).Add(10*time.Hour), 8)
	require.NoError(t, err)
	require.NoError(t, f.eventRepo.Save(context.Background(), existing))

	_, err = f.handler.Handle(context.Background(), RescheduleCommand{StudentID: studentID})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)

	_, err = f.eventRepo.FindByID(context.Background(), existing.ID())
	assert.NoError(t, err, "failed solve must not delete existing placements")
}

func TestRescheduleHandlerRequiresStudent(t *testing.T) {
	f := newRescheduleFixture()

	_, err := f.handler.Handle(context.Background(), RescheduleCommand{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
