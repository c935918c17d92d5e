package solver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/studora/internal/planning/domain"
)

// monday is 2026-01-05, a Monday, used as the planning week start.
var monday = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	cfg := DefaultConfig()
	cfg.WallClock = 2 * time.Second
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEngine(cfg, logger)
	return e.WithNow(func() time.Time { return monday })
}

func ptrTime(t time.Time) *time.Time { return &t }

func sessionsOf(result *Result, taskID uuid.UUID) []PlacedSession {
	var out []PlacedSession
	for _, s := range result.Sessions {
		if s.TaskID == taskID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Start.Before(out[b].Start) })
	return out
}

func TestSolveEmptyTasks(t *testing.T) {
	engine := newTestEngine()

	result, err := engine.Solve(context.Background(), Input{WeekStart: monday})

	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, result.Status)
	assert.Empty(t, result.Sessions)
}

func TestSolvePlacesAllSessionsWithSpacing(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   3,
			SessionHours: 1,
			Priority:     3,
			IsStudy:      true,
		}},
	})

	require.NoError(t, err)
	require.NotEqual(t, StatusInfeasible, result.Status)

	sessions := sessionsOf(result, taskID)
	require.Len(t, sessions, 3)

	for _, s := range sessions {
		assert.Equal(t, time.Hour, s.End.Sub(s.Start))
		assert.GreaterOrEqual(t, s.Start.Hour(), 8, "session must not start before 08:00")
		assert.LessOrEqual(t, s.Start.Hour(), 22, "session must not start in the night window")
		assert.True(t, s.IsStudy)
	}
	for i := 1; i < len(sessions); i++ {
		gap := sessions[i].Start.Sub(sessions[i-1].Start)
		assert.GreaterOrEqual(t, gap, 2*time.Hour, "consecutive sessions of a task need duration plus gap between starts")
	}
}

func TestSolveAvoidsFixedIntervals(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()

	// Lecture ends mid-slot; the whole 10:00-12:00 range must stay clear
	// because occupancy is tracked per full slot.
	lectureStart := monday.Add(10 * time.Hour)
	lectureEnd := monday.Add(11*time.Hour + 15*time.Minute)
	blockedUntil := monday.Add(12 * time.Hour)

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Fixed: []FixedInterval{{
			ID:    uuid.New(),
			Start: lectureStart,
			End:   lectureEnd,
		}},
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   4,
			SessionHours: 1,
			Priority:     3,
		}},
	})

	require.NoError(t, err)
	sessions := sessionsOf(result, taskID)
	require.Len(t, sessions, 4)

	for _, s := range sessions {
		overlaps := s.Start.Before(blockedUntil) && lectureStart.Before(s.End)
		assert.False(t, overlaps, "session %s-%s overlaps the lecture block", s.Start, s.End)
	}
}

func TestSolveRespectsDeadline(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()
	deadline := monday.Add(2*24*time.Hour + 22*time.Hour) // Wednesday 22:00

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   4,
			SessionHours: 1,
			EndDate:      ptrTime(deadline),
			Priority:     8,
			IsStudy:      true,
		}},
	})

	require.NoError(t, err)
	sessions := sessionsOf(result, taskID)
	require.Len(t, sessions, 4)
	for _, s := range sessions {
		assert.False(t, s.End.After(deadline), "session ending %s misses the deadline %s", s.End, deadline)
	}
}

func TestSolveRelaxesNightWindow(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()

	// The whole waking day is occupied, so only the night window remains.
	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Fixed: []FixedInterval{{
			ID:    uuid.New(),
			Start: monday.Add(8 * time.Hour),
			End:   monday.Add(23 * time.Hour),
		}},
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   1,
			SessionHours: 1,
			StartDate:    ptrTime(monday),
			EndDate:      ptrTime(monday.Add(23 * time.Hour)),
			Priority:     5,
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFeasibleRelaxed, result.Status)

	sessions := sessionsOf(result, taskID)
	require.Len(t, sessions, 1)
	h := sessions[0].Start.Hour()
	assert.True(t, h >= 23 || h < 8, "relaxed placement should land in the night window, got hour %d", h)
}

func TestSolveInfeasibleWhenFullyBlocked(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Fixed: []FixedInterval{{
			ID:    uuid.New(),
			Start: monday,
			End:   monday.Add(24 * time.Hour),
		}},
		Tasks: []FlexibleTask{{
			ID:           uuid.New(),
			TotalHours:   1,
			SessionHours: 1,
			StartDate:    ptrTime(monday),
			EndDate:      ptrTime(monday.Add(23 * time.Hour)),
			Priority:     3,
		}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestSolveEmptyWindowFailsFast(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()

	_, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   2,
			SessionHours: 1,
			StartDate:    ptrTime(monday.Add(3 * 24 * time.Hour)),
			EndDate:      ptrTime(monday.Add(24 * time.Hour)),
			Priority:     3,
		}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var noWindow *domain.NoWindowError
	require.ErrorAs(t, err, &noWindow)
	assert.Equal(t, taskID, noWindow.TaskID)
}

func TestSolveDependencyOrdering(t *testing.T) {
	engine := newTestEngine()
	first := uuid.New()
	second := uuid.New()

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{
			{
				ID:           second,
				TotalHours:   2,
				SessionHours: 1,
				Priority:     8,
				Dependencies: []uuid.UUID{first},
			},
			{
				ID:           first,
				TotalHours:   2,
				SessionHours: 1,
				Priority:     1,
			},
		},
	})

	require.NoError(t, err)
	firstSessions := sessionsOf(result, first)
	secondSessions := sessionsOf(result, second)
	require.Len(t, firstSessions, 2)
	require.Len(t, secondSessions, 2)

	lastPrereq := firstSessions[len(firstSessions)-1].Start
	for _, s := range secondSessions {
		assert.True(t, s.Start.After(lastPrereq),
			"dependent session at %s must start strictly after prerequisite at %s", s.Start, lastPrereq)
	}
}

func TestSolveDependencyCycleRejected(t *testing.T) {
	engine := newTestEngine()
	a := uuid.New()
	b := uuid.New()

	_, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{
			{ID: a, TotalHours: 1, SessionHours: 1, Priority: 3, Dependencies: []uuid.UUID{b}},
			{ID: b, TotalHours: 1, SessionHours: 1, Priority: 3, Dependencies: []uuid.UUID{a}},
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSolveAllowedDays(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   2,
			SessionHours: 1,
			Priority:     3,
			AllowedDays:  []time.Weekday{time.Wednesday},
		}},
	})

	require.NoError(t, err)
	sessions := sessionsOf(result, taskID)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, time.Wednesday, s.Start.Weekday())
	}
}

func TestSolveOverloadedDayStaysFeasible(t *testing.T) {
	engine := newTestEngine()
	taskID := uuid.New()

	// Eight hours due within a single day exceed the soft daily cap but must
	// still schedule.
	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   8,
			SessionHours: 1,
			StartDate:    ptrTime(monday),
			EndDate:      ptrTime(monday.Add(23 * time.Hour)),
			Priority:     8,
		}},
	})

	require.NoError(t, err)
	require.NotEqual(t, StatusInfeasible, result.Status)

	sessions := sessionsOf(result, taskID)
	require.Len(t, sessions, 8)
	for _, s := range sessions {
		assert.Equal(t, monday.Day(), s.Start.Day())
	}
	assert.Greater(t, result.Objective, excessWeight, "overload must be priced into the objective")
}

func TestSolveNoSessionOverlaps(t *testing.T) {
	engine := newTestEngine()

	tasks := []FlexibleTask{
		{ID: uuid.New(), TotalHours: 3, SessionHours: 1.5, Priority: 8},
		{ID: uuid.New(), TotalHours: 2, SessionHours: 1, Priority: 3},
		{ID: uuid.New(), TotalHours: 2, SessionHours: 2, Priority: 1},
	}

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks:     tasks,
	})

	require.NoError(t, err)
	for i := 0; i < len(result.Sessions); i++ {
		for j := i + 1; j < len(result.Sessions); j++ {
			a, b := result.Sessions[i], result.Sessions[j]
			overlaps := a.Start.Before(b.End) && b.Start.Before(a.End)
			assert.False(t, overlaps, "sessions %d and %d overlap", i, j)
		}
	}
}

func TestSolvePrioritySchedulesEarlier(t *testing.T) {
	engine := newTestEngine()
	urgent := uuid.New()
	casual := uuid.New()

	result, err := engine.Solve(context.Background(), Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{
			{ID: casual, TotalHours: 1, SessionHours: 1, Priority: 1},
			{ID: urgent, TotalHours: 1, SessionHours: 1, Priority: 8},
		},
	})

	require.NoError(t, err)
	urgentSessions := sessionsOf(result, urgent)
	casualSessions := sessionsOf(result, casual)
	require.Len(t, urgentSessions, 1)
	require.Len(t, casualSessions, 1)
	assert.True(t, urgentSessions[0].Start.Before(casualSessions[0].Start))
}

func TestSolveDeterministic(t *testing.T) {
	input := Input{
		WeekStart: monday,
		Fixed: []FixedInterval{{
			ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Start: monday.Add(9 * time.Hour),
			End:   monday.Add(11 * time.Hour),
		}},
		Tasks: []FlexibleTask{
			{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), TotalHours: 1, SessionHours: 1, Priority: 8},
			{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), TotalHours: 1, SessionHours: 1, Priority: 3},
		},
	}

	first, err := newTestEngine().Solve(context.Background(), input)
	require.NoError(t, err)
	second, err := newTestEngine().Solve(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Sessions, second.Sessions)
}

func TestSolveCancelledContext(t *testing.T) {
	engine := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := make([]FlexibleTask, 0, 8)
	for i := 0; i < 8; i++ {
		tasks = append(tasks, FlexibleTask{
			ID:           uuid.New(),
			TotalHours:   4,
			SessionHours: 1,
			Priority:     3,
		})
	}

	_, err := engine.Solve(ctx, Input{WeekStart: monday, Tasks: tasks})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSolverAborted) || errors.Is(err, domain.ErrSolverTimeout))
}

func TestSolveProfileBiasShiftsPlacement(t *testing.T) {
	taskID := uuid.New()
	base := Input{
		WeekStart: monday,
		Tasks: []FlexibleTask{{
			ID:           taskID,
			TotalHours:   1,
			SessionHours: 1,
			Priority:     3,
		}},
	}

	unbiased, err := newTestEngine().Solve(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, unbiased.Sessions, 1)

	// A strong afternoon preference should pull the session later than the
	// unbiased earliest fit.
	biased := base
	biased.Weights = &ProfileWeights{
		SlotWeights: map[string]float64{
			"Monday-14": 1.0,
		},
		Beta: 50,
	}
	biasedResult, err := newTestEngine().Solve(context.Background(), biased)
	require.NoError(t, err)
	require.Len(t, biasedResult.Sessions, 1)

	assert.Equal(t, 14, biasedResult.Sessions[0].Start.Hour())
	assert.True(t, biasedResult.Sessions[0].Start.After(unbiased.Sessions[0].Start))
}
