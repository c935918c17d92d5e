package solver

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTasksDeadlineFirst(t *testing.T) {
	late := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	early := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	none := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")

	tasks := []FlexibleTask{
		{ID: none, TotalHours: 1, SessionHours: 1, Priority: 8},
		{ID: late, TotalHours: 1, SessionHours: 1, Priority: 3, EndDate: ptrTime(monday.Add(5 * 24 * time.Hour))},
		{ID: early, TotalHours: 1, SessionHours: 1, Priority: 1, EndDate: ptrTime(monday.Add(24 * time.Hour))},
	}

	ordered, err := orderTasks(tasks)
	require.NoError(t, err)
	require.Len(t, ordered, 3)

	assert.Equal(t, early, ordered[0].ID, "earliest deadline first")
	assert.Equal(t, late, ordered[1].ID)
	assert.Equal(t, none, ordered[2].ID, "no deadline sorts last regardless of priority")
}

func TestOrderTasksPriorityBreaksDeadlineTies(t *testing.T) {
	deadline := ptrTime(monday.Add(3 * 24 * time.Hour))
	low := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	high := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	tasks := []FlexibleTask{
		{ID: low, TotalHours: 1, SessionHours: 1, Priority: 1, EndDate: deadline},
		{ID: high, TotalHours: 1, SessionHours: 1, Priority: 8, EndDate: deadline},
	}

	ordered, err := orderTasks(tasks)
	require.NoError(t, err)
	assert.Equal(t, high, ordered[0].ID)
	assert.Equal(t, low, ordered[1].ID)
}

func TestOrderTasksDependenciesBeforeDependents(t *testing.T) {
	prereq := uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	dependent := uuid.MustParse("cccccccc-0000-0000-0000-000000000002")

	tasks := []FlexibleTask{
		// The dependent has the earlier deadline, but topology wins.
		{ID: dependent, TotalHours: 1, SessionHours: 1, Priority: 8, EndDate: ptrTime(monday.Add(24 * time.Hour)), Dependencies: []uuid.UUID{prereq}},
		{ID: prereq, TotalHours: 1, SessionHours: 1, Priority: 1},
	}

	ordered, err := orderTasks(tasks)
	require.NoError(t, err)
	assert.Equal(t, prereq, ordered[0].ID)
	assert.Equal(t, dependent, ordered[1].ID)
}

func TestBuildModelSessionCounts(t *testing.T) {
	cases := []struct {
		name         string
		totalHours   float64
		sessionHours float64
		wantCount    int
		wantDurSlots int
	}{
		{name: "exact split", totalHours: 4, sessionHours: 1, wantCount: 4, wantDurSlots: 1},
		{name: "rounds session count up", totalHours: 5, sessionHours: 2, wantCount: 3, wantDurSlots: 2},
		{name: "session longer than total", totalHours: 1, sessionHours: 2, wantCount: 1, wantDurSlots: 2},
		{name: "fractional session rounds slots up", totalHours: 3, sessionHours: 1.5, wantCount: 2, wantDurSlots: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := Input{
				WeekStart: monday,
				Tasks: []FlexibleTask{{
					ID:           uuid.New(),
					TotalHours:   tc.totalHours,
					SessionHours: tc.sessionHours,
					Priority:     3,
				}},
			}
			m, err := buildModel(input, modelParams{
				slotMinutes:    60,
				horizonDays:    14,
				nightStartHour: 23,
				nightEndHour:   8,
				maxHoursPerDay: 6,
				minGapSlots:    1,
				now:            monday,
			})
			require.NoError(t, err)
			require.Len(t, m.sessions, tc.wantCount)
			for _, s := range m.sessions {
				assert.Equal(t, tc.wantDurSlots, s.durSlots)
			}
		})
	}
}

func TestBuildModelGridCoversFixedIntervals(t *testing.T) {
	input := Input{
		WeekStart: monday,
		Fixed: []FixedInterval{{
			ID:    uuid.New(),
			Start: monday.Add(20 * 24 * time.Hour),
			End:   monday.Add(20*24*time.Hour + 2*time.Hour),
		}},
		Tasks: []FlexibleTask{{
			ID:           uuid.New(),
			TotalHours:   1,
			SessionHours: 1,
			Priority:     3,
		}},
	}

	m, err := buildModel(input, modelParams{
		slotMinutes:    60,
		horizonDays:    14,
		nightStartHour: 23,
		nightEndHour:   8,
		maxHoursPerDay: 6,
		minGapSlots:    1,
		now:            monday,
	})
	require.NoError(t, err)

	idx := m.grid.Index(monday.Add(20 * 24 * time.Hour))
	require.GreaterOrEqual(t, idx, 0)
	assert.True(t, m.blocked[idx])
	assert.True(t, m.blocked[idx+1])
}
