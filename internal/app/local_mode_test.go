package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planningCommands "github.com/studora/studora/internal/planning/application/commands"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	rosterCommands "github.com/studora/studora/internal/roster/application/commands"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	"github.com/studora/studora/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:          "test",
		SQLitePath:      filepath.Join(t.TempDir(), "test.db"),
		SolverWallClock: 2 * time.Second,
		NightStartHour:  23,
		NightEndHour:    8,
		MaxHoursPerDay:  6,
		MinGapSlots:     1,
		SlotMinutes:     60,
		HorizonDays:     14,

		OutboxPollInterval: 50 * time.Millisecond,
		OutboxBatchSize:    10,
		OutboxMaxRetries:   3,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func TestLocalModeContainer(t *testing.T) {
	container, err := NewLocalContainer(context.Background(), testConfig(t), testLogger())
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.DBConn)
	assert.Nil(t, container.DB) // PostgreSQL pool stays nil in local mode

	assert.NotNil(t, container.FixedObligationRepo)
	assert.NotNil(t, container.FlexibleObligationRepo)
	assert.NotNil(t, container.AcademicTaskRepo)
	assert.NotNil(t, container.CalendarEventRepo)
	assert.NotNil(t, container.SessionEventRepo)
	assert.NotNil(t, container.ProfileRepo)
	assert.NotNil(t, container.StudentRepo)
	assert.NotNil(t, container.CourseRepo)
	assert.NotNil(t, container.OutboxRepo)

	assert.NotNil(t, container.CreateStudentHandler)
	assert.NotNil(t, container.CreateFixedObligationHandler)
	assert.NotNil(t, container.RescheduleHandler)
	assert.NotNil(t, container.FinalizeSessionHandler)
	assert.NotNil(t, container.RecommendSlotsHandler)
	assert.NotNil(t, container.OutboxProcessor)
	assert.NotNil(t, container.InProcessEventBus)
}

func TestLocalModeObligationWorkflow(t *testing.T) {
	ctx := context.Background()
	container, err := NewLocalContainer(ctx, testConfig(t), testLogger())
	require.NoError(t, err)
	defer container.Close()

	created, err := container.CreateStudentHandler.Handle(ctx, rosterCommands.CreateStudentCommand{
		Name:    "Test Student",
		Email:   "student@example.edu",
		Program: "Computer Science",
		Year:    2,
	})
	require.NoError(t, err)

	start := mustTimeOfDay(t, 10, 0)
	end := mustTimeOfDay(t, 11, 0)
	result, err := container.CreateFixedObligationHandler.Handle(ctx, planningCommands.CreateFixedObligationCommand{
		StudentID:  created.StudentID,
		Name:       "Morning lab",
		StartTime:  start,
		EndTime:    end,
		DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
		StartDate:  time.Now().UTC(),
		Recurrence: planningDomain.RecurrenceWeekly,
		Priority:   1,
	})
	require.NoError(t, err)
	assert.Positive(t, result.EventsCount)

	obligations, err := container.FixedObligationRepo.FindByStudent(ctx, created.StudentID)
	require.NoError(t, err)
	require.Len(t, obligations, 1)
	assert.Equal(t, "Morning lab", obligations[0].Name())

	events, err := container.CalendarEventRepo.FindByStudent(ctx, created.StudentID)
	require.NoError(t, err)
	assert.Len(t, events, result.EventsCount)
}

func mustTimeOfDay(t *testing.T, hour, minute int) planningDomain.TimeOfDay {
	t.Helper()
	tod, err := planningDomain.NewTimeOfDay(hour, minute)
	require.NoError(t, err)
	return tod
}
