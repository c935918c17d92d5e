package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	"github.com/studora/studora/internal/shared/infrastructure/migrations"
)

func setupRosterDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func mustClock(t *testing.T, clock string) planningDomain.TimeOfDay {
	t.Helper()
	tod, err := domain.ParseBannerClock(clock)
	require.NoError(t, err)
	return tod
}

func testTimetable(t *testing.T) domain.Timetable {
	t.Helper()
	return domain.Timetable{Times: []domain.MeetingTime{{
		Days:      "MWF",
		StartTime: mustClock(t, "0900"),
		EndTime:   mustClock(t, "0950"),
		Building:  "Bliss",
		Room:      "203",
	}}}
}

func TestSQLiteStudentRoundTrip(t *testing.T) {
	db := setupRosterDB(t)
	repo := NewSQLiteStudentRepository(db)
	ctx := context.Background()

	student, err := domain.NewStudent("Lina Haddad", "Lina@Example.Edu", "Computer Science", 2)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, student))

	loaded, err := repo.FindByID(ctx, student.ID())
	require.NoError(t, err)
	assert.Equal(t, "Lina Haddad", loaded.Name())
	assert.Equal(t, "lina@example.edu", loaded.Email())
	assert.Equal(t, 2, loaded.Year())

	byEmail, err := repo.FindByEmail(ctx, "lina@example.edu")
	require.NoError(t, err)
	assert.Equal(t, student.ID(), byEmail.ID())

	require.NoError(t, repo.Delete(ctx, student.ID()))
	_, err = repo.FindByID(ctx, student.ID())
	assert.ErrorIs(t, err, planningDomain.ErrNotFound)
}

func TestSQLiteCourseCRNUpsertKeepsIdentity(t *testing.T) {
	db := setupRosterDB(t)
	repo := NewSQLiteCourseRepository(db)
	ctx := context.Background()

	course, err := domain.NewCourse("CMPS 211", "Discrete Structures", 20417, 1, 3,
		"R. Nassar", "202610", testTimetable(t))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, course))

	// A later catalog sync carries a fresh aggregate for the same CRN; the
	// stored row keeps the first id.
	resynced, err := domain.NewCourse("CMPS 211", "Discrete Structures", 20417, 1, 3,
		"K. Fawaz", "202610", testTimetable(t))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, resynced))

	loaded, err := repo.FindByCRN(ctx, 20417)
	require.NoError(t, err)
	assert.Equal(t, course.ID(), loaded.ID())
	assert.Equal(t, "K. Fawaz", loaded.Instructor())
	require.Len(t, loaded.Timetable().Times, 1)
	assert.Equal(t, "MWF", loaded.Timetable().Times[0].Days)
}

func TestSQLiteCoursesBySemester(t *testing.T) {
	db := setupRosterDB(t)
	repo := NewSQLiteCourseRepository(db)
	ctx := context.Background()

	second, err := domain.NewCourse("PHYS 210", "Mechanics", 30110, 2, 4, "", "202610", domain.Timetable{})
	require.NoError(t, err)
	first, err := domain.NewCourse("CMPS 200", "Introduction to Programming", 20110, 1, 3, "", "202610", domain.Timetable{})
	require.NoError(t, err)
	other, err := domain.NewCourse("CMPS 200", "Introduction to Programming", 10110, 1, 3, "", "202540", domain.Timetable{})
	require.NoError(t, err)

	for _, c := range []*domain.Course{second, first, other} {
		require.NoError(t, repo.Save(ctx, c))
	}

	courses, err := repo.FindBySemester(ctx, "202610")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CMPS 200", courses[0].Code())
	assert.Equal(t, "PHYS 210", courses[1].Code())
}

func TestSQLiteRegistrationPair(t *testing.T) {
	db := setupRosterDB(t)
	repo := NewSQLiteRegistrationRepository(db)
	ctx := context.Background()

	studentID := uuid.New()
	courseID := uuid.New()
	registeredAt := time.Date(2026, time.January, 12, 8, 0, 0, 0, time.UTC)

	registration, err := domain.NewRegistration(studentID, courseID, registeredAt)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, registration))

	loaded, err := repo.FindByStudentAndCourse(ctx, studentID, courseID)
	require.NoError(t, err)
	assert.Equal(t, registration.ID(), loaded.ID())
	assert.Equal(t, registeredAt, loaded.RegisteredAt())

	// A duplicate pair is swallowed by the unique constraint.
	duplicate, err := domain.NewRegistration(studentID, courseID, registeredAt.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, duplicate))

	all, err := repo.FindByStudent(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, registration.ID(), all[0].ID())

	require.NoError(t, repo.Delete(ctx, registration.ID()))
	_, err = repo.FindByStudentAndCourse(ctx, studentID, courseID)
	assert.ErrorIs(t, err, planningDomain.ErrNotFound)
}
