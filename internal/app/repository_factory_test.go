package app

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/studora/studora/internal/shared/infrastructure/database"
	"github.com/studora/studora/internal/shared/infrastructure/migrations"
)

// mockSQLiteConnection implements database.Connection for testing.
type mockSQLiteConnection struct {
	db *sql.DB
}

func (m *mockSQLiteConnection) Driver() database.Driver {
	return database.DriverSQLite
}

func (m *mockSQLiteConnection) DB() *sql.DB {
	return m.db
}

func (m *mockSQLiteConnection) Close() error {
	return m.db.Close()
}

func (m *mockSQLiteConnection) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *mockSQLiteConnection) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, nil
}

func (m *mockSQLiteConnection) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	return nil, nil
}

func (m *mockSQLiteConnection) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return nil
}

func (m *mockSQLiteConnection) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return nil, nil
}

func setupFactory(t *testing.T) *RepositoryFactory {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return NewRepositoryFactory(&mockSQLiteConnection{db: db})
}

func TestRepositoryFactorySQLite(t *testing.T) {
	factory := setupFactory(t)
	assert.Equal(t, database.DriverSQLite, factory.Driver())

	fixed, err := factory.FixedObligationRepository()
	require.NoError(t, err)
	assert.NotNil(t, fixed)

	flexible, err := factory.FlexibleObligationRepository()
	require.NoError(t, err)
	assert.NotNil(t, flexible)

	tasks, err := factory.AcademicTaskRepository()
	require.NoError(t, err)
	assert.NotNil(t, tasks)

	events, err := factory.CalendarEventRepository()
	require.NoError(t, err)
	assert.NotNil(t, events)

	sessions, err := factory.SessionEventRepository()
	require.NoError(t, err)
	assert.NotNil(t, sessions)

	signals, err := factory.ContextSignalRepository()
	require.NoError(t, err)
	assert.NotNil(t, signals)

	profiles, err := factory.ProductivityProfileRepository()
	require.NoError(t, err)
	assert.NotNil(t, profiles)

	students, err := factory.StudentRepository()
	require.NoError(t, err)
	assert.NotNil(t, students)

	courses, err := factory.CourseRepository()
	require.NoError(t, err)
	assert.NotNil(t, courses)

	registrations, err := factory.RegistrationRepository()
	require.NoError(t, err)
	assert.NotNil(t, registrations)

	outboxRepo, err := factory.OutboxRepository()
	require.NoError(t, err)
	assert.NotNil(t, outboxRepo)
}
