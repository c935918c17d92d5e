package app

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	behaviorDomain "github.com/studora/studora/internal/behavior/domain"
	behaviorPersistence "github.com/studora/studora/internal/behavior/infrastructure/persistence"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	planningPersistence "github.com/studora/studora/internal/planning/infrastructure/persistence"
	rosterDomain "github.com/studora/studora/internal/roster/domain"
	rosterPersistence "github.com/studora/studora/internal/roster/infrastructure/persistence"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// FixedObligationRepository creates a fixed obligation repository for the configured driver.
func (f *RepositoryFactory) FixedObligationRepository() (planningDomain.FixedObligationRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewPostgresFixedObligationRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewSQLiteFixedObligationRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// FlexibleObligationRepository creates a flexible obligation repository for the configured driver.
func (f *RepositoryFactory) FlexibleObligationRepository() (planningDomain.FlexibleObligationRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewPostgresFlexibleObligationRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewSQLiteFlexibleObligationRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// AcademicTaskRepository creates an academic task repository for the configured driver.
func (f *RepositoryFactory) AcademicTaskRepository() (planningDomain.AcademicTaskRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewPostgresAcademicTaskRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewSQLiteAcademicTaskRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// CalendarEventRepository creates a calendar event repository for the configured driver.
func (f *RepositoryFactory) CalendarEventRepository() (planningDomain.CalendarEventRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewPostgresCalendarEventRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return planningPersistence.NewSQLiteCalendarEventRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// SessionEventRepository creates a session event repository for the configured driver.
func (f *RepositoryFactory) SessionEventRepository() (behaviorDomain.SessionEventRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return behaviorPersistence.NewPostgresSessionEventRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return behaviorPersistence.NewSQLiteSessionEventRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// ContextSignalRepository creates a context signal repository for the configured driver.
func (f *RepositoryFactory) ContextSignalRepository() (behaviorDomain.ContextSignalRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return behaviorPersistence.NewPostgresContextSignalRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return behaviorPersistence.NewSQLiteContextSignalRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// ProductivityProfileRepository creates a productivity profile repository for the configured driver.
func (f *RepositoryFactory) ProductivityProfileRepository() (behaviorDomain.ProductivityProfileRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return behaviorPersistence.NewPostgresProductivityProfileRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return behaviorPersistence.NewSQLiteProductivityProfileRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// StudentRepository creates a student repository for the configured driver.
func (f *RepositoryFactory) StudentRepository() (rosterDomain.StudentRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return rosterPersistence.NewPostgresStudentRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return rosterPersistence.NewSQLiteStudentRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// CourseRepository creates a course repository for the configured driver.
func (f *RepositoryFactory) CourseRepository() (rosterDomain.CourseRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return rosterPersistence.NewPostgresCourseRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return rosterPersistence.NewSQLiteCourseRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// RegistrationRepository creates a registration repository for the configured driver.
func (f *RepositoryFactory) RegistrationRepository() (rosterDomain.RegistrationRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return rosterPersistence.NewPostgresRegistrationRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return rosterPersistence.NewSQLiteRegistrationRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return outbox.NewPostgresRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return outbox.NewSQLiteRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Helper methods to get underlying database connections

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
