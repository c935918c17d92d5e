package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const registrationColumns = `
	SELECT id, student_id, course_id, registered_at, created_at, updated_at
	FROM student_courses
`

const insertRegistrationQuery = `
	INSERT INTO student_courses (id, student_id, course_id, registered_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (student_id, course_id) DO NOTHING
`

// PostgresRegistrationRepository implements domain.RegistrationRepository
// using PostgreSQL.
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistrationRepository creates a new repository.
func NewPostgresRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// Save stores the registration. The unique pair constraint makes a duplicate
// registration a silent no-op; callers check for an existing pair first.
func (r *PostgresRegistrationRepository) Save(ctx context.Context, registration *domain.Registration) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err := execer.Exec(ctx, insertRegistrationQuery,
		registration.ID(),
		registration.StudentID(),
		registration.CourseID(),
		registration.RegisteredAt(),
		registration.CreatedAt(),
		registration.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

// FindByStudentAndCourse loads the registration for one pair.
func (r *PostgresRegistrationRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Registration, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	registration, err := scanRegistration(execer.QueryRow(ctx,
		registrationColumns+` WHERE student_id = $1 AND course_id = $2`, studentID, courseID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: registration for student %s course %s", planningDomain.ErrNotFound, studentID, courseID)
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return registration, nil
}

// FindByStudent loads all of a student's registrations, oldest first.
func (r *PostgresRegistrationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Registration, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, registrationColumns+` WHERE student_id = $1 ORDER BY registered_at`, studentID)
	if err != nil {
		return nil, fmt.Errorf("find registrations: %w", err)
	}
	defer rows.Close()

	var registrations []*domain.Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		registrations = append(registrations, registration)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

// Delete removes the registration.
func (r *PostgresRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx, `DELETE FROM student_courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: registration %s", planningDomain.ErrNotFound, id)
	}
	return nil
}

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var (
		id, studentID, courseID uuid.UUID
		registeredAt            time.Time
		createdAt, updatedAt    time.Time
	)
	if err := row.Scan(&id, &studentID, &courseID, &registeredAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateRegistration(id, studentID, courseID, registeredAt, createdAt, updatedAt), nil
}
