package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
)

const sqliteRegistrationColumns = `
	SELECT id, student_id, course_id, registered_at, created_at, updated_at
	FROM student_courses
`

const sqliteInsertRegistration = `
	INSERT INTO student_courses (id, student_id, course_id, registered_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (student_id, course_id) DO NOTHING
`

// SQLiteRegistrationRepository implements domain.RegistrationRepository using
// SQLite.
type SQLiteRegistrationRepository struct {
	db *sql.DB
}

// NewSQLiteRegistrationRepository creates a new repository.
func NewSQLiteRegistrationRepository(db *sql.DB) *SQLiteRegistrationRepository {
	return &SQLiteRegistrationRepository{db: db}
}

// Save stores the registration. The unique pair constraint makes a duplicate
// registration a silent no-op; callers check for an existing pair first.
func (r *SQLiteRegistrationRepository) Save(ctx context.Context, registration *domain.Registration) error {
	_, err := sqliteExec(ctx, r.db).ExecContext(ctx, sqliteInsertRegistration,
		registration.ID().String(),
		registration.StudentID().String(),
		registration.CourseID().String(),
		sqliteTime(registration.RegisteredAt()),
		sqliteTime(registration.CreatedAt()),
		sqliteTime(registration.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

// FindByStudentAndCourse loads the registration for one pair.
func (r *SQLiteRegistrationRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Registration, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx,
		sqliteRegistrationColumns+` WHERE student_id = ? AND course_id = ?`,
		studentID.String(), courseID.String())
	registration, err := scanSQLiteRegistration(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: registration for student %s course %s", planningDomain.ErrNotFound, studentID, courseID)
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return registration, nil
}

// FindByStudent loads all of a student's registrations, oldest first.
func (r *SQLiteRegistrationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Registration, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx,
		sqliteRegistrationColumns+` WHERE student_id = ? ORDER BY registered_at`, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("find registrations: %w", err)
	}
	defer rows.Close()

	var registrations []*domain.Registration
	for rows.Next() {
		registration, err := scanSQLiteRegistration(rows.Scan)
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
func (r *SQLiteRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM student_courses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: registration %s", planningDomain.ErrNotFound, id)
	}
	return nil
}

func scanSQLiteRegistration(scan func(...any) error) (*domain.Registration, error) {
	var (
		id, studentID, courseID string
		registeredAt            string
		createdAt, updatedAt    string
	)
	if err := scan(&id, &studentID, &courseID, &registeredAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateRegistration(
		parseSQLiteUUID(id),
		parseSQLiteUUID(studentID),
		parseSQLiteUUID(courseID),
		parseSQLiteTime(registeredAt),
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	), nil
}
