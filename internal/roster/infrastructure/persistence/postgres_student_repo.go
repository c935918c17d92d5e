package persistence

import (
	"context"
	"encoding/json"
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

const studentColumns = `
	SELECT id, name, email, program, year, preferences, created_at, updated_at
	FROM students
`

const upsertStudentQuery = `
	INSERT INTO students (id, name, email, program, year, preferences, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		program = EXCLUDED.program,
		year = EXCLUDED.year,
		preferences = EXCLUDED.preferences,
		updated_at = EXCLUDED.updated_at
`

// PostgresStudentRepository implements domain.StudentRepository using
// PostgreSQL.
type PostgresStudentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStudentRepository creates a new repository.
func NewPostgresStudentRepository(pool *pgxpool.Pool) *PostgresStudentRepository {
	return &PostgresStudentRepository{pool: pool}
}

// Save upserts the student.
func (r *PostgresStudentRepository) Save(ctx context.Context, student *domain.Student) error {
	preferences, err := json.Marshal(student.Preferences())
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err = execer.Exec(ctx, upsertStudentQuery,
		student.ID(),
		student.Name(),
		student.Email(),
		student.Program(),
		int32(student.Year()),
		preferences,
		student.CreatedAt(),
		student.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

// FindByID loads one student.
func (r *PostgresStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	student, err := scanStudent(execer.QueryRow(ctx, studentColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: student %s", planningDomain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

// FindByEmail loads a student by their unique email.
func (r *PostgresStudentRepository) FindByEmail(ctx context.Context, email string) (*domain.Student, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	student, err := scanStudent(execer.QueryRow(ctx, studentColumns+` WHERE email = $1`, email))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: student with email %s", planningDomain.ErrNotFound, email)
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

// Delete removes the student; all owned rows cascade.
func (r *PostgresStudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: student %s", planningDomain.ErrNotFound, id)
	}
	return nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var (
		id                   uuid.UUID
		name, email, program string
		year                 int32
		preferencesJSON      []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &email, &program, &year, &preferencesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var preferences domain.Preferences
	if len(preferencesJSON) > 0 {
		if err := json.Unmarshal(preferencesJSON, &preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}

	return domain.RehydrateStudent(id, name, email, program, int(year), preferences, createdAt, updatedAt), nil
}
