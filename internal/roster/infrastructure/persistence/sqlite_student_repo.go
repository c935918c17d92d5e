package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
)

const sqliteStudentColumns = `
	SELECT id, name, email, program, year, preferences, created_at, updated_at
	FROM students
`

const sqliteUpsertStudent = `
	INSERT INTO students (id, name, email, program, year, preferences, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		program = excluded.program,
		year = excluded.year,
		preferences = excluded.preferences,
		updated_at = excluded.updated_at
`

// SQLiteStudentRepository implements domain.StudentRepository using SQLite.
type SQLiteStudentRepository struct {
	db *sql.DB
}

// NewSQLiteStudentRepository creates a new repository.
func NewSQLiteStudentRepository(db *sql.DB) *SQLiteStudentRepository {
	return &SQLiteStudentRepository{db: db}
}

// Save upserts the student.
func (r *SQLiteStudentRepository) Save(ctx context.Context, student *domain.Student) error {
	preferences, err := json.Marshal(student.Preferences())
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertStudent,
		student.ID().String(),
		student.Name(),
		student.Email(),
		student.Program(),
		student.Year(),
		string(preferences),
		sqliteTime(student.CreatedAt()),
		sqliteTime(student.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

// FindByID loads one student.
func (r *SQLiteStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteStudentColumns+` WHERE id = ?`, id.String())
	student, err := scanSQLiteStudent(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: student %s", planningDomain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

// FindByEmail loads a student by their unique email.
func (r *SQLiteStudentRepository) FindByEmail(ctx context.Context, email string) (*domain.Student, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteStudentColumns+` WHERE email = ?`, email)
	student, err := scanSQLiteStudent(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: student with email %s", planningDomain.ErrNotFound, email)
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

// Delete removes the student; all owned rows cascade.
func (r *SQLiteStudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: student %s", planningDomain.ErrNotFound, id)
	}
	return nil
}

func scanSQLiteStudent(scan func(...any) error) (*domain.Student, error) {
	var (
		id, name, email, program string
		year                     int
		preferencesJSON          string
		createdAt, updatedAt     string
	)
	if err := scan(&id, &name, &email, &program, &year, &preferencesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var preferences domain.Preferences
	if err := json.Unmarshal([]byte(preferencesJSON), &preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}

	return domain.RehydrateStudent(
		parseSQLiteUUID(id), name, email, program, year, preferences,
		parseSQLiteTime(createdAt), parseSQLiteTime(updatedAt),
	), nil
}
