package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const academicTaskColumns = `
	SELECT id, student_id, course_id, task_type, title, description, deadline,
	       status, total_hours, session_hours, dependencies, created_at, updated_at
	FROM academic_tasks
`

const upsertAcademicTaskQuery = `
	INSERT INTO academic_tasks (
		id, student_id, course_id, task_type, title, description, deadline,
		status, total_hours, session_hours, dependencies, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		course_id = EXCLUDED.course_id,
		task_type = EXCLUDED.task_type,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		deadline = EXCLUDED.deadline,
		status = EXCLUDED.status,
		total_hours = EXCLUDED.total_hours,
		session_hours = EXCLUDED.session_hours,
		dependencies = EXCLUDED.dependencies,
		updated_at = EXCLUDED.updated_at
`

// PostgresAcademicTaskRepository implements domain.AcademicTaskRepository
// using PostgreSQL.
type PostgresAcademicTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAcademicTaskRepository creates a new repository.
func NewPostgresAcademicTaskRepository(pool *pgxpool.Pool) *PostgresAcademicTaskRepository {
	return &PostgresAcademicTaskRepository{pool: pool}
}

type academicTaskRow struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	CourseID     *uuid.UUID
	TaskType     string
	Title        string
	Description  string
	Deadline     time.Time
	Status       string
	TotalHours   float64
	SessionHours float64
	Dependencies []uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (row academicTaskRow) rehydrate() *domain.AcademicTask {
	courseID := uuid.Nil
	if row.CourseID != nil {
		courseID = *row.CourseID
	}
	return domain.RehydrateAcademicTask(
		row.ID,
		row.StudentID,
		courseID,
		domain.TaskType(row.TaskType),
		row.Title,
		row.Description,
		row.Deadline,
		domain.TaskStatus(row.Status),
		row.TotalHours,
		row.SessionHours,
		row.Dependencies,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

// Save upserts the task.
func (r *PostgresAcademicTaskRepository) Save(ctx context.Context, task *domain.AcademicTask) error {
	var courseID *uuid.UUID
	if task.CourseID() != uuid.Nil {
		id := task.CourseID()
		courseID = &id
	}
	dependencies := task.Dependencies()
	if dependencies == nil {
		dependencies = []uuid.UUID{}
	}

	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err := execer.Exec(ctx, upsertAcademicTaskQuery,
		task.ID(),
		task.StudentID(),
		courseID,
		string(task.TaskType()),
		task.Title(),
		task.Description(),
		task.Deadline(),
		string(task.Status()),
		task.TotalHours(),
		task.SessionHours(),
		dependencies,
		task.CreatedAt(),
		task.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save academic task: %w", err)
	}
	return nil
}

// FindByID loads one task.
func (r *PostgresAcademicTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AcademicTask, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	row, err := scanAcademicTask(execer.QueryRow(ctx, academicTaskColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: academic task %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find academic task: %w", err)
	}
	return row.rehydrate(), nil
}

// FindByStudent loads all of a student's tasks, nearest deadline first.
func (r *PostgresAcademicTaskRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.AcademicTask, error) {
	return r.queryTasks(ctx, academicTaskColumns+` WHERE student_id = $1 ORDER BY deadline`, studentID)
}

// FindSchedulableByStudent loads tasks still seeding study sessions.
func (r *PostgresAcademicTaskRepository) FindSchedulableByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.AcademicTask, error) {
	query := academicTaskColumns + ` WHERE student_id = $1 AND status IN ('pending', 'in_progress') ORDER BY deadline`
	return r.queryTasks(ctx, query, studentID)
}

// Delete removes the task; its study sessions cascade.
func (r *PostgresAcademicTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx, `DELETE FROM academic_tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete academic task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: academic task %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresAcademicTaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.AcademicTask, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find academic tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.AcademicTask
	for rows.Next() {
		row, err := scanAcademicTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan academic task: %w", err)
		}
		tasks = append(tasks, row.rehydrate())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanAcademicTask(row pgx.Row) (academicTaskRow, error) {
	var r academicTaskRow
	err := row.Scan(
		&r.ID,
		&r.StudentID,
		&r.CourseID,
		&r.TaskType,
		&r.Title,
		&r.Description,
		&r.Deadline,
		&r.Status,
		&r.TotalHours,
		&r.SessionHours,
		&r.Dependencies,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
