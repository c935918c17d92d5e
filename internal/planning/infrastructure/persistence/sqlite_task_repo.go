package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
)

const sqliteAcademicTaskColumns = `
	SELECT id, student_id, course_id, task_type, title, description, deadline,
	       status, total_hours, session_hours, dependencies, created_at, updated_at
	FROM academic_tasks
`

const sqliteUpsertAcademicTask = `
	INSERT INTO academic_tasks (
		id, student_id, course_id, task_type, title, description, deadline,
		status, total_hours, session_hours, dependencies, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		course_id = excluded.course_id,
		task_type = excluded.task_type,
		title = excluded.title,
		description = excluded.description,
		deadline = excluded.deadline,
		status = excluded.status,
		total_hours = excluded.total_hours,
		session_hours = excluded.session_hours,
		dependencies = excluded.dependencies,
		updated_at = excluded.updated_at
`

// SQLiteAcademicTaskRepository implements domain.AcademicTaskRepository using
// SQLite.
type SQLiteAcademicTaskRepository struct {
	db *sql.DB
}

// NewSQLiteAcademicTaskRepository creates a new repository.
func NewSQLiteAcademicTaskRepository(db *sql.DB) *SQLiteAcademicTaskRepository {
	return &SQLiteAcademicTaskRepository{db: db}
}

// Save upserts the task.
func (r *SQLiteAcademicTaskRepository) Save(ctx context.Context, task *domain.AcademicTask) error {
	deps := task.Dependencies()
	depStrings := make([]string, len(deps))
	for i, d := range deps {
		depStrings[i] = d.String()
	}
	dependencies, err := json.Marshal(depStrings)
	if err != nil {
		return fmt.Errorf("encode dependencies: %w", err)
	}

	var courseID *string
	if task.CourseID() != uuid.Nil {
		s := task.CourseID().String()
		courseID = &s
	}

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertAcademicTask,
		task.ID().String(),
		task.StudentID().String(),
		courseID,
		string(task.TaskType()),
		task.Title(),
		task.Description(),
		sqliteTime(task.Deadline()),
		string(task.Status()),
		task.TotalHours(),
		task.SessionHours(),
		string(dependencies),
		sqliteTime(task.CreatedAt()),
		sqliteTime(task.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save academic task: %w", err)
	}
	return nil
}

// FindByID loads one task.
func (r *SQLiteAcademicTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AcademicTask, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteAcademicTaskColumns+` WHERE id = ?`, id.String())
	task, err := scanSQLiteAcademicTask(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: academic task %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find academic task: %w", err)
	}
	return task, nil
}

// FindByStudent loads all of a student's tasks, nearest deadline first.
func (r *SQLiteAcademicTaskRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.AcademicTask, error) {
	return r.queryTasks(ctx, sqliteAcademicTaskColumns+` WHERE student_id = ? ORDER BY deadline`, studentID.String())
}

// FindSchedulableByStudent loads tasks still seeding study sessions.
func (r *SQLiteAcademicTaskRepository) FindSchedulableByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.AcademicTask, error) {
	query := sqliteAcademicTaskColumns + ` WHERE student_id = ? AND status IN ('pending', 'in_progress') ORDER BY deadline`
	return r.queryTasks(ctx, query, studentID.String())
}

// Delete removes the task; its study sessions cascade.
func (r *SQLiteAcademicTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM academic_tasks WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete academic task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: academic task %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteAcademicTaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.AcademicTask, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find academic tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.AcademicTask
	for rows.Next() {
		task, err := scanSQLiteAcademicTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan academic task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanSQLiteAcademicTask(scan func(...any) error) (*domain.AcademicTask, error) {
	var (
		id, studentID             string
		courseID                  sql.NullString
		taskType, title, desc     string
		deadline, status          string
		totalHours, sessionHours  float64
		dependenciesJSON          string
		createdAt, updatedAt      string
	)
	err := scan(
		&id, &studentID, &courseID, &taskType, &title, &desc, &deadline,
		&status, &totalHours, &sessionHours, &dependenciesJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var depStrings []string
	if err := json.Unmarshal([]byte(dependenciesJSON), &depStrings); err != nil {
		return nil, fmt.Errorf("decode dependencies: %w", err)
	}
	var dependencies []uuid.UUID
	for _, s := range depStrings {
		dependencies = append(dependencies, parseSQLiteUUID(s))
	}

	course := uuid.Nil
	if courseID.Valid {
		course = parseSQLiteUUID(courseID.String)
	}

	return domain.RehydrateAcademicTask(
		parseSQLiteUUID(id),
		parseSQLiteUUID(studentID),
		course,
		domain.TaskType(taskType),
		title,
		desc,
		parseSQLiteTime(deadline),
		domain.TaskStatus(status),
		totalHours,
		sessionHours,
		dependencies,
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	), nil
}
