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

const calendarEventColumns = `
	SELECT id, student_id, event_type, fixed_obligation_id, flexible_obligation_id,
	       task_id, course_id, date, start_time, end_time, priority, status,
	       created_at, updated_at
	FROM calendar_events
`

const upsertCalendarEventQuery = `
	INSERT INTO calendar_events (
		id, student_id, event_type, fixed_obligation_id, flexible_obligation_id,
		task_id, course_id, date, start_time, end_time, priority, status,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE SET
		date = EXCLUDED.date,
		start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time,
		priority = EXCLUDED.priority,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at
`

// PostgresCalendarEventRepository implements domain.CalendarEventRepository
// using PostgreSQL.
type PostgresCalendarEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCalendarEventRepository creates a new repository.
func NewPostgresCalendarEventRepository(pool *pgxpool.Pool) *PostgresCalendarEventRepository {
	return &PostgresCalendarEventRepository{pool: pool}
}

type calendarEventRow struct {
	ID                   uuid.UUID
	StudentID            uuid.UUID
	EventType            string
	FixedObligationID    *uuid.UUID
	FlexibleObligationID *uuid.UUID
	TaskID               *uuid.UUID
	CourseID             *uuid.UUID
	Date                 time.Time
	StartTime            time.Time
	EndTime              time.Time
	Priority             int32
	Status               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (row calendarEventRow) rehydrate() (*domain.CalendarEvent, error) {
	ref, err := refFromColumns(domain.EventType(row.EventType), row.FixedObligationID, row.FlexibleObligationID, row.TaskID, row.CourseID)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateCalendarEvent(
		row.ID,
		row.StudentID,
		ref,
		row.Date,
		row.StartTime,
		row.EndTime,
		int(row.Priority),
		domain.EventStatus(row.Status),
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

// refColumn maps an event type to the variant column holding its reference.
func refColumn(t domain.EventType) (string, error) {
	switch t {
	case domain.EventFixedObligation:
		return "fixed_obligation_id", nil
	case domain.EventFlexibleObligation:
		return "flexible_obligation_id", nil
	case domain.EventStudySession:
		return "task_id", nil
	case domain.EventCourseLecture:
		return "course_id", nil
	default:
		return "", fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, t)
	}
}

func refToColumns(ref domain.EventRef) (fixed, flexible, task, course *uuid.UUID) {
	id := ref.ID
	switch ref.Type {
	case domain.EventFixedObligation:
		fixed = &id
	case domain.EventFlexibleObligation:
		flexible = &id
	case domain.EventStudySession:
		task = &id
	case domain.EventCourseLecture:
		course = &id
	}
	return fixed, flexible, task, course
}

func refFromColumns(t domain.EventType, fixed, flexible, task, course *uuid.UUID) (domain.EventRef, error) {
	var id *uuid.UUID
	switch t {
	case domain.EventFixedObligation:
		id = fixed
	case domain.EventFlexibleObligation:
		id = flexible
	case domain.EventStudySession:
		id = task
	case domain.EventCourseLecture:
		id = course
	default:
		return domain.EventRef{}, fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, t)
	}
	if id == nil {
		return domain.EventRef{}, fmt.Errorf("%w: event of type %q has no reference", domain.ErrInvalidInput, t)
	}
	return domain.EventRef{Type: t, ID: *id}, nil
}

func insertCalendarEvent(ctx context.Context, execer sharedPersistence.DBExecutor, event *domain.CalendarEvent) error {
	fixed, flexible, task, course := refToColumns(event.Ref())
	_, err := execer.Exec(ctx, upsertCalendarEventQuery,
		event.ID(),
		event.StudentID(),
		string(event.Type()),
		fixed,
		flexible,
		task,
		course,
		event.Date(),
		event.StartTime(),
		event.EndTime(),
		int32(event.Priority()),
		string(event.Status()),
		event.CreatedAt(),
		event.UpdatedAt(),
	)
	return err
}

// Save upserts one event.
func (r *PostgresCalendarEventRepository) Save(ctx context.Context, event *domain.CalendarEvent) error {
	if err := insertCalendarEvent(ctx, sharedPersistence.Executor(ctx, r.pool), event); err != nil {
		return fmt.Errorf("save calendar event: %w", err)
	}
	return nil
}

// SaveBatch stores many events atomically.
func (r *PostgresCalendarEventRepository) SaveBatch(ctx context.Context, events []*domain.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	if info, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		for _, event := range events {
			if err := insertCalendarEvent(ctx, info.Tx, event); err != nil {
				return fmt.Errorf("save calendar event: %w", err)
			}
		}
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, event := range events {
		if err := insertCalendarEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("save calendar event: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// FindByID loads one event.
func (r *PostgresCalendarEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarEvent, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	row, err := scanCalendarEvent(execer.QueryRow(ctx, calendarEventColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: calendar event %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find calendar event: %w", err)
	}
	return row.rehydrate()
}

// FindByStudent loads a student's full calendar ordered by start time.
func (r *PostgresCalendarEventRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.CalendarEvent, error) {
	return r.queryEvents(ctx, calendarEventColumns+` WHERE student_id = $1 ORDER BY start_time`, studentID)
}

// FindByStudentInRange loads events overlapping [from, to).
func (r *PostgresCalendarEventRepository) FindByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	query := calendarEventColumns + ` WHERE student_id = $1 AND start_time < $3 AND end_time > $2 ORDER BY start_time`
	return r.queryEvents(ctx, query, studentID, from, to)
}

// DeleteFutureByRef removes events for the referenced source starting at or
// after the cutoff.
func (r *PostgresCalendarEventRepository) DeleteFutureByRef(ctx context.Context, ref domain.EventRef, cutoff time.Time) (int64, error) {
	column, err := refColumn(ref.Type)
	if err != nil {
		return 0, err
	}
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx,
		fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = $1 AND start_time >= $2`, column),
		ref.ID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete future calendar events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByRef removes every event for the referenced source.
func (r *PostgresCalendarEventRepository) DeleteByRef(ctx context.Context, ref domain.EventRef) (int64, error) {
	column, err := refColumn(ref.Type)
	if err != nil {
		return 0, err
	}
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx,
		fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = $1`, column),
		ref.ID)
	if err != nil {
		return 0, fmt.Errorf("delete calendar events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByRefForStudent removes one student's events for the referenced source.
func (r *PostgresCalendarEventRepository) DeleteByRefForStudent(ctx context.Context, ref domain.EventRef, studentID uuid.UUID) (int64, error) {
	column, err := refColumn(ref.Type)
	if err != nil {
		return 0, err
	}
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx,
		fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = $1 AND student_id = $2`, column),
		ref.ID, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete calendar events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeletePlaceableByStudent clears the scheduler-owned events before a re-place.
func (r *PostgresCalendarEventRepository) DeletePlaceableByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx,
		`DELETE FROM calendar_events WHERE student_id = $1 AND event_type IN ('flexible_obligation', 'study_session')`,
		studentID)
	if err != nil {
		return 0, fmt.Errorf("delete placeable calendar events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes one event.
func (r *PostgresCalendarEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	if _, err := execer.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

func (r *PostgresCalendarEventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.CalendarEvent, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find calendar events: %w", err)
	}
	defer rows.Close()

	var events []*domain.CalendarEvent
	for rows.Next() {
		row, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		event, err := row.rehydrate()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func scanCalendarEvent(row pgx.Row) (calendarEventRow, error) {
	var r calendarEventRow
	err := row.Scan(
		&r.ID,
		&r.StudentID,
		&r.EventType,
		&r.FixedObligationID,
		&r.FlexibleObligationID,
		&r.TaskID,
		&r.CourseID,
		&r.Date,
		&r.StartTime,
		&r.EndTime,
		&r.Priority,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
