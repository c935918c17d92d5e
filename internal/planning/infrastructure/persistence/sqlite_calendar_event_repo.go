package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const sqliteCalendarEventColumns = `
	SELECT id, student_id, event_type, fixed_obligation_id, flexible_obligation_id,
	       task_id, course_id, date, start_time, end_time, priority, status,
	       created_at, updated_at
	FROM calendar_events
`

const sqliteUpsertCalendarEvent = `
	INSERT INTO calendar_events (
		id, student_id, event_type, fixed_obligation_id, flexible_obligation_id,
		task_id, course_id, date, start_time, end_time, priority, status,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		date = excluded.date,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		priority = excluded.priority,
		status = excluded.status,
		updated_at = excluded.updated_at
`

// SQLiteCalendarEventRepository implements domain.CalendarEventRepository
// using SQLite.
type SQLiteCalendarEventRepository struct {
	db *sql.DB
}

// NewSQLiteCalendarEventRepository creates a new repository.
func NewSQLiteCalendarEventRepository(db *sql.DB) *SQLiteCalendarEventRepository {
	return &SQLiteCalendarEventRepository{db: db}
}

func insertSQLiteCalendarEvent(ctx context.Context, ex sqliteExecer, event *domain.CalendarEvent) error {
	fixed, flexible, task, course := refToColumns(event.Ref())
	_, err := ex.ExecContext(ctx, sqliteUpsertCalendarEvent,
		event.ID().String(),
		event.StudentID().String(),
		string(event.Type()),
		sqliteUUIDPtr(fixed),
		sqliteUUIDPtr(flexible),
		sqliteUUIDPtr(task),
		sqliteUUIDPtr(course),
		sqliteTime(event.Date()),
		sqliteTime(event.StartTime()),
		sqliteTime(event.EndTime()),
		event.Priority(),
		string(event.Status()),
		sqliteTime(event.CreatedAt()),
		sqliteTime(event.UpdatedAt()),
	)
	return err
}

// Save upserts one event.
func (r *SQLiteCalendarEventRepository) Save(ctx context.Context, event *domain.CalendarEvent) error {
	if err := insertSQLiteCalendarEvent(ctx, sqliteExec(ctx, r.db), event); err != nil {
		return fmt.Errorf("save calendar event: %w", err)
	}
	return nil
}

// SaveBatch stores many events atomically.
func (r *SQLiteCalendarEventRepository) SaveBatch(ctx context.Context, events []*domain.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		for _, event := range events {
			if err := insertSQLiteCalendarEvent(ctx, info.Tx, event); err != nil {
				return fmt.Errorf("save calendar event: %w", err)
			}
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, event := range events {
		if err := insertSQLiteCalendarEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("save calendar event: %w", err)
		}
	}

	return tx.Commit()
}

// FindByID loads one event.
func (r *SQLiteCalendarEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarEvent, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteCalendarEventColumns+` WHERE id = ?`, id.String())
	event, err := scanSQLiteCalendarEvent(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: calendar event %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find calendar event: %w", err)
	}
	return event, nil
}

// FindByStudent loads a student's full calendar ordered by start time.
func (r *SQLiteCalendarEventRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.CalendarEvent, error) {
	return r.queryEvents(ctx, sqliteCalendarEventColumns+` WHERE student_id = ? ORDER BY start_time`, studentID.String())
}

// FindByStudentInRange loads events overlapping [from, to).
func (r *SQLiteCalendarEventRepository) FindByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	query := sqliteCalendarEventColumns + ` WHERE student_id = ? AND start_time < ? AND end_time > ? ORDER BY start_time`
	return r.queryEvents(ctx, query, studentID.String(), sqliteTime(to), sqliteTime(from))
}

// DeleteFutureByRef removes events for the referenced source starting at or
// after the cutoff.
func (r *SQLiteCalendarEventRepository) DeleteFutureByRef(ctx context.Context, ref domain.EventRef, cutoff time.Time) (int64, error) {
	column, err := refColumn(ref.Type)
	if err != nil {
		return 0, err
	}
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = ? AND start_time >= ?`, column),
		ref.ID.String(), sqliteTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete future calendar events: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByRef removes every event for the referenced source.
func (r *SQLiteCalendarEventRepository) DeleteByRef(ctx context.Context, ref domain.EventRef) (int64, error) {
	column, err := refColumn(ref.Type)
	if err != nil {
		return 0, err
	}
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = ?`, column),
		ref.ID.String())
	if err != nil {
		return 0, fmt.Errorf("delete calendar events: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByRefForStudent removes one student's events for the referenced source.
func (r *SQLiteCalendarEventRepository) DeleteByRefForStudent(ctx context.Context, ref domain.EventRef, studentID uuid.UUID) (int64, error) {
	column, err := refColumn(ref.Type)
	if err != nil {
		return 0, err
	}
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM calendar_events WHERE %s = ? AND student_id = ?`, column),
		ref.ID.String(), studentID.String())
	if err != nil {
		return 0, fmt.Errorf("delete calendar events: %w", err)
	}
	return result.RowsAffected()
}

// DeletePlaceableByStudent clears the scheduler-owned events before a re-place.
func (r *SQLiteCalendarEventRepository) DeletePlaceableByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx,
		`DELETE FROM calendar_events WHERE student_id = ? AND event_type IN ('flexible_obligation', 'study_session')`,
		studentID.String())
	if err != nil {
		return 0, fmt.Errorf("delete placeable calendar events: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes one event.
func (r *SQLiteCalendarEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

func (r *SQLiteCalendarEventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.CalendarEvent, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find calendar events: %w", err)
	}
	defer rows.Close()

	var events []*domain.CalendarEvent
	for rows.Next() {
		event, err := scanSQLiteCalendarEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func scanSQLiteCalendarEvent(scan func(...any) error) (*domain.CalendarEvent, error) {
	var (
		id, studentID, eventType       string
		fixedID, flexibleID            sql.NullString
		taskID, courseID               sql.NullString
		date, startTime, endTime       string
		priority                       int
		status                         string
		createdAt, updatedAt           string
	)
	err := scan(
		&id, &studentID, &eventType, &fixedID, &flexibleID, &taskID, &courseID,
		&date, &startTime, &endTime, &priority, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ref, err := refFromColumns(
		domain.EventType(eventType),
		parseSQLiteUUIDPtr(fixedID),
		parseSQLiteUUIDPtr(flexibleID),
		parseSQLiteUUIDPtr(taskID),
		parseSQLiteUUIDPtr(courseID),
	)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCalendarEvent(
		parseSQLiteUUID(id),
		parseSQLiteUUID(studentID),
		ref,
		parseSQLiteTime(date),
		parseSQLiteTime(startTime),
		parseSQLiteTime(endTime),
		priority,
		domain.EventStatus(status),
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	), nil
}
