package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
)

const sqliteSessionEventColumns = `
	SELECT id, student_id, task_id, start_time, end_time,
	       estimated_duration_minutes, actual_duration_minutes, completed,
	       self_rating, difficulty, notes, created_at, updated_at
	FROM session_events
`

const sqliteUpsertSessionEvent = `
	INSERT INTO session_events (
		id, student_id, task_id, start_time, end_time,
		estimated_duration_minutes, actual_duration_minutes, completed,
		self_rating, difficulty, notes, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		end_time = excluded.end_time,
		actual_duration_minutes = excluded.actual_duration_minutes,
		completed = excluded.completed,
		self_rating = excluded.self_rating,
		difficulty = excluded.difficulty,
		notes = excluded.notes,
		updated_at = excluded.updated_at
`

// SQLiteSessionEventRepository implements domain.SessionEventRepository using
// SQLite.
type SQLiteSessionEventRepository struct {
	db *sql.DB
}

// NewSQLiteSessionEventRepository creates a new repository.
func NewSQLiteSessionEventRepository(db *sql.DB) *SQLiteSessionEventRepository {
	return &SQLiteSessionEventRepository{db: db}
}

// Save upserts the session.
func (r *SQLiteSessionEventRepository) Save(ctx context.Context, session *domain.SessionEvent) error {
	var taskID *string
	if session.TaskID() != nil {
		s := session.TaskID().String()
		taskID = &s
	}

	_, err := sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertSessionEvent,
		session.ID().String(),
		session.StudentID().String(),
		taskID,
		sqliteTime(session.StartTime()),
		sqliteTimePtr(session.EndTime()),
		session.EstimatedMinutes(),
		session.ActualMinutes(),
		session.Completed(),
		session.SelfRating(),
		session.Difficulty(),
		session.Notes(),
		sqliteTime(session.CreatedAt()),
		sqliteTime(session.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// FindByID loads one session.
func (r *SQLiteSessionEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SessionEvent, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteSessionEventColumns+` WHERE id = ?`, id.String())
	session, err := scanSQLiteSessionEvent(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: session event %s", planningDomain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find session event: %w", err)
	}
	return session, nil
}

// FindCompletedByStudent returns finalized completed sessions started at or
// after since, ordered by start time ascending.
func (r *SQLiteSessionEventRepository) FindCompletedByStudent(ctx context.Context, studentID uuid.UUID, since time.Time) ([]*domain.SessionEvent, error) {
	query := sqliteSessionEventColumns + `
		WHERE student_id = ? AND completed AND end_time IS NOT NULL AND start_time >= ?
		ORDER BY start_time
	`
	return r.querySessions(ctx, query, studentID.String(), sqliteTime(since))
}

// FindRecentFinalized returns the most recent finalized sessions, newest first.
func (r *SQLiteSessionEventRepository) FindRecentFinalized(ctx context.Context, studentID uuid.UUID, limit int) ([]*domain.SessionEvent, error) {
	query := sqliteSessionEventColumns + `
		WHERE student_id = ? AND end_time IS NOT NULL
		ORDER BY start_time DESC
		LIMIT ?
	`
	return r.querySessions(ctx, query, studentID.String(), limit)
}

func (r *SQLiteSessionEventRepository) querySessions(ctx context.Context, query string, args ...any) ([]*domain.SessionEvent, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find session events: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.SessionEvent
	for rows.Next() {
		session, err := scanSQLiteSessionEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSQLiteSessionEvent(scan func(...any) error) (*domain.SessionEvent, error) {
	var (
		id, studentID          string
		taskID                 sql.NullString
		startTime              string
		endTime                sql.NullString
		estimatedMinutes       int
		actualMinutes          sql.NullInt64
		completed              bool
		selfRating, difficulty sql.NullInt64
		notes                  string
		createdAt, updatedAt   string
	)
	err := scan(
		&id, &studentID, &taskID, &startTime, &endTime, &estimatedMinutes,
		&actualMinutes, &completed, &selfRating, &difficulty, &notes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateSessionEvent(
		parseSQLiteUUID(id),
		parseSQLiteUUID(studentID),
		parseSQLiteUUIDPtr(taskID),
		parseSQLiteTime(startTime),
		parseSQLiteTimePtr(endTime),
		estimatedMinutes,
		nullIntPtr(actualMinutes),
		completed,
		nullIntPtr(selfRating),
		nullIntPtr(difficulty),
		notes,
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	), nil
}
