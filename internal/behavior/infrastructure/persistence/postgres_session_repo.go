package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const sessionEventColumns = `
	SELECT id, student_id, task_id, start_time, end_time,
	       estimated_duration_minutes, actual_duration_minutes, completed,
	       self_rating, difficulty, notes, created_at, updated_at
	FROM session_events
`

const upsertSessionEventQuery = `
	INSERT INTO session_events (
		id, student_id, task_id, start_time, end_time,
		estimated_duration_minutes, actual_duration_minutes, completed,
		self_rating, difficulty, notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		end_time = EXCLUDED.end_time,
		actual_duration_minutes = EXCLUDED.actual_duration_minutes,
		completed = EXCLUDED.completed,
		self_rating = EXCLUDED.self_rating,
		difficulty = EXCLUDED.difficulty,
		notes = EXCLUDED.notes,
		updated_at = EXCLUDED.updated_at
`

// PostgresSessionEventRepository implements domain.SessionEventRepository
// using PostgreSQL.
type PostgresSessionEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionEventRepository creates a new repository.
func NewPostgresSessionEventRepository(pool *pgxpool.Pool) *PostgresSessionEventRepository {
	return &PostgresSessionEventRepository{pool: pool}
}

type sessionEventRow struct {
	ID               uuid.UUID
	StudentID        uuid.UUID
	TaskID           *uuid.UUID
	StartTime        time.Time
	EndTime          *time.Time
	EstimatedMinutes int32
	ActualMinutes    *int32
	Completed        bool
	SelfRating       *int32
	Difficulty       *int32
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (row sessionEventRow) rehydrate() *domain.SessionEvent {
	return domain.RehydrateSessionEvent(
		row.ID,
		row.StudentID,
		row.TaskID,
		row.StartTime,
		row.EndTime,
		int(row.EstimatedMinutes),
		int32PtrToInt(row.ActualMinutes),
		row.Completed,
		int32PtrToInt(row.SelfRating),
		int32PtrToInt(row.Difficulty),
		row.Notes,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

func int32PtrToInt(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func intPtrToInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}

// Save upserts the session.
func (r *PostgresSessionEventRepository) Save(ctx context.Context, session *domain.SessionEvent) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err := execer.Exec(ctx, upsertSessionEventQuery,
		session.ID(),
		session.StudentID(),
		session.TaskID(),
		session.StartTime(),
		session.EndTime(),
		int32(session.EstimatedMinutes()),
		intPtrToInt32(session.ActualMinutes()),
		session.Completed(),
		intPtrToInt32(session.SelfRating()),
		intPtrToInt32(session.Difficulty()),
		session.Notes(),
		session.CreatedAt(),
		session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// FindByID loads one session.
func (r *PostgresSessionEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SessionEvent, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	row, err := scanSessionEvent(execer.QueryRow(ctx, sessionEventColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: session event %s", planningDomain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find session event: %w", err)
	}
	return row.rehydrate(), nil
}

// FindCompletedByStudent returns finalized completed sessions started at or
// after since, ordered by start time ascending.
func (r *PostgresSessionEventRepository) FindCompletedByStudent(ctx context.Context, studentID uuid.UUID, since time.Time) ([]*domain.SessionEvent, error) {
	query := sessionEventColumns + `
		WHERE student_id = $1 AND completed AND end_time IS NOT NULL AND start_time >= $2
		ORDER BY start_time
	`
	return r.querySessions(ctx, query, studentID, since)
}

// FindRecentFinalized returns the most recent finalized sessions, newest first.
func (r *PostgresSessionEventRepository) FindRecentFinalized(ctx context.Context, studentID uuid.UUID, limit int) ([]*domain.SessionEvent, error) {
	query := sessionEventColumns + `
		WHERE student_id = $1 AND end_time IS NOT NULL
		ORDER BY start_time DESC
		LIMIT $2
	`
	return r.querySessions(ctx, query, studentID, limit)
}

func (r *PostgresSessionEventRepository) querySessions(ctx context.Context, query string, args ...any) ([]*domain.SessionEvent, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find session events: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.SessionEvent
	for rows.Next() {
		row, err := scanSessionEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		sessions = append(sessions, row.rehydrate())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSessionEvent(row pgx.Row) (sessionEventRow, error) {
	var r sessionEventRow
	err := row.Scan(
		&r.ID,
		&r.StudentID,
		&r.TaskID,
		&r.StartTime,
		&r.EndTime,
		&r.EstimatedMinutes,
		&r.ActualMinutes,
		&r.Completed,
		&r.SelfRating,
		&r.Difficulty,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
