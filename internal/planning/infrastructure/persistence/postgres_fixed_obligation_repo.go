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

const fixedObligationColumns = `
	SELECT id, student_id, name, description, start_minutes, end_minutes,
	       days_of_week, start_date, end_date, recurrence, priority, course_id,
	       created_at, updated_at
	FROM fixed_obligations
`

const upsertFixedObligationQuery = `
	INSERT INTO fixed_obligations (
		id, student_id, name, description, start_minutes, end_minutes,
		days_of_week, start_date, end_date, recurrence, priority, course_id,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		start_minutes = EXCLUDED.start_minutes,
		end_minutes = EXCLUDED.end_minutes,
		days_of_week = EXCLUDED.days_of_week,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		recurrence = EXCLUDED.recurrence,
		priority = EXCLUDED.priority,
		course_id = EXCLUDED.course_id,
		updated_at = EXCLUDED.updated_at
`

// PostgresFixedObligationRepository implements domain.FixedObligationRepository
// using PostgreSQL.
type PostgresFixedObligationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFixedObligationRepository creates a new repository.
func NewPostgresFixedObligationRepository(pool *pgxpool.Pool) *PostgresFixedObligationRepository {
	return &PostgresFixedObligationRepository{pool: pool}
}

type fixedObligationRow struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	Name         string
	Description  string
	StartMinutes int32
	EndMinutes   int32
	DaysOfWeek   []int32
	StartDate    time.Time
	EndDate      *time.Time
	Recurrence   string
	Priority     int32
	CourseID     *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (row fixedObligationRow) rehydrate() *domain.FixedObligation {
	return domain.RehydrateFixedObligation(
		row.ID,
		row.StudentID,
		row.Name,
		row.Description,
		domain.TimeOfDay(row.StartMinutes),
		domain.TimeOfDay(row.EndMinutes),
		intsToWeekdays(row.DaysOfWeek),
		row.StartDate,
		row.EndDate,
		domain.Recurrence(row.Recurrence),
		int(row.Priority),
		row.CourseID,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

// Save upserts the obligation.
func (r *PostgresFixedObligationRepository) Save(ctx context.Context, obligation *domain.FixedObligation) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err := execer.Exec(ctx, upsertFixedObligationQuery,
		obligation.ID(),
		obligation.StudentID(),
		obligation.Name(),
		obligation.Description(),
		int32(obligation.StartTime()),
		int32(obligation.EndTime()),
		weekdaysToInts(obligation.DaysOfWeek()),
		obligation.StartDate(),
		obligation.EndDate(),
		string(obligation.Recurrence()),
		int32(obligation.Priority()),
		obligation.CourseID(),
		obligation.CreatedAt(),
		obligation.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save fixed obligation: %w", err)
	}
	return nil
}

// FindByID loads one obligation.
func (r *PostgresFixedObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FixedObligation, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	row, err := scanFixedObligation(execer.QueryRow(ctx, fixedObligationColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: fixed obligation %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find fixed obligation: %w", err)
	}
	return row.rehydrate(), nil
}

// FindByStudent loads a student's obligations, oldest first.
func (r *PostgresFixedObligationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.FixedObligation, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, fixedObligationColumns+` WHERE student_id = $1 ORDER BY created_at`, studentID)
	if err != nil {
		return nil, fmt.Errorf("find fixed obligations: %w", err)
	}
	defer rows.Close()

	var obligations []*domain.FixedObligation
	for rows.Next() {
		row, err := scanFixedObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixed obligation: %w", err)
		}
		obligations = append(obligations, row.rehydrate())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obligations, nil
}

// Delete removes the obligation; its calendar events cascade.
func (r *PostgresFixedObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx, `DELETE FROM fixed_obligations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fixed obligation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: fixed obligation %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanFixedObligation(row pgx.Row) (fixedObligationRow, error) {
	var r fixedObligationRow
	err := row.Scan(
		&r.ID,
		&r.StudentID,
		&r.Name,
		&r.Description,
		&r.StartMinutes,
		&r.EndMinutes,
		&r.DaysOfWeek,
		&r.StartDate,
		&r.EndDate,
		&r.Recurrence,
		&r.Priority,
		&r.CourseID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func weekdaysToInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func intsToWeekdays(ints []int32) []time.Weekday {
	out := make([]time.Weekday, len(ints))
	for i, v := range ints {
		out[i] = time.Weekday(v)
	}
	return out
}
