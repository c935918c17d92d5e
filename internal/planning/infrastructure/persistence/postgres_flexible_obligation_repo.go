package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const flexibleObligationColumns = `
	SELECT id, student_id, name, description, weekly_target_hours, constraints,
	       start_date, end_date, priority, created_at, updated_at
	FROM flexible_obligations
`

const upsertFlexibleObligationQuery = `
	INSERT INTO flexible_obligations (
		id, student_id, name, description, weekly_target_hours, constraints,
		start_date, end_date, priority, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		weekly_target_hours = EXCLUDED.weekly_target_hours,
		constraints = EXCLUDED.constraints,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		priority = EXCLUDED.priority,
		updated_at = EXCLUDED.updated_at
`

// PostgresFlexibleObligationRepository implements
// domain.FlexibleObligationRepository using PostgreSQL.
type PostgresFlexibleObligationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFlexibleObligationRepository creates a new repository.
func NewPostgresFlexibleObligationRepository(pool *pgxpool.Pool) *PostgresFlexibleObligationRepository {
	return &PostgresFlexibleObligationRepository{pool: pool}
}

type flexibleObligationRow struct {
	ID                uuid.UUID
	StudentID         uuid.UUID
	Name              string
	Description       string
	WeeklyTargetHours float64
	Constraints       []byte
	StartDate         *time.Time
	EndDate           *time.Time
	Priority          int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (row flexibleObligationRow) rehydrate() (*domain.FlexibleObligation, error) {
	var constraints domain.Constraints
	if len(row.Constraints) > 0 {
		if err := json.Unmarshal(row.Constraints, &constraints); err != nil {
			return nil, fmt.Errorf("decode constraints: %w", err)
		}
	}
	return domain.RehydrateFlexibleObligation(
		row.ID,
		row.StudentID,
		row.Name,
		row.Description,
		row.WeeklyTargetHours,
		constraints,
		row.StartDate,
		row.EndDate,
		int(row.Priority),
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

// Save upserts the obligation.
func (r *PostgresFlexibleObligationRepository) Save(ctx context.Context, obligation *domain.FlexibleObligation) error {
	constraints, err := json.Marshal(obligation.Constraints())
	if err != nil {
		return fmt.Errorf("encode constraints: %w", err)
	}

	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err = execer.Exec(ctx, upsertFlexibleObligationQuery,
		obligation.ID(),
		obligation.StudentID(),
		obligation.Name(),
		obligation.Description(),
		obligation.WeeklyTargetHours(),
		constraints,
		obligation.StartDate(),
		obligation.EndDate(),
		int32(obligation.Priority()),
		obligation.CreatedAt(),
		obligation.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save flexible obligation: %w", err)
	}
	return nil
}

// FindByID loads one obligation.
func (r *PostgresFlexibleObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FlexibleObligation, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	row, err := scanFlexibleObligation(execer.QueryRow(ctx, flexibleObligationColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: flexible obligation %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find flexible obligation: %w", err)
	}
	return row.rehydrate()
}

// FindByStudent loads a student's obligations, oldest first.
func (r *PostgresFlexibleObligationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.FlexibleObligation, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, flexibleObligationColumns+` WHERE student_id = $1 ORDER BY created_at`, studentID)
	if err != nil {
		return nil, fmt.Errorf("find flexible obligations: %w", err)
	}
	defer rows.Close()

	var obligations []*domain.FlexibleObligation
	for rows.Next() {
		row, err := scanFlexibleObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flexible obligation: %w", err)
		}
		obligation, err := row.rehydrate()
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, obligation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obligations, nil
}

// Delete removes the obligation; its calendar events cascade.
func (r *PostgresFlexibleObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx, `DELETE FROM flexible_obligations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flexible obligation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: flexible obligation %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanFlexibleObligation(row pgx.Row) (flexibleObligationRow, error) {
	var r flexibleObligationRow
	err := row.Scan(
		&r.ID,
		&r.StudentID,
		&r.Name,
		&r.Description,
		&r.WeeklyTargetHours,
		&r.Constraints,
		&r.StartDate,
		&r.EndDate,
		&r.Priority,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
