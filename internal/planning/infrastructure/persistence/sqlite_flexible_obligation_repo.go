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

const sqliteFlexibleObligationColumns = `
	SELECT id, student_id, name, description, weekly_target_hours, constraints,
	       start_date, end_date, priority, created_at, updated_at
	FROM flexible_obligations
`

const sqliteUpsertFlexibleObligation = `
	INSERT INTO flexible_obligations (
		id, student_id, name, description, weekly_target_hours, constraints,
		start_date, end_date, priority, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		weekly_target_hours = excluded.weekly_target_hours,
		constraints = excluded.constraints,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		priority = excluded.priority,
		updated_at = excluded.updated_at
`

// SQLiteFlexibleObligationRepository implements
// domain.FlexibleObligationRepository using SQLite.
type SQLiteFlexibleObligationRepository struct {
	db *sql.DB
}

// NewSQLiteFlexibleObligationRepository creates a new repository.
func NewSQLiteFlexibleObligationRepository(db *sql.DB) *SQLiteFlexibleObligationRepository {
	return &SQLiteFlexibleObligationRepository{db: db}
}

// Save upserts the obligation.
func (r *SQLiteFlexibleObligationRepository) Save(ctx context.Context, obligation *domain.FlexibleObligation) error {
	constraints, err := json.Marshal(obligation.Constraints())
	if err != nil {
		return fmt.Errorf("encode constraints: %w", err)
	}

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertFlexibleObligation,
		obligation.ID().String(),
		obligation.StudentID().String(),
		obligation.Name(),
		obligation.Description(),
		obligation.WeeklyTargetHours(),
		string(constraints),
		sqliteTimePtr(obligation.StartDate()),
		sqliteTimePtr(obligation.EndDate()),
		obligation.Priority(),
		sqliteTime(obligation.CreatedAt()),
		sqliteTime(obligation.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save flexible obligation: %w", err)
	}
	return nil
}

// FindByID loads one obligation.
func (r *SQLiteFlexibleObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FlexibleObligation, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteFlexibleObligationColumns+` WHERE id = ?`, id.String())
	obligation, err := scanSQLiteFlexibleObligation(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: flexible obligation %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find flexible obligation: %w", err)
	}
	return obligation, nil
}

// FindByStudent loads a student's obligations, oldest first.
func (r *SQLiteFlexibleObligationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.FlexibleObligation, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx,
		sqliteFlexibleObligationColumns+` WHERE student_id = ? ORDER BY created_at`, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("find flexible obligations: %w", err)
	}
	defer rows.Close()

	var obligations []*domain.FlexibleObligation
	for rows.Next() {
		obligation, err := scanSQLiteFlexibleObligation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan flexible obligation: %w", err)
		}
		obligations = append(obligations, obligation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obligations, nil
}

// Delete removes the obligation; its calendar events cascade.
func (r *SQLiteFlexibleObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM flexible_obligations WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete flexible obligation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: flexible obligation %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanSQLiteFlexibleObligation(scan func(...any) error) (*domain.FlexibleObligation, error) {
	var (
		id, studentID, name, description string
		weeklyTargetHours                float64
		constraintsJSON                  string
		startDate, endDate               sql.NullString
		priority                         int
		createdAt, updatedAt             string
	)
	err := scan(
		&id, &studentID, &name, &description, &weeklyTargetHours, &constraintsJSON,
		&startDate, &endDate, &priority, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var constraints domain.Constraints
	if err := json.Unmarshal([]byte(constraintsJSON), &constraints); err != nil {
		return nil, fmt.Errorf("decode constraints: %w", err)
	}

	return domain.RehydrateFlexibleObligation(
		parseSQLiteUUID(id),
		parseSQLiteUUID(studentID),
		name,
		description,
		weeklyTargetHours,
		constraints,
		parseSQLiteTimePtr(startDate),
		parseSQLiteTimePtr(endDate),
		priority,
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	), nil
}
