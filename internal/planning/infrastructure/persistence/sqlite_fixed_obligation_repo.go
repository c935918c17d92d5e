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

const sqliteFixedObligationColumns = `
	SELECT id, student_id, name, description, start_minutes, end_minutes,
	       days_of_week, start_date, end_date, recurrence, priority, course_id,
	       created_at, updated_at
	FROM fixed_obligations
`

const sqliteUpsertFixedObligation = `
	INSERT INTO fixed_obligations (
		id, student_id, name, description, start_minutes, end_minutes,
		days_of_week, start_date, end_date, recurrence, priority, course_id,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		start_minutes = excluded.start_minutes,
		end_minutes = excluded.end_minutes,
		days_of_week = excluded.days_of_week,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		recurrence = excluded.recurrence,
		priority = excluded.priority,
		course_id = excluded.course_id,
		updated_at = excluded.updated_at
`

// SQLiteFixedObligationRepository implements domain.FixedObligationRepository
// using SQLite.
type SQLiteFixedObligationRepository struct {
	db *sql.DB
}

// NewSQLiteFixedObligationRepository creates a new repository.
func NewSQLiteFixedObligationRepository(db *sql.DB) *SQLiteFixedObligationRepository {
	return &SQLiteFixedObligationRepository{db: db}
}

// Save upserts the obligation.
func (r *SQLiteFixedObligationRepository) Save(ctx context.Context, obligation *domain.FixedObligation) error {
	days, err := json.Marshal(weekdaysToInts(obligation.DaysOfWeek()))
	if err != nil {
		return fmt.Errorf("encode days of week: %w", err)
	}
	var courseID *uuid.UUID
	if obligation.CourseID() != nil {
		courseID = obligation.CourseID()
	}

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertFixedObligation,
		obligation.ID().String(),
		obligation.StudentID().String(),
		obligation.Name(),
		obligation.Description(),
		int(obligation.StartTime()),
		int(obligation.EndTime()),
		string(days),
		sqliteTime(obligation.StartDate()),
		sqliteTimePtr(obligation.EndDate()),
		string(obligation.Recurrence()),
		obligation.Priority(),
		sqliteUUIDPtr(courseID),
		sqliteTime(obligation.CreatedAt()),
		sqliteTime(obligation.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save fixed obligation: %w", err)
	}
	return nil
}

// FindByID loads one obligation.
func (r *SQLiteFixedObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FixedObligation, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteFixedObligationColumns+` WHERE id = ?`, id.String())
	obligation, err := scanSQLiteFixedObligation(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: fixed obligation %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find fixed obligation: %w", err)
	}
	return obligation, nil
}

// FindByStudent loads a student's obligations, oldest first.
func (r *SQLiteFixedObligationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.FixedObligation, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx,
		sqliteFixedObligationColumns+` WHERE student_id = ? ORDER BY created_at`, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("find fixed obligations: %w", err)
	}
	defer rows.Close()

	var obligations []*domain.FixedObligation
	for rows.Next() {
		obligation, err := scanSQLiteFixedObligation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan fixed obligation: %w", err)
		}
		obligations = append(obligations, obligation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obligations, nil
}

// Delete removes the obligation; its calendar events cascade.
func (r *SQLiteFixedObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM fixed_obligations WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete fixed obligation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: fixed obligation %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanSQLiteFixedObligation(scan func(...any) error) (*domain.FixedObligation, error) {
	var (
		id, studentID, name, description string
		startMinutes, endMinutes         int
		daysJSON                         string
		startDate                        string
		endDate                          sql.NullString
		recurrence                       string
		priority                         int
		courseID                         sql.NullString
		createdAt, updatedAt             string
	)
	err := scan(
		&id, &studentID, &name, &description, &startMinutes, &endMinutes,
		&daysJSON, &startDate, &endDate, &recurrence, &priority, &courseID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var dayInts []int32
	if err := json.Unmarshal([]byte(daysJSON), &dayInts); err != nil {
		return nil, fmt.Errorf("decode days of week: %w", err)
	}

	return domain.RehydrateFixedObligation(
		parseSQLiteUUID(id),
		parseSQLiteUUID(studentID),
		name,
		description,
		domain.TimeOfDay(startMinutes),
		domain.TimeOfDay(endMinutes),
		intsToWeekdays(dayInts),
		parseSQLiteTime(startDate),
		parseSQLiteTimePtr(endDate),
		domain.Recurrence(recurrence),
		priority,
		parseSQLiteUUIDPtr(courseID),
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	), nil
}
