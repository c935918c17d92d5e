package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
)

const sqliteInsertContextSignal = `
	INSERT INTO context_signals (
		id, student_id, kind, start_time, end_time, payload, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING
`

const sqliteContextSignalColumns = `
	SELECT id, student_id, kind, start_time, end_time, payload, created_at, updated_at
	FROM context_signals
`

// SQLiteContextSignalRepository implements domain.ContextSignalRepository
// using SQLite.
type SQLiteContextSignalRepository struct {
	db *sql.DB
}

// NewSQLiteContextSignalRepository creates a new repository.
func NewSQLiteContextSignalRepository(db *sql.DB) *SQLiteContextSignalRepository {
	return &SQLiteContextSignalRepository{db: db}
}

// Save stores the signal. Signals are immutable once recorded.
func (r *SQLiteContextSignalRepository) Save(ctx context.Context, signal *domain.ContextSignal) error {
	payload, err := json.Marshal(signal.Payload())
	if err != nil {
		return fmt.Errorf("encode signal payload: %w", err)
	}

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteInsertContextSignal,
		signal.ID().String(),
		signal.StudentID().String(),
		string(signal.Kind()),
		sqliteTime(signal.StartTime()),
		sqliteTime(signal.EndTime()),
		string(payload),
		sqliteTime(signal.CreatedAt()),
		sqliteTime(signal.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save context signal: %w", err)
	}
	return nil
}

// FindByStudentInRange loads signals overlapping [from, to) ordered by start.
func (r *SQLiteContextSignalRepository) FindByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*domain.ContextSignal, error) {
	query := sqliteContextSignalColumns + ` WHERE student_id = ? AND start_time < ? AND end_time > ? ORDER BY start_time`

	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx, query, studentID.String(), sqliteTime(to), sqliteTime(from))
	if err != nil {
		return nil, fmt.Errorf("find context signals: %w", err)
	}
	defer rows.Close()

	var signals []*domain.ContextSignal
	for rows.Next() {
		var (
			id, sid, kind        string
			start, end           string
			payloadJSON          string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&id, &sid, &kind, &start, &end, &payloadJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan context signal: %w", err)
		}

		var payload map[string]string
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("decode signal payload: %w", err)
		}

		signals = append(signals, domain.RehydrateContextSignal(
			parseSQLiteUUID(id),
			parseSQLiteUUID(sid),
			domain.SignalKind(kind),
			parseSQLiteTime(start),
			parseSQLiteTime(end),
			payload,
			parseSQLiteTime(createdAt),
			parseSQLiteTime(updatedAt),
		))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return signals, nil
}
