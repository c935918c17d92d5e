package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studora/studora/internal/behavior/domain"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const insertContextSignalQuery = `
	INSERT INTO context_signals (
		id, student_id, kind, start_time, end_time, payload, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
`

const contextSignalColumns = `
	SELECT id, student_id, kind, start_time, end_time, payload, created_at, updated_at
	FROM context_signals
`

// PostgresContextSignalRepository implements domain.ContextSignalRepository
// using PostgreSQL.
type PostgresContextSignalRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresContextSignalRepository creates a new repository.
func NewPostgresContextSignalRepository(pool *pgxpool.Pool) *PostgresContextSignalRepository {
	return &PostgresContextSignalRepository{pool: pool}
}

// Save stores the signal. Signals are immutable once recorded.
func (r *PostgresContextSignalRepository) Save(ctx context.Context, signal *domain.ContextSignal) error {
	payload, err := json.Marshal(signal.Payload())
	if err != nil {
		return fmt.Errorf("encode signal payload: %w", err)
	}

	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err = execer.Exec(ctx, insertContextSignalQuery,
		signal.ID(),
		signal.StudentID(),
		string(signal.Kind()),
		signal.StartTime(),
		signal.EndTime(),
		payload,
		signal.CreatedAt(),
		signal.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save context signal: %w", err)
	}
	return nil
}

// FindByStudentInRange loads signals overlapping [from, to) ordered by start.
func (r *PostgresContextSignalRepository) FindByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*domain.ContextSignal, error) {
	query := contextSignalColumns + ` WHERE student_id = $1 AND start_time < $3 AND end_time > $2 ORDER BY start_time`

	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, query, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("find context signals: %w", err)
	}
	defer rows.Close()

	var signals []*domain.ContextSignal
	for rows.Next() {
		var (
			id, sid              uuid.UUID
			kind                 string
			start, end           time.Time
			payloadJSON          []byte
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &sid, &kind, &start, &end, &payloadJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan context signal: %w", err)
		}

		var payload map[string]string
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &payload); err != nil {
				return nil, fmt.Errorf("decode signal payload: %w", err)
			}
		}

		signals = append(signals, domain.RehydrateContextSignal(
			id, sid, domain.SignalKind(kind), start, end, payload, createdAt, updatedAt,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return signals, nil
}
