package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const productivityProfileColumns = `
	SELECT id, student_id, slot_weights, peak_windows, max_continuous_minutes,
	       ideal_break_minutes, efficiency_decay_rate, fatigue_factor,
	       recovery_factor, day_multipliers, soft_obligation_buffer,
	       retention_rates, last_updated, created_at, updated_at
	FROM productivity_profiles
`

const upsertProductivityProfileQuery = `
	INSERT INTO productivity_profiles (
		id, student_id, slot_weights, peak_windows, max_continuous_minutes,
		ideal_break_minutes, efficiency_decay_rate, fatigue_factor,
		recovery_factor, day_multipliers, soft_obligation_buffer,
		retention_rates, last_updated, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (student_id) DO UPDATE SET
		slot_weights = EXCLUDED.slot_weights,
		peak_windows = EXCLUDED.peak_windows,
		max_continuous_minutes = EXCLUDED.max_continuous_minutes,
		ideal_break_minutes = EXCLUDED.ideal_break_minutes,
		efficiency_decay_rate = EXCLUDED.efficiency_decay_rate,
		fatigue_factor = EXCLUDED.fatigue_factor,
		recovery_factor = EXCLUDED.recovery_factor,
		day_multipliers = EXCLUDED.day_multipliers,
		soft_obligation_buffer = EXCLUDED.soft_obligation_buffer,
		retention_rates = EXCLUDED.retention_rates,
		last_updated = EXCLUDED.last_updated,
		updated_at = EXCLUDED.updated_at
`

// PostgresProductivityProfileRepository implements
// domain.ProductivityProfileRepository using PostgreSQL.
type PostgresProductivityProfileRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProductivityProfileRepository creates a new repository.
func NewPostgresProductivityProfileRepository(pool *pgxpool.Pool) *PostgresProductivityProfileRepository {
	return &PostgresProductivityProfileRepository{pool: pool}
}

// Save upserts the profile, keyed on the student.
func (r *PostgresProductivityProfileRepository) Save(ctx context.Context, profile *domain.ProductivityProfile) error {
	slotWeights, err := json.Marshal(profile.SlotWeights())
	if err != nil {
		return fmt.Errorf("encode slot weights: %w", err)
	}
	peakWindows, err := json.Marshal(peakWindowsOrEmpty(profile.PeakWindows()))
	if err != nil {
		return fmt.Errorf("encode peak windows: %w", err)
	}
	dayMultipliers, err := json.Marshal(profile.DayMultipliers())
	if err != nil {
		return fmt.Errorf("encode day multipliers: %w", err)
	}
	retentionRates, err := json.Marshal(profile.RetentionRates())
	if err != nil {
		return fmt.Errorf("encode retention rates: %w", err)
	}

	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err = execer.Exec(ctx, upsertProductivityProfileQuery,
		profile.ID(),
		profile.StudentID(),
		slotWeights,
		peakWindows,
		int32(profile.MaxContinuousMinutes()),
		int32(profile.IdealBreakMinutes()),
		profile.EfficiencyDecayRate(),
		profile.FatigueFactor(),
		profile.RecoveryFactor(),
		dayMultipliers,
		int32(profile.SoftObligationBuffer()),
		retentionRates,
		profile.LastUpdated(),
		profile.CreatedAt(),
		profile.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save productivity profile: %w", err)
	}
	return nil
}

// FindByStudent loads the student's profile.
func (r *PostgresProductivityProfileRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) (*domain.ProductivityProfile, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	row := execer.QueryRow(ctx, productivityProfileColumns+` WHERE student_id = $1`, studentID)

	var (
		id, sid                      uuid.UUID
		slotWeightsJSON              []byte
		peakWindowsJSON              []byte
		maxContinuous, idealBreak    int32
		decayRate, fatigue, recovery float64
		dayMultipliersJSON           []byte
		softBuffer                   int32
		retentionRatesJSON           []byte
		lastUpdated                  time.Time
		createdAt, updatedAt         time.Time
	)
	err := row.Scan(
		&id, &sid, &slotWeightsJSON, &peakWindowsJSON, &maxContinuous,
		&idealBreak, &decayRate, &fatigue, &recovery, &dayMultipliersJSON,
		&softBuffer, &retentionRatesJSON, &lastUpdated, &createdAt, &updatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: productivity profile for student %s", planningDomain.ErrNotFound, studentID)
		}
		return nil, fmt.Errorf("find productivity profile: %w", err)
	}

	return rehydrateProfileJSON(
		id, sid, slotWeightsJSON, peakWindowsJSON, int(maxContinuous), int(idealBreak),
		decayRate, fatigue, recovery, dayMultipliersJSON, int(softBuffer),
		retentionRatesJSON, lastUpdated, createdAt, updatedAt,
	)
}

func peakWindowsOrEmpty(windows []domain.PeakWindow) []domain.PeakWindow {
	if windows == nil {
		return []domain.PeakWindow{}
	}
	return windows
}

func rehydrateProfileJSON(
	id, studentID uuid.UUID,
	slotWeightsJSON, peakWindowsJSON []byte,
	maxContinuous, idealBreak int,
	decayRate, fatigue, recovery float64,
	dayMultipliersJSON []byte,
	softBuffer int,
	retentionRatesJSON []byte,
	lastUpdated, createdAt, updatedAt time.Time,
) (*domain.ProductivityProfile, error) {
	var slotWeights map[string]float64
	if err := json.Unmarshal(slotWeightsJSON, &slotWeights); err != nil {
		return nil, fmt.Errorf("decode slot weights: %w", err)
	}
	var peakWindows []domain.PeakWindow
	if err := json.Unmarshal(peakWindowsJSON, &peakWindows); err != nil {
		return nil, fmt.Errorf("decode peak windows: %w", err)
	}
	var dayMultipliers map[string]float64
	if err := json.Unmarshal(dayMultipliersJSON, &dayMultipliers); err != nil {
		return nil, fmt.Errorf("decode day multipliers: %w", err)
	}
	var retentionRates map[string]float64
	if err := json.Unmarshal(retentionRatesJSON, &retentionRates); err != nil {
		return nil, fmt.Errorf("decode retention rates: %w", err)
	}

	return domain.RehydrateProfile(
		id, studentID, slotWeights, peakWindows, maxContinuous, idealBreak,
		decayRate, fatigue, recovery, dayMultipliers, softBuffer,
		retentionRates, lastUpdated, createdAt, updatedAt,
	), nil
}
