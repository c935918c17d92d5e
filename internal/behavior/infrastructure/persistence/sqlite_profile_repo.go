package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
)

const sqliteProductivityProfileColumns = `
	SELECT id, student_id, slot_weights, peak_windows, max_continuous_minutes,
	       ideal_break_minutes, efficiency_decay_rate, fatigue_factor,
	       recovery_factor, day_multipliers, soft_obligation_buffer,
	       retention_rates, last_updated, created_at, updated_at
	FROM productivity_profiles
`

const sqliteUpsertProductivityProfile = `
	INSERT INTO productivity_profiles (
		id, student_id, slot_weights, peak_windows, max_continuous_minutes,
		ideal_break_minutes, efficiency_decay_rate, fatigue_factor,
		recovery_factor, day_multipliers, soft_obligation_buffer,
		retention_rates, last_updated, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (student_id) DO UPDATE SET
		slot_weights = excluded.slot_weights,
		peak_windows = excluded.peak_windows,
		max_continuous_minutes = excluded.max_continuous_minutes,
		ideal_break_minutes = excluded.ideal_break_minutes,
		efficiency_decay_rate = excluded.efficiency_decay_rate,
		fatigue_factor = excluded.fatigue_factor,
		recovery_factor = excluded.recovery_factor,
		day_multipliers = excluded.day_multipliers,
		soft_obligation_buffer = excluded.soft_obligation_buffer,
		retention_rates = excluded.retention_rates,
		last_updated = excluded.last_updated,
		updated_at = excluded.updated_at
`

// SQLiteProductivityProfileRepository implements
// domain.ProductivityProfileRepository using SQLite.
type SQLiteProductivityProfileRepository struct {
	db *sql.DB
}

// NewSQLiteProductivityProfileRepository creates a new repository.
func NewSQLiteProductivityProfileRepository(db *sql.DB) *SQLiteProductivityProfileRepository {
	return &SQLiteProductivityProfileRepository{db: db}
}

// Save upserts the profile, keyed on the student.
func (r *SQLiteProductivityProfileRepository) Save(ctx context.Context, profile *domain.ProductivityProfile) error {
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

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertProductivityProfile,
		profile.ID().String(),
		profile.StudentID().String(),
		string(slotWeights),
		string(peakWindows),
		profile.MaxContinuousMinutes(),
		profile.IdealBreakMinutes(),
		profile.EfficiencyDecayRate(),
		profile.FatigueFactor(),
		profile.RecoveryFactor(),
		string(dayMultipliers),
		profile.SoftObligationBuffer(),
		string(retentionRates),
		sqliteTime(profile.LastUpdated()),
		sqliteTime(profile.CreatedAt()),
		sqliteTime(profile.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save productivity profile: %w", err)
	}
	return nil
}

// FindByStudent loads the student's profile.
func (r *SQLiteProductivityProfileRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) (*domain.ProductivityProfile, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx,
		sqliteProductivityProfileColumns+` WHERE student_id = ?`, studentID.String())

	var (
		id, sid                      string
		slotWeightsJSON              string
		peakWindowsJSON              string
		maxContinuous, idealBreak    int
		decayRate, fatigue, recovery float64
		dayMultipliersJSON           string
		softBuffer                   int
		retentionRatesJSON           string
		lastUpdated                  string
		createdAt, updatedAt         string
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
		parseSQLiteUUID(id),
		parseSQLiteUUID(sid),
		[]byte(slotWeightsJSON),
		[]byte(peakWindowsJSON),
		maxContinuous,
		idealBreak,
		decayRate,
		fatigue,
		recovery,
		[]byte(dayMultipliersJSON),
		softBuffer,
		[]byte(retentionRatesJSON),
		parseSQLiteTime(lastUpdated),
		parseSQLiteTime(createdAt),
		parseSQLiteTime(updatedAt),
	)
}
