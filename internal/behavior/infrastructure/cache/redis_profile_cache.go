package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
)

const (
	profileKeyPrefix = "studora:profile:"
	profileTTL       = 15 * time.Minute
)

// RedisProfileCache decorates a ProductivityProfileRepository with a
// read-through Redis cache. Cache failures degrade to the inner repository;
// they are logged, never surfaced.
type RedisProfileCache struct {
	inner  domain.ProductivityProfileRepository
	client *redis.Client
	logger *slog.Logger
}

// NewRedisProfileCache creates the cache decorator.
func NewRedisProfileCache(inner domain.ProductivityProfileRepository, client *redis.Client, logger *slog.Logger) *RedisProfileCache {
	return &RedisProfileCache{inner: inner, client: client, logger: logger}
}

// profileSnapshot is the cached wire form of a profile.
type profileSnapshot struct {
	ID                   uuid.UUID            `json:"id"`
	StudentID            uuid.UUID            `json:"student_id"`
	SlotWeights          map[string]float64   `json:"slot_weights"`
	PeakWindows          []domain.PeakWindow  `json:"peak_windows"`
	MaxContinuousMinutes int                  `json:"max_continuous_minutes"`
	IdealBreakMinutes    int                  `json:"ideal_break_minutes"`
	EfficiencyDecayRate  float64              `json:"efficiency_decay_rate"`
	FatigueFactor        float64              `json:"fatigue_factor"`
	RecoveryFactor       float64              `json:"recovery_factor"`
	DayMultipliers       map[string]float64   `json:"day_multipliers"`
	SoftObligationBuffer int                  `json:"soft_obligation_buffer"`
	RetentionRates       map[string]float64   `json:"retention_rates"`
	LastUpdated          time.Time            `json:"last_updated"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func snapshotOf(profile *domain.ProductivityProfile) profileSnapshot {
	return profileSnapshot{
		ID:                   profile.ID(),
		StudentID:            profile.StudentID(),
		SlotWeights:          profile.SlotWeights(),
		PeakWindows:          profile.PeakWindows(),
		MaxContinuousMinutes: profile.MaxContinuousMinutes(),
		IdealBreakMinutes:    profile.IdealBreakMinutes(),
		EfficiencyDecayRate:  profile.EfficiencyDecayRate(),
		FatigueFactor:        profile.FatigueFactor(),
		RecoveryFactor:       profile.RecoveryFactor(),
		DayMultipliers:       profile.DayMultipliers(),
		SoftObligationBuffer: profile.SoftObligationBuffer(),
		RetentionRates:       profile.RetentionRates(),
		LastUpdated:          profile.LastUpdated(),
		CreatedAt:            profile.CreatedAt(),
		UpdatedAt:            profile.UpdatedAt(),
	}
}

func (s profileSnapshot) rehydrate() *domain.ProductivityProfile {
	return domain.RehydrateProfile(
		s.ID, s.StudentID, s.SlotWeights, s.PeakWindows,
		s.MaxContinuousMinutes, s.IdealBreakMinutes, s.EfficiencyDecayRate,
		s.FatigueFactor, s.RecoveryFactor, s.DayMultipliers,
		s.SoftObligationBuffer, s.RetentionRates, s.LastUpdated,
		s.CreatedAt, s.UpdatedAt,
	)
}

func profileKey(studentID uuid.UUID) string {
	return profileKeyPrefix + studentID.String()
}

// Save writes through to the inner repository and refreshes the cache.
func (c *RedisProfileCache) Save(ctx context.Context, profile *domain.ProductivityProfile) error {
	if err := c.inner.Save(ctx, profile); err != nil {
		return err
	}
	c.set(ctx, profile)
	return nil
}

// FindByStudent serves from cache when possible.
func (c *RedisProfileCache) FindByStudent(ctx context.Context, studentID uuid.UUID) (*domain.ProductivityProfile, error) {
	raw, err := c.client.Get(ctx, profileKey(studentID)).Bytes()
	if err == nil {
		var snapshot profileSnapshot
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return snapshot.rehydrate(), nil
		}
		c.logger.Warn("dropping undecodable cached profile", "student_id", studentID)
		c.client.Del(ctx, profileKey(studentID))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("profile cache read failed", "student_id", studentID, "error", err)
	}

	profile, err := c.inner.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, planningDomain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("profile cache fallthrough: %w", err)
	}
	c.set(ctx, profile)
	return profile, nil
}

func (c *RedisProfileCache) set(ctx context.Context, profile *domain.ProductivityProfile) {
	raw, err := json.Marshal(snapshotOf(profile))
	if err != nil {
		c.logger.Warn("profile cache encode failed", "student_id", profile.StudentID(), "error", err)
		return
	}
	if err := c.client.Set(ctx, profileKey(profile.StudentID()), raw, profileTTL).Err(); err != nil {
		c.logger.Warn("profile cache write failed", "student_id", profile.StudentID(), "error", err)
	}
}
