package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// Profile parameter bounds and defaults. Every persisted profile satisfies
// these; mutation paths clamp before writing.
const (
	DefaultSlotWeight = 0.5

	MinMaxContinuousMinutes     = 20
	MaxMaxContinuousMinutes     = 90
	DefaultMaxContinuousMinutes = 45

	MinIdealBreakMinutes     = 5
	MaxIdealBreakMinutes     = 30
	DefaultIdealBreakMinutes = 10

	MinEfficiencyDecayRate     = 0.01
	MaxEfficiencyDecayRate     = 0.2
	DefaultEfficiencyDecayRate = 0.05

	MinFatigueFactor     = 0.05
	MaxFatigueFactor     = 0.4
	DefaultFatigueFactor = 0.15

	MinRecoveryFactor     = 0.05
	MaxRecoveryFactor     = 0.5
	DefaultRecoveryFactor = 0.2

	MinDayMultiplier     = 0.7
	MaxDayMultiplier     = 1.3
	DefaultDayMultiplier = 1.0

	MinSoftObligationBufferMinutes     = 10
	MaxSoftObligationBufferMinutes     = 60
	DefaultSoftObligationBufferMinutes = 30
)

// PeakWindow is a contiguous run of high-efficiency hours on one weekday.
// EndHour is exclusive.
type PeakWindow struct {
	Day        time.Weekday `json:"day"`
	StartHour  int          `json:"start_hour"`
	EndHour    int          `json:"end_hour"`
	Efficiency float64      `json:"efficiency"`
}

// ProductivityProfile is the per-student behavioral parameter set consumed by
// recommendations and, optionally, by the scheduler's objective.
type ProductivityProfile struct {
	sharedDomain.BaseAggregateRoot
	studentID             uuid.UUID
	slotWeights           map[string]float64
	peakWindows           []PeakWindow
	maxContinuousMinutes  int
	idealBreakMinutes     int
	efficiencyDecayRate   float64
	fatigueFactor         float64
	recoveryFactor        float64
	dayMultipliers        map[string]float64
	softObligationBuffer  int
	retentionRates        map[string]float64
	lastUpdated           time.Time
}

// NewDefaultProfile creates a profile with every parameter at its default and
// no learned slot weights.
func NewDefaultProfile(studentID uuid.UUID) (*ProductivityProfile, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", planningDomain.ErrInvalidInput)
	}

	multipliers := make(map[string]float64, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		multipliers[d.String()] = DefaultDayMultiplier
	}

	return &ProductivityProfile{
		BaseAggregateRoot:    sharedDomain.NewBaseAggregateRoot(),
		studentID:            studentID,
		slotWeights:          make(map[string]float64),
		maxContinuousMinutes: DefaultMaxContinuousMinutes,
		idealBreakMinutes:    DefaultIdealBreakMinutes,
		efficiencyDecayRate:  DefaultEfficiencyDecayRate,
		fatigueFactor:        DefaultFatigueFactor,
		recoveryFactor:       DefaultRecoveryFactor,
		dayMultipliers:       multipliers,
		softObligationBuffer: DefaultSoftObligationBufferMinutes,
		retentionRates:       make(map[string]float64),
		lastUpdated:          time.Now().UTC(),
	}, nil
}

// RehydrateProfile recreates a profile from persisted state.
func RehydrateProfile(
	id uuid.UUID,
	studentID uuid.UUID,
	slotWeights map[string]float64,
	peakWindows []PeakWindow,
	maxContinuousMinutes int,
	idealBreakMinutes int,
	efficiencyDecayRate float64,
	fatigueFactor float64,
	recoveryFactor float64,
	dayMultipliers map[string]float64,
	softObligationBuffer int,
	retentionRates map[string]float64,
	lastUpdated time.Time,
	createdAt, updatedAt time.Time,
) *ProductivityProfile {
	return &ProductivityProfile{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		studentID:            studentID,
		slotWeights:          slotWeights,
		peakWindows:          peakWindows,
		maxContinuousMinutes: maxContinuousMinutes,
		idealBreakMinutes:    idealBreakMinutes,
		efficiencyDecayRate:  efficiencyDecayRate,
		fatigueFactor:        fatigueFactor,
		recoveryFactor:       recoveryFactor,
		dayMultipliers:       dayMultipliers,
		softObligationBuffer: softObligationBuffer,
		retentionRates:       retentionRates,
		lastUpdated:          lastUpdated,
	}
}

func (p *ProductivityProfile) StudentID() uuid.UUID              { return p.studentID }
func (p *ProductivityProfile) SlotWeights() map[string]float64   { return p.slotWeights }
func (p *ProductivityProfile) PeakWindows() []PeakWindow         { return p.peakWindows }
func (p *ProductivityProfile) MaxContinuousMinutes() int         { return p.maxContinuousMinutes }
func (p *ProductivityProfile) IdealBreakMinutes() int            { return p.idealBreakMinutes }
func (p *ProductivityProfile) EfficiencyDecayRate() float64      { return p.efficiencyDecayRate }
func (p *ProductivityProfile) FatigueFactor() float64            { return p.fatigueFactor }
func (p *ProductivityProfile) RecoveryFactor() float64           { return p.recoveryFactor }
func (p *ProductivityProfile) DayMultipliers() map[string]float64 { return p.dayMultipliers }
func (p *ProductivityProfile) SoftObligationBuffer() int         { return p.softObligationBuffer }
func (p *ProductivityProfile) RetentionRates() map[string]float64 { return p.retentionRates }
func (p *ProductivityProfile) LastUpdated() time.Time            { return p.lastUpdated }

// SlotWeight returns the learned weight for a slot key, or the default.
func (p *ProductivityProfile) SlotWeight(key string) float64 {
	if w, ok := p.slotWeights[key]; ok {
		return w
	}
	return DefaultSlotWeight
}

// DayMultiplier returns the multiplier for a weekday name, or the default.
func (p *ProductivityProfile) DayMultiplier(day string) float64 {
	if m, ok := p.dayMultipliers[day]; ok {
		return m
	}
	return DefaultDayMultiplier
}

// ProfileUpdate carries the re-derived parameters applied in one shot.
type ProfileUpdate struct {
	SlotWeights          map[string]float64
	PeakWindows          []PeakWindow
	MaxContinuousMinutes int
	IdealBreakMinutes    int
	EfficiencyDecayRate  float64
	FatigueFactor        float64
	RecoveryFactor       float64
	DayMultipliers       map[string]float64
	SoftObligationBuffer int
	RetentionRates       map[string]float64
}

// Apply replaces the learned parameters, clamping everything into range. A
// nil SlotWeights map means "no new slot evidence" and leaves the learned
// weights and peak windows untouched.
func (p *ProductivityProfile) Apply(update ProfileUpdate, now time.Time) {
	if update.SlotWeights != nil {
		weights := make(map[string]float64, len(update.SlotWeights))
		for k, v := range update.SlotWeights {
			weights[k] = clampFloat(v, 0, 1)
		}
		p.slotWeights = weights
		p.peakWindows = update.PeakWindows
	}
	p.maxContinuousMinutes = clampInt(update.MaxContinuousMinutes, MinMaxContinuousMinutes, MaxMaxContinuousMinutes)
	p.idealBreakMinutes = clampInt(update.IdealBreakMinutes, MinIdealBreakMinutes, MaxIdealBreakMinutes)
	p.efficiencyDecayRate = clampFloat(update.EfficiencyDecayRate, MinEfficiencyDecayRate, MaxEfficiencyDecayRate)
	p.fatigueFactor = clampFloat(update.FatigueFactor, MinFatigueFactor, MaxFatigueFactor)
	p.recoveryFactor = clampFloat(update.RecoveryFactor, MinRecoveryFactor, MaxRecoveryFactor)

	multipliers := make(map[string]float64, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		m, ok := update.DayMultipliers[name]
		if !ok {
			m = DefaultDayMultiplier
		}
		multipliers[name] = clampFloat(m, MinDayMultiplier, MaxDayMultiplier)
	}
	p.dayMultipliers = multipliers

	p.softObligationBuffer = clampInt(update.SoftObligationBuffer, MinSoftObligationBufferMinutes, MaxSoftObligationBufferMinutes)
	if update.RetentionRates != nil {
		p.retentionRates = update.RetentionRates
	}
	p.lastUpdated = now.UTC()
	p.Touch()

	event := NewProfileUpdatedEvent(p.ID(), p.studentID)
	p.AddDomainEvent(&event)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
