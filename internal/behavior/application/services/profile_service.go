package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/timegrid"
)

const (
	// sessionLookbackDays bounds how much telemetry feeds one derivation.
	sessionLookbackDays = 90

	// coldStartTopSlots is how many of the highest-prior slots seed peak
	// windows for a fresh profile.
	coldStartTopSlots = 15

	// Recommendation window: whole hours between these bounds.
	recommendDayStartHour = 7
	recommendDayEndHour   = 22

	defaultLookaheadDays = 7
	recommendLimit       = 5

	lowEfficiencyOverrunThreshold = 0.7
	minDecayFactor                = 0.4
)

// StudyTimePreference is a student's self-declared productive block.
type StudyTimePreference string

const (
	PreferMorning   StudyTimePreference = "morning"
	PreferAfternoon StudyTimePreference = "afternoon"
	PreferEvening   StudyTimePreference = "evening"
	PreferNone      StudyTimePreference = "none"
)

func (p StudyTimePreference) IsValid() bool {
	switch p {
	case PreferMorning, PreferAfternoon, PreferEvening, PreferNone, "":
		return true
	default:
		return false
	}
}

// contains reports whether an hour falls inside the preference block.
func (p StudyTimePreference) contains(hour int) bool {
	switch p {
	case PreferMorning:
		return hour >= 6 && hour < 12
	case PreferAfternoon:
		return hour >= 12 && hour < 18
	case PreferEvening:
		return hour >= 18 && hour < 23
	default:
		return false
	}
}

// Prediction is the expected outcome of studying at a given slot.
type Prediction struct {
	Efficiency            float64 `json:"efficiency"`
	CompletionProbability float64 `json:"completion_probability"`
	ExpectedOverrunMins   int     `json:"expected_overrun_minutes"`
}

// RecommendedSlot is one suggested study slot, best first.
type RecommendedSlot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Efficiency float64   `json:"efficiency"`
}

// ProfileService derives, stores, and queries productivity profiles.
type ProfileService struct {
	profiles  domain.ProductivityProfileRepository
	sessions  domain.SessionEventRepository
	signals   domain.ContextSignalRepository
	extractor *FeatureExtractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewProfileService creates a profile service.
func NewProfileService(
	profiles domain.ProductivityProfileRepository,
	sessions domain.SessionEventRepository,
	signals domain.ContextSignalRepository,
	logger *slog.Logger,
) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profiles:  profiles,
		sessions:  sessions,
		signals:   signals,
		extractor: NewFeatureExtractor(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (s *ProfileService) WithNow(now func() time.Time) *ProfileService {
	s.now = now
	return s
}

// GetOrCreate returns the student's profile, creating a default one on first
// contact.
func (s *ProfileService) GetOrCreate(ctx context.Context, studentID uuid.UUID) (*domain.ProductivityProfile, error) {
	profile, err := s.profiles.FindByStudent(ctx, studentID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, planningDomain.ErrNotFound) {
		return nil, fmt.Errorf("%w: loading profile: %v", planningDomain.ErrPersistence, err)
	}

	profile, err = domain.NewDefaultProfile(studentID)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: saving profile: %v", planningDomain.ErrPersistence, err)
	}
	s.logger.Info("created default productivity profile", "student_id", studentID)
	return profile, nil
}

// DeriveUpdate recomputes every learned parameter from the student's recent
// sessions and context signals. It does not persist anything.
func (s *ProfileService) DeriveUpdate(ctx context.Context, studentID uuid.UUID) (domain.ProfileUpdate, error) {
	now := s.now()
	since := now.AddDate(0, 0, -sessionLookbackDays)

	sessions, err := s.sessions.FindCompletedByStudent(ctx, studentID, since)
	if err != nil {
		return domain.ProfileUpdate{}, fmt.Errorf("%w: loading sessions: %v", planningDomain.ErrPersistence, err)
	}
	signals, err := s.signals.FindByStudentInRange(ctx, studentID, since, now.AddDate(0, 0, defaultLookaheadDays))
	if err != nil {
		return domain.ProfileUpdate{}, fmt.Errorf("%w: loading context signals: %v", planningDomain.ErrPersistence, err)
	}

	var weights map[string]float64
	var peaks []domain.PeakWindow
	if len(sessions) > 0 {
		weights = s.extractor.SlotEfficiencies(sessions)
		peaks = s.extractor.PeakWindows(weights, peakThreshold)
	}
	maxContinuous, idealBreak, decay := s.extractor.SessionParameters(sessions)
	fatigue, recovery := s.extractor.FatigueRecovery(sessions)
	multipliers, buffer := s.extractor.AdjustmentFactors(sessions, signals)

	return domain.ProfileUpdate{
		SlotWeights:          weights,
		PeakWindows:          peaks,
		MaxContinuousMinutes: maxContinuous,
		IdealBreakMinutes:    idealBreak,
		EfficiencyDecayRate:  decay,
		FatigueFactor:        fatigue,
		RecoveryFactor:       recovery,
		DayMultipliers:       multipliers,
		SoftObligationBuffer: buffer,
		RetentionRates:       s.extractor.RetentionIndicators(),
	}, nil
}

// ColdStartUpdate builds a prior parameter set for students with no
// telemetry: plausible slot weights, boosted where the student says they work
// best, every numeric parameter at its default.
func (s *ProfileService) ColdStartUpdate(preference StudyTimePreference) (domain.ProfileUpdate, error) {
	if !preference.IsValid() {
		return domain.ProfileUpdate{}, fmt.Errorf("%w: unknown study time preference %q", planningDomain.ErrInvalidInput, preference)
	}

	weights := make(map[string]float64)
	for day := time.Sunday; day <= time.Saturday; day++ {
		weekend := day == time.Saturday || day == time.Sunday
		for hour := 0; hour < 24; hour++ {
			w := 0.65
			switch {
			case weekend && hour >= 10 && hour < 13:
				w = 0.85
			case !weekend && hour >= 9 && hour < 12:
				w = 0.8
			case !weekend && hour >= 14 && hour < 16:
				w = 0.6
			case !weekend && hour >= 19 && hour < 22:
				w = 0.75
			}
			if preference.contains(hour) {
				w = math.Min(w+0.15, 0.95)
			}
			weights[timegrid.SlotKeyFor(day, hour)] = w
		}
	}

	multipliers := make(map[string]float64, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		multipliers[day.String()] = domain.DefaultDayMultiplier
	}

	return domain.ProfileUpdate{
		SlotWeights:          weights,
		PeakWindows:          s.extractor.PeakWindows(topSlots(weights, coldStartTopSlots), peakThreshold),
		MaxContinuousMinutes: domain.DefaultMaxContinuousMinutes,
		IdealBreakMinutes:    domain.DefaultIdealBreakMinutes,
		EfficiencyDecayRate:  domain.DefaultEfficiencyDecayRate,
		FatigueFactor:        domain.DefaultFatigueFactor,
		RecoveryFactor:       domain.DefaultRecoveryFactor,
		DayMultipliers:       multipliers,
		SoftObligationBuffer: domain.DefaultSoftObligationBufferMinutes,
		RetentionRates:       s.extractor.RetentionIndicators(),
	}, nil
}

// topSlots keeps the n highest-weight slots; ties go to the lexically smaller
// key so the result is stable.
func topSlots(weights map[string]float64, n int) map[string]float64 {
	type kv struct {
		key    string
		weight float64
	}
	ordered := make([]kv, 0, len(weights))
	for k, w := range weights {
		ordered = append(ordered, kv{k, w})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].weight != ordered[j].weight {
			return ordered[i].weight > ordered[j].weight
		}
		return ordered[i].key < ordered[j].key
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	top := make(map[string]float64, len(ordered))
	for _, e := range ordered {
		top[e.key] = e.weight
	}
	return top
}

// Predict estimates the outcome of a session of the given length starting at
// the given instant.
func (s *ProfileService) Predict(profile *domain.ProductivityProfile, start time.Time, durationMinutes int) (Prediction, error) {
	if durationMinutes <= 0 {
		return Prediction{}, fmt.Errorf("%w: duration must be positive", planningDomain.ErrInvalidInput)
	}
	start = start.UTC()

	base := profile.SlotWeight(timegrid.SlotKey(start))
	decayFactor := 1.0
	if over := durationMinutes - profile.MaxContinuousMinutes(); over > 0 {
		decayFactor = math.Max(minDecayFactor, 1-float64(over)*profile.EfficiencyDecayRate())
	}
	efficiency := base * profile.DayMultiplier(start.Weekday().String()) * decayFactor

	prediction := Prediction{
		Efficiency:            efficiency,
		CompletionProbability: math.Min(0.5+0.5*efficiency, 0.95),
	}
	if efficiency > 0 && efficiency < lowEfficiencyOverrunThreshold {
		overrun := int(math.Floor((1/efficiency - 1) * float64(durationMinutes) * 0.5))
		prediction.ExpectedOverrunMins = clampInt(overrun, 0, durationMinutes)
	} else if efficiency == 0 {
		prediction.ExpectedOverrunMins = durationMinutes
	}
	return prediction, nil
}

// RecommendSlots returns the best whole-hour start times over the lookahead,
// highest predicted efficiency first. The session must finish by the end of
// the study day.
func (s *ProfileService) RecommendSlots(profile *domain.ProductivityProfile, from time.Time, durationMinutes, lookaheadDays int) ([]RecommendedSlot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", planningDomain.ErrInvalidInput)
	}
	if lookaheadDays <= 0 {
		lookaheadDays = defaultLookaheadDays
	}
	from = from.UTC()
	duration := time.Duration(durationMinutes) * time.Minute

	var candidates []RecommendedSlot
	dayStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for d := 0; d < lookaheadDays; d++ {
		day := dayStart.AddDate(0, 0, d)
		for hour := recommendDayStartHour; hour < recommendDayEndHour; hour++ {
			start := day.Add(time.Duration(hour) * time.Hour)
			if start.Before(from) {
				continue
			}
			end := start.Add(duration)
			dayEnd := day.Add(recommendDayEndHour * time.Hour)
			if end.After(dayEnd) {
				continue
			}
			pred, err := s.Predict(profile, start, durationMinutes)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, RecommendedSlot{Start: start, End: end, Efficiency: pred.Efficiency})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Efficiency != candidates[j].Efficiency {
			return candidates[i].Efficiency > candidates[j].Efficiency
		}
		return candidates[i].Start.Before(candidates[j].Start)
	})
	if len(candidates) > recommendLimit {
		candidates = candidates[:recommendLimit]
	}
	return candidates, nil
}
