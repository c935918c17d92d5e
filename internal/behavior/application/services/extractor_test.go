package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/studora/internal/behavior/domain"
)

// extMonday is a Monday.
var extMonday = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

func ratingOf(v int) *int { return &v }

func finalizedSession(t *testing.T, start time.Time, actualMinutes, estimatedMinutes int, rating *int, completed bool) *domain.SessionEvent {
	t.Helper()
	s, err := domain.NewSessionEvent(uuid.New(), nil, start, estimatedMinutes)
	require.NoError(t, err)
	require.NoError(t, s.Finalize(start.Add(time.Duration(actualMinutes)*time.Minute), completed, rating, nil, ""))
	return s
}

func TestSlotEfficienciesAttributesSpannedHours(t *testing.T) {
	ex := NewFeatureExtractor()

	// 09:30-11:30, on estimate: every touched hour gets 1.0.
	s := finalizedSession(t, extMonday.Add(9*time.Hour+30*time.Minute), 120, 120, nil, true)

	effs := ex.SlotEfficiencies([]*domain.SessionEvent{s})

	assert.InDelta(t, 1.0, effs["Monday-9"], 1e-9)
	assert.InDelta(t, 1.0, effs["Monday-10"], 1e-9)
	assert.InDelta(t, 1.0, effs["Monday-11"], 1e-9)
	assert.NotContains(t, effs, "Monday-12")
}

func TestSlotEfficienciesSelfRatingScales(t *testing.T) {
	ex := NewFeatureExtractor()

	s := finalizedSession(t, extMonday.Add(9*time.Hour), 60, 60, ratingOf(4), true)

	effs := ex.SlotEfficiencies([]*domain.SessionEvent{s})

	assert.InDelta(t, 0.8, effs["Monday-9"], 1e-9)
}

func TestSlotEfficienciesMovingAverageFavorsRecent(t *testing.T) {
	ex := NewFeatureExtractor()

	older := finalizedSession(t, extMonday.Add(9*time.Hour), 60, 60, nil, true)
	// A week later in the same slot, twice over estimate.
	newer := finalizedSession(t, extMonday.AddDate(0, 0, 7).Add(9*time.Hour), 60, 30, nil, true)

	// Order of the input slice must not matter.
	effs := ex.SlotEfficiencies([]*domain.SessionEvent{newer, older})

	assert.InDelta(t, 0.3*0.5+0.7*1.0, effs["Monday-9"], 1e-9)
}

func TestSlotEfficienciesIgnoresIncomplete(t *testing.T) {
	ex := NewFeatureExtractor()

	abandoned := finalizedSession(t, extMonday.Add(9*time.Hour), 60, 60, nil, false)
	open, err := domain.NewSessionEvent(uuid.New(), nil, extMonday.Add(10*time.Hour), 60)
	require.NoError(t, err)

	effs := ex.SlotEfficiencies([]*domain.SessionEvent{abandoned, open})

	assert.Empty(t, effs)
}

func TestPeakWindowsContiguousRuns(t *testing.T) {
	ex := NewFeatureExtractor()

	effs := map[string]float64{
		"Monday-9":   0.8,
		"Monday-10":  0.9,
		"Monday-11":  0.6, // breaks the run
		"Monday-14":  0.9, // single hour, too short
		"Tuesday-20": 0.7,
		"Tuesday-21": 0.8,
		"Tuesday-22": 0.75,
	}

	windows := ex.PeakWindows(effs, 0.7)

	require.Len(t, windows, 2)
	assert.Equal(t, time.Monday, windows[0].Day)
	assert.Equal(t, 9, windows[0].StartHour)
	assert.Equal(t, 11, windows[0].EndHour)
	assert.InDelta(t, 0.85, windows[0].Efficiency, 1e-9)

	assert.Equal(t, time.Tuesday, windows[1].Day)
	assert.Equal(t, 20, windows[1].StartHour)
	assert.Equal(t, 23, windows[1].EndHour)
	assert.InDelta(t, 0.75, windows[1].Efficiency, 1e-9)
}

func TestSessionParametersDefaultsOnSparseData(t *testing.T) {
	ex := NewFeatureExtractor()

	sessions := []*domain.SessionEvent{
		finalizedSession(t, extMonday.Add(9*time.Hour), 50, 60, ratingOf(4), true),
	}

	maxContinuous, idealBreak, decay := ex.SessionParameters(sessions)

	assert.Equal(t, domain.DefaultMaxContinuousMinutes, maxContinuous)
	assert.Equal(t, domain.DefaultIdealBreakMinutes, idealBreak)
	assert.InDelta(t, domain.DefaultEfficiencyDecayRate, decay, 1e-9)
}

func TestSessionParametersFromBestRatedBin(t *testing.T) {
	ex := NewFeatureExtractor()

	var sessions []*domain.SessionEvent
	// Three ~50-minute sessions rated 5 make the 45-60 bin the sweet spot.
	for i := 0; i < 3; i++ {
		sessions = append(sessions, finalizedSession(t, extMonday.AddDate(0, 0, i).Add(9*time.Hour), 50, 60, ratingOf(5), true))
	}
	// Longer sessions degrade: +20 over the envelope rates 3, +50 rates 2.
	sessions = append(sessions,
		finalizedSession(t, extMonday.AddDate(0, 0, 3).Add(9*time.Hour), 80, 60, ratingOf(3), true),
		finalizedSession(t, extMonday.AddDate(0, 0, 4).Add(9*time.Hour), 110, 60, ratingOf(2), true),
	)

	maxContinuous, idealBreak, decay := ex.SessionParameters(sessions)

	assert.Equal(t, 60, maxContinuous)
	assert.Equal(t, 12, idealBreak)
	// Bin means (1,3) and (3,2) give a slope of -0.5 ratings per bin.
	assert.InDelta(t, 0.5/15, decay, 1e-9)
}

func TestFatigueRecoveryDefaultsOnNoRuns(t *testing.T) {
	ex := NewFeatureExtractor()

	fatigue, recovery := ex.FatigueRecovery(nil)

	assert.InDelta(t, domain.DefaultFatigueFactor, fatigue, 1e-9)
	assert.InDelta(t, domain.DefaultRecoveryFactor, recovery, 1e-9)
}

func TestFatigueRecoveryFromRuns(t *testing.T) {
	ex := NewFeatureExtractor()

	// One run of three sessions with 10-minute breaks, ratings 5, 4, 3.
	start := extMonday.Add(9 * time.Hour)
	first := finalizedSession(t, start, 60, 60, ratingOf(5), true)
	second := finalizedSession(t, start.Add(70*time.Minute), 60, 60, ratingOf(4), true)
	third := finalizedSession(t, start.Add(140*time.Minute), 60, 60, ratingOf(3), true)
	// After a two-hour break the rating bounces back to 4.
	fourth := finalizedSession(t, start.Add(200*time.Minute).Add(2*time.Hour), 60, 60, ratingOf(4), true)

	fatigue, recovery := ex.FatigueRecovery([]*domain.SessionEvent{first, second, third, fourth})

	// Smoothed ratings 5, 4.5, 3.5: a 30% drop first to last.
	assert.InDelta(t, 0.3, fatigue, 1e-9)
	// (4-3)/3 improvement over a two-hour gap.
	assert.InDelta(t, (4.0-3.0)/3.0/2.0, recovery, 1e-9)
}

func TestAdjustmentFactorsClampAndRenormalize(t *testing.T) {
	ex := NewFeatureExtractor()

	// Monday is a perfect day, Tuesday a write-off.
	good := finalizedSession(t, extMonday.Add(9*time.Hour), 60, 60, ratingOf(5), true)
	bad := finalizedSession(t, extMonday.AddDate(0, 0, 1).Add(9*time.Hour), 120, 60, nil, false)

	multipliers, buffer := ex.AdjustmentFactors([]*domain.SessionEvent{good, bad}, nil)

	require.Len(t, multipliers, 7)
	assert.InDelta(t, domain.MaxDayMultiplier, multipliers["Monday"], 1e-9)
	assert.InDelta(t, domain.MinDayMultiplier, multipliers["Tuesday"], 1e-9)

	var sum float64
	for _, m := range multipliers {
		sum += m
	}
	assert.InDelta(t, 1.0, sum/7, 1e-6)

	assert.Equal(t, domain.DefaultSoftObligationBufferMinutes, buffer)
}

func TestAdjustmentFactorsBufferMedianBeforeHardCommitments(t *testing.T) {
	ex := NewFeatureExtractor()

	studentID := uuid.New()
	var sessions []*domain.SessionEvent
	var signals []*domain.ContextSignal

	gaps := []int{15, 20, 50}
	for i, gap := range gaps {
		day := extMonday.AddDate(0, 0, i)
		s := finalizedSession(t, day.Add(9*time.Hour), 60, 60, ratingOf(4), true)
		sessions = append(sessions, s)

		classStart := s.EndTime().Add(time.Duration(gap) * time.Minute)
		class, err := domain.NewContextSignal(studentID, domain.SignalClass, classStart, classStart.Add(time.Hour), nil)
		require.NoError(t, err)
		signals = append(signals, class)
	}

	// Sleep right after the first session must not shrink the gap.
	sleepStart := sessions[0].EndTime().Add(5 * time.Minute)
	sleep, err := domain.NewContextSignal(studentID, domain.SignalSleep, sleepStart, sleepStart.Add(8*time.Hour), nil)
	require.NoError(t, err)
	signals = append(signals, sleep)

	_, buffer := ex.AdjustmentFactors(sessions, signals)

	assert.Equal(t, 20, buffer)
}

func TestRetentionIndicatorsFavorsMornings(t *testing.T) {
	ex := NewFeatureExtractor()

	rates := ex.RetentionIndicators()

	assert.InDelta(t, 0.8, rates["Monday-9"], 1e-9)
	assert.InDelta(t, 0.7, rates["Monday-20"], 1e-9)
	assert.InDelta(t, 0.6, rates["Monday-14"], 1e-9)
	assert.NotContains(t, rates, "Monday-6")
	assert.NotContains(t, rates, "Monday-22")
}
