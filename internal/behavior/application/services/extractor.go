package services

import (
	"math"
	"sort"
	"time"

	"github.com/studora/studora/internal/behavior/domain"
	"github.com/studora/studora/internal/timegrid"
)

// Extraction tuning. The EMA favors recent sessions; windows need at least
// two consecutive qualifying hours.
const (
	slotEMAAlpha        = 0.3
	peakThreshold       = 0.7
	minPeakRunHours     = 2
	sessionSampleLimit  = 50
	minSessionsForStats = 5
	runGapMinutes       = 30
	binMinutes          = 15
)

// FeatureExtractor derives profile parameters from session telemetry and
// context signals. All methods are pure over their inputs.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a feature extractor.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// rawEfficiency scores one finalized session in [0,1].
func rawEfficiency(s *domain.SessionEvent) (float64, bool) {
	actual := s.ActualMinutes()
	if actual == nil || *actual <= 0 {
		return 0, false
	}
	eff := math.Min(float64(s.EstimatedMinutes())/float64(*actual), 1)
	if r := s.SelfRating(); r != nil {
		eff *= float64(*r) / 5
	}
	return eff, true
}

// SlotEfficiencies aggregates per-"Weekday-Hour" efficiencies with an
// exponential moving average, newest session last. A session spanning several
// hours contributes to each of them.
func (e *FeatureExtractor) SlotEfficiencies(sessions []*domain.SessionEvent) map[string]float64 {
	ordered := make([]*domain.SessionEvent, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed() && s.IsFinalized() {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartTime().Before(ordered[j].StartTime()) })

	effs := make(map[string]float64)
	seen := make(map[string]bool)
	for _, s := range ordered {
		raw, ok := rawEfficiency(s)
		if !ok {
			continue
		}
		for t := s.StartTime().Truncate(time.Hour); t.Before(*s.EndTime()); t = t.Add(time.Hour) {
			key := timegrid.SlotKey(t)
			if !seen[key] {
				effs[key] = raw
				seen[key] = true
				continue
			}
			effs[key] = slotEMAAlpha*raw + (1-slotEMAAlpha)*effs[key]
		}
	}
	return effs
}

// PeakWindows finds maximal contiguous same-day runs of hours whose
// efficiency meets the threshold, at least two hours long. Efficiency is the
// mean over the run.
func (e *FeatureExtractor) PeakWindows(slotEffs map[string]float64, threshold float64) []domain.PeakWindow {
	var windows []domain.PeakWindow

	for day := time.Sunday; day <= time.Saturday; day++ {
		runStart := -1
		var runSum float64

		flush := func(endHour int) {
			length := endHour - runStart
			if runStart >= 0 && length >= minPeakRunHours {
				windows = append(windows, domain.PeakWindow{
					Day:        day,
					StartHour:  runStart,
					EndHour:    endHour,
					Efficiency: runSum / float64(length),
				})
			}
			runStart = -1
			runSum = 0
		}

		for hour := 0; hour < 24; hour++ {
			eff, ok := slotEffs[timegrid.SlotKeyFor(day, hour)]
			if ok && eff >= threshold {
				if runStart < 0 {
					runStart = hour
				}
				runSum += eff
				continue
			}
			flush(hour)
		}
		flush(24)
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Day != windows[j].Day {
			return windows[i].Day < windows[j].Day
		}
		return windows[i].StartHour < windows[j].StartHour
	})
	return windows
}

// SessionParameters derives the continuous-work envelope from the most
// recent rated sessions: the best-rated 15-minute duration bin bounds
// max_continuous_minutes, and the rating falloff beyond it gives the decay
// rate.
func (e *FeatureExtractor) SessionParameters(sessions []*domain.SessionEvent) (maxContinuous, idealBreak int, decayRate float64) {
	maxContinuous = domain.DefaultMaxContinuousMinutes
	idealBreak = domain.DefaultIdealBreakMinutes
	decayRate = domain.DefaultEfficiencyDecayRate

	rated := ratedSessions(sessions, sessionSampleLimit)
	if len(rated) < minSessionsForStats {
		return maxContinuous, idealBreak, decayRate
	}

	bins := make(map[int]*binStats)
	for _, s := range rated {
		bin := *s.ActualMinutes() / binMinutes
		st, ok := bins[bin]
		if !ok {
			st = &binStats{}
			bins[bin] = st
		}
		st.sum += float64(*s.SelfRating())
		st.count++
	}

	bestBin, bestMean := -1, -1.0
	for bin, st := range bins {
		m := st.mean()
		if m > bestMean || (m == bestMean && bin < bestBin) {
			bestBin, bestMean = bin, m
		}
	}
	maxContinuous = (bestBin + 1) * binMinutes
	idealBreak = maxContinuous / 5
	if idealBreak < domain.MinIdealBreakMinutes {
		idealBreak = domain.MinIdealBreakMinutes
	}

	// Regress mean rating against how far past the envelope sessions ran.
	overBins := make(map[int]*binStats)
	for _, s := range rated {
		over := *s.ActualMinutes() - maxContinuous
		if over <= 0 {
			continue
		}
		bin := over / binMinutes
		st, ok := overBins[bin]
		if !ok {
			st = &binStats{}
			overBins[bin] = st
		}
		st.sum += float64(*s.SelfRating())
		st.count++
	}
	if slope, ok := regressionSlope(overBins); ok {
		decayRate = math.Abs(slope) / binMinutes
		if decayRate < domain.MinEfficiencyDecayRate {
			decayRate = domain.MinEfficiencyDecayRate
		}
		if decayRate > domain.MaxEfficiencyDecayRate {
			decayRate = domain.MaxEfficiencyDecayRate
		}
	}

	return maxContinuous, idealBreak, decayRate
}

func ratedSessions(sessions []*domain.SessionEvent, limit int) []*domain.SessionEvent {
	rated := make([]*domain.SessionEvent, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed() && s.IsFinalized() && s.SelfRating() != nil && s.ActualMinutes() != nil {
			rated = append(rated, s)
		}
	}
	sort.Slice(rated, func(i, j int) bool { return rated[i].StartTime().After(rated[j].StartTime()) })
	if len(rated) > limit {
		rated = rated[:limit]
	}
	return rated
}

type binStats struct {
	sum   float64
	count int
}

func (b *binStats) mean() float64 { return b.sum / float64(b.count) }

// regressionSlope fits mean rating = a + b·bin over the bin means.
func regressionSlope(bins map[int]*binStats) (float64, bool) {
	if len(bins) < 2 {
		return 0, false
	}
	var n, sumX, sumY, sumXY, sumXX float64
	for bin, st := range bins {
		x := float64(bin)
		y := st.mean()
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}

// FatigueRecovery measures the rating falloff within uninterrupted runs of
// sessions and the bounce-back between runs.
func (e *FeatureExtractor) FatigueRecovery(sessions []*domain.SessionEvent) (fatigue, recovery float64) {
	fatigue = domain.DefaultFatigueFactor
	recovery = domain.DefaultRecoveryFactor

	rated := make([]*domain.SessionEvent, 0, len(sessions))
	for _, s := range sessions {
		if s.IsFinalized() && s.SelfRating() != nil {
			rated = append(rated, s)
		}
	}
	sort.Slice(rated, func(i, j int) bool { return rated[i].StartTime().Before(rated[j].StartTime()) })
	if len(rated) < 2 {
		return fatigue, recovery
	}

	var runs [][]*domain.SessionEvent
	current := []*domain.SessionEvent{rated[0]}
	for _, s := range rated[1:] {
		prev := current[len(current)-1]
		gap := s.StartTime().Sub(*prev.EndTime())
		if gap < runGapMinutes*time.Minute {
			current = append(current, s)
			continue
		}
		runs = append(runs, current)
		current = []*domain.SessionEvent{s}
	}
	runs = append(runs, current)

	var drops []float64
	for _, run := range runs {
		if len(run) < 2 {
			continue
		}
		smoothed := smoothRatings(run)
		first, last := smoothed[0], smoothed[len(smoothed)-1]
		if first > 0 {
			drops = append(drops, (first-last)/first)
		}
	}
	if len(drops) > 0 {
		fatigue = clamp(mean(drops), domain.MinFatigueFactor, domain.MaxFatigueFactor)
	}

	var recoveries []float64
	for i := 1; i < len(runs); i++ {
		prevRun, nextRun := runs[i-1], runs[i]
		prevLast := float64(*prevRun[len(prevRun)-1].SelfRating())
		nextFirst := float64(*nextRun[0].SelfRating())
		gapHours := nextRun[0].StartTime().Sub(*prevRun[len(prevRun)-1].EndTime()).Hours()
		if prevLast <= 0 || gapHours <= 0 {
			continue
		}
		recoveries = append(recoveries, (nextFirst-prevLast)/prevLast/gapHours)
	}
	if len(recoveries) > 0 {
		recovery = clamp(mean(recoveries), domain.MinRecoveryFactor, domain.MaxRecoveryFactor)
	}

	return fatigue, recovery
}

// smoothRatings applies a window-2 moving average over a run's ratings.
func smoothRatings(run []*domain.SessionEvent) []float64 {
	out := make([]float64, len(run))
	for i, s := range run {
		r := float64(*s.SelfRating())
		if i == 0 {
			out[i] = r
			continue
		}
		out[i] = (r + float64(*run[i-1].SelfRating())) / 2
	}
	return out
}

// AdjustmentFactors derives per-weekday multipliers from session outcomes and
// the pre-commitment buffer from gaps before classes, meetings, and exams.
func (e *FeatureExtractor) AdjustmentFactors(sessions []*domain.SessionEvent, signals []*domain.ContextSignal) (map[string]float64, int) {
	stats := make(map[string]*binStats)

	for _, s := range sessions {
		if !s.IsFinalized() || s.ActualMinutes() == nil || *s.ActualMinutes() <= 0 {
			continue
		}
		score := 0.3 * math.Min(float64(s.EstimatedMinutes())/float64(*s.ActualMinutes()), 1)
		if s.Completed() {
			score += 0.5
		}
		if r := s.SelfRating(); r != nil {
			score += 0.2 * float64(*r) / 5
		}
		name := s.StartTime().Weekday().String()
		st, ok := stats[name]
		if !ok {
			st = &binStats{}
			stats[name] = st
		}
		st.sum += score
		st.count++
	}

	multipliers := make(map[string]float64, 7)
	if len(stats) > 0 {
		var total float64
		for _, st := range stats {
			total += st.mean()
		}
		meanScore := total / float64(len(stats))

		for d := time.Sunday; d <= time.Saturday; d++ {
			name := d.String()
			m := domain.DefaultDayMultiplier
			if st, ok := stats[name]; ok && meanScore > 0 {
				m = clamp(st.mean()/meanScore, domain.MinDayMultiplier, domain.MaxDayMultiplier)
			}
			multipliers[name] = m
		}

		var sum float64
		for _, m := range multipliers {
			sum += m
		}
		norm := sum / 7
		for name, m := range multipliers {
			multipliers[name] = m / norm
		}
	} else {
		for d := time.Sunday; d <= time.Saturday; d++ {
			multipliers[d.String()] = domain.DefaultDayMultiplier
		}
	}

	buffer := e.softObligationBuffer(sessions, signals)
	return multipliers, buffer
}

// softObligationBuffer is the median positive gap, in minutes, between a
// session's end and the next hard commitment.
func (e *FeatureExtractor) softObligationBuffer(sessions []*domain.SessionEvent, signals []*domain.ContextSignal) int {
	var commitments []time.Time
	for _, sig := range signals {
		if sig.Kind().IsHardCommitment() {
			commitments = append(commitments, sig.StartTime())
		}
	}
	sort.Slice(commitments, func(i, j int) bool { return commitments[i].Before(commitments[j]) })

	var gaps []float64
	for _, s := range sessions {
		if !s.IsFinalized() {
			continue
		}
		end := *s.EndTime()
		idx := sort.Search(len(commitments), func(i int) bool { return commitments[i].After(end) })
		if idx == len(commitments) {
			continue
		}
		gap := commitments[idx].Sub(end).Minutes()
		if gap > 0 && gap < 120 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return domain.DefaultSoftObligationBufferMinutes
	}

	sort.Float64s(gaps)
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}
	return clampInt(int(math.Round(median)), domain.MinSoftObligationBufferMinutes, domain.MaxSoftObligationBufferMinutes)
}

// RetentionIndicators is a heuristic uplift profile applied until real recall
// data exists: mornings retain best, evenings second.
func (e *FeatureExtractor) RetentionIndicators() map[string]float64 {
	rates := make(map[string]float64)
	for day := time.Sunday; day <= time.Saturday; day++ {
		for hour := 7; hour < 22; hour++ {
			rate := 0.6
			switch {
			case hour < 12:
				rate = 0.8
			case hour >= 19:
				rate = 0.7
			}
			rates[timegrid.SlotKeyFor(day, hour)] = rate
		}
	}
	return rates
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func clamp(v, lo, hi float64) float64 {
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
