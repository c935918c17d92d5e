package services

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/planning/solver"
)

// Solver priority defaults per input kind.
const (
	defaultFixedPriority    = 1
	defaultFlexiblePriority = 3
	defaultAcademicPriority = 8
)

// Normalizer coerces persisted rows into solver-ready inputs. Invalid hour
// values are repaired where a sane default exists and rejected otherwise.
type Normalizer struct {
	slotMinutes int
	logger      *slog.Logger
	now         func() time.Time
}

// NewNormalizer creates a normalizer aligned to the given grid granularity.
func NewNormalizer(slotMinutes int, logger *slog.Logger) *Normalizer {
	if slotMinutes <= 0 {
		slotMinutes = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		slotMinutes: slotMinutes,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the normalizer clock, for tests.
func (n *Normalizer) WithNow(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// NormalizeInput carries the loaded rows for one student's reschedule.
type NormalizeInput struct {
	WeekStart time.Time
	// ImmovableEvents are existing calendar events the solver must plan
	// around: fixed-obligation occurrences and course lectures.
	ImmovableEvents []*domain.CalendarEvent
	Flexible        []*domain.FlexibleObligation
	Tasks           []*domain.AcademicTask
	// PreviousHours carries the summed durations of an obligation's previously
	// scheduled sessions; when present it overrides the weekly target so a
	// re-place preserves the already-granted amount.
	PreviousHours map[uuid.UUID]float64
}

// Normalize produces the solver input. Obligations and tasks whose deadline
// already passed are dropped with a warning rather than failing the run.
func (n *Normalizer) Normalize(in NormalizeInput) (solver.Input, error) {
	now := n.now()

	out := solver.Input{WeekStart: in.WeekStart}

	for _, ev := range in.ImmovableEvents {
		if !ev.IsImmovable() {
			continue
		}
		priority := ev.Priority()
		if priority <= 0 {
			priority = defaultFixedPriority
		}
		out.Fixed = append(out.Fixed, solver.FixedInterval{
			ID:       ev.ID(),
			Start:    ev.StartTime(),
			End:      ev.EndTime(),
			Priority: priority,
		})
	}

	for _, ob := range in.Flexible {
		// end_date names the last active day, so the placement window runs
		// through the end of that day.
		var endDate *time.Time
		if end := ob.EndDate(); end != nil {
			eod := endOfDayUTC(*end)
			if eod.Before(now) {
				n.logger.Warn("dropping expired flexible obligation",
					"obligation_id", ob.ID(),
					"end_date", *end,
				)
				continue
			}
			endDate = &eod
		}
		if ob.WeeklyTargetHours() <= 0 {
			return solver.Input{}, fmt.Errorf("%w: flexible obligation %s has no weekly target", domain.ErrInvalidInput, ob.ID())
		}

		totalHours := ob.WeeklyTargetHours()
		if prev, ok := in.PreviousHours[ob.ID()]; ok && prev > 0 {
			totalHours = prev
		}

		sessionHours := ob.Constraints().SessionHours
		task := solver.FlexibleTask{
			ID:           ob.ID(),
			TotalHours:   n.snapHours(totalHours),
			SessionHours: n.snapHours(sessionHours),
			StartDate:    ob.StartDate(),
			EndDate:      endDate,
			Priority:     priorityOrDefault(ob.Priority(), defaultFlexiblePriority),
			AllowedDays:  ob.Constraints().AllowedDays,
		}
		out.Tasks = append(out.Tasks, task)
	}

	for _, t := range in.Tasks {
		if !t.IsSchedulable() {
			continue
		}
		deadline := t.Deadline()
		if deadline.Before(now) {
			n.logger.Warn("dropping past-deadline academic task",
				"task_id", t.ID(),
				"deadline", deadline,
			)
			continue
		}

		out.Tasks = append(out.Tasks, solver.FlexibleTask{
			ID:           t.ID(),
			TotalHours:   n.snapHours(t.TotalHours()),
			SessionHours: n.snapHours(t.SessionHours()),
			EndDate:      &deadline,
			Priority:     defaultAcademicPriority,
			Dependencies: t.Dependencies(),
			IsStudy:      true,
		})
	}

	return out, nil
}

// snapHours repairs non-positive hour values and floors the rest to the grid
// granularity, never below one slot.
func (n *Normalizer) snapHours(hours float64) float64 {
	if hours <= 0 {
		hours = 1
	}
	slotHours := float64(n.slotMinutes) / 60
	snapped := math.Floor(hours/slotHours) * slotHours
	if snapped < slotHours {
		snapped = slotHours
	}
	return snapped
}

func priorityOrDefault(p, def int) int {
	if p <= 0 {
		return def
	}
	return p
}

func endOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
