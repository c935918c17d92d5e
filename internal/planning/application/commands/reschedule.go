package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/application/services"
	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/planning/solver"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// RescheduleCommand requests a full re-placement of a student's flexible and
// study sessions.
type RescheduleCommand struct {
	StudentID uuid.UUID
	// NewObligationID marks a just-created flexible obligation. Its hours are
	// taken from the weekly target instead of any stale placements.
	NewObligationID *uuid.UUID
	WeekStart       *time.Time
}

// RescheduleResult reports what the run applied.
type RescheduleResult struct {
	AppliedEvents int
	SolverStatus  solver.Status
}

// ProfileWeightsProvider supplies optional soft-preference weights derived
// from the student's productivity profile. The coordinator reads only.
type ProfileWeightsProvider interface {
	Weights(ctx context.Context, studentID uuid.UUID) (*solver.ProfileWeights, error)
}

// RescheduleHandler orchestrates a per-student reschedule: load, normalize,
// solve, then atomically swap the placeable calendar events. Runs for the
// same student are serialized; a failed solve leaves the calendar untouched.
type RescheduleHandler struct {
	eventRepo  domain.CalendarEventRepository
	flexRepo   domain.FlexibleObligationRepository
	taskRepo   domain.AcademicTaskRepository
	normalizer *services.Normalizer
	runner     *services.SolverRunner
	locks      *services.StudentLock
	weights    ProfileWeightsProvider
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
	now        func() time.Time
}

// NewRescheduleHandler creates a new RescheduleHandler. The weights provider
// may be nil; placement then uses the unbiased objective.
func NewRescheduleHandler(
	eventRepo domain.CalendarEventRepository,
	flexRepo domain.FlexibleObligationRepository,
	taskRepo domain.AcademicTaskRepository,
	normalizer *services.Normalizer,
	runner *services.SolverRunner,
	locks *services.StudentLock,
	weights ProfileWeightsProvider,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *RescheduleHandler {
	if locks == nil {
		locks = services.NewStudentLock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RescheduleHandler{
		eventRepo:  eventRepo,
		flexRepo:   flexRepo,
		taskRepo:   taskRepo,
		normalizer: normalizer,
		runner:     runner,
		locks:      locks,
		weights:    weights,
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the handler clock, for tests.
func (h *RescheduleHandler) WithNow(now func() time.Time) *RescheduleHandler {
	h.now = now
	return h
}

// Handle executes the RescheduleCommand.
func (h *RescheduleHandler) Handle(ctx context.Context, cmd RescheduleCommand) (*RescheduleResult, error) {
	if cmd.StudentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", domain.ErrInvalidInput)
	}

	h.locks.Lock(cmd.StudentID)
	defer h.locks.Unlock(cmd.StudentID)

	weekStart := h.now()
	if cmd.WeekStart != nil {
		weekStart = cmd.WeekStart.UTC()
	}

	input, err := h.assemble(ctx, cmd, weekStart)
	if err != nil {
		return nil, err
	}

	result, err := h.runner.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	applied, err := h.apply(ctx, cmd.StudentID, result)
	if err != nil {
		return nil, err
	}

	h.logger.Info("reschedule applied",
		"student_id", cmd.StudentID,
		"solver_status", result.Status,
		"applied_events", applied,
		"nodes_explored", result.NodesExplored,
	)

	return &RescheduleResult{AppliedEvents: applied, SolverStatus: result.Status}, nil
}

// assemble loads the student's rows and normalizes them into solver inputs.
func (h *RescheduleHandler) assemble(ctx context.Context, cmd RescheduleCommand, weekStart time.Time) (solver.Input, error) {
	events, err := h.eventRepo.FindByStudent(ctx, cmd.StudentID)
	if err != nil {
		return solver.Input{}, fmt.Errorf("%w: loading calendar events: %v", domain.ErrPersistence, err)
	}

	var immovable []*domain.CalendarEvent
	previousHours := make(map[uuid.UUID]float64)
	for _, ev := range events {
		if ev.Status() != domain.EventScheduled {
			continue
		}
		if ev.IsImmovable() {
			immovable = append(immovable, ev)
			continue
		}
		if ev.Type() != domain.EventFlexibleObligation {
			continue
		}
		if cmd.NewObligationID != nil && ev.Ref().ID == *cmd.NewObligationID {
			continue
		}
		previousHours[ev.Ref().ID] += ev.EndTime().Sub(ev.StartTime()).Hours()
	}

	flexible, err := h.flexRepo.FindByStudent(ctx, cmd.StudentID)
	if err != nil {
		return solver.Input{}, fmt.Errorf("%w: loading flexible obligations: %v", domain.ErrPersistence, err)
	}
	tasks, err := h.taskRepo.FindSchedulableByStudent(ctx, cmd.StudentID)
	if err != nil {
		return solver.Input{}, fmt.Errorf("%w: loading academic tasks: %v", domain.ErrPersistence, err)
	}

	input, err := h.normalizer.Normalize(services.NormalizeInput{
		WeekStart:       weekStart,
		ImmovableEvents: immovable,
		Flexible:        flexible,
		Tasks:           tasks,
		PreviousHours:   previousHours,
	})
	if err != nil {
		return solver.Input{}, err
	}

	if h.weights != nil {
		weights, err := h.weights.Weights(ctx, cmd.StudentID)
		if err != nil {
			h.logger.Warn("profile weights unavailable, using unbiased objective",
				"student_id", cmd.StudentID,
				"error", err,
			)
		} else {
			input.Weights = weights
		}
	}

	return input, nil
}

// apply swaps the placeable events in one transaction: delete every flexible
// and study event, insert the solved placements, and enqueue the applied
// event for publication.
func (h *RescheduleHandler) apply(ctx context.Context, studentID uuid.UUID, result *solver.Result) (int, error) {
	var applied int

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if _, err := h.eventRepo.DeletePlaceableByStudent(txCtx, studentID); err != nil {
			return fmt.Errorf("%w: deleting placeable events: %v", domain.ErrPersistence, err)
		}

		newEvents := make([]*domain.CalendarEvent, 0, len(result.Sessions))
		for _, s := range result.Sessions {
			ref := domain.FlexibleRef(s.TaskID)
			if s.IsStudy {
				ref = domain.StudyRef(s.TaskID)
			}
			ev, err := domain.NewCalendarEvent(studentID, ref, s.Start, s.End, s.Priority)
			if err != nil {
				return err
			}
			newEvents = append(newEvents, ev)
		}
		if err := h.eventRepo.SaveBatch(txCtx, newEvents); err != nil {
			return fmt.Errorf("%w: saving placements: %v", domain.ErrPersistence, err)
		}
		applied = len(newEvents)

		event := domain.NewScheduleAppliedEvent(studentID, applied, string(result.Status))
		return stageEvents(txCtx, h.outboxRepo, studentID, []sharedDomain.DomainEvent{&event})
	})
	if err != nil {
		return 0, err
	}

	return applied, nil
}
