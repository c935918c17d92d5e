package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/application/services"
	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// CreateFixedObligationCommand contains the template for a new recurring
// immovable commitment.
type CreateFixedObligationCommand struct {
	StudentID   uuid.UUID
	Name        string
	Description string
	StartTime   domain.TimeOfDay
	EndTime     domain.TimeOfDay
	DaysOfWeek  []time.Weekday
	StartDate   time.Time
	EndDate     *time.Time
	Recurrence  domain.Recurrence
	Priority    int
	CourseID    *uuid.UUID
}

// CreateFixedObligationResult contains the created obligation.
type CreateFixedObligationResult struct {
	ObligationID uuid.UUID
	EventsCount  int
}

// CreateFixedObligationHandler persists the obligation and materializes its
// calendar occurrences in one transaction.
type CreateFixedObligationHandler struct {
	repo       domain.FixedObligationRepository
	expander   *services.RecurrenceExpander
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateFixedObligationHandler creates a new CreateFixedObligationHandler.
func NewCreateFixedObligationHandler(
	repo domain.FixedObligationRepository,
	expander *services.RecurrenceExpander,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateFixedObligationHandler {
	return &CreateFixedObligationHandler{
		repo:       repo,
		expander:   expander,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateFixedObligationCommand.
func (h *CreateFixedObligationHandler) Handle(ctx context.Context, cmd CreateFixedObligationCommand) (*CreateFixedObligationResult, error) {
	obligation, err := domain.NewFixedObligation(
		cmd.StudentID,
		cmd.Name,
		cmd.Description,
		cmd.StartTime,
		cmd.EndTime,
		cmd.DaysOfWeek,
		cmd.StartDate,
		cmd.EndDate,
		cmd.Recurrence,
		cmd.Priority,
		cmd.CourseID,
	)
	if err != nil {
		return nil, err
	}

	var result *CreateFixedObligationResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, obligation); err != nil {
			return err
		}

		created, err := h.expander.Regenerate(txCtx, obligation)
		if err != nil {
			return err
		}

		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, obligation.DomainEvents()); err != nil {
			return err
		}
		obligation.ClearDomainEvents()

		result = &CreateFixedObligationResult{
			ObligationID: obligation.ID(),
			EventsCount:  created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
