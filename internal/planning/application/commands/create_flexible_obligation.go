package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// CreateFlexibleObligationCommand contains the budget for a new flexible
// commitment. Placement happens in the reschedule the change event triggers.
type CreateFlexibleObligationCommand struct {
	StudentID         uuid.UUID
	Name              string
	Description       string
	WeeklyTargetHours float64
	Constraints       domain.Constraints
	StartDate         *time.Time
	EndDate           *time.Time
	Priority          int
}

// CreateFlexibleObligationResult contains the created obligation id.
type CreateFlexibleObligationResult struct {
	ObligationID uuid.UUID
}

// CreateFlexibleObligationHandler handles the CreateFlexibleObligationCommand.
type CreateFlexibleObligationHandler struct {
	repo       domain.FlexibleObligationRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateFlexibleObligationHandler creates a new CreateFlexibleObligationHandler.
func NewCreateFlexibleObligationHandler(
	repo domain.FlexibleObligationRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateFlexibleObligationHandler {
	return &CreateFlexibleObligationHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateFlexibleObligationCommand.
func (h *CreateFlexibleObligationHandler) Handle(ctx context.Context, cmd CreateFlexibleObligationCommand) (*CreateFlexibleObligationResult, error) {
	obligation, err := domain.NewFlexibleObligation(
		cmd.StudentID,
		cmd.Name,
		cmd.Description,
		cmd.WeeklyTargetHours,
		cmd.Constraints,
		cmd.StartDate,
		cmd.EndDate,
		cmd.Priority,
	)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, obligation); err != nil {
			return err
		}
		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, obligation.DomainEvents()); err != nil {
			return err
		}
		obligation.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateFlexibleObligationResult{ObligationID: obligation.ID()}, nil
}
