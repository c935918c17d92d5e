package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// UpdateFlexibleObligationCommand replaces the obligation's weekly budget and
// placement constraints.
type UpdateFlexibleObligationCommand struct {
	ObligationID      uuid.UUID
	StudentID         uuid.UUID
	WeeklyTargetHours float64
	Constraints       domain.Constraints
	StartDate         *time.Time
	EndDate           *time.Time
	Priority          int
}

// UpdateFlexibleObligationHandler handles the UpdateFlexibleObligationCommand.
type UpdateFlexibleObligationHandler struct {
	repo       domain.FlexibleObligationRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateFlexibleObligationHandler creates a new UpdateFlexibleObligationHandler.
func NewUpdateFlexibleObligationHandler(
	repo domain.FlexibleObligationRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UpdateFlexibleObligationHandler {
	return &UpdateFlexibleObligationHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the UpdateFlexibleObligationCommand.
func (h *UpdateFlexibleObligationHandler) Handle(ctx context.Context, cmd UpdateFlexibleObligationCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		obligation, err := h.repo.FindByID(txCtx, cmd.ObligationID)
		if err != nil {
			return err
		}
		if obligation.StudentID() != cmd.StudentID {
			return fmt.Errorf("%w: obligation belongs to another student", domain.ErrForbidden)
		}

		if err := obligation.UpdateBudget(
			cmd.WeeklyTargetHours,
			cmd.Constraints,
			cmd.StartDate,
			cmd.EndDate,
			cmd.Priority,
		); err != nil {
			return err
		}

		if err := h.repo.Save(txCtx, obligation); err != nil {
			return err
		}
		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, obligation.DomainEvents()); err != nil {
			return err
		}
		obligation.ClearDomainEvents()
		return nil
	})
}
