package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/application/services"
	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// DeleteFixedObligationCommand removes the obligation and every calendar
// event materialized from it.
type DeleteFixedObligationCommand struct {
	ObligationID uuid.UUID
	StudentID    uuid.UUID
}

// DeleteFixedObligationHandler handles the DeleteFixedObligationCommand.
type DeleteFixedObligationHandler struct {
	repo       domain.FixedObligationRepository
	expander   *services.RecurrenceExpander
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewDeleteFixedObligationHandler creates a new DeleteFixedObligationHandler.
func NewDeleteFixedObligationHandler(
	repo domain.FixedObligationRepository,
	expander *services.RecurrenceExpander,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *DeleteFixedObligationHandler {
	return &DeleteFixedObligationHandler{
		repo:       repo,
		expander:   expander,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeleteFixedObligationCommand.
func (h *DeleteFixedObligationHandler) Handle(ctx context.Context, cmd DeleteFixedObligationCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		obligation, err := h.repo.FindByID(txCtx, cmd.ObligationID)
		if err != nil {
			return err
		}
		if obligation.StudentID() != cmd.StudentID {
			return fmt.Errorf("%w: obligation belongs to another student", domain.ErrForbidden)
		}

		if err := h.expander.RemoveAll(txCtx, obligation); err != nil {
			return err
		}
		if err := h.repo.Delete(txCtx, cmd.ObligationID); err != nil {
			return err
		}

		event := domain.NewObligationChangedEvent(cmd.ObligationID, cmd.StudentID, domain.ObligationKindFixed, domain.ChangeDeleted)
		return stageEvents(txCtx, h.outboxRepo, cmd.StudentID, []sharedDomain.DomainEvent{&event})
	})
}
