package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// DeleteFlexibleObligationCommand removes the obligation and its placed
// calendar events.
type DeleteFlexibleObligationCommand struct {
	ObligationID uuid.UUID
	StudentID    uuid.UUID
}

// DeleteFlexibleObligationHandler handles the DeleteFlexibleObligationCommand.
type DeleteFlexibleObligationHandler struct {
	repo       domain.FlexibleObligationRepository
	eventRepo  domain.CalendarEventRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewDeleteFlexibleObligationHandler creates a new DeleteFlexibleObligationHandler.
func NewDeleteFlexibleObligationHandler(
	repo domain.FlexibleObligationRepository,
	eventRepo domain.CalendarEventRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *DeleteFlexibleObligationHandler {
	return &DeleteFlexibleObligationHandler{
		repo:       repo,
		eventRepo:  eventRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeleteFlexibleObligationCommand.
func (h *DeleteFlexibleObligationHandler) Handle(ctx context.Context, cmd DeleteFlexibleObligationCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		obligation, err := h.repo.FindByID(txCtx, cmd.ObligationID)
		if err != nil {
			return err
		}
		if obligation.StudentID() != cmd.StudentID {
			return fmt.Errorf("%w: obligation belongs to another student", domain.ErrForbidden)
		}

		if _, err := h.eventRepo.DeleteByRef(txCtx, domain.FlexibleRef(cmd.ObligationID)); err != nil {
			return err
		}
		if err := h.repo.Delete(txCtx, cmd.ObligationID); err != nil {
			return err
		}

		event := domain.NewObligationChangedEvent(cmd.ObligationID, cmd.StudentID, domain.ObligationKindFlexible, domain.ChangeDeleted)
		return stageEvents(txCtx, h.outboxRepo, cmd.StudentID, []sharedDomain.DomainEvent{&event})
	})
}
