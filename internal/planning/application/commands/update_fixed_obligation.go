package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/application/services"
	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// UpdateFixedObligationCommand replaces the obligation's template. Future
// occurrences are regenerated; past ones are preserved.
type UpdateFixedObligationCommand struct {
	ObligationID uuid.UUID
	StudentID    uuid.UUID
	Name         string
	Description  string
	StartTime    domain.TimeOfDay
	EndTime      domain.TimeOfDay
	DaysOfWeek   []time.Weekday
	StartDate    time.Time
	EndDate      *time.Time
	Recurrence   domain.Recurrence
	Priority     int
}

// UpdateFixedObligationHandler handles the UpdateFixedObligationCommand.
type UpdateFixedObligationHandler struct {
	repo       domain.FixedObligationRepository
	expander   *services.RecurrenceExpander
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateFixedObligationHandler creates a new UpdateFixedObligationHandler.
func NewUpdateFixedObligationHandler(
	repo domain.FixedObligationRepository,
	expander *services.RecurrenceExpander,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UpdateFixedObligationHandler {
	return &UpdateFixedObligationHandler{
		repo:       repo,
		expander:   expander,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the UpdateFixedObligationCommand.
func (h *UpdateFixedObligationHandler) Handle(ctx context.Context, cmd UpdateFixedObligationCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		obligation, err := h.repo.FindByID(txCtx, cmd.ObligationID)
		if err != nil {
			return err
		}
		if obligation.StudentID() != cmd.StudentID {
			return fmt.Errorf("%w: obligation belongs to another student", domain.ErrForbidden)
		}

		if err := obligation.UpdateTemplate(
			cmd.Name,
			cmd.Description,
			cmd.StartTime,
			cmd.EndTime,
			cmd.DaysOfWeek,
			cmd.StartDate,
			cmd.EndDate,
			cmd.Recurrence,
			cmd.Priority,
		); err != nil {
			return err
		}

		if err := h.repo.Save(txCtx, obligation); err != nil {
			return err
		}
		if _, err := h.expander.Regenerate(txCtx, obligation); err != nil {
			return err
		}

		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, obligation.DomainEvents()); err != nil {
			return err
		}
		obligation.ClearDomainEvents()
		return nil
	})
}
