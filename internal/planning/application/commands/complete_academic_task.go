package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// CompleteAcademicTaskCommand marks a task finished and clears its remaining
// study sessions from the calendar.
type CompleteAcademicTaskCommand struct {
	TaskID    uuid.UUID
	StudentID uuid.UUID
}

// CompleteAcademicTaskHandler handles the CompleteAcademicTaskCommand.
type CompleteAcademicTaskHandler struct {
	repo       domain.AcademicTaskRepository
	eventRepo  domain.CalendarEventRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCompleteAcademicTaskHandler creates a new CompleteAcademicTaskHandler.
func NewCompleteAcademicTaskHandler(
	repo domain.AcademicTaskRepository,
	eventRepo domain.CalendarEventRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CompleteAcademicTaskHandler {
	return &CompleteAcademicTaskHandler{
		repo:       repo,
		eventRepo:  eventRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CompleteAcademicTaskCommand.
func (h *CompleteAcademicTaskHandler) Handle(ctx context.Context, cmd CompleteAcademicTaskCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		task, err := h.repo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}
		if task.StudentID() != cmd.StudentID {
			return fmt.Errorf("%w: task belongs to another student", domain.ErrForbidden)
		}

		if err := task.Complete(); err != nil {
			return err
		}
		if err := h.repo.Save(txCtx, task); err != nil {
			return err
		}

		// Remaining study sessions are no longer needed.
		if _, err := h.eventRepo.DeleteByRef(txCtx, domain.StudyRef(cmd.TaskID)); err != nil {
			return err
		}

		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, task.DomainEvents()); err != nil {
			return err
		}
		task.ClearDomainEvents()
		return nil
	})
}
