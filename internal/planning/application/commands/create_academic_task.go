package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// CreateAcademicTaskCommand contains the data for a new course deliverable.
type CreateAcademicTaskCommand struct {
	StudentID    uuid.UUID
	CourseID     uuid.UUID
	TaskType     domain.TaskType
	Title        string
	Description  string
	Deadline     time.Time
	TotalHours   float64
	SessionHours float64
	Dependencies []uuid.UUID
}

// CreateAcademicTaskResult contains the created task id.
type CreateAcademicTaskResult struct {
	TaskID uuid.UUID
}

// CreateAcademicTaskHandler handles the CreateAcademicTaskCommand.
type CreateAcademicTaskHandler struct {
	repo       domain.AcademicTaskRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateAcademicTaskHandler creates a new CreateAcademicTaskHandler.
func NewCreateAcademicTaskHandler(
	repo domain.AcademicTaskRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateAcademicTaskHandler {
	return &CreateAcademicTaskHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateAcademicTaskCommand.
func (h *CreateAcademicTaskHandler) Handle(ctx context.Context, cmd CreateAcademicTaskCommand) (*CreateAcademicTaskResult, error) {
	task, err := domain.NewAcademicTask(
		cmd.StudentID,
		cmd.CourseID,
		cmd.TaskType,
		cmd.Title,
		cmd.Description,
		cmd.Deadline,
		cmd.TotalHours,
		cmd.SessionHours,
		cmd.Dependencies,
	)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, task); err != nil {
			return err
		}
		if err := stageEvents(txCtx, h.outboxRepo, cmd.StudentID, task.DomainEvents()); err != nil {
			return err
		}
		task.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateAcademicTaskResult{TaskID: task.ID()}, nil
}
