package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
)

// MarkTasksOverdueCommand sweeps a student's tasks, transitioning those whose
// deadline has passed.
type MarkTasksOverdueCommand struct {
	StudentID uuid.UUID
}

// MarkTasksOverdueResult reports how many tasks transitioned.
type MarkTasksOverdueResult struct {
	Transitioned int
}

// MarkTasksOverdueHandler handles the MarkTasksOverdueCommand.
type MarkTasksOverdueHandler struct {
	repo domain.AcademicTaskRepository
	uow  sharedApplication.UnitOfWork
	now  func() time.Time
}

// NewMarkTasksOverdueHandler creates a new MarkTasksOverdueHandler.
func NewMarkTasksOverdueHandler(repo domain.AcademicTaskRepository, uow sharedApplication.UnitOfWork) *MarkTasksOverdueHandler {
	return &MarkTasksOverdueHandler{
		repo: repo,
		uow:  uow,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the handler clock, for tests.
func (h *MarkTasksOverdueHandler) WithNow(now func() time.Time) *MarkTasksOverdueHandler {
	h.now = now
	return h
}

// Handle executes the MarkTasksOverdueCommand.
func (h *MarkTasksOverdueHandler) Handle(ctx context.Context, cmd MarkTasksOverdueCommand) (*MarkTasksOverdueResult, error) {
	result := &MarkTasksOverdueResult{}
	now := h.now()

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		tasks, err := h.repo.FindByStudent(txCtx, cmd.StudentID)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			if !task.MarkOverdueIfPast(now) {
				continue
			}
			if err := h.repo.Save(txCtx, task); err != nil {
				return err
			}
			result.Transitioned++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
