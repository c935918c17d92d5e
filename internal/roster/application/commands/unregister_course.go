package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/application/services"
	"github.com/studora/studora/internal/roster/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// UnregisterCourseCommand drops a student's course registration and clears
// its lectures from their calendar.
type UnregisterCourseCommand struct {
	StudentID uuid.UUID
	CourseID  uuid.UUID
}

// UnregisterCourseHandler handles the UnregisterCourseCommand.
type UnregisterCourseHandler struct {
	registrations domain.RegistrationRepository
	expander      *services.LectureExpander
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
}

// NewUnregisterCourseHandler creates a new UnregisterCourseHandler.
func NewUnregisterCourseHandler(
	registrations domain.RegistrationRepository,
	expander *services.LectureExpander,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UnregisterCourseHandler {
	return &UnregisterCourseHandler{
		registrations: registrations,
		expander:      expander,
		outboxRepo:    outboxRepo,
		uow:           uow,
	}
}

// Handle executes the UnregisterCourseCommand.
func (h *UnregisterCourseHandler) Handle(ctx context.Context, cmd UnregisterCourseCommand) error {
	registration, err := h.registrations.FindByStudentAndCourse(ctx, cmd.StudentID, cmd.CourseID)
	if err != nil {
		return fmt.Errorf("finding registration: %w", err)
	}
	if registration.StudentID() != cmd.StudentID {
		return fmt.Errorf("%w: registration belongs to another student", planningDomain.ErrForbidden)
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.expander.RemoveForStudent(txCtx, cmd.StudentID, cmd.CourseID); err != nil {
			return err
		}
		if err := h.registrations.Delete(txCtx, registration.ID()); err != nil {
			return err
		}

		event := domain.NewRegistrationChangedEvent(registration.ID(), cmd.StudentID, cmd.CourseID, domain.RegistrationRemoved)
		return stageEvents(txCtx, h.outboxRepo, cmd.StudentID, []sharedDomain.DomainEvent{&event})
	})
}
