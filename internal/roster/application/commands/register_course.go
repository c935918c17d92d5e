package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/application/services"
	"github.com/studora/studora/internal/roster/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
)

// RegisterCourseCommand registers a student for a course and materializes
// its lectures onto their calendar.
type RegisterCourseCommand struct {
	StudentID uuid.UUID
	CourseID  uuid.UUID
}

// RegisterCourseResult reports the registration and lecture expansion.
type RegisterCourseResult struct {
	RegistrationID uuid.UUID
	LectureEvents  int
}

// RegisterCourseHandler handles the RegisterCourseCommand.
type RegisterCourseHandler struct {
	students      domain.StudentRepository
	courses       domain.CourseRepository
	registrations domain.RegistrationRepository
	expander      *services.LectureExpander
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	now           func() time.Time
}

// NewRegisterCourseHandler creates a new RegisterCourseHandler.
func NewRegisterCourseHandler(
	students domain.StudentRepository,
	courses domain.CourseRepository,
	registrations domain.RegistrationRepository,
	expander *services.LectureExpander,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *RegisterCourseHandler {
	return &RegisterCourseHandler{
		students:      students,
		courses:       courses,
		registrations: registrations,
		expander:      expander,
		outboxRepo:    outboxRepo,
		uow:           uow,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for tests.
func (h *RegisterCourseHandler) WithNow(now func() time.Time) *RegisterCourseHandler {
	h.now = now
	return h
}

// Handle executes the RegisterCourseCommand.
func (h *RegisterCourseHandler) Handle(ctx context.Context, cmd RegisterCourseCommand) (*RegisterCourseResult, error) {
	if _, err := h.students.FindByID(ctx, cmd.StudentID); err != nil {
		return nil, err
	}
	course, err := h.courses.FindByID(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	existing, err := h.registrations.FindByStudentAndCourse(ctx, cmd.StudentID, cmd.CourseID)
	if err != nil && !errors.Is(err, planningDomain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: already registered for course %d", planningDomain.ErrConflict, course.CRN())
	}

	registration, err := domain.NewRegistration(cmd.StudentID, cmd.CourseID, h.now())
	if err != nil {
		return nil, err
	}

	result := &RegisterCourseResult{RegistrationID: registration.ID()}
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.registrations.Save(txCtx, registration); err != nil {
			return err
		}
		created, err := h.expander.Regenerate(txCtx, cmd.StudentID, course)
		if err != nil {
			return err
		}
		result.LectureEvents = created

		event := domain.NewRegistrationChangedEvent(registration.ID(), cmd.StudentID, cmd.CourseID, domain.RegistrationAdded)
		return stageEvents(txCtx, h.outboxRepo, cmd.StudentID, []sharedDomain.DomainEvent{&event})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
