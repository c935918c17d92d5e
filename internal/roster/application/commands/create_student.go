package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/roster/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
)

// CreateStudentCommand enrolls a new student.
type CreateStudentCommand struct {
	Name    string
	Email   string
	Program string
	Year    int
}

// CreateStudentResult contains the created student id.
type CreateStudentResult struct {
	StudentID uuid.UUID
}

// CreateStudentHandler handles the CreateStudentCommand.
type CreateStudentHandler struct {
	repo domain.StudentRepository
	uow  sharedApplication.UnitOfWork
}

// NewCreateStudentHandler creates a new CreateStudentHandler.
func NewCreateStudentHandler(repo domain.StudentRepository, uow sharedApplication.UnitOfWork) *CreateStudentHandler {
	return &CreateStudentHandler{repo: repo, uow: uow}
}

// Handle executes the CreateStudentCommand.
func (h *CreateStudentHandler) Handle(ctx context.Context, cmd CreateStudentCommand) (*CreateStudentResult, error) {
	student, err := domain.NewStudent(cmd.Name, cmd.Email, cmd.Program, cmd.Year)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.repo.Save(txCtx, student)
	})
	if err != nil {
		return nil, err
	}

	return &CreateStudentResult{StudentID: student.ID()}, nil
}
