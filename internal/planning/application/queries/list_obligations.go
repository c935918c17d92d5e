package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/planning/domain"
)

// ListObligationsQuery asks for everything the scheduler plans for a student.
type ListObligationsQuery struct {
	StudentID uuid.UUID
}

// ListObligationsResult groups the student's planning inputs.
type ListObligationsResult struct {
	Fixed    []*domain.FixedObligation
	Flexible []*domain.FlexibleObligation
	Tasks    []*domain.AcademicTask
}

// ListObligationsHandler handles the ListObligationsQuery.
type ListObligationsHandler struct {
	fixedRepo domain.FixedObligationRepository
	flexRepo  domain.FlexibleObligationRepository
	taskRepo  domain.AcademicTaskRepository
}

// NewListObligationsHandler creates a new ListObligationsHandler.
func NewListObligationsHandler(
	fixedRepo domain.FixedObligationRepository,
	flexRepo domain.FlexibleObligationRepository,
	taskRepo domain.AcademicTaskRepository,
) *ListObligationsHandler {
	return &ListObligationsHandler{
		fixedRepo: fixedRepo,
		flexRepo:  flexRepo,
		taskRepo:  taskRepo,
	}
}

// Handle executes the ListObligationsQuery.
func (h *ListObligationsHandler) Handle(ctx context.Context, q ListObligationsQuery) (*ListObligationsResult, error) {
	fixed, err := h.fixedRepo.FindByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	flexible, err := h.flexRepo.FindByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	tasks, err := h.taskRepo.FindByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	return &ListObligationsResult{
		Fixed:    fixed,
		Flexible: flexible,
		Tasks:    tasks,
	}, nil
}
