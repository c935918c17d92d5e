package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/studora/studora/internal/roster/domain"
)

// RegisteredCoursesQuery lists the courses a student is registered for.
type RegisteredCoursesQuery struct {
	StudentID uuid.UUID
}

// RegisteredCoursesHandler handles the RegisteredCoursesQuery.
type RegisteredCoursesHandler struct {
	registrations domain.RegistrationRepository
	courses       domain.CourseRepository
}

// NewRegisteredCoursesHandler creates a new RegisteredCoursesHandler.
func NewRegisteredCoursesHandler(registrations domain.RegistrationRepository, courses domain.CourseRepository) *RegisteredCoursesHandler {
	return &RegisteredCoursesHandler{registrations: registrations, courses: courses}
}

// Handle executes the RegisteredCoursesQuery.
func (h *RegisteredCoursesHandler) Handle(ctx context.Context, q RegisteredCoursesQuery) ([]*domain.Course, error) {
	registrations, err := h.registrations.FindByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	courses := make([]*domain.Course, 0, len(registrations))
	for _, reg := range registrations {
		course, err := h.courses.FindByID(ctx, reg.CourseID())
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}
