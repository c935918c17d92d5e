package queries

import (
	"context"

	"github.com/studora/studora/internal/roster/domain"
)

// ListCoursesQuery lists the catalog for one semester.
type ListCoursesQuery struct {
	Semester string
}

// ListCoursesHandler handles the ListCoursesQuery.
type ListCoursesHandler struct {
	courses domain.CourseRepository
}

// NewListCoursesHandler creates a new ListCoursesHandler.
func NewListCoursesHandler(courses domain.CourseRepository) *ListCoursesHandler {
	return &ListCoursesHandler{courses: courses}
}

// Handle executes the ListCoursesQuery.
func (h *ListCoursesHandler) Handle(ctx context.Context, q ListCoursesQuery) ([]*domain.Course, error) {
	return h.courses.FindBySemester(ctx, q.Semester)
}
