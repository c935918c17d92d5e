package domain

import (
	"context"

	"github.com/google/uuid"
)

// StudentRepository persists students.
type StudentRepository interface {
	Save(ctx context.Context, student *Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*Student, error)
	FindByEmail(ctx context.Context, email string) (*Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CourseRepository persists course sections.
type CourseRepository interface {
	Save(ctx context.Context, course *Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*Course, error)
	FindByCRN(ctx context.Context, crn int) (*Course, error)
	FindBySemester(ctx context.Context, semester string) ([]*Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegistrationRepository persists student-course registrations.
type RegistrationRepository interface {
	Save(ctx context.Context, registration *Registration) error
	FindByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) (*Registration, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
