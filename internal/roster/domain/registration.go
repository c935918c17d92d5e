package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// Registration links a student to a course section. At most one per pair.
type Registration struct {
	sharedDomain.BaseEntity
	studentID    uuid.UUID
	courseID     uuid.UUID
	registeredAt time.Time
}

// NewRegistration registers a student for a course.
func NewRegistration(studentID, courseID uuid.UUID, registeredAt time.Time) (*Registration, error) {
	if studentID == uuid.Nil || courseID == uuid.Nil {
		return nil, fmt.Errorf("%w: student and course ids are required", planningDomain.ErrInvalidInput)
	}
	return &Registration{
		BaseEntity:   sharedDomain.NewBaseEntity(),
		studentID:    studentID,
		courseID:     courseID,
		registeredAt: registeredAt.UTC(),
	}, nil
}

// RehydrateRegistration recreates a registration from persisted state.
func RehydrateRegistration(
	id uuid.UUID,
	studentID, courseID uuid.UUID,
	registeredAt time.Time,
	createdAt, updatedAt time.Time,
) *Registration {
	return &Registration{
		BaseEntity:   sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		studentID:    studentID,
		courseID:     courseID,
		registeredAt: registeredAt,
	}
}

func (r *Registration) StudentID() uuid.UUID    { return r.studentID }
func (r *Registration) CourseID() uuid.UUID     { return r.courseID }
func (r *Registration) RegisteredAt() time.Time { return r.registeredAt }
