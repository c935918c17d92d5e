package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// RegistrationChange discriminates registration event kinds.
type RegistrationChange string

const (
	RegistrationAdded   RegistrationChange = "added"
	RegistrationRemoved RegistrationChange = "removed"
)

// RegistrationChangedEvent is emitted when a student's course registrations
// change; subscribers reschedule around the new lecture load.
type RegistrationChangedEvent struct {
	sharedDomain.BaseEvent
	StudentID uuid.UUID          `json:"student_id"`
	CourseID  uuid.UUID          `json:"course_id"`
	Change    RegistrationChange `json:"change"`
}

// NewRegistrationChangedEvent creates a registration changed event.
func NewRegistrationChangedEvent(registrationID, studentID, courseID uuid.UUID, change RegistrationChange) RegistrationChangedEvent {
	return RegistrationChangedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(registrationID, "registration", "roster.registration.changed"),
		StudentID: studentID,
		CourseID:  courseID,
		Change:    change,
	}
}
