package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// SessionFinalizedEvent is emitted when a study session closes; subscribers
// refresh the student's productivity profile.
type SessionFinalizedEvent struct {
	sharedDomain.BaseEvent
	StudentID uuid.UUID `json:"student_id"`
	Completed bool      `json:"completed"`
}

// NewSessionFinalizedEvent creates a session finalized event.
func NewSessionFinalizedEvent(sessionID, studentID uuid.UUID, completed bool) SessionFinalizedEvent {
	return SessionFinalizedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(sessionID, "session_event", "behavior.session.finalized"),
		StudentID: studentID,
		Completed: completed,
	}
}

// ProfileUpdatedEvent is emitted after the profile's learned parameters are
// re-derived and persisted.
type ProfileUpdatedEvent struct {
	sharedDomain.BaseEvent
	StudentID uuid.UUID `json:"student_id"`
}

// NewProfileUpdatedEvent creates a profile updated event.
func NewProfileUpdatedEvent(profileID, studentID uuid.UUID) ProfileUpdatedEvent {
	return ProfileUpdatedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(profileID, "productivity_profile", "behavior.profile.updated"),
		StudentID: studentID,
	}
}
