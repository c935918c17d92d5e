package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// EventType discriminates the calendar event variants.
type EventType string

const (
	EventFixedObligation    EventType = "fixed_obligation"
	EventFlexibleObligation EventType = "flexible_obligation"
	EventStudySession       EventType = "study_session"
	EventCourseLecture      EventType = "course_lecture"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventFixedObligation, EventFlexibleObligation, EventStudySession, EventCourseLecture:
		return true
	default:
		return false
	}
}

// EventStatus tracks a calendar event's lifecycle.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// EventRef is the tagged variant reference of a calendar event: the type tag
// plus the single foreign key it points at.
type EventRef struct {
	Type EventType
	ID   uuid.UUID
}

// FixedRef builds a reference to a fixed obligation.
func FixedRef(obligationID uuid.UUID) EventRef {
	return EventRef{Type: EventFixedObligation, ID: obligationID}
}

// FlexibleRef builds a reference to a flexible obligation.
func FlexibleRef(obligationID uuid.UUID) EventRef {
	return EventRef{Type: EventFlexibleObligation, ID: obligationID}
}

// StudyRef builds a reference to an academic task's study session.
func StudyRef(taskID uuid.UUID) EventRef {
	return EventRef{Type: EventStudySession, ID: taskID}
}

// LectureRef builds a reference to a course lecture.
func LectureRef(courseID uuid.UUID) EventRef {
	return EventRef{Type: EventCourseLecture, ID: courseID}
}

// CalendarEvent is a materialized placement on a student's calendar. Exactly
// one variant reference is set, matching the event type.
type CalendarEvent struct {
	sharedDomain.BaseEntity
	studentID uuid.UUID
	ref       EventRef
	date      time.Time
	startTime time.Time
	endTime   time.Time
	priority  int
	status    EventStatus
}

// NewCalendarEvent creates a scheduled calendar event.
func NewCalendarEvent(
	studentID uuid.UUID,
	ref EventRef,
	startTime, endTime time.Time,
	priority int,
) (*CalendarEvent, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if !ref.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, ref.Type)
	}
	if ref.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: event reference is required", ErrInvalidInput)
	}
	start := startTime.UTC()
	end := endTime.UTC()
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: event start must precede end", ErrInvalidInput)
	}

	return &CalendarEvent{
		BaseEntity: sharedDomain.NewBaseEntity(),
		studentID:  studentID,
		ref:        ref,
		date:       time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		startTime:  start,
		endTime:    end,
		priority:   priority,
		status:     EventScheduled,
	}, nil
}

// RehydrateCalendarEvent recreates an event from persisted state.
func RehydrateCalendarEvent(
	id uuid.UUID,
	studentID uuid.UUID,
	ref EventRef,
	date time.Time,
	startTime, endTime time.Time,
	priority int,
	status EventStatus,
	createdAt, updatedAt time.Time,
) *CalendarEvent {
	return &CalendarEvent{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		studentID:  studentID,
		ref:        ref,
		date:       date,
		startTime:  startTime,
		endTime:    endTime,
		priority:   priority,
		status:     status,
	}
}

func (e *CalendarEvent) StudentID() uuid.UUID { return e.studentID }
func (e *CalendarEvent) Ref() EventRef        { return e.ref }
func (e *CalendarEvent) Type() EventType      { return e.ref.Type }
func (e *CalendarEvent) Date() time.Time      { return e.date }
func (e *CalendarEvent) StartTime() time.Time { return e.startTime }
func (e *CalendarEvent) EndTime() time.Time   { return e.endTime }
func (e *CalendarEvent) Priority() int        { return e.priority }
func (e *CalendarEvent) Status() EventStatus  { return e.status }

// IsImmovable reports whether the scheduler must plan around this event.
func (e *CalendarEvent) IsImmovable() bool {
	return e.ref.Type == EventFixedObligation || e.ref.Type == EventCourseLecture
}

// IsPlaceable reports whether the scheduler owns this event and may delete
// and re-place it during a reschedule.
func (e *CalendarEvent) IsPlaceable() bool {
	return e.ref.Type == EventFlexibleObligation || e.ref.Type == EventStudySession
}

// Overlaps reports whether two events' half-open intervals intersect.
func (e *CalendarEvent) Overlaps(other *CalendarEvent) bool {
	return e.startTime.Before(other.endTime) && other.startTime.Before(e.endTime)
}

// Cancel marks the event cancelled.
func (e *CalendarEvent) Cancel() {
	e.status = EventCancelled
	e.Touch()
}

// Complete marks the event completed.
func (e *CalendarEvent) Complete() {
	e.status = EventCompleted
	e.Touch()
}
