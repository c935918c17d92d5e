package domain

import (
	"github.com/google/uuid"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// ObligationKind distinguishes obligation aggregates in change events.
type ObligationKind string

const (
	ObligationKindFixed    ObligationKind = "fixed"
	ObligationKindFlexible ObligationKind = "flexible"
)

// ChangeKind describes what happened to an obligation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ObligationChangedEvent is emitted when an obligation is created, updated,
// or deleted; subscribers trigger a reschedule for the student.
type ObligationChangedEvent struct {
	sharedDomain.BaseEvent
	StudentID uuid.UUID      `json:"student_id"`
	Kind      ObligationKind `json:"kind"`
	Change    ChangeKind     `json:"change"`
}

// NewObligationChangedEvent creates an obligation change event.
func NewObligationChangedEvent(obligationID, studentID uuid.UUID, kind ObligationKind, change ChangeKind) ObligationChangedEvent {
	return ObligationChangedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(obligationID, "obligation", "planning.obligation.changed"),
		StudentID: studentID,
		Kind:      kind,
		Change:    change,
	}
}

// TaskChangedEvent is emitted when an academic task is created or completed;
// subscribers trigger a reschedule for the student.
type TaskChangedEvent struct {
	sharedDomain.BaseEvent
	StudentID uuid.UUID  `json:"student_id"`
	Change    ChangeKind `json:"change"`
}

// NewTaskChangedEvent creates a task change event.
func NewTaskChangedEvent(taskID, studentID uuid.UUID, change ChangeKind) TaskChangedEvent {
	return TaskChangedEvent{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, "academic_task", "planning.task.changed"),
		StudentID: studentID,
		Change:    change,
	}
}

// ScheduleAppliedEvent is emitted after a reschedule commits.
type ScheduleAppliedEvent struct {
	sharedDomain.BaseEvent
	StudentID    uuid.UUID `json:"student_id"`
	AppliedCount int       `json:"applied_count"`
	SolverStatus string    `json:"solver_status"`
}

// NewScheduleAppliedEvent creates a schedule applied event.
func NewScheduleAppliedEvent(studentID uuid.UUID, appliedCount int, solverStatus string) ScheduleAppliedEvent {
	return ScheduleAppliedEvent{
		BaseEvent:    sharedDomain.NewBaseEvent(studentID, "schedule", "planning.schedule.applied"),
		StudentID:    studentID,
		AppliedCount: appliedCount,
		SolverStatus: solverStatus,
	}
}
