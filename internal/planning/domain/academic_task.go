package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// TaskType classifies an academic deliverable.
type TaskType string

const (
	TaskRevision   TaskType = "revision"
	TaskAssignment TaskType = "assignment"
	TaskProject    TaskType = "project"
	TaskExam       TaskType = "exam"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskRevision, TaskAssignment, TaskProject, TaskExam:
		return true
	default:
		return false
	}
}

// TaskStatus tracks the lifecycle of an academic task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskOverdue    TaskStatus = "overdue"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskOverdue:
		return true
	default:
		return false
	}
}

// AcademicTask is a course deliverable that seeds schedulable study sessions
// until its deadline.
type AcademicTask struct {
	sharedDomain.BaseAggregateRoot
	studentID    uuid.UUID
	courseID     uuid.UUID
	taskType     TaskType
	title        string
	description  string
	deadline     time.Time
	status       TaskStatus
	totalHours   float64
	sessionHours float64
	// dependencies are task ids whose study sessions must all be scheduled
	// strictly before this task's sessions.
	dependencies []uuid.UUID
}

// NewAcademicTask creates a pending academic task.
func NewAcademicTask(
	studentID uuid.UUID,
	courseID uuid.UUID,
	taskType TaskType,
	title string,
	description string,
	deadline time.Time,
	totalHours float64,
	sessionHours float64,
	dependencies []uuid.UUID,
) (*AcademicTask, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if !taskType.IsValid() {
		return nil, fmt.Errorf("%w: unknown task type %q", ErrInvalidInput, taskType)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", ErrInvalidInput)
	}
	if totalHours <= 0 {
		totalHours = 1
	}
	if sessionHours <= 0 {
		sessionHours = 1
	}

	t := &AcademicTask{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		studentID:         studentID,
		courseID:          courseID,
		taskType:          taskType,
		title:             title,
		description:       description,
		deadline:          deadline.UTC(),
		status:            TaskPending,
		totalHours:        totalHours,
		sessionHours:      sessionHours,
		dependencies:      dependencies,
	}

	event := NewTaskChangedEvent(t.ID(), studentID, ChangeCreated)
	t.AddDomainEvent(&event)

	return t, nil
}

// RehydrateAcademicTask recreates a task from persisted state.
func RehydrateAcademicTask(
	id uuid.UUID,
	studentID uuid.UUID,
	courseID uuid.UUID,
	taskType TaskType,
	title string,
	description string,
	deadline time.Time,
	status TaskStatus,
	totalHours float64,
	sessionHours float64,
	dependencies []uuid.UUID,
	createdAt, updatedAt time.Time,
) *AcademicTask {
	return &AcademicTask{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		studentID:    studentID,
		courseID:     courseID,
		taskType:     taskType,
		title:        title,
		description:  description,
		deadline:     deadline,
		status:       status,
		totalHours:   totalHours,
		sessionHours: sessionHours,
		dependencies: dependencies,
	}
}

func (t *AcademicTask) StudentID() uuid.UUID  { return t.studentID }
func (t *AcademicTask) CourseID() uuid.UUID   { return t.courseID }
func (t *AcademicTask) TaskType() TaskType    { return t.taskType }
func (t *AcademicTask) Title() string         { return t.title }
func (t *AcademicTask) Description() string   { return t.description }
func (t *AcademicTask) Deadline() time.Time   { return t.deadline }
func (t *AcademicTask) Status() TaskStatus    { return t.status }
func (t *AcademicTask) TotalHours() float64   { return t.totalHours }
func (t *AcademicTask) SessionHours() float64 { return t.sessionHours }

func (t *AcademicTask) Dependencies() []uuid.UUID { return t.dependencies }

// Start moves the task to in_progress.
func (t *AcademicTask) Start() error {
	if t.status != TaskPending {
		return fmt.Errorf("%w: task is %s", ErrConflict, t.status)
	}
	t.status = TaskInProgress
	t.Touch()
	return nil
}

// Complete marks the task finished.
func (t *AcademicTask) Complete() error {
	if t.status == TaskCompleted {
		return fmt.Errorf("%w: task already completed", ErrConflict)
	}
	t.status = TaskCompleted
	t.Touch()

	event := NewTaskChangedEvent(t.ID(), t.studentID, ChangeUpdated)
	t.AddDomainEvent(&event)

	return nil
}

// MarkOverdueIfPast transitions uncompleted tasks whose deadline has passed.
// Returns true if the status changed.
func (t *AcademicTask) MarkOverdueIfPast(now time.Time) bool {
	if t.status == TaskCompleted || t.status == TaskOverdue {
		return false
	}
	if now.Before(t.deadline) {
		return false
	}
	t.status = TaskOverdue
	t.Touch()
	return true
}

// IsSchedulable reports whether the task should still seed study sessions.
func (t *AcademicTask) IsSchedulable() bool {
	return t.status == TaskPending || t.status == TaskInProgress
}
