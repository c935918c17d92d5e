package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// SessionEvent is post-hoc telemetry for one study session. It is created
// when the student starts working and finalized when they stop; finalization
// feeds the productivity profile.
type SessionEvent struct {
	sharedDomain.BaseAggregateRoot
	studentID                uuid.UUID
	taskID                   *uuid.UUID
	startTime                time.Time
	endTime                  *time.Time
	estimatedDurationMinutes int
	actualDurationMinutes    *int
	completed                bool
	selfRating               *int
	difficulty               *int
	notes                    string
}

// NewSessionEvent starts a session.
func NewSessionEvent(studentID uuid.UUID, taskID *uuid.UUID, startTime time.Time, estimatedMinutes int) (*SessionEvent, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", planningDomain.ErrInvalidInput)
	}
	if startTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", planningDomain.ErrInvalidInput)
	}
	if estimatedMinutes <= 0 {
		return nil, fmt.Errorf("%w: estimated duration must be positive", planningDomain.ErrInvalidInput)
	}

	return &SessionEvent{
		BaseAggregateRoot:        sharedDomain.NewBaseAggregateRoot(),
		studentID:                studentID,
		taskID:                   taskID,
		startTime:                startTime.UTC(),
		estimatedDurationMinutes: estimatedMinutes,
	}, nil
}

// RehydrateSessionEvent recreates a session event from persisted state.
func RehydrateSessionEvent(
	id uuid.UUID,
	studentID uuid.UUID,
	taskID *uuid.UUID,
	startTime time.Time,
	endTime *time.Time,
	estimatedMinutes int,
	actualMinutes *int,
	completed bool,
	selfRating *int,
	difficulty *int,
	notes string,
	createdAt, updatedAt time.Time,
) *SessionEvent {
	return &SessionEvent{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		studentID:                studentID,
		taskID:                   taskID,
		startTime:                startTime,
		endTime:                  endTime,
		estimatedDurationMinutes: estimatedMinutes,
		actualDurationMinutes:    actualMinutes,
		completed:                completed,
		selfRating:               selfRating,
		difficulty:               difficulty,
		notes:                    notes,
	}
}

func (s *SessionEvent) StudentID() uuid.UUID       { return s.studentID }
func (s *SessionEvent) TaskID() *uuid.UUID         { return s.taskID }
func (s *SessionEvent) StartTime() time.Time       { return s.startTime }
func (s *SessionEvent) EndTime() *time.Time        { return s.endTime }
func (s *SessionEvent) EstimatedMinutes() int      { return s.estimatedDurationMinutes }
func (s *SessionEvent) ActualMinutes() *int        { return s.actualDurationMinutes }
func (s *SessionEvent) Completed() bool            { return s.completed }
func (s *SessionEvent) SelfRating() *int           { return s.selfRating }
func (s *SessionEvent) Difficulty() *int           { return s.difficulty }
func (s *SessionEvent) Notes() string              { return s.notes }
func (s *SessionEvent) IsFinalized() bool          { return s.endTime != nil }

// Finalize closes the session and derives the actual duration.
func (s *SessionEvent) Finalize(endTime time.Time, completed bool, selfRating, difficulty *int, notes string) error {
	if s.endTime != nil {
		return fmt.Errorf("%w: session already finalized", planningDomain.ErrConflict)
	}
	end := endTime.UTC()
	if !end.After(s.startTime) {
		return fmt.Errorf("%w: session end must follow start", planningDomain.ErrInvalidInput)
	}
	if selfRating != nil && (*selfRating < 1 || *selfRating > 5) {
		return fmt.Errorf("%w: self rating %d out of range [1..5]", planningDomain.ErrInvalidInput, *selfRating)
	}
	if difficulty != nil && (*difficulty < 1 || *difficulty > 5) {
		return fmt.Errorf("%w: difficulty %d out of range [1..5]", planningDomain.ErrInvalidInput, *difficulty)
	}

	actual := int(math.Round(end.Sub(s.startTime).Minutes()))
	if actual < 1 {
		actual = 1
	}

	s.endTime = &end
	s.actualDurationMinutes = &actual
	s.completed = completed
	s.selfRating = selfRating
	s.difficulty = difficulty
	s.notes = notes
	s.Touch()

	event := NewSessionFinalizedEvent(s.ID(), s.studentID, completed)
	s.AddDomainEvent(&event)

	return nil
}
