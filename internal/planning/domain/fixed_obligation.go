package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// FixedObligation is a recurring immovable commitment owned by a student,
// such as a class or a standing meeting. Mutating one regenerates its future
// calendar events and triggers a reschedule.
type FixedObligation struct {
	sharedDomain.BaseAggregateRoot
	studentID   uuid.UUID
	name        string
	description string
	startTime   TimeOfDay
	endTime     TimeOfDay
	daysOfWeek  []time.Weekday
	startDate   time.Time
	endDate     *time.Time
	recurrence  Recurrence
	priority    int
	courseID    *uuid.UUID
}

// NewFixedObligation creates a fixed obligation, validating the template.
func NewFixedObligation(
	studentID uuid.UUID,
	name string,
	description string,
	startTime, endTime TimeOfDay,
	daysOfWeek []time.Weekday,
	startDate time.Time,
	endDate *time.Time,
	recurrence Recurrence,
	priority int,
	courseID *uuid.UUID,
) (*FixedObligation, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if startTime >= endTime {
		return nil, fmt.Errorf("%w: start time %s must precede end time %s", ErrInvalidInput, startTime, endTime)
	}
	if len(daysOfWeek) == 0 {
		return nil, fmt.Errorf("%w: days of week must not be empty", ErrInvalidInput)
	}
	if !recurrence.IsValid() {
		return nil, fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, recurrence)
	}
	if priority < 1 || priority > 5 {
		return nil, fmt.Errorf("%w: priority %d out of range [1..5]", ErrInvalidInput, priority)
	}
	if startDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	o := &FixedObligation{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		studentID:         studentID,
		name:              name,
		description:       description,
		startTime:         startTime,
		endTime:           endTime,
		daysOfWeek:        append([]time.Weekday(nil), daysOfWeek...),
		startDate:         startDate.UTC(),
		endDate:           endDate,
		recurrence:        recurrence,
		priority:          priority,
		courseID:          courseID,
	}

	event := NewObligationChangedEvent(o.ID(), studentID, ObligationKindFixed, ChangeCreated)
	o.AddDomainEvent(&event)

	return o, nil
}

// RehydrateFixedObligation recreates a fixed obligation from persisted state.
func RehydrateFixedObligation(
	id uuid.UUID,
	studentID uuid.UUID,
	name string,
	description string,
	startTime, endTime TimeOfDay,
	daysOfWeek []time.Weekday,
	startDate time.Time,
	endDate *time.Time,
	recurrence Recurrence,
	priority int,
	courseID *uuid.UUID,
	createdAt, updatedAt time.Time,
) *FixedObligation {
	return &FixedObligation{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		studentID:   studentID,
		name:        name,
		description: description,
		startTime:   startTime,
		endTime:     endTime,
		daysOfWeek:  daysOfWeek,
		startDate:   startDate,
		endDate:     endDate,
		recurrence:  recurrence,
		priority:    priority,
		courseID:    courseID,
	}
}

func (o *FixedObligation) StudentID() uuid.UUID       { return o.studentID }
func (o *FixedObligation) Name() string               { return o.name }
func (o *FixedObligation) Description() string        { return o.description }
func (o *FixedObligation) StartTime() TimeOfDay       { return o.startTime }
func (o *FixedObligation) EndTime() TimeOfDay         { return o.endTime }
func (o *FixedObligation) DaysOfWeek() []time.Weekday { return o.daysOfWeek }
func (o *FixedObligation) StartDate() time.Time       { return o.startDate }
func (o *FixedObligation) EndDate() *time.Time        { return o.endDate }
func (o *FixedObligation) Recurrence() Recurrence     { return o.recurrence }
func (o *FixedObligation) Priority() int              { return o.priority }
func (o *FixedObligation) CourseID() *uuid.UUID       { return o.courseID }

// UpdateTemplate replaces the schedulable template fields. Validation matches
// NewFixedObligation; callers regenerate events afterwards.
func (o *FixedObligation) UpdateTemplate(
	name string,
	description string,
	startTime, endTime TimeOfDay,
	daysOfWeek []time.Weekday,
	startDate time.Time,
	endDate *time.Time,
	recurrence Recurrence,
	priority int,
) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if startTime >= endTime {
		return fmt.Errorf("%w: start time %s must precede end time %s", ErrInvalidInput, startTime, endTime)
	}
	if len(daysOfWeek) == 0 {
		return fmt.Errorf("%w: days of week must not be empty", ErrInvalidInput)
	}
	if !recurrence.IsValid() {
		return fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, recurrence)
	}
	if priority < 1 || priority > 5 {
		return fmt.Errorf("%w: priority %d out of range [1..5]", ErrInvalidInput, priority)
	}
	if startDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if endDate != nil && endDate.Before(startDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	o.name = name
	o.description = description
	o.startTime = startTime
	o.endTime = endTime
	o.daysOfWeek = append([]time.Weekday(nil), daysOfWeek...)
	o.startDate = startDate.UTC()
	o.endDate = endDate
	o.recurrence = recurrence
	o.priority = priority
	o.Touch()

	event := NewObligationChangedEvent(o.ID(), o.studentID, ObligationKindFixed, ChangeUpdated)
	o.AddDomainEvent(&event)

	return nil
}
