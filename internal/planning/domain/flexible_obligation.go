package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// Constraints are the optional placement constraints of a flexible obligation.
type Constraints struct {
	// SessionHours is the preferred length of one placed session. Zero means
	// unspecified; the normalizer defaults it to 1.
	SessionHours float64 `json:"session_hours,omitempty"`
	// AllowedDays restricts placement to the listed weekdays when non-empty.
	AllowedDays []time.Weekday `json:"allowed_days,omitempty"`
}

// FlexibleObligation is a weekly time-budget commitment the scheduler places.
type FlexibleObligation struct {
	sharedDomain.BaseAggregateRoot
	studentID         uuid.UUID
	name              string
	description       string
	weeklyTargetHours float64
	constraints       Constraints
	startDate         *time.Time
	endDate           *time.Time
	priority          int
}

// NewFlexibleObligation creates a flexible obligation.
func NewFlexibleObligation(
	studentID uuid.UUID,
	name string,
	description string,
	weeklyTargetHours float64,
	constraints Constraints,
	startDate, endDate *time.Time,
	priority int,
) (*FlexibleObligation, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if weeklyTargetHours <= 0 {
		return nil, fmt.Errorf("%w: weekly target hours must be positive", ErrInvalidInput)
	}
	if priority < 1 || priority > 5 {
		return nil, fmt.Errorf("%w: priority %d out of range [1..5]", ErrInvalidInput, priority)
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	o := &FlexibleObligation{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		studentID:         studentID,
		name:              name,
		description:       description,
		weeklyTargetHours: weeklyTargetHours,
		constraints:       constraints,
		startDate:         startDate,
		endDate:           endDate,
		priority:          priority,
	}

	event := NewObligationChangedEvent(o.ID(), studentID, ObligationKindFlexible, ChangeCreated)
	o.AddDomainEvent(&event)

	return o, nil
}

// RehydrateFlexibleObligation recreates a flexible obligation from persisted state.
func RehydrateFlexibleObligation(
	id uuid.UUID,
	studentID uuid.UUID,
	name string,
	description string,
	weeklyTargetHours float64,
	constraints Constraints,
	startDate, endDate *time.Time,
	priority int,
	createdAt, updatedAt time.Time,
) *FlexibleObligation {
	return &FlexibleObligation{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		studentID:         studentID,
		name:              name,
		description:       description,
		weeklyTargetHours: weeklyTargetHours,
		constraints:       constraints,
		startDate:         startDate,
		endDate:           endDate,
		priority:          priority,
	}
}

func (o *FlexibleObligation) StudentID() uuid.UUID       { return o.studentID }
func (o *FlexibleObligation) Name() string               { return o.name }
func (o *FlexibleObligation) Description() string        { return o.description }
func (o *FlexibleObligation) WeeklyTargetHours() float64 { return o.weeklyTargetHours }
func (o *FlexibleObligation) Constraints() Constraints   { return o.constraints }
func (o *FlexibleObligation) StartDate() *time.Time      { return o.startDate }
func (o *FlexibleObligation) EndDate() *time.Time        { return o.endDate }
func (o *FlexibleObligation) Priority() int              { return o.priority }

// UpdateBudget replaces the weekly budget and placement constraints.
func (o *FlexibleObligation) UpdateBudget(weeklyTargetHours float64, constraints Constraints, startDate, endDate *time.Time, priority int) error {
	if weeklyTargetHours <= 0 {
		return fmt.Errorf("%w: weekly target hours must be positive", ErrInvalidInput)
	}
	if priority < 1 || priority > 5 {
		return fmt.Errorf("%w: priority %d out of range [1..5]", ErrInvalidInput, priority)
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	o.weeklyTargetHours = weeklyTargetHours
	o.constraints = constraints
	o.startDate = startDate
	o.endDate = endDate
	o.priority = priority
	o.Touch()

	event := NewObligationChangedEvent(o.ID(), o.studentID, ObligationKindFlexible, ChangeUpdated)
	o.AddDomainEvent(&event)

	return nil
}
