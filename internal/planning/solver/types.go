package solver

import (
	"time"

	"github.com/google/uuid"
)

// Status reports the outcome of a solve.
type Status string

const (
	// StatusOptimal means the search space was exhausted within the wall
	// clock and the returned assignment minimizes the objective.
	StatusOptimal Status = "optimal"
	// StatusFeasible means a valid assignment was found but the wall clock
	// expired before optimality was proven.
	StatusFeasible Status = "feasible"
	// StatusFeasibleRelaxed means the primary pass was infeasible and the
	// assignment was found with the night window relaxed.
	StatusFeasibleRelaxed Status = "feasible_relaxed"
	// StatusInfeasible means no valid assignment exists, even relaxed.
	StatusInfeasible Status = "infeasible"
)

// FixedInterval is an immovable interval the solver plans around.
type FixedInterval struct {
	ID       uuid.UUID
	Start    time.Time
	End      time.Time
	Priority int
}

// FlexibleTask is a placeable unit of work. Academic tasks and flexible
// obligations both normalize to this shape.
type FlexibleTask struct {
	ID           uuid.UUID
	TotalHours   float64
	SessionHours float64
	StartDate    *time.Time
	EndDate      *time.Time
	Priority     int
	Dependencies []uuid.UUID
	// IsStudy marks sessions expanded from an academic task.
	IsStudy bool
	// AllowedDays restricts placement to the listed weekdays when non-empty.
	AllowedDays []time.Weekday
}

// PlacedSession is one produced interval.
type PlacedSession struct {
	TaskID       uuid.UUID
	SessionIndex int
	Start        time.Time
	End          time.Time
	Priority     int
	IsStudy      bool
}

// Result is the outcome of one solve run.
type Result struct {
	Status   Status
	Sessions []PlacedSession
	// Objective is the value of the minimized objective for the returned
	// assignment; zero when infeasible.
	Objective float64
	// NodesExplored counts search nodes, for logging.
	NodesExplored int
}

// ProfileWeights optionally biases placement toward historically productive
// slots. Zero Beta preserves the base objective.
type ProfileWeights struct {
	// SlotWeights maps "Weekday-Hour" keys to efficiencies in [0,1].
	SlotWeights map[string]float64
	// DayMultipliers maps weekday names to multipliers around 1.
	DayMultipliers map[string]float64
	Beta           float64
}

// Input is a complete solve request.
type Input struct {
	WeekStart time.Time
	Fixed     []FixedInterval
	Tasks     []FlexibleTask
	Weights   *ProfileWeights
}
