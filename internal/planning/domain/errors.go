package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput covers non-positive hours, empty day sets, inverted
	// date windows, unknown weekday names, and out-of-range priorities.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInfeasible is returned when the solver finds no assignment even
	// after the night window is relaxed.
	ErrInfeasible = errors.New("schedule infeasible")

	// ErrSolverTimeout is returned when the wall clock expires without a
	// feasible incumbent.
	ErrSolverTimeout = errors.New("solver timed out")

	// ErrSolverAborted is returned when a run is cancelled mid-solve.
	ErrSolverAborted = errors.New("solver aborted")

	// ErrPersistence wraps write failures while applying a schedule.
	ErrPersistence = errors.New("persistence error")

	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
)

// NoWindowError reports a task whose placement window is empty after
// intersecting its dates with the horizon.
type NoWindowError struct {
	TaskID uuid.UUID
}

func (e *NoWindowError) Error() string {
	return fmt.Sprintf("task %s has no placement window", e.TaskID)
}

// Is makes NoWindowError match ErrInvalidInput for callers that only
// distinguish the coarse error kinds.
func (e *NoWindowError) Is(target error) bool {
	return target == ErrInvalidInput
}
