package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	sharedDomain "github.com/studora/studora/internal/shared/domain"
)

// SignalKind classifies a context signal.
type SignalKind string

const (
	SignalClass    SignalKind = "class"
	SignalMeeting  SignalKind = "meeting"
	SignalExam     SignalKind = "exam"
	SignalSleep    SignalKind = "sleep"
	SignalExercise SignalKind = "exercise"
	SignalCommute  SignalKind = "commute"
)

func (k SignalKind) IsValid() bool {
	switch k {
	case SignalClass, SignalMeeting, SignalExam, SignalSleep, SignalExercise, SignalCommute:
		return true
	default:
		return false
	}
}

// IsHardCommitment reports whether the signal marks an appointment students
// need slack before; these drive the soft-obligation buffer.
func (k SignalKind) IsHardCommitment() bool {
	return k == SignalClass || k == SignalMeeting || k == SignalExam
}

// ContextSignal is a point-in-time context observation with a free payload.
type ContextSignal struct {
	sharedDomain.BaseEntity
	studentID uuid.UUID
	kind      SignalKind
	startTime time.Time
	endTime   time.Time
	payload   map[string]string
}

// NewContextSignal records a context signal.
func NewContextSignal(studentID uuid.UUID, kind SignalKind, startTime, endTime time.Time, payload map[string]string) (*ContextSignal, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student id is required", planningDomain.ErrInvalidInput)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown signal kind %q", planningDomain.ErrInvalidInput, kind)
	}
	start := startTime.UTC()
	end := endTime.UTC()
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: signal start must precede end", planningDomain.ErrInvalidInput)
	}

	return &ContextSignal{
		BaseEntity: sharedDomain.NewBaseEntity(),
		studentID:  studentID,
		kind:       kind,
		startTime:  start,
		endTime:    end,
		payload:    payload,
	}, nil
}

// RehydrateContextSignal recreates a signal from persisted state.
func RehydrateContextSignal(
	id uuid.UUID,
	studentID uuid.UUID,
	kind SignalKind,
	startTime, endTime time.Time,
	payload map[string]string,
	createdAt, updatedAt time.Time,
) *ContextSignal {
	return &ContextSignal{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		studentID:  studentID,
		kind:       kind,
		startTime:  startTime,
		endTime:    endTime,
		payload:    payload,
	}
}

func (s *ContextSignal) StudentID() uuid.UUID       { return s.studentID }
func (s *ContextSignal) Kind() SignalKind           { return s.kind }
func (s *ContextSignal) StartTime() time.Time       { return s.startTime }
func (s *ContextSignal) EndTime() time.Time         { return s.endTime }
func (s *ContextSignal) Payload() map[string]string { return s.payload }
