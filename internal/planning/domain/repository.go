package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FixedObligationRepository persists fixed obligations.
type FixedObligationRepository interface {
	Save(ctx context.Context, obligation *FixedObligation) error
	FindByID(ctx context.Context, id uuid.UUID) (*FixedObligation, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*FixedObligation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FlexibleObligationRepository persists flexible obligations.
type FlexibleObligationRepository interface {
	Save(ctx context.Context, obligation *FlexibleObligation) error
	FindByID(ctx context.Context, id uuid.UUID) (*FlexibleObligation, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*FlexibleObligation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AcademicTaskRepository persists academic tasks.
type AcademicTaskRepository interface {
	Save(ctx context.Context, task *AcademicTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*AcademicTask, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*AcademicTask, error)
	FindSchedulableByStudent(ctx context.Context, studentID uuid.UUID) ([]*AcademicTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CalendarEventRepository persists calendar events, including the bulk
// operations the reschedule coordinator and recurrence expander rely on.
type CalendarEventRepository interface {
	Save(ctx context.Context, event *CalendarEvent) error
	SaveBatch(ctx context.Context, events []*CalendarEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*CalendarEvent, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]*CalendarEvent, error)
	FindByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*CalendarEvent, error)

	// DeleteFutureByRef removes events referencing the given obligation whose
	// start is at or after the cutoff. Used when regenerating recurrences.
	DeleteFutureByRef(ctx context.Context, ref EventRef, cutoff time.Time) (int64, error)

	// DeleteByRef removes every event referencing the given obligation.
	DeleteByRef(ctx context.Context, ref EventRef) (int64, error)

	// DeleteByRefForStudent removes one student's events referencing the
	// given source. Used when a registration is dropped.
	DeleteByRefForStudent(ctx context.Context, ref EventRef, studentID uuid.UUID) (int64, error)

	// DeletePlaceableByStudent removes all flexible-obligation and
	// study-session events owned by the student.
	DeletePlaceableByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
